package board

import (
	"context"
	"time"

	"github.com/penwyp/go-milestone-board/internal/core/model"
	"github.com/penwyp/go-milestone-board/internal/util"
)

// Watch reloads the board after each burst of file events, once no event
// arrived for debounce. It returns when ctx is done or events is closed.
func (b *Board) Watch(ctx context.Context, events <-chan model.FileEvent, debounce time.Duration) {
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			util.LogDebugf("File changed: %s (%s)", event.Path, event.Operation)
			timer.Reset(debounce)
		case <-timer.C:
			if _, err := b.ReloadIfChanged(ctx); err != nil {
				util.LogErrorf("Failed to reload after file change: %v", err)
			}
		}
	}
}
