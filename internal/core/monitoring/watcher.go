package monitoring

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/penwyp/go-milestone-board/internal/core/model"
	"github.com/penwyp/go-milestone-board/internal/util"
)

// FileWatcher reports changes to a single file. It watches the parent
// directory so that editors saving through a rename are still seen.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	name    string
	events  chan model.FileEvent
	done    sync.WaitGroup
}

// NewFileWatcher starts watching path.
func NewFileWatcher(path string) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	fw := &FileWatcher{
		watcher: watcher,
		path:    abs,
		name:    filepath.Base(abs),
		events:  make(chan model.FileEvent, 16),
	}

	fw.done.Add(1)
	go fw.processEvents()

	return fw, nil
}

func (fw *FileWatcher) processEvents() {
	defer fw.done.Done()
	defer close(fw.events)

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != fw.name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			fe := model.FileEvent{Path: fw.path, Operation: event.Op.String()}
			select {
			case fw.events <- fe:
			default:
				// A reload is already pending.
				util.LogDebugf("Dropped %s event for %s", fe.Operation, fe.Path)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("File monitoring error: " + err.Error())
		}
	}
}

// Events delivers change notifications. The channel is closed by Close.
func (fw *FileWatcher) Events() <-chan model.FileEvent {
	return fw.events
}

// Close stops watching and waits for the event loop to exit.
func (fw *FileWatcher) Close() error {
	err := fw.watcher.Close()
	fw.done.Wait()
	return err
}
