package display

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/penwyp/go-milestone-board/internal/presentation/layout"
	"github.com/penwyp/go-milestone-board/internal/util"
)

// TerminalDisplay draws board frames on a terminal.
type TerminalDisplay struct {
	out               io.Writer
	mu                sync.Mutex
	inAlternateScreen bool
	lastLayout        string
	isFirstRender     bool
}

// NewTerminalDisplay creates a display writing to out, or stdout when nil.
func NewTerminalDisplay(out io.Writer) *TerminalDisplay {
	if out == nil {
		out = os.Stdout
	}
	return &TerminalDisplay{
		out:           out,
		isFirstRender: true,
	}
}

// EnterAlternateScreen switches to alternate screen buffer
func (td *TerminalDisplay) EnterAlternateScreen() {
	td.mu.Lock()
	defer td.mu.Unlock()

	if td.inAlternateScreen {
		return
	}
	io.WriteString(td.out, util.EnterAltScreen+util.ClearScreen+util.MoveCursorHome+util.HideCursor)
	td.inAlternateScreen = true
	td.isFirstRender = true
}

// ExitAlternateScreen returns to normal screen buffer
func (td *TerminalDisplay) ExitAlternateScreen() {
	td.mu.Lock()
	defer td.mu.Unlock()

	if !td.inAlternateScreen {
		return
	}
	io.WriteString(td.out, util.ClearScreen+util.MoveCursorHome+util.ShowCursor+util.ExitAltScreen)
	td.inAlternateScreen = false
}

// Render draws one frame. The whole frame is written at once; the screen
// is only cleared on the first frame or when the layout changes.
func (td *TerminalDisplay) Render(view *layout.View, param layout.Param) {
	td.mu.Lock()
	defer td.mu.Unlock()

	strategy := layout.GetLayoutStrategy(param)

	var buf bytes.Buffer
	if td.isFirstRender || strategy.GetName() != td.lastLayout {
		buf.WriteString(util.ClearScreen)
		td.isFirstRender = false
		td.lastLayout = strategy.GetName()
		util.LogDebugf("Rendering with %s layout", td.lastLayout)
	}
	buf.WriteString(util.MoveCursorHome)
	strategy.Render(&buf, view, param)
	buf.WriteString(util.ClearToEnd)

	if _, err := td.out.Write(buf.Bytes()); err != nil {
		util.LogErrorf("Failed to draw frame: %v", err)
	}
}
