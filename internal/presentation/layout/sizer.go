package layout

import (
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/penwyp/go-milestone-board/internal/util"
	"golang.org/x/term"
)

// Package-level singleton Sizer instance
var sharedSizer = &Sizer{}

// Fallback frame when stdout is not a terminal
const (
	defaultWidth  = 100
	defaultHeight = 30
)

type Sizer struct {
}

// displayWidth calculates the actual display width of a string containing wide runes
func (i Sizer) displayWidth(s string) int {
	return runewidth.StringWidth(s)
}

// PadString pads a string to a specific display width
func (i Sizer) PadString(s string, width int, leftAlign bool) string {
	actualWidth := i.displayWidth(s)
	if actualWidth >= width {
		return s
	}

	padding := strings.Repeat(" ", width-actualWidth)
	if leftAlign {
		return s + padding
	}
	return padding + s
}

// Param returns the current terminal size as frame dimensions.
func (i Sizer) Param() Param {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 || height <= 0 {
		width, height = defaultWidth, defaultHeight
	}

	util.LogDebugf("Terminal size %dx%d", width, height)
	return Param{Width: width, Height: height}
}

// GetSizer returns the shared sizer.
func GetSizer() *Sizer {
	return sharedSizer
}
