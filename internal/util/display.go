package util

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Terminal control sequences
const (
	ColorReset   = "\033[0m"
	ColorBlue    = "\033[34m"
	ColorCyan    = "\033[36m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorRed     = "\033[31m"
	ColorMagenta = "\033[35m"
	ColorWhite   = "\033[37m"
	ColorGray    = "\033[90m"
	ColorBold    = "\033[1m"
	ColorReverse = "\033[7m"

	ClearScreen         = "\033[2J"     // Clear entire screen
	ClearLineFromCursor = "\033[0K"     // Clear from cursor to end of line
	ClearToEnd          = "\033[0J"     // Clear from cursor to end of screen
	MoveCursorHome      = "\033[H"      // Move cursor to home position
	HideCursor          = "\033[?25l"   // Hide cursor
	ShowCursor          = "\033[?25h"   // Show cursor
	EnterAltScreen      = "\033[?1049h" // Switch to alternate screen buffer
	ExitAltScreen       = "\033[?1049l" // Return to normal screen buffer
)

// MilestoneColors cycles through one colour per milestone column.
var MilestoneColors = []string{
	ColorBlue, ColorGreen, ColorYellow, ColorMagenta,
	ColorCyan, ColorRed, ColorWhite, ColorGray,
}

// MilestoneColor returns the colour of the i-th milestone.
func MilestoneColor(i int) string {
	if i < 0 {
		return ColorReset
	}
	return MilestoneColors[i%len(MilestoneColors)]
}

// GetDisplayWidth calculates the actual display width of a string, accounting for wide runes
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// TruncateToWidth cuts text to width display cells, marking the cut with "…".
func TruncateToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(text, width, "…")
}

// PadToWidth truncates or right-pads text to exactly width display cells.
func PadToWidth(text string, width int) string {
	text = TruncateToWidth(text, width)
	return text + strings.Repeat(" ", max(0, width-runewidth.StringWidth(text)))
}

// FormatHeaderTitle formats main header titles (Magenta + Bold)
func FormatHeaderTitle(title string) string {
	return fmt.Sprintf("%s%s%s%s", ColorBold, ColorMagenta, title, ColorReset)
}

// FormatSectionTitle formats panel titles (Cyan + Bold)
func FormatSectionTitle(title string) string {
	return fmt.Sprintf("%s%s%s%s", ColorBold, ColorCyan, title, ColorReset)
}

// FormatError formats an error line (Red)
func FormatError(text string) string {
	return ColorRed + text + ColorReset
}

// FormatSuccess formats a confirmation line (Green)
func FormatSuccess(text string) string {
	return ColorGreen + text + ColorReset
}

// FormatSectionSeparator creates a visual separator line of width cells
func FormatSectionSeparator(width int) string {
	return ColorCyan + strings.Repeat("─", max(0, width)) + ColorReset
}
