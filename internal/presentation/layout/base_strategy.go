package layout

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-milestone-board/internal/core/editsession"
	"github.com/penwyp/go-milestone-board/internal/core/model"
	"github.com/penwyp/go-milestone-board/internal/util"
)

// Board title shown in the header
const Title = "NPI Milestone Timeline"

// Glyphs
const (
	glyphPoint  = "●"
	glyphCursor = "◆"
	glyphMarker = "│"
	glyphToday  = "┊"
	emptyDate   = "—"
)

// BaseStrategy provides common functionality for all layout strategies
type BaseStrategy struct {
}

// GetSizer returns the shared sizer instance
func (b *BaseStrategy) GetSizer() *Sizer {
	return sharedSizer
}

// writeLines prints lines, clearing what a longer previous frame left on
// each line.
func (b *BaseStrategy) writeLines(w io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprint(w, line, util.ClearLineFromCursor, "\n")
	}
}

// header renders the title and the category tabs.
func (b *BaseStrategy) header(v *View, width int) []string {
	title := Title
	today := ""
	if v.Today.IsValid() {
		today = "Today " + model.FormatDate(v.Today)
	}
	gap := max(1, width-util.GetDisplayWidth(title)-util.GetDisplayWidth(today))
	top := util.FormatHeaderTitle(title) + strings.Repeat(" ", gap) + util.ColorGray + today + util.ColorReset

	var tabs strings.Builder
	tabs.WriteString("Category: ")
	for i, c := range v.Categories {
		if i > 0 {
			tabs.WriteString(" ")
		}
		if c == v.Category {
			tabs.WriteString(util.ColorReverse + " " + c + " " + util.ColorReset)
		} else {
			tabs.WriteString(" " + c + " ")
		}
	}
	return []string{top, tabs.String()}
}

// legend renders the milestone colours, wrapped to width.
func (b *BaseStrategy) legend(v *View, width int) []string {
	var lines []string
	var line strings.Builder
	used := 0
	for i, m := range v.Milestones {
		item := glyphPoint + " " + m
		w := util.GetDisplayWidth(item) + 2
		if used > 0 && used+w > width {
			lines = append(lines, line.String())
			line.Reset()
			used = 0
		}
		line.WriteString(util.MilestoneColor(i) + glyphPoint + util.ColorReset + " " + m + "  ")
		used += w
	}
	if used > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

// panel renders the detail view of the selection.
func (b *BaseStrategy) panel(v *View, width int) []string {
	p := v.Panel
	lines := []string{util.FormatSectionSeparator(width)}

	if !p.Selected() {
		lines = append(lines, util.ColorGray+editsession.IdlePrompt+util.ColorReset)
	} else {
		lines = append(lines, util.FormatSectionTitle(util.TruncateToWidth(p.Title(), width)))
		if p.Milestone != "" {
			d := model.FormatDate(p.Date)
			if d == "" {
				d = emptyDate
			}
			lines = append(lines, fmt.Sprintf("  Milestone: %s   Date: %s", p.Milestone, d))
		}
		lines = append(lines,
			util.TruncateToWidth("  "+model.EditNextStep.Label()+": "+orDash(p.NextStep), width),
			util.TruncateToWidth("  "+model.EditActionItems.Label()+": "+orDash(p.ActionItems), width),
		)
	}

	if v.Editing != model.EditNone {
		prompt := fmt.Sprintf("  > %s: %s", v.Editing.Label(), v.Input)
		lines = append(lines, util.ColorBold+util.TruncateToWidth(prompt, width-1)+"█"+util.ColorReset)
	}

	if p.Message != "" {
		msg := util.TruncateToWidth(p.Message, width)
		if p.Err != nil {
			lines = append(lines, util.FormatError(msg))
		} else {
			lines = append(lines, util.FormatSuccess(msg))
		}
	}
	return lines
}

// footer renders the key hints for the current mode, or the status line.
func (b *BaseStrategy) footer(v *View, width int) string {
	hint := "←→↑↓ move  Tab category  Enter select  r reload  ? help  q quit"
	switch {
	case v.Editing != model.EditNone:
		hint = "Enter submit  Esc cancel"
	case v.Panel.Selected():
		hint = "d date  n next step  a action items  Esc close  ←→↑↓ move  ? help  q quit"
	}
	if v.Status != "" {
		hint = v.Status + "  |  " + hint
	}
	return util.ColorGray + util.TruncateToWidth(hint, width) + util.ColorReset
}

// help renders the keyboard reference.
func (b *BaseStrategy) help() []string {
	return []string{
		"",
		util.FormatSectionTitle("Keyboard Shortcuts"),
		"",
		"  ←/→ or h/l   - Previous / next milestone of the project",
		"  ↑/↓ or k/j   - Previous / next project",
		"  Tab          - Next category",
		"  Enter        - Show details of the milestone under the cursor",
		"  d            - Edit the milestone date (YYYY-MM-DD, empty clears)",
		"  n            - Edit the next step plan",
		"  a            - Edit the action items",
		"  Enter        - Submit the edit and save the workbook",
		"  Esc          - Cancel the edit or close the details",
		"  r            - Reload the workbook",
		"  q/Ctrl+C     - Quit the program",
		"",
		"Press '?' to return...",
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return emptyDate
	}
	return s
}
