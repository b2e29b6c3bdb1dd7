package layout

import (
	"fmt"
	"io"

	"github.com/penwyp/go-milestone-board/internal/core/model"
	"github.com/penwyp/go-milestone-board/internal/util"
)

// CompactLayoutStrategy lists the milestones of the cursor lane when the
// terminal is too narrow for the chart.
type CompactLayoutStrategy struct {
	BaseStrategy
}

func (s *CompactLayoutStrategy) GetName() string {
	return "Compact List"
}

func (s *CompactLayoutStrategy) Render(w io.Writer, v *View, param Param) {
	lines := s.header(v, param.Width)
	if v.ShowHelp {
		s.writeLines(w, append(lines, s.help()...))
		return
	}

	if len(v.Lanes) == 0 {
		lines = append(lines, fmt.Sprintf("No open milestones in %s.", v.Category))
	} else {
		row := 0
		if v.HasCursor {
			row = v.CursorRow
		}
		lane := v.Lanes[row]
		lines = append(lines, util.ColorBold+util.TruncateToWidth(fmt.Sprintf("%d/%d %s", row+1, len(v.Lanes), lane.Label), param.Width)+util.ColorReset)
		for c, p := range lane.Points {
			marker := " "
			if v.HasCursor && c == v.CursorCol {
				marker = ">"
			}
			dot := util.MilestoneColor(v.milestoneIndex(p.Milestone)) + glyphPoint + util.ColorReset
			text := util.TruncateToWidth(fmt.Sprintf("%s %s", model.FormatDate(p.Date), p.Milestone), param.Width-4)
			lines = append(lines, fmt.Sprintf("%s %s %s", marker, dot, text))
		}
	}

	lines = append(lines, s.panel(v, param.Width)...)
	lines = append(lines, s.footer(v, param.Width))
	s.writeLines(w, lines)
}
