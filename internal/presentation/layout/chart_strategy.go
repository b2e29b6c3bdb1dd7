package layout

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-milestone-board/internal/core/model"
	"github.com/penwyp/go-milestone-board/internal/core/timeline"
	"github.com/penwyp/go-milestone-board/internal/util"
)

// Lines taken by everything except the chart rows
const chartChrome = 16

// ChartLayoutStrategy draws the milestones as a scatter timeline, one lane
// per project row.
type ChartLayoutStrategy struct {
	BaseStrategy
}

func (s *ChartLayoutStrategy) GetName() string {
	return "Timeline Chart"
}

func (s *ChartLayoutStrategy) Render(w io.Writer, v *View, param Param) {
	lines := s.header(v, param.Width)
	if v.ShowHelp {
		s.writeLines(w, append(lines, s.help()...))
		return
	}

	lines = append(lines, s.chart(v, param)...)
	lines = append(lines, s.legend(v, param.Width)...)
	lines = append(lines, s.panel(v, param.Width)...)
	lines = append(lines, s.footer(v, param.Width))
	s.writeLines(w, lines)
}

// cell is one character of the plot area.
type cell struct {
	glyph string
	color string
}

// chartSpan is the axis range: every point plus the reference markers.
func chartSpan(v *View) timeline.Span {
	var span timeline.Span
	for _, lane := range v.Lanes {
		for _, p := range lane.Points {
			span = span.Extend(p.Date)
		}
	}
	if span.Empty() {
		return span
	}
	for _, m := range v.Markers {
		span = span.Extend(m.Date)
	}
	return span
}

func (s *ChartLayoutStrategy) chart(v *View, param Param) []string {
	if len(v.Lanes) == 0 {
		return []string{"", fmt.Sprintf("  No open milestones in %s.", v.Category), ""}
	}

	span := chartSpan(v)

	labelW := 8
	for _, lane := range v.Lanes {
		labelW = max(labelW, util.GetDisplayWidth(lane.Label))
	}
	labelW = min(labelW, max(8, param.Width/3))
	plotW := max(10, param.Width-labelW-3)

	visible := max(3, param.Height-chartChrome)
	offset := 0
	if v.HasCursor && v.CursorRow >= visible {
		offset = v.CursorRow - visible + 1
	}
	end := min(len(v.Lanes), offset+visible)

	// Vertical lines shared by every lane
	base := make([]cell, plotW)
	for i := range base {
		base[i] = cell{glyph: " "}
	}
	for _, m := range v.Markers {
		if span.Contains(m.Date) {
			base[span.Column(m.Date, plotW)] = cell{glyph: glyphMarker, color: util.ColorGray}
		}
	}
	if span.Contains(v.Today) {
		base[span.Column(v.Today, plotW)] = cell{glyph: glyphToday, color: util.ColorYellow}
	}

	var lines []string
	if offset > 0 {
		lines = append(lines, util.ColorGray+fmt.Sprintf("  ↑ %d more", offset)+util.ColorReset)
	}
	for r := offset; r < end; r++ {
		lane := v.Lanes[r]
		cells := make([]cell, plotW)
		copy(cells, base)
		for _, p := range lane.Points {
			cells[span.Column(p.Date, plotW)] = cell{glyph: glyphPoint, color: util.MilestoneColor(v.milestoneIndex(p.Milestone))}
		}
		if v.HasCursor && r == v.CursorRow {
			if p, ok := v.Cursor(); ok {
				cells[span.Column(p.Date, plotW)] = cell{glyph: glyphCursor, color: util.ColorReverse + util.MilestoneColor(v.milestoneIndex(p.Milestone))}
			}
		}

		label := util.PadToWidth(lane.Label, labelW)
		if v.HasCursor && r == v.CursorRow {
			label = util.ColorBold + label + util.ColorReset
		}

		var b strings.Builder
		b.WriteString(label)
		b.WriteString(" ┤")
		for _, c := range cells {
			if c.color == "" {
				b.WriteString(c.glyph)
				continue
			}
			b.WriteString(c.color + c.glyph + util.ColorReset)
		}
		lines = append(lines, b.String())
	}
	if rest := len(v.Lanes) - end; rest > 0 {
		lines = append(lines, util.ColorGray+fmt.Sprintf("  ↓ %d more", rest)+util.ColorReset)
	}

	pad := strings.Repeat(" ", labelW+1)
	lines = append(lines, pad+"└"+strings.Repeat("─", plotW+1))
	lines = append(lines, pad+"  "+axisLabels(span, plotW))
	if refs := s.references(v, span); refs != "" {
		lines = append(lines, refs)
	}
	return lines
}

// axisLabels places the first, middle and last dates under the axis.
func axisLabels(span timeline.Span, width int) string {
	buf := []rune(strings.Repeat(" ", width))
	put := func(col int, text string) {
		r := []rune(text)
		col = min(max(col, 0), width-len(r))
		if col < 0 {
			return
		}
		for i := col - 1; i <= col+len(r) && i < width; i++ {
			if i >= 0 && buf[i] != ' ' {
				return
			}
		}
		copy(buf[col:], r)
	}

	first := model.FormatDate(span.First)
	last := model.FormatDate(span.Last)
	put(0, first)
	put(width-len(last), last)
	if days := span.Days(); days > 1 {
		mid := span.First.AddDays(days / 2)
		text := model.FormatDate(mid)
		put(span.Column(mid, width)-len(text)/2, text)
	}
	return string(buf)
}

// references lists the vertical lines drawn on the chart.
func (s *ChartLayoutStrategy) references(v *View, span timeline.Span) string {
	var parts []string
	for _, m := range v.Markers {
		if span.Contains(m.Date) {
			parts = append(parts, util.ColorGray+glyphMarker+util.ColorReset+" "+m.Label)
		}
	}
	if span.Contains(v.Today) {
		parts = append(parts, util.ColorYellow+glyphToday+util.ColorReset+" Today")
	}
	if len(parts) == 0 {
		return ""
	}
	return "  " + strings.Join(parts, "   ")
}
