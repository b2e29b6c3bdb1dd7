package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-milestone-board/internal/util"
)

type TableFormatter struct {
	w       io.Writer
	headers []string
}

func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{
		w:       w,
		headers: []string{"Category", "Row Key", "Milestone", "Date"},
	}
}

func (f *TableFormatter) Format(data []PointRecord) error {
	// Calculate column widths based on content
	widths := f.calculateColumnWidths(data)

	var b strings.Builder
	f.printBorder(&b, widths, "top")
	f.printRow(&b, f.headers, widths)
	f.printBorder(&b, widths, "middle")

	for _, row := range data {
		f.printRow(&b, []string{row.Category, row.Key, row.Milestone, row.Date}, widths)
	}

	if len(data) > 0 {
		f.printBorder(&b, widths, "middle")
	}
	total := fmt.Sprintf("%d milestones", len(data))
	f.printRow(&b, []string{"TOTAL", total, "", ""}, widths)
	f.printBorder(&b, widths, "bottom")

	_, err := io.WriteString(f.w, b.String())
	return err
}

func (f *TableFormatter) calculateColumnWidths(data []PointRecord) []int {
	widths := make([]int, len(f.headers))
	for i, h := range f.headers {
		widths[i] = util.GetDisplayWidth(h)
	}
	widths[1] = max(widths[1], util.GetDisplayWidth(fmt.Sprintf("%d milestones", len(data))))
	for _, row := range data {
		for i, v := range []string{row.Category, row.Key, row.Milestone, row.Date} {
			widths[i] = max(widths[i], util.GetDisplayWidth(v))
		}
	}
	return widths
}

func (f *TableFormatter) printBorder(b *strings.Builder, widths []int, position string) {
	left, mid, right := "├", "┼", "┤"
	switch position {
	case "top":
		left, mid, right = "┌", "┬", "┐"
	case "bottom":
		left, mid, right = "└", "┴", "┘"
	}

	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("─", w+2)
	}
	b.WriteString(left + strings.Join(parts, mid) + right + "\n")
}

func (f *TableFormatter) printRow(b *strings.Builder, cells []string, widths []int) {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = " " + util.PadToWidth(cells[i], w) + " "
	}
	b.WriteString("│" + strings.Join(parts, "│") + "│\n")
}
