package formatter

import (
	"fmt"
	"io"
	"iter"

	"github.com/penwyp/go-milestone-board/internal/core/model"
	"github.com/penwyp/go-milestone-board/internal/core/timeline"
)

// PointRecord is one exported milestone point.
type PointRecord struct {
	Category  string `json:"category"`
	Key       string `json:"key"`
	Project   string `json:"project"`
	SubEntity string `json:"sub_entity"`
	Status    string `json:"status"`
	Milestone string `json:"milestone"`
	Date      string `json:"date"`
}

// Formatter writes point records in one output format.
type Formatter interface {
	Format(data []PointRecord) error
}

// Records flattens projected points of a category.
func Records(category string, points iter.Seq[timeline.Point]) []PointRecord {
	var out []PointRecord
	for p := range points {
		out = append(out, PointRecord{
			Category:  category,
			Key:       p.Label,
			Project:   p.Key.Project,
			SubEntity: p.Key.SubEntity,
			Status:    p.Key.Status,
			Milestone: p.Milestone,
			Date:      model.FormatDate(p.Date),
		})
	}
	return out
}

// New returns the formatter for output: table, json, csv or summary.
func New(output string, w io.Writer) (Formatter, error) {
	switch output {
	case "table", "":
		return NewTableFormatter(w), nil
	case "json":
		return NewJSONFormatter(w), nil
	case "csv":
		return NewCSVFormatter(w), nil
	case "summary":
		return NewSummaryFormatter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", output)
	}
}
