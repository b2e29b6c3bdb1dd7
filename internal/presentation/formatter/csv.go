package formatter

import (
	"encoding/csv"
	"io"
)

type CSVFormatter struct {
	w io.Writer
}

func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{w: w}
}

func (f *CSVFormatter) Format(data []PointRecord) error {
	w := csv.NewWriter(f.w)

	headers := []string{"Category", "Project", "SIE", "Status", "Milestone", "Date"}
	if err := w.Write(headers); err != nil {
		return err
	}

	for _, row := range data {
		record := []string{row.Category, row.Project, row.SubEntity, row.Status, row.Milestone, row.Date}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
