package formatter

import (
	"fmt"
	"io"
	"sort"
)

// SummaryFormatter reports milestone counts and date ranges per category.
type SummaryFormatter struct {
	w io.Writer
}

// NewSummaryFormatter creates a new instance of SummaryFormatter.
func NewSummaryFormatter(w io.Writer) *SummaryFormatter {
	return &SummaryFormatter{w: w}
}

type milestoneStats struct {
	count       int
	first, last string
}

// Format writes one block per category listing each milestone's count and
// earliest and latest dates.
func (f *SummaryFormatter) Format(data []PointRecord) error {
	var categories []string
	stats := make(map[string]map[string]*milestoneStats)
	order := make(map[string][]string)
	rows := make(map[string]map[string]struct{})

	for _, r := range data {
		byMilestone, ok := stats[r.Category]
		if !ok {
			byMilestone = make(map[string]*milestoneStats)
			stats[r.Category] = byMilestone
			rows[r.Category] = make(map[string]struct{})
			categories = append(categories, r.Category)
		}
		rows[r.Category][r.Key] = struct{}{}

		s, ok := byMilestone[r.Milestone]
		if !ok {
			s = &milestoneStats{first: r.Date, last: r.Date}
			byMilestone[r.Milestone] = s
			order[r.Category] = append(order[r.Category], r.Milestone)
		}
		s.count++
		// YYYY-MM-DD sorts as text
		if r.Date < s.first {
			s.first = r.Date
		}
		if r.Date > s.last {
			s.last = r.Date
		}
	}

	if len(categories) == 0 {
		_, err := fmt.Fprintln(f.w, "No milestones.")
		return err
	}

	sort.Strings(categories)
	for _, c := range categories {
		if _, err := fmt.Fprintf(f.w, "%s: %d projects\n", c, len(rows[c])); err != nil {
			return err
		}
		for _, m := range order[c] {
			s := stats[c][m]
			if _, err := fmt.Fprintf(f.w, "  %-24s %3d  %s … %s\n", m, s.count, s.first, s.last); err != nil {
				return err
			}
		}
	}
	return nil
}
