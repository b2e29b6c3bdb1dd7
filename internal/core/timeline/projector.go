package timeline

import (
	"iter"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/penwyp/go-milestone-board/internal/core/model"
	"github.com/penwyp/go-milestone-board/internal/core/rowkey"
)

// Project yields one point per present milestone date of every row whose
// status is not excludeStatus, in row order then schema milestone order.
// An empty excludeStatus keeps every row. The sequence reads the table each
// time it is ranged over, so it always reflects the latest edits.
func Project(table *model.Table, milestones []string, excludeStatus string) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		if table == nil {
			return
		}
		for _, row := range table.Rows {
			if excluded(row.Status, excludeStatus) {
				continue
			}
			key := row.Key()
			label := rowkey.Encode(key)
			for _, m := range milestones {
				d, ok := row.Date(m)
				if !ok || !d.IsValid() {
					continue
				}
				if !yield(Point{Key: key, Label: label, Milestone: m, Date: d}) {
					return
				}
			}
		}
	}
}

func excluded(status, excludeStatus string) bool {
	if excludeStatus == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(status), strings.TrimSpace(excludeStatus))
}

// SpanOf returns the earliest and latest date of the sequence.
func SpanOf(points iter.Seq[Point]) Span {
	var s Span
	for p := range points {
		if s.Empty() || p.Date.Before(s.First) {
			s.First = p.Date
		}
		if !s.Last.IsValid() || p.Date.After(s.Last) {
			s.Last = p.Date
		}
	}
	return s
}

// Extend widens the span to include d.
func (s Span) Extend(d civil.Date) Span {
	if !d.IsValid() {
		return s
	}
	if s.Empty() || d.Before(s.First) {
		s.First = d
	}
	if !s.Last.IsValid() || d.After(s.Last) {
		s.Last = d
	}
	return s
}

// Lane groups the points of one row.
type Lane struct {
	Key    rowkey.Key
	Label  string
	Points []Point
}

// Lanes collects points into per-row lanes, in first-seen order.
func Lanes(points iter.Seq[Point]) []Lane {
	var lanes []Lane
	index := make(map[string]int)
	for p := range points {
		i, ok := index[p.Label]
		if !ok {
			i = len(lanes)
			index[p.Label] = i
			lanes = append(lanes, Lane{Key: p.Key, Label: p.Label})
		}
		lanes[i].Points = append(lanes[i].Points, p)
	}
	return lanes
}
