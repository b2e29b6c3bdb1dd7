package timeline

import (
	"cloud.google.com/go/civil"
	"github.com/penwyp/go-milestone-board/internal/core/rowkey"
)

// Point is one plotted milestone of a row.
type Point struct {
	Key       rowkey.Key
	Label     string // encoded row key, the chart's category axis value
	Milestone string
	Date      civil.Date
}

// Span is the date range covered by a set of points.
type Span struct {
	First civil.Date
	Last  civil.Date
}

// Empty reports whether the span covers no points.
func (s Span) Empty() bool {
	return !s.First.IsValid()
}

// Days returns the number of days between First and Last, at least 1.
func (s Span) Days() int {
	if s.Empty() {
		return 1
	}
	if n := s.Last.DaysSince(s.First); n > 0 {
		return n
	}
	return 1
}

// Contains reports whether d lies within the span.
func (s Span) Contains(d civil.Date) bool {
	return !s.Empty() && d.IsValid() && !d.Before(s.First) && !d.After(s.Last)
}

// Fraction places d on the span as a value from 0 to 1. A single-day span
// places everything in the middle.
func (s Span) Fraction(d civil.Date) float64 {
	if s.Empty() || s.Last == s.First {
		return 0.5
	}
	f := float64(d.DaysSince(s.First)) / float64(s.Days())
	return min(max(f, 0), 1)
}

// Column maps d to one of width cells.
func (s Span) Column(d civil.Date, width int) int {
	if width <= 1 {
		return 0
	}
	return int(s.Fraction(d)*float64(width-1) + 0.5)
}
