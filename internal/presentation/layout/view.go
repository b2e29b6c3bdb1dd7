package layout

import (
	"cloud.google.com/go/civil"
	"github.com/penwyp/go-milestone-board/internal/core/editsession"
	"github.com/penwyp/go-milestone-board/internal/core/model"
	"github.com/penwyp/go-milestone-board/internal/core/timeline"
)

// Marker is a vertical reference line on the chart.
type Marker struct {
	Date  civil.Date
	Label string
}

// View is everything one frame of the board shows.
type View struct {
	Category   string
	Categories []string
	Milestones []string // legend order

	Lanes   []timeline.Lane
	Today   civil.Date
	Markers []Marker

	// Cursor position in Lanes, valid when HasCursor
	HasCursor bool
	CursorRow int
	CursorCol int

	Panel   editsession.Panel
	Editing model.EditField
	Input   string

	Status   string
	ShowHelp bool
}

// Cursor returns the point under the cursor.
func (v *View) Cursor() (timeline.Point, bool) {
	if !v.HasCursor || v.CursorRow < 0 || v.CursorRow >= len(v.Lanes) {
		return timeline.Point{}, false
	}
	points := v.Lanes[v.CursorRow].Points
	if v.CursorCol < 0 || v.CursorCol >= len(points) {
		return timeline.Point{}, false
	}
	return points[v.CursorCol], true
}

// Param holds the frame dimensions in terminal cells.
type Param struct {
	Width  int
	Height int
}

// milestoneIndex returns the legend position of m, or -1.
func (v *View) milestoneIndex(m string) int {
	for i, name := range v.Milestones {
		if name == m {
			return i
		}
	}
	return -1
}
