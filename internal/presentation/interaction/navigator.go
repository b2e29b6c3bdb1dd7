package interaction

import (
	"github.com/penwyp/go-milestone-board/internal/core/timeline"
)

// Navigator moves a cursor over the points of a chart. Rows are lanes,
// columns are the points of the lane in milestone order.
type Navigator struct {
	lanes []timeline.Lane
	row   int
	col   int
}

// NewNavigator creates a navigator positioned on the first point.
func NewNavigator() *Navigator {
	return &Navigator{}
}

// SetLanes replaces the chart content, keeping the cursor on the same
// lane and milestone when they still exist.
func (n *Navigator) SetLanes(lanes []timeline.Lane) {
	prev, had := n.Current()
	prevRow := n.row
	n.lanes = lanes
	n.row, n.col = 0, 0
	if !had {
		return
	}

	for r, lane := range lanes {
		if lane.Label != prev.Label {
			continue
		}
		n.row = r
		n.col = nearest(lane.Points, prev)
		for c, p := range lane.Points {
			if p.Milestone == prev.Milestone {
				n.col = c
				break
			}
		}
		return
	}
	n.row = min(prevRow, max(len(lanes)-1, 0))
}

// Current returns the point under the cursor.
func (n *Navigator) Current() (timeline.Point, bool) {
	if n.row >= len(n.lanes) || len(n.lanes[n.row].Points) == 0 {
		return timeline.Point{}, false
	}
	return n.lanes[n.row].Points[n.col], true
}

// Position returns the lane and point index of the cursor.
func (n *Navigator) Position() (row, col int) {
	return n.row, n.col
}

// Up moves to the previous lane.
func (n *Navigator) Up() {
	n.moveRow(-1)
}

// Down moves to the next lane.
func (n *Navigator) Down() {
	n.moveRow(1)
}

// Left moves to the previous point of the lane.
func (n *Navigator) Left() {
	if n.col > 0 {
		n.col--
	}
}

// Right moves to the next point of the lane.
func (n *Navigator) Right() {
	if n.row < len(n.lanes) && n.col < len(n.lanes[n.row].Points)-1 {
		n.col++
	}
}

// moveRow changes lane and picks the point closest in date to the one
// left behind.
func (n *Navigator) moveRow(delta int) {
	next := n.row + delta
	if next < 0 || next >= len(n.lanes) {
		return
	}
	prev, had := n.Current()
	n.row = next
	n.col = 0
	if had {
		n.col = nearest(n.lanes[next].Points, prev)
	}
}

func nearest(points []timeline.Point, target timeline.Point) int {
	best, bestDist := 0, -1
	for i, p := range points {
		dist := p.Date.DaysSince(target.Date)
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}
