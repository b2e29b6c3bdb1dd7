package layout

import "io"

// compactBelow is the width under which the chart no longer fits.
const compactBelow = 60

// LayoutStrategy defines the interface for different layout rendering strategies
type LayoutStrategy interface {
	Render(w io.Writer, view *View, param Param)
	GetName() string
}

// GetLayoutStrategy returns the layout strategy suited to the frame width
func GetLayoutStrategy(param Param) LayoutStrategy {
	if param.Width < compactBelow {
		return &CompactLayoutStrategy{}
	}
	return &ChartLayoutStrategy{}
}
