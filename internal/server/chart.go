package server

import (
	"net/url"
	"time"

	"cloud.google.com/go/civil"
	"github.com/penwyp/go-milestone-board/internal/application/board"
	"github.com/penwyp/go-milestone-board/internal/config"
	"github.com/penwyp/go-milestone-board/internal/core/model"
	"github.com/penwyp/go-milestone-board/internal/core/rowkey"
	"github.com/penwyp/go-milestone-board/internal/core/timeline"
)

// SVG geometry, in user units
const (
	chartWidth  = 1100.0
	labelWidth  = 240.0
	laneHeight  = 28.0
	chartTop    = 24.0
	chartBottom = 40.0
	pointRadius = 6.0
	maxTicks    = 12
)

// palette holds the milestone colours in legend order.
var palette = []string{
	"#636EFA", "#EF553B", "#00CC96", "#AB63FA",
	"#FFA15A", "#19D3F3", "#FF6692", "#B6E880",
}

func milestoneFill(i int) string {
	if i < 0 {
		return "#888888"
	}
	return palette[i%len(palette)]
}

type svgLane struct {
	Y     float64
	Label string
}

type svgPoint struct {
	X, Y     float64
	Fill     string
	Title    string
	Href     string
	Selected bool
}

type svgLine struct {
	X     float64
	Label string
	Today bool
}

type svgTick struct {
	X     float64
	Label string
}

type legendItem struct {
	Name string
	Fill string
}

// chartView is the template model of the SVG timeline.
type chartView struct {
	Width, Height float64
	PlotLeft      float64
	PlotRight     float64
	AxisY         float64

	Lanes  []svgLane
	Points []svgPoint
	Lines  []svgLine
	Ticks  []svgTick
	Legend []legendItem
}

// buildChart lays out chart for SVG. selected is the key of the row shown
// in the panel, highlighted when it appears in the chart.
func buildChart(chart *board.Chart, cfg *config.Config, today civil.Date, selected *rowkey.Key, selectedMilestone string) *chartView {
	v := &chartView{
		Width:     chartWidth,
		PlotLeft:  labelWidth,
		PlotRight: chartWidth - 20,
	}
	for i, m := range cfg.Schema.Milestones {
		v.Legend = append(v.Legend, legendItem{Name: m, Fill: milestoneFill(i)})
	}

	v.AxisY = chartTop + laneHeight*float64(max(len(chart.Lanes), 1))
	v.Height = v.AxisY + chartBottom
	if len(chart.Lanes) == 0 {
		return v
	}

	span := chart.Span
	plotW := v.PlotRight - v.PlotLeft
	x := func(d civil.Date) float64 {
		return v.PlotLeft + span.Fraction(d)*plotW
	}

	colour := make(map[string]string, len(cfg.Schema.Milestones))
	for i, m := range cfg.Schema.Milestones {
		colour[m] = milestoneFill(i)
	}

	for i, lane := range chart.Lanes {
		y := chartTop + laneHeight*float64(i) + laneHeight/2
		v.Lanes = append(v.Lanes, svgLane{Y: y, Label: lane.Label})
		for _, p := range lane.Points {
			v.Points = append(v.Points, svgPoint{
				X:        x(p.Date),
				Y:        y,
				Fill:     colour[p.Milestone],
				Title:    p.Label + ": " + p.Milestone + " " + model.FormatDate(p.Date),
				Href:     selectURL(chart.Category, p),
				Selected: selected != nil && *selected == p.Key && selectedMilestone == p.Milestone,
			})
		}
	}

	for _, m := range cfg.Markers {
		v.Lines = append(v.Lines, svgLine{X: x(m.Date), Label: m.Label})
	}
	if span.Contains(today) {
		v.Lines = append(v.Lines, svgLine{X: x(today), Label: "Today", Today: true})
	}

	for _, d := range monthTicks(span) {
		v.Ticks = append(v.Ticks, svgTick{X: x(d), Label: d.In(time.UTC).Format("Jan 2006")})
	}
	return v
}

// selectURL is the link a chart point opens.
func selectURL(category string, p timeline.Point) string {
	q := url.Values{}
	q.Set("category", category)
	q.Set("key", p.Label)
	q.Set("milestone", p.Milestone)
	q.Set("date", model.FormatDate(p.Date))
	return "/select?" + q.Encode()
}

// monthTicks returns month starts within span, thinned to at most
// maxTicks.
func monthTicks(span timeline.Span) []civil.Date {
	if span.Empty() {
		return nil
	}
	first := civil.Date{Year: span.First.Year, Month: span.First.Month, Day: 1}
	if first.Before(span.First) {
		first = nextMonth(first)
	}

	var months []civil.Date
	for d := first; !d.After(span.Last); d = nextMonth(d) {
		months = append(months, d)
	}
	if len(months) == 0 {
		return []civil.Date{span.First, span.Last}
	}

	step := (len(months) + maxTicks - 1) / maxTicks
	var ticks []civil.Date
	for i := 0; i < len(months); i += step {
		ticks = append(ticks, months[i])
	}
	return ticks
}

func nextMonth(d civil.Date) civil.Date {
	if d.Month == time.December {
		return civil.Date{Year: d.Year + 1, Month: time.January, Day: 1}
	}
	return civil.Date{Year: d.Year, Month: d.Month + 1, Day: 1}
}
