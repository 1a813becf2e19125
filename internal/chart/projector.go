// Package chart maps world history onto pixel-space geometry.
//
// The time axis runs left to right from margin to width-margin over the span of
// all snapshot timestamps and event dates. Every channel has its own value axis
// from 0 at height-margin up to its clamp limit at margin. Values above the limit
// are drawn at the limit. Projection is a pure function of its inputs.
package chart

import (
	"worldinfo/internal/models"
)

const DefaultMargin = 40

// Canvas is the drawable area reported by the presentation layer.
type Canvas struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin float64 `json:"margin"`
}

// Measured fills dimensions the caller could not measure yet from fallback.
func (c Canvas) Measured(fallback Canvas) Canvas {
	if c.Width <= 0 {
		c.Width = fallback.Width
	}
	if c.Height <= 0 {
		c.Height = fallback.Height
	}
	if c.Margin <= 0 {
		c.Margin = fallback.Margin
	}
	if c.Margin <= 0 {
		c.Margin = DefaultMargin
	}
	return c
}

type ChartPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Segment struct {
	From ChartPoint `json:"from"`
	To   ChartPoint `json:"to"`
}

type ChannelSeries struct {
	Channel models.Channel `json:"channel"`
	Limit   float64        `json:"limit"`
	Points  []ChartPoint   `json:"points"`
}

// Segments joins consecutive points with straight lines.
func (cs ChannelSeries) Segments() []Segment {
	if len(cs.Points) < 2 {
		return nil
	}
	out := make([]Segment, 0, len(cs.Points)-1)
	for i := 1; i < len(cs.Points); i++ {
		out = append(out, Segment{From: cs.Points[i-1], To: cs.Points[i]})
	}
	return out
}

type MarkerKind string

const (
	MarkerLabs        MarkerKind = "labs"
	MarkerPublication MarkerKind = "publication"
	MarkerUpdate      MarkerKind = "update"
)

// Event is an absolute calendar date drawn as a vertical marker.
type Event struct {
	Kind MarkerKind `json:"kind"`
	At   int64      `json:"at"`
}

type EventMarker struct {
	Kind   MarkerKind `json:"kind"`
	At     int64      `json:"at"`
	X      float64    `json:"x"`
	Top    float64    `json:"top"`
	Bottom float64    `json:"bottom"`
}

type AxisLine struct {
	Name string     `json:"name"`
	From ChartPoint `json:"from"`
	To   ChartPoint `json:"to"`
}

type Projection struct {
	Canvas   Canvas          `json:"canvas"`
	MinTime  int64           `json:"minTime"`
	MaxTime  int64           `json:"maxTime"`
	Channels []ChannelSeries `json:"channels"`
	Markers  []EventMarker   `json:"markers"`
	Axes     []AxisLine      `json:"axes"`
}

// Limits holds the clamp ceiling of each channel.
type Limits map[models.Channel]float64

func DefaultLimits() Limits {
	return Limits{
		models.ChannelVisits:     10000,
		models.ChannelFavorites:  10000,
		models.ChannelHeat:       10,
		models.ChannelPopularity: 10,
	}
}

type Projector struct {
	limits Limits
}

// NewProjector builds a projector. Channels missing from limits use the defaults.
func NewProjector(limits Limits) *Projector {
	merged := DefaultLimits()
	for ch, v := range limits {
		if v > 0 {
			merged[ch] = v
		}
	}
	return &Projector{limits: merged}
}

func (p *Projector) Limit(ch models.Channel) float64 {
	return p.limits[ch]
}

// Project lays out series and events on canvas. A series with fewer than two
// snapshots yields channels without points.
func (p *Projector) Project(series models.HistorySeries, events []Event, canvas Canvas) Projection {
	proj := Projection{
		Canvas:   canvas,
		Channels: make([]ChannelSeries, 0, len(models.Channels)),
		Markers:  []EventMarker{},
		Axes:     axes(canvas),
	}
	for _, ch := range models.Channels {
		proj.Channels = append(proj.Channels, ChannelSeries{Channel: ch, Limit: p.limits[ch], Points: []ChartPoint{}})
	}
	if len(series) == 0 {
		return proj
	}

	minT, maxT := series[0].Timestamp, series[0].Timestamp
	for _, s := range series {
		minT = min(minT, s.Timestamp)
		maxT = max(maxT, s.Timestamp)
	}
	for _, e := range events {
		minT = min(minT, e.At)
		maxT = max(maxT, e.At)
	}
	if maxT == minT {
		maxT++
	}
	proj.MinTime, proj.MaxTime = minT, maxT

	xAt := func(ts int64) float64 {
		return canvas.Margin + float64(ts-minT)/float64(maxT-minT)*(canvas.Width-2*canvas.Margin)
	}

	if len(series) >= 2 {
		for i := range proj.Channels {
			cs := &proj.Channels[i]
			cs.Points = make([]ChartPoint, 0, len(series))
			for _, s := range series {
				cs.Points = append(cs.Points, ChartPoint{
					X: xAt(s.Timestamp),
					Y: yAt(s.Value(cs.Channel), cs.Limit, canvas),
				})
			}
		}
	}

	for _, e := range events {
		proj.Markers = append(proj.Markers, EventMarker{
			Kind:   e.Kind,
			At:     e.At,
			X:      xAt(e.At),
			Top:    canvas.Margin,
			Bottom: canvas.Height - canvas.Margin,
		})
	}

	return proj
}

func yAt(v, limit float64, canvas Canvas) float64 {
	bottom := canvas.Height - canvas.Margin
	if limit <= 0 {
		return bottom
	}
	v = max(0, min(v, limit))
	return bottom - v/limit*(canvas.Height-2*canvas.Margin)
}

func axes(c Canvas) []AxisLine {
	left, right := c.Margin, c.Width-c.Margin
	top, bottom := c.Margin, c.Height-c.Margin
	return []AxisLine{
		{Name: "bottom", From: ChartPoint{X: left, Y: bottom}, To: ChartPoint{X: right, Y: bottom}},
		{Name: "left", From: ChartPoint{X: left, Y: top}, To: ChartPoint{X: left, Y: bottom}},
		{Name: "right", From: ChartPoint{X: right, Y: top}, To: ChartPoint{X: right, Y: bottom}},
	}
}

// EventsFor collects the markers of a world: labs release and publication from
// its current dates, then each distinct update time observed in its history.
func EventsFor(series models.HistorySeries, current models.LifecycleDates) []Event {
	var events []Event
	if t, ok := models.ParseDate(current.LabsPublicationDate); ok {
		events = append(events, Event{Kind: MarkerLabs, At: t.Unix()})
	}
	if t, ok := models.ParseDate(current.PublicationDate); ok {
		events = append(events, Event{Kind: MarkerPublication, At: t.Unix()})
	}
	seen := make(map[int64]struct{})
	for _, s := range series {
		t, ok := models.ParseDate(s.UpdatedAt)
		if !ok {
			continue
		}
		if _, dup := seen[t.Unix()]; dup {
			continue
		}
		seen[t.Unix()] = struct{}{}
		events = append(events, Event{Kind: MarkerUpdate, At: t.Unix()})
	}
	return events
}
