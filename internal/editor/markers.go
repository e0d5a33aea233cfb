package editor

import (
	"strconv"

	"github.com/waymarkhq/waymark/internal/domain"
)

// MarkerKind distinguishes the start and end markers from interior waypoints.
type MarkerKind string

const (
	MarkerStart    MarkerKind = "start"
	MarkerEnd      MarkerKind = "end"
	MarkerWaypoint MarkerKind = "waypoint"
)

// Marker is the view model for one map marker. Markers stay in 1:1 index
// correspondence with the session's point list.
type Marker struct {
	Index    int        `json:"index"`
	Lat      float64    `json:"lat"`
	Lng      float64    `json:"lng"`
	Kind     MarkerKind `json:"kind"`
	Glyph    string     `json:"glyph"`
	Title    string     `json:"title"`
	Subtitle string     `json:"subtitle,omitempty"` // category icon + name, empty when uncategorized
}

// buildMarkers maps the ordered point list to marker view models. Index 0 is
// the start ("A"), the last index the end ("B"); interior points are numbered
// sequentially from 2. A single point renders as the start.
func buildMarkers(points []domain.Point) []Marker {
	markers := make([]Marker, len(points))
	for i, p := range points {
		m := Marker{
			Index: i,
			Lat:   p.Lat,
			Lng:   p.Lng,
			Kind:  MarkerWaypoint,
			Glyph: strconv.Itoa(i + 1),
			Title: p.Name,
		}
		switch {
		case i == 0:
			m.Kind = MarkerStart
			m.Glyph = "A"
		case i == len(points)-1:
			m.Kind = MarkerEnd
			m.Glyph = "B"
		}
		if p.Category != "" {
			m.Subtitle = p.Category.Icon() + " " + p.Category.DisplayName()
		}
		markers[i] = m
	}
	return markers
}
