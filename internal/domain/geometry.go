package domain

// LatLng is a single coordinate pair in latitude/longitude order, the order
// map renderers consume (the directions service speaks [lng,lat]; the
// routing client converts).
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geometry is the renderable route line between the ordered points.
//
// Fallback is true when the directions service could not be used and the
// line is a straight connection of consecutive points; renderers draw it
// dashed. FitBounds tells the map view to zoom to the line's extent, which
// only makes sense for a freshly routed polyline.
type Geometry struct {
	Coords    []LatLng `json:"coords"`
	Color     string   `json:"color"`
	Dashed    bool     `json:"dashed"`
	Fallback  bool     `json:"fallback"`
	FitBounds bool     `json:"fit_bounds"`
}
