package domain

// ExportRow is a single row in a route export.
// It is a flat, denormalized view: one row per point, with route fields
// repeated for every point on that route.
//
// Tags is the slice of normalized tag slugs for the point, in stored order.
// Callers that need a joined string (e.g. CSV) should join with "|".
type ExportRow struct {
	// Route fields — repeated for every point on the route.
	RouteID   string
	RouteName string
	RouteMode string

	// Point fields.
	Index       int
	PointName   string
	Lat         float64
	Lng         float64
	Address     string
	Category    string
	Description string

	// Tags — normalized slugs attached to this point.
	Tags []string
}
