// Package domain contains the core data types for the Waymark application.
// This package has zero external dependencies beyond uuid and time, and is
// imported by every other internal package (editor, repo, service, handler).
package domain

import "github.com/google/uuid"

// Point is a single stop on a route — the unit the editor session, the map
// renderer, and the persistence layer all agree on.
//
// Lat and Lng are always finite: every entry path runs raw input through
// geo.Normalize, which coerces anything unparsable to 0.
//
// Points are exclusively owned by the editor session's ordered list and are
// addressed by index. Other components receive transient copies (edit
// dialogs, history snapshots) and hand changes back through the session.
type Point struct {
	// ID is zero until the owning route is saved; audio generation requires
	// a persisted point.
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Address     string    `json:"address"` // may hold a placeholder until reverse geocoding completes
	Description string    `json:"description"`
	Photos      []Photo   `json:"photos"`
	Tags        []string  `json:"tags"`
	Category    Category  `json:"category"` // empty when uncategorized
	HintAuthor  string    `json:"hint_author"`
	AudioURL    string    `json:"audio_url,omitempty"`
}

// Clone returns a deep copy of the point. History snapshots and dialog edit
// sessions rely on this so that later mutations never alias shared slices.
func (p Point) Clone() Point {
	c := p
	if p.Photos != nil {
		c.Photos = make([]Photo, len(p.Photos))
		copy(c.Photos, p.Photos)
	}
	if p.Tags != nil {
		c.Tags = make([]string, len(p.Tags))
		copy(c.Tags, p.Tags)
	}
	return c
}

// ClonePoints deep-copies an ordered point list.
func ClonePoints(points []Point) []Point {
	if points == nil {
		return nil
	}
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = p.Clone()
	}
	return out
}

// Photo is one photo reference attached to a point: either a stored object
// URL or an inline data URL produced from a fresh attachment.
type Photo struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// Category is the classification assigned to a point, either picked manually
// in the editor or detected from geocoder results by keyword matching.
type Category string

// Point categories mirror the route catalog. An empty Category is valid and
// means "uncategorized".
const (
	CategoryAttraction Category = "attraction"
	CategoryNature     Category = "nature"
	CategoryForest     Category = "forest"
	CategoryBusStop    Category = "bus_stop"
	CategoryViewpoint  Category = "viewpoint"
	CategoryRestaurant Category = "restaurant"
	CategoryHotel      Category = "hotel"
	CategoryMuseum     Category = "museum"
	CategoryPark       Category = "park"
	CategoryMonument   Category = "monument"
	CategoryChurch     Category = "church"
	CategoryBeach      Category = "beach"
)

// categoryIcons maps a category to the glyph shown next to point names.
var categoryIcons = map[Category]string{
	CategoryAttraction: "⭐",
	CategoryNature:     "🌿",
	CategoryForest:     "🌲",
	CategoryBusStop:    "🚏",
	CategoryViewpoint:  "👁️",
	CategoryRestaurant: "🍴",
	CategoryHotel:      "🏨",
	CategoryMuseum:     "🎨",
	CategoryPark:       "🌳",
	CategoryMonument:   "🗿",
	CategoryChurch:     "⛪",
	CategoryBeach:      "🏖️",
}

// categoryNames maps a category to its display name.
var categoryNames = map[Category]string{
	CategoryAttraction: "Attraction",
	CategoryNature:     "Nature",
	CategoryForest:     "Forest",
	CategoryBusStop:    "Bus stop",
	CategoryViewpoint:  "Viewpoint",
	CategoryRestaurant: "Restaurant",
	CategoryHotel:      "Hotel",
	CategoryMuseum:     "Museum",
	CategoryPark:       "Park",
	CategoryMonument:   "Monument",
	CategoryChurch:     "Church",
	CategoryBeach:      "Beach",
}

// Icon returns the display glyph for the category, or the generic pin for
// unknown and empty categories.
func (c Category) Icon() string {
	if icon, ok := categoryIcons[c]; ok {
		return icon
	}
	return "📍"
}

// DisplayName returns the human-readable category name, or "Point" for
// unknown and empty categories.
func (c Category) DisplayName() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "Point"
}
