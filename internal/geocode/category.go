package geocode

import (
	"strings"

	"github.com/waymarkhq/waymark/internal/domain"
)

// categoryKeywords is the fixed-priority keyword table for classifying a
// geocoder result. The first matching keyword wins, so order matters.
var categoryKeywords = []struct {
	keyword  string
	category domain.Category
}{
	{"park", domain.CategoryNature},
	{"forest", domain.CategoryForest},
	{"museum", domain.CategoryAttraction},
	{"monument", domain.CategoryAttraction},
	{"restaurant", domain.CategoryRestaurant},
	{"cafe", domain.CategoryRestaurant},
	{"hotel", domain.CategoryHotel},
	{"viewpoint", domain.CategoryViewpoint},
	{"bus_stop", domain.CategoryBusStop},
	{"church", domain.CategoryAttraction},
	{"beach", domain.CategoryNature},
}

// DetectCategory classifies a place by matching each keyword against the
// lowercased display name, the result type, and the result class. Returns
// the empty category when nothing matches.
func DetectCategory(p Place) domain.Category {
	name := strings.ToLower(p.DisplayName)
	for _, entry := range categoryKeywords {
		if strings.Contains(name, entry.keyword) ||
			strings.Contains(p.Type, entry.keyword) ||
			strings.Contains(p.Class, entry.keyword) {
			return entry.category
		}
	}
	return ""
}

// placeIcons maps a result's type or class to a suggestion-list glyph.
// Exact match on either field; first entry wins.
var placeIcons = []struct {
	key  string
	icon string
}{
	{"shop", "🛍️"},
	{"mall", "🛍️"},
	{"amenity", "🏢"},
	{"natural", "🌳"},
	{"park", "🌲"},
	{"restaurant", "🍴"},
	{"cafe", "☕"},
	{"hotel", "🏨"},
	{"museum", "🎨"},
	{"bus_stop", "🚏"},
	{"viewpoint", "👁️"},
	{"monument", "🗿"},
	{"church", "⛪"},
	{"beach", "🏖️"},
}

// PlaceIcon returns the suggestion glyph for a result, or the generic pin.
func PlaceIcon(p Place) string {
	for _, entry := range placeIcons {
		if p.Type == entry.key || p.Class == entry.key {
			return entry.icon
		}
	}
	return "📍"
}
