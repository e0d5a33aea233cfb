// Package geo provides coordinate normalization and great-circle distance
// math shared by the editor session, the route service, and the geocoding
// client. All distances are kilometres on a spherical-Earth model.
package geo

import (
	"math"
	"strconv"
	"strings"
)

// earthRadiusKm is the spherical-Earth radius used by the haversine formula.
const earthRadiusKm = 6371

// Normalize coerces a value of unknown shape into a finite coordinate.
//
// Numbers pass through unchanged (NaN and ±Inf collapse to 0 to keep the
// finite invariant). Strings have commas replaced with dots, every character
// other than digits, dot, and minus stripped, and are then parsed. Anything
// unparsable — including nil — yields 0.
//
// The second return value is false when the input could not be interpreted
// and the zero fallback was used. Callers treat that as a non-fatal warning
// signal; Normalize itself never fails.
func Normalize(v any) (float64, bool) {
	switch c := v.(type) {
	case nil:
		return 0, false
	case float64:
		return finite(c)
	case float32:
		return finite(float64(c))
	case int:
		return float64(c), true
	case int32:
		return float64(c), true
	case int64:
		return float64(c), true
	case string:
		return parseCoord(c)
	default:
		// Last-resort generic coercion through the string form.
		return parseCoord(stringify(v))
	}
}

// parseCoord applies the string cleaning rules and parses the result.
func parseCoord(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == ',':
			return '.'
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		}
		return -1
	}, strings.TrimSpace(s))

	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return finite(parsed)
}

// finite collapses NaN and infinities to the zero fallback.
func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// stringify renders non-obvious input types for the generic parse path
// without pulling in fmt's reflection for the common cases.
func stringify(v any) string {
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	if b, ok := v.(bool); ok {
		if b {
			return "1"
		}
		return "0"
	}
	return ""
}

// Distance returns the great-circle distance in kilometres between two
// coordinates using the haversine formula.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := deg2rad(lat2 - lat1)
	dLng := deg2rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// deg2rad converts degrees to radians.
func deg2rad(deg float64) float64 {
	return deg * (math.Pi / 180)
}

// Round2 rounds a distance to two decimal places, the precision used for
// total-route-distance reporting.
func Round2(km float64) float64 {
	return math.Round(km*100) / 100
}
