package domain

import (
	"time"

	"github.com/google/uuid"
)

// RouteMode is the travel profile a route is planned for. It selects the
// directions-service profile and the rendering style of the route line.
type RouteMode string

const (
	ModeWalking RouteMode = "walking"
	ModeDriving RouteMode = "driving"
	ModeCycling RouteMode = "cycling"
)

// Valid reports whether the mode is one of the known travel profiles.
func (m RouteMode) Valid() bool {
	switch m {
	case ModeWalking, ModeDriving, ModeCycling:
		return true
	}
	return false
}

// Privacy controls who can see a saved route.
type Privacy string

const (
	PrivacyPublic   Privacy = "public"
	PrivacyUnlisted Privacy = "unlisted"
	PrivacyPrivate  Privacy = "private"
)

// Route is the top-level aggregate: an ordered sequence of points plus the
// metadata the editor form collects. Points belong to a route.
type Route struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	ShortDescription  string    `json:"short_description,omitempty"`
	Description       string    `json:"description,omitempty"`
	Mode              RouteMode `json:"route_type"`
	Privacy           Privacy   `json:"privacy"`
	Mood              string    `json:"mood,omitempty"`
	Theme             string    `json:"theme,omitempty"`
	DurationMinutes   int       `json:"duration_minutes"`
	TotalDistance     float64   `json:"total_distance"` // km, rounded to 2 decimals
	HasAudioGuide     bool      `json:"has_audio_guide"`
	IsElderlyFriendly bool      `json:"is_elderly_friendly"`
	IsActive          bool      `json:"is_active"`
	Points            []Point   `json:"waypoints"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
