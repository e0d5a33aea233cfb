// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// defaultMaxBodySize caps request bodies. Photo payloads arrive base64-encoded
// inside JSON, so the cap sits well above the 5 MB per-photo limit.
const defaultMaxBodySize = 32 << 20

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// MaxBodySize is the request body cap in bytes. Defaults to 32 MiB.
	MaxBodySize int64

	// ORSBaseURL and ORSAPIKey configure the OpenRouteService directions
	// client. When the key is empty, route geometry falls back to
	// straight-line segments.
	ORSBaseURL string
	ORSAPIKey  string

	// NominatimBaseURL and NominatimUserAgent configure place search.
	// Nominatim's usage policy requires an identifying user agent.
	NominatimBaseURL   string
	NominatimUserAgent string

	// TTSBaseURL, TTSAPIKey and TTSModel configure the speech synthesis
	// client. Audio generation is disabled when the key is empty.
	TTSBaseURL string
	TTSAPIKey  string
	TTSModel   string

	// NATSURL is the NATS server for chat fan-out. Chat endpoints are
	// disabled when empty.
	NATSURL string

	// Media holds the S3/R2 object store settings. All five must be set
	// together; when absent, photo and audio uploads are disabled.
	MediaBucket          string
	MediaAccessKeyID     string
	MediaSecretAccessKey string
	MediaEndpoint        string
	MediaPublicURL       string
}

// MediaEnabled reports whether all object store settings are present.
func (c Config) MediaEnabled() bool {
	return c.MediaBucket != "" && c.MediaAccessKeyID != "" &&
		c.MediaSecretAccessKey != "" && c.MediaEndpoint != "" && c.MediaPublicURL != ""
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set.
func Load() (Config, error) {
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),

		ORSBaseURL: getEnv("ORS_BASE_URL", "https://api.openrouteservice.org"),
		ORSAPIKey:  os.Getenv("ORS_API_KEY"),

		NominatimBaseURL:   getEnv("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: getEnv("NOMINATIM_USER_AGENT", "waymark/1.0"),

		TTSBaseURL: getEnv("TTS_BASE_URL", "https://api.openai.com/v1"),
		TTSAPIKey:  os.Getenv("TTS_API_KEY"),
		TTSModel:   getEnv("TTS_MODEL", "tts-1"),

		NATSURL: os.Getenv("NATS_URL"),

		MediaBucket:          os.Getenv("MEDIA_BUCKET"),
		MediaAccessKeyID:     os.Getenv("MEDIA_ACCESS_KEY_ID"),
		MediaSecretAccessKey: os.Getenv("MEDIA_SECRET_ACCESS_KEY"),
		MediaEndpoint:        os.Getenv("MEDIA_ENDPOINT"),
		MediaPublicURL:       os.Getenv("MEDIA_PUBLIC_URL"),
	}

	var err error
	cfg.MaxBodySize, err = getEnvInt64("MAX_BODY_SIZE", defaultMaxBodySize)
	if err != nil {
		return Config{}, err
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt64 parses the named variable as a positive integer, or returns
// fallback when it is unset.
func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
