// Package geocode wraps the Nominatim geocoding service: free-text place
// search for the editor's search box and reverse lookup for resolving the
// address of a freshly clicked point.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/waymarkhq/waymark/internal/domain"
	"github.com/waymarkhq/waymark/internal/geo"
)

// DefaultBaseURL is the public Nominatim endpoint.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

const (
	// MinQueryLen is the shortest query that triggers a search; shorter
	// input clears suggestions without a request.
	MinQueryLen = 3

	// DebounceInterval is how long UI wiring should wait after the last
	// keystroke before calling Search.
	DebounceInterval = 300 * time.Millisecond

	// searchLimit caps the number of suggestions per query.
	searchLimit = 8
)

// Place is one geocoder result.
type Place struct {
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	Class       string `json:"class"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Client calls the Nominatim HTTP API.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient constructs a geocoding client. baseURL may be empty for the
// public endpoint; httpClient may be nil for http.DefaultClient. Nominatim's
// usage policy requires an identifying User-Agent.
func NewClient(baseURL, userAgent string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = "waymark/1.0"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, userAgent: userAgent, http: httpClient}
}

// Search runs a forward geocode for the query. Queries shorter than
// MinQueryLen return an empty slice without issuing a request, which the UI
// treats as "clear suggestions".
func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinQueryLen {
		return []Place{}, nil
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(searchLimit))
	q.Set("addressdetails", "1")

	var places []Place
	if err := c.get(ctx, "/search", q, &places); err != nil {
		return nil, fmt.Errorf("geocode.Client.Search: %w", err)
	}
	return places, nil
}

// Reverse resolves a coordinate to its display address. Returns an empty
// string (no error) when the service has no result; callers keep their
// placeholder in that case.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("zoom", "16")

	var result struct {
		DisplayName string `json:"display_name"`
	}
	if err := c.get(ctx, "/reverse", q, &result); err != nil {
		return "", fmt.Errorf("geocode.Client.Reverse: %w", err)
	}
	return result.DisplayName, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ToPoint turns a geocoder result into a candidate route point: the name is
// the display name up to the first comma, the address keeps the full display
// name, and the category comes from keyword detection. Coordinates run
// through the normalizer like every other entry path.
func ToPoint(p Place) domain.Point {
	name := p.DisplayName
	if i := strings.Index(name, ","); i >= 0 {
		name = name[:i]
	}
	lat, _ := geo.Normalize(p.Lat)
	lng, _ := geo.Normalize(p.Lon)
	return domain.Point{
		Name:     name,
		Lat:      lat,
		Lng:      lng,
		Address:  p.DisplayName,
		Category: DetectCategory(p),
		Photos:   []domain.Photo{},
		Tags:     []string{},
	}
}
