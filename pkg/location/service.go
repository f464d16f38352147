// Package location resolves place names to coordinates through a Nominatim
// compatible search API.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"geocalendar/models"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent = "geocalendar/1.0"
)

// ErrNoResults is returned when the search matched nothing.
var ErrNoResults = errors.New("no results")

// searchResponse is the subset of a /search result that is used.
type searchResponse []struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type Geocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

type Option func(*Geocoder)

func WithHTTPClient(c *http.Client) Option {
	return func(g *Geocoder) { g.client = c }
}

// WithUserAgent sets the User-Agent header. Nominatim's usage policy requires
// one identifying the application.
func WithUserAgent(ua string) Option {
	return func(g *Geocoder) { g.userAgent = ua }
}

func NewGeocoder(baseURL string, opts ...Option) *Geocoder {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	g := &Geocoder{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: defaultUserAgent,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Geocode returns the coordinates of the best match for query.
func (g *Geocoder) Geocode(ctx context.Context, query string) (models.Location, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("accept-language", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return models.Location{}, err
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return models.Location{}, fmt.Errorf("geocode %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Location{}, fmt.Errorf("geocode %q: unexpected status: %s", query, resp.Status)
	}

	var results searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return models.Location{}, fmt.Errorf("geocode %q: decode: %w", query, err)
	}
	if len(results) == 0 {
		return models.Location{}, fmt.Errorf("geocode %q: %w", query, ErrNoResults)
	}

	first := results[0]
	lat, err := strconv.ParseFloat(first.Lat, 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("geocode %q: latitude %q: %w", query, first.Lat, err)
	}
	lon, err := strconv.ParseFloat(first.Lon, 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("geocode %q: longitude %q: %w", query, first.Lon, err)
	}

	name := first.DisplayName
	if name == "" {
		name = query
	}
	return models.Location{
		Name:        name,
		Coordinates: models.Coordinates{Lat: lat, Lon: lon},
		Source:      "nominatim",
	}, nil
}
