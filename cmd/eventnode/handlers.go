package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"geocalendar/internal/eventnet"
	"geocalendar/internal/network"
	"geocalendar/models"
	"geocalendar/pkg/geo"
)

// maxRadiusMeters caps query radii so one request cannot fan out to an
// unbounded number of buckets.
const maxRadiusMeters = 50_000

type geocoder interface {
	Geocode(ctx context.Context, query string) (models.Location, error)
}

type server struct {
	coord    *eventnet.Coordinator[models.Event]
	places   geocoder
	gatherer prometheus.Gatherer
	timeout  time.Duration
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /events", s.handleStore)
	mux.HandleFunc("GET /events", s.handleQuery)
	mux.HandleFunc("GET /buckets/{lat}/{lon}", s.handleBucket)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}

type storeRequest struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Location    models.Coordinates `json:"location"`
	StartsAt    time.Time          `json:"starts_at"`
}

type storeResponse struct {
	Key   geo.BucketKey `json:"key"`
	Event models.Event  `json:"event"`
}

type queryResponse struct {
	Center models.Coordinates `json:"center"`
	Events []models.Event     `json:"events"`
}

type bucketResponse struct {
	Key    geo.BucketKey  `json:"key"`
	Events []models.Event `json:"events"`
}

type errorResponse struct {
	Error  string              `json:"error"`
	Reason network.FailReason  `json:"reason,omitempty"`
	Event  *models.Event       `json:"event,omitempty"`
	Center *models.Coordinates `json:"center,omitempty"`
}

func (s *server) handleStore(w http.ResponseWriter, r *http.Request) {
	var req storeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, errors.New("title is required"))
		return
	}
	if err := validPosition(req.Location); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	event := models.NewEvent(req.Title, req.Description, req.Location, req.StartsAt)
	res := s.coord.Store(ctx, event)
	if res.Err != nil {
		log.Printf("Store of event %s failed: %v", event.ID, res.Err)
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:  res.Err.Error(),
			Reason: res.Reason(),
			Event:  &res.Event,
		})
		return
	}
	writeJSON(w, http.StatusCreated, storeResponse{Key: res.Key, Event: res.Event})
}

func (s *server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	radius, err := parseFloat(q.Get("radius"), "radius")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if radius < 0 || radius > maxRadiusMeters {
		writeError(w, http.StatusBadRequest, fmt.Errorf("radius must be within [0, %d] meters", maxRadiusMeters))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	var center models.Coordinates
	if place := q.Get("place"); place != "" {
		if s.places == nil {
			writeError(w, http.StatusBadRequest, errors.New("place lookup is not configured"))
			return
		}
		loc, err := s.places.Geocode(ctx, place)
		if err != nil {
			log.Printf("Geocoding %q failed: %v", place, err)
			writeError(w, http.StatusBadGateway, err)
			return
		}
		center = loc.Coordinates
	} else {
		if center, err = parsePosition(q.Get("lat"), q.Get("lon")); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	res := s.coord.Query(ctx, center, radius)
	if res.Err != nil {
		log.Printf("Query around %s failed: %v", center, res.Err)
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:  res.Err.Error(),
			Reason: res.Reason(),
			Center: &center,
		})
		return
	}
	writeJSON(w, http.StatusOK, queryResponse{Center: res.Center, Events: res.Events})
}

func (s *server) handleBucket(w http.ResponseWriter, r *http.Request) {
	pos, err := parsePosition(r.PathValue("lat"), r.PathValue("lon"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	key := s.coord.BucketOf(pos)
	res := s.coord.Query(ctx, key.Coordinates(), 0)
	if res.Err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: res.Err.Error(), Reason: res.Reason()})
		return
	}
	writeJSON(w, http.StatusOK, bucketResponse{Key: key, Events: res.Events})
}

func parsePosition(latText, lonText string) (models.Coordinates, error) {
	lat, err := parseFloat(latText, "lat")
	if err != nil {
		return models.Coordinates{}, err
	}
	lon, err := parseFloat(lonText, "lon")
	if err != nil {
		return models.Coordinates{}, err
	}
	c := models.Coordinates{Lat: lat, Lon: lon}
	return c, validPosition(c)
}

func parseFloat(text, name string) (float64, error) {
	if text == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s: %q is not a number", name, text)
	}
	return v, nil
}

func validPosition(c models.Coordinates) error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("lat %v out of range", c.Lat)
	}
	if math.IsNaN(c.Lon) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("lon %v out of range", c.Lon)
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
