package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geocalendar/internal/eventnet"
	"geocalendar/internal/keys"
	"geocalendar/internal/network"
	"geocalendar/internal/storage"
	"geocalendar/models"
	"geocalendar/pkg/geo"
)

type stubGeocoder map[string]models.Coordinates

func (s stubGeocoder) Geocode(_ context.Context, query string) (models.Location, error) {
	c, ok := s[query]
	if !ok {
		return models.Location{}, errors.New("no results")
	}
	return models.Location{Name: query, Coordinates: c}, nil
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error)    { return nil, errors.New("connection refused") }
func (brokenStore) Put(context.Context, string, []byte) error      { return errors.New("connection refused") }
func (brokenStore) Delete(context.Context, string) error           { return errors.New("connection refused") }
func (brokenStore) List(context.Context, string) ([]string, error) { return nil, errors.New("connection refused") }

func newTestServer(t *testing.T, store storage.BlobStore) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics, err := network.NewMetrics(reg)
	require.NoError(t, err)

	net := network.NewBlobNetwork[geo.BucketKey, []models.Event](
		store, network.JSONCodec[[]models.Event]{}, keys.Bucket,
		network.BlobConfig{MissingAsEmpty: true, Metrics: metrics},
	)
	srv := &server{
		coord:    eventnet.New[models.Event](net),
		places:   stubGeocoder{"Padova": {Lat: 45.4064, Lon: 11.8768}},
		gatherer: reg,
		timeout:  2 * time.Second,
	}
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return ts
}

func postEvent(t *testing.T, ts *httptest.Server, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/events", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestStoreThenQuery(t *testing.T) {
	ts := newTestServer(t, storage.NewMemoryStore())

	resp, data := postEvent(t, ts, `{"title":"Market","location":{"lat":45.4069,"lon":11.8772},"starts_at":"2025-06-01T09:00:00Z"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var stored storeResponse
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, geo.BucketKey{Lat: 45.407, Lon: 11.877}, stored.Key)
	assert.NotEmpty(t, stored.Event.ID)

	resp, data = postEvent(t, ts, `{"title":"Regatta","location":{"lat":45.4371,"lon":12.3326}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	var near queryResponse
	status := getJSON(t, ts.URL+"/events?lat=45.4064&lon=11.8768&radius=250", &near)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, near.Events, 1)
	assert.Equal(t, "Market", near.Events[0].Title)
	assert.Equal(t, stored.Event.ID, near.Events[0].ID)

	var byPlace queryResponse
	status = getJSON(t, ts.URL+"/events?place=Padova&radius=250", &byPlace)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.Coordinates{Lat: 45.4064, Lon: 11.8768}, byPlace.Center)
	assert.Len(t, byPlace.Events, 1)

	var bucket bucketResponse
	status = getJSON(t, ts.URL+"/buckets/45.4069/11.8772", &bucket)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, stored.Key, bucket.Key)
	assert.Len(t, bucket.Events, 1)

	var empty queryResponse
	status = getJSON(t, ts.URL+"/events?lat=-33.9&lon=151.2&radius=100", &empty)
	require.Equal(t, http.StatusOK, status)
	assert.NotNil(t, empty.Events)
	assert.Empty(t, empty.Events)
}

func TestBadRequests(t *testing.T) {
	ts := newTestServer(t, storage.NewMemoryStore())

	tests := []struct {
		name string
		url  string
	}{
		{"missing radius", "/events?lat=1&lon=1"},
		{"negative radius", "/events?lat=1&lon=1&radius=-5"},
		{"huge radius", "/events?lat=1&lon=1&radius=1e9"},
		{"bad lat", "/events?lat=north&lon=1&radius=5"},
		{"lat out of range", "/events?lat=91&lon=1&radius=5"},
		{"missing lon", "/events?lat=1&radius=5"},
		{"bucket lon out of range", "/buckets/1/181"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorResponse
			status := getJSON(t, ts.URL+tt.url, &body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.NotEmpty(t, body.Error)
		})
	}

	for _, body := range []string{`{`, `{"location":{"lat":1,"lon":1}}`, `{"title":"x","location":{"lat":100,"lon":1}}`} {
		resp, _ := postEvent(t, ts, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestNetworkFailures(t *testing.T) {
	ts := newTestServer(t, brokenStore{})

	resp, data := postEvent(t, ts, `{"title":"Market","location":{"lat":45.4069,"lon":11.8772}}`)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	var storeErr errorResponse
	require.NoError(t, json.Unmarshal(data, &storeErr))
	assert.Equal(t, network.GenericFail, storeErr.Reason)
	require.NotNil(t, storeErr.Event)
	assert.Equal(t, "Market", storeErr.Event.Title)

	var queryErr errorResponse
	status := getJSON(t, ts.URL+"/events?lat=45.4&lon=11.8&radius=100", &queryErr)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, network.Transport, queryErr.Reason)
	require.NotNil(t, queryErr.Center)

	var placeErr errorResponse
	status = getJSON(t, ts.URL+"/events?place=Atlantis&radius=100", &placeErr)
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, storage.NewMemoryStore())

	var health map[string]string
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/health", &health))
	assert.Equal(t, "ok", health["status"])

	resp, _ := postEvent(t, ts, `{"title":"Market","location":{"lat":1,"lon":1}}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	mresp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	body, err := io.ReadAll(mresp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "resource_network_ops_total"), "metrics output missing network counters")
}
