package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/eventrank/internal/errors"
	"github.com/hpungsan/eventrank/internal/metrics"
)

const sampleFeed = `{
  "events": [
    {"event": {
      "id": "CAL-1",
      "summary": "Test Talk",
      "start": {"utcdate": "20250902T040000Z"},
      "location": {"address": "Perkins Library, Room 217"},
      "categories": {"category": [{"value": "Lecture/Talk"}]},
      "xproperties": {"X_BEDEWORK_CS": {"values": {"text": "Department of History"}}}
    }},
    {"event": {"guid": "guid-2", "start": {"utcdate": "garbage"}}},
    {},
    {"event": {"summary": "Anonymous"}}
  ]
}`

var fixedNow = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL: srv.URL + "/events/index.json",
		Timeout: time.Second,
		Now:     func() time.Time { return fixedNow },
	})
}

func TestEvents(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("future_days")
		_, _ = w.Write([]byte(sampleFeed))
	})

	events, err := client.Events(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, "7", gotQuery)
	require.Len(t, events, 3, "item without an event object is skipped")

	first := events[0]
	assert.Equal(t, "CAL-1", first.ID)
	assert.Equal(t, "Test Talk", first.Title)
	require.NotNil(t, first.StartTimestamp)
	assert.Equal(t, int64(1756785600), *first.StartTimestamp)
	assert.Nil(t, first.EndTimestamp)
	assert.Equal(t, "Department of History", first.Sponsor)
	assert.Equal(t, []string{"lecture/talk", "perkins-library", "department-of-history"}, first.Tags)

	assert.Equal(t, "guid-2", events[1].ID)
	assert.Nil(t, events[1].StartTimestamp)

	assert.Equal(t, "json-2-1756728000000", events[2].ID)
}

func TestFetch_DefaultFutureDays(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"events":[]}`))
	})

	raws, err := client.Fetch(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, raws)
	assert.Equal(t, "future_days=30", gotQuery)
}

func TestFetch_MissingEventsKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	events, err := client.Events(context.Background(), 30)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestFetch_Errors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantCode errors.ErrorCode
	}{
		{
			name:     "non-2xx",
			handler:  func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) },
			wantCode: errors.ErrUpstreamFetch,
		},
		{
			name:     "malformed json",
			handler:  func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"events": [`)) },
			wantCode: errors.ErrParse,
		},
		{
			name:     "wrong shape",
			handler:  func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"events": "nope"}`)) },
			wantCode: errors.ErrParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.Events(context.Background(), 30)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantCode), "error = %v, want %s", err, tt.wantCode)
		})
	}
}

func TestFetch_ResponseTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"events":[` + strings.Repeat(`{},`, 100) + `{}]}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, MaxResponseBytes: 64})
	_, err := client.Fetch(context.Background(), 30)
	assert.True(t, errors.Is(err, errors.ErrUpstreamFetch))
}

func TestFetch_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := NewClient(Config{BaseURL: base}).Fetch(context.Background(), 30)
	assert.True(t, errors.Is(err, errors.ErrUpstreamFetch))
}

func TestFetch_BadBaseURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "not a url"}).Fetch(context.Background(), 30)
	assert.True(t, errors.Is(err, errors.ErrConfig))
}

func TestFetch_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"events":[]}`))
	}))
	defer srv.Close()

	_, err = NewClient(Config{BaseURL: srv.URL, Metrics: m}).Fetch(context.Background(), 1)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["eventrank_feed_fetches_total"])
	assert.True(t, names["eventrank_feed_fetch_duration_seconds"])
}
