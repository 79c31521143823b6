package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/eventrank/internal/cache"
	"github.com/hpungsan/eventrank/internal/db"
	"github.com/hpungsan/eventrank/internal/errors"
	"github.com/hpungsan/eventrank/internal/event"
	"github.com/hpungsan/eventrank/internal/metrics"
	"github.com/hpungsan/eventrank/internal/ops"
	"github.com/hpungsan/eventrank/internal/ranking"
)

type stubSource struct {
	events []event.Event
	err    error
	days   int
}

func (s *stubSource) Events(_ context.Context, futureDays int) ([]event.Event, error) {
	s.days = futureDays
	return s.events, s.err
}

func unix(t time.Time) *int64 {
	v := t.Unix()
	return &v
}

func testEvents() []event.Event {
	now := time.Now()
	return []event.Event{
		{ID: "later", Title: "Gallery Opening", StartTimestamp: unix(now.Add(96 * time.Hour)), Categories: []string{}, Tags: []string{"arts"}},
		{ID: "sooner", Title: "Software Career Fair", StartTimestamp: unix(now.Add(24 * time.Hour)), Categories: []string{}, Tags: []string{"career"}},
	}
}

func setupTestServer(t *testing.T, src ops.EventSource, remote ranking.Remote) (*httptest.Server, *prometheus.Registry) {
	t.Helper()
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	c, err := cache.New(database, cache.Options{LRUSize: 8, Metrics: m})
	require.NoError(t, err)

	deps := &ops.Deps{
		DB:     database,
		Feed:   src,
		Cache:  c,
		Ranker: ranking.NewRanker(ranking.Options{Remote: remote, Store: c, Metrics: m}),
	}
	srv := NewServer(deps, reg, "127.0.0.1", 0)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts, reg
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	ts, _ := setupTestServer(t, &stubSource{}, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
	_, err = time.Parse(time.RFC3339Nano, body["timestamp"])
	assert.NoError(t, err)
}

func TestEvents(t *testing.T) {
	src := &stubSource{events: testEvents()}
	ts, _ := setupTestServer(t, src, nil)

	resp, err := http.Get(ts.URL + "/events?future_days=7")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	var events []event.Event
	decodeBody(t, resp, &events)
	assert.Len(t, events, 2)
	assert.Equal(t, 7, src.days)
}

func TestEvents_EmptyIsArray(t *testing.T) {
	ts, _ := setupTestServer(t, &stubSource{}, nil)

	resp, err := http.Get(ts.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.Equal(t, "[]", string(raw))
}

func TestEvents_FeedFailure(t *testing.T) {
	src := &stubSource{err: errors.NewUpstreamFetch("events feed", 502, nil)}
	ts, _ := setupTestServer(t, src, nil)

	resp, err := http.Get(ts.URL + "/events")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "Failed to fetch Duke events", body["error"])
	assert.Contains(t, body["message"], "502")
	assert.Equal(t, string(errors.ErrUpstreamFetch), body["code"])
}

func TestEvents_BadFutureDays(t *testing.T) {
	ts, _ := setupTestServer(t, &stubSource{}, nil)

	for _, q := range []string{"abc", "-1", "400"} {
		resp, err := http.Get(ts.URL + "/events?future_days=" + q)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "future_days=%s", q)
	}
}

func TestRank_Local(t *testing.T) {
	ts, _ := setupTestServer(t, &stubSource{events: testEvents()}, nil)

	body := `{"user_profile":{"year":"Senior","major":"Computer Science","interests":["professional"]}}`
	resp, err := http.Post(ts.URL+"/events/rank", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, resp.Header.Get(RunIDHeader), 26)
	assert.Equal(t, "local", resp.Header.Get("X-Rank-Mode"))

	var ranked []map[string]any
	decodeBody(t, resp, &ranked)
	require.Len(t, ranked, 2)
	assert.Equal(t, "sooner", ranked[0]["id"])
	assert.Contains(t, ranked[0], "relevanceScore")
	assert.Contains(t, ranked[0], "scoreDetails")
}

func TestRank_NoProfileScoresZero(t *testing.T) {
	ts, reg := setupTestServer(t, &stubSource{events: testEvents()}, nil)

	resp, err := http.Post(ts.URL+"/events/rank", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "local", resp.Header.Get("X-Rank-Mode"))

	var ranked []map[string]any
	decodeBody(t, resp, &ranked)
	require.Len(t, ranked, 2)
	assert.Equal(t, "sooner", ranked[0]["id"])
	assert.Equal(t, "later", ranked[1]["id"])
	for _, ev := range ranked {
		assert.Equal(t, 0.0, ev["relevanceScore"])
		assert.NotContains(t, ev, "scoreDetails")
	}

	// No classification work was done.
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		assert.NotContains(t, mf.GetName(), "classification")
	}
}

func TestRank_RemoteMerge(t *testing.T) {
	remoteSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ranking.RemoteRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, "Junior", req.UserProfile.Year)
		assert.InDelta(t, 0.5, req.Weights.Recency, 1e-9)
		_, _ = w.Write([]byte(`[{"id":"later","score":0.9,"details":{"sim":0.8}},{"id":"sooner","score":0.1}]`))
	}))
	defer remoteSrv.Close()

	remote := ranking.NewRemoteClient(remoteSrv.URL, 5*time.Second, 0)
	ts, _ := setupTestServer(t, &stubSource{events: testEvents()}, remote)

	body := `{"user_profile":{"year":"Junior","major":"Economics","interests":["arts"]},"recency_weight":0.5}`
	resp, err := http.Post(ts.URL+"/events/rank", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, "remote", resp.Header.Get("X-Rank-Mode"))

	var ranked []map[string]any
	decodeBody(t, resp, &ranked)
	require.Len(t, ranked, 2)
	assert.Equal(t, "later", ranked[0]["id"])
	assert.InDelta(t, 0.9, ranked[0]["relevanceScore"], 1e-9)
	assert.Equal(t, map[string]any{"sim": 0.8}, ranked[0]["scoreDetails"])
}

func TestRank_RemoteDownDegrades(t *testing.T) {
	remote := ranking.NewRemoteClient("http://127.0.0.1:1/rank", time.Second, 0)
	ts, reg := setupTestServer(t, &stubSource{events: testEvents()}, remote)

	resp, err := http.Post(ts.URL+"/events/rank", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "degraded", resp.Header.Get("X-Rank-Mode"))

	var ranked []map[string]any
	decodeBody(t, resp, &ranked)
	require.Len(t, ranked, 2)
	assert.Equal(t, "sooner", ranked[0]["id"])
	assert.Equal(t, float64(0), ranked[0]["relevanceScore"])

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if mf.GetName() == "eventrank_rank_runs_total" {
			found = true
		}
	}
	assert.True(t, found, "rank run metric should be registered")
}

func TestRank_BadJSON(t *testing.T) {
	ts, _ := setupTestServer(t, &stubSource{events: testEvents()}, nil)

	resp, err := http.Post(ts.URL+"/events/rank", "application/json", strings.NewReader(`{"user_profile":`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "Failed to rank events", body["error"])
}

func TestRank_FeedFailure(t *testing.T) {
	src := &stubSource{err: errors.NewParse("events feed response", nil)}
	ts, _ := setupTestServer(t, src, nil)

	resp, err := http.Post(ts.URL+"/events/rank", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "Failed to rank events", body["error"])
}

func TestMajors(t *testing.T) {
	ts, _ := setupTestServer(t, &stubSource{}, nil)

	resp, err := http.Get(ts.URL + "/events/majors")
	require.NoError(t, err)

	var majors []string
	decodeBody(t, resp, &majors)
	require.NotEmpty(t, majors)
	assert.Equal(t, "Other", majors[len(majors)-1])
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := setupTestServer(t, &stubSource{}, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPreflight(t *testing.T) {
	ts, _ := setupTestServer(t, &stubSource{}, nil)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/events/rank", nil)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "content-type", resp.Header.Get("Access-Control-Allow-Headers"))
}
