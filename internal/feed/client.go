// Package feed fetches the upstream calendar JSON and normalizes it.
package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/eventrank/internal/errors"
	"github.com/hpungsan/eventrank/internal/event"
	"github.com/hpungsan/eventrank/internal/httputil"
	"github.com/hpungsan/eventrank/internal/logging"
	"github.com/hpungsan/eventrank/internal/metrics"
)

const serviceName = "calendar feed"

// DefaultFutureDays is the look-ahead used when callers pass 0.
const DefaultFutureDays = 30

// Config configures a Client.
type Config struct {
	// BaseURL is the feed endpoint without the future_days parameter.
	BaseURL          string
	Timeout          time.Duration
	MaxResponseBytes int64
	HTTPClient       *http.Client
	Logger           *zap.Logger
	Metrics          *metrics.Metrics

	// Now supplies the fetch-time hint for synthesized ids.
	Now func() time.Time
}

// Client reads the calendar feed.
type Client struct {
	baseURL  string
	client   *http.Client
	maxBytes int64
	logger   *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewClient returns a Client for cfg.
func NewClient(cfg Config) *Client {
	client := cfg.HTTPClient
	if client == nil {
		client = httputil.NewClient(cfg.Timeout)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		client:   client,
		maxBytes: cfg.MaxResponseBytes,
		logger:   logging.OrNop(cfg.Logger),
		metrics:  cfg.Metrics,
		now:      now,
	}
}

type envelope struct {
	Events []struct {
		Event *event.RawEvent `json:"event"`
	} `json:"events"`
}

// Fetch returns the raw events for the next futureDays days. Items with no
// event object are skipped.
func (c *Client) Fetch(ctx context.Context, futureDays int) ([]event.RawEvent, error) {
	start := time.Now()
	raws, err := c.fetch(ctx, futureDays)
	c.metrics.FeedFetch(time.Since(start), err)
	if err != nil {
		c.logger.Error("feed fetch failed", zap.String("url", httputil.RedactURL(c.baseURL)), zap.Error(err))
		return nil, err
	}
	return raws, nil
}

func (c *Client) fetch(ctx context.Context, futureDays int) ([]event.RawEvent, error) {
	if futureDays <= 0 {
		futureDays = DefaultFutureDays
	}
	u, err := url.Parse(c.baseURL)
	if err != nil || u.Host == "" {
		return nil, errors.NewConfig("feed URL")
	}
	q := u.Query()
	q.Set("future_days", strconv.Itoa(futureDays))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.NewUpstreamFetch(serviceName, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewUpstreamFetch(serviceName, resp.StatusCode, nil)
	}

	data, err := httputil.ReadAllWithLimit(resp.Body, c.maxBytes)
	if err != nil {
		return nil, errors.NewUpstreamFetch(serviceName, 0, err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.NewParse("feed response", err)
	}

	raws := make([]event.RawEvent, 0, len(env.Events))
	for _, item := range env.Events {
		if item.Event == nil {
			continue
		}
		raws = append(raws, *item.Event)
	}
	return raws, nil
}

// Events fetches and normalizes the feed.
func (c *Client) Events(ctx context.Context, futureDays int) ([]event.Event, error) {
	raws, err := c.Fetch(ctx, futureDays)
	if err != nil {
		return nil, err
	}
	events := event.NormalizeAll(raws, c.now())
	c.logger.Info("fetched events",
		zap.Int("future_days", futureDays),
		zap.Int("events", len(events)),
		zap.Int("with_valid_dates", event.CountValid(events)),
	)
	return events, nil
}
