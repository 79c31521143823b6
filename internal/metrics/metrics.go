package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "eventrank"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics records service telemetry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	feedFetches     *prometheus.CounterVec
	feedDuration    prometheus.Histogram
	classifications *prometheus.CounterVec
	rankRuns        *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
}

// New registers the service collectors on reg (prometheus.DefaultRegisterer when nil).
// Registering twice on the same registry reuses the existing collectors.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{}
	var err error
	if m.feedFetches, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_fetches_total",
		Help:      "Calendar feed fetches by outcome.",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if m.feedDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "feed_fetch_duration_seconds",
		Help:      "Latency of calendar feed fetches.",
		Buckets:   prometheus.DefBuckets,
	})); err != nil {
		return nil, err
	}
	if m.classifications, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classifications_total",
		Help:      "Event classifications by source (ai or heuristic).",
	}, []string{"source"})); err != nil {
		return nil, err
	}
	if m.rankRuns, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rank_runs_total",
		Help:      "Ranking runs by mode (remote, local, degraded).",
	}, []string{"mode"})); err != nil {
		return nil, err
	}
	if m.cacheLookups, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Classification cache lookups by result.",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	return m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register metric: %w", err)
	}
	return c, nil
}

// FeedFetch records one feed fetch.
func (m *Metrics) FeedFetch(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.feedDuration.Observe(duration.Seconds())
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.feedFetches.WithLabelValues(outcome).Inc()
}

// Classification records one produced classification.
func (m *Metrics) Classification(source string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(source).Inc()
}

// RankRun records one ranking run.
func (m *Metrics) RankRun(mode string) {
	if m == nil {
		return
	}
	m.rankRuns.WithLabelValues(mode).Inc()
}

// CacheLookup records a cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
