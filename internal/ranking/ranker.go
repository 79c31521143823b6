package ranking

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/eventrank/internal/classify"
	"github.com/hpungsan/eventrank/internal/event"
	"github.com/hpungsan/eventrank/internal/logging"
	"github.com/hpungsan/eventrank/internal/metrics"
	"github.com/hpungsan/eventrank/internal/profile"
)

// Mode says how a ranking was produced.
type Mode string

const (
	ModeRemote   Mode = "remote"
	ModeLocal    Mode = "local"
	ModeDegraded Mode = "degraded"
)

// Scored is an event annotated with its relevance.
type Scored struct {
	event.Event
	RelevanceScore float64 `json:"relevanceScore"`
	ScoreDetails   any     `json:"scoreDetails,omitempty"`
}

// Ranking is the ordered output of one Rank call.
type Ranking struct {
	Mode   Mode
	Events []Scored
}

// ClassificationStore is the subset of the cache the ranker needs.
type ClassificationStore interface {
	GetMany(ctx context.Context, ids []string) (map[string]classify.Classification, error)
	PutAll(ctx context.Context, batch map[string]classify.Classification) error
}

// BatchClassifier classifies events that have no stored classification.
type BatchClassifier interface {
	ClassifyBatch(ctx context.Context, events []event.Event) map[string]classify.Classification
}

// Options configures a Ranker.
type Options struct {
	// Remote, when set, replaces the local pipeline.
	Remote Remote

	Store      ClassificationStore
	Classifier BatchClassifier
	Scorer     Scorer
	Now        func() time.Time
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

// Ranker orders events for a profile.
type Ranker struct {
	remote     Remote
	store      ClassificationStore
	classifier BatchClassifier
	scorer     Scorer
	now        func() time.Time
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewRanker builds a Ranker from opts.
func NewRanker(opts Options) *Ranker {
	r := &Ranker{
		remote:     opts.Remote,
		store:      opts.Store,
		classifier: opts.Classifier,
		scorer:     opts.Scorer,
		now:        opts.Now,
		logger:     logging.OrNop(opts.Logger),
		metrics:    opts.Metrics,
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.classifier == nil {
		r.classifier = classify.New(classify.Options{Logger: opts.Logger, Metrics: opts.Metrics})
	}
	return r
}

// Rank scores and orders events for p. It never fails: when the remote
// ranker is unreachable the events come back date-sorted with score 0.
// Without a remote ranker an empty profile skips classification and returns
// the events date-sorted with score 0. A nil w means DefaultWeights.
func (r *Ranker) Rank(ctx context.Context, events []event.Event, p profile.Profile, w *Weights) Ranking {
	weights := DefaultWeights
	if w != nil {
		weights = *w
	}

	var out Ranking
	switch {
	case r.remote != nil:
		out = r.rankRemote(ctx, events, p, weights)
	case p.IsZero():
		out = Ranking{Mode: ModeLocal, Events: Degrade(events)}
	default:
		out = Ranking{Mode: ModeLocal, Events: r.rankLocal(ctx, events, p, weights)}
	}
	r.metrics.RankRun(string(out.Mode))
	return out
}

func (r *Ranker) rankRemote(ctx context.Context, events []event.Event, p profile.Profile, w Weights) Ranking {
	scores, err := r.remote.Score(ctx, RemoteRequest{UserProfile: p, Events: nonNil(events), Weights: w})
	if err != nil {
		r.logger.Warn("ranking service unavailable, falling back to date order", zap.Error(err))
		return Ranking{Mode: ModeDegraded, Events: Degrade(events)}
	}
	return Ranking{Mode: ModeRemote, Events: MergeRemote(events, scores)}
}

func (r *Ranker) rankLocal(ctx context.Context, events []event.Event, p profile.Profile, w Weights) []Scored {
	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}

	known := map[string]classify.Classification{}
	if r.store != nil {
		found, err := r.store.GetMany(ctx, ids)
		if err != nil {
			r.logger.Warn("classification cache read failed", zap.Error(err))
		} else {
			known = found
		}
	}

	var missing []event.Event
	queued := map[string]struct{}{}
	for _, ev := range events {
		if _, ok := known[ev.ID]; ok {
			continue
		}
		if _, ok := queued[ev.ID]; ok {
			continue
		}
		queued[ev.ID] = struct{}{}
		missing = append(missing, ev)
	}

	if len(missing) > 0 {
		// Classification outlives the caller so every stored result is the
		// one the model would have produced.
		detached := context.WithoutCancel(ctx)
		fresh := r.classifier.ClassifyBatch(detached, missing)
		if r.store != nil {
			if err := r.store.PutAll(detached, fresh); err != nil {
				r.logger.Warn("classification cache write failed", zap.Error(err))
			}
		}
		for id, c := range fresh {
			known[id] = c
		}
		r.logger.Debug("classified uncached events", zap.Int("count", len(missing)))
	}

	now := r.now()
	scored := make([]Scored, len(events))
	for i, ev := range events {
		res := r.scorer.Score(ev, known[ev.ID], p, now)
		details := res.Details
		details.Weights = &w
		scored[i] = Scored{Event: ev, RelevanceScore: float64(res.Score), ScoreDetails: details}
	}
	SortByScore(scored)
	return scored
}

// MergeRemote joins remote scores to events by id. Events the service did
// not score get 0. The result is sorted by SortByScore.
func MergeRemote(events []event.Event, scores []RemoteScore) []Scored {
	byID := make(map[string]RemoteScore, len(scores))
	for _, s := range scores {
		byID[string(s.ID)] = s
	}

	merged := make([]Scored, len(events))
	for i, ev := range events {
		merged[i] = Scored{Event: ev}
		if s, ok := byID[ev.ID]; ok {
			merged[i].RelevanceScore = s.Score
			if len(s.Details) > 0 {
				merged[i].ScoreDetails = s.Details
			}
		}
	}
	SortByScore(merged)
	return merged
}

// Degrade returns events unscored, ordered by start.
func Degrade(events []event.Event) []Scored {
	out := make([]Scored, len(events))
	for i, ev := range events {
		out[i] = Scored{Event: ev}
	}
	sort.SliceStable(out, func(i, j int) bool { return startBefore(out[i].Event, out[j].Event) })
	return out
}

// SortByScore orders by score descending, then start ascending with
// start-less events last. Equal elements keep their input order.
func SortByScore(scored []Scored) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].RelevanceScore != scored[j].RelevanceScore {
			return scored[i].RelevanceScore > scored[j].RelevanceScore
		}
		return startBefore(scored[i].Event, scored[j].Event)
	})
}

func startBefore(a, b event.Event) bool {
	switch {
	case a.StartTimestamp == nil:
		return false
	case b.StartTimestamp == nil:
		return true
	}
	return *a.StartTimestamp < *b.StartTimestamp
}

func nonNil(events []event.Event) []event.Event {
	if events == nil {
		return []event.Event{}
	}
	return events
}
