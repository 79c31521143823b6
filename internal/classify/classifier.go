package classify

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hpungsan/eventrank/internal/errors"
	"github.com/hpungsan/eventrank/internal/event"
	"github.com/hpungsan/eventrank/internal/logging"
	"github.com/hpungsan/eventrank/internal/metrics"
)

// Batch defaults.
const (
	DefaultBatchSize  = 5
	DefaultBatchDelay = time.Second
)

// Options configures a Classifier.
type Options struct {
	// Model is the primary classifier. Nil means heuristic only.
	Model      Model
	BatchSize  int
	BatchDelay time.Duration
	Logger     *zap.Logger
	Metrics    *metrics.Metrics

	// Sleep waits between waves. Tests replace it to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration)
}

// Classifier classifies events with the model, falling back to Heuristic.
type Classifier struct {
	model      Model
	batchSize  int
	batchDelay time.Duration
	logger     *zap.Logger
	metrics    *metrics.Metrics
	sleep      func(ctx context.Context, d time.Duration)
}

// New builds a Classifier from opts.
func New(opts Options) *Classifier {
	c := &Classifier{
		model:      opts.Model,
		batchSize:  opts.BatchSize,
		batchDelay: opts.BatchDelay,
		logger:     logging.OrNop(opts.Logger),
		metrics:    opts.Metrics,
		sleep:      opts.Sleep,
	}
	if c.batchSize <= 0 {
		c.batchSize = DefaultBatchSize
	}
	if c.batchDelay < 0 {
		c.batchDelay = 0
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	return c
}

// Classify returns the model's classification of ev, or the heuristic one if
// the model is absent or fails in any way. It never fails.
func (c *Classifier) Classify(ctx context.Context, ev event.Event) Classification {
	if c.model != nil {
		cl, err := c.classifyWithModel(ctx, ev)
		if err == nil {
			c.metrics.Classification(string(SourceAI))
			return cl
		}
		code := errors.ErrInternal
		if appErr, ok := errors.As(err); ok {
			code = appErr.Code
		}
		c.logger.Warn("classification fell back to heuristic",
			zap.String("event_id", ev.ID),
			zap.String("code", string(code)),
			zap.Error(err),
		)
	}
	c.metrics.Classification(string(SourceHeuristic))
	return Heuristic(ev)
}

func (c *Classifier) classifyWithModel(ctx context.Context, ev event.Event) (Classification, error) {
	text, err := c.model.Generate(ctx, BuildPrompt(ev))
	if err != nil {
		return Classification{}, err
	}
	return DecodeResponse(text)
}

// ClassifyBatch classifies events in waves of BatchSize concurrent calls,
// pausing BatchDelay between waves. The result has one entry per event id.
// A cancelled ctx still yields a full result, with interrupted events
// classified by the heuristic. Callers that persist results pass a context
// that is never cancelled.
func (c *Classifier) ClassifyBatch(ctx context.Context, events []event.Event) map[string]Classification {
	out := make(map[string]Classification, len(events))
	results := make([]Classification, len(events))

	for start := 0; start < len(events); start += c.batchSize {
		if start > 0 && c.model != nil && c.batchDelay > 0 {
			c.sleep(ctx, c.batchDelay)
		}
		end := min(start+c.batchSize, len(events))

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				results[i] = c.Classify(ctx, events[i])
				return nil
			})
		}
		_ = g.Wait()
	}

	for i, ev := range events {
		out[ev.ID] = results[i]
	}
	c.logger.Debug("classified batch", zap.Int("events", len(events)), zap.Int("batch_size", c.batchSize))
	return out
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
