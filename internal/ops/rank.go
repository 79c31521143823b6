package ops

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/hpungsan/eventrank/internal/errors"
	"github.com/hpungsan/eventrank/internal/profile"
	"github.com/hpungsan/eventrank/internal/ranking"
)

// RankEventsInput contains parameters for the RankEvents operation.
type RankEventsInput struct {
	FutureDays int
	Profile    profile.Profile

	// Weights, if set, are passed through as given.
	Weights *ranking.Weights

	// RecencyWeight, if set and Weights is not, derives weights with
	// ranking.WeightsFromRecency. Must be in [0, 1].
	RecencyWeight *float64
}

// RankEventsOutput contains the result of the RankEvents operation.
type RankEventsOutput struct {
	RunID   string           `json:"run_id"`
	Mode    ranking.Mode     `json:"mode"`
	Weights ranking.Weights  `json:"weights"`
	Events  []ranking.Scored `json:"events"`
}

// RankEvents fetches events and orders them for the profile. Only a feed
// failure is returned as an error; ranking failures degrade to date order.
func RankEvents(ctx context.Context, d *Deps, input RankEventsInput) (*RankEventsOutput, error) {
	days, err := d.futureDays(input.FutureDays)
	if err != nil {
		return nil, err
	}

	weights, err := resolveWeights(input)
	if err != nil {
		return nil, err
	}

	events, err := d.Feed.Events(ctx, days)
	if err != nil {
		return nil, err
	}

	runID := NewRunID()
	result := d.Ranker.Rank(ctx, events, input.Profile, &weights)

	d.logger().Info("ranked events",
		zap.String("run_id", runID),
		zap.String("mode", string(result.Mode)),
		zap.Int("events", len(result.Events)),
	)

	scored := result.Events
	if scored == nil {
		scored = []ranking.Scored{}
	}
	return &RankEventsOutput{
		RunID:   runID,
		Mode:    result.Mode,
		Weights: weights,
		Events:  scored,
	}, nil
}

func resolveWeights(input RankEventsInput) (ranking.Weights, error) {
	if input.Weights != nil {
		w := *input.Weights
		for _, v := range []float64{w.Sim, w.Label, w.Recency} {
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return ranking.Weights{}, errors.NewInvalidRequest("weights must be non-negative numbers")
			}
		}
		return w, nil
	}
	if input.RecencyWeight != nil {
		r := *input.RecencyWeight
		if r < 0 || r > 1 || math.IsNaN(r) {
			return ranking.Weights{}, errors.NewInvalidRequest("recency_weight must be between 0 and 1")
		}
		return ranking.WeightsFromRecency(r), nil
	}
	return ranking.DefaultWeights, nil
}
