package ranking

import "math"

// Weights balance the remote ranker's sub-scores.
type Weights struct {
	Sim     float64 `json:"sim"`
	Label   float64 `json:"label"`
	Recency float64 `json:"recency"`
}

// DefaultWeights apply when a request supplies none.
var DefaultWeights = Weights{Sim: 0.7, Label: 0.1, Recency: 0.2}

// WeightsFromRecency splits the non-recency share 70/30 between similarity
// and label matching. r is clamped to [0, 1]; NaN counts as 0.
func WeightsFromRecency(r float64) Weights {
	if math.IsNaN(r) {
		r = 0
	}
	r = min(max(r, 0), 1)
	rest := 1 - r
	return Weights{Sim: rest * 0.7, Label: rest * 0.3, Recency: r}
}
