package ranking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hpungsan/eventrank/internal/errors"
	"github.com/hpungsan/eventrank/internal/event"
	"github.com/hpungsan/eventrank/internal/httputil"
	"github.com/hpungsan/eventrank/internal/profile"
)

// Remote scores events in an external service.
type Remote interface {
	Score(ctx context.Context, req RemoteRequest) ([]RemoteScore, error)
}

// RemoteRequest is the body posted to the ranking service.
type RemoteRequest struct {
	UserProfile profile.Profile `json:"user_profile"`
	Events      []event.Event   `json:"events"`
	Weights     Weights         `json:"weights"`
}

// RemoteScore is one entry of the ranking service response.
type RemoteScore struct {
	ID      RemoteID        `json:"id"`
	Score   float64         `json:"score"`
	Details json.RawMessage `json:"details,omitempty"`
}

// RemoteID accepts a string or numeric id and holds its string form.
type RemoteID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *RemoteID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = RemoteID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = RemoteID(n.String())
		return nil
	}
	*id = ""
	return nil
}

// RemoteClient posts to a ranking service over HTTP.
type RemoteClient struct {
	endpoint string
	client   *http.Client
	maxBytes int64
}

// NewRemoteClient returns a client for endpoint.
func NewRemoteClient(endpoint string, timeout time.Duration, maxBytes int64) *RemoteClient {
	return &RemoteClient{
		endpoint: strings.TrimSpace(endpoint),
		client:   httputil.NewClient(timeout),
		maxBytes: maxBytes,
	}
}

// Score posts req and decodes the scored array. Every failure is reported as
// RANKING_UNAVAILABLE.
func (c *RemoteClient) Score(ctx context.Context, req RemoteRequest) ([]RemoteScore, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.NewRankingUnavailable(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewRankingUnavailable(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errors.NewRankingUnavailable(err)
	}
	defer resp.Body.Close()

	data, err := httputil.ReadAllWithLimit(resp.Body, c.maxBytes)
	if err != nil {
		return nil, errors.NewRankingUnavailable(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewRankingUnavailable(fmt.Errorf("ranking service returned %d", resp.StatusCode))
	}

	var scores []RemoteScore
	if err := json.Unmarshal(data, &scores); err != nil {
		return nil, errors.NewRankingUnavailable(fmt.Errorf("decode ranking response: %w", err))
	}
	return scores, nil
}
