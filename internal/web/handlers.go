package web

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/eventrank/internal/errors"
	"github.com/hpungsan/eventrank/internal/ops"
	"github.com/hpungsan/eventrank/internal/profile"
	"github.com/hpungsan/eventrank/internal/ranking"
)

// RunIDHeader carries the ranking run id on /events/rank responses.
const RunIDHeader = "X-Rank-Run-Id"

// Handlers contains HTTP route handlers for the events API.
type Handlers struct {
	deps   *ops.Deps
	logger *zap.Logger
	now    func() time.Time
}

// rankRequest is the POST /events/rank body.
type rankRequest struct {
	UserProfile   profile.Profile  `json:"user_profile"`
	Weights       *ranking.Weights `json:"weights,omitempty"`
	RecencyWeight *float64         `json:"recency_weight,omitempty"`
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
	})
}

// HandleEvents handles GET /events with normalized upcoming events.
func (h *Handlers) HandleEvents(w http.ResponseWriter, r *http.Request) {
	days, err := parseFutureDays(r)
	if err != nil {
		h.renderError(w, "Failed to fetch Duke events", err)
		return
	}

	result, err := ops.ListEvents(r.Context(), h.deps, ops.ListEventsInput{FutureDays: days})
	if err != nil {
		h.renderError(w, "Failed to fetch Duke events", err)
		return
	}
	renderJSON(w, http.StatusOK, result.Events)
}

// HandleRank handles POST /events/rank, returning events ordered for a profile.
// Ranking failures degrade to date order; only feed failures return 500.
func (h *Handlers) HandleRank(w http.ResponseWriter, r *http.Request) {
	days, err := parseFutureDays(r)
	if err != nil {
		h.renderError(w, "Failed to rank events", err)
		return
	}

	var req rankRequest
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.renderError(w, "Failed to rank events", errors.NewInvalidRequest("request body too large"))
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			h.renderError(w, "Failed to rank events", errors.NewInvalidRequest("invalid JSON body: "+err.Error()))
			return
		}
	}

	result, err := ops.RankEvents(r.Context(), h.deps, ops.RankEventsInput{
		FutureDays:    days,
		Profile:       req.UserProfile,
		Weights:       req.Weights,
		RecencyWeight: req.RecencyWeight,
	})
	if err != nil {
		h.renderError(w, "Failed to rank events", err)
		return
	}

	w.Header().Set(RunIDHeader, result.RunID)
	w.Header().Set("X-Rank-Mode", string(result.Mode))
	renderJSON(w, http.StatusOK, result.Events)
}

// HandleMajors handles GET /events/majors.
func (h *Handlers) HandleMajors(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, ops.ListMajors(h.deps).Majors)
}

// renderError writes {error, message, code} with the error's status.
func (h *Handlers) renderError(w http.ResponseWriter, summary string, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.NewInternal(err)
	}
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(summary, zap.String("code", string(appErr.Code)), zap.Error(err))
	}
	renderJSON(w, appErr.Status, map[string]any{
		"error":   summary,
		"message": appErr.Message,
		"code":    string(appErr.Code),
	})
}

// renderJSON writes data as a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// parseFutureDays reads the future_days query parameter (0 when absent).
func parseFutureDays(r *http.Request) (int, error) {
	s := r.URL.Query().Get("future_days")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.NewInvalidRequest("future_days must be an integer")
	}
	return v, nil
}
