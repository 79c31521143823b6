package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/eventrank/internal/errors"
	"github.com/hpungsan/eventrank/internal/ops"
	"github.com/hpungsan/eventrank/internal/profile"
	"github.com/hpungsan/eventrank/internal/ranking"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	deps *ops.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps *ops.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// EventsListRequest represents the arguments for events_list.
type EventsListRequest struct {
	FutureDays int `json:"future_days,omitempty"`
}

// EventsRankRequest represents the arguments for events_rank.
type EventsRankRequest struct {
	FutureDays    int              `json:"future_days,omitempty"`
	UserProfile   *profile.Profile `json:"user_profile,omitempty"`
	Weights       *ranking.Weights `json:"weights,omitempty"`
	RecencyWeight *float64         `json:"recency_weight,omitempty"`
	Limit         int              `json:"limit,omitempty"`
}

// EventsExportRequest represents the arguments for events_export.
type EventsExportRequest struct {
	Path       string `json:"path,omitempty"`
	FutureDays int    `json:"future_days,omitempty"`
	Ranked     bool   `json:"ranked,omitempty"`
}

// CachePurgeRequest represents the arguments for cache_purge.
type CachePurgeRequest struct {
	Confirm bool `json:"confirm"`
}

// HandleEventsList handles the events_list tool call.
func (h *Handlers) HandleEventsList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EventsListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ListEvents(ctx, h.deps, ops.ListEventsInput{FutureDays: input.FutureDays})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleEventsRank handles the events_rank tool call.
func (h *Handlers) HandleEventsRank(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EventsRankRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Limit < 0 {
		return errorResult(errors.NewInvalidRequest("limit must be non-negative")), nil
	}

	var p profile.Profile
	if input.UserProfile != nil {
		p = *input.UserProfile
	} else {
		saved, ok, err := profile.Load(ctx, h.deps.DB)
		if err != nil {
			return errorResult(err), nil
		}
		if !ok {
			return errorResult(errors.NewInvalidRequest("user_profile is required when no profile is saved")), nil
		}
		p = saved
	}

	result, err := ops.RankEvents(ctx, h.deps, ops.RankEventsInput{
		FutureDays:    input.FutureDays,
		Profile:       p,
		Weights:       input.Weights,
		RecencyWeight: input.RecencyWeight,
	})
	if err != nil {
		return errorResult(err), nil
	}
	if input.Limit > 0 && len(result.Events) > input.Limit {
		result.Events = result.Events[:input.Limit]
	}

	return successResult(result)
}

// HandleEventsExport handles the events_export tool call.
func (h *Handlers) HandleEventsExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EventsExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.ExportEvents(ctx, h.deps, ops.ExportEventsInput{
		Path:       input.Path,
		FutureDays: input.FutureDays,
		Ranked:     input.Ranked,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleMajorsList handles the majors_list tool call.
func (h *Handlers) HandleMajorsList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(ops.ListMajors(h.deps))
}

// HandleCacheStats handles the cache_stats tool call.
func (h *Handlers) HandleCacheStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.CacheStats(ctx, h.deps)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleCachePurge handles the cache_purge tool call.
func (h *Handlers) HandleCachePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CachePurgeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if !input.Confirm {
		return errorResult(errors.NewInvalidRequest("confirm must be true")), nil
	}

	result, err := ops.PurgeCache(ctx, h.deps)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if appErr, ok := errors.As(err); ok {
		errorObj := map[string]any{
			"code":    appErr.Code,
			"message": appErr.Message,
			"status":  appErr.Status,
		}
		if appErr.Code != errors.ErrInternal && appErr.Details != nil {
			errorObj["details"] = appErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
