package mcp

import "github.com/mark3labs/mcp-go/mcp"

var eventsListToolDef = mcp.NewTool("events_list",
	mcp.WithDescription("Fetch and normalize upcoming campus events from the calendar feed."),
	mcp.WithNumber("future_days",
		mcp.Description("Look-ahead window in days (default 30, max 365)"),
		mcp.Min(0), mcp.Max(365),
	),
	mcp.WithReadOnlyHintAnnotation(true),
)

var eventsRankToolDef = mcp.NewTool("events_rank",
	mcp.WithDescription("Rank upcoming events for a student profile. Uses the saved profile when none is given. New event classifications are written to the cache. Falls back to date order if ranking is unavailable."),
	mcp.WithNumber("future_days",
		mcp.Description("Look-ahead window in days (default 30, max 365)"),
		mcp.Min(0), mcp.Max(365),
	),
	mcp.WithObject("user_profile",
		mcp.Description("Profile with year, major and interests"),
		mcp.Properties(map[string]any{
			"year":      map[string]any{"type": "string"},
			"major":     map[string]any{"type": "string"},
			"interests": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		}),
	),
	mcp.WithObject("weights",
		mcp.Description("Explicit sub-score weights; overrides recency_weight"),
		mcp.Properties(map[string]any{
			"sim":     map[string]any{"type": "number"},
			"label":   map[string]any{"type": "number"},
			"recency": map[string]any{"type": "number"},
		}),
	),
	mcp.WithNumber("recency_weight",
		mcp.Description("Share of the score given to recency (0-1)"),
		mcp.Min(0), mcp.Max(1),
	),
	mcp.WithNumber("limit",
		mcp.Description("Return at most this many events (0 means all)"),
		mcp.Min(0),
	),
	mcp.WithReadOnlyHintAnnotation(false),
	mcp.WithDestructiveHintAnnotation(false),
	mcp.WithIdempotentHintAnnotation(true),
)

var eventsExportToolDef = mcp.NewTool("events_export",
	mcp.WithDescription("Write upcoming events to a JSONL file in the exports directory."),
	mcp.WithString("path",
		mcp.Description("File name inside the exports directory (default events-<timestamp>.jsonl)"),
	),
	mcp.WithNumber("future_days",
		mcp.Description("Look-ahead window in days (default 30, max 365)"),
		mcp.Min(0), mcp.Max(365),
	),
	mcp.WithBoolean("ranked",
		mcp.Description("Rank for the saved profile and include scores"),
	),
	mcp.WithDestructiveHintAnnotation(false),
)

var majorsListToolDef = mcp.NewTool("majors_list",
	mcp.WithDescription("List the majors a profile may select, sorted, ending with Other."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var cacheStatsToolDef = mcp.NewTool("cache_stats",
	mcp.WithDescription("Report how many event classifications are cached."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var cachePurgeToolDef = mcp.NewTool("cache_purge",
	mcp.WithDescription("Delete every cached event classification. Requires confirm=true."),
	mcp.WithBoolean("confirm",
		mcp.Required(),
		mcp.Description("Must be true"),
	),
	mcp.WithDestructiveHintAnnotation(true),
)
