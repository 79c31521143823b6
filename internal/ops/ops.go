package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/eventrank/internal/cache"
	"github.com/hpungsan/eventrank/internal/errors"
	"github.com/hpungsan/eventrank/internal/event"
	"github.com/hpungsan/eventrank/internal/logging"
	"github.com/hpungsan/eventrank/internal/majors"
	"github.com/hpungsan/eventrank/internal/ranking"
)

// Look-ahead limits for feed requests.
const (
	DefaultFutureDays = 30
	MaxFutureDays     = 365
)

// EventSource supplies normalized events.
type EventSource interface {
	Events(ctx context.Context, futureDays int) ([]event.Event, error)
}

// Deps are the collaborators operations run against. One Deps value is built
// per process and shared by the HTTP, MCP, and CLI surfaces.
type Deps struct {
	DB     *sql.DB
	Feed   EventSource
	Ranker *ranking.Ranker
	Cache  *cache.Cache
	Majors majors.Catalog
	Logger *zap.Logger

	// DefaultFutureDays replaces a zero FutureDays (DefaultFutureDays when 0).
	DefaultFutureDays int

	// ExportsDir is where ExportEvents writes. Empty disables exports.
	ExportsDir string
}

func (d *Deps) logger() *zap.Logger {
	return logging.OrNop(d.Logger)
}

// futureDays applies defaults and bounds to a requested look-ahead.
func (d *Deps) futureDays(requested int) (int, error) {
	if requested < 0 || requested > MaxFutureDays {
		return 0, errors.NewInvalidRequest("future_days must be between 0 and 365")
	}
	if requested == 0 {
		if d.DefaultFutureDays > 0 {
			return d.DefaultFutureDays, nil
		}
		return DefaultFutureDays, nil
	}
	return requested, nil
}

// NewRunID returns a new ULID for tagging a ranking run.
func NewRunID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
