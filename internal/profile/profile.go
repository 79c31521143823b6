// Package profile holds the user attributes that drive ranking.
package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hpungsan/eventrank/internal/db"
	"github.com/hpungsan/eventrank/internal/errors"
)

// Years are the recognized class years.
var Years = []string{"Freshman", "Sophomore", "Junior", "Senior", "Graduate"}

// Interests are the recognized interest ids.
var Interests = []string{"academic", "sports", "arts", "social", "professional", "service", "wellness", "tech"}

// Profile is a user's ranking preferences.
type Profile struct {
	Year      string   `json:"year"`
	Major     string   `json:"major"`
	Interests []string `json:"interests"`

	SetupComplete bool       `json:"setupComplete,omitempty"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
}

// IsZero reports whether p carries no preferences at all.
func (p Profile) IsZero() bool {
	return strings.TrimSpace(p.Year) == "" && strings.TrimSpace(p.Major) == "" && len(p.Interests) == 0
}

// Validate checks that year and major are set, the year is recognized, and
// there is at least one recognized interest.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Year) == "" {
		return errors.NewInvalidRequest("year is required")
	}
	if CanonicalYear(p.Year) == "" {
		return errors.NewInvalidRequest(fmt.Sprintf("unknown year %q (want one of %s)", p.Year, strings.Join(Years, ", ")))
	}
	if strings.TrimSpace(p.Major) == "" {
		return errors.NewInvalidRequest("major is required")
	}
	if len(p.Interests) == 0 {
		return errors.NewInvalidRequest("at least one interest is required")
	}
	for _, interest := range p.Interests {
		if !slices.Contains(Interests, interest) {
			return errors.NewInvalidRequest(fmt.Sprintf("unknown interest %q (want any of %s)", interest, strings.Join(Interests, ", ")))
		}
	}
	return nil
}

// CanonicalYear returns the recognized spelling of year, or "".
func CanonicalYear(year string) string {
	for _, y := range Years {
		if strings.EqualFold(y, strings.TrimSpace(year)) {
			return y
		}
	}
	return ""
}

// Load reads the saved profile. ok is false when none has been saved.
func Load(ctx context.Context, database *sql.DB) (Profile, bool, error) {
	raw, ok, err := db.Get(ctx, database, db.KeyPreferences)
	if err != nil || !ok {
		return Profile{}, false, err
	}
	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Profile{}, false, errors.NewParse("saved profile", err)
	}
	if p.Interests == nil {
		p.Interests = []string{}
	}
	return p, true, nil
}

// Save validates p and stores it, marking setup complete.
func Save(ctx context.Context, database *sql.DB, p Profile) (Profile, error) {
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	p.Year = CanonicalYear(p.Year)
	p.SetupComplete = true
	if p.CreatedAt == nil {
		now := time.Now().UTC().Truncate(time.Second)
		p.CreatedAt = &now
	}
	data, err := json.Marshal(p)
	if err != nil {
		return Profile{}, errors.NewInternal(err)
	}
	if err := db.Put(ctx, database, db.KeyPreferences, string(data)); err != nil {
		return Profile{}, err
	}
	return p, nil
}
