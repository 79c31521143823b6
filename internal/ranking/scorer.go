// Package ranking scores events against a user profile and orders them,
// either locally from classifications or through a remote ranking service.
package ranking

import (
	"strings"
	"time"

	"github.com/hpungsan/eventrank/internal/classify"
	"github.com/hpungsan/eventrank/internal/event"
	"github.com/hpungsan/eventrank/internal/profile"
)

// Point values.
const (
	InterestPoints   = 10
	MajorPoints      = 15
	TagPoints        = 5
	SoonPoints       = 5 // event 0..3 days out
	ThisWeekPoints   = 2 // event 4..7 days out
	MaxScore         = 100
	defaultYearScore = classify.DefaultYearScore
)

// Breakdown itemizes a local score.
type Breakdown struct {
	Interests int `json:"interests"`
	Major     int `json:"major"`
	Year      int `json:"year"`
	Tags      int `json:"tags"`
	Recency   int `json:"recency"`

	// DaysUntil is nil when the event has no start.
	DaysUntil *int `json:"daysUntil"`

	Source  classify.Source `json:"source,omitempty"`
	Weights *Weights        `json:"weights,omitempty"`
}

// Result is a local score and its breakdown.
type Result struct {
	Score   int
	Details Breakdown
}

// Scorer computes additive relevance scores. Days are counted between local
// midnights in Location (time.Local when nil).
type Scorer struct {
	Location *time.Location
}

// Score rates ev for p. The result is in [0, 100] and depends only on its inputs.
func (s Scorer) Score(ev event.Event, c classify.Classification, p profile.Profile, now time.Time) Result {
	var d Breakdown

	for _, interest := range c.RelevantInterests {
		if containsString(p.Interests, interest) {
			d.Interests += InterestPoints
		}
	}

	if p.Major != "" && containsString(c.RelevantMajors, p.Major) {
		d.Major = MajorPoints
	}

	if y, ok := c.YearRelevance.For(p.Year); ok {
		d.Year = y
	} else {
		d.Year = defaultYearScore
	}

	allTags := make([]string, 0, len(ev.Tags)+len(c.EnhancedTags))
	allTags = append(allTags, ev.Tags...)
	allTags = append(allTags, c.EnhancedTags...)
	for _, tag := range allTags {
		if tagMatchesInterest(tag, p.Interests) {
			d.Tags += TagPoints
		}
	}

	if start, ok := ev.Start(); ok {
		days := s.daysUntil(start, now)
		d.DaysUntil = &days
		switch {
		case days >= 0 && days <= 3:
			d.Recency = SoonPoints
		case days > 3 && days <= 7:
			d.Recency = ThisWeekPoints
		}
	}

	d.Source = c.Source
	total := d.Interests + d.Major + d.Year + d.Tags + d.Recency
	return Result{Score: min(max(total, 0), MaxScore), Details: d}
}

// daysUntil counts calendar days from now's local date to start's local date.
func (s Scorer) daysUntil(start, now time.Time) int {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	sy, sm, sd := start.In(loc).Date()
	ny, nm, nd := now.In(loc).Date()
	startDay := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(startDay.Sub(today).Hours() / 24)
}

// tagMatchesInterest reports whether tag contains, or is contained by, any
// interest, ignoring case. Empty tags never match.
func tagMatchesInterest(tag string, interests []string) bool {
	tag = strings.ToLower(tag)
	if tag == "" {
		return false
	}
	for _, interest := range interests {
		interest = strings.ToLower(interest)
		if interest == "" {
			continue
		}
		if strings.Contains(tag, interest) || strings.Contains(interest, tag) {
			return true
		}
	}
	return false
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
