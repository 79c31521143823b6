// Package classify attaches personalization metadata (majors, interests,
// tags and per-year relevance) to events, using a generative model when one
// is configured and a keyword heuristic otherwise.
package classify

import "strings"

// Source records which path produced a classification.
type Source string

const (
	SourceAI        Source = "ai"
	SourceHeuristic Source = "heuristic"
)

// DefaultYearScore is used for any year the classifier did not rate.
const DefaultYearScore = 5

// YearRelevance rates an event 0-10 for each class year.
type YearRelevance struct {
	Freshman  int `json:"freshman"`
	Sophomore int `json:"sophomore"`
	Junior    int `json:"junior"`
	Senior    int `json:"senior"`
	Graduate  int `json:"graduate"`
}

// For returns the rating for a year name, case-insensitively.
// ok is false for unrecognized years.
func (y YearRelevance) For(year string) (score int, ok bool) {
	switch strings.ToLower(strings.TrimSpace(year)) {
	case "freshman":
		return y.Freshman, true
	case "sophomore":
		return y.Sophomore, true
	case "junior":
		return y.Junior, true
	case "senior":
		return y.Senior, true
	case "graduate":
		return y.Graduate, true
	}
	return 0, false
}

// Classification is the metadata attached to one event.
type Classification struct {
	RelevantMajors    []string      `json:"relevantMajors"`
	RelevantInterests []string      `json:"relevantInterests"`
	EnhancedTags      []string      `json:"enhancedTags"`
	YearRelevance     YearRelevance `json:"yearRelevance"`
	Source            Source        `json:"source,omitempty"`
}

// Normalized replaces nil slices with empty ones so the JSON form never
// carries null arrays.
func (c Classification) Normalized() Classification {
	if c.RelevantMajors == nil {
		c.RelevantMajors = []string{}
	}
	if c.RelevantInterests == nil {
		c.RelevantInterests = []string{}
	}
	if c.EnhancedTags == nil {
		c.EnhancedTags = []string{}
	}
	return c
}
