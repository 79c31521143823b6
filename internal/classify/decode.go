package classify

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/hpungsan/eventrank/internal/errors"
)

var (
	fenceOpen  = regexp.MustCompile("(?i)```json\\r?\\n?")
	fenceClose = regexp.MustCompile("```\\r?\\n?")
)

// DecodeResponse turns the model's free text into a Classification.
//
// Code fences are stripped and the outermost {...} span is parsed. When strict
// parsing fails the span is run through jsonrepair once before giving up.
// Non-array list fields become empty; year ratings that are missing or not
// numbers become DefaultYearScore and present ones are rounded and clamped to
// [0,10].
func DecodeResponse(text string) (Classification, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = fenceOpen.ReplaceAllString(cleaned, "")
	cleaned = fenceClose.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.IndexByte(cleaned, '{')
	end := strings.LastIndexByte(cleaned, '}')
	if start < 0 || end < start {
		return Classification{}, errors.NewParse("classification response", nil)
	}
	candidate := cleaned[start : end+1]

	var parsed map[string]any
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(candidate)
		if repairErr != nil {
			return Classification{}, errors.NewParse("classification response", err)
		}
		parsed = nil
		if err := json.Unmarshal([]byte(repaired), &parsed); err != nil {
			return Classification{}, errors.NewParse("classification response", err)
		}
	}
	if parsed == nil {
		return Classification{}, errors.NewParse("classification response", nil)
	}

	years, _ := parsed["yearRelevance"].(map[string]any)
	return Classification{
		RelevantMajors:    stringList(parsed["relevantMajors"]),
		RelevantInterests: stringList(parsed["relevantInterests"]),
		EnhancedTags:      stringList(parsed["enhancedTags"]),
		YearRelevance: YearRelevance{
			Freshman:  yearScore(years, "freshman"),
			Sophomore: yearScore(years, "sophomore"),
			Junior:    yearScore(years, "junior"),
			Senior:    yearScore(years, "senior"),
			Graduate:  yearScore(years, "graduate"),
		},
		Source: SourceAI,
	}, nil
}

// stringList keeps the non-empty string elements of an array value.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func yearScore(years map[string]any, key string) int {
	n, ok := years[key].(float64)
	if !ok || math.IsNaN(n) {
		return DefaultYearScore
	}
	n = math.Round(n)
	switch {
	case n < 0:
		return 0
	case n > 10:
		return 10
	}
	return int(n)
}
