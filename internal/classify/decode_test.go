package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/eventrank/internal/errors"
)

func TestDecodeResponse_WellFormed(t *testing.T) {
	text := `{
  "relevantMajors": ["Computer Science", "Mathematics"],
  "relevantInterests": ["tech", "academic"],
  "enhancedTags": ["ai", "machine learning"],
  "yearRelevance": {"freshman": 3, "sophomore": 5, "junior": 8, "senior": 9, "graduate": 10}
}`
	got, err := DecodeResponse(text)
	require.NoError(t, err)

	assert.Equal(t, []string{"Computer Science", "Mathematics"}, got.RelevantMajors)
	assert.Equal(t, []string{"tech", "academic"}, got.RelevantInterests)
	assert.Equal(t, []string{"ai", "machine learning"}, got.EnhancedTags)
	assert.Equal(t, YearRelevance{Freshman: 3, Sophomore: 5, Junior: 8, Senior: 9, Graduate: 10}, got.YearRelevance)
	assert.Equal(t, SourceAI, got.Source)
}

func TestDecodeResponse_Matrix(t *testing.T) {
	allFive := YearRelevance{Freshman: 5, Sophomore: 5, Junior: 5, Senior: 5, Graduate: 5}

	tests := []struct {
		name      string
		text      string
		wantMaj   []string
		wantInt   []string
		wantTags  []string
		wantYears YearRelevance
	}{
		{
			name:      "json fence",
			text:      "```json\n{\"relevantMajors\":[\"Biology\"]}\n```",
			wantMaj:   []string{"Biology"},
			wantInt:   []string{},
			wantTags:  []string{},
			wantYears: allFive,
		},
		{
			name:      "bare fence",
			text:      "```\n{\"enhancedTags\":[\"film\"]}\n```",
			wantMaj:   []string{},
			wantInt:   []string{},
			wantTags:  []string{"film"},
			wantYears: allFive,
		},
		{
			name:      "uppercase fence",
			text:      "```JSON\n{\"relevantInterests\":[\"arts\"]}```",
			wantMaj:   []string{},
			wantInt:   []string{"arts"},
			wantTags:  []string{},
			wantYears: allFive,
		},
		{
			name:      "prose around object",
			text:      "Sure! Here is the classification:\n{\"relevantMajors\":[\"History\"]}\nHope this helps.",
			wantMaj:   []string{"History"},
			wantInt:   []string{},
			wantTags:  []string{},
			wantYears: allFive,
		},
		{
			name:      "non-array fields coerce to empty",
			text:      `{"relevantMajors":"Biology","relevantInterests":{"a":1},"enhancedTags":null}`,
			wantMaj:   []string{},
			wantInt:   []string{},
			wantTags:  []string{},
			wantYears: allFive,
		},
		{
			name:      "non-string elements dropped",
			text:      `{"relevantMajors":["Biology", 3, null, "", "  Chemistry "]}`,
			wantMaj:   []string{"Biology", "Chemistry"},
			wantInt:   []string{},
			wantTags:  []string{},
			wantYears: allFive,
		},
		{
			name:      "partial year relevance",
			text:      `{"yearRelevance":{"junior":9}}`,
			wantMaj:   []string{},
			wantInt:   []string{},
			wantTags:  []string{},
			wantYears: YearRelevance{Freshman: 5, Sophomore: 5, Junior: 9, Senior: 5, Graduate: 5},
		},
		{
			name:      "year relevance not an object",
			text:      `{"yearRelevance":[1,2,3]}`,
			wantMaj:   []string{},
			wantInt:   []string{},
			wantTags:  []string{},
			wantYears: allFive,
		},
		{
			name:      "non-numeric year values default",
			text:      `{"yearRelevance":{"freshman":"high","sophomore":null,"junior":true,"senior":8,"graduate":{}}}`,
			wantMaj:   []string{},
			wantInt:   []string{},
			wantTags:  []string{},
			wantYears: YearRelevance{Freshman: 5, Sophomore: 5, Junior: 5, Senior: 8, Graduate: 5},
		},
		{
			name:      "out of range years clamp and round",
			text:      `{"yearRelevance":{"freshman":-3,"sophomore":42,"junior":7.6,"senior":0,"graduate":10}}`,
			wantMaj:   []string{},
			wantInt:   []string{},
			wantTags:  []string{},
			wantYears: YearRelevance{Freshman: 0, Sophomore: 10, Junior: 8, Senior: 0, Graduate: 10},
		},
		{
			name:      "trailing comma repaired",
			text:      `{"relevantMajors":["Economics",],"relevantInterests":["professional"],}`,
			wantMaj:   []string{"Economics"},
			wantInt:   []string{"professional"},
			wantTags:  []string{},
			wantYears: allFive,
		},
		{
			name:      "single quotes repaired",
			text:      `{'relevantMajors': ['English']}`,
			wantMaj:   []string{"English"},
			wantInt:   []string{},
			wantTags:  []string{},
			wantYears: allFive,
		},
		{
			name:      "empty object",
			text:      `{}`,
			wantMaj:   []string{},
			wantInt:   []string{},
			wantTags:  []string{},
			wantYears: allFive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeResponse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMaj, got.RelevantMajors)
			assert.Equal(t, tt.wantInt, got.RelevantInterests)
			assert.Equal(t, tt.wantTags, got.EnhancedTags)
			assert.Equal(t, tt.wantYears, got.YearRelevance)
		})
	}
}

func TestDecodeResponse_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t"},
		{"no braces", "I cannot classify this event."},
		{"closing before opening", "} nothing {"},
		{"fence only", "```json\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeResponse(tt.text)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrParse), "error = %v, want PARSE_ERROR", err)
		})
	}
}
