package classify

import (
	"regexp"
	"strings"

	"github.com/hpungsan/eventrank/internal/event"
)

type keywordRule struct {
	pattern  *regexp.Regexp
	major    string
	interest string
	tags     []string
}

// Rules are evaluated in order; majors keep detection order.
var majorRules = []keywordRule{
	{regexp.MustCompile(`(?i)(computer|software|coding|programming|tech|cs|algorithm)`), "Computer Science", "tech", []string{"technology"}},
	{regexp.MustCompile(`(?i)(engineering|mechanical|electrical|civil)`), "Engineering", "tech", nil},
	{regexp.MustCompile(`(?i)(biology|bio|life science|genetics|ecology)`), "Biology", "academic", nil},
	{regexp.MustCompile(`(?i)(economics|economy|financial|business|market)`), "Economics", "professional", nil},
	{regexp.MustCompile(`(?i)(psychology|mental health|behavior|cognitive)`), "Psychology", "wellness", nil},
	{regexp.MustCompile(`(?i)(math|statistics|calculus|algebra)`), "Mathematics", "academic", nil},
}

var interestRules = []keywordRule{
	{regexp.MustCompile(`(?i)(career|job|internship|resume|interview|recruiting)`), "", "professional", []string{"career", "professional development"}},
	{regexp.MustCompile(`(?i)(sport|basketball|soccer|football|athletic|game)`), "", "sports", []string{"athletics"}},
	{regexp.MustCompile(`(?i)(art|music|theater|dance|gallery|museum|culture)`), "", "arts", []string{"culture"}},
	{regexp.MustCompile(`(?i)(party|social|mixer|networking|meet)`), "", "social", []string{"networking"}},
	{regexp.MustCompile(`(?i)(volunteer|service|community|charity|outreach)`), "", "service", []string{"volunteering"}},
	{regexp.MustCompile(`(?i)(seminar|lecture|research|academic|study|symposium)`), "", "academic", []string{"educational"}},
	{regexp.MustCompile(`(?i)(wellness|health|fitness|yoga|meditation|mental)`), "", "wellness", []string{"well-being"}},
}

var (
	careerYears      = regexp.MustCompile(`(?i)(career|job|recruiting)`)
	orientationYears = regexp.MustCompile(`(?i)(welcome|orientation|intro|101)`)
	researchYears    = regexp.MustCompile(`(?i)(research|graduate|phd|dissertation|thesis)`)
)

// Heuristic classifies ev from keywords in its title and description.
// It is deterministic and always returns a complete classification.
func Heuristic(ev event.Event) Classification {
	text := strings.ToLower(ev.Title) + " " + strings.ToLower(ev.Description)

	majors := []string{}
	var interests, tags []string

	for _, r := range majorRules {
		if r.pattern.MatchString(text) {
			majors = append(majors, r.major)
			interests = append(interests, r.interest)
			tags = append(tags, r.tags...)
		}
	}
	for _, r := range interestRules {
		if r.pattern.MatchString(text) {
			interests = append(interests, r.interest)
			tags = append(tags, r.tags...)
		}
	}

	years := YearRelevance{Freshman: 7, Sophomore: 7, Junior: 7, Senior: 7, Graduate: 5}
	if careerYears.MatchString(text) {
		years.Junior = 9
		years.Senior = 10
		years.Freshman = 4
		years.Sophomore = 6
	}
	if orientationYears.MatchString(text) {
		years.Freshman = 10
		years.Sophomore = 6
	}
	if researchYears.MatchString(text) {
		years.Graduate = 10
		years.Senior = 7
	}

	return Classification{
		RelevantMajors:    majors,
		RelevantInterests: dedupe(interests),
		EnhancedTags:      dedupe(tags),
		YearRelevance:     years,
		Source:            SourceHeuristic,
	}
}

// dedupe keeps the first occurrence of each value.
func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
