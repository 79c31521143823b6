package event

import (
	"regexp"
	"strings"
)

// MaxTags caps the derived tag list.
const MaxTags = 5

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	nonSlugRegex    = regexp.MustCompile(`[^\w-]`)
)

// venueTags maps a case-insensitive address keyword to its canonical tag.
// Order is significant: matches are appended in this order.
var venueTags = []struct {
	keyword string
	tag     string
}{
	{"cameron", "cameron-indoor"},
	{"chapel", "duke-chapel"},
	{"perkins", "perkins-library"},
	{"fitzpatrick", "fitzpatrick-center"},
}

// DeriveTags builds the tag list for an event: one slug per category (in
// category order), then venue tags found in the address, then the sponsor
// slug. The result is truncated to MaxTags.
func DeriveTags(categories []string, address, sponsor string) []string {
	tags := make([]string, 0, len(categories)+len(venueTags)+1)

	for _, cat := range categories {
		tags = append(tags, whitespaceRegex.ReplaceAllString(strings.ToLower(cat), "-"))
	}

	if address != "" {
		addr := strings.ToLower(address)
		for _, v := range venueTags {
			if strings.Contains(addr, v.keyword) {
				tags = append(tags, v.tag)
			}
		}
	}

	if sponsor != "" {
		if slug := SponsorSlug(sponsor); slug != "" {
			tags = append(tags, slug)
		}
	}

	if len(tags) > MaxTags {
		tags = tags[:MaxTags]
	}
	return tags
}

// SponsorSlug lowercases s, replaces whitespace runs with hyphens and strips
// everything that is not a word character or hyphen.
func SponsorSlug(s string) string {
	s = whitespaceRegex.ReplaceAllString(strings.ToLower(s), "-")
	return nonSlugRegex.ReplaceAllString(s, "")
}
