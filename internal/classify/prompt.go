package classify

import (
	"fmt"
	"strings"

	"github.com/hpungsan/eventrank/internal/event"
)

// PromptMajors is the fixed major list offered to the model.
var PromptMajors = []string{
	"Computer Science", "Engineering", "Biology", "Economics", "Psychology",
	"Mathematics", "Chemistry", "Political Science", "English", "History",
	"Public Policy", "Other",
}

// PromptInterests is the fixed interest id list offered to the model.
var PromptInterests = []string{
	"academic", "sports", "arts", "social", "professional", "service", "wellness", "tech",
}

const promptTemplate = `Analyze this Duke University event and classify it. Return ONLY a valid JSON object with no markdown formatting or additional text.

Event Title: %s
Description: %s
Category: %s
Organization: %s
Existing Tags: %s

Classify this event by:
1. Which majors would find this most relevant? (Choose from: %s)
2. Which interest categories apply? (Choose from: %s)
3. What additional descriptive tags would help students find this?
4. How relevant is this for each year level? (Rate 0-10 for each: freshman, sophomore, junior, senior, graduate)

Return this exact JSON structure with no markdown:
{
  "relevantMajors": ["array of major names"],
  "relevantInterests": ["array of interest IDs"],
  "enhancedTags": ["array of descriptive tags"],
  "yearRelevance": {
    "freshman": 5,
    "sophomore": 5,
    "junior": 5,
    "senior": 5,
    "graduate": 5
  }
}`

// BuildPrompt renders the classification prompt for ev.
func BuildPrompt(ev event.Event) string {
	return fmt.Sprintf(promptTemplate,
		ev.Title,
		ev.Description,
		ev.Category,
		ev.Organization,
		strings.Join(ev.Tags, ", "),
		strings.Join(PromptMajors, ", "),
		strings.Join(PromptInterests, ", "),
	)
}
