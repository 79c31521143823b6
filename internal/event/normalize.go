package event

import (
	"strconv"
	"strings"
	"time"
)

// Normalize maps one upstream record into the canonical Event. It is a pure
// function of its inputs; index and hint are used only to synthesize an id
// when the record carries neither id nor guid, which keeps ids unique
// within a batch without global state.
func Normalize(raw RawEvent, index int, hint time.Time) Event {
	ev := Event{
		ID:          syntheticID(raw, index, hint),
		Title:       string(raw.Summary),
		Summary:     string(raw.Summary),
		Description: string(raw.Description),
		Link:        string(raw.Link),
	}
	if ev.Title == "" {
		ev.Title = DefaultTitle
	}

	if raw.Start != nil {
		ev.StartTimestamp = DecodeCompact(string(raw.Start.UTCDate))
	}
	if raw.End != nil {
		ev.EndTimestamp = DecodeCompact(string(raw.End.UTCDate))
	}

	ev.Sponsor = sponsorOf(raw)
	ev.Organization = ev.Sponsor

	if raw.Location != nil {
		ev.Location = Location{
			Address: string(raw.Location.Address),
			Link:    string(raw.Location.Link),
		}
	}
	if raw.Contact != nil {
		ev.Contact = Contact{
			Name:  string(raw.Contact.Name),
			Email: string(raw.Contact.Email),
		}
	}
	if raw.XProperties != nil {
		ev.Image = raw.XProperties.Image.Text()
	}

	ev.Categories = make([]string, 0, len(raw.Categories))
	ev.Categories = append(ev.Categories, raw.Categories...)
	ev.Tags = DeriveTags(ev.Categories, ev.Location.Address, ev.Sponsor)
	ev.Category = DisplayCategory(ev.Categories)
	ev.RegistrationURL = ev.Link

	return ev
}

// NormalizeAll normalizes a whole feed in order using a single time hint.
func NormalizeAll(raws []RawEvent, hint time.Time) []Event {
	events := make([]Event, 0, len(raws))
	for i, raw := range raws {
		events = append(events, Normalize(raw, i, hint))
	}
	return events
}

// CountValid returns how many events carry a valid start timestamp.
func CountValid(events []Event) int {
	n := 0
	for _, ev := range events {
		if ev.HasValidStart() {
			n++
		}
	}
	return n
}

// DisplayCategory buckets an event by its first category.
func DisplayCategory(categories []string) string {
	if len(categories) == 0 {
		return "General"
	}
	first := strings.ToLower(categories[0])
	switch {
	case containsAny(first, "lecture", "academic", "seminar"):
		return "Academic"
	case containsAny(first, "sport", "athletic"):
		return "Sports"
	case containsAny(first, "arts", "music", "theater"):
		return "Arts"
	case containsAny(first, "social", "student"):
		return "Social"
	case containsAny(first, "career", "professional"):
		return "Professional"
	default:
		return "General"
	}
}

func syntheticID(raw RawEvent, index int, hint time.Time) string {
	if raw.ID != "" {
		return string(raw.ID)
	}
	if raw.GUID != "" {
		return string(raw.GUID)
	}
	return "json-" + strconv.Itoa(index) + "-" + strconv.FormatInt(hint.UnixMilli(), 10)
}

func sponsorOf(raw RawEvent) string {
	if raw.XProperties != nil {
		if s := raw.XProperties.Sponsor.Text(); s != "" {
			return s
		}
	}
	if raw.Sponsor != "" {
		return string(raw.Sponsor)
	}
	return DefaultOrganization
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
