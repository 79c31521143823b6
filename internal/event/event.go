package event

import "time"

// DefaultOrganization is used when the upstream record names no sponsor.
const DefaultOrganization = "Duke University"

// DefaultTitle is used when the upstream record has no summary.
const DefaultTitle = "Untitled Event"

// Location is where an event takes place.
type Location struct {
	Address string `json:"address"`
	Link    string `json:"link"`
}

// Contact is the organizer contact attached to an event.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Event is the canonical, fully defaulted event record. Every field is
// populated: strings default to "" (or the documented default), slices are
// never nil, and timestamps are nil only when the upstream date is absent or
// unparseable.
type Event struct {
	// ID is unique within a fetch; never empty
	ID string `json:"id"`

	// Title is the upstream summary, or DefaultTitle
	Title string `json:"title"`

	// Summary is the raw upstream summary ("" when absent)
	Summary string `json:"summary"`

	Description string `json:"description"`

	// StartTimestamp and EndTimestamp are Unix seconds (UTC)
	StartTimestamp *int64 `json:"startTimestamp"`
	EndTimestamp   *int64 `json:"endTimestamp"`

	Sponsor      string `json:"sponsor"`
	Organization string `json:"organization"`

	Location Location `json:"location"`
	Contact  Contact  `json:"contact"`

	// Categories preserve upstream order
	Categories []string `json:"categories"`

	// Tags are derived by DeriveTags (at most MaxTags)
	Tags []string `json:"tags"`

	// Category is a coarse display bucket derived from the first category
	Category string `json:"category"`

	Link            string `json:"link"`
	RegistrationURL string `json:"registrationUrl"`
	Image           string `json:"image"`
}

// Start returns the event start as a time.Time. ok is false when the
// event has no valid start timestamp.
func (e Event) Start() (t time.Time, ok bool) {
	if e.StartTimestamp == nil {
		return time.Time{}, false
	}
	return time.Unix(*e.StartTimestamp, 0), true
}

// HasValidStart reports whether the event carries a parseable start date.
func (e Event) HasValidStart() bool {
	return e.StartTimestamp != nil
}
