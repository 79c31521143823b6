package ops

import (
	"context"

	"github.com/hpungsan/eventrank/internal/event"
)

// ListEventsInput contains parameters for the ListEvents operation.
type ListEventsInput struct {
	FutureDays int // default: 30, max: 365
}

// ListEventsOutput contains the result of the ListEvents operation.
type ListEventsOutput struct {
	Events     []event.Event `json:"events"`
	FutureDays int           `json:"future_days"`
	Valid      int           `json:"valid"`
}

// ListEvents fetches and normalizes upcoming events. Events without a valid
// start are included; Valid counts only those that have one.
func ListEvents(ctx context.Context, d *Deps, input ListEventsInput) (*ListEventsOutput, error) {
	days, err := d.futureDays(input.FutureDays)
	if err != nil {
		return nil, err
	}

	events, err := d.Feed.Events(ctx, days)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []event.Event{}
	}

	return &ListEventsOutput{
		Events:     events,
		FutureDays: days,
		Valid:      event.CountValid(events),
	}, nil
}
