// Package publisher defines the outbound channel for zone transition events.
package publisher

import (
	"context"
	"time"

	"github.com/jengzang/dwell-backend-go/internal/models"
)

// Event types emitted for each side of a transition
const (
	EventZoneExit  = "zone_exit"
	EventZoneEnter = "zone_enter"
)

// TransitionPublisher delivers zone transitions to downstream consumers
type TransitionPublisher interface {
	PublishTransition(ctx context.Context, tr models.Transition) error
}

// Event is the wire form of one side of a transition
type Event struct {
	Event     string    `json:"event"`
	Zone      string    `json:"zone"`
	At        time.Time `json:"at"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}

// Events splits a transition into an exit event for the zone left and an
// enter event for the zone entered. Undefined sides produce no event.
func Events(tr models.Transition) []Event {
	var events []Event
	if tr.From != nil {
		events = append(events, Event{
			Event: EventZoneExit, Zone: tr.From.Name, At: tr.At,
			Latitude: tr.Latitude, Longitude: tr.Longitude,
		})
	}
	if tr.To != nil {
		events = append(events, Event{
			Event: EventZoneEnter, Zone: tr.To.Name, At: tr.At,
			Latitude: tr.Latitude, Longitude: tr.Longitude,
		})
	}
	return events
}

// Noop discards transitions
type Noop struct{}

func (Noop) PublishTransition(context.Context, models.Transition) error { return nil }
