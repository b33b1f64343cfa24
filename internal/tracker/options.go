package tracker

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jengzang/dwell-backend-go/internal/models"
	"github.com/jengzang/dwell-backend-go/internal/spatial"
)

// DefaultRetentionDays is how many days of history are kept by default
const DefaultRetentionDays = 7

// Option configures a Tracker
type Option func(*Tracker)

// WithRetentionDays bounds how much history is kept. Values below 1 are ignored.
func WithRetentionDays(days int) Option {
	return func(t *Tracker) {
		if days > 0 {
			t.retentionDays = days
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLogger sets the logger used for absorbed storage errors
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithTransitionHook registers a callback invoked after a segment closes
func WithTransitionHook(hook func(models.Transition)) Option {
	return func(t *Tracker) {
		t.onTransition = hook
	}
}

// WithIDGenerator overrides segment ID generation
func WithIDGenerator(gen func() string) Option {
	return func(t *Tracker) {
		if gen != nil {
			t.newID = gen
		}
	}
}

func defaultID() string {
	return uuid.NewString()
}

// WithDistance replaces the geodesic distance used for resolution and speed
func WithDistance(distance spatial.DistanceFunc) Option {
	return func(t *Tracker) {
		if distance != nil {
			t.distance = distance
		}
	}
}
