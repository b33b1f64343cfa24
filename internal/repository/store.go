package repository

import (
	"context"
	"errors"

	"github.com/jengzang/dwell-backend-go/internal/models"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// Store persists zones, closed segments and the live tracker state
type Store interface {
	SaveZone(ctx context.Context, zone models.Zone) error
	FindZones(ctx context.Context) ([]models.Zone, error)
	DeleteZone(ctx context.Context, name string) error

	SaveSegment(ctx context.Context, segment models.Segment) error
	FindSegments(ctx context.Context) ([]models.Segment, error)
	DeleteSegment(ctx context.Context, id string) error

	SaveState(ctx context.Context, state models.TrackerState) error
	// LoadState returns nil, nil when no state was saved yet
	LoadState(ctx context.Context) (*models.TrackerState, error)
}
