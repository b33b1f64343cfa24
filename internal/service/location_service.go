package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jengzang/dwell-backend-go/internal/models"
	"github.com/jengzang/dwell-backend-go/internal/publisher"
	"github.com/jengzang/dwell-backend-go/internal/repository"
	"github.com/jengzang/dwell-backend-go/internal/spatial"
	"github.com/jengzang/dwell-backend-go/internal/tracker"
)

// LocationService serializes access to a single tracker and forwards zone
// transitions to a publisher
type LocationService struct {
	mu        sync.Mutex
	tracker   *tracker.Tracker
	publisher publisher.TransitionPublisher
	logger    *slog.Logger

	pending []models.Transition // filled by the tracker hook while mu is held
}

// NewLocationService creates a location service. A nil publisher discards events.
func NewLocationService(ctx context.Context, store repository.Store, pub publisher.TransitionPublisher, logger *slog.Logger, opts ...tracker.Option) *LocationService {
	if pub == nil {
		pub = publisher.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &LocationService{publisher: pub, logger: logger}
	opts = append([]tracker.Option{tracker.WithLogger(logger)}, opts...)
	opts = append(opts, tracker.WithTransitionHook(func(tr models.Transition) {
		s.pending = append(s.pending, tr)
	}))
	s.tracker = tracker.New(ctx, store, opts...)
	return s
}

// RecordSample validates and records one location fix. A zero ts means now.
func (s *LocationService) RecordSample(ctx context.Context, lat, lon float64, ts time.Time) error {
	if err := spatial.ValidateCoordinate(lat, lon); err != nil {
		return fmt.Errorf("sample (%v, %v): %w", lat, lon, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tracker.RecordSample(ctx, lat, lon, ts)

	for _, tr := range s.pending {
		s.logger.Info("zone transition",
			"from", models.ZoneName(tr.From),
			"to", models.ZoneName(tr.To),
			"at", tr.At)
		if err := s.publisher.PublishTransition(ctx, tr); err != nil {
			s.logger.Warn("publish transition failed", "error", err)
		}
	}
	s.pending = s.pending[:0]
	return nil
}

// Status returns the live tracker state
func (s *LocationService) Status() models.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.CurrentStatus()
}

// History returns closed segments matching q
func (s *LocationService) History(q models.HistoryQuery) []models.Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.History(q)
}

// TimeShare aggregates dwell time per zone over window. A zero window
// covers the full retention period.
func (s *LocationService) TimeShare(window time.Duration) []models.ZoneShare {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.TimeShare(window)
}

// RetentionDays returns how many days of history are kept
func (s *LocationService) RetentionDays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.RetentionDays()
}

func (s *LocationService) AddZone(ctx context.Context, zone models.Zone) error {
	if err := spatial.ValidateCoordinate(zone.Latitude, zone.Longitude); err != nil {
		return fmt.Errorf("zone %q: %w", zone.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.tracker.AddZone(ctx, zone); err != nil {
		return err
	}
	s.logger.Info("zone added", "name", zone.Name, "radius", zone.Radius)
	return nil
}

func (s *LocationService) RemoveZone(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.tracker.RemoveZone(ctx, name); err != nil {
		return err
	}
	s.logger.Info("zone removed", "name", name)
	return nil
}

func (s *LocationService) ListZones() []models.Zone {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.ListZones()
}

// ClosestZones returns up to k zones ordered by distance from the point
func (s *LocationService) ClosestZones(lat, lon float64, k int) ([]models.Zone, error) {
	if err := spatial.ValidateCoordinate(lat, lon); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.ClosestZones(lat, lon, k), nil
}
