// Package memory is an in-process Store used when no database is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jengzang/dwell-backend-go/internal/models"
	"github.com/jengzang/dwell-backend-go/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// Store keeps everything in maps; contents are lost on exit
type Store struct {
	mu       sync.RWMutex
	zones    map[string]models.Zone
	segments map[string]models.Segment
	state    *models.TrackerState
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		zones:    make(map[string]models.Zone),
		segments: make(map[string]models.Segment),
	}
}

// SaveZone inserts or replaces a zone by name
func (s *Store) SaveZone(_ context.Context, zone models.Zone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones[zone.Name] = zone
	return nil
}

// FindZones returns all zones ordered by name
func (s *Store) FindZones(_ context.Context) ([]models.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	zones := make([]models.Zone, 0, len(s.zones))
	for _, z := range s.zones {
		zones = append(zones, z)
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].Name < zones[j].Name })
	return zones, nil
}

// DeleteZone removes a zone by name
func (s *Store) DeleteZone(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.zones[name]; !ok {
		return repository.ErrNotFound
	}
	delete(s.zones, name)
	return nil
}

// SaveSegment inserts or replaces a segment by ID
func (s *Store) SaveSegment(_ context.Context, segment models.Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	segment.Zone = copyZone(segment.Zone)
	s.segments[segment.ID] = segment
	return nil
}

// FindSegments returns all segments ordered by entry time
func (s *Store) FindSegments(_ context.Context) ([]models.Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	segments := make([]models.Segment, 0, len(s.segments))
	for _, seg := range s.segments {
		seg.Zone = copyZone(seg.Zone)
		segments = append(segments, seg)
	}
	sort.Slice(segments, func(i, j int) bool {
		if segments[i].Entered.Equal(segments[j].Entered) {
			return segments[i].ID < segments[j].ID
		}
		return segments[i].Entered.Before(segments[j].Entered)
	})
	return segments, nil
}

// DeleteSegment removes a segment by ID
func (s *Store) DeleteSegment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.segments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.segments, id)
	return nil
}

// SaveState replaces the tracker state
func (s *Store) SaveState(_ context.Context, state models.TrackerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = copyState(&state)
	return nil
}

// LoadState returns the last saved tracker state
func (s *Store) LoadState(_ context.Context) (*models.TrackerState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyState(s.state), nil
}

func copyZone(z *models.Zone) *models.Zone {
	if z == nil {
		return nil
	}
	cp := *z
	return &cp
}

func copyState(st *models.TrackerState) *models.TrackerState {
	if st == nil {
		return nil
	}
	cp := *st
	if st.LastCoordinate != nil {
		c := *st.LastCoordinate
		cp.LastCoordinate = &c
	}
	if st.Current != nil {
		seg := *st.Current
		seg.Zone = copyZone(seg.Zone)
		cp.Current = &seg
	}
	return &cp
}
