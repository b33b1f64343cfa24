// Package conversation holds multi-step zone definitions while a user builds
// them over several chat turns. Each conversation owns its own draft.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jengzang/dwell-backend-go/internal/models"
	"github.com/jengzang/dwell-backend-go/internal/spatial"
)

// DefaultTTL is how long an untouched draft survives
const DefaultTTL = 30 * time.Minute

var (
	ErrDraftNotFound   = errors.New("no zone draft for conversation")
	ErrDraftIncomplete = errors.New("zone draft is incomplete")
	ErrInvalidInput    = errors.New("invalid draft input")
)

// Field names the next piece of information a draft is waiting for
type Field string

const (
	FieldName        Field = "name"
	FieldDescription Field = "description"
	FieldLocation    Field = "location"
	FieldRadius      Field = "radius"
	FieldNone        Field = ""
)

// Draft is a partially defined zone
type Draft struct {
	ConversationID string    `json:"conversationId"`
	Name           *string   `json:"name,omitempty"`
	Description    *string   `json:"description,omitempty"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	Radius         *float64  `json:"radius,omitempty"`
	Next           Field     `json:"next"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// DraftInput carries the fields supplied in one turn; nil fields are left alone
type DraftInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Radius      *float64 `json:"radius"`
}

func (d *Draft) next() Field {
	switch {
	case d.Name == nil:
		return FieldName
	case d.Description == nil:
		return FieldDescription
	case d.Latitude == nil || d.Longitude == nil:
		return FieldLocation
	case d.Radius == nil:
		return FieldRadius
	}
	return FieldNone
}

// Complete reports whether every field has been supplied
func (d Draft) Complete() bool {
	return d.Next == FieldNone
}

// Zone converts a complete draft into a zone
func (d Draft) Zone() (models.Zone, error) {
	if !d.Complete() {
		return models.Zone{}, fmt.Errorf("%w: missing %s", ErrDraftIncomplete, d.Next)
	}
	return models.Zone{
		Name:        *d.Name,
		Description: *d.Description,
		Latitude:    *d.Latitude,
		Longitude:   *d.Longitude,
		Radius:      *d.Radius,
	}, nil
}

// ZoneAdder receives committed drafts
type ZoneAdder interface {
	AddZone(ctx context.Context, zone models.Zone) error
}

// Drafts is a session-scoped draft container keyed by conversation id.
// It is safe for concurrent use.
type Drafts struct {
	mu     sync.Mutex
	drafts map[string]*Draft
	adder  ZoneAdder
	ttl    time.Duration
	now    func() time.Time
}

// NewDrafts creates a container. ttl <= 0 uses DefaultTTL.
func NewDrafts(adder ZoneAdder, ttl time.Duration) *Drafts {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Drafts{
		drafts: make(map[string]*Draft),
		adder:  adder,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Start opens an empty draft, discarding any previous one for id
func (s *Drafts) Start(id string) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	d := &Draft{ConversationID: id, UpdatedAt: s.now()}
	d.Next = d.next()
	s.drafts[id] = d
	return *d
}

// Update merges in into the draft for id
func (s *Drafts) Update(id string, in DraftInput) (Draft, error) {
	if err := validate(in); err != nil {
		return Draft{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	d, ok := s.drafts[id]
	if !ok {
		return Draft{}, ErrDraftNotFound
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		d.Name = &name
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		d.Description = &desc
	}
	if in.Latitude != nil {
		lat := *in.Latitude
		d.Latitude = &lat
	}
	if in.Longitude != nil {
		lon := *in.Longitude
		d.Longitude = &lon
	}
	if in.Radius != nil {
		r := *in.Radius
		d.Radius = &r
	}
	d.Next = d.next()
	d.UpdatedAt = s.now()
	return *d, nil
}

// Get returns the live draft for id
func (s *Drafts) Get(id string) (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	d, ok := s.drafts[id]
	if !ok {
		return Draft{}, false
	}
	return *d, true
}

// Commit hands a complete draft to the zone adder. The draft is dropped only
// when the adder accepts it, so the user can fix a rejected field and retry.
func (s *Drafts) Commit(ctx context.Context, id string) (models.Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	d, ok := s.drafts[id]
	if !ok {
		return models.Zone{}, ErrDraftNotFound
	}
	zone, err := d.Zone()
	if err != nil {
		return models.Zone{}, err
	}
	if err := s.adder.AddZone(ctx, zone); err != nil {
		return models.Zone{}, err
	}
	delete(s.drafts, id)
	return zone, nil
}

// Cancel drops the draft for id and reports whether one existed
func (s *Drafts) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()

	_, ok := s.drafts[id]
	delete(s.drafts, id)
	return ok
}

// Len returns the number of live drafts
func (s *Drafts) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	return len(s.drafts)
}

func (s *Drafts) sweep() {
	cutoff := s.now().Add(-s.ttl)
	for id, d := range s.drafts {
		if d.UpdatedAt.Before(cutoff) {
			delete(s.drafts, id)
		}
	}
}

func validate(in DraftInput) error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	if in.Radius != nil && !(*in.Radius > 0) {
		return fmt.Errorf("%w: radius must be positive", ErrInvalidInput)
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude go together", ErrInvalidInput)
	}
	if in.Latitude != nil {
		if err := spatial.ValidateCoordinate(*in.Latitude, *in.Longitude); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	return nil
}
