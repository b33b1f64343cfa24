// Package tracker turns a stream of location samples into dwell segments.
//
// A Tracker is not safe for concurrent use. Callers feeding it from several
// goroutines must serialize access themselves.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jengzang/dwell-backend-go/internal/geofence"
	"github.com/jengzang/dwell-backend-go/internal/models"
	"github.com/jengzang/dwell-backend-go/internal/repository"
	"github.com/jengzang/dwell-backend-go/internal/spatial"
)

// UnknownZone labels time spent outside every zone
const UnknownZone = "Unknown"

// Tracker keeps the current dwell segment, the closed history and the zone set
type Tracker struct {
	store         repository.Store
	logger        *slog.Logger
	now           func() time.Time
	newID         func() string
	distance      spatial.DistanceFunc
	onTransition  func(models.Transition)
	retentionDays int

	zones   []models.Zone
	index   *geofence.Index
	history []models.Segment // Closed segments, oldest first
	state   models.TrackerState
}

// New creates a tracker and restores zones, history and live state from store.
// Load failures are logged and leave the tracker empty.
func New(ctx context.Context, store repository.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:         store,
		logger:        slog.Default(),
		now:           time.Now,
		newID:         defaultID,
		distance:      spatial.HaversineDistance,
		retentionDays: DefaultRetentionDays,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.load(ctx)
	return t
}

func (t *Tracker) load(ctx context.Context) {
	zones, err := t.store.FindZones(ctx)
	if err != nil {
		t.logger.Warn("load zones failed, starting without zones", "error", err)
		zones = nil
	}
	t.setZones(zones)

	segments, err := t.store.FindSegments(ctx)
	if err != nil {
		t.logger.Warn("load history failed, starting with empty history", "error", err)
		segments = nil
	}
	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Entered.Before(segments[j].Entered)
	})
	for i := range segments {
		segments[i].Open = false
	}
	t.history = segments

	state, err := t.store.LoadState(ctx)
	if err != nil {
		t.logger.Warn("load tracker state failed", "error", err)
		return
	}
	if state != nil {
		t.state = *state
		if t.state.Current != nil {
			t.state.Current.Open = true
		}
	}
}

func (t *Tracker) setZones(zones []models.Zone) {
	t.zones = zones
	t.index = geofence.NewWithDistance(zones, t.distance)
}

// RetentionDays returns the configured history retention
func (t *Tracker) RetentionDays() int {
	return t.retentionDays
}

func (t *Tracker) retention() time.Duration {
	return time.Duration(t.retentionDays) * 24 * time.Hour
}

// RecordSample feeds one location fix into the tracker. A zero ts means now.
// Storage failures are logged; the in-memory state stays authoritative.
func (t *Tracker) RecordSample(ctx context.Context, lat, lon float64, ts time.Time) {
	if ts.IsZero() {
		ts = t.now()
	}

	zone := t.index.Resolve(lat, lon)
	var transition *models.Transition

	if cur := t.state.Current; cur == nil {
		t.state.Current = t.openSegment(zone, ts)
	} else {
		if last := t.state.LastCoordinate; last != nil {
			d := t.distance(last.Latitude, last.Longitude, lat, lon)
			if speed, ok := spatial.SpeedKmh(d, ts.Sub(t.state.LastSampleTime)); ok {
				t.state.SpeedKmh = speed
			}
		}

		if !models.SameZone(cur.Zone, zone) {
			// Out-of-order samples must not produce exited < entered
			at := ts
			if at.Before(cur.Entered) {
				at = cur.Entered
			}

			closed := *cur
			closed.Exited = at
			closed.Open = false
			t.saveSegment(ctx, closed)
			t.history = append(t.history, closed)
			t.state.Current = t.openSegment(zone, at)

			transition = &models.Transition{
				From:      closed.Zone,
				To:        zone,
				At:        at,
				Latitude:  lat,
				Longitude: lon,
			}
		}
	}

	t.state.LastCoordinate = &models.Coordinate{Latitude: lat, Longitude: lon}
	t.state.LastSampleTime = ts
	t.saveState(ctx)
	t.prune(ctx, ts)

	if transition != nil && t.onTransition != nil {
		t.onTransition(*transition)
	}
}

func (t *Tracker) openSegment(zone *models.Zone, at time.Time) *models.Segment {
	return &models.Segment{
		ID:      t.newID(),
		Zone:    zone,
		Entered: at,
		Exited:  at,
		Open:    true,
	}
}

func (t *Tracker) saveSegment(ctx context.Context, seg models.Segment) {
	if err := t.store.SaveSegment(ctx, seg); err != nil {
		t.logger.Error("save segment failed", "segment_id", seg.ID, "zone", models.ZoneName(seg.Zone), "error", err)
	}
}

func (t *Tracker) saveState(ctx context.Context) {
	if err := t.store.SaveState(ctx, t.state); err != nil {
		t.logger.Error("save tracker state failed", "error", err)
	}
}

// prune drops closed segments that entered before now minus the retention window
func (t *Tracker) prune(ctx context.Context, now time.Time) {
	cutoff := now.Add(-t.retention())

	kept := t.history[:0]
	for _, seg := range t.history {
		if !seg.Entered.Before(cutoff) {
			kept = append(kept, seg)
			continue
		}
		if err := t.store.DeleteSegment(ctx, seg.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			t.logger.Warn("delete expired segment failed", "segment_id", seg.ID, "error", err)
		}
	}
	// Clear the tail so dropped segments can be collected
	for i := len(kept); i < len(t.history); i++ {
		t.history[i] = models.Segment{}
	}
	t.history = kept
}

// CurrentStatus returns a snapshot of the live state
func (t *Tracker) CurrentStatus() models.Status {
	st := models.Status{SpeedKmh: t.state.SpeedKmh}
	if c := t.state.LastCoordinate; c != nil {
		coord := *c
		st.LastCoordinate = &coord
	}

	if cur := t.state.Current; cur != nil {
		st.Tracking = true
		st.Zone = copyZone(cur.Zone)
		st.Entered = cur.Entered
		st.Dwell = t.now().Sub(cur.Entered)
		if st.Dwell < 0 {
			st.Dwell = 0
		}
	}
	return st
}

// History returns retained closed segments, optionally with the open one
func (t *Tracker) History(q models.HistoryQuery) []models.Segment {
	now := t.now()
	cutoff := now.Add(-t.retention())
	if q.MaxAge > 0 {
		if c := now.Add(-q.MaxAge); c.After(cutoff) {
			cutoff = c
		}
	}

	out := make([]models.Segment, 0, len(t.history)+1)
	for _, seg := range t.history {
		if seg.Entered.Before(cutoff) {
			continue
		}
		seg.Zone = copyZone(seg.Zone)
		out = append(out, seg)
	}
	if q.IncludeOpen && t.state.Current != nil {
		cur := *t.state.Current
		cur.Zone = copyZone(cur.Zone)
		out = append(out, cur)
	}

	if q.NewestFirst {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// TimeShare sums closed segment durations per zone over the window.
// A zero window covers the whole retained history.
func (t *Tracker) TimeShare(window time.Duration) []models.ZoneShare {
	segments := t.History(models.HistoryQuery{MaxAge: window})

	totals := make(map[string]time.Duration)
	var total time.Duration
	for _, seg := range segments {
		name := UnknownZone
		if seg.Zone != nil {
			name = seg.Zone.Name
		}
		d := seg.Duration()
		totals[name] += d
		total += d
	}

	shares := make([]models.ZoneShare, 0, len(totals))
	for name, d := range totals {
		share := models.ZoneShare{Name: name, Duration: d}
		if total > 0 {
			share.Percent = float64(d) / float64(total) * 100
		}
		shares = append(shares, share)
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Duration == shares[j].Duration {
			return shares[i].Name < shares[j].Name
		}
		return shares[i].Duration > shares[j].Duration
	})
	return shares
}

// AddZone validates and adds a zone. Duplicate names are rejected.
func (t *Tracker) AddZone(ctx context.Context, zone models.Zone) error {
	zone.Name = strings.TrimSpace(zone.Name)
	if zone.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidZone)
	}
	if !(zone.Radius > 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidRadius, zone.Radius)
	}
	for _, z := range t.zones {
		if z.Name == zone.Name {
			return fmt.Errorf("%w: %s", ErrZoneExists, zone.Name)
		}
	}

	zones := make([]models.Zone, 0, len(t.zones)+1)
	zones = append(zones, t.zones...)
	t.setZones(append(zones, zone))

	if err := t.store.SaveZone(ctx, zone); err != nil {
		t.logger.Error("save zone failed", "zone", zone.Name, "error", err)
	}
	return nil
}

// RemoveZone deletes a zone by name. Recorded segments keep their snapshot.
func (t *Tracker) RemoveZone(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	zones := make([]models.Zone, 0, len(t.zones))
	found := false
	for _, z := range t.zones {
		if z.Name == name {
			found = true
			continue
		}
		zones = append(zones, z)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrZoneNotFound, name)
	}
	t.setZones(zones)

	if err := t.store.DeleteZone(ctx, name); err != nil && !errors.Is(err, repository.ErrNotFound) {
		t.logger.Error("delete zone failed", "zone", name, "error", err)
	}
	return nil
}

// ListZones returns the zone set in insertion order
func (t *Tracker) ListZones() []models.Zone {
	out := make([]models.Zone, len(t.zones))
	copy(out, t.zones)
	return out
}

// ClosestZones returns up to k zones nearest to the point
func (t *Tracker) ClosestZones(lat, lon float64, k int) []models.Zone {
	return t.index.Closest(lat, lon, k)
}

func copyZone(z *models.Zone) *models.Zone {
	if z == nil {
		return nil
	}
	cp := *z
	return &cp
}
