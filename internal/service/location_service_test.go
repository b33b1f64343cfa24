package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jengzang/dwell-backend-go/internal/models"
	"github.com/jengzang/dwell-backend-go/internal/repository/memory"
	"github.com/jengzang/dwell-backend-go/internal/spatial"
	"github.com/jengzang/dwell-backend-go/internal/tracker"
)

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

var (
	home = models.Zone{Name: "Home", Latitude: 50.0880, Longitude: 14.4208, Radius: 100}
	work = models.Zone{Name: "Work", Latitude: 50.1000, Longitude: 14.4500, Radius: 150}
)

type recordingPublisher struct {
	mu          sync.Mutex
	transitions []models.Transition
	err         error
}

func (p *recordingPublisher) PublishTransition(_ context.Context, tr models.Transition) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transitions = append(p.transitions, tr)
	return p.err
}

func newTestService(t *testing.T, pub *recordingPublisher) *LocationService {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewLocationService(context.Background(), memory.NewStore(), pub, logger,
		tracker.WithClock(func() time.Time { return t0.Add(3 * time.Hour) }))
	for _, z := range []models.Zone{home, work} {
		if err := svc.AddZone(context.Background(), z); err != nil {
			t.Fatalf("add zone: %v", err)
		}
	}
	return svc
}

func TestRecordSample_PublishesTransition(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()

	_ = svc.RecordSample(ctx, home.Latitude, home.Longitude, t0)
	_ = svc.RecordSample(ctx, home.Latitude, home.Longitude, t0.Add(time.Hour))
	if len(pub.transitions) != 0 {
		t.Fatalf("expected no transitions yet, got %d", len(pub.transitions))
	}

	if err := svc.RecordSample(ctx, work.Latitude, work.Longitude, t0.Add(2*time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.transitions) != 1 {
		t.Fatalf("expected 1 transition, got %d", len(pub.transitions))
	}
	tr := pub.transitions[0]
	if models.ZoneName(tr.From) != "Home" || models.ZoneName(tr.To) != "Work" {
		t.Errorf("unexpected transition %s -> %s", models.ZoneName(tr.From), models.ZoneName(tr.To))
	}

	st := svc.Status()
	if st.Zone == nil || st.Zone.Name != "Work" || st.Dwell != time.Hour {
		t.Errorf("unexpected status: %+v", st)
	}
	if h := svc.History(models.HistoryQuery{}); len(h) != 1 {
		t.Errorf("expected 1 closed segment, got %d", len(h))
	}
}

func TestRecordSample_PublishErrorIsAbsorbed(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newTestService(t, pub)
	ctx := context.Background()

	_ = svc.RecordSample(ctx, home.Latitude, home.Longitude, t0)
	if err := svc.RecordSample(ctx, work.Latitude, work.Longitude, t0.Add(time.Hour)); err != nil {
		t.Fatalf("publish failure must not surface: %v", err)
	}
	if got := svc.Status().Zone; got == nil || got.Name != "Work" {
		t.Errorf("expected Work, got %v", got)
	}
}

func TestRecordSample_InvalidCoordinate(t *testing.T) {
	svc := newTestService(t, &recordingPublisher{})

	err := svc.RecordSample(context.Background(), 91, 0, t0)
	if !errors.Is(err, spatial.ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
	if svc.Status().Tracking {
		t.Error("invalid sample must not start tracking")
	}
}

func TestZoneOperations(t *testing.T) {
	svc := newTestService(t, &recordingPublisher{})
	ctx := context.Background()

	if err := svc.AddZone(ctx, home); !errors.Is(err, tracker.ErrZoneExists) {
		t.Errorf("expected ErrZoneExists, got %v", err)
	}
	if err := svc.AddZone(ctx, models.Zone{Name: "Sea", Latitude: 0, Longitude: 200, Radius: 10}); !errors.Is(err, spatial.ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate, got %v", err)
	}

	closest, err := svc.ClosestZones(50.1, 14.45, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(closest) != 1 || closest[0].Name != "Work" {
		t.Errorf("expected Work, got %+v", closest)
	}

	if err := svc.RemoveZone(ctx, "Work"); err != nil {
		t.Fatal(err)
	}
	if err := svc.RemoveZone(ctx, "Work"); !errors.Is(err, tracker.ErrZoneNotFound) {
		t.Errorf("expected ErrZoneNotFound, got %v", err)
	}
	if zones := svc.ListZones(); len(zones) != 1 || zones[0].Name != "Home" {
		t.Errorf("unexpected zones: %+v", zones)
	}
}

func TestConcurrentSamples(t *testing.T) {
	svc := newTestService(t, &recordingPublisher{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				z := home
				if (i+j)%2 == 0 {
					z = work
				}
				_ = svc.RecordSample(ctx, z.Latitude, z.Longitude, t0.Add(time.Duration(i*25+j)*time.Second))
				_ = svc.Status()
				_ = svc.TimeShare(0)
			}
		}(i)
	}
	wg.Wait()

	for _, seg := range svc.History(models.HistoryQuery{IncludeOpen: true}) {
		if seg.Exited.Before(seg.Entered) && !seg.Open {
			t.Errorf("segment %s closes before it opens", seg.ID)
		}
	}
}
