package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jengzang/dwell-backend-go/internal/models"
)

type fakeAdder struct {
	mu    sync.Mutex
	zones []models.Zone
	err   error
}

func (f *fakeAdder) AddZone(_ context.Context, z models.Zone) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.zones = append(f.zones, z)
	return nil
}

func str(s string) *string   { return &s }
func num(v float64) *float64 { return &v }

func newTestDrafts(adder ZoneAdder, now *time.Time) *Drafts {
	d := NewDrafts(adder, 10*time.Minute)
	d.now = func() time.Time { return *now }
	return d
}

func TestDraftWalksThroughFields(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	adder := &fakeAdder{}
	drafts := newTestDrafts(adder, &now)

	d := drafts.Start("chat-1")
	if d.Next != FieldName {
		t.Fatalf("expected name first, got %q", d.Next)
	}

	steps := []struct {
		in   DraftInput
		next Field
	}{
		{DraftInput{Name: str("  Gym ")}, FieldDescription},
		{DraftInput{Description: str("")}, FieldLocation},
		{DraftInput{Latitude: num(50.07), Longitude: num(14.43)}, FieldRadius},
		{DraftInput{Radius: num(80)}, FieldNone},
	}
	for i, step := range steps {
		var err error
		d, err = drafts.Update("chat-1", step.in)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if d.Next != step.next {
			t.Fatalf("step %d: expected next %q, got %q", i, step.next, d.Next)
		}
	}

	zone, err := drafts.Commit(context.Background(), "chat-1")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	want := models.Zone{Name: "Gym", Description: "", Latitude: 50.07, Longitude: 14.43, Radius: 80}
	if zone != want {
		t.Errorf("expected %+v, got %+v", want, zone)
	}
	if len(adder.zones) != 1 || adder.zones[0] != want {
		t.Errorf("adder got %+v", adder.zones)
	}
	if _, ok := drafts.Get("chat-1"); ok {
		t.Error("draft should be gone after commit")
	}
}

func TestCommitIncomplete(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	drafts := newTestDrafts(&fakeAdder{}, &now)

	drafts.Start("chat-1")
	_, _ = drafts.Update("chat-1", DraftInput{Name: str("Gym")})

	_, err := drafts.Commit(context.Background(), "chat-1")
	if !errors.Is(err, ErrDraftIncomplete) {
		t.Fatalf("expected ErrDraftIncomplete, got %v", err)
	}
	if _, ok := drafts.Get("chat-1"); !ok {
		t.Error("incomplete draft must survive a failed commit")
	}
}

func TestCommitRejectedKeepsDraft(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	adder := &fakeAdder{err: errors.New("zone already exists")}
	drafts := newTestDrafts(adder, &now)

	drafts.Start("chat-1")
	_, _ = drafts.Update("chat-1", DraftInput{
		Name: str("Home"), Description: str("flat"),
		Latitude: num(50.088), Longitude: num(14.4208), Radius: num(100),
	})

	if _, err := drafts.Commit(context.Background(), "chat-1"); err == nil {
		t.Fatal("expected adder error")
	}

	adder.err = nil
	if _, err := drafts.Update("chat-1", DraftInput{Name: str("Home 2")}); err != nil {
		t.Fatal(err)
	}
	zone, err := drafts.Commit(context.Background(), "chat-1")
	if err != nil || zone.Name != "Home 2" {
		t.Fatalf("expected retry to succeed, got %+v, %v", zone, err)
	}
}

func TestConversationsAreIsolated(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	drafts := newTestDrafts(&fakeAdder{}, &now)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("chat-%d", i)
			drafts.Start(id)
			_, _ = drafts.Update(id, DraftInput{Name: str(id)})
		}(i)
	}
	wg.Wait()

	for i := 0; i < 16; i++ {
		id := fmt.Sprintf("chat-%d", i)
		d, ok := drafts.Get(id)
		if !ok || d.Name == nil || *d.Name != id {
			t.Errorf("draft %s corrupted: %+v", id, d)
		}
	}
}

func TestDraftExpires(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	drafts := newTestDrafts(&fakeAdder{}, &now)

	drafts.Start("chat-1")
	now = now.Add(5 * time.Minute)
	if _, err := drafts.Update("chat-1", DraftInput{Name: str("Gym")}); err != nil {
		t.Fatalf("draft should still be alive: %v", err)
	}

	now = now.Add(11 * time.Minute)
	if _, err := drafts.Update("chat-1", DraftInput{Name: str("Gym")}); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("expected ErrDraftNotFound, got %v", err)
	}
	if drafts.Len() != 0 {
		t.Errorf("expected no live drafts, got %d", drafts.Len())
	}
}

func TestUpdateValidation(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	drafts := newTestDrafts(&fakeAdder{}, &now)
	drafts.Start("chat-1")

	tests := []struct {
		name string
		in   DraftInput
	}{
		{"blank name", DraftInput{Name: str("  ")}},
		{"zero radius", DraftInput{Radius: num(0)}},
		{"latitude only", DraftInput{Latitude: num(50)}},
		{"out of range", DraftInput{Latitude: num(100), Longitude: num(14)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := drafts.Update("chat-1", tt.in); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCancel(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	drafts := newTestDrafts(&fakeAdder{}, &now)

	if drafts.Cancel("chat-1") {
		t.Error("nothing to cancel yet")
	}
	drafts.Start("chat-1")
	if !drafts.Cancel("chat-1") {
		t.Error("expected cancel to report an existing draft")
	}
	if _, err := drafts.Commit(context.Background(), "chat-1"); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("expected ErrDraftNotFound, got %v", err)
	}
}
