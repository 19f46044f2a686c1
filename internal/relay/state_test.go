package relay

import (
	"errors"
	"testing"
	"time"
)

// fakeClock is an adjustable time source for staleness tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func TestState_EmptyReturnsNoData(t *testing.T) {
	s := NewState(nil)

	_, _, err := s.Latest()
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestState_UpdateThenLatest(t *testing.T) {
	clock := newFakeClock()
	s := NewState(clock.Now)

	s.Update(Record{"gmt": "2025-01-01T00:00:00.000Z", "videoId": "abc123"})

	rec, age, err := s.Latest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.GMT() != "2025-01-01T00:00:00.000Z" {
		t.Errorf("gmt = %q", rec.GMT())
	}
	if rec["videoId"] != "abc123" {
		t.Errorf("auxiliary field not echoed: %v", rec["videoId"])
	}
	if age != 0 {
		t.Errorf("age = %v, want 0", age)
	}
}

func TestState_LatestReturnsCopy(t *testing.T) {
	s := NewState(nil)
	s.Update(Record{"gmt": "2025-01-01T00:00:00.000Z"})

	rec, _, _ := s.Latest()
	rec["warning"] = "mutated"

	again, _, _ := s.Latest()
	if _, ok := again["warning"]; ok {
		t.Error("mutating a returned record leaked into stored state")
	}
}

func TestState_RedirectOneShot(t *testing.T) {
	s := NewState(nil)
	s.SetRedirect("2025-06-01T10:00:00.000Z")

	redirect, delivered := s.Update(Record{"gmt": "2025-06-01T09:00:00.000Z"})
	if !delivered || redirect != "2025-06-01T10:00:00.000Z" {
		t.Fatalf("first push: delivered=%v redirect=%q", delivered, redirect)
	}

	_, delivered = s.Update(Record{"gmt": "2025-06-01T09:00:01.000Z"})
	if delivered {
		t.Error("redirect delivered twice")
	}
}

func TestState_RedirectLastWriteWins(t *testing.T) {
	s := NewState(nil)
	s.SetRedirect("2025-06-01T10:00:00.000Z")
	s.SetRedirect("2025-06-01T11:00:00.000Z")

	redirect, delivered := s.Update(Record{"gmt": "2025-06-01T09:00:00.000Z"})
	if !delivered {
		t.Fatal("expected a redirect")
	}
	if redirect != "2025-06-01T11:00:00.000Z" {
		t.Errorf("redirect = %q, want the replacement value", redirect)
	}
}

func TestState_AgeTracksClock(t *testing.T) {
	clock := newFakeClock()
	s := NewState(clock.Now)

	s.Update(Record{"gmt": "2025-01-01T00:00:00.000Z"})
	clock.Advance(11 * time.Second)

	_, age, err := s.Latest()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if age != 11*time.Second {
		t.Errorf("age = %v, want 11s", age)
	}

	// Reads never mutate state; the age keeps growing.
	clock.Advance(time.Second)
	_, age, _ = s.Latest()
	if age != 12*time.Second {
		t.Errorf("age = %v, want 12s", age)
	}
}
