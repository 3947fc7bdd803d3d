package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Peek())
	}
}

func TestClockAdvance(t *testing.T) {
	start := time.Date(2023, time.November, 11, 9, 0, 0, 0, time.UTC)
	clock := NewClock(start)

	if got := clock.Advance(90 * time.Minute); !got.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", got)
	}
	if got := clock.Now(); !got.Equal(clock.Peek()) {
		t.Fatalf("non-stepping clock moved on Now: %v vs %v", got, clock.Peek())
	}
}

func TestSteppingClock(t *testing.T) {
	start := time.Date(2023, time.November, 11, 9, 0, 0, 0, time.UTC)
	clock := NewSteppingClock(start, time.Second)

	first := clock.Now()
	second := clock.Now()
	if !first.Equal(start) || second.Sub(first) != time.Second {
		t.Fatalf("unexpected stepping: %v then %v", first, second)
	}
	if got := clock.Peek(); !got.Equal(start.Add(2 * time.Second)) {
		t.Fatalf("expected peek at %v, got %v", start.Add(2*time.Second), got)
	}
}
