package framectrl

import (
	"testing"
	"time"
)

func TestFrameControllerSetTime(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	fc := NewFrameController(start, time.Second, RealTime)

	newNow := start.Add(42 * time.Second)
	fc.SetTime(newNow)

	if got := fc.Now(); !got.Equal(newNow) {
		t.Fatalf("Now() = %v, want %v", got, newNow)
	}
}

func TestFrameControllerStartUpdatesNow(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	fc := NewFrameController(start, 5*time.Millisecond, Accelerated)

	done := fc.Start(15 * time.Millisecond)
	<-done

	expected := start.Add(15 * time.Millisecond)
	if got := fc.Now(); !got.Equal(expected) {
		t.Fatalf("Now() = %v, want %v", got, expected)
	}
	if got := fc.Frame(); got != 3 {
		t.Fatalf("Frame() = %d, want 3", got)
	}
}

func TestFrameControllerNotifiesListeners(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	fc := NewFrameController(start, 10*time.Millisecond, Accelerated)

	var frames []uint64
	var last time.Time
	fc.AddListener(func(frame uint64, now time.Time) {
		frames = append(frames, frame)
		last = now
	})

	<-fc.Start(30 * time.Millisecond)

	if len(frames) != 3 {
		t.Fatalf("listener invoked %d times, want 3", len(frames))
	}
	for i, f := range frames {
		if f != uint64(i+1) {
			t.Errorf("frames[%d] = %d, want %d", i, f, i+1)
		}
	}
	if expected := start.Add(30 * time.Millisecond); !last.Equal(expected) {
		t.Errorf("last frame time = %v, want %v", last, expected)
	}
}
