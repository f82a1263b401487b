// Package framectrl drives the frame-synchronous update loop. The host
// renderer normally ticks the scene itself; this controller stands in for
// it in the demo binary and in tests.
package framectrl

import (
	"sync"
	"time"
)

// FrameClock exposes the controller's notion of current time to components
// that need a clock abstraction rather than a concrete controller type.
type FrameClock interface {
	// Now returns the current frame time.
	Now() time.Time
}

// Mode describes how the FrameController advances frame time.
type Mode int

const (
	// RealTime advances according to wall-clock time.
	RealTime Mode = iota
	// Accelerated advances as quickly as the loop can run while still
	// stepping by Tick. Useful in tests and replays.
	Accelerated
)

// FrameController emits frame ticks and notifies registered listeners. It
// implements FrameClock.
type FrameController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Mode      Mode

	currentTime time.Time
	frame       uint64

	listeners []func(frame uint64, now time.Time)
}

// NewFrameController constructs a controller.
func NewFrameController(start time.Time, tick time.Duration, mode Mode) *FrameController {
	return &FrameController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
	}
}

// Now returns the current frame time. Implements FrameClock.
func (fc *FrameController) Now() time.Time {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return fc.currentTime
}

// Frame returns the index of the last emitted frame.
func (fc *FrameController) Frame() uint64 {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return fc.frame
}

// SetTime overrides the current frame time.
func (fc *FrameController) SetTime(now time.Time) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.currentTime = now
}

// AddListener registers a callback invoked on every frame tick. Listeners
// run on the controller's loop goroutine, the single thread driving the
// scene.
func (fc *FrameController) AddListener(fn func(frame uint64, now time.Time)) {
	fc.listeners = append(fc.listeners, fn)
}

// Start runs the controller for the specified duration in a separate
// goroutine. It returns a channel that is closed when the controller
// finishes.
func (fc *FrameController) Start(duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		fc.mu.Lock()
		frameTime := fc.StartTime
		fc.currentTime = frameTime
		fc.mu.Unlock()

		elapsed := time.Duration(0)

		var ticker *time.Ticker
		if fc.Mode == RealTime {
			ticker = time.NewTicker(fc.Tick)
			defer ticker.Stop()
		}

		for {
			if duration > 0 && elapsed >= duration {
				return
			}

			if ticker != nil {
				<-ticker.C
			}
			frameTime = frameTime.Add(fc.Tick)
			elapsed += fc.Tick

			fc.mu.Lock()
			fc.currentTime = frameTime
			fc.frame++
			frame := fc.frame
			fc.mu.Unlock()

			for _, fn := range fc.listeners {
				fn(frame, frameTime)
			}
		}
	}()
	return done
}
