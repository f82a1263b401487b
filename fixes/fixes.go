// Package fixes buffers asynchronously delivered geodetic fixes for the
// frame-synchronous spatial core. It is the one concurrency boundary in the
// system: location services append from their own goroutines, the render
// tick reads whatever is currently available and never blocks on delivery.
package fixes

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/northlightlabs/arspatial/model"
)

// HistoryCap is the maximum number of reliable fixes retained; the oldest
// fix is dropped on overflow.
const HistoryCap = 100

// EventType indicates what kind of change happened in the history.
type EventType int

const (
	EventFixAccepted EventType = iota
	EventFixRejected
)

// Event is emitted to subscribers when a fix is screened.
type Event struct {
	Type EventType
	Fix  model.Fix
}

// Config tunes the reliability predicate. The original system never
// specified the predicate beyond "the cadence narrows to better fixes", so
// the thresholds here are explicit and deliberate.
type Config struct {
	// MaxHorizontalAccuracyM is the worst horizontal accuracy accepted once
	// reliability is established. Default: 20 m.
	MaxHorizontalAccuracyM float64

	// MaxJumpM rejects a fix that is displaced farther than this from the
	// previous accepted fix while also being less accurate. Default: 200 m.
	MaxJumpM float64
}

// ApplyDefaults fills zero or invalid fields with defaults.
func (c Config) ApplyDefaults() Config {
	if c.MaxHorizontalAccuracyM <= 0 {
		c.MaxHorizontalAccuracyM = 20
	}
	if c.MaxJumpM <= 0 {
		c.MaxJumpM = 200
	}
	return c
}

// History is a thread-safe bounded buffer of reliable geodetic fixes.
type History struct {
	mu sync.RWMutex

	cfg  Config
	buf  []model.Fix
	best float64 // best horizontal accuracy seen, 0 until known

	subs map[int]func(Event)
	next int
}

// NewHistory constructs an empty history with the given config.
func NewHistory(cfg Config) *History {
	return &History{
		cfg:  cfg.ApplyDefaults(),
		buf:  make([]model.Fix, 0, HistoryCap),
		subs: make(map[int]func(Event)),
	}
}

// Append screens a fix with the reliability predicate and stores it when it
// passes. It returns whether the fix was accepted. Safe to call from any
// goroutine.
func (h *History) Append(fix model.Fix) bool {
	h.mu.Lock()

	accepted := h.reliable(fix)
	if accepted {
		if len(h.buf) == HistoryCap {
			copy(h.buf, h.buf[1:])
			h.buf = h.buf[:HistoryCap-1]
		}
		h.buf = append(h.buf, fix)
		if fix.HorizontalAccuracy > 0 && (h.best == 0 || fix.HorizontalAccuracy < h.best) {
			h.best = fix.HorizontalAccuracy
		}
	}

	event := Event{Type: EventFixAccepted, Fix: fix}
	if !accepted {
		event.Type = EventFixRejected
	}
	subs := make([]func(Event), 0, len(h.subs))
	for _, fn := range h.subs {
		subs = append(subs, fn)
	}
	h.mu.Unlock()

	// Notify outside the lock so subscribers may call back into the history.
	for _, fn := range subs {
		fn(event)
	}
	return accepted
}

// reliable is the explicit reliability predicate. The first fix ever seen
// establishes reliability unconditionally. After that a fix must meet the
// accuracy threshold (or improve on the best accuracy seen) and must not be
// a displacement outlier.
//
// Callers hold h.mu.
func (h *History) reliable(fix model.Fix) bool {
	if len(h.buf) == 0 {
		return true
	}

	acc := fix.HorizontalAccuracy
	if acc <= 0 {
		// Unknown accuracy after reliability is established: not reliable.
		return false
	}
	improves := h.best > 0 && acc < h.best
	if acc > h.cfg.MaxHorizontalAccuracyM && !improves {
		return false
	}

	prev := h.buf[len(h.buf)-1]
	jump := geo.DistanceHaversine(
		orb.Point{prev.Coordinate.Longitude, prev.Coordinate.Latitude},
		orb.Point{fix.Coordinate.Longitude, fix.Coordinate.Latitude},
	)
	if jump > h.cfg.MaxJumpM && acc >= prev.HorizontalAccuracy {
		return false
	}
	return true
}

// Latest returns the most recent reliable fix, if any.
func (h *History) Latest() (model.Fix, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.buf) == 0 {
		return model.Fix{}, false
	}
	return h.buf[len(h.buf)-1], true
}

// Len returns the number of buffered fixes.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.buf)
}

// Snapshot returns a copy of the buffered fixes, oldest first.
func (h *History) Snapshot() []model.Fix {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]model.Fix, len(h.buf))
	copy(out, h.buf)
	return out
}

// Subscribe registers a callback for fix events. It returns an unsubscribe
// function; unsubscribing is the only cancellation in fix delivery.
func (h *History) Subscribe(fn func(Event)) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.subs[id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}
