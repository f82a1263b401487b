package core

import (
	"context"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/northlightlabs/arspatial/fixes"
	"github.com/northlightlabs/arspatial/internal/logging"
	"github.com/northlightlabs/arspatial/model"
)

// ReferenceTracker maintains the reference location: the one WorldLocation
// treated as ground truth, from which all other geodetic positions are
// derived by relative offset. It is refreshed once per frame from the fix
// history; the frame never blocks waiting for a fix.
type ReferenceTracker struct {
	history *fixes.History
	log     logging.Logger

	reference model.WorldLocation
	hasRef    bool
	lastFixAt time.Time
}

// NewReferenceTracker constructs a tracker over the given fix history.
func NewReferenceTracker(history *fixes.History, log logging.Logger) *ReferenceTracker {
	if log == nil {
		log = logging.Noop()
	}
	return &ReferenceTracker{history: history, log: log}
}

// Refresh associates the newest buffered fix with the device's current
// tracking transform, re-anchoring the reference location. It returns true
// when the reference changed. Called once per frame from the render tick.
func (rt *ReferenceTracker) Refresh(ctx context.Context, deviceTransform mgl64.Mat4) bool {
	fix, ok := rt.history.Latest()
	if !ok {
		return false
	}
	if rt.hasRef && !fix.Timestamp.After(rt.lastFixAt) {
		return false
	}

	rt.reference = model.WorldLocation{
		Coordinate: fix.Coordinate,
		Transform:  deviceTransform,
	}
	rt.hasRef = true
	rt.lastFixAt = fix.Timestamp

	rt.log.Debug(ctx, "reference location re-anchored",
		logging.Any("latitude", fix.Coordinate.Latitude),
		logging.Any("longitude", fix.Coordinate.Longitude),
		logging.Any("elevation", fix.Coordinate.Elevation),
	)
	return true
}

// Reference returns the current reference location, and whether one has
// been established yet.
func (rt *ReferenceTracker) Reference() (model.WorldLocation, bool) {
	return rt.reference, rt.hasRef
}

// Locate derives the WorldLocation of an arbitrary tracking transform from
// the current reference. The bool is false until a reference exists.
func (rt *ReferenceTracker) Locate(transform mgl64.Mat4) (model.WorldLocation, bool) {
	if !rt.hasRef {
		return model.WorldLocation{}, false
	}
	return WorldLocationFromTransform(transform, rt.reference), true
}
