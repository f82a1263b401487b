package core

import (
	"context"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/northlightlabs/arspatial/fixes"
	"github.com/northlightlabs/arspatial/model"
)

func newTestEngine(renderDistance float64) (*SceneEngine, *fixes.History) {
	history := fixes.NewHistory(fixes.Config{})
	tracker := NewReferenceTracker(history, nil)
	return NewSceneEngine(tracker, renderDistance, nil, nil), history
}

func TestSceneEngineTickUpdatesNodesAndPaths(t *testing.T) {
	engine, history := newTestEngine(50)
	ctx := context.Background()

	history.Append(model.Fix{
		Coordinate: model.GeodeticCoordinate{Latitude: 47.62, Longitude: -122.35},
		Timestamp:  time.Now(),
	})

	user := NewNode()
	engine.Register("user", user)

	cursor := NewNode()
	cursor.SetParent(user)
	cursor.SetLocalTransform(mgl64.Translate3D(0, 0, -2))
	engine.Register("cursor", cursor)

	path := NewPath(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 0, 0}, mgl64.Vec3{200, 0, 0})
	engine.AddPath(path)

	var ticks int
	engine.RegisterTickListener(func(frame uint64) { ticks++ })

	user.SetLocalTransform(mgl64.Translate3D(1, 0, 0))
	engine.Tick(ctx, mgl64.Ident4())

	if engine.Frame() != 1 || ticks != 1 {
		t.Fatalf("frame = %d, ticks = %d, want 1,1", engine.Frame(), ticks)
	}
	if got := cursor.WorldPosition(); !vecsClose(got, mgl64.Vec3{1, 0, -2}) {
		t.Errorf("cursor world position = %v, want (1,0,-2)", got)
	}
	// Second segment clipped to the 50 m render sphere around the origin.
	segs := path.Segments()
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if !vecsClose(segs[1].End, mgl64.Vec3{50, 0, 0}) {
		t.Errorf("clipped end = %v, want (50,0,0)", segs[1].End)
	}

	snap := engine.Snapshot()
	if snap.Reference == nil || snap.Reference.Latitude != 47.62 {
		t.Errorf("snapshot reference = %+v, want the fix coordinate", snap.Reference)
	}
	if len(snap.Entities) != 2 || snap.Segments != 2 {
		t.Errorf("snapshot has %d entities, %d segments, want 2, 2", len(snap.Entities), snap.Segments)
	}
	for _, e := range snap.Entities {
		if e.Geodetic == nil {
			t.Errorf("entity %s missing derived geodetic coordinate", e.Name)
		}
	}
}

func TestSceneEngineRegisterRemove(t *testing.T) {
	engine, _ := newTestEngine(50)

	idA := engine.Register("a", NewNode())
	idB := engine.Register("b", NewNode())
	if idA == idB || idA == "" {
		t.Fatalf("registration must mint distinct non-empty IDs")
	}

	if _, ok := engine.Entity(idA); !ok {
		t.Fatalf("entity %s not found", idA)
	}

	engine.Remove(idA)
	if _, ok := engine.Entity(idA); ok {
		t.Errorf("entity %s still present after removal", idA)
	}
	if _, ok := engine.Entity(idB); !ok {
		t.Errorf("unrelated entity removed")
	}

	// Removing twice is a no-op.
	engine.Remove(idA)
}

func TestSceneEngineTickWithoutFixes(t *testing.T) {
	engine, _ := newTestEngine(50)
	engine.Register("user", NewNode())

	// The render tick never blocks waiting for a fix.
	engine.Tick(context.Background(), mgl64.Ident4())

	snap := engine.Snapshot()
	if snap.Reference != nil {
		t.Errorf("reference = %+v, want none before any fix", snap.Reference)
	}
	if len(snap.Entities) != 1 || snap.Entities[0].Geodetic != nil {
		t.Errorf("entities must resolve without geodetic data before a reference exists")
	}
}
