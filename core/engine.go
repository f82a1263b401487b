package core

import (
	"context"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/northlightlabs/arspatial/internal/logging"
	"github.com/northlightlabs/arspatial/internal/observability"
	"github.com/northlightlabs/arspatial/model"
)

// Entity is a tracked thing with a resolved transform: an anchor, a
// tracker, the gaze target, or a path-segment anchor.
type Entity struct {
	ID   string
	Name string
	Node *Node
}

// SceneEngine drives the per-frame control flow: refresh the reference
// location from buffered fixes, update every transform node, and refresh
// path geometry against the render-distance sphere.
//
// The engine is frame-synchronous and single-threaded: Tick must be called
// from the thread driving rendering, once per frame. The only concurrent
// input is fix delivery, which is isolated behind the fix history.
type SceneEngine struct {
	tracker        *ReferenceTracker
	renderDistance float64

	entities []*Entity
	byID     map[string]*Entity
	paths    []*Path

	listeners []func(frame uint64)

	frame  uint64
	device mgl64.Mat4

	log       logging.Logger
	collector *observability.SceneCollector
}

// NewSceneEngine constructs an engine. renderDistance bounds path geometry;
// collector may be nil to disable metrics.
func NewSceneEngine(tracker *ReferenceTracker, renderDistance float64, log logging.Logger, collector *observability.SceneCollector) *SceneEngine {
	if log == nil {
		log = logging.Noop()
	}
	return &SceneEngine{
		tracker:        tracker,
		renderDistance: renderDistance,
		byID:           make(map[string]*Entity),
		device:         mgl64.Ident4(),
		log:            log,
		collector:      collector,
	}
}

// Register adds a tracked entity and returns its ID. Entities update in
// registration order.
func (e *SceneEngine) Register(name string, node *Node) string {
	ent := &Entity{ID: uuid.NewString(), Name: name, Node: node}
	e.entities = append(e.entities, ent)
	e.byID[ent.ID] = ent
	e.collector.SetTrackedEntities(len(e.entities))
	return ent.ID
}

// Remove drops a tracked entity. The node itself may live on as a parent of
// other nodes; removal only stops per-frame updates.
func (e *SceneEngine) Remove(id string) {
	ent, ok := e.byID[id]
	if !ok {
		return
	}
	delete(e.byID, id)
	for i, cur := range e.entities {
		if cur == ent {
			e.entities = append(e.entities[:i], e.entities[i+1:]...)
			break
		}
	}
	e.collector.SetTrackedEntities(len(e.entities))
}

// Entity returns a registered entity by ID.
func (e *SceneEngine) Entity(id string) (*Entity, bool) {
	ent, ok := e.byID[id]
	return ent, ok
}

// AddPath registers a path whose geometry is refreshed every frame.
func (e *SceneEngine) AddPath(p *Path) {
	e.paths = append(e.paths, p)
}

// RegisterTickListener adds a callback invoked at the end of every frame.
func (e *SceneEngine) RegisterTickListener(fn func(frame uint64)) {
	e.listeners = append(e.listeners, fn)
}

// Tracker returns the engine's reference tracker.
func (e *SceneEngine) Tracker() *ReferenceTracker { return e.tracker }

// Frame returns the index of the last completed frame.
func (e *SceneEngine) Frame() uint64 { return e.frame }

// Tick runs one frame update with the device's current tracking transform.
func (e *SceneEngine) Tick(ctx context.Context, deviceTransform mgl64.Mat4) {
	start := time.Now()
	e.frame++
	ctx, log := logging.WithFrameLogger(ctx, e.log, e.frame)
	ctx, span := observability.StartFrameSpan(ctx, e.frame)
	defer span.End()

	e.device = deviceTransform
	e.tracker.Refresh(ctx, deviceTransform)

	for _, ent := range e.entities {
		ent.Node.Update()
	}

	viewer := deviceTransform.Col(3).Vec3()
	bounds := model.Sphere{Center: viewer, Radius: e.renderDistance}
	rendered, dropped := 0, 0
	for _, p := range e.paths {
		total := len(p.Anchors()) - 1
		if total < 0 {
			total = 0
		}
		segs := p.Refresh(bounds)
		rendered += len(segs)
		dropped += total - len(segs)
	}

	for _, fn := range e.listeners {
		fn(e.frame)
	}

	log.Debug(ctx, "frame updated",
		logging.Int("entities", len(e.entities)),
		logging.Int("segments", rendered),
	)
	e.collector.ObserveFrame(time.Since(start), len(e.entities))
	e.collector.ObserveSegments(rendered, dropped)
}

// EntitySnapshot is the per-frame resolved state of one entity, ready for
// draw submission or inspection.
type EntitySnapshot struct {
	ID       string                    `json:"id"`
	Name     string                    `json:"name"`
	Position [3]float64                `json:"position"`
	Geodetic *model.GeodeticCoordinate `json:"geodetic,omitempty"`
}

// Snapshot is a read-only view of the scene after the last frame.
type Snapshot struct {
	Frame     uint64                    `json:"frame"`
	Reference *model.GeodeticCoordinate `json:"reference,omitempty"`
	Entities  []EntitySnapshot          `json:"entities"`
	Segments  int                       `json:"segments"`
}

// Snapshot captures the resolved scene state. Call between frames, from the
// same thread as Tick.
func (e *SceneEngine) Snapshot() Snapshot {
	snap := Snapshot{Frame: e.frame}

	if ref, ok := e.tracker.Reference(); ok {
		coord := ref.Coordinate
		snap.Reference = &coord
	}

	for _, ent := range e.entities {
		pos := ent.Node.WorldPosition()
		es := EntitySnapshot{
			ID:       ent.ID,
			Name:     ent.Name,
			Position: [3]float64{pos.X(), pos.Y(), pos.Z()},
		}
		if loc, ok := e.tracker.Locate(ent.Node.WorldTransform()); ok {
			coord := loc.Coordinate
			es.Geodetic = &coord
		}
		snap.Entities = append(snap.Entities, es)
	}

	for _, p := range e.paths {
		snap.Segments += len(p.Segments())
	}
	return snap
}
