package core

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/northlightlabs/arspatial/model"
)

// Node is a hierarchical transform node: it owns a local transform, caches
// the accumulated ancestor transform, and tracks changes lazily. One node is
// created per tracked entity (user, gaze cursor, tracker, path-segment
// anchor) and mutated once per frame by its owner.
//
// The parent link is non-owning: parents never reference their children, so
// a long-lived shared root such as a user-position node referenced by many
// trackers cannot form a cycle.
//
// Change tracking combines a dirty flag with a generation counter. The flag
// marks a pending local change; the generation is bumped whenever the node's
// world transform moves, and children compare it against the generation they
// last consumed. The counter is what keeps an ancestor's change from being
// silently dropped when siblings update in arbitrary order, while still
// avoiding recomputation when nothing changed.
//
// Contract: call Update once per frame before reading LocalTransform or
// ReferenceTransform. Reads between updates return the previous frame's
// cached values; there is no implicit recomputation on read.
type Node struct {
	parent *Node

	local     mgl64.Mat4
	reference mgl64.Mat4

	transformChanged bool
	headingChanged   bool

	generation       uint64
	parentGeneration uint64

	heading          *HeadingStrategy
	lastHeading      model.HeadingRotation
	headingEvaluated bool

	updates uint64
}

// NewNode returns a root node with identity transforms.
func NewNode() *Node {
	return &Node{
		local:     mgl64.Ident4(),
		reference: mgl64.Ident4(),
	}
}

// SetParent attaches the node under parent (nil detaches). The reference
// transform is seeded from the parent's current cached state and refreshed
// lazily on subsequent updates.
func (n *Node) SetParent(parent *Node) {
	n.parent = parent
	if parent != nil {
		n.reference = parent.reference.Mul4(parent.local)
		n.parentGeneration = parent.generation
	} else {
		n.reference = mgl64.Ident4()
	}
	n.transformChanged = true
	n.generation++
}

// Parent returns the node's parent, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// SetLocalTransform replaces the node's local transform and marks it
// changed.
func (n *Node) SetLocalTransform(m mgl64.Mat4) {
	n.local = m
	n.transformChanged = true
	n.generation++
}

// SetHeading attaches a heading strategy, or detaches with nil.
func (n *Node) SetHeading(h *HeadingStrategy) {
	n.heading = h
	n.headingEvaluated = false
}

// LocalTransform returns the cached local transform.
func (n *Node) LocalTransform() mgl64.Mat4 { return n.local }

// ReferenceTransform returns the cached accumulated ancestor transform.
func (n *Node) ReferenceTransform() mgl64.Mat4 { return n.reference }

// WorldTransform returns reference * local, the node's resolved transform
// in the tracking frame.
func (n *Node) WorldTransform() mgl64.Mat4 {
	return n.reference.Mul4(n.local)
}

// WorldPosition returns the translation of the resolved world transform.
func (n *Node) WorldPosition() mgl64.Vec3 {
	return n.WorldTransform().Col(3).Vec3()
}

// RenderTransform returns the resolved transform in the renderer's working
// precision.
func (n *Node) RenderTransform() mgl32.Mat4 {
	return ToRenderTransform(n.WorldTransform())
}

// TransformChanged reports whether this node, or any ancestor, has a change
// this node's cache has not yet consumed. The recursive OR up the chain is
// what makes change detection correct without eager recomputation.
func (n *Node) TransformChanged() bool {
	if n.transformChanged {
		return true
	}
	if n.parent != nil {
		return n.parent.generation != n.parentGeneration || n.parent.TransformChanged()
	}
	return false
}

// UpdateCount returns how many times Update has run on this node. Useful
// for asserting that unchanged ancestors are not recomputed.
func (n *Node) UpdateCount() uint64 { return n.updates }

// Update refreshes the node for the current frame: it pulls a changed
// ancestor chain into the cached reference transform, re-evaluates the
// heading strategy, applies the heading to the local orientation when
// anything changed, and clears the dirty flags.
func (n *Node) Update() {
	n.updates++

	changed := n.TransformChanged()

	if n.parent != nil {
		if n.parent.TransformChanged() {
			n.parent.Update()
		}
		if n.parent.generation != n.parentGeneration {
			n.reference = n.parent.reference.Mul4(n.parent.local)
			n.parentGeneration = n.parent.generation
			n.generation++
		}
	}

	if n.heading != nil {
		rotation := n.heading.Evaluate(n.WorldPosition())
		if !n.headingEvaluated || !headingEqual(rotation, n.lastHeading) {
			n.headingChanged = true
			n.lastHeading = rotation
			n.headingEvaluated = true
		}
		if changed || n.headingChanged {
			n.applyHeading(rotation)
		}
	}

	n.transformChanged = false
	n.headingChanged = false
}

// applyHeading folds a heading rotation into the local transform. Absolute
// headings replace the rotation component, preserving translation and scale;
// relative headings accumulate on top of the current local rotation.
func (n *Node) applyHeading(h model.HeadingRotation) {
	switch h.Kind {
	case model.HeadingAbsolute:
		translation := n.local.Col(3).Vec3()
		scale := mgl64.Vec3{
			n.local.Col(0).Vec3().Len(),
			n.local.Col(1).Vec3().Len(),
			n.local.Col(2).Vec3().Len(),
		}
		n.local = mgl64.Translate3D(translation.X(), translation.Y(), translation.Z()).
			Mul4(h.Rotation.Mat4()).
			Mul4(mgl64.Scale3D(scale.X(), scale.Y(), scale.Z()))
	case model.HeadingRelative:
		n.local = n.local.Mul4(h.Rotation.Mat4())
	}
	n.generation++
}
