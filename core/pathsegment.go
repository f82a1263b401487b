package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/northlightlabs/arspatial/model"
)

// segmentAxisEpsilon bounds how close the segment direction may get to the
// vertical axis before the generic axis-angle construction is abandoned for
// a deterministic fallback.
const segmentAxisEpsilon = 1e-9

// ComposeSegment builds the transform that places canonical segment geometry
// (a unit cylinder aligned to the vertical axis, centred at its origin)
// between a previous anchor position and the current one. The transform is
// expressed in the current anchor's frame: the cylinder is rotated onto the
// segment direction, translated back to the segment midpoint, and its
// vertical axis scaled to the segment length. Cross-section axes are left
// unscaled.
//
// All math stays in double precision; convert with ToRenderTransform only at
// the renderer hand-off.
func ComposeSegment(previous, current mgl64.Vec3) mgl64.Mat4 {
	span := current.Sub(previous)
	length := span.Len()
	if length == 0 {
		// Coincident anchors: no extent, collapse the vertical axis.
		return mgl64.Scale3D(1, 0, 1)
	}

	up := mgl64.Vec3{0, 1, 0}
	dir := span.Mul(1 / length)
	cosAngle := mgl64.Clamp(up.Dot(dir), -1, 1)

	var rotation mgl64.Mat4
	switch {
	case cosAngle >= 1-segmentAxisEpsilon:
		rotation = mgl64.Ident4()
	case cosAngle <= -1+segmentAxisEpsilon:
		// Opposite direction: the cross product vanishes, so rotate half a
		// turn about the canonical forward axis instead.
		rotation = mgl64.HomogRotate3D(math.Pi, mgl64.Vec3{0, 0, 1})
	default:
		axis := up.Cross(dir).Normalize()
		rotation = mgl64.HomogRotate3D(math.Acos(cosAngle), axis)
	}

	// Midpoint relative to the current anchor.
	mid := previous.Sub(current).Mul(0.5)

	return mgl64.Translate3D(mid.X(), mid.Y(), mid.Z()).
		Mul4(rotation).
		Mul4(mgl64.Scale3D(1, length, 1))
}

// SegmentPlacement is a resolved path segment ready for draw submission:
// the (possibly clipped) endpoints and the geometry transform expressed in
// the frame of the segment's current anchor.
type SegmentPlacement struct {
	Start     mgl64.Vec3
	End       mgl64.Vec3
	Transform mgl64.Mat4
}

// Render returns the placement transform in the renderer's working
// precision.
func (s SegmentPlacement) Render() mgl32.Mat4 {
	return ToRenderTransform(s.Transform)
}

// Path is an ordered sequence of anchor positions in the local tracking
// frame, connected by segment geometry.
type Path struct {
	anchors  []mgl64.Vec3
	segments []SegmentPlacement
}

// NewPath constructs a path over the given anchor positions.
func NewPath(anchors ...mgl64.Vec3) *Path {
	return &Path{anchors: anchors}
}

// Append adds an anchor to the end of the path.
func (p *Path) Append(anchor mgl64.Vec3) {
	p.anchors = append(p.anchors, anchor)
}

// Anchors returns the path's anchor positions.
func (p *Path) Anchors() []mgl64.Vec3 { return p.anchors }

// Segments returns the placements computed by the last Refresh.
func (p *Path) Segments() []SegmentPlacement { return p.segments }

// Refresh recomputes segment placements, bounding each segment to the given
// render-distance sphere. Segments entirely outside the sphere produce no
// geometry.
func (p *Path) Refresh(bounds model.Sphere) []SegmentPlacement {
	p.segments = p.segments[:0]
	for i := 1; i < len(p.anchors); i++ {
		line := model.Line{Point0: p.anchors[i-1], Point1: p.anchors[i]}
		clipped := IntersectSphereLine(line, bounds)
		if !clipped.IsInside {
			continue
		}
		p.segments = append(p.segments, SegmentPlacement{
			Start:     clipped.Line.Point0,
			End:       clipped.Line.Point1,
			Transform: ComposeSegment(clipped.Line.Point0, clipped.Line.Point1),
		})
	}
	return p.segments
}

// ToRenderTransform narrows a double-precision transform to the renderer's
// working precision. Keeping the narrowing at the very end minimises
// cumulative rotation error on short segments.
func ToRenderTransform(m mgl64.Mat4) mgl32.Mat4 {
	var out mgl32.Mat4
	for i := range m {
		out[i] = float32(m[i])
	}
	return out
}
