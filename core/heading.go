package core

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/northlightlabs/arspatial/model"
)

// ErrCombinedAbsoluteHeadings is returned when a heading combination
// contains more than one absolute rotation. Two world-aligned headings
// cannot be reconciled, and silently picking one would hide the
// misconfiguration from the caller.
var ErrCombinedAbsoluteHeadings = errors.New("combined headings contain more than one absolute rotation")

// lookAtEpsilon bounds the degenerate look-at cases: target coincident with
// the eye, or directly along the world up axis.
const lookAtEpsilon = 1e-12

// worldUp is the world-frame up axis of the local tracking frame.
var worldUp = mgl64.Vec3{0, 1, 0}

// headingKind tags the closed set of heading behaviours.
type headingKind int

const (
	headingSameAsParent headingKind = iota
	headingFixedAbsolute
	headingLookAt
	headingCombined
)

// HeadingStrategy produces a node's angular orientation once per frame. It
// is a closed tagged variant over the documented behaviours; new behaviours
// get a new tag, not a subclass.
//
// A strategy is attached to exactly one Node at a time, but may reference
// other locations (a look-at target).
type HeadingStrategy struct {
	kind   headingKind
	fixed  model.HeadingRotation
	target *model.WorldLocation
}

// SameAsParentHeading inherits the parent's orientation: a relative
// identity rotation with a no-op update.
func SameAsParentHeading() *HeadingStrategy {
	return &HeadingStrategy{
		kind:  headingSameAsParent,
		fixed: model.IdentityHeading(),
	}
}

// FixedAbsoluteHeading is a constant world-aligned orientation: north plus
// the given clockwise offset in degrees.
func FixedAbsoluteHeading(offsetDegrees float64) *HeadingStrategy {
	return &HeadingStrategy{
		kind: headingFixedAbsolute,
		fixed: model.HeadingRotation{
			Rotation: mgl64.QuatRotate(mgl64.DegToRad(-offsetDegrees), worldUp),
			Kind:     model.HeadingAbsolute,
		},
	}
}

// LookAtHeading reorients the node's forward axis toward the target's
// current position on every update. The target pointer is shared; whoever
// owns the target location may move it between frames.
func LookAtHeading(target *model.WorldLocation) *HeadingStrategy {
	return &HeadingStrategy{kind: headingLookAt, target: target}
}

// CombinedHeading composes a fixed list of rotations into one heading via
// CombineHeadings. The combination is validated here, at construction, so a
// misconfigured list never reaches the per-frame path.
func CombinedHeading(parts ...model.HeadingRotation) (*HeadingStrategy, error) {
	combined, err := CombineHeadings(parts)
	if err != nil {
		return nil, err
	}
	return &HeadingStrategy{kind: headingCombined, fixed: combined}, nil
}

// Evaluate returns the heading for the current frame. eye is the node's
// current world-frame position, used by look-at strategies.
func (h *HeadingStrategy) Evaluate(eye mgl64.Vec3) model.HeadingRotation {
	if h.kind == headingLookAt {
		return model.HeadingRotation{
			Rotation: lookAtRotation(eye, h.target.Position()),
			Kind:     model.HeadingAbsolute,
		}
	}
	return h.fixed
}

// CombineHeadings composes a list of heading rotations into one. Rotations
// multiply in list order. At most one absolute rotation may appear; the
// result is absolute if any input was absolute, else relative.
func CombineHeadings(parts []model.HeadingRotation) (model.HeadingRotation, error) {
	rotation := mgl64.QuatIdent()
	kind := model.HeadingRelative
	for _, part := range parts {
		if part.Kind == model.HeadingAbsolute {
			if kind == model.HeadingAbsolute {
				return model.HeadingRotation{}, ErrCombinedAbsoluteHeadings
			}
			kind = model.HeadingAbsolute
		}
		rotation = rotation.Mul(part.Rotation)
	}
	return model.HeadingRotation{Rotation: rotation.Normalize(), Kind: kind}, nil
}

// headingEqual reports whether two heading rotations agree in kind and in
// rotation within a small tolerance.
func headingEqual(a, b model.HeadingRotation) bool {
	if a.Kind != b.Kind {
		return false
	}
	return a.Rotation.ApproxEqualThreshold(b.Rotation, 1e-9)
}

// lookAtRotation builds the rotation that points the forward axis from eye
// toward target. The degenerate cases, target coincident with the eye or
// directly along the world up axis, fall back to the identity rotation
// rather than propagating NaNs.
func lookAtRotation(eye, target mgl64.Vec3) mgl64.Quat {
	to := target.Sub(eye)
	if to.Dot(to) < lookAtEpsilon {
		return mgl64.QuatIdent()
	}
	forward := to.Normalize()

	rightRaw := worldUp.Cross(forward)
	if rightRaw.Dot(rightRaw) < lookAtEpsilon {
		return mgl64.QuatIdent()
	}
	right := rightRaw.Normalize()
	up := forward.Cross(right)

	basis := mgl64.Mat4FromCols(
		right.Vec4(0),
		up.Vec4(0),
		forward.Vec4(0),
		mgl64.Vec4{0, 0, 0, 1},
	)
	return mgl64.Mat4ToQuat(basis).Normalize()
}
