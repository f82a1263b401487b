package model

import "github.com/go-gl/mathgl/mgl64"

// HeadingKind classifies an angular orientation.
type HeadingKind int

const (
	// HeadingRelative composes with the parent's current orientation.
	HeadingRelative HeadingKind = iota
	// HeadingAbsolute is expressed against world axes.
	HeadingAbsolute
)

func (k HeadingKind) String() string {
	if k == HeadingAbsolute {
		return "absolute"
	}
	return "relative"
}

// HeadingRotation is a unit quaternion plus its classification.
type HeadingRotation struct {
	Rotation mgl64.Quat
	Kind     HeadingKind
}

// IdentityHeading returns a relative identity rotation.
func IdentityHeading() HeadingRotation {
	return HeadingRotation{Rotation: mgl64.QuatIdent(), Kind: HeadingRelative}
}
