package model

import "github.com/go-gl/mathgl/mgl64"

// Line is an ordered pair of points in the local tracking frame.
type Line struct {
	Point0 mgl64.Vec3
	Point1 mgl64.Vec3
}

// Sphere is a bounding volume, typically the render-distance sphere
// centred on the viewer.
type Sphere struct {
	Center mgl64.Vec3
	Radius float64 // >= 0
}

// Contains reports whether p lies inside or on the sphere.
func (s Sphere) Contains(p mgl64.Vec3) bool {
	return p.Sub(s.Center).Len() <= s.Radius
}

// SphereLineIntersection describes a line after clipping against a sphere.
// When IsInside is false the line does not touch the sphere and Line is the
// unchanged input.
type SphereLineIntersection struct {
	IsInside bool
	Line     Line
}
