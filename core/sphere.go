package core

import (
	"math"

	"github.com/northlightlabs/arspatial/model"
)

// IntersectSphereLine bounds a line segment to a sphere. It is used to keep
// path geometry inside the render-distance sphere centred on the viewer, so
// renderers never build geometry beyond the configured draw distance.
//
// The returned intersection reports IsInside=false (line unchanged) when the
// segment misses the sphere entirely. When the segment crosses the boundary,
// the outside endpoint(s) are clipped onto it.
func IntersectSphereLine(line model.Line, sphere model.Sphere) model.SphereLineIntersection {
	inside0 := sphere.Contains(line.Point0)
	inside1 := sphere.Contains(line.Point1)

	if inside0 && inside1 {
		return model.SphereLineIntersection{IsInside: true, Line: line}
	}

	seg := line.Point1.Sub(line.Point0)
	segLen := seg.Len()
	if segLen == 0 {
		// Degenerate zero-length segment outside the sphere.
		return model.SphereLineIntersection{IsInside: false, Line: line}
	}
	dir := seg.Mul(1 / segLen)

	q := sphere.Center.Sub(line.Point0)
	vDotQ := dir.Dot(q)
	discriminant := vDotQ*vDotQ - (q.Dot(q) - sphere.Radius*sphere.Radius)
	if discriminant < 0 {
		return model.SphereLineIntersection{IsInside: false, Line: line}
	}

	root := math.Sqrt(discriminant)
	t0 := vDotQ - root
	t1 := vDotQ + root

	switch {
	case inside0:
		// Point1 is outside; clip it to the boundary with the root nearer
		// to it.
		line.Point1 = line.Point0.Add(dir.Mul(t1))
		return model.SphereLineIntersection{IsInside: true, Line: line}
	case inside1:
		line.Point0 = line.Point0.Add(dir.Mul(t0))
		return model.SphereLineIntersection{IsInside: true, Line: line}
	default:
		// Both endpoints outside: the segment passes through the sphere only
		// when both roots fall within its bounds.
		if t0 >= 0 && t1 <= segLen {
			origin := line.Point0
			line.Point0 = origin.Add(dir.Mul(t0))
			line.Point1 = origin.Add(dir.Mul(t1))
			return model.SphereLineIntersection{IsInside: true, Line: line}
		}
		return model.SphereLineIntersection{IsInside: false, Line: line}
	}
}
