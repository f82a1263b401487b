package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/northlightlabs/arspatial/model"
)

// applySegment maps a point of the canonical unit cylinder through a
// segment transform.
func applySegment(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

func TestComposeSegmentVertical(t *testing.T) {
	// Previous anchor at the origin, current 5 m above: vertical scale 5,
	// identity rotation, translation (0, -2.5, 0).
	m := ComposeSegment(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 5, 0})

	if tr := m.Col(3).Vec3(); !vecsClose(tr, mgl64.Vec3{0, -2.5, 0}) {
		t.Errorf("translation = %v, want (0,-2.5,0)", tr)
	}
	if sy := m.Col(1).Vec3().Len(); math.Abs(sy-5) > 1e-12 {
		t.Errorf("vertical scale = %f, want 5", sy)
	}
	// Identity rotation: the x and z basis columns stay axis-aligned and
	// unit length.
	if !vecsClose(m.Col(0).Vec3(), mgl64.Vec3{1, 0, 0}) {
		t.Errorf("x basis = %v, want (1,0,0)", m.Col(0).Vec3())
	}
	if !vecsClose(m.Col(2).Vec3(), mgl64.Vec3{0, 0, 1}) {
		t.Errorf("z basis = %v, want (0,0,1)", m.Col(2).Vec3())
	}
}

func TestComposeSegmentEndpointsLandOnAnchors(t *testing.T) {
	cases := []struct {
		name     string
		previous mgl64.Vec3
		current  mgl64.Vec3
	}{
		{"horizontal", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{4, 0, 0}},
		{"diagonal", mgl64.Vec3{1, 2, 3}, mgl64.Vec3{-2, 5, 7}},
		{"downward_degenerate", mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, 0, 0}},
		{"near_degenerate", mgl64.Vec3{0, 10, 1e-13}, mgl64.Vec3{0, 0, 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := ComposeSegment(tc.previous, tc.current)

			// The cylinder's top cap centre must land on the current anchor
			// (the segment frame's origin) and the bottom cap centre on the
			// previous anchor, both expressed relative to the current one.
			top := applySegment(m, mgl64.Vec3{0, 0.5, 0})
			bottom := applySegment(m, mgl64.Vec3{0, -0.5, 0})

			if !vecsClose(top, mgl64.Vec3{0, 0, 0}) {
				t.Errorf("top cap = %v, want origin", top)
			}
			if want := tc.previous.Sub(tc.current); !vecsClose(bottom, want) {
				t.Errorf("bottom cap = %v, want %v", bottom, want)
			}

			// Cross-section axes stay unit length.
			if sx := m.Col(0).Vec3().Len(); math.Abs(sx-1) > 1e-9 {
				t.Errorf("x scale = %f, want 1", sx)
			}
			if sz := m.Col(2).Vec3().Len(); math.Abs(sz-1) > 1e-9 {
				t.Errorf("z scale = %f, want 1", sz)
			}
		})
	}
}

func TestComposeSegmentCoincidentAnchors(t *testing.T) {
	m := ComposeSegment(mgl64.Vec3{3, 3, 3}, mgl64.Vec3{3, 3, 3})
	if sy := m.Col(1).Vec3().Len(); sy != 0 {
		t.Errorf("coincident anchors should collapse the vertical axis, scale = %f", sy)
	}
	for i, v := range m {
		if math.IsNaN(v) {
			t.Fatalf("NaN at element %d", i)
		}
	}
}

func TestPathRefreshClipsToRenderSphere(t *testing.T) {
	path := NewPath(
		mgl64.Vec3{0, 0, 0},
		mgl64.Vec3{10, 0, 0},
		mgl64.Vec3{200, 0, 0},
		mgl64.Vec3{300, 0, 0},
	)

	bounds := model.Sphere{Center: mgl64.Vec3{0, 0, 0}, Radius: 50}
	segs := path.Refresh(bounds)

	// Segment 1 fully inside, segment 2 clipped at the boundary, segment 3
	// entirely beyond the draw distance.
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if !vecsClose(segs[0].Start, mgl64.Vec3{0, 0, 0}) || !vecsClose(segs[0].End, mgl64.Vec3{10, 0, 0}) {
		t.Errorf("segment 0 = %v..%v, want unclipped", segs[0].Start, segs[0].End)
	}
	if !vecsClose(segs[1].End, mgl64.Vec3{50, 0, 0}) {
		t.Errorf("segment 1 end = %v, want clipped to (50,0,0)", segs[1].End)
	}

	// Refreshing again replaces, not appends.
	if again := path.Refresh(bounds); len(again) != 2 {
		t.Errorf("second Refresh produced %d segments, want 2", len(again))
	}
}

func TestToRenderTransformNarrowsAtTheEnd(t *testing.T) {
	m := ComposeSegment(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 5, 0})
	r := ToRenderTransform(m)
	for i := range m {
		if math.Abs(float64(r[i])-m[i]) > 1e-6 {
			t.Fatalf("element %d differs: %f vs %f", i, r[i], m[i])
		}
	}
}
