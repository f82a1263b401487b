package model

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// EffectKind enumerates the known time-varying render effects. The set is
// closed: renderers switch on the kind and read a concretely typed value,
// no dynamic casting.
type EffectKind int

const (
	EffectAlpha EffectKind = iota
	EffectGlow
	EffectTint
	EffectScale
)

// Effect is a time-varying render-effect value. Scalar kinds (alpha, glow,
// scale) interpolate between StartValue and EndValue; EffectTint
// interpolates between StartTint and EndTint. A zero Period holds the start
// value constant; otherwise the value pulses start -> end -> start over one
// period.
type Effect struct {
	Kind EffectKind

	StartValue float64
	EndValue   float64
	StartTint  mgl64.Vec3
	EndTint    mgl64.Vec3

	Period time.Duration
}

// ConstantAlpha returns an alpha effect pinned to the given value.
func ConstantAlpha(v float64) Effect {
	return Effect{Kind: EffectAlpha, StartValue: v}
}

// PulsingScale returns a scale effect that pulses between lo and hi.
func PulsingScale(lo, hi float64, period time.Duration) Effect {
	return Effect{Kind: EffectScale, StartValue: lo, EndValue: hi, Period: period}
}

// ScalarValue evaluates a scalar effect at the given time. The second
// return is false for tint effects.
func (e Effect) ScalarValue(at time.Time) (float64, bool) {
	if e.Kind == EffectTint {
		return 0, false
	}
	return lerp(e.StartValue, e.EndValue, e.phase(at)), true
}

// TintValue evaluates a tint effect at the given time. The second return is
// false for scalar effects.
func (e Effect) TintValue(at time.Time) (mgl64.Vec3, bool) {
	if e.Kind != EffectTint {
		return mgl64.Vec3{}, false
	}
	t := e.phase(at)
	return mgl64.Vec3{
		lerp(e.StartTint.X(), e.EndTint.X(), t),
		lerp(e.StartTint.Y(), e.EndTint.Y(), t),
		lerp(e.StartTint.Z(), e.EndTint.Z(), t),
	}, true
}

// phase maps a wall-clock instant onto [0,1]: 0 at the start of a period,
// 1 at the midpoint, back to 0 at the end (triangle wave).
func (e Effect) phase(at time.Time) float64 {
	if e.Period <= 0 {
		return 0
	}
	frac := float64(at.UnixNano()%int64(e.Period)) / float64(e.Period)
	if frac < 0.5 {
		return 2 * frac
	}
	return 2 * (1 - frac)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
