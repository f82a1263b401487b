// Package fixsim provides synthetic geodetic fix sources for the demo
// binary: a circular walk around a reference coordinate, and the ground
// track of an orbiting satellite for exercising long-range distances.
package fixsim

import (
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/northlightlabs/arspatial/core"
	"github.com/northlightlabs/arspatial/model"
)

// Source produces a synthetic fix for a point in time.
type Source interface {
	FixAt(at time.Time) model.Fix
}

// WalkSource simulates a device walking a circle around a center
// coordinate.
type WalkSource struct {
	Center    model.GeodeticCoordinate
	RadiusM   float64
	SpeedMps  float64
	AccuracyM float64

	start time.Time
}

// NewWalkSource constructs a walk starting at the given time.
func NewWalkSource(center model.GeodeticCoordinate, radiusM, speedMps, accuracyM float64, start time.Time) *WalkSource {
	return &WalkSource{
		Center:    center,
		RadiusM:   radiusM,
		SpeedMps:  speedMps,
		AccuracyM: accuracyM,
		start:     start,
	}
}

// FixAt returns the walker's position at the given time.
func (w *WalkSource) FixAt(at time.Time) model.Fix {
	elapsed := at.Sub(w.start).Seconds()
	theta := elapsed * w.SpeedMps / w.RadiusM

	northM := w.RadiusM * math.Cos(theta)
	eastM := w.RadiusM * math.Sin(theta)

	return model.Fix{
		Coordinate: model.GeodeticCoordinate{
			Latitude:  w.Center.Latitude + northM/core.MetersPerDegreeLatitude(w.Center.Latitude),
			Longitude: w.Center.Longitude + eastM/core.MetersPerDegreeLongitude(w.Center.Latitude),
			Elevation: w.Center.Elevation,
		},
		HorizontalAccuracy: w.AccuracyM,
		Timestamp:          at,
	}
}

// GroundTrackSource follows the sub-satellite point of a TLE-defined orbit.
// The demo uses it as a distant moving location to exercise the great-circle
// branch of core.Distance.
type GroundTrackSource struct {
	AccuracyM float64

	sat satellite.Satellite
}

// NewGroundTrackSource constructs a source from TLE lines.
func NewGroundTrackSource(line1, line2 string, accuracyM float64) *GroundTrackSource {
	return &GroundTrackSource{
		AccuracyM: accuracyM,
		sat:       satellite.TLEToSat(line1, line2, satellite.GravityWGS72),
	}
}

// FixAt propagates the orbit to the given time and returns the nadir point.
// go-satellite works in kilometres; fixes carry metres.
func (g *GroundTrackSource) FixAt(at time.Time) model.Fix {
	year, month, day := at.Date()
	hour, min, sec := at.Clock()

	posECI, _ := satellite.Propagate(g.sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)

	r := math.Sqrt(posECEF.X*posECEF.X + posECEF.Y*posECEF.Y + posECEF.Z*posECEF.Z)
	lat := math.Asin(posECEF.Z/r) * 180 / math.Pi
	lon := math.Atan2(posECEF.Y, posECEF.X) * 180 / math.Pi

	return model.Fix{
		Coordinate: model.GeodeticCoordinate{
			Latitude:  lat,
			Longitude: lon,
			Elevation: 0, // nadir point on the surface
		},
		HorizontalAccuracy: g.AccuracyM,
		Timestamp:          at,
	}
}

// Run feeds fixes from a source into sink at the given cadence until stop is
// closed. It models the asynchronous location-service delivery boundary.
func Run(src Source, sink func(model.Fix) bool, interval time.Duration, stop <-chan struct{}) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				sink(src.FixAt(now))
			}
		}
	}()
	return done
}
