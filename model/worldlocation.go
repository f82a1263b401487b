package model

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// GeodeticCoordinate is a position on (or above) the Earth in degrees and
// metres. It is only meaningful for local-frame work when paired with a
// transform via a reference location.
type GeodeticCoordinate struct {
	Latitude  float64 // degrees, north positive
	Longitude float64 // degrees, east positive
	Elevation float64 // metres above the reference ellipsoid
}

// WorldLocation ties a geodetic coordinate to a transform in the device's
// local tracking frame. The geodetic fields are only as accurate as the
// distance from the reference location allows: the mapping is a local
// flat-earth linearization, sub-centimetre at short range and degrading
// with distance.
//
// Local-frame axis convention: +x east, +y up, -z north.
type WorldLocation struct {
	Coordinate GeodeticCoordinate
	Transform  mgl64.Mat4
}

// Position returns the translation component of the location's transform.
func (w WorldLocation) Position() mgl64.Vec3 {
	return w.Transform.Col(3).Vec3()
}

// Fix is a single geodetic fix delivered asynchronously by a location
// service.
type Fix struct {
	Coordinate         GeodeticCoordinate
	HorizontalAccuracy float64 // metres; <= 0 means unknown
	Timestamp          time.Time
}
