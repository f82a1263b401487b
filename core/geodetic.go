package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tidwall/geodesic"

	"github.com/northlightlabs/arspatial/model"
)

// Earth radii in metres (WGS-84).
const (
	EquatorialRadiusM = 6378137.0
	PolarRadiusM      = 6356752.3142

	// MeanEarthRadiusM is used by the Haversine branch of Distance.
	MeanEarthRadiusM = (EquatorialRadiusM + PolarRadiusM) / 2

	// flatDistanceLimitM is the range within which the flat-earth Euclidean
	// distance is accurate enough (and much cheaper) than a great-circle
	// computation.
	flatDistanceLimitM = 50000.0
)

// MetersPerDegreeLatitude returns the north-south metre length of one degree
// of latitude at the given latitude, using the standard polynomial fit.
//
// The coefficients are empirical and must not be re-derived: externally
// persisted spatial data depends on these exact values.
func MetersPerDegreeLatitude(latitudeDeg float64) float64 {
	phi := mgl64.DegToRad(latitudeDeg)
	return 111132.92 -
		559.82*math.Cos(2*phi) +
		1.175*math.Cos(4*phi) -
		0.0023*math.Cos(6*phi)
}

// MetersPerDegreeLongitude returns the east-west metre length of one degree
// of longitude at the given latitude. See MetersPerDegreeLatitude for the
// coefficient compatibility constraint.
func MetersPerDegreeLongitude(latitudeDeg float64) float64 {
	phi := mgl64.DegToRad(latitudeDeg)
	return 111412.84*math.Cos(phi) -
		93.5*math.Cos(3*phi) +
		0.118*math.Cos(5*phi)
}

// WorldLocationFromTransform derives the geodetic coordinate of a local
// transform from its positional delta against the reference location.
// Accuracy decays with distance from the reference; that is a property of
// the flat-earth linearization, not a defect.
func WorldLocationFromTransform(transform mgl64.Mat4, reference model.WorldLocation) model.WorldLocation {
	delta := transform.Col(3).Vec3().Sub(reference.Position())

	// +x east, +y up, -z north.
	eastM := delta.X()
	upM := delta.Y()
	northM := -delta.Z()

	lat := reference.Coordinate.Latitude
	return model.WorldLocation{
		Coordinate: model.GeodeticCoordinate{
			Latitude:  lat + northM/MetersPerDegreeLatitude(lat),
			Longitude: reference.Coordinate.Longitude + eastM/MetersPerDegreeLongitude(lat),
			Elevation: reference.Coordinate.Elevation + upM,
		},
		Transform: transform,
	}
}

// WorldLocationFromGeodetic derives a local transform for a geodetic
// coordinate by translating the reference transform. The north-south and
// east-west offsets are obtained from the geodesic inverse evaluated twice,
// once holding longitude fixed and once holding latitude fixed, with signs
// chosen from the relative ordering of the coordinates.
func WorldLocationFromGeodetic(latitude, longitude, elevation float64, reference model.WorldLocation) model.WorldLocation {
	ref := reference.Coordinate

	var northM float64
	geodesic.WGS84.Inverse(ref.Latitude, ref.Longitude, latitude, ref.Longitude, &northM, nil, nil)
	if latitude < ref.Latitude {
		northM = -northM
	}

	var eastM float64
	geodesic.WGS84.Inverse(ref.Latitude, ref.Longitude, ref.Latitude, longitude, &eastM, nil, nil)
	if longitude < ref.Longitude {
		eastM = -eastM
	}

	upM := elevation - ref.Elevation

	// World-frame translation of the reference transform: +x east, +y up,
	// -z north.
	transform := mgl64.Translate3D(eastM, upM, -northM).Mul4(reference.Transform)

	return model.WorldLocation{
		Coordinate: model.GeodeticCoordinate{
			Latitude:  latitude,
			Longitude: longitude,
			Elevation: elevation,
		},
		Transform: transform,
	}
}

// Distance returns the distance in metres between two world locations.
// Within 50 km it is the Euclidean distance between the transform positions
// (the flat-earth approximation is accurate and cheap at that scale); beyond
// that it falls back to the Haversine great-circle distance on the mean
// Earth radius.
func Distance(a, b model.WorldLocation) float64 {
	euclidean := a.Position().Sub(b.Position()).Len()
	if euclidean <= flatDistanceLimitM {
		return euclidean
	}
	return HaversineDistance(a.Coordinate, b.Coordinate)
}

// HaversineDistance returns the great-circle distance in metres between two
// geodetic coordinates on the mean Earth radius, ignoring elevation.
func HaversineDistance(a, b model.GeodeticCoordinate) float64 {
	lat1 := mgl64.DegToRad(a.Latitude)
	lat2 := mgl64.DegToRad(b.Latitude)
	dLat := lat2 - lat1
	dLon := mgl64.DegToRad(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return 2 * MeanEarthRadiusM * math.Asin(math.Min(1, math.Sqrt(h)))
}
