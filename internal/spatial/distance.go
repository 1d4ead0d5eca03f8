package spatial

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/jengzang/location-bridge-go/internal/models"
)

// HaversineDistance calculates the great-circle distance between two points in meters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Displacement returns the distance in meters between two fixes
func Displacement(a, b models.Coords) float64 {
	return HaversineDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// Bearing calculates the initial bearing (forward azimuth) from point 1 to point 2
// Returns bearing in degrees (0-360), where 0 is North, 90 is East, etc.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)

	lat1Rad := p1.Lat.Radians()
	lat2Rad := p2.Lat.Radians()
	lonDiff := p2.Lng.Radians() - p1.Lng.Radians()

	y := math.Sin(lonDiff) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(lonDiff)
	bearing := math.Atan2(y, x)

	bearingDeg := bearing * 180 / math.Pi
	return math.Mod(bearingDeg+360, 360)
}

// SignedAngleDegrees normalizes an angle in degrees to (-180, 180]
func SignedAngleDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	}
	if deg <= -180 {
		deg += 360
	}
	return deg
}

// EarthRadiusMeters is the Earth's mean radius
const EarthRadiusMeters = 6371000.0
