package spatial

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/jengzang/location-bridge-go/internal/models"
)

// RegionCap builds the spherical cap covered by a circular geofence
func RegionCap(r models.GeofenceRegion) s2.Cap {
	center := s2.PointFromLatLng(s2.LatLngFromDegrees(r.Latitude, r.Longitude))
	angle := s1.Angle(r.Radius / EarthRadiusMeters)
	return s2.CapFromCenterAngle(center, angle)
}

// Contains reports whether the fix lies inside the region
func Contains(r models.GeofenceRegion, c models.Coords) bool {
	p := s2.PointFromLatLng(s2.LatLngFromDegrees(c.Latitude, c.Longitude))
	return RegionCap(r).ContainsPoint(p)
}

// RegionStateFor returns inside or outside for a fix
func RegionStateFor(r models.GeofenceRegion, c models.Coords) models.RegionState {
	if Contains(r, c) {
		return models.RegionStateInside
	}
	return models.RegionStateOutside
}
