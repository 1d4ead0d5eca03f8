package heading

import (
	"time"

	"github.com/jengzang/location-bridge-go/internal/spatial"
)

// DeclinationModel yields the angle from magnetic north to true north at a position.
// Positive values mean magnetic north lies east of true north.
type DeclinationModel interface {
	Declination(lat, lon, altitude float64, at time.Time) float64
}

// Geomagnetic north pole used by DipoleModel (IGRF-13 epoch 2020)
const (
	GeomagneticPoleLatitude  = 80.65
	GeomagneticPoleLongitude = -72.68
)

// DipoleModel approximates the field as a tilted dipole: horizontal field lines
// point along the great circle towards the geomagnetic pole.
type DipoleModel struct {
	PoleLatitude  float64
	PoleLongitude float64
}

// NewDipoleModel returns a model centered on the current geomagnetic pole
func NewDipoleModel() DipoleModel {
	return DipoleModel{
		PoleLatitude:  GeomagneticPoleLatitude,
		PoleLongitude: GeomagneticPoleLongitude,
	}
}

// Declination implements DeclinationModel. Altitude and time do not affect a dipole.
func (m DipoleModel) Declination(lat, lon, _ float64, _ time.Time) float64 {
	bearing := spatial.Bearing(lat, lon, m.PoleLatitude, m.PoleLongitude)
	return spatial.SignedAngleDegrees(bearing)
}
