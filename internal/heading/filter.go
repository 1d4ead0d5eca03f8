package heading

import (
	"math"
	"time"

	"github.com/jengzang/location-bridge-go/internal/models"
)

// Debounce policy for the sensor stream
const (
	DegreeDelta = 0.0355                // radians, about 2 degrees
	TimeDelta   = 50 * time.Millisecond // minimum gap between emissions
)

// Filter holds the per-watch compass state and decides when a reading is worth emitting.
// It is not safe for concurrent use.
type Filter struct {
	lastAzimuth float64
	lastUpdate  time.Time

	gravity     [3]float64
	geomagnetic [3]float64
	haveGravity bool
	haveMag     bool

	accuracy    int
	declination *float64
}

// NewFilter creates a filter with no samples and no declination
func NewFilter() *Filter {
	return &Filter{}
}

// SetGravity stores the latest accelerometer sample
func (f *Filter) SetGravity(v [3]float64) {
	f.gravity = v
	f.haveGravity = true
}

// SetGeomagnetic stores the latest magnetometer sample
func (f *Filter) SetGeomagnetic(v [3]float64) {
	f.geomagnetic = v
	f.haveMag = true
}

// SetAccuracy stores the sensor accuracy reported by the platform
func (f *Filter) SetAccuracy(accuracy int) {
	f.accuracy = accuracy
}

// SetDeclination caches the magnetic declination in degrees
func (f *Filter) SetDeclination(deg float64) {
	f.declination = &deg
}

// Declination returns the cached declination
func (f *Filter) Declination() (float64, bool) {
	if f.declination == nil {
		return 0, false
	}
	return *f.declination, true
}

// Ready reports whether both sensor vectors have been seen
func (f *Filter) Ready() bool {
	return f.haveGravity && f.haveMag
}

// Update computes the orientation from the stored samples and runs it through Offer
func (f *Filter) Update(now time.Time, trueNorthAllowed bool) (models.Heading, bool) {
	if !f.Ready() {
		return models.Heading{}, false
	}
	r, ok := RotationMatrix(f.gravity, f.geomagnetic)
	if !ok {
		return models.Heading{}, false
	}
	return f.Offer(Orientation(r)[0], now, trueNorthAllowed)
}

// Offer emits a heading only when the azimuth moved more than DegreeDelta
// and more than TimeDelta passed since the previous emission.
func (f *Filter) Offer(azimuth float64, now time.Time, trueNorthAllowed bool) (models.Heading, bool) {
	if math.Abs(azimuth-f.lastAzimuth) <= DegreeDelta {
		return models.Heading{}, false
	}
	if !f.lastUpdate.IsZero() && now.Sub(f.lastUpdate) <= TimeDelta {
		return models.Heading{}, false
	}

	f.lastAzimuth = azimuth
	f.lastUpdate = now

	mag := MagneticNorth(azimuth)
	return models.Heading{
		TrueHeading: f.trueNorth(mag, trueNorthAllowed),
		MagHeading:  mag,
		Accuracy:    f.accuracy,
	}, true
}

func (f *Filter) trueNorth(mag float64, allowed bool) float64 {
	if !allowed || f.declination == nil {
		return models.UnknownHeading
	}
	return math.Mod(mag+*f.declination+360, 360)
}
