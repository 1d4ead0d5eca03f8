// Package heading turns raw accelerometer and magnetometer samples into
// debounced compass readings.
package heading

import "math"

// StandardGravity in m/s²
const StandardGravity = 9.80665

// freeFallGravitySquared is the squared norm below which the device is treated as falling
const freeFallGravitySquared = 0.01 * StandardGravity * 0.01 * StandardGravity

// RotationMatrix computes the row-major 3x3 matrix transforming device coordinates
// into world coordinates (x east, y magnetic north, z up). It reports false when
// the inputs cannot define an orientation: free fall, or a magnetic vector parallel to gravity.
func RotationMatrix(gravity, geomagnetic [3]float64) ([9]float64, bool) {
	var r [9]float64

	ax, ay, az := gravity[0], gravity[1], gravity[2]
	normSqA := ax*ax + ay*ay + az*az
	if normSqA < freeFallGravitySquared {
		return r, false
	}

	ex, ey, ez := geomagnetic[0], geomagnetic[1], geomagnetic[2]
	hx := ey*az - ez*ay
	hy := ez*ax - ex*az
	hz := ex*ay - ey*ax
	normH := math.Sqrt(hx*hx + hy*hy + hz*hz)
	if normH < 0.1 {
		return r, false
	}

	invH := 1.0 / normH
	hx *= invH
	hy *= invH
	hz *= invH

	invA := 1.0 / math.Sqrt(normSqA)
	ax *= invA
	ay *= invA
	az *= invA

	mx := ay*hz - az*hy
	my := az*hx - ax*hz
	mz := ax*hy - ay*hx

	r = [9]float64{
		hx, hy, hz,
		mx, my, mz,
		ax, ay, az,
	}
	return r, true
}

// Orientation returns azimuth, pitch and roll in radians from a rotation matrix.
// Azimuth is in (-π, π], zero pointing at magnetic north.
func Orientation(r [9]float64) [3]float64 {
	return [3]float64{
		math.Atan2(r[1], r[4]),
		math.Asin(-r[7]),
		math.Atan2(-r[6], r[8]),
	}
}

// MagneticNorth converts an azimuth in radians to a heading in [0, 360)
func MagneticNorth(azimuth float64) float64 {
	deg := azimuth * 180 / math.Pi
	return math.Mod(deg+360, 360)
}
