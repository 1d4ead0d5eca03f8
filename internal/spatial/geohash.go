package spatial

import "strings"

// Base32 alphabet for geohash
const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// Approximate cell width at the equator in meters, by precision
var geohashCellSizes = [...]float64{
	1: 5000000, 2: 625000, 3: 123000, 4: 19500, 5: 3900, 6: 610,
	7: 120, 8: 19, 9: 3.7, 10: 0.6, 11: 0.12, 12: 0.019,
}

// EncodeGeohash encodes latitude and longitude into a geohash string.
// precision is clamped to 1-12 characters.
func EncodeGeohash(lat, lon float64, precision int) string {
	precision = max(1, min(precision, 12))

	latRange := [2]float64{-90, 90}
	lonRange := [2]float64{-180, 180}

	var sb strings.Builder
	sb.Grow(precision)
	even := true
	for sb.Len() < precision {
		ch := 0
		for bit := 4; bit >= 0; bit-- {
			r, v := &latRange, lat
			if even {
				r, v = &lonRange, lon
			}
			mid := (r[0] + r[1]) / 2
			if v > mid {
				ch |= 1 << bit
				r[0] = mid
			} else {
				r[1] = mid
			}
			even = !even
		}
		sb.WriteByte(base32[ch])
	}
	return sb.String()
}

// GeohashBounds returns the bounding box of a geohash cell
// as (minLat, minLon, maxLat, maxLon). Invalid characters are skipped.
func GeohashBounds(geohash string) (float64, float64, float64, float64) {
	latRange := [2]float64{-90, 90}
	lonRange := [2]float64{-180, 180}

	even := true
	for i := 0; i < len(geohash); i++ {
		idx := strings.IndexByte(base32, geohash[i])
		if idx < 0 {
			continue
		}
		for bit := 4; bit >= 0; bit-- {
			r := &latRange
			if even {
				r = &lonRange
			}
			mid := (r[0] + r[1]) / 2
			if idx&(1<<bit) != 0 {
				r[0] = mid
			} else {
				r[1] = mid
			}
			even = !even
		}
	}
	return latRange[0], lonRange[0], latRange[1], lonRange[1]
}

// GeohashPrecisionForDistance returns the shortest precision whose cells are
// no wider than distanceMeters
func GeohashPrecisionForDistance(distanceMeters float64) int {
	for precision := 1; precision < len(geohashCellSizes); precision++ {
		if geohashCellSizes[precision] <= distanceMeters {
			return precision
		}
	}
	return 12
}
