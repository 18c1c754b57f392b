package geo

import (
	"math"

	"github.com/lintang-b-s/navmatch/pkg/util"
)

/*
BearingTo. initial bearing of the great-circle path (p1,p2), in [0,360).
https://www.movable-type.co.uk/scripts/latlong.html
*/
func BearingTo(p1Lat, p1Lon, p2Lat, p2Lon float64) float64 {

	dLon := util.DegreeToRadians(p2Lon - p1Lon)

	lat1 := util.DegreeToRadians(p1Lat)
	lat2 := util.DegreeToRadians(p2Lat)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) -
		math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	brng := math.Mod(util.RadiansToDegree(math.Atan2(y, x))+360, 360.0)

	return brng
}

// NormalizeBearing. wrap any finite angle into [0,360). non-finite input returns 0.
func NormalizeBearing(b float64) float64 {
	if !util.IsFinite(b) {
		return 0
	}
	b = math.Mod(b, 360)
	if b < 0 {
		b += 360
	}
	if b >= 360 {
		b = 0
	}
	return b
}

// SignedBearingDelta. shortest signed rotation from a to b, in (-180,180].
func SignedBearingDelta(a, b float64) float64 {
	d := math.Mod(NormalizeBearing(b)-NormalizeBearing(a)+540, 360) - 180
	if d == -180 {
		return 180
	}
	return d
}

// BearingDifference. circular absolute difference in [0,180].
func BearingDifference(a, b float64) float64 {
	return math.Abs(SignedBearingDelta(a, b))
}

// BlendBearing. move from `from` toward `to` by fraction alpha along the shorter arc.
func BlendBearing(from, to, alpha float64) float64 {
	return NormalizeBearing(from + alpha*SignedBearingDelta(from, to))
}
