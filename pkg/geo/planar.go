package geo

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/lintang-b-s/navmatch/pkg/util"
)

// Projection. local equirectangular plane anchored at an origin; x east, y north, both in meter.
// distortion stays below a few centimeters per kilometer for routes of city/regional extent.
type Projection struct {
	origin Coordinate
	cosLat float64
}

func NewProjection(origin Coordinate) Projection {
	return Projection{
		origin: origin,
		cosLat: math.Cos(util.DegreeToRadians(origin.Lat)),
	}
}

func (p Projection) Origin() Coordinate {
	return p.origin
}

func (p Projection) ToPlanar(c Coordinate) r2.Point {
	x := util.DegreeToRadians(c.Lon-p.origin.Lon) * p.cosLat * EarthRadiusM
	y := util.DegreeToRadians(c.Lat-p.origin.Lat) * EarthRadiusM
	return r2.Point{X: x, Y: y}
}

func (p Projection) FromPlanar(pt r2.Point) Coordinate {
	lat := p.origin.Lat + util.RadiansToDegree(pt.Y/EarthRadiusM)
	lon := p.origin.Lon
	if p.cosLat > 1e-12 {
		lon += util.RadiansToDegree(pt.X / (EarthRadiusM * p.cosLat))
	}
	return NewCoordinate(lat, lon)
}

// ProjectOntoSegment. perpendicular projection of p onto segment (a,b).
// returns the parametric position t in [0,1] and the projected point.
// a zero-length segment projects everything onto a with t = 0.
func ProjectOntoSegment(p, a, b r2.Point) (float64, r2.Point) {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq <= 1e-12 {
		return 0, a
	}
	t := util.Clamp(p.Sub(a).Dot(ab)/lenSq, 0.0, 1.0)
	return t, a.Add(ab.Mul(t))
}
