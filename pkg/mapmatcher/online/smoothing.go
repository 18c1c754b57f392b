package online

import (
	"time"

	"github.com/lintang-b-s/navmatch/pkg/geo"
	"github.com/lintang-b-s/navmatch/pkg/util"
)

// SmoothPosition. exponential move from prev toward target by alpha, step length capped at maxStep meter.
func SmoothPosition(prev, target geo.Coordinate, alpha, maxStep float64) geo.Coordinate {
	proj := geo.NewProjection(prev)
	step := proj.ToPlanar(target).Mul(util.Clamp(alpha, 0.0, 1.0))
	if n := step.Norm(); maxStep >= 0 && n > maxStep {
		step = step.Mul(maxStep / n)
	}
	out := proj.FromPlanar(step)
	if !out.IsValid() {
		return prev
	}
	return out
}

// SmoothHeading. circular exponential average, result in [0,360).
func SmoothHeading(prev, target, alpha float64) float64 {
	return geo.BlendBearing(prev, target, util.Clamp(alpha, 0.0, 1.0))
}

// BlendFactor. progress of a blend that started `since` ago, in [0,1].
func BlendFactor(since, duration time.Duration) float64 {
	if duration <= 0 {
		return 1
	}
	return util.Clamp(since.Seconds()/duration.Seconds(), 0.0, 1.0)
}

func BlendCoordinate(anchor, target geo.Coordinate, f float64) geo.Coordinate {
	return geo.Interpolate(anchor, target, util.Clamp(f, 0.0, 1.0))
}
