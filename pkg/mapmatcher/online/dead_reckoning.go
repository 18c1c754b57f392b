package online

import (
	"math"
	"time"

	"github.com/lintang-b-s/navmatch/pkg/datastructure"
	"github.com/lintang-b-s/navmatch/pkg/geo"
)

type deadReckoningState struct {
	lastPrediction EnhancedLocation
	startedAt      time.Time
}

type blendState struct {
	anchor EnhancedLocation
	start  time.Time
}

// deadReckoningReason. empty string when the fix can be matched normally.
func deadReckoningReason(fix *datastructure.GPSPoint, window []RouteSegment, elapsed float64, cfg Config) string {
	switch {
	case len(window) == 0:
		return "empty corridor"
	case fix.HorizontalAccuracy() > cfg.DeadReckoningAccuracyThreshold:
		return "low accuracy"
	case !fix.HasValidSpeed():
		return "invalid speed"
	case elapsed > cfg.DeadReckoningTimeGap.Seconds():
		return "time gap"
	}
	return ""
}

// predictDeadReckoning. project prev forward along its heading, distance capped at cfg.DeadReckoningMaxDistance.
func predictDeadReckoning(prev EnhancedLocation, fix *datastructure.GPSPoint, now time.Time, elapsed float64,
	cfg Config) EnhancedLocation {
	speed := ClampSpeed(prev.Speed)
	if fix.HasValidSpeed() {
		speed = ClampSpeed(fix.Speed())
	}

	var (
		heading    float64
		hasHeading = true
	)
	switch {
	case prev.Heading != nil:
		heading = *prev.Heading
	case prev.MatchedCandidate.HasHeading:
		heading = prev.MatchedCandidate.Heading
	case fix.HasCourse():
		heading = geo.NormalizeBearing(fix.Course())
	default:
		hasHeading = false
	}

	coord := prev.Coordinate
	if hasHeading {
		dist := math.Min(speed*elapsed, cfg.DeadReckoningMaxDistance)
		if dist > 0 {
			coord = geo.Destination(prev.Coordinate, heading, dist)
		}
		if !coord.IsValid() {
			coord = prev.Coordinate
		}
	}

	loc := EnhancedLocation{
		Coordinate:       coord,
		Speed:            speed,
		Timestamp:        now,
		Confidence:       math.Max(0, prev.Confidence-DEAD_RECKONING_CONFIDENCE_DECAY),
		MatchedCandidate: prev.MatchedCandidate,
		DeadReckoned:     true,
	}
	if hasHeading {
		loc.Heading = float64Ptr(heading)
	}
	return loc
}
