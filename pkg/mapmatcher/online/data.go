package online

import (
	"time"

	"github.com/golang/geo/r2"
	"github.com/lintang-b-s/navmatch/pkg/geo"
)

// RouteSegment. two consecutive polyline points of the active route. immutable once built.
type RouteSegment struct {
	Index                  int
	Start, End             geo.Coordinate
	StartPoint, EndPoint   r2.Point // planar, meter
	Length                 float64  // meter
	CumulativeDistance     float64  // meter, route start to Start
	Bearing                float64  // degree, [0,360)
	Curvature              float64  // degree per meter, bearing change toward the next segment
	StepIndex              int
	DistanceToNextManeuver float64 // meter, Start to the end of the owning step
	DistanceFromManeuver   float64 // meter, start of the owning step to Start
}

func (s RouteSegment) IsDegenerate() bool {
	return s.Length <= 1e-6
}

// Corridor. contiguous window of segment indices [Start, End].
type Corridor struct {
	Start  int
	End    int
	Center int
}

func (c Corridor) Len() int {
	return c.End - c.Start + 1
}

// Candidate. one position hypothesis for the current fix.
type Candidate struct {
	Coordinate             geo.Coordinate `json:"coordinate"`
	DistanceFromRoute      float64        `json:"distance_from_route"` // meter
	Progress               float64        `json:"progress"`            // meter along the route
	Heading                float64        `json:"heading"`
	HasHeading             bool           `json:"has_heading"`
	SegmentIndex           int            `json:"segment_index"`
	StepIndex              int            `json:"step_index"`
	Curvature              float64        `json:"curvature"`
	DistanceToNextManeuver float64        `json:"distance_to_next_maneuver"`
	HeadingDifference      float64        `json:"heading_difference"`
	NearFork               bool           `json:"near_fork"`

	Scored     bool    `json:"scored"`
	Emission   float64 `json:"emission"`
	Transition float64 `json:"transition"`
	Total      float64 `json:"total"`
}

// EnhancedLocation. one smoothed, route anchored output of the matcher.
type EnhancedLocation struct {
	Coordinate       geo.Coordinate `json:"coordinate"`
	Heading          *float64       `json:"heading,omitempty"`
	Speed            float64        `json:"speed"`
	Timestamp        time.Time      `json:"timestamp"`
	Confidence       float64        `json:"confidence"`
	MatchedCandidate Candidate      `json:"matched_candidate"`
	DeadReckoned     bool           `json:"dead_reckoned"`
}

// Observation. the raw fix as seen by the candidate generator.
type Observation struct {
	Point  r2.Point // planar position of the fix
	Course float64  // degree, < 0 unknown
}

// ScoringContext. everything the scoring engine needs besides the candidates.
type ScoringContext struct {
	Previous             *Candidate
	Speed                float64 // m/s, unclamped
	Elapsed              float64 // second
	ExpectedDisplacement float64 // meter, < 0 derives it from Speed and Elapsed
}

func float64Ptr(v float64) *float64 {
	return &v
}
