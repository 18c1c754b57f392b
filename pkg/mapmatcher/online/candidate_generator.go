package online

import (
	"math"
	"sort"

	"github.com/lintang-b-s/navmatch/pkg/geo"
	"github.com/lintang-b-s/navmatch/pkg/util"
)

// ProjectionCandidateGenerator. one candidate per window segment, by perpendicular projection.
type ProjectionCandidateGenerator struct{}

func NewProjectionCandidateGenerator() *ProjectionCandidateGenerator {
	return &ProjectionCandidateGenerator{}
}

// Generate. candidates sorted by (distance from route asc, heading difference asc), at most cfg.MaxCandidates.
func (cg *ProjectionCandidateGenerator) Generate(obs Observation, segments []RouteSegment, cfg Config) []Candidate {
	if len(segments) == 0 || !util.IsFinite(obs.Point.X) || !util.IsFinite(obs.Point.Y) {
		return nil
	}

	candidates := make([]Candidate, 0, len(segments))
	for _, seg := range segments {
		candidates = append(candidates, projectOntoSegment(obs, seg, cfg))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].DistanceFromRoute != candidates[j].DistanceFromRoute {
			return candidates[i].DistanceFromRoute < candidates[j].DistanceFromRoute
		}
		return candidates[i].HeadingDifference < candidates[j].HeadingDifference
	})

	if cfg.MaxCandidates > 0 && len(candidates) > cfg.MaxCandidates {
		candidates = candidates[:cfg.MaxCandidates]
	}
	return candidates
}

func projectOntoSegment(obs Observation, seg RouteSegment, cfg Config) Candidate {
	var (
		t         float64
		projected = seg.StartPoint
	)
	if !seg.IsDegenerate() {
		t, projected = geo.ProjectOntoSegment(obs.Point, seg.StartPoint, seg.EndPoint)
	}
	inSegment := t * seg.Length

	headingDiff := 0.0
	if obs.Course >= 0 && util.IsFinite(obs.Course) && !seg.IsDegenerate() {
		headingDiff = geo.BearingDifference(obs.Course, seg.Bearing)
	}

	toManeuver := math.Max(0, seg.DistanceToNextManeuver-inSegment)
	fromManeuver := seg.DistanceFromManeuver + inSegment
	nearFork := toManeuver <= cfg.NearForkRadius ||
		(seg.StepIndex > 0 && fromManeuver <= cfg.NearForkRadius)

	return Candidate{
		Coordinate:             geo.Interpolate(seg.Start, seg.End, t),
		DistanceFromRoute:      obs.Point.Sub(projected).Norm(),
		Progress:               seg.CumulativeDistance + inSegment,
		Heading:                seg.Bearing,
		HasHeading:             !seg.IsDegenerate(),
		SegmentIndex:           seg.Index,
		StepIndex:              seg.StepIndex,
		Curvature:              seg.Curvature,
		DistanceToNextManeuver: toManeuver,
		HeadingDifference:      headingDiff,
		NearFork:               nearFork,
	}
}
