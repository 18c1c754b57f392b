package online

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/lintang-b-s/navmatch/pkg/datastructure"
	"github.com/lintang-b-s/navmatch/pkg/geo"
	"github.com/lintang-b-s/navmatch/pkg/spatialindex"
	"go.uber.org/zap"
)

// RouteGeometryIndex. segments of the active route plus a corridor window re-centered on the user.
type RouteGeometryIndex struct {
	log          *zap.Logger
	segments     []RouteSegment
	projection   geo.Projection
	rt           *spatialindex.Rtree
	totalLength  float64
	windowLength float64 // meter

	corridor    Corridor
	hasCorridor bool
}

func NewRouteGeometryIndex(windowLength float64, log *zap.Logger) *RouteGeometryIndex {
	return &RouteGeometryIndex{
		log:          log,
		windowLength: windowLength,
		segments:     make([]RouteSegment, 0),
	}
}

type rawSegment struct {
	start, end geo.Coordinate
	step       int
}

// Build. replace all segments with the ones of route. nil or empty route leaves the index empty.
func (gi *RouteGeometryIndex) Build(route *datastructure.Route) {
	gi.segments = make([]RouteSegment, 0)
	gi.rt = nil
	gi.totalLength = 0
	gi.corridor = Corridor{}
	gi.hasCorridor = false

	if route.IsEmpty() {
		return
	}

	raws := make([]rawSegment, 0)
	var (
		last    geo.Coordinate
		hasLast bool
	)
	for stepIdx, step := range route.Steps {
		for i, p := range step.Points {
			if !p.IsValid() {
				continue
			}
			if hasLast && (i > 0 || last != p) {
				// first point of a step that does not continue the previous step bridges the gap.
				raws = append(raws, rawSegment{start: last, end: p, step: stepIdx})
			}
			last = p
			hasLast = true
		}
	}
	if len(raws) == 0 {
		return
	}

	gi.projection = geo.NewProjection(raws[0].start)
	segments := make([]RouteSegment, len(raws))
	cumulative := 0.0
	for i, raw := range raws {
		length := geo.HaversineMeter(raw.start, raw.end)
		segments[i] = RouteSegment{
			Index:              i,
			Start:              raw.start,
			End:                raw.end,
			StartPoint:         gi.projection.ToPlanar(raw.start),
			EndPoint:           gi.projection.ToPlanar(raw.end),
			Length:             length,
			CumulativeDistance: cumulative,
			StepIndex:          raw.step,
		}
		if length > 1e-6 {
			segments[i].Bearing = geo.BearingTo(raw.start.Lat, raw.start.Lon, raw.end.Lat, raw.end.Lon)
		}
		cumulative += length
	}
	gi.totalLength = cumulative

	computeCurvature(segments)
	computeManeuverDistances(segments)

	gi.segments = segments

	lines := make([]spatialindex.Line, len(segments))
	for i, s := range segments {
		lines[i] = spatialindex.Line{Id: s.Index, From: s.Start, To: s.End}
	}
	gi.rt = spatialindex.NewRtree()
	gi.rt.Build(lines, RTREE_LEAF_RADIUS, gi.log)

	gi.log.Debug("route geometry index built", zap.Int("segments", len(segments)),
		zap.Float64("total_length", gi.totalLength), zap.Int("steps", len(route.Steps)))
}

// computeCurvature. bearing change toward the next non-degenerate segment, which may belong to the next step.
func computeCurvature(segments []RouteSegment) {
	for i := range segments {
		if segments[i].IsDegenerate() {
			continue
		}
		for j := i + 1; j < len(segments); j++ {
			if segments[j].IsDegenerate() {
				continue
			}
			delta := geo.BearingDifference(segments[i].Bearing, segments[j].Bearing)
			segments[i].Curvature = delta / math.Max(segments[i].Length, 1.0)
			break
		}
	}
}

func computeManeuverDistances(segments []RouteSegment) {
	for i := 0; i < len(segments); {
		j := i
		for j < len(segments) && segments[j].StepIndex == segments[i].StepIndex {
			j++
		}
		stepStart := segments[i].CumulativeDistance
		stepEnd := segments[j-1].CumulativeDistance + segments[j-1].Length
		for k := i; k < j; k++ {
			segments[k].DistanceToNextManeuver = stepEnd - segments[k].CumulativeDistance
			segments[k].DistanceFromManeuver = segments[k].CumulativeDistance - stepStart
		}
		i = j
	}
}

func (gi *RouteGeometryIndex) SetCorridorWindowLength(meters float64) {
	if meters <= 0 || meters == gi.windowLength {
		return
	}
	gi.windowLength = meters
	if gi.hasCorridor {
		gi.corridor = gi.expand(gi.corridor.Center)
	}
}

// RefreshCorridor. re-center the window on the segment nearest to coord.
func (gi *RouteGeometryIndex) RefreshCorridor(coord geo.Coordinate) {
	if len(gi.segments) == 0 || !coord.IsValid() {
		return
	}

	center := -1
	if gi.hasCorridor {
		idx, dist := gi.nearestIn(coord, gi.corridor.Start, gi.corridor.End)
		atInnerEdge := (idx == gi.corridor.Start && idx > 0) ||
			(idx == gi.corridor.End && idx < len(gi.segments)-1)
		if idx >= 0 && dist <= CORRIDOR_REACQUIRE_DISTANCE && !atInnerEdge {
			center = idx
		}
	}
	if center < 0 {
		center, _ = gi.nearestFull(coord)
	}
	if center < 0 {
		return
	}

	gi.corridor = gi.expand(center)
	gi.hasCorridor = true
}

func (gi *RouteGeometryIndex) expand(center int) Corridor {
	half := gi.windowLength / 2

	// segments that fill half the window up to float noise stop the expansion.
	fence := half - CORRIDOR_LENGTH_EPSILON

	start, covered := center, 0.0
	for start > 0 && covered < fence {
		start--
		covered += gi.segments[start].Length
	}

	end, covered := center, 0.0
	for end < len(gi.segments)-1 && covered < fence {
		end++
		covered += gi.segments[end].Length
	}

	return Corridor{Start: start, End: end, Center: center}
}

func (gi *RouteGeometryIndex) WindowSegments() []RouteSegment {
	if !gi.hasCorridor || len(gi.segments) == 0 {
		return nil
	}
	return gi.segments[gi.corridor.Start : gi.corridor.End+1 : gi.corridor.End+1]
}

func (gi *RouteGeometryIndex) CurrentCorridor() (Corridor, bool) {
	return gi.corridor, gi.hasCorridor
}

// NearestSegment. nearest segment inside the window, full route search when the window has none close enough.
func (gi *RouteGeometryIndex) NearestSegment(coord geo.Coordinate) (RouteSegment, bool) {
	if len(gi.segments) == 0 || !coord.IsValid() {
		return RouteSegment{}, false
	}
	if gi.hasCorridor {
		idx, dist := gi.nearestIn(coord, gi.corridor.Start, gi.corridor.End)
		if idx >= 0 && dist <= CORRIDOR_REACQUIRE_DISTANCE {
			return gi.segments[idx], true
		}
	}
	idx, _ := gi.nearestFull(coord)
	if idx < 0 {
		return RouteSegment{}, false
	}
	return gi.segments[idx], true
}

func (gi *RouteGeometryIndex) Project(coord geo.Coordinate) r2.Point {
	return gi.projection.ToPlanar(coord)
}

func (gi *RouteGeometryIndex) Segments() []RouteSegment {
	return gi.segments
}

func (gi *RouteGeometryIndex) TotalLength() float64 {
	return gi.totalLength
}

func (gi *RouteGeometryIndex) nearestIn(coord geo.Coordinate, from, to int) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for i := from; i <= to && i < len(gi.segments); i++ {
		d := gi.distanceTo(i, coord)
		if d < bestDist || (d == bestDist && gi.closerToCenter(i, best)) {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// nearestFull. r-tree candidates first. the r-tree answer is only exact when its distance fits inside the
// query box, otherwise a closer segment may lie outside the box and every segment is scanned.
func (gi *RouteGeometryIndex) nearestFull(coord geo.Coordinate) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	if gi.rt != nil {
		for _, i := range gi.rt.SearchWithinRadius(coord.Lat, coord.Lon, RTREE_SEARCH_RADIUS) {
			d := gi.distanceTo(i, coord)
			if d < bestDist || (d == bestDist && gi.closerToCenter(i, best)) {
				best, bestDist = i, d
			}
		}
	}
	if best >= 0 && bestDist <= rtreeExactRadius {
		return best, bestDist
	}
	return gi.nearestIn(coord, 0, len(gi.segments)-1)
}

func (gi *RouteGeometryIndex) distanceTo(i int, coord geo.Coordinate) float64 {
	s := gi.segments[i]
	return geo.PointLinePerpendicularDistance(s.Start, s.End, coord)
}

func (gi *RouteGeometryIndex) closerToCenter(i, j int) bool {
	if j < 0 {
		return true
	}
	if !gi.hasCorridor {
		return i < j
	}
	return absInt(i-gi.corridor.Center) < absInt(j-gi.corridor.Center)
}

func absInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
