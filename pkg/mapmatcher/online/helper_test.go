package online

import (
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"github.com/lintang-b-s/navmatch/pkg/datastructure"
	"github.com/lintang-b-s/navmatch/pkg/geo"
	"github.com/stretchr/testify/assert"
)

var (
	testOrigin = geo.NewCoordinate(-7.7500, 110.3700)
	testStart  = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
)

// northOf. point `meters` north of testOrigin, on the same meridian.
func northOf(meters float64) geo.Coordinate {
	return geo.Destination(testOrigin, 0, meters)
}

// straightRoute. one step going north, nSegments segments of segLength meter.
func straightRoute(nSegments int, segLength float64) *datastructure.Route {
	points := make([]geo.Coordinate, nSegments+1)
	for i := range points {
		points[i] = northOf(float64(i) * segLength)
	}
	return datastructure.NewRoute([]datastructure.RouteStep{
		datastructure.NewRouteStep(points, 0, "head north"),
	})
}

func fixAt(c geo.Coordinate, course, speed, accuracy float64, at time.Duration) *datastructure.GPSPoint {
	return datastructure.NewGPSFix(c.Lat, c.Lon, course, speed, accuracy, testStart.Add(at))
}

// stubIndex. fixed window, no geometry.
type stubIndex struct {
	segments     []RouteSegment
	windowLength float64
	refreshed    int
}

func (si *stubIndex) Build(route *datastructure.Route)                 {}
func (si *stubIndex) SetCorridorWindowLength(meters float64)           { si.windowLength = meters }
func (si *stubIndex) RefreshCorridor(coord geo.Coordinate)             { si.refreshed++ }
func (si *stubIndex) WindowSegments() []RouteSegment                   { return si.segments }
func (si *stubIndex) Project(coord geo.Coordinate) r2.Point            { return r2.Point{} }
func (si *stubIndex) CurrentCorridor() (Corridor, bool) {
	return Corridor{Start: 0, End: len(si.segments) - 1}, len(si.segments) > 0
}
func (si *stubIndex) NearestSegment(coord geo.Coordinate) (RouteSegment, bool) {
	if len(si.segments) == 0 {
		return RouteSegment{}, false
	}
	return si.segments[0], true
}

// queueGenerator. returns the queued candidate lists one tick at a time.
type queueGenerator struct {
	queue [][]Candidate
}

func (qg *queueGenerator) Generate(obs Observation, segments []RouteSegment, cfg Config) []Candidate {
	if len(qg.queue) == 0 {
		return nil
	}
	next := qg.queue[0]
	qg.queue = qg.queue[1:]
	return next
}

// orderScorer. keeps the generator order, totals strictly decreasing.
type orderScorer struct{}

func (orderScorer) Score(candidates []Candidate, sc ScoringContext, cfg Config) []Candidate {
	out := make([]Candidate, len(candidates))
	for i, c := range candidates {
		c.Scored = true
		c.Total = float64(len(candidates) - i)
		out[i] = c
	}
	return out
}

func assertHeading(t *testing.T, want, got float64) {
	t.Helper()
	assert.Less(t, geo.BearingDifference(want, got), 1e-6, "heading %v, want %v", got, want)
}
