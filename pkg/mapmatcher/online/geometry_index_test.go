package online

import (
	"testing"

	"github.com/lintang-b-s/navmatch/pkg/datastructure"
	"github.com/lintang-b-s/navmatch/pkg/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildSegments(t *testing.T) {
	corner := northOf(200)
	east := geo.Destination(corner, 90, 100)
	route := datastructure.NewRoute([]datastructure.RouteStep{
		datastructure.NewRouteStep([]geo.Coordinate{northOf(0), northOf(100), corner}, 0, "head north"),
		datastructure.NewRouteStep([]geo.Coordinate{corner, east}, 0, "turn right"),
	})

	gi := NewRouteGeometryIndex(600, zap.NewNop())
	gi.Build(route)
	segs := gi.Segments()
	require.Len(t, segs, 3)

	assert.InDelta(t, 0, segs[0].CumulativeDistance, 1e-9)
	assert.InDelta(t, 100, segs[1].CumulativeDistance, 0.01)
	assert.InDelta(t, 200, segs[2].CumulativeDistance, 0.01)
	assert.InDelta(t, 300, gi.TotalLength(), 0.05)

	assertHeading(t, 0, segs[0].Bearing)
	assert.InDelta(t, 90, segs[2].Bearing, 0.01)

	// the bearing change at the step boundary is visible from the last segment of step 0.
	assert.InDelta(t, 0, segs[0].Curvature, 1e-6)
	assert.InDelta(t, 0.9, segs[1].Curvature, 0.01)
	assert.Equal(t, 0.0, segs[2].Curvature)

	assert.Equal(t, 0, segs[1].StepIndex)
	assert.Equal(t, 1, segs[2].StepIndex)
	assert.InDelta(t, 200, segs[0].DistanceToNextManeuver, 0.01)
	assert.InDelta(t, 100, segs[1].DistanceToNextManeuver, 0.01)
	assert.InDelta(t, 100, segs[2].DistanceToNextManeuver, 0.01)
	assert.InDelta(t, 0, segs[2].DistanceFromManeuver, 1e-9)
}

func TestRefreshCorridor(t *testing.T) {
	gi := NewRouteGeometryIndex(600, zap.NewNop())
	gi.Build(straightRoute(20, 100))

	_, ok := gi.CurrentCorridor()
	assert.False(t, ok)
	assert.Nil(t, gi.WindowSegments())

	testCases := []struct {
		name       string
		coord      geo.Coordinate
		wantCenter int
		wantStart  int
		wantEnd    int
	}{
		{
			name:       "first fix, full route search",
			coord:      geo.Destination(northOf(1050), 90, 5),
			wantCenter: 10,
			wantStart:  7,
			wantEnd:    13,
		},
		{
			name:       "small move stays inside the window",
			coord:      geo.Destination(northOf(1150), 270, 5),
			wantCenter: 11,
			wantStart:  8,
			wantEnd:    14,
		},
		{
			name:       "jump back to the route start falls back to a full search and clamps",
			coord:      northOf(250),
			wantCenter: 2,
			wantStart:  0,
			wantEnd:    5,
		},
		{
			name:       "near the route end clamps forward",
			coord:      northOf(1990),
			wantCenter: 19,
			wantStart:  16,
			wantEnd:    19,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			gi.RefreshCorridor(tt.coord)
			c, ok := gi.CurrentCorridor()
			require.True(t, ok)
			assert.Equal(t, tt.wantCenter, c.Center)
			assert.Equal(t, tt.wantStart, c.Start)
			assert.Equal(t, tt.wantEnd, c.End)

			window := gi.WindowSegments()
			require.Len(t, window, c.Len())
			for i := 1; i < len(window); i++ {
				assert.Equal(t, window[i-1].Index+1, window[i].Index)
			}
		})
	}
}

func TestCorridorWindowLengthChange(t *testing.T) {
	gi := NewRouteGeometryIndex(600, zap.NewNop())
	gi.Build(straightRoute(40, 100))
	gi.RefreshCorridor(northOf(2050))

	c, _ := gi.CurrentCorridor()
	assert.Equal(t, 7, c.Len())

	gi.SetCorridorWindowLength(1500)
	c, _ = gi.CurrentCorridor()
	assert.Equal(t, 20, c.Center)
	assert.Equal(t, 12, c.Start)
	assert.Equal(t, 28, c.End)
}

func TestNearestSegment(t *testing.T) {
	gi := NewRouteGeometryIndex(400, zap.NewNop())
	gi.Build(straightRoute(10, 100))
	gi.RefreshCorridor(northOf(150))

	seg, ok := gi.NearestSegment(geo.Destination(northOf(180), 90, 10))
	require.True(t, ok)
	assert.Equal(t, 1, seg.Index)

	// outside the window, found through the full route fallback.
	seg, ok = gi.NearestSegment(northOf(850))
	require.True(t, ok)
	assert.Equal(t, 8, seg.Index)
}

func TestEmptyRoute(t *testing.T) {
	testCases := []struct {
		name  string
		route *datastructure.Route
	}{
		{name: "nil route", route: nil},
		{name: "no steps", route: datastructure.NewRoute(nil)},
		{name: "single point step", route: datastructure.NewRoute([]datastructure.RouteStep{
			datastructure.NewRouteStep([]geo.Coordinate{northOf(0)}, 0, ""),
		})},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			gi := NewRouteGeometryIndex(600, zap.NewNop())
			gi.Build(tt.route)
			gi.RefreshCorridor(northOf(10))

			assert.Empty(t, gi.Segments())
			assert.Nil(t, gi.WindowSegments())
			_, ok := gi.NearestSegment(northOf(10))
			assert.False(t, ok)
			_, ok = gi.CurrentCorridor()
			assert.False(t, ok)
		})
	}
}

func TestDegenerateSegment(t *testing.T) {
	route := datastructure.NewRoute([]datastructure.RouteStep{
		datastructure.NewRouteStep([]geo.Coordinate{northOf(0), northOf(0), northOf(100)}, 0, ""),
	})
	gi := NewRouteGeometryIndex(600, zap.NewNop())
	gi.Build(route)

	segs := gi.Segments()
	require.Len(t, segs, 2)
	assert.True(t, segs[0].IsDegenerate())
	assert.False(t, segs[1].IsDegenerate())
	assert.InDelta(t, 0, segs[1].CumulativeDistance, 1e-9)
}

func TestFullSearchPrefersCloserSegmentOutsideQueryBox(t *testing.T) {
	// segment 0 is a long diagonal whose bounding box covers the fix; segment 4 is closer but its box
	// is out of the r-tree query box.
	route := datastructure.NewRoute([]datastructure.RouteStep{
		datastructure.NewRouteStep([]geo.Coordinate{
			geo.NewCoordinate(0, 0),
			geo.NewCoordinate(0.02, 0.02),
			geo.NewCoordinate(0.04, 0.02),
			geo.NewCoordinate(0.04, 0),
			geo.NewCoordinate(0.017, 0),
			geo.NewCoordinate(0.017, 0.01),
		}, 0, "loop"),
	})
	fix := geo.NewCoordinate(0.015, 0.005)

	testCases := []struct {
		name string
		run  func(t *testing.T, gi *RouteGeometryIndex)
	}{
		{
			name: "nearest segment",
			run: func(t *testing.T, gi *RouteGeometryIndex) {
				seg, ok := gi.NearestSegment(fix)
				require.True(t, ok)
				assert.Equal(t, 4, seg.Index)
				assert.InDelta(t, 222.4, geo.PointLinePerpendicularDistance(seg.Start, seg.End, fix), 0.5)
			},
		},
		{
			name: "corridor centered on the closer segment",
			run: func(t *testing.T, gi *RouteGeometryIndex) {
				gi.RefreshCorridor(fix)
				c, ok := gi.CurrentCorridor()
				require.True(t, ok)
				assert.Equal(t, 4, c.Center)
				assert.Equal(t, 3, c.Start)
				assert.Equal(t, 4, c.End)
			},
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			gi := NewRouteGeometryIndex(600, zap.NewNop())
			gi.Build(route)
			require.Len(t, gi.Segments(), 5)
			tt.run(t, gi)
		})
	}
}

func TestFullSearchKeepsRtreeHitInsideQueryBox(t *testing.T) {
	gi := NewRouteGeometryIndex(600, zap.NewNop())
	gi.Build(straightRoute(20, 100))

	seg, ok := gi.NearestSegment(geo.Destination(northOf(1250), 90, 40))
	require.True(t, ok)
	assert.Equal(t, 12, seg.Index)
}
