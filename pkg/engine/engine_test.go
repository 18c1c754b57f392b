package engine

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lintang-b-s/navmatch/pkg/datastructure"
	"github.com/lintang-b-s/navmatch/pkg/geo"
	"github.com/lintang-b-s/navmatch/pkg/mapmatcher/online"
	"github.com/lintang-b-s/navmatch/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	origin = geo.NewCoordinate(-7.7956, 110.3695)
	start  = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
)

func northOf(m float64) geo.Coordinate {
	return geo.Destination(origin, 0, m)
}

func testRoute() *datastructure.Route {
	return datastructure.NewRoute([]datastructure.RouteStep{
		datastructure.NewRouteStep([]geo.Coordinate{northOf(0), northOf(100), northOf(200), northOf(300)}, 0, "head north"),
	})
}

func fix(m float64, sec int) *datastructure.GPSPoint {
	c := northOf(m)
	return datastructure.NewGPSFix(c.Lat, c.Lon, 0, 5, 5, start.Add(time.Duration(sec)*time.Second))
}

func newTestEngine(t *testing.T, maxSessions int) *Engine {
	t.Helper()
	e, err := NewEngine(maxSessions, online.DefaultProfiles(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestNewEngineInvalid(t *testing.T) {
	_, err := NewEngine(0, online.DefaultProfiles(), zap.NewNop())
	assert.Error(t, err)

	profiles := online.DefaultProfiles()
	profiles.City.MaxCandidates = 0
	_, err = NewEngine(10, profiles, zap.NewNop())
	require.Error(t, err)

	var uerr *util.Error
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, util.ErrBadParamInput, uerr.Code())
}

func TestSessionLifecycle(t *testing.T) {
	e := newTestEngine(t, 10)

	_, _, err := e.Ingest("driver-1", fix(50, 0))
	var uerr *util.Error
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, util.ErrNotFound, uerr.Code())

	e.StartSession("driver-1", testRoute())
	assert.Equal(t, 1, e.NumSessions())
	assert.Same(t, e.Session("driver-1"), e.Session("driver-1"))

	ch, unsubscribe, err := e.Subscribe("driver-1", 4)
	require.NoError(t, err)
	defer unsubscribe()

	loc, ok, err := e.Ingest("driver-1", fix(50, 0))
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 50, loc.MatchedCandidate.Progress, 0.05)
	assert.Equal(t, loc.Timestamp, (<-ch).Timestamp)

	d, err := e.Diagnostics("driver-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), d.Emitted)

	require.NoError(t, e.Reset("driver-1"))
	_, ok, err = e.Ingest("driver-1", fix(60, 1))
	require.NoError(t, err)
	assert.False(t, ok, "reset session has no route")

	assert.True(t, e.CloseSession("driver-1"))
	assert.False(t, e.CloseSession("driver-1"))
	_, open := <-ch
	assert.False(t, open)
	assert.Error(t, e.Reset("driver-1"))
}

func TestSessionEviction(t *testing.T) {
	e := newTestEngine(t, 2)

	e.StartSession("a", testRoute())
	ch, _, err := e.Subscribe("a", 1)
	require.NoError(t, err)

	e.StartSession("b", testRoute())
	e.StartSession("c", testRoute())

	assert.Equal(t, 2, e.NumSessions())
	_, err = e.Diagnostics("a")
	assert.Error(t, err)
	_, open := <-ch
	assert.False(t, open, "evicted session closes its streams")

	err = e.UpdateRoute("a", testRoute())
	var uerr *util.Error
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, util.ErrNotFound, uerr.Code())
	_, err = e.Diagnostics("a")
	assert.Error(t, err, "route update does not bring an evicted session back")

	require.NoError(t, e.UpdateRoute("c", testRoute()))
}

func TestMatchTrace(t *testing.T) {
	e := newTestEngine(t, 4)

	fixes := make([]*datastructure.GPSPoint, 0, 10)
	for i := 0; i < 10; i++ {
		fixes = append(fixes, fix(20+float64(i)*5, i))
	}
	bad := datastructure.NewGPSFix(1000, 0, 0, 5, 5, start.Add(11*time.Second))
	fixes = append(fixes, bad)

	locations, err := e.MatchTrace(testRoute(), fixes)
	require.NoError(t, err)
	require.Len(t, locations, 10)
	for i := 1; i < len(locations); i++ {
		assert.GreaterOrEqual(t, locations[i].MatchedCandidate.Progress, locations[i-1].MatchedCandidate.Progress)
	}
	assert.Equal(t, 0, e.NumSessions(), "batch matching does not register a session")

	_, err = e.MatchTrace(datastructure.NewRoute(nil), fixes)
	assert.Error(t, err)
}

func TestConcurrentSessions(t *testing.T) {
	e := newTestEngine(t, 64)

	done := make(chan struct{})
	for w := 0; w < 8; w++ {
		go func(w int) {
			defer func() { done <- struct{}{} }()
			id := fmt.Sprintf("driver-%d", w)
			e.StartSession(id, testRoute())
			for i := 0; i < 20; i++ {
				_, _, err := e.Ingest(id, fix(float64(i*10), i))
				assert.NoError(t, err)
			}
		}(w)
	}
	for w := 0; w < 8; w++ {
		<-done
	}
	assert.Equal(t, 8, e.NumSessions())
}
