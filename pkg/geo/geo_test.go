package geo

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var yogya = NewCoordinate(-7.7829, 110.3671)

func TestHaversineMeter(t *testing.T) {
	testCases := []struct {
		name string
		a, b Coordinate
		want float64
		tol  float64
	}{
		{name: "same point", a: yogya, b: yogya, want: 0, tol: 1e-9},
		{name: "one degree of latitude", a: NewCoordinate(0, 0), b: NewCoordinate(1, 0), want: 111194.93, tol: 0.5},
		{name: "one degree of longitude at the equator", a: NewCoordinate(0, 0), b: NewCoordinate(0, 1), want: 111194.93, tol: 0.5},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, HaversineMeter(tt.a, tt.b), tt.tol)
			assert.InDelta(t, HaversineMeter(tt.a, tt.b), HaversineMeter(tt.b, tt.a), 1e-9)
		})
	}
}

func TestDestinationRoundTrip(t *testing.T) {
	for _, bearing := range []float64{0, 45, 90, 135, 180, 270, 359} {
		dest := Destination(yogya, bearing, 250)
		assert.InDelta(t, 250, HaversineMeter(yogya, dest), 1e-3, "bearing %v", bearing)
		assert.Less(t, BearingDifference(bearing, BearingTo(yogya.Lat, yogya.Lon, dest.Lat, dest.Lon)), 0.01,
			"bearing %v", bearing)
	}
}

func TestCoordinateIsValid(t *testing.T) {
	assert.True(t, yogya.IsValid())
	assert.True(t, NewCoordinate(90, -180).IsValid())
	assert.False(t, NewCoordinate(math.NaN(), 0).IsValid())
	assert.False(t, NewCoordinate(0, math.Inf(1)).IsValid())
	assert.False(t, NewCoordinate(-91, 0).IsValid())
	assert.False(t, NewCoordinate(0, 181).IsValid())
}

func TestBearings(t *testing.T) {
	testCases := []struct {
		name       string
		a, b       float64
		wantSigned float64
		wantDiff   float64
	}{
		{name: "same", a: 10, b: 10, wantSigned: 0, wantDiff: 0},
		{name: "across north clockwise", a: 350, b: 10, wantSigned: 20, wantDiff: 20},
		{name: "across north counter clockwise", a: 10, b: 350, wantSigned: -20, wantDiff: 20},
		{name: "opposite", a: 0, b: 180, wantSigned: 180, wantDiff: 180},
		{name: "opposite the other way", a: 180, b: 0, wantSigned: 180, wantDiff: 180},
		{name: "unwrapped input", a: -90, b: 450, wantSigned: 180, wantDiff: 180},
		{name: "large turn", a: 30, b: 200, wantSigned: 170, wantDiff: 170},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.wantSigned, SignedBearingDelta(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.wantDiff, BearingDifference(tt.a, tt.b), 1e-9)
		})
	}
}

func TestNormalizeBearing(t *testing.T) {
	testCases := []struct {
		in, want float64
	}{
		{in: 0, want: 0},
		{in: 360, want: 0},
		{in: 725, want: 5},
		{in: -10, want: 350},
		{in: -720, want: 0},
		{in: math.NaN(), want: 0},
		{in: math.Inf(-1), want: 0},
	}
	for _, tt := range testCases {
		got := NormalizeBearing(tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, "in %v", tt.in)
		assert.True(t, got >= 0 && got < 360)
	}
}

func TestProjection(t *testing.T) {
	proj := NewProjection(yogya)
	assert.Equal(t, yogya, proj.Origin())

	origin := proj.ToPlanar(yogya)
	assert.InDelta(t, 0, origin.Norm(), 1e-9)

	north := proj.ToPlanar(Destination(yogya, 0, 100))
	assert.InDelta(t, 0, north.X, 1e-6)
	assert.InDelta(t, 100, north.Y, 0.01)

	east := proj.ToPlanar(Destination(yogya, 90, 100))
	assert.InDelta(t, 100, east.X, 0.01)
	assert.InDelta(t, 0, east.Y, 0.01)

	c := Destination(yogya, 33, 420)
	back := proj.FromPlanar(proj.ToPlanar(c))
	assert.InDelta(t, c.Lat, back.Lat, 1e-9)
	assert.InDelta(t, c.Lon, back.Lon, 1e-9)
}

func TestProjectOntoSegment(t *testing.T) {
	a, b := r2.Point{X: 0, Y: 0}, r2.Point{X: 10, Y: 0}

	testCases := []struct {
		name  string
		p     r2.Point
		wantT float64
		want  r2.Point
	}{
		{name: "inside", p: r2.Point{X: 4, Y: 3}, wantT: 0.4, want: r2.Point{X: 4, Y: 0}},
		{name: "before a", p: r2.Point{X: -5, Y: 1}, wantT: 0, want: a},
		{name: "past b", p: r2.Point{X: 15, Y: -2}, wantT: 1, want: b},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			gotT, got := ProjectOntoSegment(tt.p, a, b)
			assert.InDelta(t, tt.wantT, gotT, 1e-12)
			assert.InDelta(t, tt.want.X, got.X, 1e-12)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-12)
		})
	}

	gotT, got := ProjectOntoSegment(r2.Point{X: 3, Y: 3}, a, a)
	assert.Equal(t, 0.0, gotT)
	assert.Equal(t, a, got)
}

func TestPerpendicularDistance(t *testing.T) {
	a := yogya
	b := Destination(yogya, 0, 200)
	p := Destination(Destination(yogya, 0, 100), 90, 30)

	assert.InDelta(t, 30, PointLinePerpendicularDistance(a, b, p), 0.05)

	proj := ProjectPointToLineCoord(a, b, p)
	assert.InDelta(t, 100, HaversineMeter(a, proj), 0.05)

	assert.InDelta(t, HaversineMeter(a, p), PointLinePerpendicularDistance(a, a, p), 1e-3)
}

func TestPolyline(t *testing.T) {
	path := []Coordinate{
		NewCoordinate(38.5, -120.2),
		NewCoordinate(40.7, -120.95),
		NewCoordinate(43.252, -126.453),
	}
	encoded := PolylineFromCoords(path)
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", encoded)

	decoded, err := CoordsFromPolyline(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, len(path))
	for i := range path {
		assert.InDelta(t, path[i].Lat, decoded[i].Lat, 1e-5)
		assert.InDelta(t, path[i].Lon, decoded[i].Lon, 1e-5)
	}

	_, err = CoordsFromPolyline("_p~iF~ps|U_")
	assert.Error(t, err)

	assert.Equal(t, 0.0, PathLength(nil))
	assert.InDelta(t, 300, PathLength([]Coordinate{yogya, Destination(yogya, 0, 100), Destination(yogya, 0, 300)}), 0.01)
}
