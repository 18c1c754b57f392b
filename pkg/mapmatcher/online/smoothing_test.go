package online

import (
	"testing"
	"time"

	"github.com/lintang-b-s/navmatch/pkg/geo"
	"github.com/stretchr/testify/assert"
)

func TestSmoothPosition(t *testing.T) {
	testCases := []struct {
		name     string
		target   float64
		alpha    float64
		maxStep  float64
		wantMove float64
	}{
		{name: "plain exponential step", target: 100, alpha: 0.2, maxStep: 1000, wantMove: 20},
		{name: "step capped", target: 1000, alpha: 0.2, maxStep: 30, wantMove: 30},
		{name: "alpha one jumps to target", target: 40, alpha: 1, maxStep: 1000, wantMove: 40},
		{name: "zero cap freezes", target: 40, alpha: 0.5, maxStep: 0, wantMove: 0},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			got := SmoothPosition(northOf(0), northOf(tt.target), tt.alpha, tt.maxStep)
			assert.InDelta(t, tt.wantMove, geo.HaversineMeter(northOf(0), got), 0.01)
			assert.InDelta(t, 0, got.Lon-northOf(0).Lon, 1e-9)
		})
	}
}

func TestSmoothHeading(t *testing.T) {
	testCases := []struct {
		name         string
		prev, target float64
		alpha        float64
		want         float64
	}{
		{name: "across north", prev: 350, target: 10, alpha: 0.5, want: 0},
		{name: "plain", prev: 90, target: 180, alpha: 0.25, want: 112.5},
		{name: "backwards across north", prev: 10, target: 330, alpha: 0.5, want: 350},
		{name: "alpha one", prev: 10, target: 200, alpha: 1, want: 200},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			got := SmoothHeading(tt.prev, tt.target, tt.alpha)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.Less(t, got, 360.0)
		})
	}
}

func TestBlendFactor(t *testing.T) {
	d := 750 * time.Millisecond
	assert.Equal(t, 0.0, BlendFactor(0, d))
	assert.InDelta(t, 0.5, BlendFactor(375*time.Millisecond, d), 1e-9)
	assert.Equal(t, 1.0, BlendFactor(2*time.Second, d))
	assert.Equal(t, 0.0, BlendFactor(-time.Second, d))
	assert.Equal(t, 1.0, BlendFactor(time.Second, 0))

	a, b := northOf(0), northOf(100)
	assert.Equal(t, a, BlendCoordinate(a, b, 0))
	assert.Equal(t, b, BlendCoordinate(a, b, 1))
}
