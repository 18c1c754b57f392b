package datastructure

import (
	"github.com/lintang-b-s/navmatch/pkg/geo"
	"github.com/lintang-b-s/navmatch/pkg/util"
)

// RouteStep. one instruction of the route returned by the directions service.
// the maneuver of a step happens at its last point.
type RouteStep struct {
	Points      []geo.Coordinate `json:"points"`
	Distance    float64          `json:"distance"` // meter
	Instruction string           `json:"instruction,omitempty"`
}

func NewRouteStep(points []geo.Coordinate, distance float64, instruction string) RouteStep {
	if distance <= 0 {
		distance = geo.PathLength(points)
	}
	return RouteStep{
		Points:      points,
		Distance:    distance,
		Instruction: instruction,
	}
}

// NewRouteStepFromPolyline. step from a precision 5 encoded polyline.
func NewRouteStepFromPolyline(encoded string, distance float64, instruction string) (RouteStep, error) {
	points, err := geo.CoordsFromPolyline(encoded)
	if err != nil {
		return RouteStep{}, util.WrapErrorf(err, util.ErrBadParamInput, "invalid step polyline")
	}
	return NewRouteStep(points, distance, instruction), nil
}

type Route struct {
	Steps []RouteStep `json:"steps"`
}

func NewRoute(steps []RouteStep) *Route {
	return &Route{Steps: steps}
}

func (r *Route) IsEmpty() bool {
	if r == nil {
		return true
	}
	for _, s := range r.Steps {
		if len(s.Points) >= 2 {
			return false
		}
	}
	return true
}

// Points. all route points in order, consecutive duplicates at step boundaries removed.
func (r *Route) Points() []geo.Coordinate {
	if r == nil {
		return nil
	}
	points := make([]geo.Coordinate, 0)
	for _, s := range r.Steps {
		for _, p := range s.Points {
			if len(points) > 0 && points[len(points)-1] == p {
				continue
			}
			points = append(points, p)
		}
	}
	return points
}
