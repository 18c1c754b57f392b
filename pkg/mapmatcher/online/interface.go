package online

import (
	"github.com/golang/geo/r2"
	"github.com/lintang-b-s/navmatch/pkg/datastructure"
	"github.com/lintang-b-s/navmatch/pkg/geo"
)

type GeometryIndex interface {
	Build(route *datastructure.Route)
	SetCorridorWindowLength(meters float64)
	RefreshCorridor(coord geo.Coordinate)
	WindowSegments() []RouteSegment
	CurrentCorridor() (Corridor, bool)
	NearestSegment(coord geo.Coordinate) (RouteSegment, bool)
	Project(coord geo.Coordinate) r2.Point
}

type CandidateGenerator interface {
	Generate(obs Observation, segments []RouteSegment, cfg Config) []Candidate
}

type ScoringEngine interface {
	Score(candidates []Candidate, sc ScoringContext, cfg Config) []Candidate
}
