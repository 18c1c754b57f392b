package usecases

import (
	"github.com/lintang-b-s/navmatch/pkg/datastructure"
	"github.com/lintang-b-s/navmatch/pkg/mapmatcher/online"
)

type MapMatcherEngine interface {
	StartSession(id string, route *datastructure.Route)
	UpdateRoute(id string, route *datastructure.Route) error
	Ingest(id string, fix *datastructure.GPSPoint) (online.EnhancedLocation, bool, error)
	Reset(id string) error
	Subscribe(id string, buffer int) (<-chan online.EnhancedLocation, func(), error)
	CloseSession(id string) bool
	MatchTrace(route *datastructure.Route, fixes []*datastructure.GPSPoint) ([]online.EnhancedLocation, error)
	Profiles() online.Profiles
}
