package controllers

import (
	"github.com/lintang-b-s/navmatch/pkg/datastructure"
	"github.com/lintang-b-s/navmatch/pkg/mapmatcher/online"
)

type MapMatcherService interface {
	StartSession(id string, route *datastructure.Route)
	UpdateRoute(id string, route *datastructure.Route) error
	Ingest(id string, fix *datastructure.GPSPoint) (online.EnhancedLocation, bool, error)
	Reset(id string) error
	Subscribe(id string, buffer int) (<-chan online.EnhancedLocation, func(), error)
	EndSession(id string)
	MatchTrace(route *datastructure.Route, fixes []*datastructure.GPSPoint) ([]online.EnhancedLocation, string, error)
	Profiles() online.Profiles
}
