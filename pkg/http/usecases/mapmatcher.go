package usecases

import (
	"github.com/lintang-b-s/navmatch/pkg/datastructure"
	"github.com/lintang-b-s/navmatch/pkg/geo"
	"github.com/lintang-b-s/navmatch/pkg/mapmatcher/online"
	"go.uber.org/zap"
)

type MapMatcherService struct {
	log    *zap.Logger
	engine MapMatcherEngine
}

func NewMapMatcherService(log *zap.Logger, engine MapMatcherEngine) *MapMatcherService {
	return &MapMatcherService{
		log:    log,
		engine: engine,
	}
}

// StartSession. open (or reuse) session id with route as its active route. route may be empty.
func (ms *MapMatcherService) StartSession(id string, route *datastructure.Route) {
	ms.engine.StartSession(id, route)
}

// UpdateRoute. ErrNotFound once the session was closed or evicted.
func (ms *MapMatcherService) UpdateRoute(id string, route *datastructure.Route) error {
	if err := ms.engine.UpdateRoute(id, route); err != nil {
		return err
	}
	ms.log.Debug("session route updated", zap.String("session", id), zap.Bool("empty", route.IsEmpty()))
	return nil
}

func (ms *MapMatcherService) Ingest(id string, fix *datastructure.GPSPoint) (online.EnhancedLocation, bool, error) {
	return ms.engine.Ingest(id, fix)
}

func (ms *MapMatcherService) Reset(id string) error {
	return ms.engine.Reset(id)
}

func (ms *MapMatcherService) Subscribe(id string, buffer int) (<-chan online.EnhancedLocation, func(), error) {
	return ms.engine.Subscribe(id, buffer)
}

func (ms *MapMatcherService) EndSession(id string) {
	if ms.engine.CloseSession(id) {
		ms.log.Debug("session ended", zap.String("session", id))
	}
}

// MatchTrace. batch match plus the matched path as an encoded polyline.
func (ms *MapMatcherService) MatchTrace(route *datastructure.Route, fixes []*datastructure.GPSPoint,
) ([]online.EnhancedLocation, string, error) {
	locations, err := ms.engine.MatchTrace(route, fixes)
	if err != nil {
		return nil, "", err
	}
	path := make([]geo.Coordinate, len(locations))
	for i, loc := range locations {
		path[i] = loc.Coordinate
	}
	return locations, geo.PolylineFromCoords(path), nil
}

func (ms *MapMatcherService) Profiles() online.Profiles {
	return ms.engine.Profiles()
}
