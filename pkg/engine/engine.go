package engine

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lintang-b-s/navmatch/pkg/datastructure"
	"github.com/lintang-b-s/navmatch/pkg/mapmatcher/online"
	"github.com/lintang-b-s/navmatch/pkg/util"
	"go.uber.org/zap"
)

// Engine. registry of map matching sessions, one MatchingCoordinator per session id.
// least recently used sessions are evicted (and their subscriber streams closed) once maxSessions is reached.
type Engine struct {
	log      *zap.Logger
	profiles online.Profiles

	mu       sync.Mutex // serializes get-or-create
	sessions *lru.Cache[string, *online.MatchingCoordinator]
}

func NewEngine(maxSessions int, profiles online.Profiles, log *zap.Logger) (*Engine, error) {
	if err := profiles.Validate(); err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "invalid map matcher profiles")
	}

	e := &Engine{
		log:      log,
		profiles: profiles,
	}
	sessions, err := lru.NewWithEvict[string, *online.MatchingCoordinator](maxSessions,
		func(id string, mc *online.MatchingCoordinator) {
			mc.Close()
			e.log.Debug("map matching session closed", zap.String("session", id))
		})
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "invalid max sessions %d", maxSessions)
	}
	e.sessions = sessions

	log.Info("map matching engine ready", zap.Int("max_sessions", maxSessions),
		zap.Float64("highway_speed_threshold", profiles.HighwaySpeedThreshold))
	return e, nil
}

func (e *Engine) Profiles() online.Profiles {
	return e.profiles
}

// Session. coordinator of session id, created on first use.
func (e *Engine) Session(id string) *online.MatchingCoordinator {
	e.mu.Lock()
	defer e.mu.Unlock()

	if mc, ok := e.sessions.Get(id); ok {
		return mc
	}
	mc := online.NewDefaultMatchingCoordinator(e.profiles, e.log.With(zap.String("session", id)))
	e.sessions.Add(id, mc)
	e.log.Debug("map matching session created", zap.String("session", id))
	return mc
}

func (e *Engine) lookup(id string) (*online.MatchingCoordinator, error) {
	mc, ok := e.sessions.Get(id)
	if !ok {
		return nil, util.WrapErrorf(nil, util.ErrNotFound, "session %s not found", id)
	}
	return mc, nil
}

// StartSession. install route as the active route of session id, creating the session if needed.
func (e *Engine) StartSession(id string, route *datastructure.Route) {
	e.Session(id).Update(route)
}

// UpdateRoute. replace the active route of an existing session. an evicted or closed session is not recreated.
func (e *Engine) UpdateRoute(id string, route *datastructure.Route) error {
	mc, err := e.lookup(id)
	if err != nil {
		return err
	}
	mc.Update(route)
	return nil
}

// Ingest. feed one raw fix to an existing session.
func (e *Engine) Ingest(id string, fix *datastructure.GPSPoint) (online.EnhancedLocation, bool, error) {
	mc, err := e.lookup(id)
	if err != nil {
		return online.EnhancedLocation{}, false, err
	}
	loc, ok := mc.Ingest(fix)
	return loc, ok, nil
}

// Reset. clear the active route and matching history of session id.
func (e *Engine) Reset(id string) error {
	mc, err := e.lookup(id)
	if err != nil {
		return err
	}
	mc.Reset()
	return nil
}

func (e *Engine) Subscribe(id string, buffer int) (<-chan online.EnhancedLocation, func(), error) {
	mc, err := e.lookup(id)
	if err != nil {
		return nil, nil, err
	}
	ch, unsubscribe := mc.Subscribe(buffer)
	return ch, unsubscribe, nil
}

func (e *Engine) Diagnostics(id string) (online.Diagnostics, error) {
	mc, err := e.lookup(id)
	if err != nil {
		return online.Diagnostics{}, err
	}
	return mc.Diagnostics(), nil
}

// CloseSession. drop session id and end its subscriber streams. false if there was no such session.
func (e *Engine) CloseSession(id string) bool {
	return e.sessions.Remove(id)
}

func (e *Engine) NumSessions() int {
	return e.sessions.Len()
}

// Close. drop every session.
func (e *Engine) Close() {
	e.sessions.Purge()
}

// MatchTrace. batch match of a recorded trace on a throwaway coordinator. skipped ticks produce no output.
func (e *Engine) MatchTrace(route *datastructure.Route, fixes []*datastructure.GPSPoint) ([]online.EnhancedLocation, error) {
	if route.IsEmpty() {
		return nil, util.WrapErrorf(nil, util.ErrBadParamInput, "route has no segments")
	}

	mc := online.NewDefaultMatchingCoordinator(e.profiles, e.log)
	defer mc.Close()
	mc.Update(route)

	locations := make([]online.EnhancedLocation, 0, len(fixes))
	for _, fix := range fixes {
		if loc, ok := mc.Ingest(fix); ok {
			locations = append(locations, loc)
		}
	}

	d := mc.Diagnostics()
	e.log.Debug("trace matched", zap.Int("fixes", len(fixes)), zap.Int("locations", len(locations)),
		zap.Float64("jitter_rms", d.JitterRMS))
	return locations, nil
}
