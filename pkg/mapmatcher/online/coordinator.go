package online

import (
	"math"
	"sync"
	"time"

	"github.com/lintang-b-s/navmatch/pkg/datastructure"
	"github.com/lintang-b-s/navmatch/pkg/geo"
	"go.uber.org/zap"
)

/*
MatchingCoordinator. turns raw fixes into route anchored EnhancedLocations for one active route.

per fix: pick the tuning profile by speed, re-center the corridor window, either dead-reckon (unreliable fix)
or generate + score candidates, regulate backtracking, derive confidence, smooth position/heading,
blend back from dead reckoning, then publish.

Ingest, Update and Reset are serialized, every call runs to completion before the next one starts.
*/
type MatchingCoordinator struct {
	mu sync.Mutex

	log       *zap.Logger
	index     GeometryIndex
	generator CandidateGenerator
	scorer    ScoringEngine
	profiles  Profiles
	cfg       Config
	publisher *Publisher

	blendDuration time.Duration

	prevCandidate    *Candidate
	prevLocation     *EnhancedLocation
	prevTimestamp    time.Time
	hasPrevTimestamp bool
	backtrackFrames  int
	deadReckoning    *deadReckoningState
	blend            *blendState
	jitter           jitterStat

	ticks   uint64
	emitted uint64
}

// Diagnostics. snapshot of coordinator internals.
type Diagnostics struct {
	Profile         string  `json:"profile"`
	JitterRMS       float64 `json:"jitter_rms"` // meter
	DeadReckoning   bool    `json:"dead_reckoning"`
	Blending        bool    `json:"blending"`
	BacktrackFrames int     `json:"backtrack_frames"`
	Ticks           uint64  `json:"ticks"`
	Emitted         uint64  `json:"emitted"`
	Overflowed      uint64  `json:"overflowed_subscribers"`
}

func NewMatchingCoordinator(index GeometryIndex, generator CandidateGenerator, scorer ScoringEngine,
	profiles Profiles, log *zap.Logger) *MatchingCoordinator {
	mc := &MatchingCoordinator{
		log:           log,
		index:         index,
		generator:     generator,
		scorer:        scorer,
		profiles:      profiles,
		cfg:           profiles.City,
		publisher:     NewPublisher(),
		blendDuration: time.Duration(DEAD_RECKONING_BLEND_DURATION * float64(time.Second)),
	}
	mc.index.SetCorridorWindowLength(mc.cfg.CorridorWindowLength)
	return mc
}

// NewDefaultMatchingCoordinator. coordinator wired with the route geometry index, projection candidate generator
// and hmm scoring engine.
func NewDefaultMatchingCoordinator(profiles Profiles, log *zap.Logger) *MatchingCoordinator {
	return NewMatchingCoordinator(
		NewRouteGeometryIndex(profiles.City.CorridorWindowLength, log),
		NewProjectionCandidateGenerator(),
		NewHMMScoringEngine(),
		profiles, log)
}

// Update. rebuild the geometry index for route and drop all matching history.
func (mc *MatchingCoordinator) Update(route *datastructure.Route) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.index.Build(route)
	mc.resetState()
	mc.log.Debug("route updated", zap.Bool("empty", route.IsEmpty()))
}

// Reset. same as Update(nil).
func (mc *MatchingCoordinator) Reset() {
	mc.Update(nil)
}

func (mc *MatchingCoordinator) resetState() {
	mc.cfg = mc.profiles.City
	mc.index.SetCorridorWindowLength(mc.cfg.CorridorWindowLength)
	mc.prevCandidate = nil
	mc.prevLocation = nil
	mc.prevTimestamp = time.Time{}
	mc.hasPrevTimestamp = false
	mc.backtrackFrames = 0
	mc.deadReckoning = nil
	mc.blend = nil
	mc.jitter = jitterStat{}
}

func (mc *MatchingCoordinator) Subscribe(buffer int) (<-chan EnhancedLocation, func()) {
	return mc.publisher.Subscribe(buffer)
}

// Close. ends every subscriber stream.
func (mc *MatchingCoordinator) Close() {
	mc.publisher.Close()
}

func (mc *MatchingCoordinator) Diagnostics() Diagnostics {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return Diagnostics{
		Profile:         mc.cfg.Name,
		JitterRMS:       mc.jitter.rms(),
		DeadReckoning:   mc.deadReckoning != nil,
		Blending:        mc.blend != nil,
		BacktrackFrames: mc.backtrackFrames,
		Ticks:           mc.ticks,
		Emitted:         mc.emitted,
		Overflowed:      mc.publisher.Overflowed(),
	}
}

// Ingest. process one raw fix. the second return value is false when the tick was skipped.
func (mc *MatchingCoordinator) Ingest(fix *datastructure.GPSPoint) (EnhancedLocation, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.ticks++
	if fix == nil || !fix.Coordinate().IsValid() {
		return EnhancedLocation{}, false
	}
	coord := fix.Coordinate()

	mc.selectProfile(fix)

	now := fix.Time()
	elapsed := 0.0
	if mc.hasPrevTimestamp {
		elapsed = math.Max(0, now.Sub(mc.prevTimestamp).Seconds())
		if now.Before(mc.prevTimestamp) {
			now = mc.prevTimestamp
		}
	}

	mc.index.RefreshCorridor(coord)
	window := mc.index.WindowSegments()

	if mc.prevLocation != nil {
		if reason := deadReckoningReason(fix, window, elapsed, mc.cfg); reason != "" {
			return mc.deadReckon(fix, now, elapsed, reason), true
		}
	}

	if mc.deadReckoning != nil && len(window) > 0 {
		if mc.blend == nil {
			mc.blend = &blendState{anchor: mc.deadReckoning.lastPrediction, start: now}
		}
		mc.log.Debug("dead reckoning finished",
			zap.Duration("duration", now.Sub(mc.deadReckoning.startedAt)))
		mc.deadReckoning = nil
	}

	if len(window) == 0 {
		return EnhancedLocation{}, false
	}

	obs := Observation{Point: mc.index.Project(coord), Course: fix.Course()}
	candidates := mc.generator.Generate(obs, window, mc.cfg)
	if len(candidates) == 0 {
		return EnhancedLocation{}, false
	}

	observed := -1.0
	if mc.prevLocation != nil {
		observed = geo.HaversineMeter(mc.prevLocation.Coordinate, coord)
	}
	expected := ExpectedDisplacement(fix.Speed(), elapsed, observed)

	scored := mc.scorer.Score(candidates, ScoringContext{
		Previous:             mc.prevCandidate,
		Speed:                fix.Speed(),
		Elapsed:              elapsed,
		ExpectedDisplacement: expected,
	}, mc.cfg)
	if len(scored) == 0 {
		return EnhancedLocation{}, false
	}

	matched := mc.regulateBacktrack(scored[0])
	confidence := SoftmaxMarginConfidence(scored)

	position := matched.Coordinate
	if mc.prevLocation != nil {
		maxStep := math.Max(SMOOTHING_STEP_FACTOR*expected, MIN_SMOOTHING_STEP)
		position = SmoothPosition(mc.prevLocation.Coordinate, matched.Coordinate, mc.cfg.PositionAlpha, maxStep)
	}

	heading := mc.smoothHeading(matched, fix)

	speed := 0.0
	if fix.HasValidSpeed() {
		speed = ClampSpeed(fix.Speed())
	} else if mc.prevCandidate != nil {
		delta := math.Max(0, matched.Progress-mc.prevCandidate.Progress)
		speed = ClampSpeed(delta / math.Max(elapsed, MIN_RATE_ELAPSED))
	}

	if mc.blend != nil {
		f := BlendFactor(now.Sub(mc.blend.start), mc.blendDuration)
		position = BlendCoordinate(mc.blend.anchor.Coordinate, position, f)
		if heading != nil && mc.blend.anchor.Heading != nil {
			heading = float64Ptr(geo.BlendBearing(*mc.blend.anchor.Heading, *heading, f))
		}
		if f >= 1 {
			mc.blend = nil
		}
	}

	loc := EnhancedLocation{
		Coordinate:       position,
		Heading:          heading,
		Speed:            speed,
		Timestamp:        now,
		Confidence:       confidence,
		MatchedCandidate: matched,
	}
	mc.emit(loc, &matched, now)
	return loc, true
}

func (mc *MatchingCoordinator) selectProfile(fix *datastructure.GPSPoint) {
	if !fix.HasValidSpeed() {
		return
	}
	cfg := mc.profiles.Select(ClampSpeed(fix.Speed()))
	if cfg.Name == mc.cfg.Name {
		return
	}
	mc.log.Debug("tuning profile switched", zap.String("from", mc.cfg.Name), zap.String("to", cfg.Name),
		zap.Float64("speed", fix.Speed()))
	mc.cfg = cfg
	mc.index.SetCorridorWindowLength(cfg.CorridorWindowLength)
}

func (mc *MatchingCoordinator) deadReckon(fix *datastructure.GPSPoint, now time.Time, elapsed float64,
	reason string) EnhancedLocation {
	loc := predictDeadReckoning(*mc.prevLocation, fix, now, elapsed, mc.cfg)

	if mc.deadReckoning == nil {
		mc.log.Debug("dead reckoning started", zap.String("reason", reason),
			zap.Float64("accuracy", fix.HorizontalAccuracy()), zap.Float64("elapsed", elapsed))
		mc.deadReckoning = &deadReckoningState{startedAt: now}
	}
	mc.deadReckoning.lastPrediction = loc
	mc.blend = nil

	mc.emit(loc, nil, now)
	return loc
}

// regulateBacktrack. a regression beyond the tolerance is held until it persists for BacktrackAcceptanceFrames ticks.
func (mc *MatchingCoordinator) regulateBacktrack(best Candidate) Candidate {
	if mc.prevCandidate == nil {
		mc.backtrackFrames = 0
		return best
	}
	if best.Progress >= mc.prevCandidate.Progress-mc.cfg.BacktrackTolerance {
		mc.backtrackFrames = 0
		return best
	}

	mc.backtrackFrames++
	if mc.backtrackFrames >= mc.cfg.BacktrackAcceptanceFrames {
		mc.log.Debug("backtrack accepted", zap.Float64("from", mc.prevCandidate.Progress),
			zap.Float64("to", best.Progress))
		mc.backtrackFrames = 0
		return best
	}

	held := *mc.prevCandidate
	held.Scored = best.Scored
	held.Emission = best.Emission
	held.Transition = best.Transition
	held.Total = best.Total
	mc.log.Debug("backtrack held", zap.Float64("progress", held.Progress),
		zap.Float64("candidate_progress", best.Progress), zap.Int("frames", mc.backtrackFrames))
	return held
}

func (mc *MatchingCoordinator) smoothHeading(matched Candidate, fix *datastructure.GPSPoint) *float64 {
	var (
		target    float64
		hasTarget bool
	)
	switch {
	case matched.HasHeading:
		target, hasTarget = matched.Heading, true
	case fix.HasCourse():
		target, hasTarget = geo.NormalizeBearing(fix.Course()), true
	}

	var prev *float64
	if mc.prevLocation != nil {
		prev = mc.prevLocation.Heading
	}
	switch {
	case hasTarget && prev != nil:
		return float64Ptr(SmoothHeading(*prev, target, mc.cfg.HeadingAlpha))
	case hasTarget:
		return float64Ptr(target)
	case prev != nil:
		return float64Ptr(*prev)
	}
	return nil
}

// emit. persist loc as previous and publish it. matched is nil for dead-reckoned output,
// the previous matched candidate then stays the reference for continuity.
func (mc *MatchingCoordinator) emit(loc EnhancedLocation, matched *Candidate, now time.Time) {
	if mc.prevLocation != nil {
		mc.jitter.add(geo.HaversineMeter(mc.prevLocation.Coordinate, loc.Coordinate))
	}
	mc.prevLocation = &loc
	if matched != nil {
		mc.prevCandidate = matched
	}
	mc.prevTimestamp = now
	mc.hasPrevTimestamp = true
	mc.emitted++
	mc.publisher.Publish(loc)
}

// jitterStat. running rms of the displacement between consecutive outputs.
type jitterStat struct {
	sumSq float64
	n     int
}

func (js *jitterStat) add(d float64) {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return
	}
	js.sumSq += d * d
	js.n++
}

func (js *jitterStat) rms() float64 {
	if js.n == 0 {
		return 0
	}
	return math.Sqrt(js.sumSq / float64(js.n))
}
