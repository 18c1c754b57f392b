package online

import (
	"math"
	"sort"

	"github.com/lintang-b-s/navmatch/pkg/util"
)

// HMMScoringEngine. hidden-markov style scoring: gaussian emission on lateral offset and heading agreement,
// gaussian transition on progress delta with backtrack and step jump penalties.
type HMMScoringEngine struct{}

func NewHMMScoringEngine() *HMMScoringEngine {
	return &HMMScoringEngine{}
}

// Score. returns scored copies of candidates sorted by total score, descending.
func (se *HMMScoringEngine) Score(candidates []Candidate, sc ScoringContext, cfg Config) []Candidate {
	scored := make([]Candidate, len(candidates))
	for i, cand := range candidates {
		cand.Emission = se.emission(cand, cfg)
		cand.Transition = se.transition(cand, sc, cfg)
		cand.Total = cand.Emission + cand.Transition
		if !util.IsFinite(cand.Total) {
			cand.Total = math.Inf(-1)
		}
		cand.Scored = true
		scored[i] = cand
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Total > scored[j].Total
	})
	return scored
}

func (se *HMMScoringEngine) emission(cand Candidate, cfg Config) float64 {
	wDist, wHead := cfg.EmissionDistanceWeight, cfg.EmissionHeadingWeight
	if cand.NearFork {
		// junctions and ramps: trust direction more than lateral snapping.
		wDist *= FORK_DISTANCE_WEIGHT_FACTOR
		wHead *= FORK_HEADING_WEIGHT_FACTOR
	}
	return wDist*gaussian(cand.DistanceFromRoute, cfg.SigmaDistance) +
		wHead*gaussian(cand.HeadingDifference, cfg.SigmaHeading)
}

func (se *HMMScoringEngine) transition(cand Candidate, sc ScoringContext, cfg Config) float64 {
	if sc.Previous == nil {
		return 0
	}
	expected := sc.ExpectedDisplacement
	if expected < 0 {
		expected = ExpectedDisplacement(sc.Speed, sc.Elapsed, -1)
	}
	ds := cand.Progress - sc.Previous.Progress
	score := gaussian(ds-expected, cfg.SigmaProgress)

	if ds < -cfg.BacktrackTolerance {
		score -= cfg.BacktrackPenalty
	}
	if util.Abs(cand.StepIndex-sc.Previous.StepIndex) > 1 {
		score -= cfg.JumpPenalty
	}
	return score
}

// gaussian. unnormalized exp(-x^2 / (2 sigma^2)).
func gaussian(x, sigma float64) float64 {
	if sigma <= 0 || !util.IsFinite(x) {
		return 0
	}
	return math.Exp(-(x * x) / (2 * sigma * sigma))
}

// ClampSpeed. invalid speed becomes 0, spikes are capped at MAX_SPEED.
func ClampSpeed(speed float64) float64 {
	if !util.IsFinite(speed) || speed < 0 {
		return 0
	}
	return util.Clamp(speed, 0, MAX_SPEED)
}

// ExpectedDisplacement. speed*elapsed bounded to [0.5, 1.5] times the observed displacement.
// observed < 0 means there is nothing to compare against.
func ExpectedDisplacement(speed, elapsed, observed float64) float64 {
	if !util.IsFinite(elapsed) || elapsed < 0 {
		elapsed = 0
	}
	expected := ClampSpeed(speed) * elapsed
	if observed < 0 || !util.IsFinite(observed) {
		return expected
	}
	return util.Clamp(expected, EXPECTED_DISPLACEMENT_LOWER*observed, EXPECTED_DISPLACEMENT_UPPER*observed)
}
