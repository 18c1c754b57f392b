package online

import (
	"math"

	"github.com/lintang-b-s/navmatch/pkg/util"
)

// SoftmaxMarginConfidence. softmax over total scores, confidence = p(top) - p(runner-up), clamped to [0,1].
// scored must be sorted descending by total.
func SoftmaxMarginConfidence(scored []Candidate) float64 {
	if len(scored) == 0 {
		return 0
	}
	totals := make([]float64, 0, len(scored))
	for _, c := range scored {
		if util.IsFinite(c.Total) {
			totals = append(totals, c.Total)
		}
	}
	if len(totals) == 0 {
		return 0
	}
	if len(totals) == 1 {
		return 1
	}

	lse := logSumExp(totals)
	top := math.Exp(totals[0] - lse)
	second := math.Exp(totals[1] - lse)
	conf := top - second
	if !util.IsFinite(conf) {
		return 0
	}
	return util.Clamp(conf, 0.0, 1.0)
}

// https://gregorygundersen.com/blog/2020/02/09/log-sum-exp/
func logSumExp(ps []float64) float64 {
	if len(ps) == 0 {
		return math.Inf(-1)
	}
	maxP := ps[0]
	for _, p := range ps {
		if p > maxP {
			maxP = p
		}
	}
	sumExp := 0.0
	for _, p := range ps {
		sumExp += math.Exp(p - maxP)
	}
	return maxP + math.Log(sumExp)
}
