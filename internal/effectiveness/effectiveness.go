// Package effectiveness computes the on-demand composite score for one
// selected ward spot.
package effectiveness

import (
	"math"

	"github.com/pable/go-dota-wards/internal/aggregator"
	"github.com/pable/go-dota-wards/internal/model"
	"github.com/pable/go-dota-wards/internal/spatial"
)

const (
	lifeSaturation = 120.0 // seconds; ~63% credit here, ~95% at 360s

	objectiveNearPct = 3.0  // full credit at or below this distance
	objectiveFarPct  = 12.0 // no credit at or beyond this distance

	phaseImprovementCap = 180.0
	phaseConfidenceN    = 5.0
)

// Input bundles what the scorer needs for one spot.
type Input struct {
	Spot       *model.Spot       // source spot (samples drive the phase breakdown)
	Metrics    model.SpotMetrics // the spot's metrics from the current pass
	Filter     model.Filter
	Objectives []model.Objective // optional; empty => objPct = 0
	Projection spatial.Projection
}

// Evaluate returns the effectiveness score and its breakdown.
func Evaluate(in Input) model.Effectiveness {
	eff := model.Effectiveness{Spot: in.Metrics.Key}

	eff.Breakdown.LifePct = LifePct(float64(in.Metrics.AvgSeconds))

	name, dist, ok := NearestObjective(in.Metrics.U, in.Metrics.V, in.Objectives, in.Projection)
	if ok {
		eff.NearestObjective = name
		eff.ObjectiveDistPct = dist
		eff.Breakdown.ObjPct = ObjectivePct(dist)
	}

	eff.Breakdown.SentPct = clampPct(100 - int(math.Round(in.Metrics.Pressure)))

	phase := bestPhase(in.Spot, in.Filter)
	eff.BestPhase = phase.phase
	eff.BestPhaseAvg = phase.avg
	eff.BestPhaseSamples = phase.count
	eff.Breakdown.PhasePct = phase.pct

	b := eff.Breakdown
	eff.Score = clampPct(int(math.Round(0.30*float64(b.LifePct) + 0.20*float64(b.ObjPct) +
		0.30*float64(b.SentPct) + 0.20*float64(b.PhasePct))))
	return eff
}

// LifePct is an exponential saturation curve over average lifetime.
func LifePct(avgSeconds float64) int {
	if avgSeconds <= 0 || math.IsNaN(avgSeconds) {
		return 0
	}
	return clampPct(int(math.Round(100 * (1 - math.Exp(-avgSeconds/lifeSaturation)))))
}

// ObjectivePct maps distance-to-objective (percent of map span) linearly from
// 100 at 3% down to 0 at 12%.
func ObjectivePct(distPct float64) int {
	switch {
	case distPct <= objectiveNearPct:
		return 100
	case distPct >= objectiveFarPct:
		return 0
	}
	return clampPct(int(math.Round(100 * (objectiveFarPct - distPct) / (objectiveFarPct - objectiveNearPct))))
}

type phaseResult struct {
	phase model.Phase
	avg   float64
	count int
	pct   int
}

// bestPhase finds the phase with the highest average lifetime under the
// filter's team/player selection and scores its improvement over the spot's
// overall average, blended 70/30 with a sample-size confidence term.
func bestPhase(spot *model.Spot, f model.Filter) phaseResult {
	var res phaseResult
	if spot == nil || !spot.HasSamples() {
		return res
	}
	overall := aggregator.Aggregate(spot, f.WithPhase(model.PhaseAll))
	if overall.Count == 0 {
		return res
	}

	found := false
	for _, p := range model.Phases {
		r := aggregator.Aggregate(spot, f.WithPhase(p))
		if r.Count == 0 {
			continue
		}
		if !found || r.RawAverage() > res.avg {
			res = phaseResult{phase: p, avg: r.RawAverage(), count: r.Count}
			found = true
		}
	}
	if !found {
		return res
	}

	improvement := math.Min(phaseImprovementCap, math.Max(0, res.avg-overall.RawAverage()))
	confidence := math.Min(1, float64(res.count)/phaseConfidenceN)
	res.pct = clampPct(int(math.Round(100 * (0.7*improvement/phaseImprovementCap + 0.3*confidence))))
	return res
}

func clampPct(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
