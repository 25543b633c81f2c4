// Package contest scores how fiercely a ward spot is fought over by blending
// nearby sentry pressure with how often wards there die young.
package contest

import (
	"math"

	"github.com/pable/go-dota-wards/internal/aggregator"
)

// Blend weights for pressure vs. shortness residual. Spots with per-sample
// detail and spots rebuilt from coarse aggregates use different weights.
const (
	samplePressureWeight = 0.6
	sampleResidualWeight = 0.4

	coarsePressureWeight = 0.7
	coarseResidualWeight = 0.3
)

// BucketDanger maps an average lifetime onto a 0-100 danger expectation.
func BucketDanger(avgSeconds float64) float64 {
	switch {
	case avgSeconds <= 5:
		return 100
	case avgSeconds <= 30:
		return 75
	case avgSeconds <= 150:
		return 40
	case avgSeconds <= 360:
		return 15
	default:
		return 10
	}
}

// SideBalance is 1 when both factions ward the spot equally and 0 when only
// one does (or nobody does).
func SideBalance(radiant, dire int) float64 {
	total := radiant + dire
	if total <= 0 {
		return 0
	}
	return 1 - math.Abs(float64(radiant-dire))/float64(total)
}

// Residual measures how much shorter-lived a spot is than its lifetime bucket
// and side balance predict:
//
//	mix      = 0.55×danger + 0.45×balance
//	excess   = max(0, shortFraction − mix)
//	residual = round(100 × (0.5×mix + 0.5×excess))
func Residual(shortFraction, avgSeconds float64, radiant, dire int) int {
	mix := 0.55*(BucketDanger(avgSeconds)/100) + 0.45*SideBalance(radiant, dire)
	excess := math.Max(0, shortFraction-mix)
	return clampScore(math.Round(100 * (0.5*mix + 0.5*excess)))
}

// Score blends pressure (already scaled 0-100 against the pass maximum) with
// the shortness residual. Empty aggregates score 0.
func Score(r aggregator.Result, pressureScaled float64) (score, residual int) {
	if r.Count <= 0 {
		return 0, 0
	}
	residual = Residual(r.Histogram.ShortFraction(), r.RawAverage(), r.Radiant, r.Dire)

	pw, rw := samplePressureWeight, sampleResidualWeight
	if r.Approximate {
		pw, rw = coarsePressureWeight, coarseResidualWeight
	}
	p := pressureScaled
	if math.IsNaN(p) {
		p = 0
	}
	p = math.Max(0, math.Min(100, p))
	return clampScore(math.Round(pw*p + rw*float64(residual))), residual
}

// ScalePressure rescales a raw density accumulator against the largest one
// seen in the current pass.
func ScalePressure(raw, maxRaw float64) float64 {
	if maxRaw <= 0 || raw <= 0 {
		return 0
	}
	return math.Min(100, 100*raw/maxRaw)
}

func clampScore(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
