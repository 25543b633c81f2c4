package aggregator

import (
	"math"
	"sort"

	"github.com/pable/go-dota-wards/internal/model"
)

// LifetimeCap is the presentation ceiling for average lifetime (an observer
// ward's natural duration). Longer averages are reported as exactly 360.
const LifetimeCap = 360

// Histogram bucket upper bounds, in seconds.
const (
	InstantMax = 5
	ShortMax   = 30
	MediumMax  = 150
)

// Result is the filtered rollup of one spot.
type Result struct {
	Count            int
	TotalLifetime    float64   // sum of filtered lifetimes
	RawTotalLifetime float64   // sum of all lifetimes on the spot, ignoring the filter
	Lifetimes        []float64 // filtered lifetimes, nil on the coarse path
	Histogram        model.Histogram
	Radiant, Dire    int
	// Approximate is set when the spot has no per-sample detail and the result
	// was rebuilt from coarse count/total aggregates. Median is unavailable, the
	// histogram is a single-bucket estimate and the time window is not applied.
	Approximate bool
}

// Aggregate filters a spot's samples and accumulates count, lifetime sums,
// the lifetime list and the four-bucket histogram.
//
// Spots without samples fall back to their coarse aggregates. A player filter
// cannot be answered from coarse data, so such spots report zero.
func Aggregate(spot *model.Spot, f model.Filter) Result {
	if spot == nil {
		return Result{}
	}
	if spot.HasSamples() {
		return aggregateSamples(spot, f)
	}
	return aggregateCoarse(spot, f)
}

func aggregateSamples(spot *model.Spot, f model.Filter) Result {
	var r Result
	for _, s := range spot.Samples {
		life := sanitizeLifetime(s.Lifetime)
		r.RawTotalLifetime += life
		if !f.Matches(s) {
			continue
		}
		r.Count++
		r.TotalLifetime += life
		r.Lifetimes = append(r.Lifetimes, life)
		addToHistogram(&r.Histogram, life, 1)
		switch s.Side {
		case model.SideRadiant:
			r.Radiant++
		case model.SideDire:
			r.Dire++
		}
	}
	return r
}

func aggregateCoarse(spot *model.Spot, f model.Filter) Result {
	r := Result{Approximate: true, RawTotalLifetime: sanitizeLifetime(spot.Total)}
	if f.Player > 0 {
		return r
	}

	var c model.Coarse
	switch f.Team.Kind {
	case model.TeamBySide:
		c = spot.BySide[f.Team.Side]
		if f.Team.Side == model.SideRadiant {
			r.Radiant = c.Count
		} else {
			r.Dire = c.Count
		}
	case model.TeamByID:
		c = spot.ByTeam[f.Team.TeamID]
	default:
		c = model.Coarse{Count: spot.Count, Total: spot.Total}
		r.Radiant = spot.BySide[model.SideRadiant].Count
		r.Dire = spot.BySide[model.SideDire].Count
	}
	if c.Count <= 0 {
		return Result{Approximate: true, RawTotalLifetime: r.RawTotalLifetime}
	}
	r.Count = c.Count
	r.TotalLifetime = sanitizeLifetime(c.Total)

	// Without individual lifetimes every placement is credited to the bucket of
	// the average, which keeps the histogram summing to Count.
	addToHistogram(&r.Histogram, r.TotalLifetime/float64(r.Count), r.Count)
	return r
}

func addToHistogram(h *model.Histogram, life float64, n int) {
	switch {
	case life <= InstantMax:
		h.Instant += n
	case life <= ShortMax:
		h.Short += n
	case life <= MediumMax:
		h.Medium += n
	default:
		h.Long += n
	}
}

// sanitizeLifetime maps non-finite or negative values to 0.
func sanitizeLifetime(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// AvgSeconds is floor(clamp(total/count, 0, 360)); zero when count is zero.
func (r Result) AvgSeconds() int {
	if r.Count == 0 {
		return 0
	}
	avg := r.TotalLifetime / float64(r.Count)
	return int(math.Floor(math.Max(0, math.Min(LifetimeCap, avg))))
}

// RawAverage is the uncapped mean lifetime.
func (r Result) RawAverage() float64 {
	if r.Count == 0 {
		return 0
	}
	return r.TotalLifetime / float64(r.Count)
}

// MedianSeconds returns the floored median of the filtered lifetimes, or 0 on
// the coarse path.
func (r Result) MedianSeconds() int {
	if len(r.Lifetimes) == 0 {
		return 0
	}
	sorted := append([]float64(nil), r.Lifetimes...)
	sort.Float64s(sorted)
	return int(math.Floor(median(sorted)))
}

// median returns the median of a pre-sorted (ascending) slice of float64.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Derive builds the lifetime part of a spot's render-pass metrics. Position
// projection, pressure and contest are filled in by later stages.
func Derive(spot *model.Spot, f model.Filter) (model.SpotMetrics, Result) {
	r := Aggregate(spot, f)
	m := model.SpotMetrics{
		Key:           spot.Key,
		Pos:           spot.Pos,
		X:             spot.Pos.X,
		Y:             spot.Pos.Y,
		Count:         r.Count,
		AvgSeconds:    r.AvgSeconds(),
		MedianSeconds: r.MedianSeconds(),
		Histogram:     r.Histogram,
		RadiantCount:  r.Radiant,
		DireCount:     r.Dire,
		Approximate:   r.Approximate,
		Pinned:        f.IsPinned(spot.Key),
	}
	return m, r
}

// Rank orders qualifying spots for the filter's mode and basis and truncates
// to TopN. Pinned spots that qualify are always kept.
func Rank(metrics []model.SpotMetrics, f model.Filter) []model.SpotMetrics {
	minCount := f.MinCount
	if minCount < 1 {
		minCount = 1
	}

	var perf []model.SpotMetrics
	for _, m := range metrics {
		if m.Count < minCount {
			continue
		}
		perf = append(perf, m)
	}

	// On the contest basis a "best" spot is the least contested one.
	value := func(m *model.SpotMetrics) int { return m.Value(f.Basis, f.Metric) }
	higherIsBetter := f.Basis != model.BasisContest

	// A zero lifetime means the ward never registered; zero contest is a real reading.
	if f.Mode == model.ModeWorst && !f.IncludeZeroWorst && f.Basis != model.BasisContest {
		kept := perf[:0]
		for _, m := range perf {
			if value(&m) > 0 {
				kept = append(kept, m)
			}
		}
		perf = kept
	}

	descending := (f.Mode != model.ModeWorst) == higherIsBetter
	sort.SliceStable(perf, func(i, j int) bool {
		vi, vj := value(&perf[i]), value(&perf[j])
		if vi != vj {
			if descending {
				return vi > vj
			}
			return vi < vj
		}
		if perf[i].Count != perf[j].Count {
			return perf[i].Count > perf[j].Count
		}
		return perf[i].Key < perf[j].Key
	})

	if f.TopN <= 0 || len(perf) <= f.TopN {
		return perf
	}
	out := append([]model.SpotMetrics(nil), perf[:f.TopN]...)
	for _, m := range perf[f.TopN:] {
		if m.Pinned {
			out = append(out, m)
		}
	}
	return out
}
