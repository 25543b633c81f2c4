// Package cluster merges nearby spots into count-weighted composite spots.
//
// Membership is decided by distance to the seed only: a spot joins the first
// seed (in descending count order) within the radius, and the cluster is
// never re-centered while it grows. This is a single greedy pass, not a
// connected-components clustering.
package cluster

import (
	"fmt"
	"math"
	"sort"

	"github.com/pable/go-dota-wards/internal/model"
	"github.com/pable/go-dota-wards/internal/spatial"
)

// ContestPercentile keeps a single hot spot visible inside a calm cluster.
const ContestPercentile = 0.8

// Cluster groups spots within radiusPct (percent of map span, measured in
// normalized U/V space) of a seed. A radius <= 0 returns the input unchanged.
// Single-spot groups are passed through as the original spot.
func Cluster(spots []model.SpotMetrics, radiusPct float64, basis model.Basis) []model.SpotMetrics {
	if radiusPct <= 0 || len(spots) == 0 {
		return spots
	}

	order := make([]int, len(spots))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		sa, sb := &spots[order[a]], &spots[order[b]]
		if sa.Count != sb.Count {
			return sa.Count > sb.Count
		}
		if sa.AvgSeconds != sb.AvgSeconds {
			return sa.AvgSeconds > sb.AvgSeconds
		}
		return sa.Key < sb.Key
	})

	consumed := make([]bool, len(spots))
	var out []model.SpotMetrics
	for _, si := range order {
		if consumed[si] {
			continue
		}
		consumed[si] = true
		seed := spots[si]
		members := []model.SpotMetrics{seed}
		for _, oi := range order {
			if consumed[oi] {
				continue
			}
			o := spots[oi]
			if spatial.DistancePct(seed.U, seed.V, o.U, o.V) <= radiusPct {
				consumed[oi] = true
				members = append(members, o)
			}
		}
		if len(members) == 1 {
			out = append(out, seed)
			continue
		}
		out = append(out, merge(members, radiusPct))
	}

	sort.SliceStable(out, func(i, j int) bool {
		vi, vj := out[i].Value(basis, model.MetricAvg), out[j].Value(basis, model.MetricAvg)
		if vi != vj {
			return vi > vj
		}
		return out[i].Count > out[j].Count
	})
	return out
}

func merge(members []model.SpotMetrics, radiusPct float64) model.SpotMetrics {
	var (
		totalW                  float64
		x, y, u, v              float64
		avg, residual, pressure float64
	)
	c := model.SpotMetrics{}
	for _, m := range members {
		c.Count += m.Count
		c.Histogram.Instant += m.Histogram.Instant
		c.Histogram.Short += m.Histogram.Short
		c.Histogram.Medium += m.Histogram.Medium
		c.Histogram.Long += m.Histogram.Long
		c.RadiantCount += m.RadiantCount
		c.DireCount += m.DireCount
		c.Approximate = c.Approximate || m.Approximate
		c.Pinned = c.Pinned || m.Pinned
		c.Members = append(c.Members, m.Key)
	}

	// Zero-count members would make every weight vanish; fall back to equal weights.
	weight := func(m model.SpotMetrics) float64 { return float64(m.Count) }
	if c.Count == 0 {
		weight = func(model.SpotMetrics) float64 { return 1 }
	}

	medians := make([]weighted, 0, len(members))
	contests := make([]weighted, 0, len(members))
	for _, m := range members {
		w := weight(m)
		totalW += w
		x += w * m.X
		y += w * m.Y
		u += w * m.U
		v += w * m.V
		avg += w * float64(m.AvgSeconds)
		residual += w * float64(m.Residual)
		pressure += w * m.Pressure
		medians = append(medians, weighted{float64(m.MedianSeconds), w})
		contests = append(contests, weighted{float64(m.Contest), w})
	}

	c.X, c.Y = x/totalW, y/totalW
	c.Pos = model.Vec2{X: c.X, Y: c.Y}
	c.U, c.V = u/totalW, v/totalW
	c.AvgSeconds = int(math.Floor(avg / totalW))
	c.Residual = int(math.Round(residual / totalW))
	c.Pressure = pressure / totalW
	c.MedianSeconds = int(math.Floor(percentile(medians, 0.5)))
	c.Contest = int(math.Round(percentile(contests, ContestPercentile)))
	c.Key = Key(c.U, c.V, radiusPct)
	return c
}

// Key encodes a cluster's centroid (map percent) and radius.
func Key(u, v, radiusPct float64) string {
	return fmt.Sprintf("cluster:%.2f,%.2f@%.2f", u*100, v*100, radiusPct)
}

type weighted struct {
	value, weight float64
}

// percentile returns the smallest value whose cumulative weight reaches p of
// the total.
func percentile(vals []weighted, p float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]weighted(nil), vals...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].value < sorted[j].value })
	var total float64
	for _, w := range sorted {
		total += w.weight
	}
	if total <= 0 {
		return sorted[len(sorted)-1].value
	}
	target := p * total
	var cum float64
	for _, w := range sorted {
		cum += w.weight
		if cum >= target {
			return w.value
		}
	}
	return sorted[len(sorted)-1].value
}

// MergeSentries collapses indexed sentries within radiusPct of a seed into a
// single entry at the count-weighted centroid. Counts are summed.
func MergeSentries(entries []spatial.Entry, radiusPct float64) []spatial.Entry {
	if radiusPct <= 0 || len(entries) == 0 {
		return entries
	}
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ea, eb := entries[order[a]], entries[order[b]]
		if ea.Count != eb.Count {
			return ea.Count > eb.Count
		}
		return ea.Key < eb.Key
	})

	consumed := make([]bool, len(entries))
	var out []spatial.Entry
	for _, si := range order {
		if consumed[si] {
			continue
		}
		consumed[si] = true
		seed := entries[si]
		merged := seed
		u, v := seed.U*float64(seed.Count), seed.V*float64(seed.Count)
		n := 1
		for _, oi := range order {
			if consumed[oi] {
				continue
			}
			o := entries[oi]
			if spatial.DistancePct(seed.U, seed.V, o.U, o.V) > radiusPct {
				continue
			}
			consumed[oi] = true
			merged.Count += o.Count
			u += o.U * float64(o.Count)
			v += o.V * float64(o.Count)
			n++
		}
		if n > 1 && merged.Count > 0 {
			merged.U = u / float64(merged.Count)
			merged.V = v / float64(merged.Count)
			merged.Key = Key(merged.U, merged.V, radiusPct)
		}
		out = append(out, merged)
	}
	return out
}
