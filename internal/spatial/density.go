package spatial

import (
	"sort"

	"github.com/pable/go-dota-wards/internal/aggregator"
	"github.com/pable/go-dota-wards/internal/model"
)

// maxContributors is how many sentries are reported per query point.
const maxContributors = 3

// Entry is one indexed sentry location with its filtered placement count.
type Entry struct {
	Key   string
	U, V  float64
	Count int
}

// SentryIndex holds the sentries that survive the current filter.
type SentryIndex struct {
	Entries  []Entry
	MaxCount int
}

// BuildSentryIndex filters sentry spots with the same rules as the spot
// aggregator and projects each surviving location.
func BuildSentryIndex(sentries []model.Spot, f model.Filter, proj Projection) *SentryIndex {
	idx := &SentryIndex{}
	for i := range sentries {
		r := aggregator.Aggregate(&sentries[i], f)
		if r.Count <= 0 {
			continue
		}
		u, v := proj.Normalize(sentries[i].Pos)
		idx.Entries = append(idx.Entries, Entry{Key: sentries[i].Key, U: u, V: v, Count: r.Count})
	}
	idx.recomputeMax()
	return idx
}

// NewSentryIndex wraps prebuilt entries (e.g. merged sentry clusters).
func NewSentryIndex(entries []Entry) *SentryIndex {
	idx := &SentryIndex{Entries: entries}
	idx.recomputeMax()
	return idx
}

func (idx *SentryIndex) recomputeMax() {
	idx.MaxCount = 0
	for _, e := range idx.Entries {
		if e.Count > idx.MaxCount {
			idx.MaxCount = e.Count
		}
	}
}

// Density is the pressure sampled at one point.
type Density struct {
	Raw          float64 // unclamped kernel sum
	Weight       float64 // Raw clamped to [0, 1]
	Contributors []model.Contributor
}

// DensityAt sums a quadratic kernel over every indexed sentry within
// radiusPct of (u, v):
//
//	w = (1 - (d/r)²) × count/maxCount
//
// Sentries beyond the radius contribute nothing.
func (idx *SentryIndex) DensityAt(u, v, radiusPct float64) Density {
	var d Density
	if idx == nil || radiusPct <= 0 || idx.MaxCount <= 0 {
		return d
	}
	for _, e := range idx.Entries {
		dist := DistancePct(u, v, e.U, e.V)
		if dist > radiusPct {
			continue
		}
		q := dist / radiusPct
		w := (1 - q*q) * float64(e.Count) / float64(idx.MaxCount)
		if w <= 0 {
			continue
		}
		d.Raw += w
		d.Contributors = append(d.Contributors, model.Contributor{
			Key: e.Key, U: e.U, V: e.V, Count: e.Count, Weight: w,
		})
	}
	d.Weight = d.Raw
	if d.Weight > 1 {
		d.Weight = 1
	}
	sort.SliceStable(d.Contributors, func(i, j int) bool {
		return d.Contributors[i].Weight > d.Contributors[j].Weight
	})
	if len(d.Contributors) > maxContributors {
		d.Contributors = d.Contributors[:maxContributors]
	}
	return d
}
