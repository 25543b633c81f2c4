// Package analysis runs one complete render pass over a dataset: aggregation,
// sentry density, contest scoring, optional clustering and ranking. Every pass
// is rebuilt from scratch from the immutable dataset and a Filter value.
package analysis

import (
	"github.com/pable/go-dota-wards/internal/aggregator"
	"github.com/pable/go-dota-wards/internal/cluster"
	"github.com/pable/go-dota-wards/internal/contest"
	"github.com/pable/go-dota-wards/internal/effectiveness"
	"github.com/pable/go-dota-wards/internal/model"
	"github.com/pable/go-dota-wards/internal/spatial"
)

// Engine holds the read-only inputs shared by every pass.
type Engine struct {
	ds         *model.Dataset
	mapCfg     model.MapConfig
	objectives []model.Objective
	proj       spatial.Projection
	spotByKey  map[string]int
}

// NewEngine prepares the projection for a dataset. objectives may be nil.
func NewEngine(ds *model.Dataset, mapCfg model.MapConfig, objectives []model.Objective) *Engine {
	if ds == nil {
		ds = &model.Dataset{}
	}
	e := &Engine{
		ds:         ds,
		mapCfg:     mapCfg,
		objectives: objectives,
		proj:       spatial.NewProjection(mapCfg, spatial.ObservedMax(ds.Spots, ds.Sentries)),
		spotByKey:  make(map[string]int, len(ds.Spots)),
	}
	for i, s := range ds.Spots {
		e.spotByKey[s.Key] = i
	}
	return e
}

// Dataset returns the engine's input.
func (e *Engine) Dataset() *model.Dataset { return e.ds }

// Projection returns the world-to-map projection in use.
func (e *Engine) Projection() spatial.Projection { return e.proj }

// ObserverRadiusPct is the observer vision radius in percent of map span.
func (e *Engine) ObserverRadiusPct() float64 {
	return spatial.RadiusPct(e.proj, e.mapCfg.ObserverRadiusUnits, e.mapCfg.ObserverRadiusPct, e.mapCfg.CellUnits)
}

// SentryRadiusPct is the sentry true-sight radius in percent of map span.
func (e *Engine) SentryRadiusPct() float64 {
	return spatial.RadiusPct(e.proj, e.mapCfg.SentryRadiusUnits, e.mapCfg.SentryRadiusPct, e.mapCfg.CellUnits)
}

// Pass is the output of one render pass.
type Pass struct {
	Filter           model.Filter
	Spots            []model.SpotMetrics // every spot, dataset order
	Qualifying       []model.SpotMetrics // count >= MinCount, clustered when enabled
	Ranked           []model.SpotMetrics // Qualifying ordered by mode/basis, truncated to TopN
	Sentries         *spatial.SentryIndex
	DensityRadiusPct float64
	MaxRawDensity    float64
	Clustered        bool

	engine *Engine
}

// Run executes a full pass for the filter.
func (e *Engine) Run(f model.Filter) *Pass {
	p := &Pass{Filter: f, engine: e}

	// ---- Pass 1: per-spot filtered rollups and projection. ----
	results := make([]aggregator.Result, len(e.ds.Spots))
	p.Spots = make([]model.SpotMetrics, len(e.ds.Spots))
	for i := range e.ds.Spots {
		m, r := aggregator.Derive(&e.ds.Spots[i], f)
		m.U, m.V = e.proj.Normalize(e.ds.Spots[i].Pos)
		p.Spots[i], results[i] = m, r
	}

	// ---- Pass 2: sentry index under the same filter. ----
	idx := spatial.BuildSentryIndex(e.ds.Sentries, f, e.proj)
	if f.ClusterRadiusPct > 0 {
		idx = spatial.NewSentryIndex(cluster.MergeSentries(idx.Entries, f.ClusterRadiusPct))
	}
	p.Sentries = idx

	p.DensityRadiusPct = f.DensityRadiusPct
	if p.DensityRadiusPct <= 0 {
		p.DensityRadiusPct = e.SentryRadiusPct()
	}

	// ---- Pass 3: density at every populated spot; the maximum rescales pressure. ----
	raw := make([]float64, len(p.Spots))
	for i := range p.Spots {
		if p.Spots[i].Count == 0 {
			continue
		}
		d := idx.DensityAt(p.Spots[i].U, p.Spots[i].V, p.DensityRadiusPct)
		raw[i] = d.Raw
		p.Spots[i].Contributors = d.Contributors
		if d.Raw > p.MaxRawDensity {
			p.MaxRawDensity = d.Raw
		}
	}

	// ---- Pass 4: contest scores. ----
	for i := range p.Spots {
		pressure := contest.ScalePressure(raw[i], p.MaxRawDensity)
		p.Spots[i].Pressure = pressure
		p.Spots[i].Contest, p.Spots[i].Residual = contest.Score(results[i], pressure)
	}

	// ---- Pass 5: qualification, clustering, ranking. ----
	minCount := f.MinCount
	if minCount < 1 {
		minCount = 1
	}
	for _, m := range p.Spots {
		if m.Count >= minCount {
			p.Qualifying = append(p.Qualifying, m)
		}
	}
	if f.ClusterRadiusPct > 0 {
		p.Qualifying = cluster.Cluster(p.Qualifying, f.ClusterRadiusPct, f.Basis)
		p.Clustered = true
	}
	p.Ranked = aggregator.Rank(p.Qualifying, f)
	return p
}

// Find looks a spot or cluster up by key among this pass's outputs.
func (p *Pass) Find(key string) (model.SpotMetrics, bool) {
	for _, m := range p.Qualifying {
		if m.Key == key {
			return m, true
		}
	}
	for _, m := range p.Spots {
		if m.Key == key {
			return m, true
		}
	}
	return model.SpotMetrics{}, false
}

// Effectiveness scores one selected spot or cluster. It is computed lazily,
// only for the spot the caller asks about.
func (p *Pass) Effectiveness(key string) (model.Effectiveness, bool) {
	m, ok := p.Find(key)
	if !ok {
		return model.Effectiveness{}, false
	}
	e := p.engine
	return effectiveness.Evaluate(effectiveness.Input{
		Spot:       e.sourceSpot(m),
		Metrics:    m,
		Filter:     p.Filter,
		Objectives: e.objectives,
		Projection: e.proj,
	}), true
}

// sourceSpot returns the dataset spot behind a metrics row. For a cluster it
// assembles a composite spot from the members' samples.
func (e *Engine) sourceSpot(m model.SpotMetrics) *model.Spot {
	if len(m.Members) == 0 {
		if i, ok := e.spotByKey[m.Key]; ok {
			return &e.ds.Spots[i]
		}
		return nil
	}
	composite := &model.Spot{Key: m.Key, Pos: m.Pos}
	for _, key := range m.Members {
		i, ok := e.spotByKey[key]
		if !ok {
			continue
		}
		src := &e.ds.Spots[i]
		composite.Samples = append(composite.Samples, src.Samples...)
		composite.Count += src.Count
		composite.Total += src.Total
	}
	return composite
}

// TotalCount sums counts over a set of metrics rows.
func TotalCount(ms []model.SpotMetrics) int {
	n := 0
	for _, m := range ms {
		n += m.Count
	}
	return n
}
