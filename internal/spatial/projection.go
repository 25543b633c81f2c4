// Package spatial maps world coordinates into normalized map space and models
// sentry counter-pressure as a kernel-weighted density field.
package spatial

import (
	"math"

	"github.com/pable/go-dota-wards/internal/model"
)

// DefaultRadiusPct is used when a detection radius cannot be derived.
const DefaultRadiusPct = 10

// Projection converts world coordinates to (u, v) in [0,1]².
type Projection struct {
	bounds  *model.MapBounds
	invertY bool
	scale   float64
}

// NewProjection builds the projection for a map. observedMax is the largest
// coordinate seen in the dataset; it only matters when the map has no bounds.
func NewProjection(cfg model.MapConfig, observedMax float64) Projection {
	p := Projection{invertY: cfg.InvertY}
	if cfg.Bounds != nil && cfg.Bounds.Valid() {
		b := *cfg.Bounds
		p.bounds = &b
	}
	p.scale = math.Max(1, math.Max(finiteOr0(cfg.Scale), finiteOr0(observedMax)))
	return p
}

// ObservedMax returns the largest X or Y across the given spot sets.
func ObservedMax(sets ...[]model.Spot) float64 {
	var mx float64
	for _, spots := range sets {
		for i := range spots {
			mx = math.Max(mx, finiteOr0(spots[i].Pos.X))
			mx = math.Max(mx, finiteOr0(spots[i].Pos.Y))
		}
	}
	return mx
}

// HasBounds reports whether explicit bounds drive the projection.
func (p Projection) HasBounds() bool {
	return p.bounds != nil
}

// Span is the world-space width the unit square corresponds to.
func (p Projection) Span() float64 {
	if p.bounds != nil {
		return p.bounds.MaxX - p.bounds.MinX
	}
	return p.scale
}

// Normalize maps a world position into [0,1]², clamping out-of-range input
// to the map edge.
func (p Projection) Normalize(pos model.Vec2) (u, v float64) {
	x, y := finiteOr0(pos.X), finiteOr0(pos.Y)
	if p.bounds != nil {
		b := p.bounds
		u = (clamp(x, b.MinX, b.MaxX) - b.MinX) / (b.MaxX - b.MinX)
		v = (clamp(y, b.MinY, b.MaxY) - b.MinY) / (b.MaxY - b.MinY)
	} else {
		u = clamp(x, 0, p.scale) / p.scale
		v = clamp(y, 0, p.scale) / p.scale
	}
	if p.invertY {
		v = 1 - v
	}
	return u, v
}

// NormalizePct maps a position already expressed in map percent (0-100).
func (p Projection) NormalizePct(pos model.Vec2) (u, v float64) {
	return clamp(finiteOr0(pos.X), 0, 100) / 100, clamp(finiteOr0(pos.Y), 0, 100) / 100
}

// DistancePct is the Euclidean distance between two normalized points, in
// percent of map span.
func DistancePct(u1, v1, u2, v2 float64) float64 {
	return math.Hypot(u1-u2, v1-v2) * 100
}

// RadiusPct converts a detection radius to percent of map span. A positive
// precomputed percentage wins; otherwise units are divided by the span in
// game units (cellUnits per coordinate unit). Invalid inputs yield DefaultRadiusPct.
func RadiusPct(p Projection, units, precomputedPct, cellUnits float64) float64 {
	if precomputedPct > 0 && !math.IsInf(precomputedPct, 0) {
		return precomputedPct
	}
	if cellUnits <= 0 {
		cellUnits = 1
	}
	denom := cellUnits * p.Span()
	if denom <= 0 || units <= 0 {
		return DefaultRadiusPct
	}
	pct := units / denom * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) || pct <= 0 {
		return DefaultRadiusPct
	}
	return math.Round(pct*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finiteOr0(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
