package spatial

import (
	"math"
	"testing"

	"github.com/pable/go-dota-wards/internal/model"
)

func boundedProjection(invertY bool) Projection {
	return NewProjection(model.MapConfig{
		Bounds:  &model.MapBounds{MinX: 0, MaxX: 200, MinY: 0, MaxY: 100},
		InvertY: invertY,
	}, 0)
}

func TestNormalizeWithBounds(t *testing.T) {
	p := boundedProjection(false)
	u, v := p.Normalize(model.Vec2{X: 50, Y: 25})
	if u != 0.25 || v != 0.25 {
		t.Errorf("expected (0.25, 0.25), got (%v, %v)", u, v)
	}

	u, v = p.Normalize(model.Vec2{X: -10, Y: 500})
	if u != 0 || v != 1 {
		t.Errorf("expected out-of-range input clamped to (0, 1), got (%v, %v)", u, v)
	}

	u, v = p.Normalize(model.Vec2{X: math.NaN(), Y: math.Inf(1)})
	if math.IsNaN(u) || math.IsNaN(v) || u < 0 || u > 1 || v < 0 || v > 1 {
		t.Errorf("expected non-finite input to stay in the unit square, got (%v, %v)", u, v)
	}
}

func TestNormalizeInvertY(t *testing.T) {
	p := boundedProjection(true)
	_, v := p.Normalize(model.Vec2{X: 0, Y: 25})
	if v != 0.75 {
		t.Errorf("expected inverted v 0.75, got %v", v)
	}
}

func TestNormalizeInferredScale(t *testing.T) {
	spots := []model.Spot{{Pos: model.Vec2{X: 100, Y: 200}}, {Pos: model.Vec2{X: 50, Y: 10}}}
	p := NewProjection(model.MapConfig{Scale: 150}, ObservedMax(spots))
	if p.HasBounds() || p.Span() != 200 {
		t.Fatalf("expected inferred span 200, got %v", p.Span())
	}
	u, v := p.Normalize(model.Vec2{X: 100, Y: 200})
	if u != 0.5 || v != 1 {
		t.Errorf("expected (0.5, 1), got (%v, %v)", u, v)
	}
}

func TestRadiusPct(t *testing.T) {
	p := NewProjection(model.MapConfig{Scale: 200}, 0)

	if got := RadiusPct(p, 1600, 0, 128); got != 6.25 {
		t.Errorf("expected 1600 / (128*200) = 6.25%%, got %v", got)
	}
	if got := RadiusPct(p, 1600, 4.5, 128); got != 4.5 {
		t.Errorf("expected precomputed pct to win, got %v", got)
	}
	if got := RadiusPct(p, 0, 0, 128); got != DefaultRadiusPct {
		t.Errorf("expected default for zero units, got %v", got)
	}
	if got := RadiusPct(p, 900, 0, 128); got != 3.52 {
		t.Errorf("expected rounding to 2 decimals (3.52), got %v", got)
	}
}

func TestDensityAtSameLocation(t *testing.T) {
	idx := NewSentryIndex([]Entry{{Key: "[10, 10]", U: 0.5, V: 0.5, Count: 5}})
	d := idx.DensityAt(0.5, 0.5, 5)
	if d.Raw != 1 || d.Weight != 1 {
		t.Errorf("expected full weight 1 at distance 0, got raw=%v weight=%v", d.Raw, d.Weight)
	}
	if len(d.Contributors) != 1 || d.Contributors[0].Key != "[10, 10]" {
		t.Errorf("unexpected contributors: %+v", d.Contributors)
	}
}

func TestDensityKernel(t *testing.T) {
	idx := NewSentryIndex([]Entry{
		{Key: "a", U: 0.5, V: 0.5, Count: 4},
		{Key: "b", U: 0.55, V: 0.5, Count: 2}, // 5% away
		{Key: "c", U: 0.9, V: 0.9, Count: 4},  // out of range
	})
	d := idx.DensityAt(0.5, 0.5, 10)

	// a: (1-0)² weight 1; b: (1 - 0.25) × 2/4 = 0.375.
	if math.Abs(d.Raw-1.375) > 1e-9 {
		t.Errorf("expected raw 1.375, got %v", d.Raw)
	}
	if d.Weight != 1 {
		t.Errorf("expected weight clamped to 1, got %v", d.Weight)
	}
	if len(d.Contributors) != 2 || d.Contributors[0].Key != "a" {
		t.Errorf("expected a then b as contributors, got %+v", d.Contributors)
	}
}

func TestDensityEmpty(t *testing.T) {
	var idx *SentryIndex
	if d := idx.DensityAt(0.5, 0.5, 10); d.Raw != 0 {
		t.Errorf("expected 0 from nil index, got %v", d.Raw)
	}
	if d := NewSentryIndex(nil).DensityAt(0.5, 0.5, 10); d.Raw != 0 {
		t.Errorf("expected 0 from empty index, got %v", d.Raw)
	}
	idx = NewSentryIndex([]Entry{{U: 0.5, V: 0.5, Count: 1}})
	if d := idx.DensityAt(0.5, 0.5, 0); d.Raw != 0 {
		t.Errorf("expected 0 with zero radius, got %v", d.Raw)
	}
}

func TestBuildSentryIndexFilters(t *testing.T) {
	sentries := []model.Spot{
		{Key: "[10, 10]", Pos: model.Vec2{X: 10, Y: 10}, Count: 2, Samples: []model.Sample{
			{Timestamp: 100, Side: model.SideRadiant, Lifetime: 400},
			{Timestamp: 900, Side: model.SideRadiant, Lifetime: 400},
		}},
		{Key: "[20, 20]", Pos: model.Vec2{X: 20, Y: 20}, Count: 1, Samples: []model.Sample{
			{Timestamp: 900, Side: model.SideDire, Lifetime: 400},
		}},
	}
	p := NewProjection(model.MapConfig{Scale: 100}, 0)

	all := BuildSentryIndex(sentries, model.DefaultFilter(), p)
	if len(all.Entries) != 2 || all.MaxCount != 2 {
		t.Fatalf("expected 2 entries with max 2, got %+v", all)
	}

	early := BuildSentryIndex(sentries, model.DefaultFilter().WithPhase(model.PhaseEarly), p)
	if len(early.Entries) != 1 || early.Entries[0].Count != 1 || early.Entries[0].U != 0.1 {
		t.Errorf("expected only the early Radiant sentry, got %+v", early.Entries)
	}
}
