package aggregator

import (
	"math"
	"testing"

	"github.com/pable/go-dota-wards/internal/model"
)

// makeSpot builds a spot at (x, y) with per-sample detail.
func makeSpot(x, y float64, samples ...model.Sample) *model.Spot {
	s := &model.Spot{Key: model.SpotKey(x, y), Pos: model.Vec2{X: x, Y: y}, Samples: samples}
	s.Count = len(samples)
	for _, sm := range samples {
		s.Total += sm.Lifetime
	}
	return s
}

func sample(t float64, side model.Side, life float64) model.Sample {
	return model.Sample{Timestamp: t, Side: side, Lifetime: life}
}

// ---- Aggregate ----

func TestAggregateTwoSamples(t *testing.T) {
	spot := makeSpot(120, 84, sample(100, model.SideRadiant, 5), sample(200, model.SideDire, 400))
	r := Aggregate(spot, model.DefaultFilter())

	if r.Count != 2 {
		t.Fatalf("expected count 2, got %d", r.Count)
	}
	if r.AvgSeconds() != 202 {
		t.Errorf("expected avg 202, got %d", r.AvgSeconds())
	}
	if r.MedianSeconds() != 202 {
		t.Errorf("expected median 202, got %d", r.MedianSeconds())
	}
	want := model.Histogram{Instant: 1, Long: 1}
	if r.Histogram != want {
		t.Errorf("expected histogram %+v, got %+v", want, r.Histogram)
	}
	if r.Radiant != 1 || r.Dire != 1 {
		t.Errorf("expected 1 Radiant / 1 Dire, got %d / %d", r.Radiant, r.Dire)
	}
}

func TestAggregatePlayerFilterNoMatch(t *testing.T) {
	spot := makeSpot(120, 84, sample(100, model.SideRadiant, 5), sample(200, model.SideDire, 400))
	r := Aggregate(spot, model.DefaultFilter().WithPlayer(123))

	if r.Count != 0 || r.AvgSeconds() != 0 || r.MedianSeconds() != 0 {
		t.Errorf("expected empty result, got count=%d avg=%d median=%d", r.Count, r.AvgSeconds(), r.MedianSeconds())
	}
	if r.RawTotalLifetime != 405 {
		t.Errorf("expected raw total to ignore the filter, got %v", r.RawTotalLifetime)
	}
}

func TestAggregateWindowMonotonic(t *testing.T) {
	spot := makeSpot(120, 84,
		sample(-60, model.SideRadiant, 30),
		sample(300, model.SideDire, 200),
		sample(700, model.SideRadiant, 360),
		sample(1200, model.SideDire, 90),
		sample(2400, model.SideRadiant, 10),
	)
	windows := []model.TimeWindow{
		model.Unbounded(),
		{Min: 0, Max: 2100},
		{Min: 600, Max: 2100},
		{Min: 600, Max: 900},
		{Min: 700, Max: 700},
	}
	wantCounts := []int{5, 3, 2, 1, 0}
	prev := math.MaxInt
	for i, w := range windows {
		r := Aggregate(spot, model.DefaultFilter().WithWindow(w))
		if r.Count != wantCounts[i] {
			t.Errorf("window %+v: expected count %d, got %d", w, wantCounts[i], r.Count)
		}
		if r.Count > prev {
			t.Errorf("window %+v: narrowing grew the count from %d to %d", w, prev, r.Count)
		}
		prev = r.Count
	}
}

func TestMedianOddAndEven(t *testing.T) {
	odd := makeSpot(1, 1, sample(0, 0, 10), sample(0, 0, 30), sample(0, 0, 20))
	if got := Aggregate(odd, model.DefaultFilter()).MedianSeconds(); got != 20 {
		t.Errorf("expected median 20, got %d", got)
	}
	even := makeSpot(1, 1, sample(0, 0, 10), sample(0, 0, 20))
	if got := Aggregate(even, model.DefaultFilter()).MedianSeconds(); got != 15 {
		t.Errorf("expected median 15, got %d", got)
	}
}

func TestAvgCappedAtObserverDuration(t *testing.T) {
	spot := makeSpot(1, 1, sample(0, 0, 900), sample(0, 0, 500))
	if got := Aggregate(spot, model.DefaultFilter()).AvgSeconds(); got != LifetimeCap {
		t.Errorf("expected avg capped at %d, got %d", LifetimeCap, got)
	}
}

func TestNegativeAndNaNLifetimesCountAsZero(t *testing.T) {
	spot := makeSpot(1, 1, sample(0, 0, -20), sample(0, 0, math.NaN()), sample(0, 0, 60))
	r := Aggregate(spot, model.DefaultFilter())
	if r.Count != 3 || r.TotalLifetime != 60 {
		t.Errorf("expected count 3 and total 60, got %d / %v", r.Count, r.TotalLifetime)
	}
	if r.Histogram.Instant != 2 {
		t.Errorf("expected sanitized lifetimes in the instant bucket, got %+v", r.Histogram)
	}
}

func TestHistogramPartitionsCount(t *testing.T) {
	lifetimes := []float64{0, 5, 5.5, 30, 31, 150, 151, 360}
	var samples []model.Sample
	for _, l := range lifetimes {
		samples = append(samples, sample(0, 0, l))
	}
	r := Aggregate(makeSpot(1, 1, samples...), model.DefaultFilter())

	want := model.Histogram{Instant: 2, Short: 2, Medium: 2, Long: 2}
	if r.Histogram != want {
		t.Errorf("expected %+v, got %+v", want, r.Histogram)
	}
	if r.Histogram.Total() != r.Count {
		t.Errorf("histogram total %d != count %d", r.Histogram.Total(), r.Count)
	}
}

func TestTimeWindowAndTeamFilters(t *testing.T) {
	spot := makeSpot(1, 1,
		sample(100, model.SideRadiant, 60),
		sample(700, model.SideRadiant, 120),
		sample(800, model.SideDire, 30),
	)

	early := Aggregate(spot, model.DefaultFilter().WithPhase(model.PhaseEarly))
	if early.Count != 1 || early.AvgSeconds() != 60 {
		t.Errorf("expected one early placement of 60s, got %d / %d", early.Count, early.AvgSeconds())
	}

	dire := Aggregate(spot, model.DefaultFilter().WithTeam(model.TeamSelector{Kind: model.TeamBySide, Side: model.SideDire}))
	if dire.Count != 1 || dire.Dire != 1 || dire.Radiant != 0 {
		t.Errorf("expected one Dire placement, got %+v", dire)
	}
}

// ---- Coarse fallback ----

func coarseSpot() *model.Spot {
	return &model.Spot{
		Key:   "[50, 50]",
		Pos:   model.Vec2{X: 50, Y: 50},
		Count: 4,
		Total: 400,
		BySide: map[model.Side]model.Coarse{
			model.SideRadiant: {Count: 3, Total: 360},
			model.SideDire:    {Count: 1, Total: 40},
		},
		ByTeam: map[int64]model.Coarse{15: {Count: 3, Total: 360}},
	}
}

func TestCoarseFallback(t *testing.T) {
	r := Aggregate(coarseSpot(), model.DefaultFilter())
	if !r.Approximate {
		t.Fatal("expected coarse result to be approximate")
	}
	if r.Count != 4 || r.AvgSeconds() != 100 {
		t.Errorf("expected count 4 avg 100, got %d / %d", r.Count, r.AvgSeconds())
	}
	if r.MedianSeconds() != 0 {
		t.Errorf("expected no median on the coarse path, got %d", r.MedianSeconds())
	}
	if r.Histogram.Total() != 4 || r.Histogram.Medium != 4 {
		t.Errorf("expected all placements in the medium bucket, got %+v", r.Histogram)
	}
	if r.Radiant != 3 || r.Dire != 1 {
		t.Errorf("expected side counts 3/1, got %d/%d", r.Radiant, r.Dire)
	}
}

func TestCoarseTeamAndPlayer(t *testing.T) {
	side := Aggregate(coarseSpot(), model.DefaultFilter().WithTeam(model.TeamSelector{Kind: model.TeamBySide, Side: model.SideDire}))
	if side.Count != 1 || side.AvgSeconds() != 40 || side.Dire != 1 {
		t.Errorf("unexpected Dire coarse result: %+v", side)
	}

	team := Aggregate(coarseSpot(), model.DefaultFilter().WithTeam(model.TeamSelector{Kind: model.TeamByID, TeamID: 15}))
	if team.Count != 3 || team.AvgSeconds() != 120 {
		t.Errorf("unexpected team coarse result: %+v", team)
	}

	missing := Aggregate(coarseSpot(), model.DefaultFilter().WithTeam(model.TeamSelector{Kind: model.TeamByID, TeamID: 99}))
	if missing.Count != 0 {
		t.Errorf("expected unknown team to give 0, got %d", missing.Count)
	}

	player := Aggregate(coarseSpot(), model.DefaultFilter().WithPlayer(7))
	if player.Count != 0 {
		t.Errorf("expected player filter to give 0 on coarse data, got %d", player.Count)
	}
}

// ---- Rank ----

func metrics(key string, count, avg, median, contest int) model.SpotMetrics {
	return model.SpotMetrics{Key: key, Count: count, AvgSeconds: avg, MedianSeconds: median, Contest: contest}
}

func keys(ms []model.SpotMetrics) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Key
	}
	return out
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRankBestAndWorst(t *testing.T) {
	in := []model.SpotMetrics{
		metrics("a", 3, 100, 90, 50),
		metrics("b", 1, 300, 300, 10),
		metrics("c", 5, 100, 120, 80),
		metrics("d", 2, 0, 0, 95),
	}

	best := Rank(in, model.DefaultFilter())
	if want := []string{"b", "c", "a", "d"}; !equalKeys(keys(best), want) {
		t.Errorf("best: expected %v, got %v", want, keys(best))
	}

	worst := Rank(in, model.DefaultFilter().WithMode(model.ModeWorst))
	if want := []string{"c", "a", "b"}; !equalKeys(keys(worst), want) {
		t.Errorf("worst: expected zero spot dropped and ties by count, got %v", keys(worst))
	}

	f := model.DefaultFilter().WithMode(model.ModeWorst)
	f.IncludeZeroWorst = true
	if got := Rank(in, f); got[0].Key != "d" {
		t.Errorf("expected zero spot first when kept, got %v", keys(got))
	}

	median := Rank(in, model.DefaultFilter().WithMetric(model.MetricMedian))
	if want := []string{"b", "c", "a", "d"}; !equalKeys(keys(median), want) {
		t.Errorf("median: expected %v, got %v", want, keys(median))
	}
}

func TestRankContestBasis(t *testing.T) {
	in := []model.SpotMetrics{
		metrics("calm", 2, 100, 100, 10),
		metrics("hot", 2, 100, 100, 90),
		metrics("mid", 2, 100, 100, 50),
	}
	best := Rank(in, model.DefaultFilter().WithBasis(model.BasisContest))
	if want := []string{"calm", "mid", "hot"}; !equalKeys(keys(best), want) {
		t.Errorf("best contest: expected least contested first, got %v", keys(best))
	}
	worst := Rank(in, model.DefaultFilter().WithBasis(model.BasisContest).WithMode(model.ModeWorst))
	if worst[0].Key != "hot" {
		t.Errorf("worst contest: expected most contested first, got %v", keys(worst))
	}
}

func TestRankWorstKeepsUncontestedSpots(t *testing.T) {
	in := []model.SpotMetrics{
		metrics("quiet", 2, 100, 100, 0),
		metrics("hot", 2, 100, 100, 90),
		metrics("dead", 2, 0, 0, 40),
	}
	contest := Rank(in, model.DefaultFilter().WithBasis(model.BasisContest).WithMode(model.ModeWorst))
	if want := []string{"hot", "dead", "quiet"}; !equalKeys(keys(contest), want) {
		t.Errorf("worst contest: expected %v, got %v", want, keys(contest))
	}
	life := Rank(in, model.DefaultFilter().WithMode(model.ModeWorst))
	for _, m := range life {
		if m.Key == "dead" {
			t.Errorf("worst lifetime: expected zero-lifetime spot dropped, got %v", keys(life))
		}
	}
}

func TestRankMinCountTopNAndPins(t *testing.T) {
	in := []model.SpotMetrics{
		metrics("a", 5, 300, 300, 0),
		metrics("b", 5, 200, 200, 0),
		metrics("c", 5, 100, 100, 0),
		metrics("d", 1, 360, 360, 0),
	}
	in[2].Pinned = true

	f := model.DefaultFilter().WithMinCount(2).WithTopN(1)
	got := Rank(in, f)
	if want := []string{"a", "c"}; !equalKeys(keys(got), want) {
		t.Errorf("expected top 1 plus pinned spot, got %v", keys(got))
	}

	all := Rank(in, model.DefaultFilter().WithTopN(0))
	if len(all) != 4 {
		t.Errorf("expected TopN 0 to keep all, got %d", len(all))
	}
}

func TestDeriveMarksPins(t *testing.T) {
	spot := makeSpot(120, 84, sample(0, model.SideRadiant, 60))
	m, _ := Derive(spot, model.DefaultFilter().TogglePin("[120, 84]"))
	if !m.Pinned || m.Key != "[120, 84]" || m.AvgSeconds != 60 || m.X != 120 {
		t.Errorf("unexpected metrics: %+v", m)
	}
}
