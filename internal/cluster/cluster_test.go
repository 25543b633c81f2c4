package cluster

import (
	"strings"
	"testing"

	"github.com/pable/go-dota-wards/internal/model"
	"github.com/pable/go-dota-wards/internal/spatial"
)

func spotAt(key string, u, v float64, count, avg, contest int) model.SpotMetrics {
	return model.SpotMetrics{
		Key: key, U: u, V: v, X: u * 100, Y: v * 100,
		Count: count, AvgSeconds: avg, MedianSeconds: avg, Contest: contest,
	}
}

func TestClusterZeroRadiusIsIdentity(t *testing.T) {
	in := []model.SpotMetrics{spotAt("a", 0.5, 0.5, 1, 100, 0), spotAt("b", 0.5, 0.5, 1, 100, 0)}
	out := Cluster(in, 0, model.BasisLifetime)
	if len(out) != 2 || out[0].Key != "a" || out[1].Key != "b" {
		t.Errorf("expected input unchanged, got %+v", out)
	}
	if neg := Cluster(in, -1, model.BasisLifetime); len(neg) != 2 || neg[0].Key != "a" || neg[1].Key != "b" {
		t.Errorf("expected negative radius to leave input unchanged, got %+v", neg)
	}
}

func TestClusterMergesNearbySpots(t *testing.T) {
	in := []model.SpotMetrics{
		spotAt("a", 0.50, 0.50, 3, 100, 10),
		spotAt("b", 0.52, 0.50, 1, 200, 90),
		spotAt("far", 0.90, 0.90, 2, 50, 20),
	}
	out := Cluster(in, 5, model.BasisLifetime)
	if len(out) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(out))
	}

	var merged, single model.SpotMetrics
	for _, m := range out {
		if strings.HasPrefix(m.Key, "cluster:") {
			merged = m
		} else {
			single = m
		}
	}
	if single.Key != "far" || single.Count != 2 || len(single.Members) != 0 {
		t.Errorf("expected singleton passed through unchanged, got %+v", single)
	}
	if merged.Count != 4 {
		t.Errorf("expected merged count 4, got %d", merged.Count)
	}
	if merged.AvgSeconds != 125 {
		t.Errorf("expected count-weighted avg 125, got %d", merged.AvgSeconds)
	}
	if merged.Contest != 90 {
		t.Errorf("expected 80th percentile contest 90, got %d", merged.Contest)
	}
	if len(merged.Members) != 2 {
		t.Errorf("expected 2 members, got %v", merged.Members)
	}
	if merged.U < 0.504 || merged.U > 0.506 {
		t.Errorf("expected weighted centroid u≈0.505, got %v", merged.U)
	}

	var total int
	for _, m := range out {
		total += m.Count
	}
	if total != 6 {
		t.Errorf("expected counts conserved (6), got %d", total)
	}
}

func TestClusterSortedByValue(t *testing.T) {
	in := []model.SpotMetrics{
		spotAt("low", 0.1, 0.1, 1, 50, 0),
		spotAt("high", 0.9, 0.9, 1, 300, 0),
	}
	out := Cluster(in, 2, model.BasisLifetime)
	if out[0].Key != "high" {
		t.Errorf("expected highest value first, got %s", out[0].Key)
	}
}

func TestPercentile(t *testing.T) {
	vals := []weighted{{10, 1}, {20, 1}, {30, 1}, {40, 1}, {50, 1}}
	if got := percentile(vals, 0.5); got != 30 {
		t.Errorf("expected median 30, got %v", got)
	}
	if got := percentile(vals, 0.8); got != 40 {
		t.Errorf("expected p80 40, got %v", got)
	}
	if got := percentile(nil, 0.8); got != 0 {
		t.Errorf("expected 0 for empty input, got %v", got)
	}
}

func TestMergeSentries(t *testing.T) {
	entries := []spatial.Entry{
		{Key: "a", U: 0.50, V: 0.50, Count: 3},
		{Key: "b", U: 0.54, V: 0.50, Count: 1},
		{Key: "c", U: 0.10, V: 0.10, Count: 2},
	}
	out := MergeSentries(entries, 5)
	if len(out) != 2 {
		t.Fatalf("expected 2 merged entries, got %+v", out)
	}
	if out[0].Count != 4 || !strings.HasPrefix(out[0].Key, "cluster:") {
		t.Errorf("expected a+b merged to count 4, got %+v", out[0])
	}
	if out[0].U < 0.509 || out[0].U > 0.511 {
		t.Errorf("expected centroid u≈0.51, got %v", out[0].U)
	}
	if out[1].Key != "c" || out[1].Count != 2 {
		t.Errorf("expected c untouched, got %+v", out[1])
	}

	if same := MergeSentries(entries, 0); len(same) != 3 {
		t.Errorf("expected zero radius to keep all entries, got %d", len(same))
	}
}
