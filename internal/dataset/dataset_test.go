package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pable/go-dota-wards/internal/model"
)

const widgetJSON = `{
  "observers": [
    {"spot": "[120, 84]", "x": 120, "y": 84, "count": 3, "total": 400,
     "samples": [
       {"t": 100, "side": "Radiant", "life": 360, "aid": 86745912, "teamId": 15},
       {"time": 700, "side": 3, "lifetime": 30},
       {"timestamp": "NaN", "side": "Dire", "life": 10}
     ]},
    {"position": {"x": 90, "y": 60}, "count": 4, "total": 400,
     "bySide": {"Radiant": {"count": 3, "total": 360}, "Dire": {"count": 1, "total": 40}},
     "byTeam": {"15": {"count": 3, "total": 360}}}
  ],
  "sentries": [
    {"x": 121, "y": 85, "samples": [{"t": 90, "side": "Dire", "x": 122, "y": 86}]}
  ],
  "teams": [{"team_id": 15, "name": "Team Liquid"}],
  "players": [{"account_id": 86745912, "name": "Miracle-"}]
}`

func TestParseAliases(t *testing.T) {
	res, err := Parse([]byte(widgetJSON))
	if err != nil {
		t.Fatal(err)
	}
	if res.Skipped != 1 {
		t.Errorf("expected the NaN timestamp sample to be skipped, got %d", res.Skipped)
	}
	ds := res.Dataset
	if len(ds.Spots) != 2 || len(ds.Sentries) != 1 {
		t.Fatalf("expected 2 observer spots and 1 sentry, got %d / %d", len(ds.Spots), len(ds.Sentries))
	}

	first := ds.Spots[0]
	if len(first.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(first.Samples))
	}
	s0, s1 := first.Samples[0], first.Samples[1]
	if s0.Timestamp != 100 || s0.Lifetime != 360 || s0.AccountID != 86745912 || s0.TeamID != 15 || s0.Side != model.SideRadiant {
		t.Errorf("unexpected first sample: %+v", s0)
	}
	if s1.Timestamp != 700 || s1.Lifetime != 30 || s1.Side != model.SideDire {
		t.Errorf("expected alias fields resolved, got %+v", s1)
	}

	coarse := ds.Spots[1]
	if coarse.Key != "[90, 60]" || coarse.HasSamples() {
		t.Errorf("expected a coarse spot keyed from its position, got %+v", coarse)
	}
	if coarse.BySide[model.SideRadiant].Count != 3 || coarse.ByTeam[15].Total != 360 {
		t.Errorf("unexpected coarse maps: %+v / %+v", coarse.BySide, coarse.ByTeam)
	}

	sen := ds.Sentries[0].Samples[0]
	if !sen.HasPos || sen.Pos.X != 122 {
		t.Errorf("expected per-sample sentry position, got %+v", sen)
	}
	if len(ds.Teams) != 1 || ds.Teams[0].ID != 15 || ds.Players[0].AccountID != 86745912 {
		t.Errorf("unexpected lookups: %+v %+v", ds.Teams, ds.Players)
	}
}

func TestParseCanonicalisesSpotKeys(t *testing.T) {
	data := []byte(`{"spots": [
	  {"spot": "[120,84]", "count": 1, "total": 60},
	  {"spot": "[ 90.5 ,  60 ]", "x": 90.5, "y": 60, "count": 1, "total": 60},
	  {"spot": "rosh-pit", "x": 10, "y": 10, "count": 1, "total": 60}
	]}`)
	res, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	spots := res.Dataset.Spots
	if spots[0].Key != "[120, 84]" || spots[0].Pos != (model.Vec2{X: 120, Y: 84}) {
		t.Errorf("expected key and position from the spot key, got %q %+v", spots[0].Key, spots[0].Pos)
	}
	if spots[1].Key != "[90.5, 60]" {
		t.Errorf("expected canonical key, got %q", spots[1].Key)
	}
	if spots[2].Key != "rosh-pit" {
		t.Errorf("expected non-coordinate keys kept verbatim, got %q", spots[2].Key)
	}
}

func TestParsePositionArray(t *testing.T) {
	data := []byte(`{"spots": [{"position": [120, 84], "count": 1, "total": 60,
	  "samples": [{"t": 10, "life": 60, "position": [121, 85]}]}]}`)
	res, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	s := res.Dataset.Spots[0]
	if s.Pos != (model.Vec2{X: 120, Y: 84}) || s.Key != "[120, 84]" {
		t.Errorf("expected position array read, got %q %+v", s.Key, s.Pos)
	}
	if sm := s.Samples[0]; !sm.HasPos || sm.Pos != (model.Vec2{X: 121, Y: 85}) {
		t.Errorf("expected sample position array read, got %+v", sm)
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	for _, in := range []string{`not json`, `[1, 2]`} {
		if _, err := Parse([]byte(in)); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
	res, err := Parse([]byte(`{}`))
	if err != nil || len(res.Warnings) == 0 {
		t.Errorf("expected a warning for a dataset with no spots, got %v / %v", res, err)
	}
}

func TestBuildGroupsPlacements(t *testing.T) {
	placements := []model.Placement{
		{Kind: model.KindObserver, Pos: model.Vec2{X: 120, Y: 84}, Time: 100, Side: model.SideRadiant, TeamID: 15, Lifetime: 360},
		{Kind: model.KindObserver, Pos: model.Vec2{X: 120, Y: 84}, Time: 400, Side: model.SideDire, Lifetime: -4},
		{Kind: model.KindSentry, Pos: model.Vec2{X: 120, Y: 84}, Time: 90, Side: model.SideDire},
		{Kind: model.KindObserver, Pos: model.Vec2{X: 60, Y: 60}, Time: 0, Side: model.SideDire, Lifetime: 10},
	}
	ds := Build(placements, nil, nil)
	if len(ds.Spots) != 2 || len(ds.Sentries) != 1 {
		t.Fatalf("expected 2 observer spots and 1 sentry spot, got %d / %d", len(ds.Spots), len(ds.Sentries))
	}
	s := ds.Spots[0]
	if s.Key != "[120, 84]" {
		s = ds.Spots[1]
	}
	if s.Count != 2 || s.Total != 360 {
		t.Errorf("expected count 2 total 360 with negative lifetime clamped, got %d / %v", s.Count, s.Total)
	}
	if s.BySide[model.SideDire].Count != 1 || s.ByTeam[15].Count != 1 {
		t.Errorf("unexpected coarse maps: %+v %+v", s.BySide, s.ByTeam)
	}
}

func TestWriteRoundTripsThroughParse(t *testing.T) {
	res, err := Parse([]byte(widgetJSON))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, &res.Dataset, "2026-01-01T00:00:00Z"); err != nil {
		t.Fatal(err)
	}
	back, err := Parse(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(back.Dataset.Spots) != 2 || len(back.Dataset.Sentries) != 1 {
		t.Fatalf("unexpected spot counts after rewrite: %+v", back.Dataset)
	}
	for _, s := range back.Dataset.Spots {
		if s.Key == "[90, 60]" && s.BySide[model.SideDire].Total != 40 {
			t.Errorf("expected coarse data preserved, got %+v", s.BySide)
		}
	}
}

func TestPlacementsFlattensSamples(t *testing.T) {
	res, err := Parse([]byte(widgetJSON))
	if err != nil {
		t.Fatal(err)
	}
	placements, coarseOnly := Placements(&res.Dataset, -42)
	if len(placements) != 3 {
		t.Fatalf("expected 3 placements, got %d", len(placements))
	}
	if len(coarseOnly) != 1 || coarseOnly[0] != "[90, 60]" {
		t.Errorf("expected the coarse spot reported, got %v", coarseOnly)
	}
	var sentries int
	for _, p := range placements {
		if p.MatchID != -42 {
			t.Errorf("expected match id -42, got %d", p.MatchID)
		}
		if p.Kind == model.KindSentry {
			sentries++
			if p.Pos.X != 122 {
				t.Errorf("expected the sample's own position, got %+v", p.Pos)
			}
		}
	}
	if sentries != 1 {
		t.Errorf("expected 1 sentry placement, got %d", sentries)
	}
}

func TestParseObjectives(t *testing.T) {
	data := []byte(`{"space": "pct", "items": [
	  {"id": "rosh", "name": "Roshan", "type": "roshan", "shape": {"kind": "circle", "points": [{"x": 40, "y": 60}], "r": 3}},
	  {"name": "Radiant T1 mid", "side": "Radiant", "cx": 40, "cy": 40, "space": "world"},
	  {"name": "no geometry"}
	]}`)
	res, err := ParseObjectives(data)
	if err != nil {
		t.Fatal(err)
	}
	objs := res.Objectives
	if len(objs) != 2 {
		t.Fatalf("expected the shapeless entry dropped, got %d", len(objs))
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "no geometry") {
		t.Errorf("expected a warning naming the dropped entry, got %v", res.Warnings)
	}
	if objs[0].Shape.Kind != model.ShapeCircle || !objs[0].Shape.Percent || objs[0].Shape.R != 3 {
		t.Errorf("unexpected Roshan shape: %+v", objs[0].Shape)
	}
	if objs[1].Shape.Kind != model.ShapePoint || objs[1].Shape.Percent || objs[1].Side != model.SideRadiant {
		t.Errorf("unexpected tower: %+v", objs[1])
	}
}

func TestParseObjectivesEditorFileExport(t *testing.T) {
	data := []byte(`{"patch": "7.37", "items": [
	  {"id": "loc_a1", "name": "Roshan pit", "type": "objective", "side": "", "tags": ["roshan"], "notes": "",
	   "shape": {"kind": "circle", "r": 3.5}, "points": [{"x": 38.2, "y": 41.5}]},
	  {"id": "loc_b2", "name": "Dire T1 mid", "type": "objective", "side": "Dire", "tags": ["tower"], "notes": "",
	   "shape": {"kind": "point"}, "points": [{"x": 56, "y": 44}]},
	  {"id": "loc_c3", "name": "River", "type": "region", "side": "", "tags": [], "notes": "",
	   "shape": {"kind": "polygon"}, "points": [{"x": 30, "y": 30}, {"x": 60, "y": 30}, {"x": 60, "y": 60}]}
	]}`)
	res, err := ParseObjectives(data)
	if err != nil {
		t.Fatal(err)
	}
	objs := res.Objectives
	if len(objs) != 3 || len(res.Warnings) != 0 {
		t.Fatalf("expected 3 objectives and no warnings, got %d / %v", len(objs), res.Warnings)
	}
	for _, o := range objs {
		if !o.Shape.Percent {
			t.Errorf("%s: expected map percent coordinates", o.Name)
		}
	}
	if objs[0].Shape.Kind != model.ShapeCircle || objs[0].Shape.R != 3.5 || objs[0].Shape.Points[0].X != 38.2 {
		t.Errorf("unexpected Roshan pit: %+v", objs[0].Shape)
	}
	if objs[1].Side != model.SideDire || objs[1].Shape.Kind != model.ShapePoint {
		t.Errorf("unexpected tower: %+v", objs[1])
	}
	if objs[2].Shape.Kind != model.ShapePolygon || len(objs[2].Shape.Points) != 3 {
		t.Errorf("unexpected region: %+v", objs[2].Shape)
	}
}

func TestParseObjectivesEditorClipboardExport(t *testing.T) {
	data := []byte(`{"objectives":[{"x":38.2,"y":41.5,"type":"roshan"},{"x":56,"y":44,"type":"tower"}]}`)
	res, err := ParseObjectives(data)
	if err != nil {
		t.Fatal(err)
	}
	objs := res.Objectives
	if len(objs) != 2 {
		t.Fatalf("expected 2 objectives, got %d (%v)", len(objs), res.Warnings)
	}
	if objs[0].Name != "roshan" || objs[0].Shape.Kind != model.ShapePoint || !objs[0].Shape.Percent {
		t.Errorf("unexpected first objective: %+v", objs[0])
	}
	if objs[1].Shape.Points[0] != (model.Vec2{X: 56, Y: 44}) {
		t.Errorf("unexpected tower position: %+v", objs[1].Shape.Points)
	}
}

func TestParseObjectivesBareArrayIsWorldSpace(t *testing.T) {
	res, err := ParseObjectives([]byte(`[{"name": "Radiant fountain", "x": -7000, "y": -6500}]`))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Objectives) != 1 || res.Objectives[0].Shape.Percent {
		t.Errorf("expected one world-space objective, got %+v", res.Objectives)
	}
}

func TestLoadObjectivesMissingFile(t *testing.T) {
	res, err := LoadObjectives(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil || len(res.Objectives) != 0 {
		t.Errorf("expected no objectives and no error, got %v / %v", res, err)
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"items": 3}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadObjectives(path); err == nil {
		t.Error("expected error for a file without a location array")
	}
}
