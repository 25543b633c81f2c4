// Package dataset is the ingestion boundary: it reads the loosely typed ward
// JSON the widgets consume, resolves alias field names once, and produces the
// canonical model.Dataset. It also builds datasets from stored placements and
// writes them back out.
package dataset

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pable/go-dota-wards/internal/model"
)

// Alias paths, most specific first. The first one present wins.
var (
	timeAliases    = []string{"t", "time", "timestamp"}
	lifeAliases    = []string{"life", "lifetime", "lifetimeSeconds", "duration"}
	accountAliases = []string{"aid", "account_id", "placedByAccountId"}
	teamAliases    = []string{"teamId", "team_id"}
	xAliases       = []string{"x", "position.x", "position.0", "pos.0"}
	yAliases       = []string{"y", "position.y", "position.1", "pos.1"}
)

// LoadResult is a parsed dataset plus ingestion diagnostics.
type LoadResult struct {
	Dataset  model.Dataset
	Skipped  int // samples dropped for a non-finite timestamp
	Warnings []string
}

// Load reads and parses a dataset file.
func Load(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return Parse(data)
}

// Parse decodes dataset JSON. Observer spots are read from "spots" (or
// "observers"), sentry spots from "sentries".
func Parse(data []byte) (*LoadResult, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse dataset: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("parse dataset: top level must be an object")
	}

	res := &LoadResult{}
	spots := first(root, "spots", "observers")
	if !spots.Exists() {
		res.Warnings = append(res.Warnings, "dataset has no spots array")
	}
	res.Dataset.Spots = parseSpots(spots, res)
	res.Dataset.Sentries = parseSpots(root.Get("sentries"), res)

	for _, t := range root.Get("teams").Array() {
		id := t.Get("id").Int()
		if id == 0 {
			id = t.Get("team_id").Int()
		}
		res.Dataset.Teams = append(res.Dataset.Teams, model.TeamInfo{ID: id, Name: t.Get("name").String()})
	}
	for _, p := range root.Get("players").Array() {
		id := firstNumber(p, "id", "account_id")
		res.Dataset.Players = append(res.Dataset.Players, model.PlayerInfo{AccountID: int64(id), Name: p.Get("name").String()})
	}
	return res, nil
}

func parseSpots(arr gjson.Result, res *LoadResult) []model.Spot {
	var out []model.Spot
	for i, s := range arr.Array() {
		spot := model.Spot{
			Pos:   model.Vec2{X: firstNumber(s, xAliases...), Y: firstNumber(s, yAliases...)},
			Count: int(numberOr0(s.Get("count"))),
			Total: numberOr0(s.Get("total")),
		}
		spot.Key = s.Get("spot").String()
		if pos, ok := parseSpotKey(spot.Key); ok {
			// "[120,84]" and "[120, 84]" must name the same spot.
			spot.Key = model.SpotKey(pos.X, pos.Y)
			if !first(s, xAliases...).Exists() && !first(s, yAliases...).Exists() {
				spot.Pos = pos
			}
		}
		if spot.Key == "" {
			spot.Key = model.SpotKey(spot.Pos.X, spot.Pos.Y)
		}

		if bySide := s.Get("bySide"); bySide.IsObject() {
			spot.BySide = make(map[model.Side]model.Coarse)
			bySide.ForEach(func(k, v gjson.Result) bool {
				if side := model.ParseSide(k.String()); side != model.SideUnknown {
					spot.BySide[side] = coarse(v)
				}
				return true
			})
		}
		if byTeam := s.Get("byTeam"); byTeam.IsObject() {
			spot.ByTeam = make(map[int64]model.Coarse)
			byTeam.ForEach(func(k, v gjson.Result) bool {
				if id, err := strconv.ParseInt(k.String(), 10, 64); err == nil {
					spot.ByTeam[id] = coarse(v)
				}
				return true
			})
		}

		for _, sm := range s.Get("samples").Array() {
			sample, ok := parseSample(sm)
			if !ok {
				res.Skipped++
				continue
			}
			spot.Samples = append(spot.Samples, sample)
		}
		if spot.Key == "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("spot %d has no key or position", i))
		}
		out = append(out, spot)
	}
	return out
}

func parseSample(sm gjson.Result) (model.Sample, bool) {
	var s model.Sample
	t := first(sm, timeAliases...)
	if t.Exists() {
		v, ok := finite(t)
		if !ok {
			return s, false
		}
		s.Timestamp = v
	}
	s.Lifetime = firstNumber(sm, lifeAliases...)
	s.AccountID = int64(firstNumber(sm, accountAliases...))
	s.TeamID = int64(firstNumber(sm, teamAliases...))

	side := sm.Get("side")
	if side.Type == gjson.Number {
		s.Side = model.ParseSide(strconv.FormatInt(side.Int(), 10))
	} else {
		s.Side = model.ParseSide(side.String())
	}

	if x, y := first(sm, xAliases...), first(sm, yAliases...); x.Exists() && y.Exists() {
		s.Pos = model.Vec2{X: numberOr0(x), Y: numberOr0(y)}
		s.HasPos = true
	}
	return s, true
}

// parseSpotKey reads an "[x, y]" key with any spacing.
func parseSpotKey(key string) (model.Vec2, bool) {
	key = strings.TrimSpace(key)
	if !strings.HasPrefix(key, "[") || !strings.HasSuffix(key, "]") {
		return model.Vec2{}, false
	}
	xs, ys, ok := strings.Cut(key[1:len(key)-1], ",")
	if !ok {
		return model.Vec2{}, false
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if errX != nil || errY != nil || math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
		return model.Vec2{}, false
	}
	return model.Vec2{X: x, Y: y}, true
}

func coarse(v gjson.Result) model.Coarse {
	return model.Coarse{Count: int(numberOr0(v.Get("count"))), Total: numberOr0(v.Get("total"))}
}

func first(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

func firstNumber(r gjson.Result, paths ...string) float64 {
	return numberOr0(first(r, paths...))
}

// finite reads a number (or numeric string) and rejects NaN/Inf and garbage.
func finite(v gjson.Result) (float64, bool) {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Float()
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case gjson.Null:
		return 0, true
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func numberOr0(v gjson.Result) float64 {
	f, ok := finite(v)
	if !ok {
		return 0
	}
	return f
}

// Build groups placements into exact-position spots: observers into Spots,
// sentries into Sentries. Coarse aggregates are filled alongside the samples.
func Build(placements []model.Placement, teams []model.TeamInfo, players []model.PlayerInfo) model.Dataset {
	ds := model.Dataset{Teams: teams, Players: players}
	obs := make(map[string]*model.Spot)
	sen := make(map[string]*model.Spot)

	for _, p := range placements {
		if math.IsNaN(p.Time) || math.IsInf(p.Time, 0) {
			continue
		}
		set := obs
		if p.Kind == model.KindSentry {
			set = sen
		}
		key := model.SpotKey(p.Pos.X, p.Pos.Y)
		spot, ok := set[key]
		if !ok {
			spot = &model.Spot{
				Key:    key,
				Pos:    p.Pos,
				BySide: make(map[model.Side]model.Coarse),
				ByTeam: make(map[int64]model.Coarse),
			}
			set[key] = spot
		}
		life := math.Max(0, p.Lifetime)
		spot.Samples = append(spot.Samples, model.Sample{
			Pos:       p.Pos,
			HasPos:    true,
			Timestamp: p.Time,
			Side:      p.Side,
			TeamID:    p.TeamID,
			AccountID: p.AccountID,
			Lifetime:  life,
		})
		spot.Count++
		spot.Total += life
		if p.Side != model.SideUnknown {
			c := spot.BySide[p.Side]
			c.Count++
			c.Total += life
			spot.BySide[p.Side] = c
		}
		if p.TeamID != 0 {
			c := spot.ByTeam[p.TeamID]
			c.Count++
			c.Total += life
			spot.ByTeam[p.TeamID] = c
		}
	}

	ds.Spots = sortedSpots(obs)
	ds.Sentries = sortedSpots(sen)
	return ds
}

func sortedSpots(m map[string]*model.Spot) []model.Spot {
	out := make([]model.Spot, 0, len(m))
	for _, s := range m {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
