package opendota

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tidwall/gjson"

	"github.com/pable/go-dota-wards/internal/model"
)

// Item durations bound the lifetime of a ward whose removal was never logged.
const (
	ObserverDuration = 360
	SentryDuration   = 420
)

// Match is the ward-relevant part of an OpenDota match.
type Match struct {
	Summary    model.MatchSummary
	Parsed     bool
	ReplayURL  string // Valve CDN .dem.bz2, empty when expired
	Placements []model.Placement
	Teams      []model.TeamInfo
	Players    []model.PlayerInfo
}

// ParseMatch decodes an OpenDota /matches/{id} body.
func ParseMatch(data []byte) (*Match, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse match: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	matchID := root.Get("match_id").Int()
	if matchID == 0 {
		return nil, fmt.Errorf("parse match: missing match_id")
	}

	m := &Match{
		Summary: model.MatchSummary{
			MatchID:       matchID,
			Source:        "opendota",
			RadiantTeamID: root.Get("radiant_team_id").Int(),
			DireTeamID:    root.Get("dire_team_id").Int(),
		},
		ReplayURL: root.Get("replay_url").String(),
	}
	if st := root.Get("start_time").Int(); st > 0 {
		m.Summary.MatchDate = time.Unix(st, 0).UTC().Format("2006-01-02")
	}
	if m.Summary.RadiantTeamID == 0 {
		m.Summary.RadiantTeamID = root.Get("radiant_team.team_id").Int()
	}
	if m.Summary.DireTeamID == 0 {
		m.Summary.DireTeamID = root.Get("dire_team.team_id").Int()
	}
	for _, t := range []struct {
		id   int64
		path string
	}{
		{m.Summary.RadiantTeamID, "radiant_team.name"},
		{m.Summary.DireTeamID, "dire_team.name"},
	} {
		if name := root.Get(t.path).String(); t.id != 0 && name != "" {
			m.Teams = append(m.Teams, model.TeamInfo{ID: t.id, Name: name})
		}
	}

	duration := root.Get("duration").Float()
	for _, pl := range root.Get("players").Array() {
		side := playerSide(pl)
		accountID := pl.Get("account_id").Int()
		if accountID != 0 {
			name := pl.Get("name").String()
			if name == "" {
				name = pl.Get("personaname").String()
			}
			m.Players = append(m.Players, model.PlayerInfo{AccountID: accountID, Name: name})
		}
		teamID := m.Summary.RadiantTeamID
		if side == model.SideDire {
			teamID = m.Summary.DireTeamID
		}
		base := model.Placement{MatchID: matchID, Side: side, TeamID: teamID, AccountID: accountID}

		if pl.Get("obs_log").Exists() || pl.Get("sen_log").Exists() {
			m.Parsed = true
		}
		m.Placements = append(m.Placements,
			wardLog(base, model.KindObserver, pl.Get("obs_log"), pl.Get("obs_left_log"), duration, ObserverDuration)...)
		m.Placements = append(m.Placements,
			wardLog(base, model.KindSentry, pl.Get("sen_log"), pl.Get("sen_left_log"), duration, SentryDuration)...)
	}

	sort.SliceStable(m.Placements, func(i, j int) bool {
		if m.Placements[i].Time != m.Placements[j].Time {
			return m.Placements[i].Time < m.Placements[j].Time
		}
		return m.Placements[i].Kind < m.Placements[j].Kind
	})
	for _, p := range m.Placements {
		if p.Kind == model.KindObserver {
			m.Summary.Observers++
		} else {
			m.Summary.Sentries++
		}
	}
	return m, nil
}

func playerSide(pl gjson.Result) model.Side {
	if r := pl.Get("isRadiant"); r.Exists() {
		if r.Bool() {
			return model.SideRadiant
		}
		return model.SideDire
	}
	if slot := pl.Get("player_slot"); slot.Exists() {
		if slot.Int() < 128 {
			return model.SideRadiant
		}
		return model.SideDire
	}
	return model.SideUnknown
}

// wardLog pairs each placement with its removal. Removals are matched by
// entity handle, falling back to the first later removal at the same cell.
// A ward never seen leaving lives until the game ends or its item expires.
func wardLog(base model.Placement, kind model.WardKind, placed, left gjson.Result, duration float64, maxLife float64) []model.Placement {
	type removal struct {
		time float64
		x, y float64
		used bool
	}
	byHandle := make(map[int64]*removal)
	var removals []*removal
	for _, l := range left.Array() {
		r := &removal{time: l.Get("time").Float(), x: l.Get("x").Float(), y: l.Get("y").Float()}
		removals = append(removals, r)
		if h := l.Get("ehandle").Int(); h != 0 {
			byHandle[h] = r
		}
	}

	var out []model.Placement
	for _, e := range placed.Array() {
		x, y := e.Get("x"), e.Get("y")
		if !x.Exists() || !y.Exists() {
			continue
		}
		p := base
		p.Kind = kind
		p.Pos = model.Vec2{X: x.Float(), Y: y.Float()}
		p.Time = e.Get("time").Float()

		var rm *removal
		if h := e.Get("ehandle").Int(); h != 0 {
			if r, ok := byHandle[h]; ok && !r.used {
				rm = r
			}
		}
		if rm == nil {
			for _, r := range removals {
				if !r.used && r.x == p.Pos.X && r.y == p.Pos.Y && r.time >= p.Time {
					rm = r
					break
				}
			}
		}

		switch {
		case rm != nil:
			rm.used = true
			p.Lifetime = rm.time - p.Time
		case duration > p.Time:
			p.Lifetime = math.Min(duration-p.Time, maxLife)
		}
		if p.Lifetime < 0 {
			p.Lifetime = 0
		}
		out = append(out, p)
	}
	return out
}
