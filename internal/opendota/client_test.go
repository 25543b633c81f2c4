package opendota

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pable/go-dota-wards/internal/model"
)

const matchJSON = `{
  "match_id": 7000000001,
  "start_time": 1735689600,
  "duration": 2400,
  "replay_url": "http://replay181.valve.net/570/7000000001_1234.dem.bz2",
  "radiant_team_id": 15,
  "dire_team_id": 39,
  "radiant_team": {"team_id": 15, "name": "PSG.LGD"},
  "dire_team": {"team_id": 39, "name": "Evil Geniuses"},
  "players": [
    {
      "account_id": 101, "personaname": "support", "player_slot": 4, "isRadiant": true,
      "obs_log": [
        {"time": 30, "x": 120, "y": 84, "ehandle": 11},
        {"time": 700, "x": 100, "y": 100}
      ],
      "obs_left_log": [
        {"time": 45, "x": 120, "y": 84, "ehandle": 11},
        {"time": 900, "x": 100, "y": 100}
      ],
      "sen_log": [{"time": 2300, "x": 90, "y": 90, "ehandle": 12}],
      "sen_left_log": []
    },
    {
      "account_id": 202, "name": "pro-name", "personaname": "alias", "player_slot": 132,
      "obs_log": [{"time": 1000, "x": 150, "y": 150, "ehandle": 21}],
      "obs_left_log": [{"time": 1500, "x": 150, "y": 150, "ehandle": 21}]
    }
  ]
}`

func TestParseMatch(t *testing.T) {
	m, err := ParseMatch([]byte(matchJSON))
	if err != nil {
		t.Fatalf("ParseMatch: %v", err)
	}
	if !m.Parsed {
		t.Error("expected match with ward logs to be marked parsed")
	}
	if m.ReplayURL == "" {
		t.Error("expected replay url to be kept")
	}
	if m.Summary.MatchDate != "2025-01-01" {
		t.Errorf("unexpected match date %q", m.Summary.MatchDate)
	}
	if m.Summary.Observers != 3 || m.Summary.Sentries != 1 {
		t.Errorf("expected 3 observers / 1 sentry, got %d / %d", m.Summary.Observers, m.Summary.Sentries)
	}
	if len(m.Teams) != 2 || len(m.Players) != 2 {
		t.Fatalf("expected 2 teams and 2 players, got %d / %d", len(m.Teams), len(m.Players))
	}
	if m.Players[1].Name != "pro-name" {
		t.Errorf("expected pro name to win over persona name, got %q", m.Players[1].Name)
	}

	want := []struct {
		time, life float64
		kind       model.WardKind
		side       model.Side
		team       int64
	}{
		{30, 15, model.KindObserver, model.SideRadiant, 15},   // matched by handle
		{700, 200, model.KindObserver, model.SideRadiant, 15}, // matched by cell
		{1000, 500, model.KindObserver, model.SideDire, 39},   // logged removal, not capped
		{2300, 100, model.KindSentry, model.SideRadiant, 15},  // alive at game end
	}
	if len(m.Placements) != len(want) {
		t.Fatalf("expected %d placements, got %d", len(want), len(m.Placements))
	}
	for i, w := range want {
		p := m.Placements[i]
		if p.Time != w.time || p.Lifetime != w.life || p.Kind != w.kind || p.Side != w.side || p.TeamID != w.team {
			t.Errorf("placement %d: got %+v, want %+v", i, p, w)
		}
	}
}

func TestParseMatchKeepsLoggedLifetime(t *testing.T) {
	body := `{"match_id": 1, "duration": 5000, "players": [
	  {"player_slot": 0,
	   "obs_log": [{"time": 100, "x": 1, "y": 1, "ehandle": 5}],
	   "obs_left_log": [{"time": 600, "x": 1, "y": 1, "ehandle": 5}]}]}`
	m, err := ParseMatch([]byte(body))
	if err != nil {
		t.Fatalf("ParseMatch: %v", err)
	}
	if got := m.Placements[0].Lifetime; got != 500 {
		t.Errorf("expected the logged lifetime 500 to survive, got %v", got)
	}
}

func TestParseMatchCapsLifetime(t *testing.T) {
	body := `{"match_id": 1, "duration": 5000, "players": [
	  {"player_slot": 0, "obs_log": [{"time": 100, "x": 1, "y": 1}]}]}`
	m, err := ParseMatch([]byte(body))
	if err != nil {
		t.Fatalf("ParseMatch: %v", err)
	}
	if got := m.Placements[0].Lifetime; got != ObserverDuration {
		t.Errorf("expected lifetime capped at %d, got %v", ObserverDuration, got)
	}
}

func TestParseMatchUnparsed(t *testing.T) {
	m, err := ParseMatch([]byte(`{"match_id": 5, "players": [{"account_id": 1, "player_slot": 0}]}`))
	if err != nil {
		t.Fatalf("ParseMatch: %v", err)
	}
	if m.Parsed || len(m.Placements) != 0 {
		t.Errorf("expected unparsed match with no placements, got %+v", m)
	}
}

func TestParseMatchRejectsGarbage(t *testing.T) {
	if _, err := ParseMatch([]byte(`{"players": []}`)); err == nil {
		t.Error("expected error for body without match_id")
	}
	if _, err := ParseMatch([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestClientGetMatch(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("api_key")
		switch r.URL.Path {
		case "/matches/7000000001":
			w.Write([]byte(matchJSON))
		case "/teams/15/matches":
			w.Write([]byte(`[{"match_id": 3, "start_time": 10, "radiant": true, "opposing_team_name": "EG"},
			                 {"match_id": 2}, {"match_id": 1}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient("secret").WithBaseURL(srv.URL)
	m, err := c.GetMatch(context.Background(), 7000000001)
	if err != nil {
		t.Fatalf("GetMatch: %v", err)
	}
	if m.Summary.MatchID != 7000000001 {
		t.Errorf("unexpected match id %d", m.Summary.MatchID)
	}
	if gotKey != "secret" {
		t.Errorf("expected api key to be sent, got %q", gotKey)
	}

	tm, err := c.GetTeamMatches(context.Background(), 15, 2)
	if err != nil {
		t.Fatalf("GetTeamMatches: %v", err)
	}
	if len(tm) != 2 || tm[0].MatchID != 3 || !tm[0].Radiant || tm[0].OpposingName != "EG" {
		t.Errorf("unexpected team matches: %+v", tm)
	}

	if _, err := c.GetMatch(context.Background(), 1); err == nil {
		t.Error("expected error for 404")
	}
}
