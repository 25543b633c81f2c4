package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/pable/go-dota-wards/internal/model"
)

// jsonDataset is the canonical shape written for the widgets. Field names
// follow the widget data contract; Parse reads it back unchanged.
type jsonDataset struct {
	GeneratedAt string             `json:"generated_at,omitempty"`
	Spots       []jsonSpot         `json:"spots"`
	Sentries    []jsonSpot         `json:"sentries"`
	Teams       []model.TeamInfo   `json:"teams,omitempty"`
	Players     []model.PlayerInfo `json:"players,omitempty"`
}

type jsonSpot struct {
	Spot    string                  `json:"spot"`
	X       float64                 `json:"x"`
	Y       float64                 `json:"y"`
	Count   int                     `json:"count"`
	Total   float64                 `json:"total"`
	BySide  map[string]model.Coarse `json:"bySide,omitempty"`
	ByTeam  map[string]model.Coarse `json:"byTeam,omitempty"`
	Samples []jsonSample            `json:"samples,omitempty"`
}

type jsonSample struct {
	T      float64  `json:"t"`
	Side   string   `json:"side,omitempty"`
	TeamID int64    `json:"teamId,omitempty"`
	AID    int64    `json:"aid,omitempty"`
	Life   float64  `json:"life"`
	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
}

// Write encodes ds as indented widget JSON.
func Write(w io.Writer, ds *model.Dataset, generatedAt string) error {
	out := jsonDataset{
		GeneratedAt: generatedAt,
		Spots:       toJSONSpots(ds.Spots),
		Sentries:    toJSONSpots(ds.Sentries),
		Teams:       ds.Teams,
		Players:     ds.Players,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return nil
}

func toJSONSpots(spots []model.Spot) []jsonSpot {
	out := make([]jsonSpot, 0, len(spots))
	for _, s := range spots {
		js := jsonSpot{Spot: s.Key, X: s.Pos.X, Y: s.Pos.Y, Count: s.Count, Total: s.Total}
		if len(s.BySide) > 0 {
			js.BySide = make(map[string]model.Coarse, len(s.BySide))
			for side, c := range s.BySide {
				js.BySide[side.String()] = c
			}
		}
		if len(s.ByTeam) > 0 {
			js.ByTeam = make(map[string]model.Coarse, len(s.ByTeam))
			for id, c := range s.ByTeam {
				js.ByTeam[strconv.FormatInt(id, 10)] = c
			}
		}
		for _, sm := range s.Samples {
			jsm := jsonSample{T: sm.Timestamp, TeamID: sm.TeamID, AID: sm.AccountID, Life: sm.Lifetime}
			if sm.Side != model.SideUnknown {
				jsm.Side = sm.Side.String()
			}
			if sm.HasPos && sm.Pos != s.Pos {
				x, y := sm.Pos.X, sm.Pos.Y
				jsm.X, jsm.Y = &x, &y
			}
			js.Samples = append(js.Samples, jsm)
		}
		out = append(out, js)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Spot < out[j].Spot })
	return out
}
