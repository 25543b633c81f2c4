package model

import (
	"fmt"
	"math"
)

// Side represents which faction placed a ward.
type Side int

const (
	SideUnknown Side = 0
	SideRadiant Side = 2
	SideDire    Side = 3
)

func (s Side) String() string {
	switch s {
	case SideRadiant:
		return "Radiant"
	case SideDire:
		return "Dire"
	default:
		return "?"
	}
}

// ParseSide accepts the faction names used by the widgets and the numeric
// game team ids (2 = Radiant, 3 = Dire).
func ParseSide(s string) Side {
	switch s {
	case "Radiant", "radiant", "2":
		return SideRadiant
	case "Dire", "dire", "3":
		return SideDire
	default:
		return SideUnknown
	}
}

// WardKind distinguishes observer wards from sentry wards.
type WardKind string

const (
	KindObserver WardKind = "observer"
	KindSentry   WardKind = "sentry"
)

// Vec2 is a world-space map position. Units depend on the data source
// (OpenDota grid cells or replay world units); Projection maps either into [0,1]².
type Vec2 struct{ X, Y float64 }

// ---- Raw placements emitted by the parser / fetcher ----

// Placement is one observed ward as produced by an ingestion source, before it
// is grouped into spots.
type Placement struct {
	MatchID   int64
	Kind      WardKind
	Pos       Vec2
	Time      float64 // match clock at placement (seconds)
	Side      Side
	TeamID    int64 // 0 if unknown
	AccountID int64 // 0 if unknown
	Lifetime  float64
}

// ---- Canonical analytics input ----

// Sample is one placement attached to a spot. Alias field names found in the
// loose JSON inputs are resolved once, at ingestion.
type Sample struct {
	Pos       Vec2
	HasPos    bool
	Timestamp float64
	Side      Side
	TeamID    int64
	AccountID int64
	Lifetime  float64
}

// Coarse is a precomputed count/total pair used when per-sample detail is missing.
type Coarse struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// Spot is a distinct (x, y) location accumulating placements.
// When Samples is non-empty it is authoritative and the coarse fields are ignored.
type Spot struct {
	Key     string
	Pos     Vec2
	Count   int
	Total   float64
	BySide  map[Side]Coarse
	ByTeam  map[int64]Coarse
	Samples []Sample
}

// HasSamples reports whether the spot carries per-sample detail.
func (s *Spot) HasSamples() bool {
	return len(s.Samples) > 0
}

// SpotKey formats the exact-match key used to group placements, e.g. "[120, 84]".
func SpotKey(x, y float64) string {
	return fmt.Sprintf("[%s, %s]", trimFloat(x), trimFloat(y))
}

func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%g", v)
}

// TeamInfo and PlayerInfo are lookup tables carried with a dataset for display.
type TeamInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type PlayerInfo struct {
	AccountID int64  `json:"id"`
	Name      string `json:"name"`
}

// Dataset is the immutable input of a render pass.
type Dataset struct {
	Spots    []Spot // observer spots
	Sentries []Spot
	Teams    []TeamInfo
	Players  []PlayerInfo
}

// ---- Derived metrics ----

// Histogram buckets filtered lifetimes: instant <= 5s, short <= 30s, medium <= 150s, long > 150s.
type Histogram struct {
	Instant int `json:"instant"`
	Short   int `json:"short"`
	Medium  int `json:"medium"`
	Long    int `json:"long"`
}

// Total returns the number of samples across all buckets.
func (h Histogram) Total() int {
	return h.Instant + h.Short + h.Medium + h.Long
}

// ShortFraction is the share of placements that lived 30s or less.
func (h Histogram) ShortFraction() float64 {
	n := h.Total()
	if n == 0 {
		return 0
	}
	return float64(h.Instant+h.Short) / float64(n)
}

// Contributor is a sentry that adds pressure at a query point.
type Contributor struct {
	Key    string  `json:"key"`
	U      float64 `json:"u"`
	V      float64 `json:"v"`
	Count  int     `json:"count"`
	Weight float64 `json:"weight"`
}

// SpotMetrics is the per-render view of a spot (or a cluster of spots).
// Never persisted.
type SpotMetrics struct {
	Key           string        `json:"spot"`
	Pos           Vec2          `json:"-"`
	X             float64       `json:"x"`
	Y             float64       `json:"y"`
	U             float64       `json:"u"` // normalized [0,1]
	V             float64       `json:"v"`
	Count         int           `json:"count"`
	AvgSeconds    int           `json:"avgSeconds"`
	MedianSeconds int           `json:"medianSeconds"`
	Histogram     Histogram     `json:"histogram"`
	RadiantCount  int           `json:"radiant"`
	DireCount     int           `json:"dire"`
	Pressure      float64       `json:"pressure"` // 0-100, re-normalized each pass
	Residual      int           `json:"residual"`
	Contest       int           `json:"contest"`
	Approximate   bool          `json:"approximate"` // built from coarse aggregates
	Pinned        bool          `json:"pinned,omitempty"`
	Members       []string      `json:"members,omitempty"` // cluster member keys
	Contributors  []Contributor `json:"contributors,omitempty"`
}

// Value returns the ranking value for the given basis and metric.
func (m *SpotMetrics) Value(basis Basis, metric Metric) int {
	if basis == BasisContest {
		return m.Contest
	}
	if metric == MetricMedian {
		return m.MedianSeconds
	}
	return m.AvgSeconds
}

// Breakdown holds the four effectiveness sub-scores (each 0-100).
type Breakdown struct {
	LifePct  int `json:"lifePct"`
	ObjPct   int `json:"objPct"`
	SentPct  int `json:"sentPct"`
	PhasePct int `json:"phasePct"`
}

// Effectiveness is the on-demand composite score for one selected spot.
type Effectiveness struct {
	Spot             string    `json:"spot"`
	Score            int       `json:"score"`
	Breakdown        Breakdown `json:"breakdown"`
	BestPhase        Phase     `json:"bestPhase"`
	BestPhaseAvg     float64   `json:"bestPhaseAvg"`
	BestPhaseSamples int       `json:"bestPhaseSamples"`
	NearestObjective string    `json:"nearestObjective,omitempty"`
	ObjectiveDistPct float64   `json:"objectiveDistPct"`
}

// MatchSummary is a lightweight record for list/show commands.
type MatchSummary struct {
	MatchID       int64  `json:"matchId"`
	Source        string `json:"source"` // "replay", "opendota", "import"
	MatchDate     string `json:"matchDate"`
	RadiantTeamID int64  `json:"radiantTeamId"`
	DireTeamID    int64  `json:"direTeamId"`
	Observers     int    `json:"observers"`
	Sentries      int    `json:"sentries"`
}
