package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Phase is a named slice of the match clock.
type Phase string

const (
	PhaseAll       Phase = ""
	PhaseEarly     Phase = "early"
	PhaseMid       Phase = "mid"
	PhaseEarlyLate Phase = "earlylate"
	PhaseLate      Phase = "late"
	PhaseSuperLate Phase = "superlate"
)

// Phases lists the five match phases in clock order.
var Phases = []Phase{PhaseEarly, PhaseMid, PhaseEarlyLate, PhaseLate, PhaseSuperLate}

// Window returns the [min, max) interval covered by the phase.
func (p Phase) Window() TimeWindow {
	switch p {
	case PhaseEarly:
		return TimeWindow{Min: 0, Max: 600}
	case PhaseMid:
		return TimeWindow{Min: 600, Max: 2100}
	case PhaseEarlyLate:
		return TimeWindow{Min: 2100, Max: 3000}
	case PhaseLate:
		return TimeWindow{Min: 3000, Max: 4500}
	case PhaseSuperLate:
		return TimeWindow{Min: 4500, Max: math.Inf(1)}
	default:
		return Unbounded()
	}
}

// Label is the short human description of the phase window.
func (p Phase) Label() string {
	switch p {
	case PhaseEarly:
		return "0-10m"
	case PhaseMid:
		return "10-35m"
	case PhaseEarlyLate:
		return "35-50m"
	case PhaseLate:
		return "50-75m"
	case PhaseSuperLate:
		return "75m+"
	default:
		return "all"
	}
}

// ParsePhase validates a phase name; the empty string means the whole match.
func ParsePhase(s string) (Phase, error) {
	p := Phase(strings.ToLower(strings.TrimSpace(s)))
	if p == PhaseAll || p == "all" {
		return PhaseAll, nil
	}
	for _, known := range Phases {
		if p == known {
			return p, nil
		}
	}
	return PhaseAll, fmt.Errorf("unknown time phase %q", s)
}

// TimeWindow is an inclusive-exclusive range of match seconds.
type TimeWindow struct {
	Min, Max float64
}

// Unbounded returns a window that admits every finite timestamp.
func Unbounded() TimeWindow {
	return TimeWindow{Min: math.Inf(-1), Max: math.Inf(1)}
}

// Contains reports whether t falls in [Min, Max). Non-finite t never matches.
func (w TimeWindow) Contains(t float64) bool {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return false
	}
	return t >= w.Min && t < w.Max
}

// TeamSelectorKind says which dimension a TeamSelector filters on.
type TeamSelectorKind int

const (
	TeamAny TeamSelectorKind = iota
	TeamBySide
	TeamByID
)

// TeamSelector filters samples by faction or by tournament team id.
type TeamSelector struct {
	Kind   TeamSelectorKind
	Side   Side
	TeamID int64
}

// ParseTeamSelector understands "", "Radiant", "Dire" and "team:<id>".
func ParseTeamSelector(s string) (TeamSelector, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return TeamSelector{}, nil
	}
	if side := ParseSide(s); side != SideUnknown {
		return TeamSelector{Kind: TeamBySide, Side: side}, nil
	}
	if strings.HasPrefix(s, "team:") {
		id, err := strconv.ParseInt(strings.TrimPrefix(s, "team:"), 10, 64)
		if err != nil || id <= 0 {
			return TeamSelector{}, fmt.Errorf("invalid team id in %q", s)
		}
		return TeamSelector{Kind: TeamByID, TeamID: id}, nil
	}
	return TeamSelector{}, fmt.Errorf("unknown team selector %q", s)
}

func (t TeamSelector) String() string {
	switch t.Kind {
	case TeamBySide:
		return t.Side.String()
	case TeamByID:
		return fmt.Sprintf("team:%d", t.TeamID)
	default:
		return "All"
	}
}

// Basis is the ranking criterion.
type Basis string

const (
	BasisLifetime Basis = "lifetime"
	BasisContest  Basis = "contest"
)

// Metric selects which lifetime statistic ranks spots on the lifetime basis.
type Metric string

const (
	MetricAvg    Metric = "avg"
	MetricMedian Metric = "median"
)

// Mode selects the best or worst end of the ranking.
type Mode string

const (
	ModeBest  Mode = "best"
	ModeWorst Mode = "worst"
)

// Filter is the active query of one render pass. It is a value: the With*
// methods return modified copies and never touch the receiver.
type Filter struct {
	Phase            Phase
	Window           TimeWindow
	Team             TeamSelector
	Player           int64 // 0 = any
	MinCount         int
	ClusterRadiusPct float64 // 0 = clustering disabled
	DensityRadiusPct float64 // 0 = use the map's sentry radius
	Basis            Basis
	Metric           Metric
	Mode             Mode
	TopN             int // 0 = all
	IncludeZeroWorst bool
	Pins             []string
}

// DefaultFilter is the widget's initial state: best spots, everything included.
func DefaultFilter() Filter {
	return Filter{
		Window:   Unbounded(),
		MinCount: 1,
		Basis:    BasisLifetime,
		Metric:   MetricAvg,
		Mode:     ModeBest,
	}
}

func (f Filter) WithPhase(p Phase) Filter {
	f.Phase = p
	f.Window = p.Window()
	return f
}

func (f Filter) WithWindow(w TimeWindow) Filter {
	f.Phase = PhaseAll
	f.Window = w
	return f
}

func (f Filter) WithTeam(t TeamSelector) Filter {
	f.Team = t
	return f
}

func (f Filter) WithPlayer(accountID int64) Filter {
	f.Player = accountID
	return f
}

func (f Filter) WithMinCount(n int) Filter {
	if n < 1 {
		n = 1
	}
	f.MinCount = n
	return f
}

func (f Filter) WithClusterRadius(pct float64) Filter {
	f.ClusterRadiusPct = pct
	return f
}

func (f Filter) WithDensityRadius(pct float64) Filter {
	f.DensityRadiusPct = pct
	return f
}

func (f Filter) WithBasis(b Basis) Filter {
	f.Basis = b
	return f
}

func (f Filter) WithMetric(m Metric) Filter {
	f.Metric = m
	return f
}

func (f Filter) WithMode(m Mode) Filter {
	f.Mode = m
	return f
}

func (f Filter) WithTopN(n int) Filter {
	if n < 0 {
		n = 0
	}
	f.TopN = n
	return f
}

// TogglePin adds the key to the pin set, or removes it when already pinned.
func (f Filter) TogglePin(key string) Filter {
	pins := make([]string, 0, len(f.Pins)+1)
	found := false
	for _, p := range f.Pins {
		if p == key {
			found = true
			continue
		}
		pins = append(pins, p)
	}
	if !found {
		pins = append(pins, key)
	}
	f.Pins = pins
	return f
}

// IsPinned reports whether key is in the pin set.
func (f Filter) IsPinned(key string) bool {
	for _, p := range f.Pins {
		if p == key {
			return true
		}
	}
	return false
}

// Matches applies the time, team and player rules to one sample.
func (f Filter) Matches(s Sample) bool {
	if !f.Window.Contains(s.Timestamp) {
		return false
	}
	if f.Player > 0 && s.AccountID != f.Player {
		return false
	}
	switch f.Team.Kind {
	case TeamBySide:
		return s.Side == f.Team.Side
	case TeamByID:
		return s.TeamID == f.Team.TeamID
	}
	return true
}

// Describe renders the filter as a one-line label.
func (f Filter) Describe() string {
	parts := []string{f.Team.String(), f.Phase.Label()}
	if f.Phase == PhaseAll && !(math.IsInf(f.Window.Min, -1) && math.IsInf(f.Window.Max, 1)) {
		parts[1] = fmt.Sprintf("%.0fs-%.0fs", f.Window.Min, f.Window.Max)
	}
	if f.Player > 0 {
		parts = append(parts, fmt.Sprintf("player %d", f.Player))
	}
	parts = append(parts, fmt.Sprintf("min %d", f.MinCount), string(f.Basis))
	if f.ClusterRadiusPct > 0 {
		parts = append(parts, fmt.Sprintf("cluster %.1f%%", f.ClusterRadiusPct))
	}
	return strings.Join(parts, " · ")
}

// ParseWindow accepts a phase name or an explicit "min-max" range in seconds,
// where either end may be empty ("-600", "2100-").
func ParseWindow(s string) (Phase, TimeWindow, error) {
	if p, err := ParsePhase(s); err == nil {
		return p, p.Window(), nil
	}
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return PhaseAll, TimeWindow{}, fmt.Errorf("unknown time window %q", s)
	}
	w := Unbounded()
	if lo != "" {
		v, err := strconv.ParseFloat(lo, 64)
		if err != nil {
			return PhaseAll, TimeWindow{}, fmt.Errorf("invalid window start in %q", s)
		}
		w.Min = v
	}
	if hi != "" {
		v, err := strconv.ParseFloat(hi, 64)
		if err != nil {
			return PhaseAll, TimeWindow{}, fmt.Errorf("invalid window end in %q", s)
		}
		w.Max = v
	}
	if w.Max <= w.Min {
		return PhaseAll, TimeWindow{}, fmt.Errorf("empty time window %q", s)
	}
	return PhaseAll, w, nil
}

// Set derives a new filter from one named setting, as used by the HTTP query
// string and the interactive shell. Keys: mode, team, player, time, min, top,
// metric, basis, cluster, density, zero, pin, pins.
func (f Filter) Set(key, value string) (Filter, error) {
	value = strings.TrimSpace(value)
	switch strings.ToLower(key) {
	case "mode":
		switch Mode(strings.ToLower(value)) {
		case ModeBest:
			return f.WithMode(ModeBest), nil
		case ModeWorst:
			return f.WithMode(ModeWorst), nil
		}
		return f, fmt.Errorf("mode must be best or worst, got %q", value)
	case "team":
		t, err := ParseTeamSelector(value)
		if err != nil {
			return f, err
		}
		return f.WithTeam(t), nil
	case "player":
		if value == "" || strings.EqualFold(value, "all") {
			return f.WithPlayer(0), nil
		}
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id < 0 {
			return f, fmt.Errorf("invalid player account id %q", value)
		}
		return f.WithPlayer(id), nil
	case "time":
		p, w, err := ParseWindow(value)
		if err != nil {
			return f, err
		}
		if p != PhaseAll {
			return f.WithPhase(p), nil
		}
		return f.WithWindow(w), nil
	case "min":
		n, err := strconv.Atoi(value)
		if err != nil {
			return f, fmt.Errorf("invalid min count %q", value)
		}
		return f.WithMinCount(n), nil
	case "top":
		n, err := strconv.Atoi(value)
		if err != nil {
			return f, fmt.Errorf("invalid top count %q", value)
		}
		return f.WithTopN(n), nil
	case "metric":
		switch Metric(strings.ToLower(value)) {
		case MetricAvg:
			return f.WithMetric(MetricAvg), nil
		case MetricMedian:
			return f.WithMetric(MetricMedian), nil
		}
		return f, fmt.Errorf("metric must be avg or median, got %q", value)
	case "basis":
		switch Basis(strings.ToLower(value)) {
		case BasisLifetime:
			return f.WithBasis(BasisLifetime), nil
		case BasisContest:
			return f.WithBasis(BasisContest), nil
		}
		return f, fmt.Errorf("basis must be lifetime or contest, got %q", value)
	case "cluster", "density":
		pct := 0.0
		if value != "" && !strings.EqualFold(value, "off") {
			v, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
			if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return f, fmt.Errorf("invalid %s radius %q", key, value)
			}
			pct = v
		}
		if strings.EqualFold(key, "cluster") {
			return f.WithClusterRadius(pct), nil
		}
		return f.WithDensityRadius(pct), nil
	case "zero":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return f, fmt.Errorf("invalid zero flag %q", value)
		}
		f.IncludeZeroWorst = b
		return f, nil
	case "pin":
		if value == "" {
			return f, fmt.Errorf("pin needs a spot key")
		}
		return f.TogglePin(value), nil
	case "pins":
		f.Pins = SplitKeys(value)
		return f, nil
	}
	return f, fmt.Errorf("unknown filter setting %q", key)
}

// SplitKeys splits a list of spot keys separated by ';'. Commas cannot be used
// since they appear inside keys like "[120, 84]".
func SplitKeys(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ";") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
