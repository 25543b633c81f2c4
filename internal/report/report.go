package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-dota-wards/internal/model"
	"github.com/pable/go-dota-wards/internal/spatial"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// Names resolves team and player ids to display names.
type Names struct {
	Teams   map[int64]string
	Players map[int64]string
}

// NamesFor indexes a dataset's lookup tables.
func NamesFor(ds *model.Dataset) Names {
	n := Names{Teams: map[int64]string{}, Players: map[int64]string{}}
	if ds == nil {
		return n
	}
	for _, t := range ds.Teams {
		n.Teams[t.ID] = t.Name
	}
	for _, p := range ds.Players {
		n.Players[p.AccountID] = p.Name
	}
	return n
}

// Team returns the team's name, or its id when unnamed.
func (n Names) Team(id int64) string {
	if id == 0 {
		return "—"
	}
	if name := n.Teams[id]; name != "" {
		return name
	}
	return strconv.FormatInt(id, 10)
}

// Player returns the player's name, or the account id when unnamed.
func (n Names) Player(id int64) string {
	if name := n.Players[id]; name != "" {
		return name
	}
	return strconv.FormatInt(id, 10)
}

// PrintFilterHeader prints the active filter and how many spots it covers.
func PrintFilterHeader(w io.Writer, f model.Filter, names Names, shown, qualifying int) {
	desc := f.Describe()
	if f.Team.Kind == model.TeamByID {
		desc = strings.Replace(desc, f.Team.String(), names.Team(f.Team.TeamID), 1)
	}
	if f.Player > 0 {
		desc = strings.Replace(desc, fmt.Sprintf("player %d", f.Player), "player "+names.Player(f.Player), 1)
	}
	fmt.Fprintf(w, "\n%s  |  %s %s  |  %d of %d spots\n\n", desc, f.Mode, metricLabel(f), shown, qualifying)
}

func metricLabel(f model.Filter) string {
	if f.Basis == model.BasisContest {
		return "contest"
	}
	return string(f.Metric)
}

// PrintSpotTable prints ranked spots. Pinned rows are marked "*"; rows built
// from coarse aggregates are marked "~".
func PrintSpotTable(w io.Writer, rows []model.SpotMetrics) {
	table := newTable(w)
	table.Header(" ", "#", "SPOT", "N", "AVG", "MED", "INST/SHORT/MED/LONG", "RAD", "DIRE", "PRESS", "RESID", "CONTEST")

	for i, m := range rows {
		marker := " "
		if m.Pinned {
			marker = "*"
		} else if m.Approximate {
			marker = "~"
		}
		med := "—"
		if !m.Approximate {
			med = FormatSeconds(m.MedianSeconds)
		}
		table.Append(
			marker,
			strconv.Itoa(i+1),
			spotLabel(m),
			strconv.Itoa(m.Count),
			FormatSeconds(m.AvgSeconds),
			med,
			histogramCell(m.Histogram),
			strconv.Itoa(m.RadiantCount),
			strconv.Itoa(m.DireCount),
			fmt.Sprintf("%.0f", m.Pressure),
			strconv.Itoa(m.Residual),
			strconv.Itoa(m.Contest),
		)
	}
	table.Render()
}

func spotLabel(m model.SpotMetrics) string {
	if len(m.Members) == 0 {
		return m.Key
	}
	return fmt.Sprintf("%s (%d)", m.Key, len(m.Members))
}

func histogramCell(h model.Histogram) string {
	return fmt.Sprintf("%d/%d/%d/%d", h.Instant, h.Short, h.Medium, h.Long)
}

// PrintClusterMembers lists the member spots of each cluster row.
func PrintClusterMembers(w io.Writer, rows []model.SpotMetrics) {
	printed := false
	for _, m := range rows {
		if len(m.Members) == 0 {
			continue
		}
		if !printed {
			fmt.Fprintln(w, "\nCluster members:")
			printed = true
		}
		fmt.Fprintf(w, "  %s: %s\n", m.Key, strings.Join(m.Members, " "))
	}
}

// PrintSentryTable prints the sentries feeding the density field.
func PrintSentryTable(w io.Writer, idx *spatial.SentryIndex) {
	if idx == nil || len(idx.Entries) == 0 {
		fmt.Fprintln(w, "No sentries match the current filter.")
		return
	}
	table := newTable(w)
	table.Header("SENTRY", "U%", "V%", "N")
	for _, e := range idx.Entries {
		table.Append(e.Key, fmt.Sprintf("%.1f", e.U*100), fmt.Sprintf("%.1f", e.V*100), strconv.Itoa(e.Count))
	}
	table.Render()
}

// PrintEffectiveness prints the composite score with its breakdown.
func PrintEffectiveness(w io.Writer, m model.SpotMetrics, e model.Effectiveness) {
	fmt.Fprintf(w, "\nSpot %s  |  %d placements  |  avg %s  |  contest %d\n",
		spotLabel(m), m.Count, FormatSeconds(m.AvgSeconds), m.Contest)
	fmt.Fprintf(w, "Effectiveness: %d/100\n\n", e.Score)

	table := newTable(w)
	table.Header("COMPONENT", "SCORE", "WEIGHT", "DETAIL")
	table.Append("lifetime", strconv.Itoa(e.Breakdown.LifePct), "30%", "avg "+FormatSeconds(m.AvgSeconds))
	objDetail := "no objectives loaded"
	if e.NearestObjective != "" {
		objDetail = fmt.Sprintf("%s at %.1f%%", e.NearestObjective, e.ObjectiveDistPct)
	}
	table.Append("objective", strconv.Itoa(e.Breakdown.ObjPct), "20%", objDetail)
	table.Append("sentry safety", strconv.Itoa(e.Breakdown.SentPct), "30%", fmt.Sprintf("pressure %.0f", m.Pressure))
	phaseDetail := "no per-sample data"
	if e.BestPhase != model.PhaseAll {
		phaseDetail = fmt.Sprintf("%s (%s) avg %.0fs, n=%d",
			e.BestPhase, e.BestPhase.Label(), e.BestPhaseAvg, e.BestPhaseSamples)
	}
	table.Append("phase fit", strconv.Itoa(e.Breakdown.PhasePct), "20%", phaseDetail)
	table.Render()

	if len(m.Contributors) > 0 {
		fmt.Fprintln(w, "\nTop sentry contributors:")
		for _, c := range m.Contributors {
			fmt.Fprintf(w, "  %-18s n=%-3d weight %.2f\n", c.Key, c.Count, c.Weight)
		}
	}
}

// PrintMatchList prints stored matches, newest first.
func PrintMatchList(w io.Writer, matches []model.MatchSummary, names Names) {
	table := newTable(w)
	table.Header("MATCH", "SOURCE", "DATE", "RADIANT", "DIRE", "OBS", "SEN")
	for _, s := range matches {
		table.Append(
			strconv.FormatInt(s.MatchID, 10),
			s.Source,
			s.MatchDate,
			names.Team(s.RadiantTeamID),
			names.Team(s.DireTeamID),
			strconv.Itoa(s.Observers),
			strconv.Itoa(s.Sentries),
		)
	}
	table.Render()
}

// PrintMatchSummary prints a one-line header for a match.
func PrintMatchSummary(w io.Writer, s model.MatchSummary, names Names) {
	fmt.Fprintf(w, "\nMatch: %d  |  Source: %s  |  Date: %s  |  %s vs %s  |  Obs %d  Sen %d\n\n",
		s.MatchID, s.Source, s.MatchDate, names.Team(s.RadiantTeamID), names.Team(s.DireTeamID),
		s.Observers, s.Sentries)
}

// PrintPlacementTable prints a match's raw placements in clock order.
func PrintPlacementTable(w io.Writer, placements []model.Placement, names Names) {
	table := newTable(w)
	table.Header("TIME", "KIND", "X", "Y", "SIDE", "PLAYER", "LIFE")
	for _, p := range placements {
		player := "—"
		if p.AccountID != 0 {
			player = names.Player(p.AccountID)
		}
		table.Append(
			FormatClock(p.Time),
			string(p.Kind),
			strconv.FormatFloat(p.Pos.X, 'f', -1, 64),
			strconv.FormatFloat(p.Pos.Y, 'f', -1, 64),
			p.Side.String(),
			player,
			FormatSeconds(int(p.Lifetime)),
		)
	}
	table.Render()
}

// PrintRows prints an arbitrary result set, e.g. from a raw SQL query.
func PrintRows(w io.Writer, cols []string, rows [][]string) {
	table := newTable(w)
	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)
	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
}

// FormatSeconds renders a duration as m:ss.
func FormatSeconds(s int) string {
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// FormatClock renders a match clock value, which may be negative before the horn.
func FormatClock(t float64) string {
	sign := ""
	if t < 0 {
		sign = "-"
		t = -t
	}
	s := int(t)
	return fmt.Sprintf("%s%d:%02d", sign, s/60, s%60)
}
