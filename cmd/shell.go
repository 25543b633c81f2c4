package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-dota-wards/internal/model"
	"github.com/pable/go-dota-wards/internal/report"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long: `Open a persistent session over the loaded dataset. The filter is kept between
commands: every setting (team Dire, time early, top 10...) derives a new filter
and re-renders the ranking. Type 'help' for available commands.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

// shellFilterKeys are the commands that change one filter setting.
var shellFilterKeys = map[string]bool{
	"mode": true, "team": true, "player": true, "time": true, "min": true, "top": true,
	"metric": true, "basis": true, "cluster": true, "density": true, "zero": true,
	"pin": true, "pins": true,
}

// shellSession is the REPL state. The filter is replaced, never mutated.
type shellSession struct {
	ws     *workspace
	filter model.Filter
	base   model.Filter
	out    io.Writer
	errOut io.Writer
}

func runShell(_ *cobra.Command, _ []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	s := &shellSession{ws: ws, filter: cfg.Filter(), base: cfg.Filter(), out: os.Stdout, errOut: os.Stderr}

	cGreeting.Println("wardmetrics shell")
	cMuted.Printf("%d observer spots, %d sentry spots loaded; type 'help' or 'exit'\n",
		len(ws.ds.Spots), len(ws.ds.Sentries))
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("wards")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		if quit := s.exec(scanner.Text()); quit {
			return nil
		}
	}
	return nil
}

// exec runs one input line and reports whether the session should end.
func (s *shellSession) exec(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	tokens := strings.Fields(line)
	cmd := strings.ToLower(tokens[0])
	rest := strings.TrimSpace(line[len(tokens[0]):])

	if shellFilterKeys[cmd] {
		if cmd == "pin" && rest != "" {
			key, err := spotKeyArg(tokens[1:])
			if err != nil {
				cError.Fprintf(s.errOut, "error: %v\n", err)
				return false
			}
			rest = key
		}
		f, err := s.filter.Set(cmd, rest)
		if err != nil {
			cError.Fprintf(s.errOut, "error: %v\n", err)
			return false
		}
		s.filter = f
		printPass(s.out, s.ws, s.ws.engine.Run(s.filter))
		return false
	}

	switch cmd {
	case "exit", "quit":
		return true
	case "help":
		s.help()
	case "filter":
		fmt.Fprintf(s.out, "%s  |  %s  |  basis %s  |  metric %s  |  min %d  |  top %d\n",
			s.filter.Describe(), s.filter.Mode, s.filter.Basis, s.filter.Metric, s.filter.MinCount, s.filter.TopN)
		if len(s.filter.Pins) > 0 {
			fmt.Fprintf(s.out, "pinned: %s\n", strings.Join(s.filter.Pins, " "))
		}
	case "reset":
		s.filter = s.base
		printPass(s.out, s.ws, s.ws.engine.Run(s.filter))
	case "show", "spots":
		printPass(s.out, s.ws, s.ws.engine.Run(s.filter))
	case "clusters":
		f := s.filter
		if f.ClusterRadiusPct <= 0 {
			f = f.WithClusterRadius(s.ws.engine.ObserverRadiusPct())
		}
		printPass(s.out, s.ws, s.ws.engine.Run(f))
	case "score":
		if rest == "" {
			cError.Fprintln(s.errOut, `usage: score <spot>   e.g. score [120, 84]`)
			return false
		}
		s.score(tokens[1:])
	case "sentries":
		pass := s.ws.engine.Run(s.filter)
		cHeader.Fprintf(s.out, "Sentries (density radius %.1f%%)\n", pass.DensityRadiusPct)
		report.PrintSentryTable(s.out, pass.Sentries)
	case "matches", "list":
		s.matches()
	default:
		cWarn.Fprintf(s.errOut, "unknown command %q, type 'help'\n", cmd)
	}
	return false
}

func (s *shellSession) score(args []string) {
	key, err := spotKeyArg(args)
	if err != nil {
		cError.Fprintf(s.errOut, "error: %v\n", err)
		return
	}
	pass := s.ws.engine.Run(s.filter)
	m, ok := pass.Find(key)
	if !ok {
		cError.Fprintf(s.errOut, "spot %s not found under the current filter\n", key)
		return
	}
	e, _ := pass.Effectiveness(key)
	report.PrintEffectiveness(s.out, m, e)
}

func (s *shellSession) matches() {
	if s.ws.db == nil {
		cMuted.Fprintln(s.out, "Dataset loaded from file; no stored matches.")
		return
	}
	matches, err := s.ws.db.ListMatches()
	if err != nil {
		cError.Fprintf(s.errOut, "error: %v\n", err)
		return
	}
	if len(matches) == 0 {
		cMuted.Fprintln(s.out, "No matches stored yet.")
		return
	}
	report.PrintMatchList(s.out, matches, s.ws.names)
}

func (s *shellSession) help() {
	fmt.Fprintln(s.out)
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"show / spots", "rank spots under the current filter"},
		{"clusters", "same, merged into proximity clusters"},
		{"score <spot>", "effectiveness breakdown for one spot"},
		{"sentries", "sentries feeding the contest field"},
		{"mode best|worst", "ranking end"},
		{"team Radiant|Dire|team:<id>|all", "team filter"},
		{"player <account-id>|all", "player filter"},
		{"time <phase>|<min>-<max>|all", "time window (early, mid, earlylate, late, superlate)"},
		{"min <n> / top <n>", "minimum placements / rows shown (0 = all)"},
		{"metric avg|median", "lifetime statistic"},
		{"basis lifetime|contest", "ranking basis"},
		{"cluster <pct>|off", "cluster radius in percent of the map"},
		{"density <pct>|off", "sentry density radius in percent"},
		{"zero true|false", "keep zero-lifetime spots in worst mode"},
		{"pin <spot>", "toggle a pinned spot"},
		{"filter / reset", "print / reset the filter"},
		{"matches", "list stored matches"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Fprint(s.out, "  ")
		cCmd.Fprintf(s.out, "%-38s", r.cmd)
		fmt.Fprintln(s.out, r.desc)
	}
	fmt.Fprintln(s.out)
}
