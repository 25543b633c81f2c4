package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-dota-wards/internal/analysis"
	"github.com/pable/go-dota-wards/internal/model"
	"github.com/pable/go-dota-wards/internal/report"
)

var spotsSentries bool

var spotsCmd = &cobra.Command{
	Use:   "spots",
	Short: "Rank observer ward spots",
	Long: `Ranks observer spots by average or median lifetime, or by sentry contest, under
the given filter. Rows marked "*" are pinned, rows marked "~" are built from
coarse aggregates and ignore time and player filters.

Examples:
  wardmetrics spots --time early --team Radiant --top 10
  wardmetrics spots --mode worst --min 3 --basis contest
  wardmetrics spots --cluster 4 --pins "[120, 84]"`,
	Args: cobra.NoArgs,
	RunE: runSpots,
}

func init() {
	addFilterFlags(spotsCmd)
	spotsCmd.Flags().BoolVar(&spotsSentries, "sentries", false, "also list the sentries feeding the contest field")
}

func runSpots(cmd *cobra.Command, args []string) error {
	f, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	if len(ws.ds.Spots) == 0 {
		fmt.Fprintln(os.Stdout, "No observer spots loaded. Run 'wardmetrics fetch' or pass --data.")
		return nil
	}
	pass := ws.engine.Run(f)
	printPass(os.Stdout, ws, pass)
	if spotsSentries {
		fmt.Fprintf(os.Stdout, "\nSentries (density radius %.1f%%):\n", pass.DensityRadiusPct)
		report.PrintSentryTable(os.Stdout, pass.Sentries)
	}
	return nil
}

// printPass prints the ranked rows of a pass with its filter header.
func printPass(w io.Writer, ws *workspace, pass *analysis.Pass) {
	report.PrintFilterHeader(w, pass.Filter, ws.names, len(pass.Ranked), len(pass.Qualifying))
	if len(pass.Ranked) == 0 {
		fmt.Fprintln(w, "No spots match the current filter.")
		return
	}
	report.PrintSpotTable(w, pass.Ranked)
	if pass.Clustered {
		report.PrintClusterMembers(w, pass.Ranked)
	}
	fmt.Fprintf(w, "\n%d placements across %d qualifying %s\n",
		analysis.TotalCount(pass.Qualifying), len(pass.Qualifying), plural(len(pass.Qualifying), "spot", "spots"))
}

// spotKeyArg accepts a key as "[x, y]", "x,y" or two separate arguments.
// Cluster keys pass through unchanged.
func spotKeyArg(args []string) (string, error) {
	var x, y float64
	joined := strings.TrimSpace(strings.Join(args, " "))
	if strings.HasPrefix(joined, "cluster:") {
		return joined, nil
	}
	if _, err := fmt.Sscanf(joined, "[%g, %g]", &x, &y); err == nil {
		return model.SpotKey(x, y), nil
	}
	if _, err := fmt.Sscanf(joined, "%g,%g", &x, &y); err == nil {
		return model.SpotKey(x, y), nil
	}
	if _, err := fmt.Sscanf(joined, "%g %g", &x, &y); err == nil {
		return model.SpotKey(x, y), nil
	}
	return "", fmt.Errorf("invalid spot %q (want \"[x, y]\")", joined)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
