package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-dota-wards/internal/report"
)

var scoreCmd = &cobra.Command{
	Use:   "score <spot>",
	Short: "Score one spot's overall effectiveness",
	Long: `Combines lifetime, objective proximity, sentry safety and best-phase fit into a
0-100 effectiveness score for one spot (or cluster, with --cluster) under the
given filter.

Example:
  wardmetrics score "[120, 84]" --team Dire`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runScore,
}

func init() {
	addFilterFlags(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	key, err := spotKeyArg(args)
	if err != nil {
		return err
	}
	f, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	pass := ws.engine.Run(f)
	m, ok := pass.Find(key)
	if !ok {
		return fmt.Errorf("spot %s not found", key)
	}
	e, _ := pass.Effectiveness(key)
	report.PrintEffectiveness(os.Stdout, m, e)
	return nil
}
