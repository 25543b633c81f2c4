package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-dota-wards/internal/report"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the ward database",
	Long: `Run an arbitrary SQL query against the ward database and print results as a table.

Schema overview:
  matches(match_id, source, match_date, radiant_team_id, dire_team_id)
  placements(id, match_id, kind, x, y, game_time, side, team_id, account_id, lifetime)
  teams(team_id, name)
  players(account_id, name)

kind is 'observer' or 'sentry'; side is 'Radiant', 'Dire' or '?'.
Replay and import matches without a real id are stored under negative ids.

Example:
  wardmetrics sql "SELECT x, y, COUNT(*) n, AVG(lifetime) FROM placements WHERE kind='observer' GROUP BY x, y ORDER BY n DESC LIMIT 10"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := openStorage()
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}
	report.PrintRows(os.Stdout, cols, rows)
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}
