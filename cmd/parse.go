package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-dota-wards/internal/model"
	"github.com/pable/go-dota-wards/internal/parser"
	"github.com/pable/go-dota-wards/internal/report"
	"github.com/pable/go-dota-wards/internal/storage"
)

var (
	parseMatchID int64
	parseDate    string
	parseForce   bool
	parseVerbose bool
)

var parseCmd = &cobra.Command{
	Use:   "parse <replay.dem> [replay.dem...]",
	Short: "Parse Dota 2 replays and store their ward placements",
	Long: `Reads observer and sentry ward entities from one or more replays
(.dem, .dem.bz2, .dem.zst or .dem.gz) and stores one placement per ward.

Without --match the match id is derived from the file contents, so the same
replay always maps to the same (negative) id.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().Int64Var(&parseMatchID, "match", 0, "match id to store under (single replay only)")
	parseCmd.Flags().StringVar(&parseDate, "date", "", "match date label (YYYY-MM-DD)")
	parseCmd.Flags().BoolVar(&parseForce, "force", false, "re-parse replays that are already stored")
	parseCmd.Flags().BoolVarP(&parseVerbose, "verbose", "v", false, "print every placement")
}

func runParse(cmd *cobra.Command, args []string) error {
	if parseMatchID != 0 && len(args) > 1 {
		return fmt.Errorf("--match can only be used with a single replay")
	}

	db, err := openStorage()
	if err != nil {
		return err
	}
	defer db.Close()

	failed := 0
	for _, path := range args {
		if err := parseOne(db, path, parseMatchID); err != nil {
			fmt.Fprintf(os.Stderr, "  [error] %s: %v\n", path, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d replays failed", failed, len(args))
	}
	return nil
}

func parseOne(db *storage.DB, path string, matchID int64) error {
	if matchID != 0 && !parseForce {
		exists, err := db.MatchExists(matchID)
		if err != nil {
			return fmt.Errorf("check match: %w", err)
		}
		if exists {
			fmt.Fprintf(os.Stdout, "Match %d already stored (use --force to re-parse).\n", matchID)
			return nil
		}
	}

	fmt.Fprintf(os.Stdout, "Parsing %s...\n", path)
	res, err := parser.ParseReplay(path, matchID)
	if err != nil {
		return err
	}

	summary := model.MatchSummary{
		MatchID:   res.MatchID,
		Source:    "replay",
		MatchDate: parseDate,
	}
	if err := saveMatch(db, summary, res.Placements, nil, res.Players); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "  stored match %d: %d placements\n", res.MatchID, len(res.Placements))

	if parseVerbose {
		names := report.Names{Players: playerNames(res.Players)}
		report.PrintPlacementTable(os.Stdout, res.Placements, names)
	}
	return nil
}

// saveMatch replaces everything stored for one match. The match row goes first
// so the placements' foreign key resolves.
func saveMatch(db *storage.DB, s model.MatchSummary, placements []model.Placement, teams []model.TeamInfo, players []model.PlayerInfo) error {
	if err := db.InsertMatch(s); err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	if err := db.ReplacePlacements(s.MatchID, placements); err != nil {
		return fmt.Errorf("insert placements: %w", err)
	}
	if err := db.UpsertTeams(teams); err != nil {
		return fmt.Errorf("upsert teams: %w", err)
	}
	if err := db.UpsertPlayers(players); err != nil {
		return fmt.Errorf("upsert players: %w", err)
	}
	return nil
}

func playerNames(players []model.PlayerInfo) map[int64]string {
	out := make(map[int64]string, len(players))
	for _, p := range players {
		out[p.AccountID] = p.Name
	}
	return out
}
