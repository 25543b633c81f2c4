package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pable/go-dota-wards/internal/model"
	"github.com/pable/go-dota-wards/internal/report"
)

var showKind string

var showCmd = &cobra.Command{
	Use:   "show <match-id>",
	Short: "Show a stored match and its ward placements",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showKind, "kind", "", "only show observer or sentry placements")
}

func runShow(cmd *cobra.Command, args []string) error {
	matchID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid match id %q", args[0])
	}
	if showKind != "" && showKind != string(model.KindObserver) && showKind != string(model.KindSentry) {
		return fmt.Errorf("--kind must be observer or sentry")
	}

	db, err := openStorage()
	if err != nil {
		return err
	}
	defer db.Close()

	match, err := db.GetMatch(matchID)
	if err != nil {
		return fmt.Errorf("query match: %w", err)
	}
	if match == nil {
		fmt.Fprintf(os.Stderr, "No match %d stored\n", matchID)
		return nil
	}

	names, err := storedNames(db)
	if err != nil {
		return err
	}
	placements, err := db.LoadPlacements([]int64{matchID})
	if err != nil {
		return fmt.Errorf("load placements: %w", err)
	}
	if showKind != "" {
		kept := placements[:0]
		for _, p := range placements {
			if string(p.Kind) == showKind {
				kept = append(kept, p)
			}
		}
		placements = kept
	}

	report.PrintMatchSummary(os.Stdout, *match, names)
	report.PrintPlacementTable(os.Stdout, placements, names)
	return nil
}
