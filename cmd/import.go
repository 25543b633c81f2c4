package cmd

import (
	"crypto/sha256"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-dota-wards/internal/dataset"
	"github.com/pable/go-dota-wards/internal/model"
	"github.com/pable/go-dota-wards/internal/parser"
)

var (
	importMatchID int64
	importDate    string
)

var importCmd = &cobra.Command{
	Use:   "import <dataset.json>",
	Short: "Store the per-sample placements of a dataset JSON file",
	Long: `Reads a widget dataset (spots/observers and sentries with samples) and stores
every sample as a placement under one match id. Spots that only carry coarse
count/total aggregates have no per-placement detail and are skipped.

Without --match the id is derived from the file contents.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().Int64Var(&importMatchID, "match", 0, "match id to store the placements under")
	importCmd.Flags().StringVar(&importDate, "date", "", "match date label (YYYY-MM-DD)")
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}
	res, err := dataset.Parse(data)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "dataset: %s\n", w)
	}
	if res.Skipped > 0 {
		fmt.Fprintf(os.Stderr, "dataset: skipped %d samples with invalid timestamps\n", res.Skipped)
	}

	matchID := importMatchID
	if matchID == 0 {
		sum := sha256.Sum256(data)
		matchID = parser.SyntheticMatchID(sum[:])
	}

	placements, coarseOnly := dataset.Placements(&res.Dataset, matchID)
	if len(coarseOnly) > 0 {
		fmt.Fprintf(os.Stderr, "  [warn] %d spots have only coarse aggregates and were skipped\n", len(coarseOnly))
	}
	if len(placements) == 0 {
		return fmt.Errorf("no per-sample placements in %s", args[0])
	}

	db, err := openStorage()
	if err != nil {
		return err
	}
	defer db.Close()

	summary := model.MatchSummary{MatchID: matchID, Source: "import", MatchDate: importDate}
	if err := saveMatch(db, summary, placements, res.Dataset.Teams, res.Dataset.Players); err != nil {
		return err
	}
	fmt.Printf("Imported %d placements as match %d\n", len(placements), matchID)
	return nil
}
