package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-dota-wards/internal/report"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored matches",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openStorage()
	if err != nil {
		return err
	}
	defer db.Close()

	matches, err := db.ListMatches()
	if err != nil {
		return fmt.Errorf("list matches: %w", err)
	}
	if len(matches) == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'wardmetrics fetch <match-id>' or 'wardmetrics parse <replay.dem>' to add one.")
		return nil
	}

	names, err := storedNames(db)
	if err != nil {
		return err
	}
	report.PrintMatchList(os.Stdout, matches, names)
	return nil
}
