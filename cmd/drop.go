package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dropForce bool
	dropMatch int64
)

// dropCmd deletes one match or the whole database file.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete a stored match or the whole database",
	Long: `With --match, delete one match and its placements. Without it, permanently
delete the SQLite database; re-fetch or re-parse afterwards to rebuild.`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
	dropCmd.Flags().Int64Var(&dropMatch, "match", 0, "delete only this match")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if dropMatch != 0 {
		db, err := openStorage()
		if err != nil {
			return err
		}
		defer db.Close()

		exists, err := db.MatchExists(dropMatch)
		if err != nil {
			return err
		}
		if !exists {
			fmt.Fprintf(os.Stdout, "Match %d is not stored, nothing to drop.\n", dropMatch)
			return nil
		}
		if err := db.DeleteMatch(dropMatch); err != nil {
			return fmt.Errorf("delete match: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Deleted match %d\n", dropMatch)
		return nil
	}

	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := os.Remove(dbPath); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Database does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove database: %w", err)
	}
	// WAL side files go with the database.
	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", dbPath)
	return nil
}
