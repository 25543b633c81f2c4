package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-dota-wards/internal/dataset"
	"github.com/pable/go-dota-wards/internal/model"
)

var (
	exportOut     string
	exportMatches []int64
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored placements as a dataset JSON file",
	Long: `Groups the stored placements into spots and writes the dataset JSON consumed
by the heatmap widgets and by --data. Observers go under "spots", sentries
under "sentries"; every spot keeps its per-sample detail.

Example:
  wardmetrics export --match 7000000001 --match 7000000002 --out wards.json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	exportCmd.Flags().Int64SliceVar(&exportMatches, "match", nil, "only export these matches")
}

func runExport(cmd *cobra.Command, args []string) error {
	var ds model.Dataset
	if dataPath != "" {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		ds = ws.ds
		ws.Close()
	} else {
		db, err := openStorage()
		if err != nil {
			return err
		}
		defer db.Close()
		if ds, err = loadStoredDataset(db, exportMatches); err != nil {
			return err
		}
	}
	if len(ds.Spots) == 0 && len(ds.Sentries) == 0 {
		return fmt.Errorf("nothing to export")
	}

	var w io.Writer = os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := dataset.Write(w, &ds, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	if exportOut != "" {
		fmt.Fprintf(os.Stderr, "Wrote %d spots and %d sentry spots to %s\n", len(ds.Spots), len(ds.Sentries), exportOut)
	}
	return nil
}
