package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pable/go-dota-wards/internal/analysis"
	"github.com/pable/go-dota-wards/internal/dataset"
	"github.com/pable/go-dota-wards/internal/model"
	"github.com/pable/go-dota-wards/internal/report"
	"github.com/pable/go-dota-wards/internal/storage"
)

// workspace is the loaded dataset plus the engine that analyses it. db is nil
// when the dataset came from a --data file.
type workspace struct {
	ds     model.Dataset
	engine *analysis.Engine
	db     *storage.DB
	names  report.Names
}

// openStorage opens the database, creating its directory on first use.
func openStorage() (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

// openWorkspace loads the dataset from --data or from every stored match.
func openWorkspace() (*workspace, error) {
	ws := &workspace{}
	if dataPath != "" {
		res, err := dataset.Load(dataPath)
		if err != nil {
			return nil, err
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(os.Stderr, "dataset: %s\n", w)
		}
		if res.Skipped > 0 {
			fmt.Fprintf(os.Stderr, "dataset: skipped %d samples with invalid timestamps\n", res.Skipped)
		}
		ws.ds = res.Dataset
	} else {
		db, err := openStorage()
		if err != nil {
			return nil, err
		}
		ws.db = db
		ds, err := loadStoredDataset(db, nil)
		if err != nil {
			db.Close()
			return nil, err
		}
		ws.ds = ds
	}

	objectives, err := dataset.LoadObjectives(objectivesPath)
	if err != nil {
		ws.Close()
		return nil, err
	}
	for _, w := range objectives.Warnings {
		fmt.Fprintf(os.Stderr, "objectives: %s\n", w)
	}
	ws.engine = analysis.NewEngine(&ws.ds, cfg.MapModel(), objectives.Objectives)
	ws.names = report.NamesFor(&ws.ds)
	return ws, nil
}

// loadStoredDataset builds a dataset from stored placements, optionally
// restricted to some matches.
func loadStoredDataset(db *storage.DB, matchIDs []int64) (model.Dataset, error) {
	placements, err := db.LoadPlacements(matchIDs)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("load placements: %w", err)
	}
	teams, err := db.Teams()
	if err != nil {
		return model.Dataset{}, fmt.Errorf("load teams: %w", err)
	}
	players, err := db.Players()
	if err != nil {
		return model.Dataset{}, fmt.Errorf("load players: %w", err)
	}
	return dataset.Build(placements, teams, players), nil
}

// storedNames reads the team and player name tables.
func storedNames(db *storage.DB) (report.Names, error) {
	teams, err := db.Teams()
	if err != nil {
		return report.Names{}, fmt.Errorf("load teams: %w", err)
	}
	players, err := db.Players()
	if err != nil {
		return report.Names{}, fmt.Errorf("load players: %w", err)
	}
	return report.NamesFor(&model.Dataset{Teams: teams, Players: players}), nil
}

func (ws *workspace) Close() {
	if ws.db != nil {
		ws.db.Close()
	}
}

// filterFlagNames are the per-command flags that shape the filter. Each maps
// one-to-one onto a Filter.Set key.
var filterFlagNames = []string{"mode", "team", "player", "time", "min", "top", "metric", "basis", "cluster", "density", "zero", "pins"}

// addFilterFlags registers the filter flags on a command.
func addFilterFlags(c *cobra.Command) {
	f := c.Flags()
	f.String("mode", "best", "ranking end: best or worst")
	f.String("team", "", `team filter: Radiant, Dire or team:<id>`)
	f.Int64("player", 0, "only placements by this account id")
	f.String("time", "", "phase (early, mid, earlylate, late, superlate) or seconds range like 600-1200")
	f.Int("min", 1, "minimum placements for a spot to qualify")
	f.Int("top", 15, "number of spots to show (0 = all)")
	f.String("metric", "avg", "lifetime statistic: avg or median")
	f.String("basis", "lifetime", "ranking basis: lifetime or contest")
	f.Float64("cluster", 0, "cluster radius in percent of map span (0 = off)")
	f.Float64("density", 0, "sentry density radius in percent (0 = sentry true-sight radius)")
	f.Bool("zero", false, "keep zero-lifetime spots in worst mode")
	f.String("pins", "", `spot keys to always show, separated by ';' (e.g. "[120, 84];[100, 100]")`)
}

// filterFromFlags applies the flags the user set over the config defaults.
func filterFromFlags(c *cobra.Command) (model.Filter, error) {
	f := cfg.Filter()
	for _, name := range filterFlagNames {
		if !c.Flags().Changed(name) {
			continue
		}
		var err error
		if f, err = f.Set(name, c.Flags().Lookup(name).Value.String()); err != nil {
			return f, fmt.Errorf("--%s: %w", name, err)
		}
	}
	return f, nil
}
