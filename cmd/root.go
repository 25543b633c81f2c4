package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-dota-wards/internal/config"
)

var (
	dbPath         string
	configPath     string
	dataPath       string
	objectivesPath string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "wardmetrics",
	Short: "Dota 2 ward placement analytics",
	Long: `Ingest Dota 2 ward placements from replays, OpenDota or JSON exports and rank
ward spots by lifetime, sentry contest and overall effectiveness.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database (default from config, ~/.wardmetrics/wards.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "path to TOML config file")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "analyse a dataset JSON file instead of the database")
	rootCmd.PersistentFlags().StringVar(&objectivesPath, "objectives", "", "map locations JSON for objective proximity (default from config)")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(spotsCmd)
	rootCmd.AddCommand(clustersCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(analyzeCmd)
}

// loadConfig reads the config file and fills flags left at their defaults.
func loadConfig(_ *cobra.Command, _ []string) error {
	res, err := config.LoadFrom(configPath)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "config: %s\n", w)
	}
	cfg = &res.Config
	if dbPath == "" {
		dbPath = cfg.Storage.DBPath
	}
	if objectivesPath == "" {
		objectivesPath = cfg.Objectives.Path
	}
	return nil
}
