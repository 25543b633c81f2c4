package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "Rank observer spots merged into proximity clusters",
	Long: `Same as 'spots' with clustering on. Nearby spots merge into one weighted
cluster per area. --cluster sets the radius in percent of the map span and
defaults to the observer vision radius.`,
	Args: cobra.NoArgs,
	RunE: runClusters,
}

func init() {
	addFilterFlags(clustersCmd)
}

func runClusters(cmd *cobra.Command, args []string) error {
	f, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	if f.ClusterRadiusPct <= 0 {
		f = f.WithClusterRadius(ws.engine.ObserverRadiusPct())
	}
	if f.ClusterRadiusPct <= 0 {
		return fmt.Errorf("cannot derive a cluster radius: set --cluster or map bounds in the config")
	}
	fmt.Fprintf(os.Stdout, "Cluster radius %.1f%%\n", f.ClusterRadiusPct)
	printPass(os.Stdout, ws, ws.engine.Run(f))
	return nil
}
