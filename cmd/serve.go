package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-dota-wards/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve ranked spots as JSON for the map widgets",
	Long: `Starts an HTTP API over the loaded dataset. Every request runs its own pass,
with the filter taken from query parameters (mode, team, player, time, min,
top, metric, basis, cluster, density, zero, pins) over the config defaults.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, 127.0.0.1:8082)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	var matches server.MatchLister
	if ws.db != nil {
		matches = ws.db
	}
	api := server.New(ws.engine, cfg.Filter(), matches, cfg.Server.CORSOrigins)

	srv := &http.Server{
		Addr:         addr,
		Handler:      api.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		fmt.Printf("Ward API listening on %s (%d spots, %d sentry spots)\n", addr, len(ws.ds.Spots), len(ws.ds.Sentries))
		fmt.Println("  Endpoints:")
		fmt.Println("    GET  /health")
		fmt.Println("    GET  /api/v1/spots")
		fmt.Println("    GET  /api/v1/spots/effectiveness?spot=[x, y]")
		fmt.Println("    GET  /api/v1/clusters")
		fmt.Println("    GET  /api/v1/sentries")
		fmt.Println("    GET  /api/v1/matches")

		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		fmt.Printf("\nReceived signal: %v\n", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "graceful shutdown failed: %v\n", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("could not stop server: %w", err)
			}
		}
	}

	fmt.Println("Shutdown complete")
	return nil
}
