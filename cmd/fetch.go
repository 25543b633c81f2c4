package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-dota-wards/internal/model"
	"github.com/pable/go-dota-wards/internal/opendota"
	"github.com/pable/go-dota-wards/internal/parser"
	"github.com/pable/go-dota-wards/internal/storage"
)

// fetch command flags.
var (
	// fetchTeam pulls the team's recent matches instead of explicit ids.
	fetchTeam int64
	// fetchLimit caps how many team matches are ingested.
	fetchLimit int
	// fetchReplay downloads and parses the replay instead of using OpenDota's ward logs.
	fetchReplay bool
	// fetchForce re-ingests matches that are already stored.
	fetchForce bool
	// fetchDelay spaces requests to stay under the free-tier rate limit.
	fetchDelay time.Duration
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [match-id...]",
	Short: "Ingest ward placements from OpenDota",
	Long: `Fetches parsed matches from the OpenDota API and stores their observer and
sentry placements. Ward lifetimes come from the matching removal in the ward
logs, or the item duration when the ward was never removed.

With --replay the Valve replay is downloaded and parsed locally instead, which
also works for matches OpenDota never parsed (while the replay is still hosted).

Examples:
  wardmetrics fetch 7000000001 7000000002
  wardmetrics fetch --team 15 --limit 20`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Int64Var(&fetchTeam, "team", 0, "ingest this team's recent matches")
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 10, "number of team matches to ingest")
	fetchCmd.Flags().BoolVar(&fetchReplay, "replay", false, "download and parse the replay instead of using OpenDota ward logs")
	fetchCmd.Flags().BoolVar(&fetchForce, "force", false, "re-ingest matches that are already stored")
	fetchCmd.Flags().DurationVar(&fetchDelay, "delay", time.Second, "pause between API requests")
}

func runFetch(cmd *cobra.Command, args []string) error {
	var ids []int64
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid match id %q", a)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 && fetchTeam == 0 {
		return fmt.Errorf("give match ids or --team")
	}

	db, err := openStorage()
	if err != nil {
		return err
	}
	defer db.Close()

	client := opendota.NewClient(loadOpenDotaAPIKey())
	ctx := cmd.Context()

	if fetchTeam != 0 {
		matches, err := client.GetTeamMatches(ctx, fetchTeam, fetchLimit)
		if err != nil {
			return fmt.Errorf("team matches: %w", err)
		}
		fmt.Printf("Team %d: %d recent matches\n", fetchTeam, len(matches))
		for _, m := range matches {
			ids = append(ids, m.MatchID)
		}
	}

	return doFetch(ctx, db, client, ids)
}

// doFetch ingests each match, skipping (not aborting on) per-match failures.
func doFetch(ctx context.Context, db *storage.DB, client *opendota.Client, ids []int64) error {
	var tmpDir string
	if fetchReplay {
		dir, err := os.MkdirTemp("", "wardmetrics-*")
		if err != nil {
			return fmt.Errorf("temp dir: %w", err)
		}
		defer os.RemoveAll(dir)
		tmpDir = dir
	}

	ingested := 0
	for i, id := range ids {
		if i > 0 && fetchDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(fetchDelay):
			}
		}

		if !fetchForce {
			exists, err := db.MatchExists(id)
			if err != nil {
				return err
			}
			if exists {
				fmt.Printf("[%d/%d] %d  already stored\n", i+1, len(ids), id)
				continue
			}
		}

		match, err := client.GetMatch(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  [skip] %d: %v\n", id, err)
			continue
		}
		fmt.Printf("[%d/%d] %d  date=%s  obs=%d  sen=%d\n",
			i+1, len(ids), id, match.Summary.MatchDate, match.Summary.Observers, match.Summary.Sentries)

		placements := match.Placements
		if fetchReplay {
			if match.ReplayURL == "" {
				fmt.Fprintf(os.Stderr, "  [skip] %d: no replay URL\n", id)
				continue
			}
			demPath, err := downloadReplay(ctx, match.ReplayURL, tmpDir)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  [error] download: %v\n", err)
				continue
			}
			res, err := parser.ParseReplay(demPath, id)
			os.Remove(demPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  [error] parse: %v\n", err)
				continue
			}
			placements = assignTeams(res.Placements, match.Summary.RadiantTeamID, match.Summary.DireTeamID)
			match.Summary.Source = "replay"
		} else if !match.Parsed {
			fmt.Fprintf(os.Stderr, "  [skip] %d: not parsed by OpenDota (request a parse or use --replay)\n", id)
			continue
		}

		if err := saveMatch(db, match.Summary, placements, match.Teams, match.Players); err != nil {
			return err
		}
		fmt.Printf("  stored: %d placements\n", len(placements))
		ingested++
	}

	fmt.Printf("\nDone: %d/%d matches ingested\n", ingested, len(ids))
	return nil
}

// assignTeams fills team ids from each placement's side.
func assignTeams(placements []model.Placement, radiant, dire int64) []model.Placement {
	for i := range placements {
		switch placements[i].Side {
		case model.SideRadiant:
			placements[i].TeamID = radiant
		case model.SideDire:
			placements[i].TeamID = dire
		}
	}
	return placements
}

// downloadReplay saves the replay under its original file name so the parser
// can pick the decompressor from the extension.
func downloadReplay(ctx context.Context, url, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	name := path.Base(strings.SplitN(url, "?", 2)[0])
	if name == "" || name == "/" || name == "." {
		name = "replay.dem.bz2"
	}
	outPath := filepath.Join(dir, name)
	f, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("write: %w", err)
	}
	return outPath, nil
}

// loadOpenDotaAPIKey returns the optional OpenDota API key from the
// OPENDOTA_API_KEY environment variable or ~/.wardmetrics/opendota_api_key.
func loadOpenDotaAPIKey() string {
	if key := os.Getenv("OPENDOTA_API_KEY"); key != "" {
		return key
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(home, ".wardmetrics", "opendota_api_key"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
