package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"

	"github.com/pable/go-dota-wards/internal/analysis"
	"github.com/pable/go-dota-wards/internal/model"
)

const analyzeSystemPrompt = `You are a Dota 2 vision analyst. You are given structured ward placement data
from an analytics tool and a question from a coach or support player.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific spots and numbers when making a claim.
- If the data is insufficient to answer confidently (few placements), say so explicitly.
- Be concise and actionable: where to ward, when, and what to avoid.
- Avoid generic warding advice unless it directly explains a pattern in the data.

Data glossary:
- spot: "[x, y]" in OpenDota ward-log cells (128 world units each). Higher y is north.
- count: observer wards placed at the spot under the filter.
- avg/median: observer lifetime in seconds. A full-duration observer lives 360s.
- histogram: lifetimes bucketed as instant (<=5s), short (<=30s), medium (<=150s), long.
- radiant/dire: placements per faction.
- pressure: 0-100 enemy sentry density near the spot, relative to the densest spot.
- contest: 0-100 combined score of survival against sentry pressure; higher is safer.
- effectiveness: 0-100 blend of lifetime, objective proximity, sentry safety and phase fit.
- phases: early 0-10min, mid 10-35, earlylate 35-50, late 50-75, superlate 75+.`

var (
	analyzeModel  string
	analyzeAPIKey string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <question>",
	Short: "AI-powered grounded ward analysis (requires ANTHROPIC_API_KEY)",
	Long: `Serialises the best and worst spots under the filter, plus the sentry hot
spots, and streams an answer grounded in that data.

Examples:
  wardmetrics analyze "where should Radiant ward in the first ten minutes?" --team Radiant --time early
  wardmetrics analyze spot "[120, 84]" "why does this ward die so fast?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyzeSpots,
}

var analyzeSpotCmd = &cobra.Command{
	Use:   "spot <spot> <question>",
	Short: "Ask about one spot's effectiveness",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzeSpot,
}

func init() {
	analyzeCmd.PersistentFlags().StringVar(&analyzeModel, "model", "claude-haiku-4-5-20251001", "Anthropic model to use")
	analyzeCmd.PersistentFlags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")

	addFilterFlags(analyzeCmd)
	addFilterFlags(analyzeSpotCmd)

	analyzeCmd.AddCommand(analyzeSpotCmd)
}

func runAnalyzeSpots(cmd *cobra.Command, args []string) error {
	f, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	if len(ws.ds.Spots) == 0 {
		return fmt.Errorf("no observer spots loaded")
	}
	contextJSON, err := buildSpotsContext(ws.engine, f)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(cmd.Context(), analyzeAPIKey, analyzeModel, contextJSON, args[0])
}

func runAnalyzeSpot(cmd *cobra.Command, args []string) error {
	key, err := spotKeyArg(args[:1])
	if err != nil {
		return err
	}
	f, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	defer ws.Close()

	contextJSON, err := buildSpotContext(ws.engine, f, key)
	if err != nil {
		return err
	}
	return callAnthropic(cmd.Context(), analyzeAPIKey, analyzeModel, contextJSON, args[1])
}

// spotEntry is the compact per-spot view handed to the model.
type spotEntry struct {
	Spot      string  `json:"spot"`
	Count     int     `json:"count"`
	Avg       int     `json:"avg"`
	Median    int     `json:"median,omitempty"`
	Histogram string  `json:"histogram"`
	Radiant   int     `json:"radiant"`
	Dire      int     `json:"dire"`
	Pressure  float64 `json:"pressure"`
	Contest   int     `json:"contest"`
	Coarse    bool    `json:"coarse,omitempty"`
	Members   int     `json:"members,omitempty"`
}

func toEntry(m model.SpotMetrics) spotEntry {
	e := spotEntry{
		Spot:      m.Key,
		Count:     m.Count,
		Avg:       m.AvgSeconds,
		Histogram: fmt.Sprintf("%d/%d/%d/%d", m.Histogram.Instant, m.Histogram.Short, m.Histogram.Medium, m.Histogram.Long),
		Radiant:   m.RadiantCount,
		Dire:      m.DireCount,
		Pressure:  round1(m.Pressure),
		Contest:   m.Contest,
		Coarse:    m.Approximate,
		Members:   len(m.Members),
	}
	if !m.Approximate {
		e.Median = m.MedianSeconds
	}
	return e
}

// buildSpotsContext runs the filter in both modes and adds the sentry hot spots.
func buildSpotsContext(engine *analysis.Engine, f model.Filter) (string, error) {
	best := engine.Run(f.WithMode(model.ModeBest))
	worst := engine.Run(f.WithMode(model.ModeWorst))

	entries := func(ms []model.SpotMetrics) []spotEntry {
		out := make([]spotEntry, 0, len(ms))
		for _, m := range ms {
			out = append(out, toEntry(m))
		}
		return out
	}

	type sentryEntry struct {
		Spot  string `json:"spot"`
		Count int    `json:"count"`
	}
	var sentries []sentryEntry
	if best.Sentries != nil {
		for _, e := range best.Sentries.Entries {
			sentries = append(sentries, sentryEntry{Spot: e.Key, Count: e.Count})
		}
	}
	sort.SliceStable(sentries, func(i, j int) bool { return sentries[i].Count > sentries[j].Count })
	if len(sentries) > 10 {
		sentries = sentries[:10]
	}

	doc := map[string]interface{}{
		"subject":          "spots",
		"filter":           f.Describe(),
		"basis":            string(f.Basis),
		"metric":           string(f.Metric),
		"qualifyingSpots":  len(best.Qualifying),
		"totalPlacements":  analysis.TotalCount(best.Qualifying),
		"best":             entries(best.Ranked),
		"worst":            entries(worst.Ranked),
		"sentryHotspots":   sentries,
		"densityRadiusPct": round1(best.DensityRadiusPct),
	}
	b, err := json.Marshal(doc)
	return string(b), err
}

// buildSpotContext describes one spot with its effectiveness breakdown.
func buildSpotContext(engine *analysis.Engine, f model.Filter, key string) (string, error) {
	pass := engine.Run(f)
	m, ok := pass.Find(key)
	if !ok {
		return "", fmt.Errorf("spot %s not found", key)
	}
	eff, _ := pass.Effectiveness(key)

	doc := map[string]interface{}{
		"subject":       "spot",
		"filter":        f.Describe(),
		"spot":          toEntry(m),
		"effectiveness": eff,
		"contributors":  m.Contributors,
	}
	b, err := json.Marshal(doc)
	return string(b), err
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

// callAnthropic streams a response from the Anthropic API and prints it to stdout.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string) error {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)

	fmt.Fprintln(os.Stdout, "\n─── AI Analysis ─────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed: check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
