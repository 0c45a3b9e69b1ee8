package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/batchmates/batchmates/internal/artifact"
	"github.com/batchmates/batchmates/internal/config"
	"github.com/batchmates/batchmates/internal/extract"
	"github.com/batchmates/batchmates/internal/graph"
	"github.com/batchmates/batchmates/internal/ingest"
	"github.com/batchmates/batchmates/internal/openai"
	"github.com/batchmates/batchmates/internal/profile"
	"github.com/batchmates/batchmates/internal/storage"
	"github.com/batchmates/batchmates/internal/vocab"
	"github.com/batchmates/batchmates/internal/zulip"
)

// Artifact filenames under the data dir. Each pipeline stage reads the
// previous stage's file and writes its own, so stages can be re-run
// independently.
const (
	introsFile   = "intros.json"
	profilesFile = "profiles.json"
	mappingsFile = "interest_mappings.json"
	graphFile    = "graph.json"
)

func artifactPath(cfg config.Config, name string) string {
	return filepath.Join(cfg.Storage.DataDir, name)
}

// recordRun wraps a pipeline stage with run bookkeeping in the store.
// The stage still runs if the store cannot be opened; the run history
// is best-effort.
func recordRun(ctx context.Context, cfg config.Config, stage string, fn func() error) error {
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		printWarning("run history unavailable: %v", err)
		return fn()
	}
	defer store.Close()

	runID, err := store.BeginRun(ctx, stage)
	if err != nil {
		printWarning("recording run: %v", err)
		return fn()
	}

	if err := fn(); err != nil {
		store.FinishRun(context.WithoutCancel(ctx), runID, "failed", err.Error())
		return err
	}
	return store.FinishRun(ctx, runID, "ok", "")
}

// --- fetch ---

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch introduction messages from the Zulip channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.RequireZulipCredentials(); err != nil {
			return err
		}

		return recordRun(cmd.Context(), cfg, "fetch", func() error {
			printStep("Fetching intros from %s / %s", cfg.Zulip.Channel, cfg.Zulip.Topic)

			client := zulip.New(cfg.Zulip.Site, cfg.Zulip.Email, cfg.Zulip.APIKey)
			intros, err := client.GetIntros(cmd.Context(), cfg.Zulip.Channel, cfg.Zulip.Topic, cfg.Zulip.Limit)
			if err != nil {
				return fmt.Errorf("fetching intros: %w", err)
			}

			path := artifactPath(cfg, introsFile)
			if err := artifact.WriteJSON(path, intros); err != nil {
				return fmt.Errorf("writing intros: %w", err)
			}

			printSuccess("Fetched %d intros to %s", len(intros), path)
			return nil
		})
	},
}

// --- extract ---

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract structured profiles from fetched intros",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.RequireOpenAIKey(); err != nil {
			return err
		}

		return recordRun(cmd.Context(), cfg, "extract", func() error {
			var intros map[string]string
			if err := artifact.ReadJSON(artifactPath(cfg, introsFile), &intros); err != nil {
				return fmt.Errorf("reading intros (run `batchmates fetch` first): %w", err)
			}

			printStep("Extracting profiles from %d intros with %s", len(intros), cfg.OpenAI.ExtractModel)

			client := openai.NewClient(cfg.OpenAI.APIKey)
			extractor := extract.NewExtractor(client, cfg.OpenAI.ExtractModel)
			set, err := extractor.ExtractAll(cmd.Context(), intros)
			if err != nil {
				return fmt.Errorf("extracting profiles: %w", err)
			}
			if len(set) < len(intros) {
				printWarning("extracted %d of %d profiles; failures were skipped", len(set), len(intros))
			}

			path := artifactPath(cfg, profilesFile)
			if err := profile.SaveSet(path, set); err != nil {
				return fmt.Errorf("writing profiles: %w", err)
			}

			printSuccess("Extracted %d profiles to %s", len(set), path)
			return nil
		})
	},
}

// --- normalize ---

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Condense free-text interests into a canonical tag vocabulary",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.RequireOpenAIKey(); err != nil {
			return err
		}

		return recordRun(cmd.Context(), cfg, "normalize", func() error {
			set, err := profile.LoadSet(artifactPath(cfg, profilesFile))
			if err != nil {
				return fmt.Errorf("reading profiles (run `batchmates extract` first): %w", err)
			}

			// The vocabulary is built from skills and hobbies; goals and
			// other items resolve through it (or fall back to misc) later.
			raw := vocab.CollectInterests(set, []string{profile.TypeTechnical, profile.TypeHobby})
			printStep("Normalizing %d distinct interests with %s", len(raw), cfg.OpenAI.NormalizeModel)

			client := openai.NewClient(cfg.OpenAI.APIKey)
			builder := vocab.NewBuilder(client, cfg.OpenAI.NormalizeModel)
			art, err := builder.Build(cmd.Context(), raw)
			if err != nil {
				return fmt.Errorf("building vocabulary: %w", err)
			}

			path := artifactPath(cfg, mappingsFile)
			if err := vocab.Save(path, art); err != nil {
				return fmt.Errorf("writing tag mappings: %w", err)
			}

			printSuccess("Condensed %d interests into %d tags, mappings at %s",
				len(art.Mappings), len(art.StandardizedTags), path)
			return nil
		})
	},
}

// --- ingest ---

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load profiles and tag mappings into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		overwrite, _ := cmd.Flags().GetBool("overwrite")

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		set, err := profile.LoadSet(artifactPath(cfg, profilesFile))
		if err != nil {
			return fmt.Errorf("reading profiles (run `batchmates extract` first): %w", err)
		}
		art, err := vocab.Load(artifactPath(cfg, mappingsFile))
		if err != nil {
			return fmt.Errorf("reading tag mappings (run `batchmates normalize` first): %w", err)
		}

		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			return fmt.Errorf("opening storage: %w", err)
		}
		defer store.Close()

		ctx := cmd.Context()
		runID, err := store.BeginRun(ctx, "ingest")
		if err != nil {
			return fmt.Errorf("recording run: %w", err)
		}

		printStep("Ingesting %d profiles", len(set))
		stats, err := ingest.New(store).Run(ctx, set, art, ingest.Options{Overwrite: overwrite})
		if err != nil {
			store.FinishRun(context.WithoutCancel(ctx), runID, "failed", err.Error())
			return fmt.Errorf("ingesting: %w", err)
		}
		if err := store.FinishRun(ctx, runID, "ok", ""); err != nil {
			printWarning("finishing run record: %v", err)
		}

		printSuccess("Ingested: %d people, %d tags, %d interests, %d associations added",
			stats.People, stats.Tags, stats.Interests, stats.Associations)
		return nil
	},
}

func init() {
	ingestCmd.Flags().Bool("overwrite", false, "overwrite existing person fields instead of keeping the first write")
}

// --- graph ---

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Build the shared-interest graph artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		return recordRun(cmd.Context(), cfg, "graph", func() error {
			set, err := profile.LoadSet(artifactPath(cfg, profilesFile))
			if err != nil {
				return fmt.Errorf("reading profiles (run `batchmates extract` first): %w", err)
			}
			art, err := vocab.Load(artifactPath(cfg, mappingsFile))
			if err != nil {
				return fmt.Errorf("reading tag mappings (run `batchmates normalize` first): %w", err)
			}

			g := graph.Build(set, art)
			path := artifactPath(cfg, graphFile)
			if err := graph.WriteFile(path, g); err != nil {
				return fmt.Errorf("writing graph: %w", err)
			}

			printSuccess("Graph with %d nodes and %d links at %s", len(g.Nodes), len(g.Links), path)
			return nil
		})
	},
}

// --- run ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: fetch, extract, normalize, ingest, graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		skipFetch, _ := cmd.Flags().GetBool("skip-fetch")

		stages := []*cobra.Command{fetchCmd, extractCmd, normalizeCmd, ingestCmd, graphCmd}
		if skipFetch {
			stages = stages[1:]
		}

		for _, stage := range stages {
			printStep("Stage: %s", stage.Use)
			if err := stage.RunE(cmd, nil); err != nil {
				printError("Stage %s failed", stage.Use)
				return err
			}
		}

		printSuccess("Pipeline complete")
		return nil
	},
}

func init() {
	runCmd.Flags().Bool("skip-fetch", false, "reuse the existing intros artifact instead of fetching")
}

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the running server a question about the batch",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/ask", map[string]string{"question": question})
		if err != nil {
			return err
		}

		var result struct {
			Data any `json:"data"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Data)
	},
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline and server status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			printError("config error: %v", err)
			return nil
		}

		// Server health.
		serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
		httpClient := &http.Client{Timeout: 2 * time.Second}
		resp, err := httpClient.Get(serverURL + "/health")
		if err != nil {
			printStatus("Server", "stopped")
		} else {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				printStatus("Server", "running on port %d", cfg.Server.Port)
			} else {
				printStatus("Server", "error (HTTP %d)", resp.StatusCode)
			}
		}

		// Artifact freshness.
		for _, name := range []string{introsFile, profilesFile, mappingsFile, graphFile} {
			path := artifactPath(cfg, name)
			if info, err := os.Stat(path); err == nil {
				printStatus(name, "%s (%s)", path, info.ModTime().Format(time.RFC3339))
			} else {
				printStatus(name, "missing")
			}
		}

		// Row counts and recent runs from the store.
		store, err := storage.Open(cfg.Storage.DataDir)
		if err != nil {
			printStatus("Database", "unavailable: %v", err)
			return nil
		}
		defer store.Close()

		ctx := cmd.Context()
		counts, err := store.Counts(ctx)
		if err != nil {
			printStatus("Database", "error: %v", err)
			return nil
		}
		printStatus("People", "%d", counts.People)
		printStatus("Tags", "%d", counts.Tags)
		printStatus("Interests", "%d", counts.Interests)
		printStatus("Associations", "%d", counts.Associations)

		runs, err := store.RecentRuns(ctx, 5)
		if err == nil && len(runs) > 0 {
			fmt.Fprintln(os.Stderr)
			for _, run := range runs {
				line := fmt.Sprintf("%s  %s  %s", run.StartedAt.Format(time.RFC3339), run.Stage, run.Status)
				if run.Status == "failed" {
					printError("%s: %s", line, run.Detail)
				} else {
					fmt.Fprintf(os.Stderr, "  %s\n", line)
				}
			}
		}

		printStatus("Data dir", "%s", cfg.Storage.DataDir)
		return nil
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
