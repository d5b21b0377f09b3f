package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/talent-scout/internal/db"
	"github.com/jonathan/talent-scout/internal/events"
	"github.com/jonathan/talent-scout/internal/ingestion"
	"github.com/jonathan/talent-scout/internal/observability"
	"github.com/jonathan/talent-scout/internal/pipeline"
	"github.com/jonathan/talent-scout/internal/results"
	"github.com/jonathan/talent-scout/internal/types"
)

var (
	runOut      string
	runHeadless bool
	runProvider string
)

var runCmd = &cobra.Command{
	Use:   "run <companies.csv>",
	Short: "Scout a local company list and write the results CSV",
	Long: `Run the scouting pipeline over a local CSV whose first column holds company
names (the first row is treated as a header). Progress is printed as it happens;
the results are written to --out, or to a timestamped file in server.results_dir.`,
	Args: cobra.ExactArgs(1),
	RunE: runScout,
}

func init() {
	runCmd.Flags().StringVarP(&runOut, "out", "o", "", "Output CSV path (default <results_dir>/results_<ms>.csv)")
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Run the browser headless (overrides browser.headless)")
	runCmd.Flags().StringVar(&runProvider, "provider", "", "LLM provider: gemini, anthropic or openai (overrides llm.provider)")
	rootCmd.AddCommand(runCmd)
}

func runScout(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = runHeadless
	}
	if runProvider != "" {
		cfg.LLM.Provider = runProvider
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	companies, meta, err := ingestion.ReadCompaniesFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read companies: %w", err)
	}
	if len(companies) == 0 {
		return fmt.Errorf("no companies found in %s", args[0])
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	printer := observability.NewPrinter(cmd.OutOrStdout())
	broker := events.NewBroker(0)
	sub := broker.Subscribe()
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for ev := range sub.Events() {
			printer.PrintEvent(ev)
		}
	}()

	out, err := newRunFunc(cfg, client, broker, printer.PrintResult)(ctx, companies)
	broker.Unsubscribe(sub)
	<-printed
	if err != nil {
		return err
	}

	path, err := writeResults(out)
	if err != nil {
		return err
	}

	// The database is best-effort and must not lose the CSV already written.
	if store, err := openStore(commandContext(cmd), cfg); err != nil {
		zap.L().Warn("database unavailable, run not recorded", zap.Error(err))
	} else if store != nil {
		run := db.Run{ID: uuid.New(), Source: meta.Source, InputHash: meta.Hash, CreatedAt: time.Now().UTC()}
		if err := store.SaveRun(commandContext(cmd), run, out); err != nil {
			zap.L().Warn("failed to save run to database", zap.Error(err))
		}
		store.Close()
	}

	printer.PrintMatches(out)
	printer.PrintSummary(pipeline.Summarize(out), path)
	return nil
}

// writeResults writes to --out when given, else to a new file in the results directory.
func writeResults(out []types.CompanyResult) (string, error) {
	if runOut == "" {
		store := results.NewStore(cfg.Server.ResultsDir)
		name, err := store.Write(out)
		if err != nil {
			return "", err
		}
		return filepath.Join(store.Dir(), name), nil
	}

	if dir := filepath.Dir(runOut); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(runOut)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	if err := results.WriteCSV(f, out); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close output file: %w", err)
	}
	return runOut, nil
}
