package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/talent-scout/internal/challenge"
	"github.com/jonathan/talent-scout/internal/config"
	"github.com/jonathan/talent-scout/internal/db"
	"github.com/jonathan/talent-scout/internal/events"
	"github.com/jonathan/talent-scout/internal/fetch"
	"github.com/jonathan/talent-scout/internal/llm"
	"github.com/jonathan/talent-scout/internal/pipeline"
	"github.com/jonathan/talent-scout/internal/ranking"
	"github.com/jonathan/talent-scout/internal/server"
	"github.com/jonathan/talent-scout/internal/types"
)

// commandContext returns the command's context, or Background when the command
// is invoked directly rather than through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// newLLMClient builds the ranking client for the configured provider.
func newLLMClient(ctx context.Context, c *config.Config) (llm.Client, error) {
	if err := c.RequireAPIKey(); err != nil {
		return nil, err
	}
	llmCfg, err := c.LLMClientConfig()
	if err != nil {
		return nil, err
	}
	client, err := llm.NewClient(ctx, llmCfg, c.LLM.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	zap.L().Info("llm client ready",
		zap.String("provider", string(llmCfg.Provider)),
		zap.String("model", client.GetModel(llm.TierStandard)),
	)
	return client, nil
}

// openStore connects the optional Postgres sink. It returns nil when no
// database is configured.
func openStore(ctx context.Context, c *config.Config) (*db.Store, error) {
	if c.Database.URL == "" {
		return nil, nil
	}
	store, err := db.Connect(ctx, c.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}
	zap.L().Info("database sink enabled")
	return store, nil
}

// newRunFunc returns a RunFunc that launches a fresh browser for every run and
// closes it when the run ends. onResult may be nil.
func newRunFunc(c *config.Config, client llm.Client, publisher events.Publisher, onResult pipeline.ResultCallback) server.RunFunc {
	ranker := ranking.NewRanker(client, ranking.WithTier(llm.TierStandard))
	gate := challenge.NewGate(publisher,
		challenge.WithMarkers(c.Pipeline.ChallengeMarkers...),
		challenge.WithCooldown(c.Pipeline.ChallengeCooldown),
	)
	pacer := pipeline.NewPacer(c.Pipeline.MinDelay, c.Pipeline.MaxDelay)
	browserOpts := c.BrowserOptions()

	return func(ctx context.Context, companies []string) ([]types.CompanyResult, error) {
		session, err := fetch.NewSession(ctx, browserOpts)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := session.Close(); err != nil {
				zap.L().Warn("browser did not close cleanly", zap.Error(err))
			}
		}()

		runner := pipeline.NewRunner(pipeline.Options{
			Browser:   session,
			Ranker:    ranker,
			Publisher: publisher,
			Gate:      gate,
			Pacer:     pacer,
			OnResult:  onResult,
		})
		return runner.Run(ctx, companies), nil
	}
}
