package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/talent-scout/internal/events"
	"github.com/jonathan/talent-scout/internal/results"
	"github.com/jonathan/talent-scout/internal/server"
)

var (
	servePort     int
	serveHeadless bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the upload server and web front-end",
	Long: `Start an HTTP server that accepts company CSV uploads, streams progress over
Server-Sent Events at /status, and serves finished result files.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 3000, "Port to listen on (overrides server.port)")
	serveCmd.Flags().BoolVar(&serveHeadless, "headless", false, "Run the browser headless (overrides browser.headless)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = serveHeadless
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	var sink server.RunSink
	if store != nil {
		defer store.Close()
		sink = store
	}

	broker := events.NewBroker(0)
	srv, err := server.New(server.Config{
		Port:                cfg.Server.Port,
		StaticDir:           cfg.Server.StaticDir,
		UploadRatePerMinute: cfg.Server.UploadRatePerMinute,
		KeepAlive:           30 * time.Second,
	}, server.Deps{
		Broker:      broker,
		Results:     results.NewStore(cfg.Server.ResultsDir),
		Run:         newRunFunc(cfg, client, broker, nil),
		Sink:        sink,
		BaseContext: ctx,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutdown requested",
			zap.Int("subscribers", broker.Len()),
			zap.Int64("dropped_events", broker.Dropped()),
		)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
