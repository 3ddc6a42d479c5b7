/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jjudge-oj/livefeed/config"
	"github.com/jjudge-oj/livefeed/internal/enumerator"
	"github.com/jjudge-oj/livefeed/internal/logging"
	"github.com/jjudge-oj/livefeed/internal/mq"
	"github.com/jjudge-oj/livefeed/internal/scoreboard"
	"github.com/jjudge-oj/livefeed/internal/server"
	"github.com/jjudge-oj/livefeed/internal/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Ingests the contest feeds and serves the live scoreboard",
	Long: `Ingests the configured CLICS feeds, keeps the scoreboard up to date,
publishes every change to the message queue and serves the contest over HTTP.
With EMULATION_SPEED set, the contest is loaded first and replayed live. Usage:

	livefeed server
`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.RunE = runServer
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.ValidateFeeds(); err != nil {
		return err
	}
	optimism, err := scoreboard.ParseOptimismLevel(cfg.Scoreboard.Optimism)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := openResources(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer res.Close()

	source, err := newSource(cfg, res, enumerator.NewSet(), logger)
	if err != nil {
		return err
	}
	if cfg.Emulation.Speed > 0 {
		if source, err = emulate(ctx, source, cfg.Emulation, logger); err != nil {
			return err
		}
	}

	contests := services.NewContestService()
	sinks := []scoreboard.Sink{contests}
	if res.broker != nil {
		sinks = append(sinks, mq.NewPublisher(res.broker, logger))
	}
	var archive *services.ArchiveService
	if res.events != nil {
		archive = services.NewArchiveService(res.events)
	}
	srv := server.New(cfg, contests, archive, logger)
	driver := scoreboard.NewDriver(optimism, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		if err := driver.Run(gctx, withStages(source, logger), scoreboard.Sinks(sinks...)); err != nil {
			return err
		}
		// the final state stays available over HTTP
		logger.Info("Contest feed finished")
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		logger.Info("Shutting down")
		return nil
	}
	if err != nil {
		logger.Error("Server stopped", zap.Error(err))
	}
	return err
}
