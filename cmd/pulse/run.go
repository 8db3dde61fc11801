package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/westquant/pulse/internal/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the continuous scan loop",
	RunE:  runLoop,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runLoop(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	a, err := buildApp(cfg, log)
	if err != nil {
		return err
	}

	log.Info("starting pulse",
		zap.Duration("interval", cfg.Scan.Interval),
		zap.Int("watchlist", len(cfg.Watchlist)),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Stop cleanly on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Info("shutdown signal received")
		cancel()
	}()

	if err := a.Start(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
