package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/westquant/pulse/internal/logger"
)

var (
	scanBars int
	scanOut  string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single scan cycle over the watchlist",
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanBars, "bars", 0, "bars per symbol (overrides config)")
	scanCmd.Flags().StringVar(&scanOut, "out", "", "write accepted signals to a JSONL file")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if scanBars > 0 {
		cfg.Scan.Bars = scanBars
	}
	if scanOut != "" {
		cfg.Output.Type = "jsonl"
		cfg.Output.Path = scanOut
	}
	// One-shot runs have no metrics endpoint to scrape.
	cfg.Metrics.Enabled = false

	a, err := buildApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	accepted := a.RunOnce(cmd.Context())

	stats := a.Filter().Stats()
	log.Info("scan finished",
		zap.Int("accepted", len(accepted)),
		zap.Int64("processed", stats.Processed),
		zap.Int64("rejected", stats.Rejected),
	)

	for _, sig := range accepted {
		fmt.Printf("%-10s %-4s %12.4f  conf=%.2f  %-8s %s\n",
			sig.Symbol, sig.Side, sig.Price, sig.Confidence, sig.Strength, sig.Reason)
	}
	return nil
}
