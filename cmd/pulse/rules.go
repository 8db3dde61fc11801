package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/westquant/pulse/internal/filter"
	"github.com/westquant/pulse/internal/logger"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the filter rule chain in evaluation order",
	RunE:  runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	f := filter.New(cfg.Filter, log)
	fmt.Printf("%-4s %-12s %-8s %s\n", "PRI", "RULE", "ENABLED", "DESCRIPTION")
	for _, rule := range f.Rules() {
		fmt.Printf("%-4d %-12s %-8t %s\n", rule.Priority, rule.Name, rule.Enabled, rule.Description)
	}
	return nil
}
