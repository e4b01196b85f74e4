package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dokzlo13/stripd/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Parse the YAML, expand environment variables, apply defaults and report
every invalid setting without touching the strip or the network.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	// serve falls back to defaults without a file; validate is asked about this one
	if _, err := os.Stat(configPath); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s is valid\n", configPath)
	fmt.Fprintf(out, "  strip:  %d leds, step %d, driver %s\n", cfg.Strip.NumLEDs, cfg.Strip.Step, cfg.Strip.Driver)
	fmt.Fprintf(out, "  server: %s\n", cfg.Server.Addr())
	if cfg.Ledger.Enabled {
		fmt.Fprintf(out, "  ledger: %s (%d days)\n", cfg.Database.Path, cfg.Ledger.RetentionDays)
	}
	return nil
}
