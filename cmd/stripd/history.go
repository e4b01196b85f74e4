package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dokzlo13/stripd/internal/config"
	"github.com/dokzlo13/stripd/internal/db"
	"github.com/dokzlo13/stripd/internal/ledger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently dispatched commands",
	Long: `Read the command ledger and print the newest commands first, followed by
totals per outcome. The ledger is written by a running serve when
ledger.enabled is set.

Example:
  stripd history -c /etc/stripd/config.yaml --limit 50`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Number of commands to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 1 {
		return fmt.Errorf("--limit must be positive, got %d", limit)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Opening a missing path would create an empty ledger
	if _, err := os.Stat(cfg.Database.Path); err != nil {
		return fmt.Errorf("no command ledger at %s: %w", cfg.Database.Path, err)
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer database.Close()

	l := ledger.New(database.DB)

	entries, err := l.Recent(limit)
	if err != nil {
		return fmt.Errorf("failed to read ledger: %w", err)
	}
	counts, err := l.CountByStatus()
	if err != nil {
		return fmt.Errorf("failed to count ledger: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "no commands recorded")
		return nil
	}

	for _, e := range entries {
		line := fmt.Sprintf("%s  %-10s %-9s %3d.%3d.%3d @%3d  %s",
			e.Timestamp.Local().Format(time.DateTime), e.Route, e.Status,
			e.Red, e.Green, e.Blue, e.Brightness, e.Remote)
		if e.Message != "" {
			line += "  " + e.Message
		}
		fmt.Fprintln(out, line)
	}

	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)

	totals := make([]string, 0, len(statuses))
	for _, status := range statuses {
		totals = append(totals, fmt.Sprintf("%s=%d", status, counts[status]))
	}
	fmt.Fprintf(out, "total: %s\n", strings.Join(totals, " "))
	return nil
}
