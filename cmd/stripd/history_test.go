package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dokzlo13/stripd/internal/db"
	"github.com/dokzlo13/stripd/internal/ledger"
)

func seedLedger(t *testing.T, entries ...ledger.Entry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stripd.sqlite")
	database, err := db.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	l := ledger.New(database.DB)
	for _, e := range entries {
		if err := l.Append(e); err != nil {
			t.Fatal(err)
		}
	}
	return path
}

func TestHistory_PrintsNewestFirstWithTotals(t *testing.T) {
	base := time.Now().Add(-time.Hour)
	dbPath := seedLedger(t,
		ledger.Entry{RequestID: "a", Timestamp: base, Route: "on", Status: "ok", Red: 250, Green: 110, Blue: 40, Brightness: 130},
		ledger.Entry{RequestID: "b", Timestamp: base.Add(time.Minute), Route: "color", Status: "error", Message: "Invalid color format"},
		ledger.Entry{RequestID: "c", Timestamp: base.Add(2 * time.Minute), Route: "none", Status: "not_found", Message: "Endpoint not found"},
		ledger.Entry{RequestID: "d", Timestamp: base.Add(3 * time.Minute), Route: "off", Status: "ok"},
	)
	path := writeConfig(t, fmt.Sprintf("database:\n  path: %s\n", dbPath))

	out, err := runCLI(t, "history", "-c", path, "--limit", "3")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 3 entries and a total:\n%s", len(lines), out)
	}
	for i, route := range []string{"off", "none", "color"} {
		if !strings.Contains(lines[i], route) {
			t.Errorf("line %d = %q, want route %s", i, lines[i], route)
		}
	}
	if !strings.Contains(lines[2], "Invalid color format") {
		t.Errorf("error line = %q, want the message", lines[2])
	}
	if lines[3] != "total: error=1 not_found=1 ok=2" {
		t.Errorf("totals = %q", lines[3])
	}
}

func TestHistory_Empty(t *testing.T) {
	dbPath := seedLedger(t)
	path := writeConfig(t, fmt.Sprintf("database:\n  path: %s\n", dbPath))

	out, err := runCLI(t, "history", "-c", path, "--limit", "20")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	if !strings.Contains(out, "no commands recorded") {
		t.Errorf("output = %q", out)
	}
}

func TestHistory_Errors(t *testing.T) {
	missing := writeConfig(t, fmt.Sprintf("database:\n  path: %s\n", filepath.Join(t.TempDir(), "none.sqlite")))
	valid := writeConfig(t, fmt.Sprintf("database:\n  path: %s\n", seedLedger(t)))

	tests := []struct {
		name string
		args []string
	}{
		{"missing_database", []string{"history", "-c", missing, "--limit", "20"}},
		{"zero_limit", []string{"history", "-c", valid, "--limit", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCLI(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}
