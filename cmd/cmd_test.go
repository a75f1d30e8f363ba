package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"secretsanta/internal/draw"
	"secretsanta/internal/models"
	"secretsanta/internal/services"
	"secretsanta/internal/store"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newCmd(&Config{})
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{port: 8080, storeKind: store.KindMemory, maxAttempts: 1000, sessionTimeout: time.Hour}
	if err := valid.validate(); err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"port too low", func(c *Config) { c.port = 0 }},
		{"port too high", func(c *Config) { c.port = 70000 }},
		{"unknown store", func(c *Config) { c.storeKind = "redis" }},
		{"no attempts", func(c *Config) { c.maxAttempts = 0 }},
		{"no session timeout", func(c *Config) { c.sessionTimeout = 0 }},
		{"session timeout below a second", func(c *Config) { c.sessionTimeout = time.Nanosecond }},
		{"passwords without admin token", func(c *Config) { c.showPasswords = true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			if err := c.validate(); err == nil {
				t.Error("Expected an error, but got nil")
			}
		})
	}
}

func TestDrawCmd(t *testing.T) {
	t.Run("Test pairs are printed", func(t *testing.T) {
		out, err := run(t, "draw", "--seed", "42", "Alice", "Bob", "Carol")
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		for _, name := range []string{"Alice", "Bob", "Carol"} {
			if strings.Count(out, name) != 2 {
				t.Errorf("Expected %s to appear as giver and receiver in:\n%s", name, out)
			}
		}
	})

	t.Run("Test JSON output is a derangement", func(t *testing.T) {
		out, err := run(t, "draw", "--json", "Alice", "Bob", "Carol", "Dan")
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		var d models.Draw
		if err := json.Unmarshal([]byte(out), &d); err != nil {
			t.Fatalf("Expected JSON output, got %q: %v", out, err)
		}
		if report := draw.Validate(d); !report.Valid || len(d) != 4 {
			t.Errorf("Expected a valid draw of 4, got %+v", report)
		}
	})

	t.Run("Test same seed gives the same draw", func(t *testing.T) {
		a, _ := run(t, "draw", "--json", "--seed", "9", "A", "B", "C", "D", "E")
		b, _ := run(t, "draw", "--json", "--seed", "9", "A", "B", "C", "D", "E")
		if a != b {
			t.Errorf("Expected identical output, got\n%s\nand\n%s", a, b)
		}
	})

	t.Run("Test a single name fails", func(t *testing.T) {
		if _, err := run(t, "draw", "Alice"); !errors.Is(err, draw.ErrInsufficientParticipants) {
			t.Errorf("Expected ErrInsufficientParticipants, but got %v", err)
		}
	})
}

func TestAuditCmd(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("Test valid document", func(t *testing.T) {
		path := write("ok.json", `{"participants":["A","B","C"],"draws":[{"from":"A","to":"B"},{"from":"B","to":"C"},{"from":"C","to":"A"}],"hasDrawn":true}`)
		out, err := run(t, "audit", path)
		if err != nil {
			t.Fatalf("Expected no error, but got %v (%s)", err, out)
		}
		if !strings.Contains(out, "draw is valid") {
			t.Errorf("Expected a valid report, got %q", out)
		}
	})

	t.Run("Test self-assignment is reported", func(t *testing.T) {
		path := write("bad.json", `{"participants":["A","B"],"draws":[{"from":"A","to":"A"},{"from":"B","to":"B"}],"hasDrawn":true}`)
		out, err := run(t, "audit", "--json", path)
		if !errors.Is(err, errInvalidDraw) {
			t.Fatalf("Expected errInvalidDraw, but got %v", err)
		}
		var report models.Report
		if err := json.Unmarshal([]byte(out), &report); err != nil {
			t.Fatalf("Expected JSON output, got %q: %v", out, err)
		}
		if report.Valid || !slices.Contains(report.Issues, "self-assignment: A") {
			t.Errorf("Expected a self-assignment issue, got %+v", report)
		}
	})

	t.Run("Test missing draw", func(t *testing.T) {
		path := write("empty.json", `{"participants":["A","B"],"draws":null,"hasDrawn":false}`)
		if _, err := run(t, "audit", path); !errors.Is(err, errInvalidDraw) {
			t.Errorf("Expected errInvalidDraw, but got %v", err)
		}
	})

	t.Run("Test unreadable file", func(t *testing.T) {
		if _, err := run(t, "audit", filepath.Join(dir, "missing.json")); err == nil {
			t.Error("Expected an error, but got nil")
		}
	})
}

func TestSeedAndRevealCmd(t *testing.T) {
	dir := t.TempDir()
	base := []string{"--store", store.KindFile, "--data-dir", dir}

	t.Run("Test memory store is refused", func(t *testing.T) {
		if _, err := run(t, "seed"); err == nil {
			t.Error("Expected an error, but got nil")
		}
	})

	t.Run("Test seed", func(t *testing.T) {
		out, err := run(t, append([]string{"seed", "--tenant", "office"}, base...)...)
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if !strings.Contains(out, "Seeded 9") {
			t.Errorf("Expected a seeding message, got %q", out)
		}

		out, _ = run(t, append([]string{"seed", "--tenant", "office"}, base...)...)
		if !strings.Contains(out, "already has data") {
			t.Errorf("Expected seeding to be skipped, got %q", out)
		}
	})

	t.Run("Test reveal before the draw", func(t *testing.T) {
		_, err := run(t, append([]string{"reveal", "--tenant", "office", "--name", "yves", "--password", "7890"}, base...)...)
		if !errors.Is(err, services.ErrNoDraw) {
			t.Errorf("Expected ErrNoDraw, but got %v", err)
		}
	})

	st, err := store.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	result, err := services.NewSantaService(st, nil, nil).PerformDraw(context.Background(), "office")
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	want, _ := draw.RecipientFor(result, "yves")

	t.Run("Test reveal after the draw", func(t *testing.T) {
		out, err := run(t, append([]string{"reveal", "--tenant", "office", "--name", "YVES", "--password", "7890"}, base...)...)
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if !strings.Contains(out, "yves") || !strings.Contains(out, want) {
			t.Errorf("Expected yves to see %s, got %q", want, out)
		}
	})

	t.Run("Test reveal with a wrong password", func(t *testing.T) {
		_, err := run(t, append([]string{"reveal", "--tenant", "office", "--name", "yves", "--password", "0000"}, base...)...)
		if !errors.Is(err, services.ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials, but got %v", err)
		}
	})
}
