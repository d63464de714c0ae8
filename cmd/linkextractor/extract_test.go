package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ctp-sec/linkextractor/internal/config"
	"github.com/ctp-sec/linkextractor/internal/scope"
)

// parseExtractFlags builds an extract command with the given flags parsed.
func parseExtractFlags(t *testing.T, flags ...string) *config.Config {
	t.Helper()

	cmd := NewExtractCmd()
	if err := cmd.ParseFlags(flags); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := buildConfig(cmd, []string{"example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return cfg
}

// TestBuildConfigDefaults tests flag-free configuration.
func TestBuildConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := parseExtractFlags(t)

	if cfg.Seed != "example.com" {
		t.Errorf("Seed = %q, want example.com", cfg.Seed)
	}
	if cfg.ScopeMode != scope.ModeAll {
		t.Errorf("ScopeMode = %v, want ModeAll", cfg.ScopeMode)
	}
	if cfg.Workers != config.DefaultWorkers {
		t.Errorf("Workers = %d, want %d", cfg.Workers, config.DefaultWorkers)
	}
	if cfg.UseProxy || cfg.UseTor {
		t.Error("transports should be off by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

// TestBuildConfigScopeModes tests the three forms of --only-this-domain.
func TestBuildConfigScopeModes(t *testing.T) {
	t.Parallel()

	t.Run("flag absent means all domains", func(t *testing.T) {
		t.Parallel()
		cfg := parseExtractFlags(t)
		if cfg.ScopeMode != scope.ModeAll {
			t.Errorf("ScopeMode = %v, want ModeAll", cfg.ScopeMode)
		}
	})

	t.Run("bare flag means seed domain", func(t *testing.T) {
		t.Parallel()
		cfg := parseExtractFlags(t, "--only-this-domain")
		if cfg.ScopeMode != scope.ModeAuto {
			t.Errorf("ScopeMode = %v, want ModeAuto", cfg.ScopeMode)
		}
	})

	t.Run("flag with value means custom domain", func(t *testing.T) {
		t.Parallel()
		cfg := parseExtractFlags(t, "--only-this-domain=other.org")
		if cfg.ScopeMode != scope.ModeCustom {
			t.Errorf("ScopeMode = %v, want ModeCustom", cfg.ScopeMode)
		}
		if cfg.ScopeDomain != "other.org" {
			t.Errorf("ScopeDomain = %q, want other.org", cfg.ScopeDomain)
		}
	})
}

// TestBuildConfigConflictingTransports verifies --use-proxy with --tor is
// rejected.
func TestBuildConfigConflictingTransports(t *testing.T) {
	t.Parallel()

	cfg := parseExtractFlags(t, "--use-proxy", "--tor")
	if err := cfg.Validate(); !errors.Is(err, config.ErrConflictingTransports) {
		t.Errorf("expected ErrConflictingTransports, got %v", err)
	}
}

// TestBuildConfigIgnoreList verifies the ignore file is parsed.
func TestBuildConfigIgnoreList(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ignore.txt")
	if err := os.WriteFile(path, []byte("# comment\nwww.Tracker.Test\n\ncdn.test\n"), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := parseExtractFlags(t, "--ignore-domains", path)
	if len(cfg.IgnoredDomains) != 2 {
		t.Fatalf("expected 2 ignored domains, got %d", len(cfg.IgnoredDomains))
	}
	if _, ok := cfg.IgnoredDomains["tracker.test"]; !ok {
		t.Error("expected normalized entry tracker.test")
	}
}

// TestBuildConfigDBDir verifies --db-dir enables the database.
func TestBuildConfigDBDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := parseExtractFlags(t, "--db-dir", dir)
	if !cfg.SaveToDB {
		t.Error("expected SaveToDB to be enabled")
	}
	if cfg.DBDir != dir {
		t.Errorf("DBDir = %q, want %q", cfg.DBDir, dir)
	}
}

// TestBuildConfigDefaultsFile verifies defaults-file values fill in only
// where no flag was given.
func TestBuildConfigDefaultsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "defaults.yaml")
	content := "countries: [JP]\ncrawlDelay: 250ms\nmaxPerDomain: 50\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := parseExtractFlags(t, "--config", path, "--max-per-domain", "70")
	if cfg.CrawlDelay != 250*time.Millisecond {
		t.Errorf("CrawlDelay = %v, want 250ms", cfg.CrawlDelay)
	}
	if len(cfg.ProxyCountries) != 1 || cfg.ProxyCountries[0] != "JP" {
		t.Errorf("ProxyCountries = %v, want [JP]", cfg.ProxyCountries)
	}
	// The explicit flag wins over the file.
	if cfg.MaxPerDomain != 70 {
		t.Errorf("MaxPerDomain = %d, want 70", cfg.MaxPerDomain)
	}
}

// TestBuildConfigMissingExplicitConfig verifies an explicit missing
// defaults file is an error.
func TestBuildConfigMissingExplicitConfig(t *testing.T) {
	t.Parallel()

	cmd := NewExtractCmd()
	if err := cmd.ParseFlags([]string{"--config", "/nonexistent/defaults.yaml"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := buildConfig(cmd, []string{"example.com"}); !errors.Is(err, config.ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
}

// TestExtractEndToEnd crawls a local test server through the full command.
func TestExtractEndToEnd(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Path {
		case "/":
			fmt.Fprint(w, `<html><body><a href="/a">a</a><a href="/b">b</a></body></html>`)
		default:
			fmt.Fprint(w, `<html><body>leaf</body></html>`)
		}
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "links.txt")

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"extract", srv.URL, "-o", out, "-t", "2"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{srv.URL + "/a", srv.URL + "/b"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("output missing %q:\n%s", want, data)
		}
	}

	if !strings.Contains(stdout.String(), "Crawl complete") {
		t.Errorf("expected summary on stdout, got %q", stdout.String())
	}
}
