// ABOUTME: Tests for the accessdoc CLI entrypoint covering flag parsing, config layering,
// ABOUTME: plain-mode runs against the stub backend, exit codes, export and history saves.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/2389-research/accessdoc/analysis"
	"github.com/2389-research/accessdoc/controller"
	"github.com/2389-research/accessdoc/history"
	"github.com/2389-research/accessdoc/mockserver"
	"github.com/2389-research/accessdoc/report"
)

// isolate points config and data lookups at temp dirs and clears the
// server override so tests never see the developer's own setup.
func isolate(t *testing.T) (configDir, dataDir string) {
	t.Helper()
	configHome := t.TempDir()
	dataHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_DATA_HOME", dataHome)
	t.Setenv(envServer, "")
	return filepath.Join(configHome, appName), filepath.Join(dataHome, appName)
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// --- parseFlags tests ---

func TestParseFlagsDefaults(t *testing.T) {
	isolate(t)

	cfg, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.server != analysis.DefaultBaseURL {
		t.Errorf("server = %q", cfg.server)
	}
	if cfg.logLevel != "info" {
		t.Errorf("logLevel = %q", cfg.logLevel)
	}
	if !cfg.history {
		t.Error("history should default to on")
	}
	if cfg.strict || cfg.noStream || cfg.tuiMode || cfg.plainMode {
		t.Errorf("unexpected bool defaults: %+v", cfg)
	}
	if cfg.idleTimeout != 0 {
		t.Errorf("idleTimeout = %v, want 0", cfg.idleTimeout)
	}
	if cfg.exportDir != "" {
		t.Errorf("exportDir = %q, want empty", cfg.exportDir)
	}
	if cfg.format != "txt" || cfg.glamourStyle != "auto" {
		t.Errorf("format=%q style=%q", cfg.format, cfg.glamourStyle)
	}
	if cfg.url != "" {
		t.Errorf("url = %q", cfg.url)
	}
}

func TestParseFlagsAll(t *testing.T) {
	isolate(t)

	cfg, err := parseFlags([]string{
		"-server", "http://svc:9000",
		"-plain", "-no-stream", "-strict",
		"-idle-timeout", "30s",
		"-history=false",
		"-export", "/tmp/out", "-format", "md",
		"-style", "notty",
		"-log-level", "debug",
		"-data-dir", "/tmp/data",
		"https://example.com",
	})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.server != "http://svc:9000" || !cfg.plainMode || !cfg.noStream || !cfg.strict {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.idleTimeout != 30*time.Second {
		t.Errorf("idleTimeout = %v", cfg.idleTimeout)
	}
	if cfg.history {
		t.Error("history should be off")
	}
	if cfg.exportDir != "/tmp/out" || cfg.format != "md" || cfg.glamourStyle != "notty" {
		t.Errorf("export=%q format=%q style=%q", cfg.exportDir, cfg.format, cfg.glamourStyle)
	}
	if cfg.logLevel != "debug" || cfg.dataDir != "/tmp/data" {
		t.Errorf("logLevel=%q dataDir=%q", cfg.logLevel, cfg.dataDir)
	}
	if cfg.url != "https://example.com" {
		t.Errorf("url = %q", cfg.url)
	}
}

func TestParseFlagsErrors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
	}{
		{"tui and plain", []string{"-tui", "-plain"}},
		{"bad format", []string{"-format", "pdf"}},
		{"two urls", []string{"https://a.example", "https://b.example"}},
		{"unknown flag", []string{"-bogus"}},
		{"missing explicit config", []string{"-config", "/nonexistent/accessdoc.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseFlags(tt.args); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseFlagsHelp(t *testing.T) {
	isolate(t)
	_, err := parseFlags([]string{"-help"})
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("err = %v, want flag.ErrHelp", err)
	}
}

// --- config layering tests ---

func TestConfigFileApplied(t *testing.T) {
	configDir, _ := isolate(t)
	writeConfig(t, configDir, `
server: http://from-file:8000
data_dir: /srv/accessdoc
log_level: warn
strict_errors: true
no_stream: true
idle_timeout: 45s
history: false
export_dir: /srv/reports
`)

	cfg, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.server != "http://from-file:8000" {
		t.Errorf("server = %q", cfg.server)
	}
	if cfg.dataDir != "/srv/accessdoc" || cfg.logLevel != "warn" {
		t.Errorf("dataDir=%q logLevel=%q", cfg.dataDir, cfg.logLevel)
	}
	if !cfg.strict || !cfg.noStream || cfg.history {
		t.Errorf("strict=%v noStream=%v history=%v", cfg.strict, cfg.noStream, cfg.history)
	}
	if cfg.idleTimeout != 45*time.Second {
		t.Errorf("idleTimeout = %v", cfg.idleTimeout)
	}
	if cfg.exportDir != "/srv/reports" {
		t.Errorf("exportDir = %q", cfg.exportDir)
	}
}

func TestConfigLayerPrecedence(t *testing.T) {
	configDir, _ := isolate(t)
	writeConfig(t, configDir, "server: http://from-file:8000\nstrict_errors: true\n")

	t.Setenv(envServer, "http://from-env:8000")
	cfg, err := parseFlags(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.server != "http://from-env:8000" {
		t.Errorf("env should override the file, got %q", cfg.server)
	}
	if !cfg.strict {
		t.Error("file value should survive when nothing overrides it")
	}

	cfg, err = parseFlags([]string{"-server", "http://from-flag:8000", "-strict=false"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.server != "http://from-flag:8000" {
		t.Errorf("flag should override env, got %q", cfg.server)
	}
	if cfg.strict {
		t.Error("explicit -strict=false should override the file")
	}
}

func TestConfigExplicitFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), "log_level: error\n")

	cfg, err := parseFlags([]string{"-config", path})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.logLevel != "error" {
		t.Errorf("logLevel = %q", cfg.logLevel)
	}
	if cfg.configFile != path {
		t.Errorf("configFile = %q", cfg.configFile)
	}
}

func TestConfigFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "server: [unterminated\n"},
		{"bad duration", "idle_timeout: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configDir, _ := isolate(t)
			writeConfig(t, configDir, tt.content)
			if _, err := parseFlags(nil); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

// --- run tests ---

func newMockBackend(t *testing.T, fail mockserver.FailMode) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(mockserver.New(mockserver.Config{Fail: fail}))
	t.Cleanup(srv.Close)
	return srv
}

func plainConfig(t *testing.T, server, url string) config {
	t.Helper()
	cfg := defaultConfig()
	cfg.server = server
	cfg.url = url
	cfg.plainMode = true
	cfg.dataDir = t.TempDir()
	cfg.glamourStyle = report.StyleNoTTY
	cfg.logLevel = "error"
	return cfg
}

func TestRunPlainSuccess(t *testing.T) {
	isolate(t)
	srv := newMockBackend(t, mockserver.FailNone)

	cfg := plainConfig(t, srv.URL, "https://example.com")
	cfg.exportDir = t.TempDir()
	cfg.format = "md"

	var stdout, stderr bytes.Buffer
	code := run(cfg, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr.String())
	}

	if !strings.Contains(stdout.String(), "Average Score:") {
		t.Errorf("stdout missing report:\n%s", stdout.String())
	}
	if !strings.Contains(stdout.String(), "Implementation Plan") {
		t.Errorf("stdout missing plan:\n%s", stdout.String())
	}
	errOut := stderr.String()
	for _, want := range []string{"[  5%] Initialization: Starting analysis", "Analysis complete!", "Saved to history as", "Report written to"} {
		if !strings.Contains(errOut, want) {
			t.Errorf("stderr missing %q:\n%s", want, errOut)
		}
	}

	matches, _ := filepath.Glob(filepath.Join(cfg.exportDir, "accessibility-report-*.md"))
	if len(matches) != 1 {
		t.Errorf("exported files = %v", matches)
	}

	store, err := history.Open(filepath.Join(cfg.dataDir, historyFileName))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	sums, err := store.List("https://example.com", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 1 {
		t.Errorf("history entries = %d, want 1", len(sums))
	}
}

func TestRunPlainNoStream(t *testing.T) {
	isolate(t)
	srv := newMockBackend(t, mockserver.FailNone)

	cfg := plainConfig(t, srv.URL, "https://example.com")
	cfg.noStream = true
	cfg.history = false

	var stdout, stderr bytes.Buffer
	if code := run(cfg, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Average Score:") {
		t.Errorf("stdout missing report:\n%s", stdout.String())
	}
	if strings.Contains(stderr.String(), "Saved to history") {
		t.Error("history was disabled")
	}
}

func TestRunPlainFailures(t *testing.T) {
	tests := []struct {
		name     string
		fail     mockserver.FailMode
		strict   bool
		noStream bool
		want     string
	}{
		{name: "dropped stream", fail: mockserver.FailDrop, want: "error: Connection to the analysis service was lost"},
		{name: "undecodable record", fail: mockserver.FailDecode, want: "error: Failed to decode analysis event"},
		{name: "strict soft error", fail: mockserver.FailSoft, strict: true, want: "error: "},
		{name: "fallback server error", fail: mockserver.FailScrape, noStream: true, want: "error: Failed to scrape"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			srv := newMockBackend(t, tt.fail)
			cfg := plainConfig(t, srv.URL, "https://example.com")
			cfg.strict = tt.strict
			cfg.noStream = tt.noStream

			var stdout, stderr bytes.Buffer
			if code := run(cfg, &stdout, &stderr); code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
			if !strings.Contains(stderr.String(), tt.want) {
				t.Errorf("stderr missing %q:\n%s", tt.want, stderr.String())
			}
			if stdout.Len() != 0 {
				t.Errorf("nothing should reach stdout on failure:\n%s", stdout.String())
			}
		})
	}
}

func TestRunPlainSoftErrorContinues(t *testing.T) {
	isolate(t)
	srv := newMockBackend(t, mockserver.FailSoft)
	cfg := plainConfig(t, srv.URL, "https://example.com")

	var stdout, stderr bytes.Buffer
	if code := run(cfg, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "(warning)") {
		t.Errorf("soft error should be marked in the progress lines:\n%s", stderr.String())
	}
}

func TestRunInvalidURL(t *testing.T) {
	isolate(t)
	cfg := plainConfig(t, "http://127.0.0.1:1", "not a url")

	var stdout, stderr bytes.Buffer
	if code := run(cfg, &stdout, &stderr); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "Please enter a valid URL") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunWithoutURLPrintsHelp(t *testing.T) {
	isolate(t)
	cfg := plainConfig(t, analysis.DefaultBaseURL, "")

	var stdout, stderr bytes.Buffer
	if code := run(cfg, &stdout, &stderr); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.Contains(stderr.String(), "Usage:") {
		t.Error("expected help output")
	}
}

func TestRunBadLogLevel(t *testing.T) {
	isolate(t)
	cfg := plainConfig(t, analysis.DefaultBaseURL, "https://example.com")
	cfg.logLevel = "loud"

	var stdout, stderr bytes.Buffer
	if code := run(cfg, &stdout, &stderr); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestRunPlainCancelled(t *testing.T) {
	srv := newMockBackend(t, mockserver.FailNone)
	client, err := analysis.NewClient(analysis.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ctl := controller.New(ctx, controller.StreamStarter(client), controller.Options{})

	var stdout, stderr bytes.Buffer
	code := runPlain(ctx, ctl, plainOptions{url: "https://example.com", stdout: &stdout, stderr: &stderr, style: report.StyleNoTTY})
	if code != 130 && code != 1 {
		t.Errorf("exit code = %d, want 130 or 1", code)
	}
	if stdout.Len() != 0 {
		t.Error("no report expected after cancellation")
	}
}

func TestProgressLine(t *testing.T) {
	st := controller.State{Phase: controller.PhaseLoading, Step: "Capture", Message: "Capturing screenshot", Percent: 25}
	if got := progressLine(st); got != "[ 25%] Capture: Capturing screenshot" {
		t.Errorf("progressLine = %q", got)
	}
	st.SoftError = true
	if got := progressLine(st); !strings.HasSuffix(got, "(warning)") {
		t.Errorf("progressLine = %q", got)
	}
}

func TestTerminalHelpersOnBuffers(t *testing.T) {
	var buf bytes.Buffer
	if isTerminal(&buf) {
		t.Error("a buffer is not a terminal")
	}
	if terminalWidth(&buf) != 80 {
		t.Error("non-terminals fall back to 80 columns")
	}
}
