// ABOUTME: Tests for the accessdoc CLI help display covering content, flags, examples and env detection.
// ABOUTME: Help text is checked for content only, not exact layout.
package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintHelpContainsNameAndVersion(t *testing.T) {
	var buf bytes.Buffer
	printHelp(&buf, "1.2.3")
	out := buf.String()

	if !strings.Contains(out, "accessdoc 1.2.3") {
		t.Errorf("expected name and version in help:\n%s", out)
	}
}

func TestPrintHelpContainsAllFlags(t *testing.T) {
	var buf bytes.Buffer
	printHelp(&buf, "dev")
	out := buf.String()

	flags := []string{
		"-server", "-no-stream", "-strict", "-idle-timeout",
		"-tui", "-plain", "-export", "-format", "-style", "-history",
		"-config", "-data-dir", "-log-level", "-version", "-help",
	}
	for _, f := range flags {
		if !strings.Contains(out, f) {
			t.Errorf("expected help to contain flag %q", f)
		}
	}
}

func TestPrintHelpContainsUsageAndExamples(t *testing.T) {
	var buf bytes.Buffer
	printHelp(&buf, "dev")
	out := buf.String()

	for _, want := range []string{"Usage:", "Examples:", "accessdoc history <command>", "accessdoc https://example.com"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected help to contain %q", want)
		}
	}
}

func TestPrintHelpShowsEnvVarStatus(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"http://svc:8000", "[set]"},
		{"", "[not set]"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Setenv(envServer, tt.value)

			var buf bytes.Buffer
			printHelp(&buf, "dev")

			found := false
			for _, line := range strings.Split(buf.String(), "\n") {
				if strings.Contains(line, envServer) && strings.HasSuffix(strings.TrimSpace(line), tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected %s line ending in %s", envServer, tt.want)
			}
		})
	}
}
