// ABOUTME: Builds the charmbracelet/log logger shared by the client, controller and TUI.
// ABOUTME: TUI runs log to <data-dir>/accessdoc.log so output never lands on the alt screen.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

const logFileName = "accessdoc.log"

// newLogger returns a leveled logger writing to w.
func newLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           lvl,
		Prefix:          appName,
	}), nil
}

// openLogFile opens the TUI log file in dataDir for appending.
func openLogFile(dataDir string) (*os.File, error) {
	path := filepath.Join(dataDir, logFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
