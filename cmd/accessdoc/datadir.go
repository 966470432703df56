// ABOUTME: XDG-based data and config directory resolution for the accessdoc CLI.
// ABOUTME: Checks XDG_DATA_HOME / XDG_CONFIG_HOME, falls back to ~/.local/share/accessdoc and ~/.config/accessdoc.
package main

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "accessdoc"

// defaultDataDir returns where history and logs live.
func defaultDataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", ".local", "share")
}

// defaultConfigDir returns where config.yaml is looked up.
func defaultConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

func xdgDir(envKey string, fallback ...string) (string, error) {
	if xdg := os.Getenv(envKey); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	parts := append([]string{home}, fallback...)
	return filepath.Join(append(parts, appName)...), nil
}

// resolveDataDir returns override when set, otherwise the XDG default, and
// makes sure the directory exists.
func resolveDataDir(override string) (string, error) {
	dir := override
	if dir == "" {
		var err error
		if dir, err = defaultDataDir(); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return dir, nil
}
