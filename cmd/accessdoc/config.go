// ABOUTME: Layered CLI configuration: defaults, YAML config file, environment, then explicit flags.
// ABOUTME: The config file lives at $XDG_CONFIG_HOME/accessdoc/config.yaml unless -config names another.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/2389-research/accessdoc/analysis"
	"github.com/2389-research/accessdoc/report"
	"gopkg.in/yaml.v3"
)

const (
	envServer       = "ACCESSDOC_SERVER"
	defaultLogLevel = "info"
)

// config holds all CLI configuration after layering.
type config struct {
	// Layered settings: config file, environment and flags.
	server      string
	dataDir     string
	logLevel    string
	strict      bool
	noStream    bool
	idleTimeout time.Duration
	history     bool
	exportDir   string

	// Flag-only settings.
	configFile   string
	format       string
	glamourStyle string
	tuiMode      bool
	plainMode    bool
	showVersion  bool
	url          string
}

// fileConfig is the YAML config file. Pointer fields distinguish "unset"
// from false.
type fileConfig struct {
	Server       string `yaml:"server"`
	DataDir      string `yaml:"data_dir"`
	LogLevel     string `yaml:"log_level"`
	StrictErrors *bool  `yaml:"strict_errors"`
	NoStream     *bool  `yaml:"no_stream"`
	IdleTimeout  string `yaml:"idle_timeout"`
	History      *bool  `yaml:"history"`
	ExportDir    string `yaml:"export_dir"`
}

func defaultConfig() config {
	return config{
		server:       analysis.DefaultBaseURL,
		logLevel:     defaultLogLevel,
		history:      true,
		format:       string(report.FormatText),
		glamourStyle: report.StyleAuto,
	}
}

// loadFileConfig reads a YAML config file. A missing file is only an error
// when required is true.
func loadFileConfig(path string, required bool) (fileConfig, error) {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return fc, nil
	}
	if err != nil {
		return fc, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, nil
}

// apply copies the values set in fc onto cfg.
func (fc fileConfig) apply(cfg *config) error {
	if fc.Server != "" {
		cfg.server = fc.Server
	}
	if fc.DataDir != "" {
		cfg.dataDir = fc.DataDir
	}
	if fc.LogLevel != "" {
		cfg.logLevel = fc.LogLevel
	}
	if fc.StrictErrors != nil {
		cfg.strict = *fc.StrictErrors
	}
	if fc.NoStream != nil {
		cfg.noStream = *fc.NoStream
	}
	if fc.IdleTimeout != "" {
		d, err := time.ParseDuration(fc.IdleTimeout)
		if err != nil {
			return fmt.Errorf("idle_timeout: %w", err)
		}
		cfg.idleTimeout = d
	}
	if fc.History != nil {
		cfg.history = *fc.History
	}
	if fc.ExportDir != "" {
		cfg.exportDir = fc.ExportDir
	}
	return nil
}

func applyEnv(cfg *config) {
	if v := os.Getenv(envServer); v != "" {
		cfg.server = v
	}
}

// registerCommonFlags binds the flags every command accepts.
func registerCommonFlags(flags *flag.FlagSet, cfg *config) {
	flags.StringVar(&cfg.configFile, "config", "", "Config file (default: $XDG_CONFIG_HOME/accessdoc/config.yaml)")
	flags.StringVar(&cfg.dataDir, "data-dir", "", "Data directory for history and logs (default: $XDG_DATA_HOME/accessdoc)")
	flags.StringVar(&cfg.logLevel, "log-level", defaultLogLevel, "Log level: debug, info, warn, error")
}

// layer builds the effective config: defaults, then the config file, then
// the environment, then every flag that was set explicitly on flags.
func layer(flags *flag.FlagSet, parsed config) (config, error) {
	set := map[string]bool{}
	flags.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := defaultConfig()

	path := parsed.configFile
	if path == "" {
		if dir, err := defaultConfigDir(); err == nil {
			path = filepath.Join(dir, "config.yaml")
		}
	}
	if path != "" {
		fc, err := loadFileConfig(path, set["config"])
		if err != nil {
			return config{}, err
		}
		if err := fc.apply(&cfg); err != nil {
			return config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	cfg.configFile = path

	applyEnv(&cfg)

	if set["server"] {
		cfg.server = parsed.server
	}
	if set["data-dir"] {
		cfg.dataDir = parsed.dataDir
	}
	if set["log-level"] {
		cfg.logLevel = parsed.logLevel
	}
	if set["strict"] {
		cfg.strict = parsed.strict
	}
	if set["no-stream"] {
		cfg.noStream = parsed.noStream
	}
	if set["idle-timeout"] {
		cfg.idleTimeout = parsed.idleTimeout
	}
	if set["history"] {
		cfg.history = parsed.history
	}
	if set["export"] {
		cfg.exportDir = parsed.exportDir
	}
	if set["format"] {
		cfg.format = parsed.format
	}
	if set["style"] {
		cfg.glamourStyle = parsed.glamourStyle
	}

	cfg.tuiMode = parsed.tuiMode
	cfg.plainMode = parsed.plainMode
	cfg.showVersion = parsed.showVersion
	cfg.url = parsed.url

	if cfg.tuiMode && cfg.plainMode {
		return config{}, errors.New("-tui and -plain are mutually exclusive")
	}
	if _, err := report.ParseFormat(cfg.format); err != nil {
		return config{}, err
	}
	return cfg, nil
}
