// ABOUTME: CLI entrypoint for the stub analysis backend used for local development and demos.
// ABOUTME: Serves the streaming and non-streaming analysis routes with optional scripted failures.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2389-research/accessdoc/mockserver"
	"github.com/charmbracelet/log"
)

var version = "dev"

// config holds all CLI configuration parsed from flags.
type config struct {
	addr        string
	delay       time.Duration
	fail        string
	accessLog   bool
	logLevel    string
	showVersion bool
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	if cfg.showVersion {
		fmt.Printf("accessdoc-mock %s\n", version)
		os.Exit(0)
	}

	os.Exit(run(cfg, os.Stderr))
}

// parseFlags parses command-line flags and returns a populated config.
func parseFlags(args []string, out io.Writer) (config, error) {
	var cfg config

	fs := flag.NewFlagSet("accessdoc-mock", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&cfg.addr, "addr", "127.0.0.1:8000", "Listen address")
	fs.DurationVar(&cfg.delay, "delay", 400*time.Millisecond, "Pause between progress records")
	fs.StringVar(&cfg.fail, "fail", "", "Scripted failure: scrape, soft, drop, decode")
	fs.BoolVar(&cfg.accessLog, "access-log", false, "Log every request")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.BoolVar(&cfg.showVersion, "version", false, "Print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(out, "Usage: accessdoc-mock [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return config{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return cfg, nil
}

// run starts the stub server and blocks until SIGINT or SIGTERM.
// Returns an exit code: 0 for a clean shutdown, 1 for failure.
func run(cfg config, stderr io.Writer) int {
	fail, err := mockserver.ParseFailMode(cfg.fail)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	level, err := log.ParseLevel(cfg.logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "error: log level %q: %v\n", cfg.logLevel, err)
		return 2
	}
	logger := log.NewWithOptions(stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Level:           level,
		Prefix:          "accessdoc-mock",
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := mockserver.New(mockserver.Config{
		Addr:      cfg.addr,
		StepDelay: cfg.delay,
		Fail:      fail,
		AccessLog: cfg.accessLog,
		Logger:    logger,
	})

	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server stopped", "err", err)
		return 1
	}
	logger.Info("shut down")
	return 0
}
