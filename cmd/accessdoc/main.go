// ABOUTME: CLI entrypoint for accessdoc with interactive TUI, plain line output and history subcommands.
// ABOUTME: Wires together config layering, logging, the analysis client, the controller and signal handling.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/2389-research/accessdoc/analysis"
	"github.com/2389-research/accessdoc/controller"
	"github.com/2389-research/accessdoc/history"
	"github.com/2389-research/accessdoc/report"
	"github.com/2389-research/accessdoc/tui"
	"github.com/charmbracelet/log"
	"golang.org/x/term"
)

var version = "dev"

const historyFileName = "history.db"

func main() {
	loadDotEnvAuto()

	args := os.Args[1:]
	if len(args) > 0 && args[0] == "history" {
		os.Exit(runHistory(args[1:], os.Stdout, os.Stderr))
	}

	cfg, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	if cfg.showVersion {
		fmt.Printf("accessdoc %s\n", version)
		os.Exit(0)
	}

	os.Exit(run(cfg, os.Stdout, os.Stderr))
}

// parseFlags parses command-line flags and layers them over the config file
// and environment.
func parseFlags(args []string) (config, error) {
	var parsed config

	fs := flag.NewFlagSet("accessdoc", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	registerCommonFlags(fs, &parsed)
	fs.StringVar(&parsed.server, "server", analysis.DefaultBaseURL, "Analysis service base URL")
	fs.BoolVar(&parsed.tuiMode, "tui", false, "Run the interactive terminal UI")
	fs.BoolVar(&parsed.plainMode, "plain", false, "Print progress lines instead of the terminal UI")
	fs.BoolVar(&parsed.noStream, "no-stream", false, "Use the non-streaming endpoint")
	fs.BoolVar(&parsed.strict, "strict", false, "Treat progress records flagged as errors as fatal")
	fs.DurationVar(&parsed.idleTimeout, "idle-timeout", 0, "Fail a stream after this long without a record (0 disables)")
	fs.BoolVar(&parsed.history, "history", true, "Save finished reports to local history")
	fs.StringVar(&parsed.exportDir, "export", "", "Directory to write the finished report into")
	fs.StringVar(&parsed.format, "format", string(report.FormatText), "Export format: txt, md, html, json")
	fs.StringVar(&parsed.glamourStyle, "style", report.StyleAuto, "Plan rendering style: auto, dark, light, notty")
	fs.BoolVar(&parsed.showVersion, "version", false, "Print version and exit")

	fs.Usage = func() {
		printHelp(os.Stderr, version)
	}

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if fs.NArg() > 1 {
		return config{}, fmt.Errorf("expected at most one URL, got %d arguments", fs.NArg())
	}
	if fs.NArg() == 1 {
		parsed.url = fs.Arg(0)
	}

	return layer(fs, parsed)
}

// run dispatches to the TUI or plain mode. Returns an exit code: 0 for
// success, 1 for a failed analysis, 2 for bad input.
func run(cfg config, stdout, stderr io.Writer) int {
	useTUI := cfg.tuiMode || (!cfg.plainMode && cfg.url == "" && isTerminal(stdout))
	if !useTUI && cfg.url == "" {
		printHelp(stderr, version)
		return 0
	}

	dataDir, err := resolveDataDir(cfg.dataDir)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	logOut := stderr
	if useTUI {
		f, err := openLogFile(dataDir)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		defer f.Close()
		logOut = f
	}
	logger, err := newLogger(logOut, cfg.logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	client, err := analysis.NewClient(analysis.Config{
		BaseURL:     cfg.server,
		IdleTimeout: cfg.idleTimeout,
		Logger:      logger,
	})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	start := controller.StreamStarter(client)
	if cfg.noStream {
		start = controller.FallbackStarter(client)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			logger.Info("interrupted, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	ctl := controller.New(ctx, start, controller.Options{
		StrictErrors: cfg.strict,
		Logger:       logger,
	})

	var store *history.Store
	if cfg.history {
		store, err = history.Open(filepath.Join(dataDir, historyFileName))
		if err != nil {
			logger.Warn("history disabled", "err", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	format, _ := report.ParseFormat(cfg.format)

	if useTUI {
		opts := tui.Options{
			Server:       client.BaseURL(),
			ExportDir:    cfg.exportDir,
			Format:       format,
			GlamourStyle: cfg.glamourStyle,
			InitialURL:   cfg.url,
		}
		if store != nil {
			opts.Store = store
		}
		return runTUI(ctx, ctl, opts, logger, stderr)
	}

	p := plainOptions{
		url:       cfg.url,
		stdout:    stdout,
		stderr:    stderr,
		spinner:   isTerminal(stderr),
		exportDir: cfg.exportDir,
		format:    format,
		style:     cfg.glamourStyle,
		width:     terminalWidth(stdout),
		logger:    logger,
	}
	if store != nil {
		p.store = store
	}
	return runPlain(ctx, ctl, p)
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns w's width, or 80 when it is not a terminal.
func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return 80
}

// discardLogger is used where no logger was configured.
func discardLogger() *log.Logger {
	return log.New(io.Discard)
}
