// ABOUTME: Plain (non-interactive) mode: drives one analysis through the controller and prints the report.
// ABOUTME: Progress goes to stderr as a briandowns spinner on a terminal, or as one line per update otherwise.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/2389-research/accessdoc/analysis"
	"github.com/2389-research/accessdoc/controller"
	"github.com/2389-research/accessdoc/report"
	"github.com/2389-research/accessdoc/tui"
	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"
)

const spinnerInterval = 100 * time.Millisecond

type plainOptions struct {
	url       string
	stdout    io.Writer
	stderr    io.Writer
	spinner   bool
	store     tui.Saver // nil disables history
	exportDir string    // empty disables export
	format    report.Format
	style     string
	width     int
	now       func() time.Time
	logger    *log.Logger
}

// runPlain submits p.url and blocks until the analysis finishes. The report
// goes to stdout; progress, notices and errors go to stderr.
func runPlain(ctx context.Context, ctl *controller.Controller, p plainOptions) int {
	if p.now == nil {
		p.now = time.Now
	}
	if p.logger == nil {
		p.logger = discardLogger()
	}

	sess, err := ctl.Submit(p.url)
	if err != nil {
		fmt.Fprintf(p.stderr, "error: %s\n", analysis.UserMessage(err))
		return 2
	}

	var sp *spinner.Spinner
	if p.spinner {
		sp = spinner.New(spinner.CharSets[14], spinnerInterval, spinner.WithWriter(p.stderr))
		sp.Suffix = " " + ctl.State().Message
		sp.Start()
	}

	runErr := ctl.Run(ctx, sess, func(st controller.State) {
		if !st.ShowLoading() {
			return
		}
		line := progressLine(st)
		if sp != nil {
			sp.Lock()
			sp.Suffix = " " + line
			sp.Unlock()
			return
		}
		fmt.Fprintln(p.stderr, line)
	})
	if sp != nil {
		sp.Stop()
	}

	st := ctl.State()
	switch {
	case errors.Is(runErr, context.Canceled):
		fmt.Fprintln(p.stderr, "interrupted")
		return 130
	case runErr != nil || st.ShowError():
		fmt.Fprintf(p.stderr, "error: %s\n", st.Message)
		return 1
	case !st.ShowReport():
		fmt.Fprintln(p.stderr, "error: analysis ended without a report")
		return 1
	}

	out, err := report.Terminal(st.Report, p.width, p.style)
	if err != nil {
		p.logger.Warn("plan rendering failed", "err", err)
		out = report.PlainText(st.Report, p.now())
	}
	fmt.Fprintln(p.stdout, out)
	fmt.Fprintf(p.stderr, "%s (%s)\n", controller.CompleteMessage, formatDuration(st.Elapsed(p.now())))

	if p.store != nil {
		entry, err := p.store.Save(st.Target, st.Report, p.now())
		if err != nil {
			p.logger.Warn("history save failed", "err", err)
		} else {
			p.logger.Debug("saved to history", "id", entry.ID)
			fmt.Fprintf(p.stderr, "Saved to history as %s\n", entry.ID)
		}
	}

	if p.exportDir != "" {
		path, err := report.Export(p.exportDir, st.Report, st.Target, p.format, p.now())
		if err != nil {
			fmt.Fprintf(p.stderr, "error: %v\n", err)
			return 1
		}
		fmt.Fprintf(p.stderr, "Report written to %s\n", path)
	}
	return 0
}

// progressLine formats a Loading state as "[ 45%] Step: message".
func progressLine(st controller.State) string {
	line := fmt.Sprintf("[%3d%%] %s: %s", st.Percent, st.Step, st.Message)
	if st.SoftError {
		line += " (warning)"
	}
	return line
}

func formatDuration(d time.Duration) string {
	return d.Round(100 * time.Millisecond).String()
}
