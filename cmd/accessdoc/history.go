// ABOUTME: The "accessdoc history" subcommand: list, show, diff and remove saved reports.
// ABOUTME: Diffs compare per-category scores and the implementation plan line by line.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/2389-research/accessdoc/history"
	"github.com/2389-research/accessdoc/report"
	"github.com/charmbracelet/lipgloss"
)

var (
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const historyUsage = `Usage:
  accessdoc history list [-target URL] [-limit N]
  accessdoc history show [-format txt|md|html|json] <id>
  accessdoc history diff [-context] <id> [<other-id>]
  accessdoc history rm <id>

IDs may be abbreviated to any unique prefix.
`

// historyOptions are the flags the history subcommands accept.
type historyOptions struct {
	config
	target  string
	limit   int
	context bool
}

// runHistory executes a history subcommand and returns an exit code.
func runHistory(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "-help" || args[0] == "--help" {
		fmt.Fprint(stderr, historyUsage)
		return 0
	}
	action := args[0]

	var opts historyOptions
	fs := flag.NewFlagSet("accessdoc history "+action, flag.ContinueOnError)
	fs.SetOutput(stderr)
	registerCommonFlags(fs, &opts.config)
	fs.StringVar(&opts.target, "target", "", "Only list reports for this URL")
	fs.IntVar(&opts.limit, "limit", 20, "Maximum number of reports to list (0 for all)")
	fs.StringVar(&opts.format, "format", string(report.FormatText), "Output format for show")
	fs.BoolVar(&opts.context, "context", false, "Include unchanged plan lines in diff")
	fs.Usage = func() { fmt.Fprint(stderr, historyUsage) }

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := layer(fs, opts.config)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}
	dataDir, err := resolveDataDir(cfg.dataDir)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	store, err := history.Open(filepath.Join(dataDir, historyFileName))
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	defer store.Close()

	rest := fs.Args()
	switch action {
	case "list", "ls":
		err = historyList(stdout, store, opts.target, opts.limit)
	case "show":
		if len(rest) != 1 {
			return usageError(stderr, "show takes exactly one id")
		}
		err = historyShow(stdout, store, rest[0], cfg.format)
	case "diff":
		if len(rest) < 1 || len(rest) > 2 {
			return usageError(stderr, "diff takes one or two ids")
		}
		err = historyDiff(stdout, store, rest, opts.context)
	case "rm", "delete":
		if len(rest) != 1 {
			return usageError(stderr, "rm takes exactly one id")
		}
		var e *history.Entry
		if e, err = store.Get(rest[0]); err == nil {
			if err = store.Delete(e.ID.String()); err == nil {
				fmt.Fprintf(stdout, "Deleted %s\n", e.ID)
			}
		}
	default:
		return usageError(stderr, fmt.Sprintf("unknown history command %q", action))
	}

	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func usageError(w io.Writer, msg string) int {
	fmt.Fprintf(w, "error: %s\n\n%s", msg, historyUsage)
	return 2
}

func historyList(w io.Writer, store *history.Store, target string, limit int) error {
	sums, err := store.List(target, limit)
	if err != nil {
		return err
	}
	if len(sums) == 0 {
		fmt.Fprintln(w, "No saved reports.")
		return nil
	}
	for _, s := range sums {
		fmt.Fprintf(w, "%s  %s  %3d/100 %s  %s\n",
			s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"), s.Average, report.Emoji(s.Average), s.Target)
	}
	return nil
}

func historyShow(w io.Writer, store *history.Store, id, format string) error {
	e, err := store.Get(id)
	if err != nil {
		return err
	}
	f, err := report.ParseFormat(format)
	if err != nil {
		return err
	}
	data, err := report.Render(e.Report, e.Target, f, e.CreatedAt)
	if err != nil {
		return err
	}
	if f == report.FormatText {
		fmt.Fprintf(w, "%s\n%s  %s\n\n", e.Target, e.ID, e.CreatedAt.Local().Format(time.RFC1123))
	}
	_, err = w.Write(data)
	return err
}

// historyDiff compares two entries. With one id the entry is compared with
// the previous report for the same target.
func historyDiff(w io.Writer, store *history.Store, ids []string, context bool) error {
	newer, err := store.Get(ids[len(ids)-1])
	if err != nil {
		return err
	}
	var older *history.Entry
	if len(ids) == 2 {
		if older, err = store.Get(ids[0]); err != nil {
			return err
		}
	} else {
		older, err = store.Previous(newer)
		if errors.Is(err, history.ErrNotFound) {
			return fmt.Errorf("no earlier report for %s", newer.Target)
		}
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "%s  %s\n", dimStyle.Render("older"), older.ID)
	fmt.Fprintf(w, "%s  %s\n\n", dimStyle.Render("newer"), newer.ID)

	fmt.Fprintln(w, "Scores")
	for _, c := range report.CompareScores(older.Report, newer.Report) {
		fmt.Fprintln(w, "  "+formatScoreChange(c))
	}
	fmt.Fprintf(w, "  Average: %d -> %d\n\n", older.Average, newer.Average)

	fmt.Fprintln(w, "Implementation Plan")
	diff := report.UnifiedPlanDiff(older.Report.ImplementationPlan, newer.Report.ImplementationPlan, context)
	if diff == "" {
		fmt.Fprintln(w, dimStyle.Render("  (unchanged)"))
		return nil
	}
	for _, line := range strings.Split(strings.TrimSuffix(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+ "):
			line = addedStyle.Render(line)
		case strings.HasPrefix(line, "- "):
			line = removedStyle.Render(line)
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func formatScoreChange(c report.ScoreChange) string {
	switch {
	case !c.HadOld:
		return addedStyle.Render(fmt.Sprintf("%s: new %d", c.Category, c.After))
	case !c.HasNew:
		return removedStyle.Render(fmt.Sprintf("%s: removed (was %d)", c.Category, c.Before))
	}
	d := c.Delta()
	text := fmt.Sprintf("%s: %d -> %d (%+d)", c.Category, c.Before, c.After, d)
	switch {
	case d > 0:
		return addedStyle.Render(text)
	case d < 0:
		return removedStyle.Render(text)
	default:
		return text
	}
}
