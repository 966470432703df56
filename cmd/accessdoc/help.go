// ABOUTME: Help display for the accessdoc CLI with grouped flags, examples, and environment status.
// ABOUTME: Provides printHelp for usage output and envStatus for environment variable detection.
package main

import (
	"fmt"
	"io"
	"os"
)

// printHelp writes a formatted help message to w, including usage patterns,
// grouped flags, examples and environment status.
func printHelp(w io.Writer, ver string) {
	fmt.Fprintf(w, "accessdoc %s: web accessibility analyzer client\n", ver)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  accessdoc                            Interactive terminal UI")
	fmt.Fprintln(w, "  accessdoc -tui <url>                 Terminal UI, analysing <url> on start")
	fmt.Fprintln(w, "  accessdoc <url>                      Analyse <url> and print the report")
	fmt.Fprintln(w, "  accessdoc history <command>          List, show, diff or remove saved reports")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Analysis Flags:")
	fmt.Fprintln(w, "  -server <url>         Analysis service (default: http://localhost:8000)")
	fmt.Fprintln(w, "  -no-stream            Use POST /analyze instead of the progress stream")
	fmt.Fprintln(w, "  -strict               Stop on progress records flagged as errors")
	fmt.Fprintln(w, "  -idle-timeout <dur>   Fail when the stream is silent this long (default: off)")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Output Flags:")
	fmt.Fprintln(w, "  -tui                  Force the terminal UI")
	fmt.Fprintln(w, "  -plain                Force line output")
	fmt.Fprintln(w, "  -export <dir>         Write the finished report into <dir>")
	fmt.Fprintln(w, "  -format <fmt>         Export format: txt, md, html, json (default: txt)")
	fmt.Fprintln(w, "  -style <name>         Plan style: auto, dark, light, notty (default: auto)")
	fmt.Fprintln(w, "  -history=false        Do not save reports to local history")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Other:")
	fmt.Fprintln(w, "  -config <file>        Config file (default: $XDG_CONFIG_HOME/accessdoc/config.yaml)")
	fmt.Fprintln(w, "  -data-dir <dir>       History and logs (default: $XDG_DATA_HOME/accessdoc)")
	fmt.Fprintln(w, "  -log-level <level>    debug, info, warn, error (default: info)")
	fmt.Fprintln(w, "  -version              Print version and exit")
	fmt.Fprintln(w, "  -help                 Show this help")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  accessdoc https://example.com")
	fmt.Fprintln(w, "  accessdoc -export ./reports -format md https://example.com")
	fmt.Fprintln(w, "  accessdoc -server http://analyzer.internal:8000 -tui")
	fmt.Fprintln(w, "  accessdoc history diff 01J")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  %-20s  %s\n", envServer, envStatus(envServer))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Run accessdoc-mock for a local stand-in analysis service.")
}

// envStatus returns "[set]" if the named environment variable is non-empty,
// or "[not set]" otherwise.
func envStatus(key string) string {
	if os.Getenv(key) != "" {
		return "[set]"
	}
	return "[not set]"
}
