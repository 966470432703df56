// ABOUTME: Runs the Bubble Tea terminal UI around the controller.
// ABOUTME: The program is bound to the signal context and the active session is torn down on exit.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/2389-research/accessdoc/controller"
	"github.com/2389-research/accessdoc/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// runTUI runs the interactive UI until the user quits or ctx is cancelled.
func runTUI(ctx context.Context, ctl *controller.Controller, opts tui.Options, logger *log.Logger, stderr io.Writer) int {
	model := tui.NewAppModel(ctl, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	logger.Info("tui started", "server", opts.Server)
	_, err := p.Run()
	ctl.Teardown()

	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	logger.Info("tui stopped", "phase", ctl.State().Phase)
	return 0
}
