// ABOUTME: UI controller state machine: Idle, Loading, Report and Failed, driven by session events.
// ABOUTME: Owns a single-writer session slot; each submission closes the previous session before opening the next.
package controller

import (
	"context"
	"io"
	"time"

	"github.com/2389-research/accessdoc/analysis"
	"github.com/charmbracelet/log"
)

// Session is the part of an analysis session the controller depends on.
// *analysis.Session satisfies it.
type Session interface {
	ID() string
	Events() <-chan analysis.Event
	Close()
}

// StartFunc opens a session for an already validated target.
type StartFunc func(ctx context.Context, target string) Session

// StreamStarter returns a StartFunc backed by the client's SSE endpoint.
func StreamStarter(c *analysis.Client) StartFunc {
	return func(ctx context.Context, target string) Session {
		return c.Stream(ctx, target)
	}
}

// FallbackStarter returns a StartFunc backed by the non-streaming endpoint.
func FallbackStarter(c *analysis.Client) StartFunc {
	return func(ctx context.Context, target string) Session {
		return c.AnalyzeSession(ctx, target)
	}
}

// Options tune the controller's policies.
type Options struct {
	// StrictErrors makes progress records carrying an error flag fatal.
	// By default they are shown in the progress message and loading continues.
	StrictErrors bool
	Logger       *log.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Controller owns the visible analysis state and at most one live session.
// It is not safe for concurrent use: Submit, Handle and Teardown must all be
// called from the same goroutine.
type Controller struct {
	ctx     context.Context
	start   StartFunc
	opts    Options
	logger  *log.Logger
	state   State
	session Session
}

// New creates a Controller in the Idle state. Sessions it opens are bound to ctx.
func New(ctx context.Context, start StartFunc, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		ctx:    ctx,
		start:  start,
		opts:   opts,
		logger: logger,
		state:  State{Phase: PhaseIdle},
	}
}

// State returns the current state snapshot.
func (c *Controller) State() State { return c.state }

// Active returns the session currently in the slot, or nil.
func (c *Controller) Active() Session { return c.session }

// Submit validates raw and starts a new analysis. An invalid URL returns an
// error wrapping analysis.ErrInvalidURL and leaves state and slot untouched.
// Otherwise any previous session is closed before the new one is opened,
// and the state moves to Loading with the percent reset to 0.
func (c *Controller) Submit(raw string) (Session, error) {
	target, err := analysis.ValidateURL(raw)
	if err != nil {
		c.logger.Debug("rejected submission", "input", raw, "err", err)
		return nil, err
	}

	c.closeActive()

	c.state = loadingState(target, c.opts.Now())
	c.session = c.start(c.ctx, target)
	c.logger.Info("analysis started", "target", target, "session", c.session.ID())
	return c.session, nil
}

// Handle applies one session event. Events from any session other than the
// one in the slot are ignored. It returns true when the event was applied.
func (c *Controller) Handle(ev analysis.Event) bool {
	if c.session == nil || ev.SessionID != c.session.ID() {
		c.logger.Debug("dropping stale event", "kind", ev.Kind, "session", ev.SessionID)
		return false
	}

	switch ev.Kind {
	case analysis.EventOpen:
		c.logger.Debug("stream open", "session", ev.SessionID)

	case analysis.EventProgress:
		c.applyProgress(ev.Record)

	case analysis.EventReport:
		if c.state.Phase != PhaseLoading {
			return false
		}
		c.state.Phase = PhaseReport
		c.state.Report = ev.Report
		c.state.Percent = 100
		c.state.Message = CompleteMessage
		c.state.SoftError = false
		c.state.Finished = c.opts.Now()
		c.logger.Info("analysis complete", "target", c.state.Target, "elapsed", c.state.Elapsed(c.state.Finished).Round(time.Millisecond))

	case analysis.EventError:
		c.fail(analysis.UserMessage(ev.Err), ev.Err)

	case analysis.EventClose:
		c.session = nil
	}
	return true
}

func (c *Controller) applyProgress(rec analysis.Record) {
	if c.state.Phase != PhaseLoading {
		return
	}

	flagged := rec.Flagged()
	if flagged && c.opts.StrictErrors {
		msg := rec.Message
		if msg == "" {
			msg = fallbackFailure
		}
		c.fail(msg, &RecordError{Record: rec})
		return
	}

	c.state.Message = rec.Message
	if pct, ok := rec.Percent(); ok {
		c.state.Percent = pct
	}
	if step, ok := rec.Step(); ok {
		c.state.Step = step
	}
	c.state.SoftError = flagged
	if flagged {
		c.logger.Warn("analysis reported a problem", "target", c.state.Target, "message", rec.Message)
	}
}

// fail closes the active session and moves to Failed.
func (c *Controller) fail(msg string, err error) {
	c.closeActive()
	c.state.Phase = PhaseFailed
	c.state.Message = msg
	c.state.Err = err
	c.state.Report = nil
	c.state.Finished = c.opts.Now()
	c.logger.Error("analysis failed", "target", c.state.Target, "err", err)
}

// Teardown closes the active session, if any, without changing the visible state.
func (c *Controller) Teardown() {
	c.closeActive()
}

func (c *Controller) closeActive() {
	if c.session == nil {
		return
	}
	c.logger.Debug("closing session", "session", c.session.ID())
	c.session.Close()
	c.session = nil
}

// Run drains sess into Handle on the calling goroutine until its event
// channel closes, calling onChange after every applied event. If ctx is
// cancelled first the controller is torn down and ctx's error returned.
// A run that ends in Failed returns the failure error.
func (c *Controller) Run(ctx context.Context, sess Session, onChange func(State)) error {
	events := sess.Events()
	for {
		select {
		case <-ctx.Done():
			c.Teardown()
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				if c.state.Phase == PhaseFailed {
					return c.state.Err
				}
				return nil
			}
			if c.Handle(ev) && onChange != nil {
				onChange(c.state)
			}
		}
	}
}

// RecordError is the failure recorded when a flagged progress record is
// treated as fatal.
type RecordError struct {
	Record analysis.Record
}

func (e *RecordError) Error() string {
	if e.Record.Message == "" {
		return fallbackFailure
	}
	return e.Record.Message
}
