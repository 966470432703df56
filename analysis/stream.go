// ABOUTME: Streaming analysis sessions over Server-Sent Events.
// ABOUTME: Each Session owns one connection and delivers open/progress/report/error/close as a single ordered channel.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/2389-research/accessdoc/sse"
	"github.com/google/uuid"
)

// Session is one analysis request in flight. Events are delivered on an
// unbuffered channel in server order; the channel is closed when the
// session's reader goroutine exits. A Close event is the last event of a
// naturally terminated session. After Close returns, no further events
// are delivered.
type Session struct {
	id     string
	target string

	events chan Event
	done   chan struct{}
	cancel context.CancelCauseFunc

	closeOnce sync.Once
	closed    atomic.Bool
}

func newSession(parent context.Context, target string) (*Session, context.Context) {
	ctx, cancel := context.WithCancelCause(parent)
	return &Session{
		id:     uuid.NewString(),
		target: target,
		events: make(chan Event),
		done:   make(chan struct{}),
		cancel: cancel,
	}, ctx
}

// ID returns the session's unique identifier. Every event carries it.
func (s *Session) ID() string { return s.id }

// Target returns the URL being analysed.
func (s *Session) Target() string { return s.target }

// Events returns the session's event channel.
func (s *Session) Events() <-chan Event { return s.events }

// Close tears the session down. It is idempotent and safe to call after
// the session has finished on its own.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		s.cancel(context.Canceled)
	})
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool { return s.closed.Load() }

// emit delivers evt unless the session has been closed. It returns false
// when the event was dropped.
func (s *Session) emit(evt Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	evt.SessionID = s.id
	evt.Time = time.Now()

	select {
	case s.events <- evt:
		return true
	case <-s.done:
		return false
	}
}

// fail reports a fatal error followed by Close, unless the owner already
// closed the session, in which case the failure is the expected result of
// that close and nothing is emitted.
func (s *Session) fail(err error) {
	if s.Closed() {
		return
	}
	if s.emit(Event{Kind: EventError, Err: err}) {
		s.emit(Event{Kind: EventClose})
	}
}

// Stream opens GET /analyze-stream for target and returns immediately. The
// caller is expected to have validated target already.
func (c *Client) Stream(ctx context.Context, target string) *Session {
	s, sctx := newSession(ctx, target)
	go c.runStream(sctx, s)
	return s
}

func (c *Client) runStream(ctx context.Context, s *Session) {
	defer close(s.events)
	defer s.cancel(nil)

	logger := c.logger.With("session", s.id[:8], "target", s.target)

	watchdog := newIdleWatchdog(c.idle, s.cancel)
	defer watchdog.stop()

	resp, err := c.openStream(ctx, s.target)
	if err != nil {
		logger.Debug("stream open failed", "err", err)
		s.fail(c.streamError(ctx, connectFailureMessage, err))
		return
	}
	defer resp.Body.Close()
	watchdog.stop()

	if !s.emit(Event{Kind: EventOpen}) {
		return
	}
	logger.Debug("stream open")

	parser := sse.NewParser(resp.Body)
	for {
		watchdog.reset()
		msg, err := parser.Next()
		watchdog.stop()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = errors.New("stream ended before a report was received")
			}
			logger.Debug("stream read failed", "err", err)
			s.fail(c.streamError(ctx, connectionLostMessage, err))
			return
		}

		if strings.TrimSpace(msg.Data) == "" {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(msg.Data), &rec); err != nil {
			logger.Warn("undecodable stream record", "err", err)
			s.fail(&DecodeError{Cause: err})
			return
		}

		switch rec.Type {
		case RecordProgress, RecordError:
			if !s.emit(Event{Kind: EventProgress, Record: rec}) {
				return
			}

		case RecordReport:
			if rec.Data == nil {
				s.fail(&DecodeError{Cause: errors.New(reportMissingDataMessage)})
				return
			}
			if !s.emit(Event{Kind: EventReport, Report: rec.Data}) {
				return
			}
			resp.Body.Close()
			s.emit(Event{Kind: EventClose})
			logger.Debug("stream finished with report", "scores", len(rec.Data.Scores))
			return

		default:
			logger.Debug("skipping record with unknown type", "type", rec.Type)
		}
	}
}

// openStream issues the SSE request and checks the response status.
func (c *Client) openStream(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/analyze-stream", url.Values{"url": {target}}), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, readServerError(resp)
	}
	return resp, nil
}

// streamError classifies a transport failure. Server errors pass through;
// an idle-timeout cancellation is reported as such.
func (c *Client) streamError(ctx context.Context, message string, err error) error {
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr
	}
	if errors.Is(context.Cause(ctx), ErrIdleTimeout) {
		return &ConnectionError{Message: idleTimeoutMessage, Cause: ErrIdleTimeout}
	}
	return &ConnectionError{Message: message, Cause: err}
}

// AnalyzeSession runs the non-streaming POST /analyze call behind the same
// Session contract: Open, then Report or Error, then Close.
func (c *Client) AnalyzeSession(ctx context.Context, target string) *Session {
	s, sctx := newSession(ctx, target)
	go func() {
		defer close(s.events)
		defer s.cancel(nil)

		if !s.emit(Event{Kind: EventOpen}) {
			return
		}
		report, err := c.Analyze(sctx, target)
		if err != nil {
			s.fail(err)
			return
		}
		if s.emit(Event{Kind: EventReport, Report: report}) {
			s.emit(Event{Kind: EventClose})
		}
	}()
	return s
}

// idleWatchdog cancels a stream when no record arrives within a window.
// It only runs while the client waits on the network; time spent blocked on
// a slow consumer does not count as idle.
type idleWatchdog struct {
	timer  *time.Timer
	window time.Duration
}

func newIdleWatchdog(window time.Duration, cancel context.CancelCauseFunc) *idleWatchdog {
	w := &idleWatchdog{window: window}
	if window > 0 {
		w.timer = time.AfterFunc(window, func() { cancel(ErrIdleTimeout) })
	}
	return w
}

func (w *idleWatchdog) reset() {
	if w.timer != nil {
		w.timer.Reset(w.window)
	}
}

func (w *idleWatchdog) stop() {
	if w.timer != nil {
		w.timer.Stop()
	}
}
