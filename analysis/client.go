// ABOUTME: HTTP client for the accessibility analysis service.
// ABOUTME: Provides the non-streaming POST /analyze call and shared request/response plumbing.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultBaseURL is where the analysis service listens by default.
const DefaultBaseURL = "http://localhost:8000"

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Config holds the settings for a Client.
type Config struct {
	BaseURL     string        // service root, default DefaultBaseURL
	HTTPClient  *http.Client  // must not set a Timeout; streams are long-lived
	IdleTimeout time.Duration // fail a stream after this long without a record; 0 disables
	Logger      *log.Logger   // nil discards
}

// Client talks to the analysis service over HTTP and SSE.
type Client struct {
	base   *url.URL
	http   *http.Client
	idle   time.Duration
	logger *log.Logger
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) (*Client, error) {
	raw := cfg.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", raw)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Client{
		base:   base,
		http:   httpClient,
		idle:   cfg.IdleTimeout,
		logger: logger,
	}, nil
}

// BaseURL returns the service root the client was configured with.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// endpoint joins path onto the base URL and attaches query.
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// Analyze runs a single request/response analysis of target. On a non-2xx
// response it returns a *ServerError carrying the server's message when one
// is present; transport failures come back as *ConnectionError.
func (c *Client) Analyze(ctx context.Context, target string) (*Report, error) {
	body, err := json.Marshal(Request{URL: target})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/analyze", nil), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("posting analysis request", "target", target)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ConnectionError{Message: connectFailureMessage, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serverErr := readServerError(resp)
		c.logger.Warn("analysis request failed", "target", target, "status", resp.StatusCode, "message", serverErr.Message)
		return nil, serverErr
	}

	var report Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, &DecodeError{Cause: err}
	}

	c.logger.Info("analysis complete", "target", target, "scores", len(report.Scores), "elapsed", time.Since(start).Round(time.Millisecond))
	return &report, nil
}

// readServerError builds a ServerError from a failed response. FastAPI-style
// {"detail": ...} bodies are recognised, as are {"error": ...} and
// {"message": ...}; anything else falls back to the status text.
func readServerError(resp *http.Response) *ServerError {
	serverErr := &ServerError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return serverErr
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return serverErr
	}

	for _, key := range []string{"detail", "error", "message"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			serverErr.Message = text
			return serverErr
		}
		// Validation errors arrive as structured detail; keep them compact.
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err == nil {
			serverErr.Message = compact.String()
			return serverErr
		}
	}

	return serverErr
}
