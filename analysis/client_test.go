// ABOUTME: Tests for the non-streaming analysis call, URL validation, error messages and record helpers.
// ABOUTME: Uses httptest servers to exercise success, structured server errors and undecodable bodies.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient(Config{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", c.BaseURL(), DefaultBaseURL)
	}
}

func TestNewClientRejectsRelativeBase(t *testing.T) {
	if _, err := NewClient(Config{BaseURL: "localhost"}); err == nil {
		t.Fatal("expected error for relative base URL")
	}
}

func TestEndpointKeepsBasePath(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "https://api.example.com/v1/"})
	if err != nil {
		t.Fatal(err)
	}
	if got := c.endpoint("/analyze", nil); got != "https://api.example.com/v1/analyze" {
		t.Errorf("endpoint = %q", got)
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/analyze" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		fmt.Fprint(w, `{"scores":[{"category":"Keyboard","score":91,"feedback":"Great"},{"category":"ARIA","score":55,"feedback":"Meh"}],"implementation_plan":"## Steps"}`)
	}))
	defer srv.Close()

	report, err := newTestClient(t, srv.URL).Analyze(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got.URL != "https://example.com" {
		t.Errorf("request url = %q", got.URL)
	}
	if len(report.Scores) != 2 || report.Scores[1].Category != "ARIA" {
		t.Errorf("unexpected scores: %+v", report.Scores)
	}
	if report.ImplementationPlan != "## Steps" {
		t.Errorf("plan = %q", report.ImplementationPlan)
	}
}

func TestAnalyzeServerErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"detail string", 500, `{"detail":"Failed to scrape the website or critical content (HTML) is missing."}`, "Failed to scrape the website or critical content (HTML) is missing."},
		{"error key", 502, `{"error":"upstream down"}`, "upstream down"},
		{"message key", 400, `{"message":"bad url"}`, "bad url"},
		{"structured detail", 422, `{"detail": [ {"loc": ["body","url"], "msg": "field required"} ]}`, `[{"loc":["body","url"],"msg":"field required"}]`},
		{"plain text body", 500, "boom", "Internal Server Error"},
		{"empty body", 404, "", "Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv.URL).Analyze(context.Background(), "https://example.com")
			var serverErr *ServerError
			if !errors.As(err, &serverErr) {
				t.Fatalf("expected ServerError, got %T: %v", err, err)
			}
			if serverErr.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", serverErr.StatusCode, tt.status)
			}
			if UserMessage(err) != tt.wantMsg {
				t.Errorf("message = %q, want %q", UserMessage(err), tt.wantMsg)
			}
		})
	}
}

func TestAnalyzeUndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"scores": "nope"`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Analyze(context.Background(), "https://example.com")
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %T", err)
	}
	if decodeErr.Unwrap() == nil {
		t.Error("expected underlying cause")
	}
}

func TestAnalyzeTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := newTestClient(t, base).Analyze(context.Background(), "https://example.com")
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %T", err)
	}
	if connErr.Unwrap() == nil {
		t.Error("expected raw transport error as cause")
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		valid bool
	}{
		{"https://example.com", "https://example.com", true},
		{"  http://example.com/path?q=1  ", "http://example.com/path?q=1", true},
		{"HTTPS://EXAMPLE.COM", "HTTPS://EXAMPLE.COM", true},
		{"http://localhost:3000", "http://localhost:3000", true},
		{"not-a-url", "", false},
		{"", "", false},
		{"   ", "", false},
		{"example.com", "", false},
		{"/relative/path", "", false},
		{"ftp://example.com", "", false},
		{"https://", "", false},
		{"http://:8080", "", false},
		{"https://exa mple.com", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ValidateURL(tt.in)
			if tt.valid {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("got %q, want %q", got, tt.want)
				}
				return
			}
			if !errors.Is(err, ErrInvalidURL) {
				t.Errorf("expected ErrInvalidURL, got %v", err)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	wrapped := fmt.Errorf("submit: %w", ErrInvalidURL)
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{wrapped, invalidURLMessage},
		{&DecodeError{Cause: errors.New("unexpected token")}, decodeFailureMessage},
		{&ConnectionError{Message: connectionLostMessage, Cause: errors.New("EOF")}, connectionLostMessage},
		{&ServerError{StatusCode: 503}, "Service Unavailable"},
		{errors.New("other"), "other"},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestRecordHelpers(t *testing.T) {
	pct := func(v float64) *float64 { return &v }
	yes := true
	no := false

	tests := []struct {
		name      string
		rec       Record
		wantPct   int
		hasPct    bool
		wantFlags bool
	}{
		{"absent", Record{Type: RecordProgress}, 0, false, false},
		{"integer", Record{Type: RecordProgress, Progress: pct(45)}, 45, true, false},
		{"rounded", Record{Type: RecordProgress, Progress: pct(33.6)}, 34, true, false},
		{"clamped high", Record{Type: RecordProgress, Progress: pct(140)}, 100, true, false},
		{"clamped low", Record{Type: RecordProgress, Progress: pct(-3)}, 0, true, false},
		{"error flag", Record{Type: RecordProgress, Error: &yes}, 0, false, true},
		{"error flag false", Record{Type: RecordProgress, Error: &no}, 0, false, false},
		{"error type", Record{Type: RecordError}, 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.rec.Percent()
			if got != tt.wantPct || ok != tt.hasPct {
				t.Errorf("Percent() = %d, %v; want %d, %v", got, ok, tt.wantPct, tt.hasPct)
			}
			if tt.rec.Flagged() != tt.wantFlags {
				t.Errorf("Flagged() = %v, want %v", tt.rec.Flagged(), tt.wantFlags)
			}
		})
	}
}

func TestEventKindString(t *testing.T) {
	for kind, want := range map[EventKind]string{
		EventOpen: "open", EventProgress: "progress", EventReport: "report",
		EventError: "error", EventClose: "close", EventKind(42): "unknown",
	} {
		if kind.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(kind), kind.String(), want)
		}
	}
}
