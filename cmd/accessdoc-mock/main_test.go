// ABOUTME: Tests for the accessdoc-mock entrypoint covering flag parsing, validation and a serve/shutdown cycle.
// ABOUTME: The server is started on an ephemeral port and stopped with SIGINT.
package main

import (
	"bytes"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestParseFlagsDefaults(t *testing.T) {
	var out bytes.Buffer
	cfg, err := parseFlags(nil, &out)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.addr != "127.0.0.1:8000" {
		t.Errorf("addr = %q", cfg.addr)
	}
	if cfg.delay != 400*time.Millisecond {
		t.Errorf("delay = %v", cfg.delay)
	}
	if cfg.fail != "" || cfg.accessLog || cfg.showVersion {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestParseFlagsAll(t *testing.T) {
	var out bytes.Buffer
	cfg, err := parseFlags([]string{"-addr", ":9999", "-delay", "0", "-fail", "drop", "-access-log", "-log-level", "debug"}, &out)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.addr != ":9999" || cfg.delay != 0 || cfg.fail != "drop" || !cfg.accessLog || cfg.logLevel != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestParseFlagsRejectsArguments(t *testing.T) {
	var out bytes.Buffer
	if _, err := parseFlags([]string{"extra"}, &out); err == nil {
		t.Error("expected an error for positional arguments")
	}
	if !strings.Contains(out.String(), "Usage: accessdoc-mock") {
		t.Errorf("usage not printed: %q", out.String())
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		cfg  config
	}{
		{"bad fail mode", config{addr: "127.0.0.1:0", fail: "explode", logLevel: "info"}},
		{"bad log level", config{addr: "127.0.0.1:0", logLevel: "shouty"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if code := run(tt.cfg, &stderr); code != 2 {
				t.Errorf("exit code = %d, want 2", code)
			}
			if !strings.HasPrefix(stderr.String(), "error: ") {
				t.Errorf("stderr = %q", stderr.String())
			}
		})
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func TestRunServesAndShutsDown(t *testing.T) {
	addr := freeAddr(t)
	var stderr bytes.Buffer
	done := make(chan int, 1)
	go func() { done <- run(config{addr: addr, logLevel: "error"}, &stderr) }()

	url := fmt.Sprintf("http://%s/", addr)
	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never came up: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
		t.Fatal(err)
	}
	select {
	case code := <-done:
		if code != 0 {
			t.Errorf("exit code = %d, stderr: %s", code, stderr.String())
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
