// ABOUTME: Tests for the .env loader that reads KEY=VALUE pairs into the process environment.
// ABOUTME: Covers parsing rules, quoting, comments, no-clobber behavior and missing files.
package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// unsetForTest clears key for the duration of the test.
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestParseDotEnv(t *testing.T) {
	input := strings.Join([]string{
		"# comment",
		"",
		"PLAIN=hello",
		`DOUBLE="quoted value"`,
		`SINGLE='single quoted'`,
		"export EXPORTED=yes",
		"EQUALS=a=b=c",
		"  SPACED  =  padded  ",
		`MISMATCHED="open`,
		"NOEQUALS",
		"=novalue",
	}, "\n")

	vars, err := parseDotEnv(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseDotEnv: %v", err)
	}

	want := map[string]string{
		"PLAIN":      "hello",
		"DOUBLE":     "quoted value",
		"SINGLE":     "single quoted",
		"EXPORTED":   "yes",
		"EQUALS":     "a=b=c",
		"SPACED":     "padded",
		"MISMATCHED": `"open`,
	}
	if len(vars) != len(want) {
		t.Errorf("got %d vars, want %d: %v", len(vars), len(want), vars)
	}
	for k, v := range want {
		if vars[k] != v {
			t.Errorf("%s = %q, want %q", k, vars[k], v)
		}
	}
}

func TestLoadDotEnvSetsVariables(t *testing.T) {
	path := writeTempEnv(t, "TEST_DOTENV_A=hello\nTEST_DOTENV_B=world\n")
	unsetForTest(t, "TEST_DOTENV_A")
	unsetForTest(t, "TEST_DOTENV_B")

	if err := loadDotEnv(path); err != nil {
		t.Fatal(err)
	}

	if got := os.Getenv("TEST_DOTENV_A"); got != "hello" {
		t.Errorf("expected TEST_DOTENV_A=hello, got %q", got)
	}
	if got := os.Getenv("TEST_DOTENV_B"); got != "world" {
		t.Errorf("expected TEST_DOTENV_B=world, got %q", got)
	}
}

func TestLoadDotEnvDoesNotClobberExisting(t *testing.T) {
	path := writeTempEnv(t, "TEST_DOTENV_X=from_file")
	t.Setenv("TEST_DOTENV_X", "already_set")

	if err := loadDotEnv(path); err != nil {
		t.Fatal(err)
	}

	if got := os.Getenv("TEST_DOTENV_X"); got != "already_set" {
		t.Errorf("expected existing env var to be preserved, got %q", got)
	}
}

func TestLoadDotEnvMissingFileIsNoOp(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing file should not be an error: %v", err)
	}
}

func TestLoadDotEnvDirectoryIsError(t *testing.T) {
	if err := loadDotEnv(t.TempDir()); err == nil {
		t.Error("reading a directory should fail")
	}
}

func TestLoadDotEnvAutoFromWorkingDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TEST_DOTENV_AUTO=from_cwd\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	unsetForTest(t, "TEST_DOTENV_AUTO")
	t.Chdir(dir)

	loadDotEnvAuto()

	if got := os.Getenv("TEST_DOTENV_AUTO"); got != "from_cwd" {
		t.Errorf("expected TEST_DOTENV_AUTO=from_cwd, got %q", got)
	}
}

func TestLoadDotEnvAutoServerOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(envServer+"=http://dotenv:8000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	isolate(t)
	os.Unsetenv(envServer)
	t.Chdir(dir)

	loadDotEnvAuto()
	cfg, err := parseFlags(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.server != "http://dotenv:8000" {
		t.Errorf("server = %q, want the .env value", cfg.server)
	}
}
