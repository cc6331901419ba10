package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clock moves forward a minute every time it is read, so events recorded
// by one test have distinct times.
var clock = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func tick() time.Time {
	clock = clock.Add(time.Minute)
	return clock
}

// runApp runs bagr with args and returns stdout and the error.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := &app{
		stdout: &stdout,
		stderr: &stderr,
		now:    tick,
	}
	root := a.rootCmd()
	// an empty config file keeps the user's own config out of the tests
	cfg := filepath.Join(t.TempDir(), "config.toml")
	os.WriteFile(cfg, nil, 0644)
	root.SetArgs(append([]string{"--config", cfg, "--no-styles"}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func newPayload(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "data", "sub"), 0755)
	os.WriteFile(filepath.Join(dir, "data", "a.txt"), []byte("hello"), 0644)
	os.WriteFile(filepath.Join(dir, "data", "sub", "b.txt"), []byte("world"), 0644)
	return dir
}

func TestBagAndValidate(t *testing.T) {
	dir := newPayload(t)
	out, err := runApp(t, "bag", "-b", dir, "-a", "sha1,sha256", "--tag", "Contact-Name: Someone")
	if err != nil {
		t.Fatal(err)
	}
	var table = []string{"manifest-sha1.txt", "Contact-Name: Someone", "Payload-Oxum: 10.2", "Bagging-Date: 2024-01-01"}
	for _, s := range table {
		if !strings.Contains(out, s) {
			t.Errorf("bag output does not contain %q:\n%s", s, out)
		}
	}

	out, err = runApp(t, "validate", dir)
	if err != nil {
		t.Fatalf("Received %v\n%s", err, out)
	}
	if !strings.Contains(out, "VALID") {
		t.Errorf("Received\n%s", out)
	}

	os.WriteFile(filepath.Join(dir, "data", "a.txt"), []byte("HELLO"), 0644)
	out, err = runApp(t, "validate", "--json", "-b", dir)
	var ee *exitError
	if !errors.As(err, &ee) || ee.Code != exitInvalid {
		t.Errorf("Received %v, expected exit code %d", err, exitInvalid)
	}
	if !strings.Contains(out, `"valid":false`) {
		t.Errorf("Received\n%s", out)
	}

	out, err = runApp(t, "rebag", dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "1 modified") {
		t.Errorf("Received\n%s", out)
	}
	if _, err := runApp(t, "validate", dir); err != nil {
		t.Errorf("bag not valid after rebag: %v", err)
	}
}

func TestHistory(t *testing.T) {
	dir := newPayload(t)
	db := filepath.Join(t.TempDir(), "fixity.ql")
	if _, err := runApp(t, "--fixity-db", db, "bag", dir); err != nil {
		t.Fatal(err)
	}
	if _, err := runApp(t, "--fixity-db", db, "validate", dir); err != nil {
		t.Fatal(err)
	}
	out, err := runApp(t, "--fixity-db", db, "history", dir)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.Contains(lines[1], "validate") || !strings.Contains(lines[2], "bag") {
		t.Errorf("Received\n%s", out)
	}

	out, err = runApp(t, "--fixity-db", db, "info", dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Last:") || !strings.Contains(out, "validate") {
		t.Errorf("info does not show the last event:\n%s", out)
	}
}

func TestBadInput(t *testing.T) {
	var table = [][]string{
		{"bag", "-a", "crc32", t.TempDir()},
		{"bag", "--tag", "NoSeparator", t.TempDir()},
		{"bag", t.TempDir()},
		{"validate", t.TempDir()},
		{"info", t.TempDir()},
		{"history", t.TempDir()},
	}
	for _, args := range table {
		if _, err := runApp(t, args...); err == nil {
			t.Errorf("%v: received nil, expected error", args)
		}
	}
}

func TestParseTagFlag(t *testing.T) {
	label, value, err := parseTagFlag("External-Identifier: abc ")
	if err != nil || label != "External-Identifier" || value != "abc" {
		t.Errorf("Received %q %q %v", label, value, err)
	}
}
