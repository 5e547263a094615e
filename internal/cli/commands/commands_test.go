package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// runCommand executes a slice command with the given args and stdin.
func runCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewSliceCommand()
	cmd.AddCommand(NewDetectCommand(), NewValidateCommand(), NewVersionCommand())

	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

const levelLogs = `{"level":"info","msg":"started","timestamp":"2024-01-01T09:00:00Z"}
{"level":"error","msg":"boom","timestamp":"2024-01-01T09:00:01Z"}
{"level":"warn","msg":"slow","timestamp":"2024-01-01T09:00:02Z"}
{"level":"error","msg":"again","timestamp":"2024-01-01T09:00:03Z"}
`

func TestNewSliceCommand(t *testing.T) {
	cmd := NewSliceCommand()

	flags := []string{
		"config", "input", "output", "select", "contains", "regex", "field", "equals",
		"since", "until", "time-field", "head", "tail", "stats", "stats-field",
		"stats-format", "top", "follow", "merge", "color", "verbose", "log-level", "log-file",
	}
	for _, flag := range flags {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("Missing flag: %s", flag)
		}
	}
}

func TestNewValidateCommand(t *testing.T) {
	cmd := NewValidateCommand()

	if cmd.Use != "validate <profile-file>" {
		t.Errorf("Unexpected Use: %s", cmd.Use)
	}
	if !strings.Contains(cmd.Long, "Validate") {
		t.Error("Missing description in Long")
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := runCommand(t, "", "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if stdout != "logslice dev\n" {
		t.Errorf("version output = %q", stdout)
	}
}

func TestSlice_Stdin(t *testing.T) {
	stdout, _, err := runCommand(t, "hello\nerror: boom\nok\n", "--contains", "error")
	if err != nil {
		t.Fatalf("slice failed: %v", err)
	}
	if stdout != "error: boom\n" {
		t.Errorf("output = %q, want %q", stdout, "error: boom\n")
	}
}

func TestSlice_StdinDash(t *testing.T) {
	stdout, _, err := runCommand(t, "a\nb\n", "-")
	if err != nil {
		t.Fatalf("slice failed: %v", err)
	}
	if stdout != "a\nb\n" {
		t.Errorf("output = %q", stdout)
	}
}

func TestSlice_FieldEquals(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.log", levelLogs)

	stdout, _, err := runCommand(t, "", "--field", "level", "--equals", "error", "--output", "field", path)
	if err != nil {
		t.Fatalf("slice failed: %v", err)
	}
	if stdout != "error\nerror\n" {
		t.Errorf("output = %q", stdout)
	}
}

func TestSlice_SelectNDJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.log", levelLogs)

	stdout, _, err := runCommand(t, "", "--head", "1", "--output", "ndjson", "--select", "msg,level,missing.key", path)
	if err != nil {
		t.Fatalf("slice failed: %v", err)
	}
	want := `{"msg":"started","level":"info","missing_key":null}` + "\n"
	if stdout != want {
		t.Errorf("output = %q, want %q", stdout, want)
	}
}

func TestSlice_HeadTail(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.log", levelLogs)

	stdout, _, err := runCommand(t, "", "--head", "3", "--tail", "1", "--output", "field", "--field", "msg", path)
	if err != nil {
		t.Fatalf("slice failed: %v", err)
	}
	if stdout != "slow\n" {
		t.Errorf("output = %q, want slow", stdout)
	}
}

func TestSlice_Stats(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.log", levelLogs)

	stdout, stderr, err := runCommand(t, "", "--stats", "--field", "level", "--output", "field", path)
	if err != nil {
		t.Fatalf("slice failed: %v", err)
	}
	if stdout != "info\nerror\nwarn\nerror\n" {
		t.Errorf("stdout = %q", stdout)
	}

	want := "seen: 4\nmatched: 4\ntop values for field 'level':\n" +
		"       2  error\n       1  info\n       1  warn\n"
	if stderr != want {
		t.Errorf("stderr =\n%s\nwant\n%s", stderr, want)
	}
}

func TestSlice_StatsJSON(t *testing.T) {
	stdout, stderr, err := runCommand(t, "a\nb\n", "--stats", "--stats-format", "json", "--contains", "a")
	if err != nil {
		t.Fatalf("slice failed: %v", err)
	}
	if stdout != "a\n" {
		t.Errorf("stdout = %q", stdout)
	}
	if !strings.Contains(stderr, `"matched": 1`) || !strings.Contains(stderr, `"seen": 2`) {
		t.Errorf("stderr = %s", stderr)
	}
}

func TestSlice_Merge(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.log", `{"timestamp":"2024-01-01T09:00:00Z","msg":"a1"}
{"timestamp":"2024-01-01T09:00:02Z","msg":"a2"}
`)
	b := writeFile(t, dir, "b.log", `{"timestamp":"2024-01-01T09:00:01Z","msg":"b1"}
{"timestamp":"2024-01-01T09:00:03Z","msg":"b2"}
`)

	stdout, _, err := runCommand(t, "", "--merge", "--output", "field", "--field", "msg", a, b)
	if err != nil {
		t.Fatalf("slice failed: %v", err)
	}
	if stdout != "a1\nb1\na2\nb2\n" {
		t.Errorf("output = %q", stdout)
	}

	stdout, _, err = runCommand(t, "", "--output", "field", "--field", "msg", a, b)
	if err != nil {
		t.Fatalf("slice failed: %v", err)
	}
	if stdout != "a1\na2\nb1\nb2\n" {
		t.Errorf("sequential output = %q", stdout)
	}
}

func TestSlice_Glob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "logs/a.log", "one\n")
	writeFile(t, dir, "logs/sub/b.log", "two\n")
	writeFile(t, dir, "logs/c.txt", "skip\n")

	stdout, _, err := runCommand(t, "", filepath.Join(dir, "logs", "**", "*.log"))
	if err != nil {
		t.Fatalf("slice failed: %v", err)
	}
	if stdout != "one\ntwo\n" {
		t.Errorf("output = %q", stdout)
	}
}

func TestSlice_Profile(t *testing.T) {
	dir := t.TempDir()
	logPath := writeFile(t, dir, "app.log", levelLogs)
	profile := writeFile(t, dir, "profile.yaml", `sources:
  - `+logPath+`
output: field
filter:
  field: level
  equals: error
`)

	stdout, _, err := runCommand(t, "", "--config", profile)
	if err != nil {
		t.Fatalf("slice failed: %v", err)
	}
	if stdout != "error\nerror\n" {
		t.Errorf("output = %q", stdout)
	}

	// Explicit flags override the profile
	stdout, _, err = runCommand(t, "", "--config", profile, "--equals", "warn")
	if err != nil {
		t.Fatalf("slice failed: %v", err)
	}
	if stdout != "warn\n" {
		t.Errorf("output with override = %q", stdout)
	}
}

func TestSlice_FlagsCompleteProfile(t *testing.T) {
	dir := t.TempDir()
	logPath := writeFile(t, dir, "app.log", levelLogs)
	profile := writeFile(t, dir, "profile.yaml", "output: field\n")

	stdout, _, err := runCommand(t, "", "--config", profile, "--field", "msg", logPath)
	if err != nil {
		t.Fatalf("slice failed: %v", err)
	}
	if stdout != "started\nboom\nslow\nagain\n" {
		t.Errorf("output = %q", stdout)
	}
}

// lockedBuffer is a bytes.Buffer safe to read while a command writes to it.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSlice_FollowStatsOnCancel(t *testing.T) {
	dir := t.TempDir()
	logPath := writeFile(t, dir, "app.log", "a\nb\n")
	profile := writeFile(t, dir, "profile.yaml", "follow: true\n")

	cmd := NewSliceCommand()
	var stdout, stderr lockedBuffer
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--config", profile, "--stats", logPath})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	deadline := time.Now().Add(10 * time.Second)
	for stdout.String() != "a\nb\n" {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("followed output = %q, want both lines", stdout.String())
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("follow ended with error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("follow did not stop after cancellation")
	}

	if !strings.Contains(stderr.String(), "matched: 2") {
		t.Errorf("stats = %q, want matched: 2", stderr.String())
	}
}

func TestSlice_EnvironmentOverridesProfile(t *testing.T) {
	t.Setenv("LOGSLICE_TIME_FIELD", "ts")

	dir := t.TempDir()
	logPath := writeFile(t, dir, "app.log", `{"ts":"2024-01-01T09:00:00Z","msg":"early"}
{"ts":"2024-01-01T10:00:00Z","msg":"late"}
`)
	profile := writeFile(t, dir, "profile.yaml", "filter:\n  time_field: other\n")

	stdout, _, err := runCommand(t, "", "--config", profile, "--since", "2024-01-01T09:30:00Z", logPath)
	if err != nil {
		t.Fatalf("slice failed: %v", err)
	}
	if !strings.Contains(stdout, "late") || strings.Contains(stdout, "early") {
		t.Errorf("output = %q, want only the late record", stdout)
	}
}

func TestSlice_ConfigurationErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.log", "x\n")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"bad regex", []string{"-r", "[unclosed", path}, "invalid regex"},
		{"bad since", []string{"--since", "yesterday", path}, "since"},
		{"field output without field", []string{"--output", "field", path}, "--field"},
		{"bad input", []string{"--input", "xml", path}, "input"},
		{"negative head", []string{"--head", "-1", path}, "head"},
		{"follow with tail", []string{"--follow", "--tail", "3", path}, "tail"},
		{"follow with stdin", []string{"--follow"}, "exactly one"},
		{"missing file", []string{filepath.Join(dir, "missing.log")}, "not found"},
		{"directory", []string{dir}, "directory"},
		{"bad log level", []string{"--log-level", "loud", path}, "log level"},
		{"bad stats format", []string{"--stats", "--stats-format", "xml", path}, "stats"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := runCommand(t, "", tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to mention %q", err, tt.wantErr)
			}
			if stdout != "" {
				t.Errorf("stdout = %q, want nothing written before the error", stdout)
			}
		})
	}
}

func TestSlice_LogFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "app.log", "{bad\n{\"ok\":true}\n")
	logFile := filepath.Join(dir, "diag", "logslice.log")

	stdout, _, err := runCommand(t, "", "--input", "json", "--log-level", "debug", "--log-file", logFile, path)
	if err != nil {
		t.Fatalf("slice failed: %v", err)
	}
	if stdout != "{\"ok\":true}\n" {
		t.Errorf("output = %q", stdout)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("reading diagnostic log: %v", err)
	}
	if !strings.Contains(string(data), "skipping line") {
		t.Errorf("diagnostic log missing skipped line entry:\n%s", data)
	}
}

func TestRunValidate_Success(t *testing.T) {
	dir := t.TempDir()
	logPath := writeFile(t, dir, "test.log", "test log\n")
	configPath := writeFile(t, dir, "profile.yaml", `sources:
  - `+logPath+`
input: json
filter:
  field: level
  contains: err
  since: "2024-01-01T00:00:00Z"
head: 10
stats:
  enabled: true
`)

	stdout, _, err := runCommand(t, "", "validate", configPath)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	for _, want := range []string{"Profile valid!", "Input:   json", `field level contains "err"`, "timestamp >= 2024-01-01T00:00:00Z", "Head:    10", "Sources matched: 1"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := writeFile(t, dir, "invalid.yaml", "filter:\n  regex: '[oops'\n")

	_, _, err := runCommand(t, "", "validate", configPath)
	if err == nil {
		t.Error("Expected error for invalid profile")
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	_, _, err := runCommand(t, "", "validate", "/nonexistent/profile.yaml")
	if err == nil {
		t.Error("Expected error for missing file")
	}
}
