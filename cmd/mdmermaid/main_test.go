package main

// Notes:
// - run is the testable entry point; main only adds signal handling and
//   os.Exit.

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRun - Command Dispatch
// ---------------------------------------------------------------------------

func TestRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{name: "no args", args: nil, wantCode: ExitUsage, wantStderr: "Usage: mdmermaid <command>"},
		{name: "version", args: []string{"version"}, wantCode: ExitSuccess, wantStdout: "mdmermaid " + Version},
		{name: "version flag", args: []string{"--version"}, wantCode: ExitSuccess, wantStdout: "mdmermaid " + Version},
		{name: "help", args: []string{"help"}, wantCode: ExitSuccess, wantStdout: "Commands:"},
		{name: "help flag", args: []string{"-h"}, wantCode: ExitSuccess, wantStdout: "Commands:"},
		{name: "help convert", args: []string{"help", "convert"}, wantCode: ExitSuccess, wantStdout: "Usage: mdmermaid convert"},
		{name: "help doctor", args: []string{"help", "doctor"}, wantCode: ExitSuccess, wantStdout: "Usage: mdmermaid doctor"},
		{name: "help completion", args: []string{"help", "completion"}, wantCode: ExitSuccess, wantStdout: "Usage: mdmermaid completion"},
		{name: "help version", args: []string{"help", "version"}, wantCode: ExitSuccess, wantStdout: "Usage: mdmermaid version"},
		{name: "help unknown", args: []string{"help", "bogus"}, wantCode: ExitSuccess, wantStderr: "Unknown command: bogus"},
		{name: "completion", args: []string{"completion", "fish"}, wantCode: ExitSuccess, wantStdout: "complete -c mdmermaid"},
		{name: "completion bad shell", args: []string{"completion", "tcsh"}, wantCode: ExitUsage, wantStderr: "unsupported shell"},
		{name: "convert missing file", args: []string{"convert", "/no/such/doc.md"}, wantCode: ExitIO},
		{name: "bare input missing", args: []string{"/no/such/doc.md"}, wantCode: ExitIO},
		{name: "convert bad flag", args: []string{"convert", "--bogus"}, wantCode: ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := testEnv(&recordingRenderer{})
			if code := run(context.Background(), tt.args, env); code != tt.wantCode {
				t.Errorf("run(%v) = %d, want %d\nstderr: %s", tt.args, code, tt.wantCode, stderr.String())
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want to contain %q", stdout.String(), tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want to contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestRun_ConvertWithoutCommandName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := writeFile(t, filepath.Join(dir, "doc.md"), diagramDoc)

	env, stdout, stderr := testEnv(&recordingRenderer{})
	if code := run(context.Background(), []string{input, "-q"}, env); code != ExitSuccess {
		t.Fatalf("run() = %d, want %d\nstderr: %s", code, ExitSuccess, stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("quiet run printed %q", stdout.String())
	}
	readFile(t, filepath.Join(dir, "doc.html"))
}
