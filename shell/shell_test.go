// Copyright 2026 Roxy Light
// SPDX-License-Identifier: ISC

package shell

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"zombiezen.com/go/preg"
	"zombiezen.com/go/preg/engine"
	"zombiezen.com/go/sqlite"
)

func newShell(t *testing.T, opts *preg.Options) (sh *Shell, stdout, stderr *strings.Builder) {
	t.Helper()
	conn, err := sqlite.OpenConn("", sqlite.OpenMemory|sqlite.OpenReadWrite)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := conn.Close(); err != nil {
			t.Error(err)
		}
	})
	stdout = new(strings.Builder)
	stderr = new(strings.Builder)
	sh, err = New(conn, opts, stdout, stderr)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(sh.Close)
	return sh, stdout, stderr
}

func TestFeed(t *testing.T) {
	sh, stdout, stderr := newShell(t, nil)
	lines := []string{
		"CREATE TABLE t (s TEXT);",
		"INSERT INTO t VALUES ('tel 555-1234'), ('no digits');",
		"SELECT s,",
		`  preg_capture('/(\d+)-(\d+)/', s, 2)`,
		"FROM t ORDER BY rowid;",
		"SELECT 1; SELECT preg_rlike('/x/', 'xyz');",
	}
	var prompts []string
	for _, line := range lines {
		if sh.Feed(line) {
			t.Fatalf("Feed(%q) = true", line)
		}
		prompts = append(prompts, sh.Prompt())
	}
	want := "tel 555-1234|1234\nno digits|\n1\n1\n"
	if got := stdout.String(); got != want {
		t.Errorf("stdout = %q; want %q", got, want)
	}
	if got := stderr.String(); got != "" {
		t.Errorf("stderr = %q; want empty", got)
	}
	wantPrompts := []string{prompt, prompt, continuationPrompt, continuationPrompt, prompt, prompt}
	if diff := cmp.Diff(wantPrompts, prompts); diff != "" {
		t.Errorf("prompts (-want +got):\n%s", diff)
	}
}

func TestFeedError(t *testing.T) {
	sh, _, stderr := newShell(t, nil)
	sh.Feed("SELECT preg_rlike('/(/', 'a');")
	if got := stderr.String(); !strings.Contains(got, "Compilation failed") {
		t.Errorf("stderr = %q; want compile error", got)
	}
}

func TestCommands(t *testing.T) {
	tests := []struct {
		line   string
		opts   *preg.Options
		stdout string
		stderr string
		quit   bool
	}{
		{line: ".engine", stdout: "perl\n"},
		{line: ".engine", opts: &preg.Options{Engine: engine.RE2}, stdout: "re2\n"},
		{line: ".check /a+/i", stdout: "ok\n"},
		{line: ".check /a/q", stdout: "Compilation failed: Unknown modifier 'q' at offset 3\n"},
		{line: ".check", stderr: "usage: .check PATTERN\n"},
		{line: ".functions", stdout: "preg_check\npreg_rlike\npreg_capture\npreg_position\npreg_replace\n"},
		{line: ".help", stdout: helpText},
		{line: ".bogus", stderr: "unknown command .bogus\n"},
		{line: ".quit", quit: true},
	}
	for _, test := range tests {
		sh, stdout, stderr := newShell(t, test.opts)
		if quit := sh.Feed(test.line); quit != test.quit {
			t.Errorf("Feed(%q) = %t; want %t", test.line, quit, test.quit)
		}
		if got := stdout.String(); got != test.stdout {
			t.Errorf("Feed(%q) stdout = %q; want %q", test.line, got, test.stdout)
		}
		if got := stderr.String(); got != test.stderr {
			t.Errorf("Feed(%q) stderr = %q; want %q", test.line, got, test.stderr)
		}
	}
}

func TestSchema(t *testing.T) {
	sh, stdout, _ := newShell(t, nil)
	sh.Feed("CREATE TABLE t (s TEXT);")
	sh.Feed(".schema")
	if got, want := stdout.String(), "CREATE TABLE t (s TEXT);\n"; got != want {
		t.Errorf("stdout = %q; want %q", got, want)
	}
}
