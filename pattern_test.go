// Copyright 2026 Roxy Light
// SPDX-License-Identifier: ISC

package preg

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"zombiezen.com/go/preg/engine"
)

func TestParseDelimited(t *testing.T) {
	tests := []struct {
		s         string
		expr      string
		exprStart int
		flags     engine.Flags
	}{
		{"/fox/", "fox", 1, 0},
		{"/fox/i", "fox", 1, engine.Caseless},
		{"  #a#ms", "a", 3, engine.Multiline | engine.DotAll},
		{"/a/ S\n", "a", 1, 0},
		{`/a\/b/`, `a\/b`, 1, 0},
		{"{a{b}c}x", "a{b}c", 1, engine.Extended},
		{`(a\)b)`, `a\)b`, 1, 0},
		{"<a>A", "a", 1, engine.Anchored},
		{"~~", "", 1, 0},
	}
	for _, test := range tests {
		expr, exprStart, flags, err := parseDelimited(test.s)
		if err != nil {
			t.Errorf("parseDelimited(%q): %v", test.s, err)
			continue
		}
		if expr != test.expr || exprStart != test.exprStart || flags != test.flags {
			t.Errorf("parseDelimited(%q) = %q, %d, %q; want %q, %d, %q",
				test.s, expr, exprStart, flags, test.expr, test.exprStart, test.flags)
		}
	}
}

func TestParseDelimitedErrors(t *testing.T) {
	tests := []struct {
		s    string
		want *CompileError
	}{
		{"  ", &CompileError{Offset: -1, Message: "Empty regular expression"}},
		{"abc", &CompileError{Offset: 0, Message: "Delimiter must not be alphanumeric or backslash"}},
		{` \a\`, &CompileError{Offset: 1, Message: "Delimiter must not be alphanumeric or backslash"}},
		{"/abc", &CompileError{Offset: 4, Message: "No ending delimiter '/' found"}},
		{`/abc\/`, &CompileError{Offset: 6, Message: "No ending delimiter '/' found"}},
		{"(a(b)", &CompileError{Offset: 5, Message: "No ending matching delimiter ')' found"}},
		{"/a/iq", &CompileError{Offset: 4, Message: "Unknown modifier 'q'"}},
	}
	for _, test := range tests {
		_, _, _, err := parseDelimited(test.s)
		var got *CompileError
		if !errors.As(err, &got) {
			t.Errorf("parseDelimited(%q) error = %v; want *CompileError", test.s, err)
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("parseDelimited(%q) error (-want +got):\n%s", test.s, diff)
		}
	}
}

func TestCompile(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		for _, arg := range [][]byte{nil, {}} {
			if _, err := Compile(arg, nil); !errors.Is(err, ErrEmptyPattern) {
				t.Errorf("Compile(%q) error = %v; want %v", arg, err, ErrEmptyPattern)
			}
		}
	})
	t.Run("Syntax", func(t *testing.T) {
		_, err := Compile([]byte("/(/"), nil)
		var cerr *CompileError
		if !errors.As(err, &cerr) {
			t.Fatalf("Compile error = %v; want *CompileError", err)
		}
		if msg := cerr.Error(); !strings.HasPrefix(msg, "Compilation failed: ") {
			t.Errorf("Error() = %q; want \"Compilation failed: \" prefix", msg)
		}
	})
	t.Run("Flags", func(t *testing.T) {
		p, err := Compile([]byte("/fox/iu"), nil)
		if err != nil {
			t.Fatal(err)
		}
		defer p.Free()
		if got, want := p.Flags(), engine.Caseless|engine.UTF8; got != want {
			t.Errorf("Flags() = %q; want %q", got, want)
		}
	})
	t.Run("UnsupportedModifier", func(t *testing.T) {
		_, err := Compile([]byte("/a/x"), &Options{Engine: engine.RE2})
		var cerr *CompileError
		if !errors.As(err, &cerr) {
			t.Fatalf("Compile error = %v; want *CompileError", err)
		}
	})
}

func TestCompileErrorTruncated(t *testing.T) {
	e := &CompileError{Offset: 3, Message: strings.Repeat("é", 100)}
	msg := e.Error()
	if len(msg) > MaxMessageLen {
		t.Errorf("len(Error()) = %d; want <= %d", len(msg), MaxMessageLen)
	}
	if !strings.HasSuffix(msg, "é") {
		t.Errorf("Error() = %q; want to end on a whole character", msg)
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		pattern Arg
		want    Result
	}{
		{TextArg("/a+/"), intResult(1)},
		{TextArg("/(?<n>a)/i"), intResult(1)},
		{TextArg("/(/"), intResult(0)},
		{TextArg("a+"), intResult(0)},
		{TextArg(""), intResult(0)},
		{IntArg(5), intResult(0)},
		{NullArg(), nullResult},
	}
	for _, test := range tests {
		got := Check(test.pattern, nil)
		if diff := cmp.Diff(test.want, got, cmp.AllowUnexported(Result{})); diff != "" {
			t.Errorf("Check(%q) (-want +got):\n%s", test.pattern.Bytes, diff)
		}
	}
}

func TestCompileMetrics(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	opts := &Options{Metrics: m}
	for _, s := range []string{"/a/", "/b/", "/(/", "/c/z"} {
		if p, err := Compile([]byte(s), opts); err == nil {
			p.Free()
		}
	}
	if got := testutil.ToFloat64(m.Compiles.WithLabelValues("perl")); got != 2 {
		t.Errorf("compiles = %v; want 2", got)
	}
	if got := testutil.ToFloat64(m.CompileErrors.WithLabelValues("perl")); got != 2 {
		t.Errorf("compile errors = %v; want 2", got)
	}
}

func TestPatternFree(t *testing.T) {
	p, err := Compile([]byte("/a/"), nil)
	if err != nil {
		t.Fatal(err)
	}
	scratch, err := NewScratch(p)
	if err != nil {
		t.Fatal(err)
	}
	p.Free()
	p.Free()
	if got := p.exec([]byte("a"), 0, scratch, engine.Limits{}); got != engine.ErrorBadMagic {
		t.Errorf("exec after Free = %d; want %d", got, engine.ErrorBadMagic)
	}
	if _, err := NewScratch(p); !errors.Is(err, ErrIntrospection) {
		t.Errorf("NewScratch after Free error = %v; want %v", err, ErrIntrospection)
	}
	var nilPattern *Pattern
	nilPattern.Free()
}

func TestNewScratch(t *testing.T) {
	tests := []struct {
		s      string
		len    int
		groups int
	}{
		{"/abc/", 3, 1},
		{"/(a)bc/", 6, 2},
		{"/(a)(?<n>b)(c)/", 12, 4},
		{"/(?:a)(b)/", 6, 2},
	}
	for _, test := range tests {
		p, err := Compile([]byte(test.s), nil)
		if err != nil {
			t.Errorf("Compile(%q): %v", test.s, err)
			continue
		}
		scratch, err := NewScratch(p)
		if err != nil {
			t.Errorf("NewScratch(%q): %v", test.s, err)
		} else {
			if len(scratch) != test.len {
				t.Errorf("len(NewScratch(%q)) = %d; want %d", test.s, len(scratch), test.len)
			}
			if got := scratch.Groups(); got != test.groups {
				t.Errorf("NewScratch(%q).Groups() = %d; want %d", test.s, got, test.groups)
			}
		}
		p.Free()
	}
}

func TestCompileTwice(t *testing.T) {
	const pattern = `/(\d+)-(?<tail>\d+)/i`
	subject := []byte("a 1-2 b 33-44 c 555-666")
	for _, eng := range []engine.Engine{engine.Perl, engine.RE2} {
		t.Run(eng.Name(), func(t *testing.T) {
			opts := &Options{Engine: eng}
			walk := func(p *Pattern) []int {
				t.Helper()
				scratch, err := NewScratch(p)
				if err != nil {
					t.Fatal(err)
				}
				var got []int
				for n := 1; n <= 4; n++ {
					occ := Walk(p, subject, scratch, n, engine.Limits{})
					got = append(got, occ.RC, occ.Start)
					for i := 0; i < scratch.Groups(); i++ {
						start, end, _ := occ.Group(scratch, i)
						got = append(got, start, end)
					}
				}
				return got
			}

			once, err := Compile([]byte(pattern), opts)
			if err != nil {
				t.Fatal(err)
			}
			want := walk(once)
			once.Free()

			first, err := Compile([]byte(pattern), opts)
			if err != nil {
				t.Fatal(err)
			}
			second, err := Compile([]byte(pattern), opts)
			if err != nil {
				t.Fatal(err)
			}
			first.Free()
			defer second.Free()
			if diff := cmp.Diff(want, walk(second)); diff != "" {
				t.Errorf("Walk after freeing a twin (-want +got):\n%s", diff)
			}
		})
	}
}
