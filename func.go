// Copyright 2026 Roxy Light
// SPDX-License-Identifier: ISC

package preg

import (
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"
	"zombiezen.com/go/preg/engine"
)

// Func is the state of one function call site for the duration of a query.
// It is created by Init and released by Deinit. A Func must only be used by
// one goroutine at a time.
type Func struct {
	opts      *Options
	maybeNull bool

	// constant is true when the pattern was fixed at Init.
	// pattern is nil for a constant NULL pattern.
	constant bool
	pattern  *Pattern
	scratch  Scratch

	// out is the output buffer; len(out) is its capacity.
	out  []byte
	work []byte
}

// Init prepares a function call site. The first two arguments (pattern and
// subject) are converted to text in place. If the pattern argument is a
// non-NULL constant it is compiled now; compilation errors are returned and
// the host should abort the query. Messages of errors returned by Init are at
// most MaxMessageLen bytes long.
func Init(call *Call, opts *Options) (*Func, error) {
	f := &Func{
		opts:      opts.resolve(),
		maybeNull: call.MaybeNull,
	}
	for i := 0; i < 2 && i < len(call.Args); i++ {
		call.Args[i].coerceText()
	}
	if len(call.Args) > 0 && call.Args[0].Constant {
		f.constant = true
		arg := &call.Args[0]
		if arg.Null {
			if f.opts.StrictNull {
				return nil, ErrNullPattern
			}
		} else {
			p, err := compile(arg.Bytes, f.opts)
			if err != nil {
				return nil, err
			}
			f.pattern = p
			f.scratch, err = NewScratch(p)
			if err != nil {
				f.Deinit()
				return nil, err
			}
		}
	}

	size := f.opts.DefaultOutputSize
	if call.MaxLength > 0 {
		size = call.MaxLength + 1
	}
	if size > f.opts.MaxOutputSize {
		f.Deinit()
		return nil, ErrOutOfMemory
	}
	f.out = make([]byte, size)
	return f, nil
}

// Deinit releases the compiled pattern and the output buffer.
// It is safe to call on a nil Func and to call more than once.
func (f *Func) Deinit() {
	if f == nil {
		return
	}
	if f.pattern != nil {
		f.pattern.Free()
		f.pattern = nil
	}
	f.scratch = nil
	f.out = nil
	f.work = nil
}

// Constant reports whether the pattern was compiled once at Init.
func (f *Func) Constant() bool {
	return f.constant
}

// rowPattern is the pattern a single row matches with.
type rowPattern struct {
	p         *Pattern
	scratch   Scratch
	transient bool
}

func (rp rowPattern) release() {
	if rp.transient {
		rp.p.Free()
	}
}

// acquire returns the pattern for a row: the constant pattern, or one
// compiled from the row's pattern argument that the caller must release.
// A NULL pattern gives a rowPattern with a nil p.
func (f *Func) acquire(args []Arg) (rowPattern, error) {
	if f.out == nil {
		return rowPattern{}, errDeinit
	}
	if f.constant {
		return rowPattern{p: f.pattern, scratch: f.scratch}, nil
	}
	if len(args) == 0 {
		return rowPattern{}, ErrEmptyPattern
	}
	if args[0].Null {
		return rowPattern{}, nil
	}
	p, err := compile(args[0].text(), f.opts)
	if err != nil {
		return rowPattern{}, err
	}
	scratch, err := NewScratch(p)
	if err != nil {
		p.Free()
		return rowPattern{}, err
	}
	return rowPattern{p: p, scratch: scratch, transient: true}, nil
}

func (f *Func) fail(err error) Result {
	f.opts.Logger.Error("preg function failed", zap.Error(err))
	return Result{Kind: ResultError, Err: err, nullable: f.maybeNull}
}

// Match reports whether the pattern matches the subject (preg_rlike).
// Arguments: pattern, subject.
func (f *Func) Match(args []Arg) Result {
	rp, err := f.acquire(args)
	if err != nil {
		return f.fail(err)
	}
	defer rp.release()
	if rp.p == nil || len(args) < 2 || args[1].Null {
		return nullResult
	}
	occ := Walk(rp.p, args[1].text(), rp.scratch, 1, f.opts.limits())
	switch {
	case occ.Found():
		return intResult(1)
	case occ.RC == engine.ErrorNoMatch:
		return intResult(0)
	default:
		return f.execFailed(occ.RC)
	}
}

// Capture returns the text of a capture group in the nth match of the
// pattern (preg_capture). Arguments: pattern, subject, and optionally a group
// (index or name, default 0) and an occurrence (default 1).
// The result is NULL if there is no such match, the group did not take part
// in it, or a named group does not exist.
func (f *Func) Capture(args []Arg) Result {
	rp, err := f.acquire(args)
	if err != nil {
		return f.fail(err)
	}
	defer rp.release()
	if rp.p == nil || len(args) < 2 || args[1].Null {
		return nullResult
	}
	subject := args[1].text()
	start, end, res, ok := f.find(rp, subject, args)
	if !ok {
		return res
	}
	return f.materialize(subject[start:end], end-start)
}

// Position returns the 1-based character position of a capture group in the
// nth match of the pattern (preg_position). It takes the same arguments as
// Capture and is NULL in the same cases.
func (f *Func) Position(args []Arg) Result {
	rp, err := f.acquire(args)
	if err != nil {
		return f.fail(err)
	}
	defer rp.release()
	if rp.p == nil || len(args) < 2 || args[1].Null {
		return nullResult
	}
	subject := args[1].text()
	start, _, res, ok := f.find(rp, subject, args)
	if !ok {
		return res
	}
	return intResult(int64(utf8.RuneCount(subject[:start])) + 1)
}

// find walks to the occurrence named by args[3] and locates the group named
// by args[2]. If there is nothing to extract, ok is false and res is the
// result to report.
func (f *Func) find(rp rowPattern, subject []byte, args []Arg) (start, end int, res Result, ok bool) {
	group, err := ResolveGroup(rp.p, optArg(args, 2), f.opts.Logger)
	if err != nil {
		return -1, -1, nullResult, false
	}
	n := 1
	if a := optArg(args, 3); a != nil && !a.Null {
		n = int(a.int())
	}
	occ := Walk(rp.p, subject, rp.scratch, n, f.opts.limits())
	if !occ.Found() {
		if occ.RC == engine.ErrorNoMatch {
			return -1, -1, nullResult, false
		}
		return -1, -1, f.execFailed(occ.RC), false
	}
	if group < 0 || group >= rp.scratch.Groups() {
		return -1, -1, f.execFailed(engine.ErrorNoSubstring), false
	}
	start, end, ok = occ.Group(rp.scratch, group)
	if !ok {
		return -1, -1, nullResult, false
	}
	return start, end, Result{}, true
}

// Replace replaces matches of the pattern in the subject (preg_replace).
// Arguments: pattern, replacement, subject, and optionally a limit on the
// number of replacements (default -1, meaning all). The replacement may refer
// to groups as $n, ${n} or \n.
func (f *Func) Replace(args []Arg) Result {
	rp, err := f.acquire(args)
	if err != nil {
		return f.fail(err)
	}
	defer rp.release()
	if rp.p == nil || len(args) < 3 || args[1].Null || args[2].Null {
		return nullResult
	}
	repl := args[1].text()
	subject := args[2].text()
	limit := -1
	if a := optArg(args, 3); a != nil && !a.Null {
		limit = int(a.int())
	}

	limits := f.opts.limits()
	buf := f.work[:0]
	offset := 0
	for n := 0; limit < 0 || n < limit; n++ {
		if offset > len(subject) {
			break
		}
		rc := rp.p.exec(subject, offset, rp.scratch, limits)
		if rc == engine.ErrorNoMatch {
			break
		}
		if rc <= 0 {
			f.work = buf
			return f.execFailed(rc)
		}
		ms, me := rp.scratch[0], rp.scratch[1]
		buf = append(buf, subject[offset:ms]...)
		buf = expandReplacement(buf, repl, subject, rp.scratch, rc)
		if me > ms {
			offset = me
			continue
		}
		// Empty match: keep the next character and search after it.
		if ms >= len(subject) {
			offset = len(subject) + 1
			break
		}
		_, size := utf8.DecodeRune(subject[ms:])
		buf = append(buf, subject[ms:ms+size]...)
		offset = ms + size
	}
	if offset < len(subject) {
		buf = append(buf, subject[offset:]...)
	}
	f.work = buf
	return f.materialize(buf, len(buf))
}

// expandReplacement appends repl to dst, substituting group references.
func expandReplacement(dst, repl, subject []byte, scratch Scratch, rc int) []byte {
	for i := 0; i < len(repl); i++ {
		c := repl[i]
		if (c == '$' || c == '\\') && i+1 < len(repl) {
			if g, width, ok := parseGroupRef(repl[i+1:], c == '$'); ok {
				if g < rc && scratch[2*g] >= 0 {
					dst = append(dst, subject[scratch[2*g]:scratch[2*g+1]]...)
				}
				i += width
				continue
			}
			if c == '\\' && repl[i+1] == '\\' {
				dst = append(dst, '\\')
				i++
				continue
			}
		}
		dst = append(dst, c)
	}
	return dst
}

// parseGroupRef parses the one or two digits after $ or \.
// With braces, ${nn} is accepted too.
func parseGroupRef(b []byte, braces bool) (group, width int, ok bool) {
	i := 0
	if braces && len(b) > 0 && b[0] == '{' {
		i = 1
	}
	start := i
	for i < len(b) && i-start < 2 && '0' <= b[i] && b[i] <= '9' {
		group = group*10 + int(b[i]-'0')
		i++
	}
	if i == start {
		return 0, 0, false
	}
	if start == 1 {
		if i >= len(b) || b[i] != '}' {
			return 0, 0, false
		}
		i++
	}
	return group, i, true
}

// String returns a description of the call site for logging.
func (f *Func) String() string {
	if f.pattern != nil {
		return fmt.Sprintf("preg.Func{engine: %s, constant: true, flags: %q}", f.pattern.engine, f.pattern.flags)
	}
	return fmt.Sprintf("preg.Func{constant: %t}", f.constant)
}
