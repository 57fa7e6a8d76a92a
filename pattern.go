// Copyright 2026 Roxy Light
// SPDX-License-Identifier: ISC

package preg

import (
	"errors"
	"fmt"

	"zombiezen.com/go/preg/engine"
)

// Pattern is a compiled pattern. It belongs to the Func or row that compiled
// it and must not be used concurrently.
type Pattern struct {
	re     engine.Pattern
	engine string
	flags  engine.Flags
	freed  bool
}

// Compile compiles a delimited pattern such as "/fox/i".
// arg does not need to be NUL-terminated and is not retained.
//
// Compile returns ErrEmptyPattern for a nil or empty argument
// and a *CompileError for invalid delimiters, modifiers or syntax.
func Compile(arg []byte, opts *Options) (*Pattern, error) {
	o := opts.resolve()
	return compile(arg, o)
}

func compile(arg []byte, o *Options) (*Pattern, error) {
	if len(arg) == 0 {
		return nil, ErrEmptyPattern
	}
	expr, exprStart, flags, err := parseDelimited(string(arg))
	if err != nil {
		o.Metrics.compileFailed(o.Engine.Name())
		return nil, err
	}
	re, err := o.Engine.Compile(expr, flags)
	if err != nil {
		o.Metrics.compileFailed(o.Engine.Name())
		cerr := &CompileError{Offset: -1, Message: err.Error()}
		var eerr *engine.CompileError
		if errors.As(err, &eerr) {
			cerr.Message = eerr.Message
			if eerr.Offset >= 0 {
				cerr.Offset = exprStart + eerr.Offset
			}
		}
		return nil, cerr
	}
	o.Metrics.compiled(o.Engine.Name())
	return &Pattern{
		re:     re,
		engine: o.Engine.Name(),
		flags:  flags,
	}, nil
}

// Check reports whether pattern compiles: 1 if it does, 0 if it is empty or
// invalid, and NULL if it is NULL. Check never returns an error result.
func Check(pattern Arg, opts *Options) Result {
	if pattern.Null {
		return nullResult
	}
	p, err := Compile(pattern.text(), opts)
	if err != nil {
		return intResult(0)
	}
	p.Free()
	return intResult(1)
}

// CaptureCount returns the number of capture groups in the pattern.
func (p *Pattern) CaptureCount() (int, error) {
	if p.freed {
		return 0, errors.New("pattern has been freed")
	}
	return p.re.CaptureCount()
}

// Flags returns the modifiers the pattern was compiled with.
func (p *Pattern) Flags() engine.Flags {
	return p.flags
}

// Free releases the compiled pattern. Calling Free more than once or on a
// nil Pattern does nothing.
func (p *Pattern) Free() {
	if p == nil || p.freed {
		return
	}
	p.re.Free()
	p.freed = true
}

func (p *Pattern) exec(subject []byte, start int, scratch Scratch, limits engine.Limits) int {
	if p.freed {
		return engine.ErrorBadMagic
	}
	return p.re.Exec(subject, start, scratch, limits)
}

// parseDelimited splits a pattern argument into the expression between its
// delimiters and the flags of its trailing modifiers.
func parseDelimited(s string) (expr string, exprStart int, flags engine.Flags, err error) {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	if i == len(s) {
		return "", 0, 0, &CompileError{Offset: -1, Message: "Empty regular expression"}
	}
	delim := s[i]
	if isAlnum(delim) || delim == '\\' || delim == 0 {
		return "", 0, 0, &CompileError{Offset: i, Message: "Delimiter must not be alphanumeric or backslash"}
	}
	i++
	exprStart = i
	end := -1
	if closing, ok := bracketDelims[delim]; ok {
		depth := 1
	bracketLoop:
		for ; i < len(s); i++ {
			switch c := s[i]; {
			case c == '\\' && i+1 < len(s):
				i++
			case c == closing:
				depth--
				if depth == 0 {
					end = i
					break bracketLoop
				}
			case c == delim:
				depth++
			}
		}
		if end < 0 {
			return "", 0, 0, &CompileError{
				Offset:  len(s),
				Message: fmt.Sprintf("No ending matching delimiter '%c' found", closing),
			}
		}
	} else {
		for ; i < len(s); i++ {
			if s[i] == '\\' && i+1 < len(s) {
				i++
				continue
			}
			if s[i] == delim {
				end = i
				break
			}
		}
		if end < 0 {
			return "", 0, 0, &CompileError{
				Offset:  len(s),
				Message: fmt.Sprintf("No ending delimiter '%c' found", delim),
			}
		}
	}

	for j := end + 1; j < len(s); j++ {
		c := s[j]
		switch c {
		case ' ', '\n', '\r':
			continue
		case 'S':
			// Study is a compile hint with no counterpart here.
			continue
		}
		f, ok := engine.FlagForModifier(c)
		if !ok {
			return "", 0, 0, &CompileError{
				Offset:  j,
				Message: fmt.Sprintf("Unknown modifier '%c'", c),
			}
		}
		flags |= f
	}
	return s[exprStart:end], exprStart, flags, nil
}

var bracketDelims = map[byte]byte{
	'(': ')',
	'[': ']',
	'{': '}',
	'<': '>',
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isAlnum(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}
