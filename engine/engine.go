// Copyright 2026 Roxy Light
// SPDX-License-Identifier: ISC

// Package engine defines the boundary between preg and the regular expression
// engines it delegates matching to.
//
// Return codes from [Pattern.Exec] follow the PCRE convention: a positive
// value is one more than the highest capture group that was set, zero means
// the offset vector was too small, and negative values are the Error*
// constants below.
package engine

import (
	"fmt"
	"time"
)

// Flags are the compile options decoded from a pattern's trailing modifiers.
type Flags uint32

const (
	Caseless      Flags = 1 << iota // i
	Multiline                       // m
	DotAll                          // s
	Extended                        // x
	Anchored                        // A
	DollarEndOnly                   // D
	Ungreedy                        // U
	UTF8                            // u
	Extra                           // X
)

var flagLetters = []struct {
	flag   Flags
	letter byte
}{
	{Caseless, 'i'},
	{Multiline, 'm'},
	{DotAll, 's'},
	{Extended, 'x'},
	{Anchored, 'A'},
	{DollarEndOnly, 'D'},
	{Ungreedy, 'U'},
	{UTF8, 'u'},
	{Extra, 'X'},
}

// FlagForModifier returns the flag for a modifier letter.
func FlagForModifier(c byte) (Flags, bool) {
	for _, fl := range flagLetters {
		if fl.letter == c {
			return fl.flag, true
		}
	}
	return 0, false
}

// String returns the modifier letters for the set flags.
func (f Flags) String() string {
	var buf []byte
	for _, fl := range flagLetters {
		if f&fl.flag != 0 {
			buf = append(buf, fl.letter)
		}
	}
	return string(buf)
}

// Exec return codes.
const (
	ErrorNoMatch        = -1
	ErrorNull           = -2
	ErrorBadOption      = -3
	ErrorBadMagic       = -4
	ErrorNoMemory       = -6
	ErrorNoSubstring    = -7
	ErrorMatchLimit     = -8
	ErrorInternal       = -14
	ErrorRecursionLimit = -21
)

// ErrorString returns a human-readable description of an Exec return code.
func ErrorString(rc int) string {
	switch {
	case rc > 0:
		return "match"
	case rc == 0:
		return "offset vector too small"
	}
	switch rc {
	case ErrorNoMatch:
		return "no match"
	case ErrorNull:
		return "missing subject or offset vector"
	case ErrorBadOption:
		return "unrecognized option"
	case ErrorBadMagic:
		return "pattern has been freed"
	case ErrorNoMemory:
		return "out of memory"
	case ErrorNoSubstring:
		return "no such capture group"
	case ErrorMatchLimit:
		return "match limit exceeded"
	case ErrorInternal:
		return "internal engine error"
	case ErrorRecursionLimit:
		return "recursion limit exceeded"
	default:
		return fmt.Sprintf("unknown error %d", rc)
	}
}

// Limits bound the work a single Exec call may do.
type Limits struct {
	// MatchTimeout caps the wall time of one match attempt.
	// Zero or negative means no limit.
	MatchTimeout time.Duration
}

// An Engine compiles regular expressions.
type Engine interface {
	// Name is a short identifier such as "perl".
	Name() string

	// Compile compiles expr, the text between a pattern's delimiters.
	// Failures are reported as *CompileError.
	Compile(expr string, flags Flags) (Pattern, error)
}

// A Pattern is a compiled regular expression.
// A Pattern is not safe for concurrent use.
type Pattern interface {
	// CaptureCount returns the number of capture groups, not counting the
	// whole match.
	CaptureCount() (int, error)

	// GroupIndex returns the index of the named group
	// or ErrorNoSubstring if there is none.
	GroupIndex(name string) int

	// Exec runs one match attempt against subject, searching from the byte
	// offset start. On a match, ovector[2*i] and ovector[2*i+1] hold the
	// byte offsets of group i within subject, or -1 if the group did not
	// participate. Only the first two thirds of ovector are used for offsets.
	//
	// A search from start > 0 still sees the whole subject, so assertions
	// like ^ and \b look at the bytes before start. Engines may keep state
	// from the previous call made with the same subject slice, so the caller
	// must not modify subject between calls that continue a search.
	Exec(subject []byte, start int, ovector []int, limits Limits) int

	// Free releases the pattern. Exec on a freed pattern returns
	// ErrorBadMagic.
	Free()
}

// CompileError describes a pattern that an engine refused.
type CompileError struct {
	// Offset is the byte offset into the expression where the error was
	// detected, or -1 if unknown.
	Offset  int
	Message string
}

func (e *CompileError) Error() string {
	if e.Offset < 0 {
		return e.Message
	}
	return fmt.Sprintf("%s at offset %d", e.Message, e.Offset)
}

func unsupported(eng string, f Flags) *CompileError {
	return &CompileError{
		Offset:  -1,
		Message: fmt.Sprintf("modifier %q not supported by %s engine", f.String(), eng),
	}
}

// fill sets every offset pair in ovector to -1.
func fill(ovector []int) int {
	pairs := len(ovector) / 3
	for i := 0; i < 2*pairs; i++ {
		ovector[i] = -1
	}
	return pairs
}

// ByName returns the engine with the given name: "perl" or "re2".
func ByName(name string) (Engine, bool) {
	switch name {
	case "perl", "pcre", "":
		return Perl, true
	case "re2":
		return RE2, true
	default:
		return nil, false
	}
}
