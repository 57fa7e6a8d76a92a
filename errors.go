// Copyright 2026 Roxy Light
// SPDX-License-Identifier: ISC

package preg

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"zombiezen.com/go/preg/engine"
)

// MaxMessageLen is the longest diagnostic preg produces. SQL hosts display
// function errors in small fixed buffers.
const MaxMessageLen = 128

var (
	// ErrEmptyPattern is returned for a missing or zero-length pattern.
	ErrEmptyPattern = errors.New("Empty pattern")

	// ErrOutOfMemory is returned when a buffer would exceed its size limit.
	ErrOutOfMemory = errors.New("Out of memory")

	// ErrNullPattern is returned by Init for a constant NULL pattern when
	// Options.StrictNull is set.
	ErrNullPattern = errors.New("NULL pattern")

	// ErrIntrospection is returned when the engine cannot describe a
	// compiled pattern.
	ErrIntrospection = errors.New("preg: error retrieving information about pattern")

	// ErrGroupNotFound is returned when a named group is not in the pattern.
	ErrGroupNotFound = errors.New("preg: capture group not found")

	// ErrBufferGrowth is returned when a result is larger than
	// Options.MaxOutputSize.
	ErrBufferGrowth = errors.New("preg: out of memory reallocing return buffer")

	errDeinit = errors.New("preg: function used after Deinit")
)

// CompileError describes a pattern that could not be compiled.
type CompileError struct {
	// Offset is the byte offset into the pattern argument where the problem
	// was detected, or -1 if the engine did not say.
	Offset  int
	Message string
}

func (e *CompileError) Error() string {
	var msg string
	if e.Offset < 0 {
		msg = "Compilation failed: " + e.Message
	} else {
		msg = fmt.Sprintf("Compilation failed: %s at offset %d", e.Message, e.Offset)
	}
	return truncateMessage(msg)
}

// ExecError is an engine failure while matching, such as hitting the match
// limit. Code is one of the engine.Error* constants.
type ExecError struct {
	Code int
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("preg: match failed with error %d (%s)", e.Code, engine.ErrorString(e.Code))
}

// truncateMessage caps msg at MaxMessageLen bytes without splitting a
// UTF-8 sequence.
func truncateMessage(msg string) string {
	if len(msg) <= MaxMessageLen {
		return msg
	}
	n := MaxMessageLen
	for n > 0 && !utf8.RuneStart(msg[n]) {
		n--
	}
	return msg[:n]
}
