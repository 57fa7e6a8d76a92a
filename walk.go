// Copyright 2026 Roxy Light
// SPDX-License-Identifier: ISC

package preg

import "zombiezen.com/go/preg/engine"

// Occurrence is the result of Walk.
type Occurrence struct {
	// Base is the subject offset the last successful attempt searched from.
	// Offsets in the scratch area are relative to it.
	Base int

	// Start is the subject offset of the last successful match,
	// or -1 if no attempt succeeded.
	Start int

	// RC is the engine return code of the last attempt.
	RC int
}

// Found reports whether the requested occurrence was reached.
func (o Occurrence) Found() bool {
	return o.RC > 0
}

// Group returns the subject offsets of group i of the found occurrence.
// ok is false if the group did not take part in the match.
func (o Occurrence) Group(scratch Scratch, i int) (start, end int, ok bool) {
	if i < 0 || i >= scratch.Groups() || i >= o.RC {
		return -1, -1, false
	}
	if scratch[2*i] < 0 {
		return -1, -1, false
	}
	return o.Base + scratch[2*i], o.Base + scratch[2*i+1], true
}

// Walk finds the nth non-overlapping match of p in subject, counting from 1.
//
// Each attempt searches the part of the subject after the previous match as
// if it were a whole subject, and the next attempt starts where the previous
// match ended. Walk stops early when an attempt does not match or fails, so
// Start always refers to the last successful attempt while RC describes the
// last attempt made. For n <= 0 no attempt is made and RC is
// engine.ErrorNoMatch.
func Walk(p *Pattern, subject []byte, scratch Scratch, n int, limits engine.Limits) Occurrence {
	occ := Occurrence{Start: -1, RC: engine.ErrorNoMatch}
	offset := 0
	for ; n > 0 && offset <= len(subject); n-- {
		rc := p.exec(subject[offset:], 0, scratch, limits)
		occ.RC = rc
		if rc <= 0 {
			break
		}
		occ.Base = offset
		occ.Start = offset + scratch[0]
		offset += scratch[1]
	}
	return occ
}
