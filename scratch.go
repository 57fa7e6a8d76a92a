// Copyright 2026 Roxy Light
// SPDX-License-Identifier: ISC

package preg

import "fmt"

// MaxCaptureGroups is the largest number of capture groups a pattern may
// have before NewScratch refuses to size a scratch area for it.
const MaxCaptureGroups = 65535

// Scratch is the offset vector an engine writes match boundaries into.
// The first two thirds hold start/end pairs, one per group starting with the
// whole match; the last third is reserved for the engine.
type Scratch []int

// NewScratch allocates a scratch area for p with room for
// 3*(p.CaptureCount()+1) integers.
func NewScratch(p *Pattern) (Scratch, error) {
	n, err := p.CaptureCount()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntrospection, err)
	}
	if n < 0 || n > MaxCaptureGroups {
		return nil, fmt.Errorf("preg: %d capture groups: %w", n, ErrOutOfMemory)
	}
	return make(Scratch, 3*(n+1)), nil
}

// Groups returns the number of groups the scratch area can hold,
// including the whole match.
func (s Scratch) Groups() int {
	return len(s) / 3
}
