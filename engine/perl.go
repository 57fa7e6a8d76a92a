// Copyright 2026 Roxy Light
// SPDX-License-Identifier: ISC

package engine

import (
	"sort"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// Perl is a backtracking engine with Perl-compatible syntax, including
// lookaround, backreferences and named groups. It honors Limits.MatchTimeout.
//
// Named groups are numbered after unnamed groups, so in (a)(?<n>b)(c)
// the group "n" has index 3.
var Perl Engine = perlEngine{}

const perlUnsupported = DollarEndOnly | Ungreedy

type perlEngine struct{}

func (perlEngine) Name() string { return "perl" }

func (perlEngine) Compile(expr string, flags Flags) (Pattern, error) {
	if bad := flags & perlUnsupported; bad != 0 {
		return nil, unsupported("perl", bad)
	}
	opts := regexp2.None
	if flags&Caseless != 0 {
		opts |= regexp2.IgnoreCase
	}
	if flags&Multiline != 0 {
		opts |= regexp2.Multiline
	}
	if flags&DotAll != 0 {
		opts |= regexp2.Singleline
	}
	if flags&Extended != 0 {
		opts |= regexp2.IgnorePatternWhitespace
	}
	re, err := regexp2.Compile(expr, opts)
	if err != nil {
		return nil, &CompileError{Offset: -1, Message: err.Error()}
	}
	return &perlPattern{
		re:       re,
		groups:   re.GetGroupNumbers(),
		anchored: flags&Anchored != 0,
	}, nil
}

type perlPattern struct {
	re       *regexp2.Regexp
	groups   []int // group numbers in index order; groups[0] == 0
	anchored bool

	// Reused across Exec calls. src and srcLen identify the subject that
	// runes was decoded from.
	runes  []rune
	offs   []int // offs[k] is the byte offset of runes[k]
	src    *byte
	srcLen int
}

func (p *perlPattern) CaptureCount() (int, error) {
	if p.re == nil {
		return 0, &CompileError{Offset: -1, Message: "pattern has been freed"}
	}
	return len(p.groups) - 1, nil
}

func (p *perlPattern) GroupIndex(name string) int {
	if p.re == nil {
		return ErrorBadMagic
	}
	num := p.re.GroupNumberFromName(name)
	if num < 0 {
		return ErrorNoSubstring
	}
	for i, n := range p.groups {
		if n == num {
			return i
		}
	}
	return ErrorNoSubstring
}

func (p *perlPattern) Exec(subject []byte, start int, ovector []int, limits Limits) int {
	if p.re == nil {
		return ErrorBadMagic
	}
	if len(ovector) < 3 || start < 0 || start > len(subject) {
		return ErrorNull
	}
	if limits.MatchTimeout > 0 {
		p.re.MatchTimeout = limits.MatchTimeout
	} else {
		p.re.MatchTimeout = regexp2.DefaultMatchTimeout
	}
	if start == 0 || !p.decodedFrom(subject) {
		p.decode(subject)
	}
	startRune := sort.SearchInts(p.offs, start)
	m, err := p.re.FindRunesMatchStartingAt(p.runes, startRune)
	if err != nil {
		// regexp2 only fails a match when the timeout elapses.
		return ErrorMatchLimit
	}
	if m == nil {
		return ErrorNoMatch
	}
	if p.anchored && m.Index != startRune {
		return ErrorNoMatch
	}

	pairs := fill(ovector)
	rc := 0
	for i, num := range p.groups {
		g := m.GroupByNumber(num)
		if g == nil || len(g.Captures) == 0 {
			continue
		}
		if i >= pairs {
			return 0
		}
		ovector[2*i] = p.offs[g.Index]
		ovector[2*i+1] = p.offs[g.Index+g.Length]
		rc = i + 1
	}
	return rc
}

// decodedFrom reports whether the rune view was built from the same slice.
// A caller continuing a search with start > 0 must not have modified subject
// since the previous Exec.
func (p *perlPattern) decodedFrom(subject []byte) bool {
	return len(subject) > 0 && p.src == &subject[0] && p.srcLen == len(subject)
}

// decode splits subject into runes, remembering where each one starts.
// Invalid bytes decode to one utf8.RuneError each.
func (p *perlPattern) decode(subject []byte) {
	p.runes = p.runes[:0]
	p.offs = p.offs[:0]
	for i := 0; i < len(subject); {
		r, size := utf8.DecodeRune(subject[i:])
		p.runes = append(p.runes, r)
		p.offs = append(p.offs, i)
		i += size
	}
	p.offs = append(p.offs, len(subject))
	p.src = nil
	if len(subject) > 0 {
		p.src = &subject[0]
	}
	p.srcLen = len(subject)
}

func (p *perlPattern) Free() {
	p.re = nil
	p.groups = nil
	p.runes = nil
	p.offs = nil
	p.src = nil
}
