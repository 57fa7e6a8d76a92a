// Copyright 2026 Roxy Light
// SPDX-License-Identifier: ISC

package engine

import (
	"github.com/coregx/coregex/meta"
)

// RE2 is a linear-time engine with RE2 syntax. It has no backreferences or
// lookaround, and it cannot backtrack catastrophically, so Limits are not
// needed. Without the m modifier, $ matches only at the end of the subject,
// which is what the D modifier asks for.
//
// Exec with a nonzero start still sees the whole subject, so ^ and \b
// do not match at start unless they would at that offset of the full text.
var RE2 Engine = re2Engine{}

const re2Unsupported = Extended

type re2Engine struct{}

func (re2Engine) Name() string { return "re2" }

func (re2Engine) Compile(expr string, flags Flags) (Pattern, error) {
	if bad := flags & re2Unsupported; bad != 0 {
		return nil, unsupported("re2", bad)
	}
	var prefix []byte
	if flags&Caseless != 0 {
		prefix = append(prefix, 'i')
	}
	if flags&Multiline != 0 {
		prefix = append(prefix, 'm')
	}
	if flags&DotAll != 0 {
		prefix = append(prefix, 's')
	}
	if flags&Ungreedy != 0 {
		prefix = append(prefix, 'U')
	}
	if len(prefix) > 0 {
		expr = "(?" + string(prefix) + ")" + expr
	}
	re, err := meta.Compile(expr)
	if err != nil {
		return nil, &CompileError{Offset: -1, Message: err.Error()}
	}
	return &re2Pattern{
		re:       re,
		names:    re.SubexpNames(),
		anchored: flags&Anchored != 0,
	}, nil
}

type re2Pattern struct {
	re       *meta.Engine
	names    []string // names[0] is the whole match
	anchored bool
}

func (p *re2Pattern) CaptureCount() (int, error) {
	if p.re == nil {
		return 0, &CompileError{Offset: -1, Message: "pattern has been freed"}
	}
	return len(p.names) - 1, nil
}

func (p *re2Pattern) GroupIndex(name string) int {
	if p.re == nil {
		return ErrorBadMagic
	}
	for i, n := range p.names {
		if i > 0 && n == name {
			return i
		}
	}
	return ErrorNoSubstring
}

func (p *re2Pattern) Exec(subject []byte, start int, ovector []int, limits Limits) int {
	if p.re == nil {
		return ErrorBadMagic
	}
	if len(ovector) < 3 || start < 0 || start > len(subject) {
		return ErrorNull
	}
	m := p.re.FindSubmatchAt(subject, start)
	if m == nil {
		return ErrorNoMatch
	}
	if p.anchored {
		if loc := m.GroupIndex(0); len(loc) < 2 || loc[0] != start {
			return ErrorNoMatch
		}
	}
	pairs := fill(ovector)
	rc := 0
	for i := 0; i < m.NumCaptures(); i++ {
		loc := m.GroupIndex(i)
		if len(loc) < 2 || loc[0] < 0 {
			continue
		}
		if i >= pairs {
			return 0
		}
		ovector[2*i] = loc[0]
		ovector[2*i+1] = loc[1]
		rc = i + 1
	}
	return rc
}

func (p *re2Pattern) Free() {
	p.re = nil
	p.names = nil
}
