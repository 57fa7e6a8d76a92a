// Copyright 2026 Roxy Light
// SPDX-License-Identifier: ISC

// Package preg implements Perl-compatible regular expression functions for
// SQL query engines that call a scalar function once per row.
//
// A host calls [Init] once per query, then one of the row operations
// ([Func.Capture], [Func.Position], [Func.Match], [Func.Replace]) for every
// row, then [Func.Deinit]. When the pattern argument is constant for the
// query, it is compiled once in Init and reused for every row. Otherwise
// each row compiles its own pattern and releases it before returning.
//
// Patterns carry delimiters and trailing modifiers, as in "/fox/i".
// The supported modifiers are:
//
//	i  case-insensitive
//	m  ^ and $ match at line boundaries
//	s  . matches newline
//	x  ignore whitespace and # comments in the pattern
//	A  anchor the match at the search origin
//	D  $ matches only at the end of the subject
//	U  swap greedy and lazy quantifiers
//	u  UTF-8 subject (always assumed)
//	X  accepted for compatibility
//	S  accepted and ignored
//
// Not every engine supports every modifier; see package [engine].
package preg

import (
	"strconv"
	"time"

	"go.uber.org/zap"
	"zombiezen.com/go/preg/engine"
)

// Defaults for Options fields left as zero.
const (
	DefaultMatchTimeout  = 1 * time.Second
	DefaultOutputSize    = 1024000
	DefaultMaxOutputSize = 1 << 30
)

// Options configure pattern compilation and function evaluation.
// The zero value uses the Perl engine with default limits.
type Options struct {
	// Engine compiles patterns. Defaults to engine.Perl.
	Engine engine.Engine

	// MatchTimeout bounds every single match attempt.
	// Zero means DefaultMatchTimeout; negative means no bound.
	MatchTimeout time.Duration

	// DefaultOutputSize is the initial size of a function's output buffer
	// when the host does not declare a maximum result length.
	DefaultOutputSize int

	// MaxOutputSize is the largest result a function will produce.
	// Larger results are reported as ErrBufferGrowth.
	MaxOutputSize int

	// If StrictNull is true, Init fails for a constant NULL pattern instead
	// of making every row NULL.
	StrictNull bool

	// Logger receives engine diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger

	// Metrics, if not nil, counts compilations, errors and buffer growth.
	Metrics *Metrics
}

func (opts *Options) resolve() *Options {
	var o Options
	if opts != nil {
		o = *opts
	}
	if o.Engine == nil {
		o.Engine = engine.Perl
	}
	if o.MatchTimeout == 0 {
		o.MatchTimeout = DefaultMatchTimeout
	}
	if o.DefaultOutputSize <= 0 {
		o.DefaultOutputSize = DefaultOutputSize
	}
	if o.MaxOutputSize <= 0 {
		o.MaxOutputSize = DefaultMaxOutputSize
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return &o
}

func (o *Options) limits() engine.Limits {
	if o.MatchTimeout < 0 {
		return engine.Limits{}
	}
	return engine.Limits{MatchTimeout: o.MatchTimeout}
}

// ArgType is the declared type of a function argument.
type ArgType int

const (
	TypeText ArgType = 1 + iota
	TypeInt
	TypeReal
)

func (t ArgType) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeInt:
		return "integer"
	case TypeReal:
		return "real"
	default:
		return "ArgType(" + strconv.Itoa(int(t)) + ")"
	}
}

// Arg is one argument of a function call as supplied by the host.
type Arg struct {
	Type  ArgType
	Bytes []byte // value of a TypeText argument
	Int   int64  // value of a TypeInt argument
	Real  float64

	// Null is true for SQL NULL. The other value fields are ignored.
	Null bool

	// Constant is true if the value is the same for every row of the query.
	// It is only consulted by Init.
	Constant bool
}

// TextArg returns a text argument.
func TextArg(s string) Arg {
	return Arg{Type: TypeText, Bytes: []byte(s)}
}

// IntArg returns an integer argument.
func IntArg(n int64) Arg {
	return Arg{Type: TypeInt, Int: n}
}

// NullArg returns a NULL argument.
func NullArg() Arg {
	return Arg{Type: TypeText, Null: true}
}

// text returns the argument as text, converting numbers the way SQL casts do.
func (a *Arg) text() []byte {
	switch a.Type {
	case TypeInt:
		return strconv.AppendInt(nil, a.Int, 10)
	case TypeReal:
		return strconv.AppendFloat(nil, a.Real, 'g', -1, 64)
	default:
		return a.Bytes
	}
}

func (a *Arg) int() int64 {
	switch a.Type {
	case TypeInt:
		return a.Int
	case TypeReal:
		return int64(a.Real)
	default:
		n, _ := strconv.ParseInt(string(a.Bytes), 10, 64)
		return n
	}
}

// coerceText converts the argument to TypeText in place.
func (a *Arg) coerceText() {
	if a.Type == TypeText {
		return
	}
	if !a.Null {
		a.Bytes = a.text()
	}
	a.Type = TypeText
}

// optArg returns args[i] or nil if the argument was not passed.
func optArg(args []Arg, i int) *Arg {
	if i >= len(args) {
		return nil
	}
	return &args[i]
}

// Call describes the function invocation a host is initializing.
type Call struct {
	Args []Arg

	// MaxLength is the longest result the host will accept,
	// or zero if it does not say.
	MaxLength int

	// MaybeNull reports whether the host accepts NULL results.
	MaybeNull bool
}

// ResultKind tells a host what a row operation produced.
type ResultKind uint8

const (
	ResultValue ResultKind = iota
	ResultNull
	ResultError
)

func (k ResultKind) String() string {
	switch k {
	case ResultValue:
		return "value"
	case ResultNull:
		return "null"
	case ResultError:
		return "error"
	default:
		return "ResultKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Result is the outcome of one row operation.
type Result struct {
	Kind ResultKind

	// Value is the text result of Capture and Replace. It aliases the
	// function's output buffer and is only valid until the next row
	// operation or Deinit on the same Func.
	Value []byte

	// Int is the result of Match, Position and Check.
	Int int64

	// Err is set when Kind is ResultError. The host should abort the query.
	Err error

	nullable bool
}

// IsNull reports whether the host should store SQL NULL. Errors are reported
// as NULL when the host accepts NULL results.
func (r Result) IsNull() bool {
	return r.Kind == ResultNull || r.Kind == ResultError && r.nullable
}

// IsError reports whether the row failed.
func (r Result) IsError() bool {
	return r.Kind == ResultError
}

// Text returns a copy of the text value.
func (r Result) Text() string {
	return string(r.Value)
}

var nullResult = Result{Kind: ResultNull}

func intResult(n int64) Result {
	return Result{Kind: ResultValue, Int: n}
}
