// Copyright 2026 Roxy Light
// SPDX-License-Identifier: ISC

// Package pregfunc registers the preg functions on a [zombiezen.com/go/sqlite]
// connection:
//
//	preg_check(pattern)
//	preg_rlike(pattern, subject)
//	preg_capture(pattern, subject [, group [, occurrence]])
//	preg_position(pattern, subject [, group [, occurrence]])
//	preg_replace(pattern, replacement, subject [, limit])
//
// A pattern that is the same for every row of a statement (a literal or a
// bound parameter) is compiled once and kept as SQLite auxiliary data.
package pregfunc

import (
	"fmt"
	"runtime"

	"zombiezen.com/go/preg"
	"zombiezen.com/go/sqlite"
)

// Register registers the preg functions on the given connection.
// opts may be nil.
func Register(c *sqlite.Conn, opts *preg.Options) error {
	if err := c.CreateFunction("preg_check", &sqlite.FunctionImpl{
		NArgs:         1,
		Deterministic: true,
		AllowIndirect: true,
		Scalar: func(ctx sqlite.Context, args []sqlite.Value) (sqlite.Value, error) {
			res := preg.Check(convertArg(args[0]), opts)
			return toValue(res, false)
		},
	}); err != nil {
		return err
	}
	for _, def := range Functions {
		fn := &function{def: def, opts: opts}
		err := c.CreateFunction(def.Name, &sqlite.FunctionImpl{
			NArgs:         -1,
			Deterministic: true,
			AllowIndirect: true,
			Scalar:        fn.call,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Def describes one row function.
type Def struct {
	Name    string
	MinArgs int
	MaxArgs int
	// Text is true if the function returns text, false for an integer.
	Text bool
	Op   func(f *preg.Func, args []preg.Arg) preg.Result
}

// Functions lists the row functions Register installs besides preg_check.
var Functions = []Def{
	{Name: "preg_rlike", MinArgs: 2, MaxArgs: 2, Op: (*preg.Func).Match},
	{Name: "preg_capture", MinArgs: 2, MaxArgs: 4, Text: true, Op: (*preg.Func).Capture},
	{Name: "preg_position", MinArgs: 2, MaxArgs: 4, Op: (*preg.Func).Position},
	{Name: "preg_replace", MinArgs: 3, MaxArgs: 4, Text: true, Op: (*preg.Func).Replace},
}

// function is the state of one registered row function on one connection.
// Its row Func is released once the connection drops the function.
type function struct {
	def  Def
	opts *preg.Options

	// row evaluates calls whose pattern is not known to be constant.
	// Created on first use.
	row *preg.Func
}

// constFunc holds the Func of a constant pattern in SQLite auxiliary data.
// SQLite discards auxiliary data without calling back into this package,
// so the Func is released when its holder becomes unreachable.
type constFunc struct {
	f *preg.Func
}

func newConstFunc(f *preg.Func) *constFunc {
	h := &constFunc{f: f}
	runtime.AddCleanup(h, (*preg.Func).Deinit, f)
	return h
}

// seenPattern marks a pattern argument that has been evaluated once.
// If SQLite still has the marker on the next call, the argument is constant.
type seenPattern struct{}

func (fn *function) call(ctx sqlite.Context, args []sqlite.Value) (sqlite.Value, error) {
	if len(args) < fn.def.MinArgs || len(args) > fn.def.MaxArgs {
		return sqlite.Value{}, fmt.Errorf("%s: takes %d to %d arguments (got %d)",
			fn.def.Name, fn.def.MinArgs, fn.def.MaxArgs, len(args))
	}
	pargs := make([]preg.Arg, len(args))
	for i, v := range args {
		pargs[i] = convertArg(v)
	}

	var f *preg.Func
	switch aux := ctx.AuxData(0).(type) {
	case *constFunc:
		f = aux.f
		defer runtime.KeepAlive(aux)
	case seenPattern:
		pargs[0].Constant = true
		var err error
		f, err = preg.Init(&preg.Call{Args: pargs}, fn.opts)
		if err != nil {
			return sqlite.Value{}, fmt.Errorf("%s: %w", fn.def.Name, err)
		}
		// SQLite may drop the holder during SetAuxData.
		h := newConstFunc(f)
		defer runtime.KeepAlive(h)
		ctx.SetAuxData(0, h)
	default:
		if fn.row == nil {
			var err error
			fn.row, err = preg.Init(&preg.Call{Args: pargs}, fn.opts)
			if err != nil {
				return sqlite.Value{}, fmt.Errorf("%s: %w", fn.def.Name, err)
			}
			runtime.AddCleanup(fn, (*preg.Func).Deinit, fn.row)
		}
		f = fn.row
		ctx.SetAuxData(0, seenPattern{})
	}
	return toValue(fn.def.Op(f, pargs), fn.def.Text)
}

func convertArg(v sqlite.Value) preg.Arg {
	switch v.Type() {
	case sqlite.TypeNull:
		return preg.NullArg()
	case sqlite.TypeInteger:
		return preg.IntArg(v.Int64())
	case sqlite.TypeFloat:
		return preg.Arg{Type: preg.TypeReal, Real: v.Float()}
	case sqlite.TypeBlob:
		return preg.Arg{Type: preg.TypeText, Bytes: v.Blob()}
	default:
		return preg.TextArg(v.Text())
	}
}

func toValue(res preg.Result, text bool) (sqlite.Value, error) {
	switch {
	case res.IsNull():
		return sqlite.Value{}, nil
	case res.IsError():
		return sqlite.Value{}, res.Err
	case text:
		return sqlite.TextValue(res.Text()), nil
	default:
		return sqlite.IntegerValue(res.Int), nil
	}
}
