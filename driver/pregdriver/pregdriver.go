// Copyright 2026 Roxy Light
// SPDX-License-Identifier: ISC

// Package pregdriver registers the preg functions with the modernc.org/sqlite
// database/sql driver, making them available on every connection opened with
// the "sqlite" driver name.
//
// The driver does not say whether an argument is constant, so every row
// compiles its own pattern. Call states are pooled between rows.
package pregdriver

import (
	"database/sql/driver"
	"fmt"
	"sync"
	"time"

	"modernc.org/sqlite"
	"zombiezen.com/go/preg"
	"zombiezen.com/go/preg/ext/pregfunc"
)

var (
	registerOnce sync.Once
	registerErr  error
)

// Register registers the preg functions with the driver. Registration is
// process-wide: only the first call has any effect, and its opts are used for
// all connections.
func Register(opts *preg.Options) error {
	registerOnce.Do(func() {
		registerErr = register(opts)
	})
	return registerErr
}

func register(opts *preg.Options) error {
	err := sqlite.RegisterDeterministicScalarFunction("preg_check", 1,
		func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			return toDriverValue(preg.Check(convertArg(args[0]), opts), false)
		})
	if err != nil {
		return fmt.Errorf("register preg_check: %w", err)
	}
	for _, def := range pregfunc.Functions {
		fn := &function{def: def, opts: opts}
		if err := sqlite.RegisterDeterministicScalarFunction(def.Name, -1, fn.call); err != nil {
			return fmt.Errorf("register %s: %w", def.Name, err)
		}
	}
	return nil
}

type function struct {
	def  pregfunc.Def
	pool sync.Pool // of *preg.Func
	opts *preg.Options
}

func (fn *function) call(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) < fn.def.MinArgs || len(args) > fn.def.MaxArgs {
		return nil, fmt.Errorf("%s: takes %d to %d arguments (got %d)",
			fn.def.Name, fn.def.MinArgs, fn.def.MaxArgs, len(args))
	}
	pargs := make([]preg.Arg, len(args))
	for i, v := range args {
		pargs[i] = convertArg(v)
	}
	f, _ := fn.pool.Get().(*preg.Func)
	if f == nil {
		var err error
		f, err = preg.Init(&preg.Call{Args: pargs}, fn.opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fn.def.Name, err)
		}
	}
	defer fn.pool.Put(f)
	return toDriverValue(fn.def.Op(f, pargs), fn.def.Text)
}

func convertArg(v driver.Value) preg.Arg {
	switch v := v.(type) {
	case nil:
		return preg.NullArg()
	case int64:
		return preg.IntArg(v)
	case float64:
		return preg.Arg{Type: preg.TypeReal, Real: v}
	case bool:
		if v {
			return preg.IntArg(1)
		}
		return preg.IntArg(0)
	case []byte:
		return preg.Arg{Type: preg.TypeText, Bytes: v}
	case string:
		return preg.TextArg(v)
	case time.Time:
		return preg.TextArg(v.Format(time.RFC3339Nano))
	default:
		return preg.TextArg(fmt.Sprint(v))
	}
}

func toDriverValue(res preg.Result, text bool) (driver.Value, error) {
	switch {
	case res.IsNull():
		return nil, nil
	case res.IsError():
		return nil, res.Err
	case text:
		return res.Text(), nil
	default:
		return res.Int, nil
	}
}

