// Copyright 2026 Roxy Light
// SPDX-License-Identifier: ISC

package preg

import (
	"go.uber.org/zap"
	"zombiezen.com/go/preg/engine"
)

// materialize moves a row's result into the output buffer.
//
// A negative n is an engine return code: it is logged and reported as an
// error. Otherwise s[:n] is copied into the buffer, which grows to exactly
// n+1 bytes when it is too small. A nil s with n >= 0 is an empty value,
// not NULL. The caller gives up s: it must not be used after this call.
func (f *Func) materialize(s []byte, n int) Result {
	f.out[0] = 0
	if n < 0 {
		return f.execFailed(n)
	}
	if s == nil {
		return Result{Kind: ResultValue, Value: f.out[:0]}
	}
	if n+1 > len(f.out) {
		if n+1 > f.opts.MaxOutputSize {
			f.opts.Logger.Error("out of memory reallocing return buffer",
				zap.Int("size", n+1),
				zap.Int("max", f.opts.MaxOutputSize))
			return Result{Kind: ResultError, Err: ErrBufferGrowth, nullable: f.maybeNull}
		}
		f.out = make([]byte, n+1)
		f.opts.Metrics.grew()
	}
	copy(f.out, s[:n])
	f.out[n] = 0
	return Result{Kind: ResultValue, Value: f.out[:n]}
}

// execFailed reports an engine return code as an error result.
func (f *Func) execFailed(rc int) Result {
	f.opts.Logger.Error("pattern match failed",
		zap.Int("code", rc),
		zap.String("diagnostic", engine.ErrorString(rc)),
		zap.String("engine", f.opts.Engine.Name()))
	f.opts.Metrics.execFailed(rc)
	return Result{Kind: ResultError, Err: &ExecError{Code: rc}, nullable: f.maybeNull}
}
