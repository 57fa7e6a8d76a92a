// Copyright 2026 Roxy Light
// SPDX-License-Identifier: ISC

package preg

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts pattern compilations, engine failures and output buffer
// growth. A nil *Metrics counts nothing.
type Metrics struct {
	Compiles      *prometheus.CounterVec
	CompileErrors *prometheus.CounterVec
	ExecErrors    *prometheus.CounterVec
	OutputGrowths prometheus.Counter
}

// NewMetrics creates the preg counters and registers them with reg.
// A nil reg skips registration.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Compiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "preg",
			Name:      "compiles_total",
			Help:      "Patterns compiled, by engine.",
		}, []string{"engine"}),
		CompileErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "preg",
			Name:      "compile_errors_total",
			Help:      "Patterns that failed to compile, by engine.",
		}, []string{"engine"}),
		ExecErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "preg",
			Name:      "exec_errors_total",
			Help:      "Match attempts that failed with an engine error, by code.",
		}, []string{"code"}),
		OutputGrowths: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "preg",
			Name:      "output_buffer_growths_total",
			Help:      "Times a function output buffer was reallocated.",
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.Compiles, m.CompileErrors, m.ExecErrors, m.OutputGrowths} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) compiled(engine string) {
	if m != nil {
		m.Compiles.WithLabelValues(engine).Inc()
	}
}

func (m *Metrics) compileFailed(engine string) {
	if m != nil {
		m.CompileErrors.WithLabelValues(engine).Inc()
	}
}

func (m *Metrics) execFailed(rc int) {
	if m != nil {
		m.ExecErrors.WithLabelValues(strconv.Itoa(rc)).Inc()
	}
}

func (m *Metrics) grew() {
	if m != nil {
		m.OutputGrowths.Inc()
	}
}
