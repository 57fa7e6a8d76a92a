// Copyright 2026 Roxy Light
// SPDX-License-Identifier: ISC

// pregsh is an SQLite shell with the preg regular expression functions.
//
// Usage:
//
//	pregsh [flags] [DATABASE]
//
// Every flag can also be set with a PREG_ environment variable
// (for example PREG_ENGINE=re2) or in a file passed with --config.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"zombiezen.com/go/preg"
	"zombiezen.com/go/preg/engine"
	"zombiezen.com/go/preg/shell"
	"zombiezen.com/go/sqlite"
)

const programName = "pregsh"

func main() {
	cmd, err := newCommand(viper.New())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand(conf *viper.Viper) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:           programName + " [DATABASE]",
		Short:         "SQLite shell with Perl-compatible regular expression functions",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg := conf.GetString("config"); cfg != "" {
				conf.SetConfigFile(cfg)
				if err := conf.ReadInConfig(); err != nil {
					return fmt.Errorf("reading config: %w", err)
				}
			}
			dbName := ":memory:"
			if len(args) > 0 {
				dbName = args[0]
			}
			err := run(conf, dbName)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
			}
			return err
		},
	}

	addFlags(cmd.Flags())
	if err := conf.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}
	conf.AutomaticEnv()
	conf.SetEnvPrefix("PREG")
	return cmd, nil
}

func addFlags(flag *pflag.FlagSet) {
	flag.String("config", "", "Configuration file. Flags and environment variables take precedence.")
	flag.String("engine", "perl", "Regular expression engine, one of [perl, re2].")
	flag.Duration("match_timeout", preg.DefaultMatchTimeout, "Time limit for a single match attempt. Negative means no limit.")
	flag.Int("max_output", preg.DefaultMaxOutputSize, "Largest result in bytes a function may return.")
	flag.Bool("strict_null", false, "Fail statements whose constant pattern is NULL.")
	flag.String("log_level", "warn", "Log level, one of [debug, info, warn, error].")
}

// options builds preg.Options from the configuration.
func options(conf *viper.Viper, log *zap.Logger, metrics *preg.Metrics) (*preg.Options, error) {
	eng, ok := engine.ByName(conf.GetString("engine"))
	if !ok {
		return nil, fmt.Errorf("unknown engine %q", conf.GetString("engine"))
	}
	return &preg.Options{
		Engine:        eng,
		MatchTimeout:  conf.GetDuration("match_timeout"),
		MaxOutputSize: conf.GetInt("max_output"),
		StrictNull:    conf.GetBool("strict_null"),
		Logger:        log,
		Metrics:       metrics,
	}, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stderr), lvl)
	return zap.New(core).Named(programName), nil
}

func run(conf *viper.Viper, dbName string) error {
	log, err := newLogger(conf.GetString("log_level"))
	if err != nil {
		return err
	}
	defer log.Sync()

	reg := prometheus.NewRegistry()
	metrics, err := preg.NewMetrics(reg)
	if err != nil {
		return err
	}
	opts, err := options(conf, log, metrics)
	if err != nil {
		return err
	}

	conn, err := sqlite.OpenConn(dbName)
	if err != nil {
		return err
	}
	defer conn.Close()

	start := time.Now()
	err = shell.Run(conn, opts)
	logMetrics(log, reg, time.Since(start))
	return err
}

// logMetrics writes the session's counters at debug level.
func logMetrics(log *zap.Logger, reg prometheus.Gatherer, elapsed time.Duration) {
	if !log.Core().Enabled(zap.DebugLevel) {
		return
	}
	families, err := reg.Gather()
	if err != nil {
		log.Warn("gathering metrics", zap.Error(err))
		return
	}
	fields := []zap.Field{zap.Duration("elapsed", elapsed)}
	for _, mf := range families {
		var total float64
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		fields = append(fields, zap.Float64(mf.GetName(), total))
	}
	log.Debug("session metrics", fields...)
}
