// Copyright 2026 Roxy Light
// SPDX-License-Identifier: ISC

// Package shell provides a minimal SQLite REPL with the preg functions
// registered, similar to the sqlite3 command-line shell.
package shell

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/chzyer/readline"
	"go.uber.org/zap"
	"modernc.org/libc"
	lib "modernc.org/sqlite/lib"
	"zombiezen.com/go/preg"
	"zombiezen.com/go/preg/engine"
	"zombiezen.com/go/preg/ext/pregfunc"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const (
	prompt             = "preg> "
	continuationPrompt = "  ...> "
)

// Shell is a REPL session on one connection.
type Shell struct {
	conn   *sqlite.Conn
	opts   *preg.Options
	log    *zap.Logger
	tls    *libc.TLS
	stdout io.Writer
	stderr io.Writer

	sql string // statement text read so far
}

// New registers the preg functions on conn and returns a shell that writes
// results to stdout and errors to stderr. opts may be nil.
func New(conn *sqlite.Conn, opts *preg.Options, stdout, stderr io.Writer) (*Shell, error) {
	if err := pregfunc.Register(conn, opts); err != nil {
		return nil, fmt.Errorf("shell: %w", err)
	}
	log := zap.NewNop()
	if opts != nil && opts.Logger != nil {
		log = opts.Logger
	}
	return &Shell{
		conn:   conn,
		opts:   opts,
		log:    log,
		tls:    libc.NewTLS(),
		stdout: stdout,
		stderr: stderr,
	}, nil
}

// Close releases the shell's resources. It does not close the connection.
func (sh *Shell) Close() {
	sh.tls.Close()
}

// Run runs an interactive shell on the process's standard I/O.
func Run(conn *sqlite.Conn, opts *preg.Options) error {
	sh, err := New(conn, opts, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}
	defer sh.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt: prompt,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	if readline.DefaultIsTerminal() {
		fmt.Fprintf(sh.stdout, "SQLite version %s, %s engine\n", sqlite.Version, sh.engineName())
	}
	for {
		rl.SetPrompt(sh.Prompt())
		line, err := rl.Readline()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if sh.Feed(line) {
			return nil
		}
	}
}

// Prompt returns the prompt for the next line.
func (sh *Shell) Prompt() string {
	if len(sh.sql) > 0 {
		return continuationPrompt
	}
	return prompt
}

// Feed processes one line of input, running any statements it completes.
// It reports whether the user asked to quit.
func (sh *Shell) Feed(line string) (quit bool) {
	if len(sh.sql) == 0 && strings.HasPrefix(line, ".") {
		return sh.command(line)
	}
	line = strings.TrimLeftFunc(line, unicode.IsSpace)
	if line == "" {
		return false
	}
	sh.sql += line + "\n"
	if !strings.Contains(line, ";") {
		return false
	}
	for isCompleteStmt(sh.tls, sh.sql) {
		sh.sql = strings.TrimLeftFunc(sh.sql, unicode.IsSpace)
		if sh.sql == "" {
			break
		}
		stmt, trailingBytes, err := sh.conn.PrepareTransient(sh.sql)
		sh.sql = sh.sql[len(sh.sql)-trailingBytes:]
		if err != nil {
			fmt.Fprintln(sh.stderr, err)
			continue
		}
		sh.printRows(stmt)
		stmt.Finalize()
	}
	return false
}

func (sh *Shell) printRows(stmt *sqlite.Stmt) {
	for {
		hasData, err := stmt.Step()
		if err != nil {
			sh.log.Debug("statement failed", zap.Error(err))
			fmt.Fprintln(sh.stderr, err)
			return
		}
		if !hasData {
			return
		}
		row := new(strings.Builder)
		for i, n := 0, stmt.ColumnCount(); i < n; i++ {
			if i > 0 {
				row.WriteString("|")
			}
			switch stmt.ColumnType(i) {
			case sqlite.TypeInteger:
				fmt.Fprint(row, stmt.ColumnInt64(i))
			case sqlite.TypeFloat:
				fmt.Fprint(row, stmt.ColumnFloat(i))
			case sqlite.TypeBlob:
				buf := make([]byte, stmt.ColumnLen(i))
				stmt.ColumnBytes(i, buf)
				row.Write(buf)
			case sqlite.TypeText:
				row.WriteString(stmt.ColumnText(i))
			}
		}
		fmt.Fprintln(sh.stdout, row)
	}
}

func (sh *Shell) command(line string) (quit bool) {
	wordEnd := strings.IndexFunc(line, unicode.IsSpace)
	if wordEnd == -1 {
		wordEnd = len(line)
	}
	rest := strings.TrimSpace(line[wordEnd:])
	switch word := line[1:wordEnd]; word {
	case "schema":
		err := sqlitex.ExecuteTransient(sh.conn, `SELECT sql FROM sqlite_master;`, &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				fmt.Fprintln(sh.stdout, stmt.ColumnText(0)+";")
				return nil
			},
		})
		if err != nil {
			fmt.Fprintln(sh.stderr, err)
		}
	case "check":
		if rest == "" {
			fmt.Fprintln(sh.stderr, "usage: .check PATTERN")
			return false
		}
		res := preg.Check(preg.TextArg(rest), sh.opts)
		if res.Int == 1 {
			fmt.Fprintln(sh.stdout, "ok")
			return false
		}
		if _, err := preg.Compile([]byte(rest), sh.opts); err != nil {
			fmt.Fprintln(sh.stdout, err)
		}
	case "engine":
		fmt.Fprintln(sh.stdout, sh.engineName())
	case "functions":
		fmt.Fprintln(sh.stdout, "preg_check")
		for _, def := range pregfunc.Functions {
			fmt.Fprintln(sh.stdout, def.Name)
		}
	case "help":
		fmt.Fprint(sh.stdout, helpText)
	case "quit":
		return true
	default:
		fmt.Fprintf(sh.stderr, "unknown command .%s\n", word)
	}
	return false
}

const helpText = `.check PATTERN  report whether PATTERN compiles
.engine         show the regular expression engine
.functions      list the preg functions
.help           show this message
.quit           exit
.schema         show the database schema
`

func (sh *Shell) engineName() string {
	if sh.opts != nil && sh.opts.Engine != nil {
		return sh.opts.Engine.Name()
	}
	return engine.Perl.Name()
}

func isCompleteStmt(tls *libc.TLS, s string) bool {
	if s == "" {
		return true
	}
	c, err := libc.CString(s + ";")
	if err != nil {
		panic(err)
	}
	defer libc.Xfree(tls, c)
	return lib.Xsqlite3_complete(tls, c) != 0
}
