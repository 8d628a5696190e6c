// Package runner executes external build programs.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/execabs"
	"mvdan.cc/sh/v3/syntax"

	"github.com/goplus/ffbuild/internal/env"
)

// Command is one program invocation.
type Command struct {
	Name string
	Args []string
	// Env overrides variables of the inherited environment for this command only.
	Env map[string]string
	// Dir is the working directory. Empty means the current directory.
	Dir string
}

// Cmd builds a Command from a program name and its arguments.
func Cmd(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

// WithEnv returns a copy of c with key=value added to its environment.
func (c Command) WithEnv(key, value string) Command {
	m := make(map[string]string, len(c.Env)+1)
	for k, v := range c.Env {
		m[k] = v
	}
	m[key] = value
	c.Env = m
	return c
}

// String renders the command as a shell line.
func (c Command) String() string {
	words := make([]string, 0, len(c.Args)+1)
	words = append(words, quote(c.Name))
	for _, a := range c.Args {
		words = append(words, quote(a))
	}
	return strings.Join(words, " ")
}

func quote(s string) string {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return s
	}
	return q
}

// Runner runs commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExitError reports a command that could not start or exited non-zero.
type ExitError struct {
	Cmd    string
	Err    error
	Output string // tail of the combined output, only in quiet mode
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("run %s: %v", e.Cmd, e.Err)
	if e.Output != "" {
		msg += "\n" + e.Output
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

// tailSize bounds the output kept for ExitError in quiet mode.
const tailSize = 16 << 10

// Exec runs commands as child processes.
type Exec struct {
	// Quiet captures output instead of streaming it.
	Quiet  bool
	Stdout io.Writer
	Stderr io.Writer
	Logger *log.Logger
}

// Run implements Runner.
func (r *Exec) Run(ctx context.Context, c Command) error {
	if r.Logger != nil {
		r.Logger.Debug("exec", "cmd", c.String(), "dir", c.Dir)
	}
	cmd := execabs.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = env.Merge(os.Environ(), c.Env)
	}

	var tail *tailBuffer
	if r.Quiet {
		tail = &tailBuffer{max: tailSize}
		cmd.Stdout = tail
		cmd.Stderr = tail
	} else {
		cmd.Stdout = orDefault(r.Stdout, os.Stdout)
		cmd.Stderr = orDefault(r.Stderr, os.Stderr)
	}

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
		e := &ExitError{Cmd: c.String(), Err: err}
		if tail != nil {
			e.Output = tail.String()
		}
		return e
	}
	return nil
}

func orDefault(w, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	max int
	buf bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if len(p) >= t.max {
		t.buf.Reset()
		t.buf.Write(p[len(p)-t.max:])
		return n, nil
	}
	if over := t.buf.Len() + len(p) - t.max; over > 0 {
		t.buf.Next(over)
	}
	t.buf.Write(p)
	return n, nil
}

func (t *tailBuffer) String() string {
	return strings.TrimRight(t.buf.String(), "\n")
}
