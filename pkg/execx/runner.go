package execx

import (
	"bytes"
	"context"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Runner executes invocations. A non-zero exit status is reported through Result.ExitCode;
// the error is reserved for commands that could not be run at all.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (*Result, error)
}

// ShellRunner runs commands through the mvdan.cc/sh interpreter which behaves the same on
// every platform we build on.
type ShellRunner struct {
	// Stdout and Stderr receive a copy of the command output if set
	Stdout io.Writer
	Stderr io.Writer
}

// NewShellRunner returns a runner which streams command output to the given writers
func NewShellRunner(stdout, stderr io.Writer) *ShellRunner {
	return &ShellRunner{Stdout: stdout, Stderr: stderr}
}

var defaultOpenHandler = interp.DefaultOpenHandler()

func openHandler(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	if path == "/dev/null" {
		path = os.DevNull
	}

	return defaultOpenHandler(ctx, path, flag, perm)
}

func tee(buffer *bytes.Buffer, extra io.Writer) io.Writer {
	if extra == nil {
		return buffer
	}

	return io.MultiWriter(buffer, extra)
}

// Run implements Runner
func (s *ShellRunner) Run(ctx context.Context, inv Invocation) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file := &syntax.File{
		Name:  inv.Name,
		Stmts: []*syntax.Stmt{{Cmd: inv.Call()}},
	}

	var stdout, stderr bytes.Buffer
	var err error
	dir := inv.Dir
	if dir == "" {
		dir, err = os.Getwd()
		if err != nil {
			return nil, eris.Wrap(err, "failed to determine the working directory")
		}
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(append(os.Environ(), inv.Env...)...)),
		interp.OpenHandler(openHandler),
		interp.StdIO(nil, tee(&stdout, s.Stdout), tee(&stderr, s.Stderr)),
	)
	if err != nil {
		return nil, eris.Wrap(err, "failed to initialize runner")
	}

	result := &Result{Invocation: inv}
	start := time.Now()
	err = runner.Run(ctx, file)
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		status, ok := interp.IsExitStatus(err)
		if !ok {
			return result, eris.Wrapf(err, "failed to run %s", inv.Name)
		}

		result.ExitCode = int(status)
	}

	return result, nil
}

// DryRunner only logs the commands it would run
type DryRunner struct {
	Logger *zerolog.Logger
}

// Run implements Runner
func (d DryRunner) Run(ctx context.Context, inv Invocation) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if d.Logger != nil {
		d.Logger.Info().
			Bool("command", true).
			Str("dir", inv.Dir).
			Msg(inv.String())
	}

	return &Result{Invocation: inv}, nil
}
