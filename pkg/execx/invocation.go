// Package execx runs external tools and reports their exit status and output explicitly.
package execx

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/syntax"
)

// ErrFailed is the root of all errors describing a tool that exited with a non-zero status
var ErrFailed = eris.New("command failed")

// special lists the characters which force a word to be quoted
const special = " \t\n\"#$&'()*;<>?[\\]`{|}~"

// Invocation describes a single external command
type Invocation struct {
	// Dir is the working directory of the command. Empty means the current directory.
	Dir  string
	Name string
	Args []string
	// Env contains additional KEY=value pairs on top of the process environment
	Env []string
}

// Command builds an invocation for name with args
func Command(dir, name string, args ...string) Invocation {
	return Invocation{Dir: dir, Name: name, Args: args}
}

// Argv returns the name followed by all arguments
func (i Invocation) Argv() []string {
	return append([]string{i.Name}, i.Args...)
}

// Call builds the shell call expression for the invocation. Every argument ends up as exactly
// one word; nothing is expanded.
func (i Invocation) Call() *syntax.CallExpr {
	argv := i.Argv()
	call := &syntax.CallExpr{Args: make([]*syntax.Word, len(argv))}
	for idx, value := range argv {
		// a leading word with = would turn into an assignment
		call.Args[idx] = shellWord(value, idx == 0 && strings.Contains(value, "="))
	}

	return call
}

func shellWord(value string, forceQuotes bool) *syntax.Word {
	if value != "" && !forceQuotes && !strings.ContainsAny(value, special) {
		return &syntax.Word{Parts: []syntax.WordPart{&syntax.Lit{Value: value}}}
	}

	// single quotes can't contain single quotes so those go into double quotes
	chunks := strings.Split(value, "'")
	parts := make([]syntax.WordPart, 0, 2*len(chunks)-1)
	for idx, chunk := range chunks {
		if idx > 0 {
			parts = append(parts, &syntax.DblQuoted{Parts: []syntax.WordPart{&syntax.Lit{Value: "'"}}})
		}
		parts = append(parts, &syntax.SglQuoted{Value: chunk})
	}

	return &syntax.Word{Parts: parts}
}

// String renders the invocation as a shell command line
func (i Invocation) String() string {
	var buffer strings.Builder
	printer := syntax.NewPrinter(syntax.Minify(true))
	if err := printer.Print(&buffer, i.Call()); err != nil {
		return strings.Join(i.Argv(), " ")
	}

	return buffer.String()
}

// Result captures the outcome of an invocation
type Result struct {
	Invocation Invocation
	ExitCode   int
	Stdout     string
	Stderr     string
	Duration   time.Duration
}

// Ok reports whether the command exited with status 0
func (r *Result) Ok() bool {
	return r.ExitCode == 0
}

// Err returns nil for successful runs and an ErrFailed based error otherwise
func (r *Result) Err() error {
	if r.Ok() {
		return nil
	}

	msg := fmt.Sprintf("%s exited with status %d", r.Invocation.Name, r.ExitCode)
	if details := strings.TrimSpace(r.Stderr); details != "" {
		msg += ": " + details
	}

	return eris.Wrap(ErrFailed, msg)
}
