// Package cgi executes root scripts as child processes, passing request
// metadata through environment variables and stdin, and reading response
// metadata back from stdout.
package cgi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"time"
)

// Invocation describes a single script execution.
type Invocation struct {
	ScriptPath string            // absolute filesystem path of the executable
	Method     string            // HTTP method of the request
	Path       string            // request path as received
	Headers    map[string]string // request headers, names as received
	Params     map[string]string // merged query-string and form-body pairs
	Body       []byte            // raw request body, written to stdin
}

// Header is a single response header declared by a script. Order is
// preserved.
type Header struct {
	Name  string
	Value string
}

// Result is the parsed outcome of a completed script run.
type Result struct {
	Status  int
	Headers []Header
	Body    []byte
}

// Executor runs scripts with a fixed base environment. A zero Timeout lets
// scripts run for as long as the connection stays open.
type Executor struct {
	Env     []string // base process environment
	Timeout time.Duration
}

// Execute runs the script described by inv and blocks until it exits or the
// timeout expires. A nonzero exit status maps to a 500 Result carrying the
// script's stderr as body; failure to spawn or capture the process is
// returned as an error.
func (e *Executor) Execute(ctx context.Context, inv Invocation) (*Result, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, inv.ScriptPath)
	cmd.Env = e.environ(inv)
	if len(inv.Body) > 0 {
		cmd.Stdin = bytes.NewReader(inv.Body)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		headers, body := splitOutput(stdout.Bytes())
		return &Result{Status: http.StatusOK, Headers: headers, Body: body}, nil
	case errors.As(err, &exitErr):
		return &Result{Status: http.StatusInternalServerError, Body: stderr.Bytes()}, nil
	default:
		return nil, fmt.Errorf("failed running script %s: %w", inv.ScriptPath, err)
	}
}

// environ builds the child process environment: the base environment,
// followed by one entry per request header (name exactly as received), the
// Method and Path variables, and one Query_<key> entry per request parameter.
func (e *Executor) environ(inv Invocation) []string {
	env := make([]string, 0, len(e.Env)+len(inv.Headers)+len(inv.Params)+2)
	env = append(env, e.Env...)
	for name, val := range inv.Headers {
		env = append(env, name+"="+val)
	}
	env = append(env, "Method="+inv.Method, "Path="+inv.Path)
	for name, val := range inv.Params {
		env = append(env, "Query_"+name+"="+val)
	}

	return env
}

// splitOutput separates a script's stdout into its declared header block and
// the response body. The header block is zero or more "Name: Value" lines
// terminated by the first blank line. Without a blank line, or if a line
// before it is not a header, the entire output is the body.
func splitOutput(out []byte) ([]Header, []byte) {
	var headers []Header
	rest := out
	for len(rest) > 0 {
		line, tail, found := bytes.Cut(rest, []byte("\n"))
		if !found {
			return nil, out
		}
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) == 0 {
			return headers, tail
		}
		name, val, ok := bytes.Cut(line, []byte(":"))
		if !ok {
			return nil, out
		}
		headers = append(headers, Header{
			Name:  string(bytes.TrimSpace(name)),
			Value: string(bytes.TrimSpace(val)),
		})
		rest = tail
	}

	return nil, out
}
