// Package ufwcmd runs the ufw executable and captures what it prints.
package ufwcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"ufw-inspector/internal/model"
	"ufw-inspector/internal/parser"
	"ufw-inspector/internal/report"
)

const DefaultExecutable = "/usr/sbin/ufw"

// Runner runs the firewall tool with args. A non-zero exit is reported in
// the output, not as an error; errors mean the process never ran.
type Runner interface {
	Run(ctx context.Context, args ...string) (model.CommandOutput, error)
}

// ExecRunner starts Executable directly, or through `sudo -n` when Sudo is set.
type ExecRunner struct {
	Executable string
	Sudo       bool
}

func (r ExecRunner) Run(ctx context.Context, args ...string) (model.CommandOutput, error) {
	name := r.Executable
	if name == "" {
		name = DefaultExecutable
	}
	if r.Sudo {
		args = append([]string{"-n", name}, args...)
		name = "sudo"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	out := model.CommandOutput{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
	default:
		return out, fmt.Errorf("%w: run %s: %s", model.ErrIO, name, err.Error())
	}
	slog.Debug("ufw invocation finished", "command", name, "args", args, "exit_code", out.ExitCode, "duration", time.Since(start))
	return out, nil
}

// Client issues the fixed set of ufw invocations the inspector reads.
type Client struct {
	runner Runner
}

func NewClient(r Runner) *Client {
	return &Client{runner: r}
}

func (c *Client) StatusNumbered(ctx context.Context) (model.CommandOutput, error) {
	return c.runner.Run(ctx, "status", "numbered")
}

func (c *Client) StatusVerbose(ctx context.Context) (model.CommandOutput, error) {
	return c.runner.Run(ctx, "status", "verbose")
}

func (c *Client) Version(ctx context.Context) (model.CommandOutput, error) {
	return c.runner.Run(ctx, "version")
}

func (c *Client) AppList(ctx context.Context) (model.CommandOutput, error) {
	return c.runner.Run(ctx, "app", "list")
}

// State is everything one inspection pass read from ufw.
type State struct {
	Version      model.Result[model.Version]
	Verbose      model.Result[report.Verbose]
	Rules        model.Result[[]model.Result[model.RuleEntry]]
	Applications model.Result[[]string]
}

// Inspect runs all four invocations and decodes each one. Only a failure to
// start the process is returned as an error; decoding failures stay in State.
func (c *Client) Inspect(ctx context.Context, catalog *parser.Catalog) (State, error) {
	var st State

	out, err := c.Version(ctx)
	if err != nil {
		return st, err
	}
	st.Version = wrap(report.ParseVersion(out))

	if out, err = c.StatusVerbose(ctx); err != nil {
		return st, err
	}
	st.Verbose = wrap(report.ParseVerbose(out))

	if out, err = c.StatusNumbered(ctx); err != nil {
		return st, err
	}
	st.Rules = wrap(report.ParseNumbered(out, catalog))

	if out, err = c.AppList(ctx); err != nil {
		return st, err
	}
	st.Applications = wrap(report.ParseAppList(out))
	return st, nil
}

func wrap[T any](v T, err error) model.Result[T] {
	if err != nil {
		return model.Fail[T](err)
	}
	return model.Ok(v)
}
