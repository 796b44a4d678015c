// Package executor runs a rendered query command, captures its output and
// turns the result into an Outcome.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oakwood-commons/seekx/internal/command"
	"github.com/oakwood-commons/seekx/internal/results"
	"github.com/oakwood-commons/seekx/pkg/logger"
)

const (
	// waitDelay bounds how long Wait blocks after the process was killed.
	waitDelay = 500 * time.Millisecond
	// maxStderr caps the stderr text kept on an ExitError.
	maxStderr = 4096
)

// Execute runs inv and waits for it to finish, for ctx to be cancelled, or
// for timeout to elapse, whichever comes first. A timeout <= 0 disables the
// deadline. Cancellation and timeouts kill the process (and on Unix its whole
// process group). Execute never returns an error; failures are reported in
// the Outcome.
func Execute(ctx context.Context, inv command.Invocation, timeout time.Duration) results.Outcome {
	start := time.Now()
	out, exitCode := run(ctx, inv, timeout)
	out.Elapsed = time.Since(start)

	log := logger.FromContext(ctx)
	log.V(1).Info("query executed",
		"command", inv.String(),
		"outcome", out.Kind.String(),
		"duration", out.Elapsed,
		"exitCode", exitCode,
		"results", len(out.Results),
	)
	if out.Err != nil {
		log.V(1).Info("query failed", "error", out.Err.Error())
	}
	return out
}

func run(ctx context.Context, inv command.Invocation, timeout time.Duration) (results.Outcome, int) {
	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	cmd := exec.CommandContext(runCtx, inv.Executable, inv.Args...)
	configureProcess(cmd)
	cmd.WaitDelay = waitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return failed(SpawnError, err), -1
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return failed(SpawnError, err), -1
	}
	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return failed(Cancelled, ctx.Err()), -1
		}
		return failed(SpawnError, err), -1
	}

	var outBuf, errBuf bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&outBuf, stdout)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&errBuf, stderr)
		return err
	})
	copyErr := g.Wait()
	waitErr := cmd.Wait()
	exitCode := cmd.ProcessState.ExitCode()

	if waitErr != nil || copyErr != nil {
		switch {
		case ctx.Err() != nil:
			return failed(Cancelled, ctx.Err()), exitCode
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			return results.Outcome{
				Kind: results.TimedOut,
				Err:  fmt.Errorf("query timed out after %s: %w", timeout, context.DeadlineExceeded),
			}, exitCode
		}

		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return results.Outcome{
				Kind: results.Failed,
				Err: &Error{
					Kind:     ExitError,
					ExitCode: exitErr.ExitCode(),
					Stderr:   trimStderr(errBuf.String()),
					Err:      waitErr,
				},
			}, exitCode
		}
		if waitErr != nil {
			return failed(ExitError, waitErr), exitCode
		}
		return failed(ParseError, fmt.Errorf("read output: %w", copyErr)), exitCode
	}

	parsed, err := results.Parse(outBuf.Bytes())
	if err != nil {
		return failed(ParseError, err), exitCode
	}
	return results.Outcome{Kind: results.Success, Results: parsed}, exitCode
}

func failed(kind ErrorKind, err error) results.Outcome {
	return results.Outcome{Kind: results.Failed, Err: &Error{Kind: kind, ExitCode: -1, Err: err}}
}

func trimStderr(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		s = s[len(s)-maxStderr:]
	}
	return s
}
