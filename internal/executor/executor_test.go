//go:build unix

package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/oakwood-commons/seekx/internal/command"
	"github.com/oakwood-commons/seekx/internal/results"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func shell(script string) command.Invocation {
	return command.Invocation{Executable: "/bin/sh", Args: []string{"-c", script}}
}

func TestExecute_Success(t *testing.T) {
	out := Execute(context.Background(), shell(`cat <<'EOF'
{"results": [
  {"identifier": "2", "title": "second", "confidence": 0.1},
  {"identifier": "1", "title": "first", "confidence": 0.9, "path": "/x"}
]}
EOF`), 5*time.Second)

	require.Equal(t, results.Success, out.Kind, "err: %v", out.Err)
	require.NoError(t, out.Err)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "2", out.Results[0].Identifier)
	assert.Equal(t, "/x", out.Results[1].Extra["path"])
	assert.Positive(t, out.Elapsed)
}

func TestExecute_NonZeroExit(t *testing.T) {
	out := Execute(context.Background(), shell(`echo "index missing" >&2; exit 3`), 5*time.Second)

	require.Equal(t, results.Failed, out.Kind)
	var execErr *Error
	require.True(t, errors.As(out.Err, &execErr))
	assert.Equal(t, ExitError, execErr.Kind)
	assert.Equal(t, 3, execErr.ExitCode)
	assert.Equal(t, "index missing", execErr.Stderr)
	assert.Contains(t, out.Err.Error(), "status 3")
}

func TestExecute_ParseError(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"not json", `echo hello`},
		{"missing results", `echo '{"hits": []}'`},
		{"missing field", `echo '{"results": [{"identifier": "x"}]}'`},
		{"empty output", `true`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Execute(context.Background(), shell(tt.script), 5*time.Second)
			require.Equal(t, results.Failed, out.Kind)
			var execErr *Error
			require.True(t, errors.As(out.Err, &execErr))
			assert.Equal(t, ParseError, execErr.Kind)
		})
	}
}

func TestExecute_SpawnError(t *testing.T) {
	out := Execute(context.Background(), command.Invocation{Executable: "/nonexistent/seekx-search"}, time.Second)

	require.Equal(t, results.Failed, out.Kind)
	var execErr *Error
	require.True(t, errors.As(out.Err, &execErr))
	assert.Equal(t, SpawnError, execErr.Kind)
}

func TestExecute_TimeoutKillsProcessGroup(t *testing.T) {
	start := time.Now()
	// the background sleep keeps the pipe open unless the whole group dies
	out := Execute(context.Background(), shell(`sleep 30 & sleep 30`), 200*time.Millisecond)
	elapsed := time.Since(start)

	assert.Equal(t, results.TimedOut, out.Kind)
	assert.True(t, errors.Is(out.Err, context.DeadlineExceeded))
	assert.Contains(t, out.Err.Error(), "timed out after 200ms")
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
	assert.Less(t, elapsed, 5*time.Second)
}

func TestExecute_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan results.Outcome, 1)
	go func() {
		done <- Execute(ctx, shell(`sleep 30`), 0)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case out := <-done:
		require.Equal(t, results.Failed, out.Kind)
		var execErr *Error
		require.True(t, errors.As(out.Err, &execErr))
		assert.Equal(t, Cancelled, execErr.Kind)
		assert.True(t, errors.Is(out.Err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled execution did not return")
	}
}

func TestExecute_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := Execute(ctx, shell(`echo '{"results": []}'`), time.Second)
	var execErr *Error
	require.True(t, errors.As(out.Err, &execErr))
	assert.Equal(t, Cancelled, execErr.Kind)
}

func TestError_Messages(t *testing.T) {
	assert.Equal(t, "query command exited with status 2", (&Error{Kind: ExitError, ExitCode: 2}).Error())
	assert.Equal(t, "query command exited with status 2: boom", (&Error{Kind: ExitError, ExitCode: 2, Stderr: "boom"}).Error())
	assert.Equal(t, "query cancelled: context canceled", (&Error{Kind: Cancelled, Err: context.Canceled}).Error())
	assert.Equal(t, "parse error", ParseError.String())
}
