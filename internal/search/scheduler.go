// Package search debounces query text changes and runs the query command for
// the text that settles, tagging every outcome with the token it was issued
// under.
package search

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/oakwood-commons/seekx/internal/command"
	"github.com/oakwood-commons/seekx/internal/executor"
	"github.com/oakwood-commons/seekx/internal/results"
	"github.com/oakwood-commons/seekx/pkg/logger"
)

// RunFunc executes an invocation. executor.Execute is the default.
type RunFunc func(ctx context.Context, inv command.Invocation, timeout time.Duration) results.Outcome

// TickFunc schedules msg after d. tea.Tick is the default.
type TickFunc func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd

// TimerFiredMsg is delivered when the quiescence timer of Token elapses.
type TimerFiredMsg struct {
	Token results.Token
}

// OutcomeMsg carries the outcome of the execution issued under Token.
type OutcomeMsg struct {
	Token   results.Token
	Query   string
	Outcome results.Outcome
}

// Scheduler owns the pending-query lifecycle. All methods must be called
// from the bubbletea update loop; the commands it returns only produce
// messages.
type Scheduler struct {
	ctx      context.Context
	spec     command.Spec
	debounce time.Duration
	timeout  time.Duration
	run      RunFunc
	tick     TickFunc

	latest    results.Token
	text      string
	scheduled bool
	pending   bool
	cancel    context.CancelFunc
	inFlight  results.Token
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRunner replaces the function used to execute invocations.
func WithRunner(fn RunFunc) Option {
	return func(s *Scheduler) { s.run = fn }
}

// WithTick replaces the timer used for debouncing.
func WithTick(fn TickFunc) Option {
	return func(s *Scheduler) { s.tick = fn }
}

// New returns a Scheduler that runs spec after debounce of quiescence, with
// each execution limited to timeout. Executions inherit ctx.
func New(ctx context.Context, spec command.Spec, debounce, timeout time.Duration, opts ...Option) *Scheduler {
	s := &Scheduler{
		ctx:      ctx,
		spec:     spec,
		debounce: debounce,
		timeout:  timeout,
		run:      executor.Execute,
		tick:     tea.Tick,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryChanged records new query text. It kills the in-flight execution,
// issues a new token and returns a timer command for it. The timer of the
// previous token is left to fire and is ignored by Fire. Text identical to
// the last scheduled text is a no-op.
func (s *Scheduler) QueryChanged(text string) tea.Cmd {
	if s.scheduled && text == s.text {
		return nil
	}
	s.text = text
	s.scheduled = true
	s.pending = true
	s.cancelInFlight()

	s.latest++
	token := s.latest
	return s.tick(s.debounce, func(time.Time) tea.Msg {
		return TimerFiredMsg{Token: token}
	})
}

// Fire handles a timer message. Stale timers return nil; the current one
// returns a command that runs the query for the text current now.
func (s *Scheduler) Fire(msg TimerFiredMsg) tea.Cmd {
	if msg.Token != s.latest {
		return nil
	}
	s.pending = false
	token, query := msg.Token, s.text

	inv, err := command.Build(s.spec, query)
	if err != nil {
		out := results.Outcome{Kind: results.Failed, Err: err}
		return func() tea.Msg {
			return OutcomeMsg{Token: token, Query: query, Outcome: out}
		}
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	s.inFlight = token

	logger.FromContext(s.ctx).V(1).Info("executing query", "token", uint64(token), "query", query)

	run, timeout := s.run, s.timeout
	return func() tea.Msg {
		out := run(ctx, inv, timeout)
		return OutcomeMsg{Token: token, Query: query, Outcome: out}
	}
}

// Latest returns the most recently issued token.
func (s *Scheduler) Latest() results.Token { return s.latest }

// IsCurrent reports whether token is the most recently issued one.
func (s *Scheduler) IsCurrent(token results.Token) bool { return token == s.latest }

// Busy reports whether a timer is pending or an execution is live.
func (s *Scheduler) Busy() bool { return s.pending || s.cancel != nil }

// Settle releases the execution context of token once its outcome arrived.
func (s *Scheduler) Settle(token results.Token) {
	if token == s.inFlight {
		s.cancelInFlight()
	}
}

// Stop kills any live execution and invalidates pending timers.
func (s *Scheduler) Stop() {
	s.cancelInFlight()
	s.pending = false
	s.latest++
}

func (s *Scheduler) cancelInFlight() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.inFlight = 0
}
