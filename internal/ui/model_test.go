//nolint:forcetypeassert
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/seekx/internal/command"
	"github.com/oakwood-commons/seekx/internal/results"
	"github.com/oakwood-commons/seekx/internal/search"
	"github.com/oakwood-commons/seekx/pkg/template"
)

// fakeSearch answers queries without spawning processes: "fail" fails,
// "none" returns nothing, anything else returns three results.
type fakeSearch struct {
	mu      sync.Mutex
	queries []string
}

func (f *fakeSearch) run(_ context.Context, inv command.Invocation, _ time.Duration) results.Outcome {
	query := inv.Args[0]
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	switch query {
	case "fail":
		return results.Outcome{Kind: results.Failed, Err: errors.New("index unavailable")}
	case "none":
		return results.Outcome{Kind: results.Success, Results: []results.SearchResult{}}
	}
	out := make([]results.SearchResult, 3)
	for i := range out {
		out[i] = results.SearchResult{
			Identifier: fmt.Sprintf("%s-%d", query, i),
			Title:      fmt.Sprintf("%s result %d", query, i),
			Confidence: 1,
		}
	}
	return results.Outcome{Kind: results.Success, Results: out}
}

func immediateTick(_ time.Duration, fn func(time.Time) tea.Msg) tea.Cmd {
	return func() tea.Msg { return fn(time.Now()) }
}

func newTestModel(t *testing.T, f *fakeSearch) *Model {
	t.Helper()
	spec, err := command.Compile("search", []string{"{query}"})
	require.NoError(t, err)
	display, err := template.Compile("{one_based_index}. {title}", template.WithVariables(results.DisplayVariables()...))
	require.NoError(t, err)

	sched := search.New(context.Background(), spec, time.Millisecond, time.Second,
		search.WithRunner(f.run), search.WithTick(immediateTick))
	m := NewModel(Config{Scheduler: sched, Display: display, NoColor: true})
	m.Input.SetVirtualCursor(false)
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 10})
	return m
}

// pump runs cmd and feeds scheduler messages back into the model until no
// work is left.
func pump(m *Model, cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case search.TimerFiredMsg, search.OutcomeMsg:
			_, next := m.Update(msg)
			queue = append(queue, next)
		}
	}
}

func keyText(s string) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: []rune(s)[0], Text: s}
}

func typeText(m *Model, text string) {
	for _, r := range text {
		_, cmd := m.Update(keyText(string(r)))
		pump(m, cmd)
	}
}

func press(m *Model, msg tea.KeyPressMsg) tea.Cmd {
	_, cmd := m.Update(msg)
	return cmd
}

func TestModel_InitialState(t *testing.T) {
	m := newTestModel(t, &fakeSearch{})
	assert.Equal(t, StateEditing, m.State)
	assert.Equal(t, "", m.Input.Value())
	assert.False(t, m.Store.Loaded())
	assert.NotNil(t, m.Init())

	view := m.View()
	assert.True(t, view.AltScreen)
	assert.Contains(t, m.content(), QueryPrompt)
}

func TestModel_TypingRunsQuery(t *testing.T) {
	f := &fakeSearch{}
	m := newTestModel(t, f)

	typeText(m, "go")
	assert.Equal(t, "go", m.Input.Value())
	assert.Equal(t, []string{"g", "go"}, f.queries)
	require.Equal(t, 3, m.Store.Len())

	content := m.content()
	assert.Contains(t, content, "Search > go")
	assert.Contains(t, content, "3 results")
	assert.Contains(t, content, "1. go result 0")
	assert.Contains(t, content, "3. go result 2")
}

func TestModel_CoalescesPendingTimers(t *testing.T) {
	f := &fakeSearch{}
	m := newTestModel(t, f)

	var cmds []tea.Cmd
	for _, r := range "rust" {
		cmds = append(cmds, press(m, keyText(string(r))))
	}
	assert.True(t, m.Scheduler.Busy())
	for _, cmd := range cmds {
		pump(m, cmd)
	}

	assert.Equal(t, []string{"rust"}, f.queries)
	sel, ok := m.Store.Selected()
	require.True(t, ok)
	assert.Equal(t, "rust-0", sel.Identifier)
}

func TestModel_CursorMovementDoesNotRequery(t *testing.T) {
	f := &fakeSearch{}
	m := newTestModel(t, f)

	assert.Nil(t, press(m, tea.KeyPressMsg{Code: tea.KeyLeft}))
	typeText(m, "ab")
	pump(m, press(m, tea.KeyPressMsg{Code: tea.KeyLeft}))
	pump(m, press(m, tea.KeyPressMsg{Code: tea.KeyRight}))
	assert.Equal(t, []string{"a", "ab"}, f.queries)

	// deleting back to the empty query runs it
	pump(m, press(m, tea.KeyPressMsg{Code: tea.KeyBackspace}))
	pump(m, press(m, tea.KeyPressMsg{Code: tea.KeyBackspace}))
	assert.Equal(t, []string{"a", "ab", "a", ""}, f.queries)
}

func TestModel_NavigationWraps(t *testing.T) {
	m := newTestModel(t, &fakeSearch{})
	typeText(m, "x")

	press(m, tea.KeyPressMsg{Code: tea.KeyDown})
	assert.Equal(t, 1, m.Store.Selection())
	press(m, tea.KeyPressMsg{Code: tea.KeyUp})
	press(m, tea.KeyPressMsg{Code: tea.KeyUp})
	assert.Equal(t, 2, m.Store.Selection())
	press(m, tea.KeyPressMsg{Code: 'n', Mod: tea.ModCtrl})
	assert.Equal(t, 0, m.Store.Selection())
	press(m, tea.KeyPressMsg{Code: 'p', Mod: tea.ModCtrl})
	assert.Equal(t, 2, m.Store.Selection())

	// navigation keys never reach the query input
	assert.Equal(t, "x", m.Input.Value())
}

func TestModel_ConfirmSelection(t *testing.T) {
	m := newTestModel(t, &fakeSearch{})
	typeText(m, "go")
	press(m, tea.KeyPressMsg{Code: tea.KeyDown})

	cmd := press(m, tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)

	assert.Equal(t, StateExited, m.State)
	id, ok := m.Chosen()
	assert.True(t, ok)
	assert.Equal(t, "go-1", id)
	assert.False(t, m.Scheduler.Busy())

	// keys after exit are ignored
	assert.Nil(t, press(m, tea.KeyPressMsg{Code: tea.KeyDown}))
}

func TestModel_ConfirmOnEmptyIsNoop(t *testing.T) {
	m := newTestModel(t, &fakeSearch{})
	assert.Nil(t, press(m, tea.KeyPressMsg{Code: tea.KeyEnter}))
	assert.Equal(t, StateEditing, m.State)

	typeText(m, "none")
	assert.True(t, m.Store.Loaded())
	assert.Nil(t, press(m, tea.KeyPressMsg{Code: tea.KeyEnter}))
	assert.Equal(t, StateEditing, m.State)
	assert.Contains(t, m.content(), "no entries found")
}

func TestModel_Abort(t *testing.T) {
	for _, key := range []tea.KeyPressMsg{
		{Code: tea.KeyEscape},
		{Code: 'c', Mod: tea.ModCtrl},
	} {
		t.Run(key.String(), func(t *testing.T) {
			m := newTestModel(t, &fakeSearch{})
			typeText(m, "go")

			cmd := press(m, key)
			require.NotNil(t, cmd)
			assert.Equal(t, StateExited, m.State)
			id, ok := m.Chosen()
			assert.False(t, ok)
			assert.Empty(t, id)
		})
	}
}

func TestModel_FailureKeepsResults(t *testing.T) {
	m := newTestModel(t, &fakeSearch{})
	typeText(m, "fai")
	press(m, tea.KeyPressMsg{Code: tea.KeyDown})
	require.Equal(t, 1, m.Store.Selection())

	typeText(m, "l")

	require.Error(t, m.Store.Err())
	assert.Equal(t, 3, m.Store.Len())
	assert.Equal(t, 1, m.Store.Selection())
	content := m.content()
	assert.Contains(t, content, "index unavailable")
	assert.Contains(t, content, "fai result 0")

	// a later success clears the indicator
	pump(m, press(m, tea.KeyPressMsg{Code: tea.KeyBackspace}))
	assert.NoError(t, m.Store.Err())
	assert.NotContains(t, m.content(), "index unavailable")
}

func TestModel_StaleOutcomeIgnored(t *testing.T) {
	m := newTestModel(t, &fakeSearch{})
	typeText(m, "a")

	stale := search.OutcomeMsg{
		Token:   m.Scheduler.Latest() - 1,
		Query:   "old",
		Outcome: results.Outcome{Kind: results.Success, Results: []results.SearchResult{{Identifier: "old"}}},
	}
	m.Update(stale)

	sel, ok := m.Store.Selected()
	require.True(t, ok)
	assert.Equal(t, "a-0", sel.Identifier)
}

func TestModel_SearchingIndicator(t *testing.T) {
	m := newTestModel(t, &fakeSearch{})
	cmd := press(m, keyText("q"))
	assert.Contains(t, m.content(), "searching…")
	pump(m, cmd)
	assert.NotContains(t, m.content(), "searching…")
}

func TestModel_ViewportFollowsWindowSize(t *testing.T) {
	m := newTestModel(t, &fakeSearch{})
	typeText(m, "go")

	m.Update(tea.WindowSizeMsg{Width: 40, Height: 4})
	assert.Equal(t, 2, m.Store.ViewportHeight())

	lines := strings.Split(m.content(), "\n")
	assert.Len(t, lines, 4)

	m.MaxRows = 1
	m.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	assert.Equal(t, 1, m.Store.ViewportHeight())
}

func TestModel_SelectedRowPaddedToWidth(t *testing.T) {
	m := newTestModel(t, &fakeSearch{})
	typeText(m, "go")

	lines := strings.Split(m.content(), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, lines[2], "1. go result 0"+strings.Repeat(" ", 60-len("1. go result 0")))
}

func TestModel_InlineView(t *testing.T) {
	m := newTestModel(t, &fakeSearch{})
	m.Inline = true
	assert.False(t, m.View().AltScreen)
}
