package ui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/seekx/internal/results"
	"github.com/oakwood-commons/seekx/internal/search"
	"github.com/oakwood-commons/seekx/pkg/template"
)

// QueryPrompt is shown in front of the query input.
const QueryPrompt = "Search > "

const (
	// chromeLines is the number of lines above the result rows.
	chromeLines = 2
	// defaultRows is used until the terminal reports its size.
	defaultRows = 10
)

// State is the interaction state of the picker.
type State int

const (
	StateEditing State = iota
	StateExited
)

// Config holds the collaborators and options of a Model.
type Config struct {
	Scheduler *search.Scheduler
	Display   *template.Template
	MaxRows   int // 0 fills the terminal
	NoColor   bool
	Inline    bool
	Theme     *Theme
	Logger    logr.Logger
}

// Model is the bubbletea model of the picker. It is the only writer of the
// query text, the result store and the selection.
type Model struct {
	Input     textinput.Model
	Store     *results.Store
	Scheduler *search.Scheduler
	Display   *template.Template
	MaxRows   int
	NoColor   bool
	Inline    bool
	WinWidth  int
	WinHeight int
	State     State

	log       logr.Logger
	styles    styles
	lastQuery string
	chosen    string
	confirmed bool
}

// NewModel returns a model in the editing state with an empty query.
func NewModel(cfg Config) *Model {
	theme := DefaultTheme()
	if cfg.Theme != nil {
		theme = *cfg.Theme
	}
	st := newStyles(theme, cfg.NoColor)

	input := textinput.New()
	input.Prompt = QueryPrompt
	inputStyles := textinput.DefaultDarkStyles()
	inputStyles.Focused.Prompt = st.prompt
	inputStyles.Focused.Text = st.input
	input.SetStyles(inputStyles)
	input.Focus()

	log := cfg.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	m := &Model{
		Input:     input,
		Store:     results.NewStore(),
		Scheduler: cfg.Scheduler,
		Display:   cfg.Display,
		MaxRows:   cfg.MaxRows,
		NoColor:   cfg.NoColor,
		Inline:    cfg.Inline,
		State:     StateEditing,
		log:       log,
		styles:    st,
	}
	m.Store.SetViewportHeight(m.rowCapacity())
	return m
}

// Init implements tea.Model. No query runs until the text changes.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WinWidth = msg.Width
		m.WinHeight = msg.Height
		m.Input.SetWidth(max(msg.Width-runewidth.StringWidth(QueryPrompt)-1, 1))
		m.Store.SetViewportHeight(m.rowCapacity())
		return m, nil

	case search.TimerFiredMsg:
		return m, m.Scheduler.Fire(msg)

	case search.OutcomeMsg:
		m.applyOutcome(msg)
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m *Model) applyOutcome(msg search.OutcomeMsg) {
	m.Scheduler.Settle(msg.Token)
	if !m.Scheduler.IsCurrent(msg.Token) {
		m.log.V(1).Info("discarded stale outcome", "token", uint64(msg.Token), "query", msg.Query)
		return
	}
	m.Store.Apply(msg.Token, m.Scheduler.Latest(), msg.Outcome)
	if msg.Outcome.Err != nil {
		m.log.Info("query failed", "query", msg.Query, "outcome", msg.Outcome.Kind.String(), "error", msg.Outcome.Err.Error())
	}
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.State == StateExited {
		return m, nil
	}

	switch actionForKey(msg.String()) {
	case ActionUp:
		m.Store.MoveUp()
	case ActionDown:
		m.Store.MoveDown()
	case ActionPageUp:
		m.Store.PageUp()
	case ActionPageDown:
		m.Store.PageDown()
	case ActionTop:
		m.Store.Home()
	case ActionBottom:
		m.Store.End()
	case ActionConfirm:
		selected, ok := m.Store.Selected()
		if !ok {
			return m, nil
		}
		m.chosen = selected.Identifier
		m.confirmed = true
		return m, m.exit()
	case ActionAbort:
		return m, m.exit()
	default:
		var cmd tea.Cmd
		m.Input, cmd = m.Input.Update(msg)
		if query := m.Input.Value(); query != m.lastQuery {
			m.lastQuery = query
			cmd = tea.Batch(cmd, m.Scheduler.QueryChanged(query))
		}
		return m, cmd
	}
	return m, nil
}

func (m *Model) exit() tea.Cmd {
	m.State = StateExited
	m.Scheduler.Stop()
	return tea.Quit
}

// Chosen returns the confirmed identifier. ok is false when the picker was
// aborted.
func (m *Model) Chosen() (identifier string, ok bool) {
	return m.chosen, m.confirmed
}

// rowCapacity is the number of result rows that fit below the chrome.
func (m *Model) rowCapacity() int {
	rows := defaultRows
	if m.WinHeight > 0 {
		rows = m.WinHeight - chromeLines
	}
	if m.MaxRows > 0 && m.MaxRows < rows {
		rows = m.MaxRows
	}
	return max(rows, 1)
}

// View implements tea.Model.
func (m *Model) View() tea.View {
	v := tea.NewView(m.content())
	v.AltScreen = !m.Inline
	return v
}

// content renders the prompt, the status line and the visible rows.
func (m *Model) content() string {
	var b strings.Builder
	b.WriteString(m.Input.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())

	if m.State == StateEditing {
		for _, row := range results.Rows(m.Store, m.Display, m.WinWidth) {
			b.WriteString("\n")
			b.WriteString(m.renderRow(row))
		}
	}

	return b.String()
}

func (m *Model) statusLine() string {
	var text string
	switch {
	case m.Scheduler != nil && m.Scheduler.Busy():
		text = "searching…"
	case m.Store.Err() != nil:
		return m.styles.statusError.Render(m.fit(firstLine(m.Store.Err().Error())))
	case !m.Store.Loaded():
		text = ""
	case m.Store.Len() == 0:
		text = "no entries found"
	case m.Store.Len() == 1:
		text = "1 result"
	default:
		text = fmt.Sprintf("%d results", m.Store.Len())
	}
	return m.styles.status.Render(text)
}

func (m *Model) renderRow(row results.Row) string {
	text := row.Text
	switch {
	case row.Selected:
		if m.WinWidth > 0 {
			text = runewidth.FillRight(text, m.WinWidth)
		}
		return m.styles.selected.Render(text)
	case row.Err != nil:
		return m.styles.placeholder.Render(text)
	default:
		return m.styles.row.Render(text)
	}
}

func (m *Model) fit(s string) string {
	if m.WinWidth <= 0 || runewidth.StringWidth(s) <= m.WinWidth {
		return s
	}
	return runewidth.Truncate(s, m.WinWidth, "…")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
