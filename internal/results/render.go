package results

import (
	"fmt"
	"strings"

	runewidth "github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/seekx/internal/limiter"
	"github.com/oakwood-commons/seekx/pkg/template"
)

// Display template variables describing a row's position.
const (
	KeyIndex                = "index"
	KeyDisplayIndex         = "display_index"
	KeyOneBasedIndex        = "one_based_index"
	KeyOneBasedDisplayIndex = "one_based_display_index"
)

// DisplayVariables lists the built-in names available to display templates.
func DisplayVariables() []string {
	return []string{
		KeyIdentifier, KeyTitle, KeyConfidence,
		KeyIndex, KeyDisplayIndex, KeyOneBasedIndex, KeyOneBasedDisplayIndex,
	}
}

// Row is one rendered, visible result row.
type Row struct {
	Index    int
	Text     string
	Selected bool
	Err      error
}

// RowContext builds the display context for result r at absolute position i
// and viewport position d. Extra fields are added first so they never
// shadow the built-in keys.
func RowContext(r SearchResult, i, d int) template.Context {
	ctx := make(template.Context, len(r.Extra)+7)
	for k, v := range r.Extra {
		ctx[k] = v
	}
	ctx[KeyIdentifier] = r.Identifier
	ctx[KeyTitle] = r.Title
	ctx[KeyConfidence] = r.Confidence
	ctx[KeyIndex] = i
	ctx[KeyDisplayIndex] = d
	ctx[KeyOneBasedIndex] = i + 1
	ctx[KeyOneBasedDisplayIndex] = d + 1
	return ctx
}

// Rows renders the visible window of the store through display. Rows wider
// than width cells are truncated; width <= 0 disables truncation. A row that
// fails to render is replaced by a placeholder carrying the error.
func Rows(s *Store, display *template.Template, width int) []Row {
	return renderWindow(s.results, s.window(), s.selected, display, width)
}

func renderWindow(items []SearchResult, window limiter.Config, selected int, display *template.Template, width int) []Row {
	start, _ := window.Bounds(len(items))
	visible := limiter.Apply(window, items)

	rows := make([]Row, 0, len(visible))
	for d, r := range visible {
		i := start + d
		row := Row{Index: i, Selected: i == selected}
		text, err := display.Render(RowContext(r, i, d))
		if err != nil {
			row.Err = err
			text = fmt.Sprintf("<render error: %v>", err)
		}
		row.Text = fitWidth(text, width)
		rows = append(rows, row)
	}
	return rows
}

// fitWidth flattens text to a single line and truncates it to width cells.
func fitWidth(text string, width int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if width <= 0 || runewidth.StringWidth(text) <= width {
		return text
	}
	return runewidth.Truncate(text, width, "…")
}
