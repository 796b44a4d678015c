package ui

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Theme defines the colors used by the picker.
type Theme struct {
	PromptColor   color.Color // "Search > " prompt
	InputFG       color.Color // query text
	SelectedFG    color.Color // selected row foreground
	SelectedBG    color.Color // selected row background
	RowColor      color.Color // unselected rows
	StatusColor   color.Color // result count and progress
	StatusError   color.Color // per-query error text
	PlaceholderFG color.Color // rows that failed to render
}

// DefaultTheme returns the built-in palette.
func DefaultTheme() Theme {
	return Theme{
		PromptColor:   lipgloss.Color("81"),  // cyan accent
		InputFG:       lipgloss.Color("252"), // near-white query text
		SelectedFG:    lipgloss.Color("0"),   // black on white selection bar
		SelectedBG:    lipgloss.Color("250"), // light gray bar
		RowColor:      lipgloss.Color("246"), // muted rows
		StatusColor:   lipgloss.Color("244"), // muted status
		StatusError:   lipgloss.Color("203"), // softer red for errors
		PlaceholderFG: lipgloss.Color("208"), // orange placeholders
	}
}

// styles are the lipgloss styles derived from a Theme.
type styles struct {
	prompt      lipgloss.Style
	input       lipgloss.Style
	row         lipgloss.Style
	selected    lipgloss.Style
	status      lipgloss.Style
	statusError lipgloss.Style
	placeholder lipgloss.Style
}

func newStyles(t Theme, noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{
			prompt:      plain,
			input:       plain,
			row:         plain,
			selected:    plain.Reverse(true),
			status:      plain,
			statusError: plain,
			placeholder: plain,
		}
	}
	return styles{
		prompt:      lipgloss.NewStyle().Foreground(t.PromptColor).Bold(true),
		input:       lipgloss.NewStyle().Foreground(t.InputFG),
		row:         lipgloss.NewStyle().Foreground(t.RowColor),
		selected:    lipgloss.NewStyle().Foreground(t.SelectedFG).Background(t.SelectedBG),
		status:      lipgloss.NewStyle().Foreground(t.StatusColor),
		statusError: lipgloss.NewStyle().Foreground(t.StatusError),
		placeholder: lipgloss.NewStyle().Foreground(t.PlaceholderFG).Italic(true),
	}
}
