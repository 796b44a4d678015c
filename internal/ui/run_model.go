package ui

import (
	"context"
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"
)

// RunModel starts the picker and blocks until the user confirms or aborts.
// The returned model reports the outcome through Chosen. Extra
// ProgramOptions (e.g. custom IO) are passed to tea.NewProgram.
func RunModel(ctx context.Context, cfg Config, opts ...tea.ProgramOption) (*Model, error) {
	m := NewModel(cfg)
	defer m.Scheduler.Stop()

	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(m, opts...)

	final, err := p.Run()
	if err != nil {
		// an interrupt or a cancelled context ends the picker like Esc
		if errors.Is(err, tea.ErrInterrupted) || (errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil) {
			return m, nil
		}
		return nil, fmt.Errorf("run picker: %w", err)
	}
	fm, ok := final.(*Model)
	if !ok {
		return nil, fmt.Errorf("unexpected model type %T", final)
	}
	return fm, nil
}
