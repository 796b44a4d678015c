package config

import (
	"fmt"
	"time"

	"github.com/oakwood-commons/seekx/internal/command"
	"github.com/oakwood-commons/seekx/internal/results"
	"github.com/oakwood-commons/seekx/pkg/template"
)

// DefaultExecTimeout bounds one execution when neither the document nor the
// command line sets a limit.
const DefaultExecTimeout = 10 * time.Second

// Overrides are command line values that take precedence over the document.
type Overrides struct {
	ExecTimeout time.Duration // 0 keeps the document or default value
}

// Compiled is a configuration ready to run.
type Compiled struct {
	Command  command.Spec
	Display  *template.Template
	Debounce time.Duration
	// Timeout kills an execution that runs longer. Never shorter than Debounce.
	Timeout time.Duration
}

// Compile compiles every template of cfg and probe-renders the command so
// undefined variables are reported before the picker starts.
func Compile(cfg *Config, overrides Overrides) (*Compiled, error) {
	if err := cfg.Validate(); err != nil {
		return nil, stageErr(StageValidate, err)
	}

	spec, err := command.Compile(cfg.QueryCommand.Executable, cfg.QueryCommand.Args)
	if err != nil {
		return nil, stageErr(StageCompile, fmt.Errorf("query_command.%w", err))
	}
	display, err := template.Compile(*cfg.DisplayTemplate, template.WithVariables(results.DisplayVariables()...))
	if err != nil {
		return nil, stageErr(StageCompile, fmt.Errorf("display_template: %w", err))
	}
	if err := command.Probe(spec); err != nil {
		return nil, stageErr(StageProbe, fmt.Errorf("query_command.%w", err))
	}

	debounce := time.Duration(*cfg.TimeoutMillis) * time.Millisecond
	timeout := DefaultExecTimeout
	if cfg.ExecTimeoutMillis != nil && *cfg.ExecTimeoutMillis > 0 {
		timeout = time.Duration(*cfg.ExecTimeoutMillis) * time.Millisecond
	}
	if overrides.ExecTimeout > 0 {
		timeout = overrides.ExecTimeout
	}
	timeout = max(timeout, debounce)

	return &Compiled{
		Command:  spec,
		Display:  display,
		Debounce: debounce,
		Timeout:  timeout,
	}, nil
}
