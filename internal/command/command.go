// Package command renders the configured query command into a concrete
// process invocation for a query text.
package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alessio/shellescape"

	"github.com/oakwood-commons/seekx/pkg/template"
)

// Variables available to command templates.
const (
	VarQuery        = "query"
	VarQueryEscaped = "query_escaped"
)

// probeQuery is rendered once at load time to surface runtime failures such
// as an empty executable.
const probeQuery = "probe"

// ErrEmptyExecutable is returned when the executable template renders to "".
var ErrEmptyExecutable = errors.New("executable rendered to an empty string")

// Variables lists the names command templates may reference.
func Variables() []string {
	return []string{VarQuery, VarQueryEscaped}
}

// Spec is a compiled query command.
type Spec struct {
	Executable *template.Template
	Args       []*template.Template
}

// Compile compiles the executable and argument templates. A reference to a
// name outside Variables fails here, whichever branch it sits in.
func Compile(executable string, args []string) (Spec, error) {
	opts := []template.Option{template.WithVariables(Variables()...), template.Strict()}

	exe, err := template.Compile(executable, opts...)
	if err != nil {
		return Spec{}, fmt.Errorf("executable: %w", err)
	}
	spec := Spec{Executable: exe, Args: make([]*template.Template, 0, len(args))}
	for i, a := range args {
		tpl, err := template.Compile(a, opts...)
		if err != nil {
			return Spec{}, fmt.Errorf("args[%d]: %w", i, err)
		}
		spec.Args = append(spec.Args, tpl)
	}
	return spec, nil
}

// Invocation is a rendered command line.
type Invocation struct {
	Executable string
	Args       []string
}

// String formats the invocation for logs, quoting arguments as a shell would.
func (inv Invocation) String() string {
	parts := make([]string, 0, len(inv.Args)+1)
	parts = append(parts, shellescape.Quote(inv.Executable))
	for _, a := range inv.Args {
		parts = append(parts, shellescape.Quote(a))
	}
	return strings.Join(parts, " ")
}

// Context returns the render context for query.
func Context(query string) template.Context {
	return template.Context{
		VarQuery:        query,
		VarQueryEscaped: shellescape.Quote(query),
	}
}

// Build renders spec for query.
func Build(spec Spec, query string) (Invocation, error) {
	return render(spec, Context(query))
}

// Probe renders every template of spec against a synthetic query so failures
// that only show at render time surface before any query runs.
func Probe(spec Spec) error {
	_, err := render(spec, template.Context{
		VarQuery:        probeQuery,
		VarQueryEscaped: probeQuery,
	})
	return err
}

func render(spec Spec, ctx template.Context) (Invocation, error) {
	if spec.Executable == nil {
		return Invocation{}, ErrEmptyExecutable
	}
	exe, err := spec.Executable.Render(ctx)
	if err != nil {
		return Invocation{}, fmt.Errorf("executable: %w", err)
	}
	if exe == "" {
		return Invocation{}, ErrEmptyExecutable
	}

	inv := Invocation{Executable: exe, Args: make([]string, 0, len(spec.Args))}
	for i, tpl := range spec.Args {
		arg, err := tpl.Render(ctx)
		if err != nil {
			return Invocation{}, fmt.Errorf("args[%d]: %w", i, err)
		}
		inv.Args = append(inv.Args, arg)
	}
	return inv, nil
}
