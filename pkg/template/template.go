// Package template implements the small templating language used for query
// command lines and result rows.
//
// A template is literal text mixed with:
//
//	{name}                      variable substitution
//	\{literal}                  escaped brace run, emitted verbatim
//	{{ if cond }}…{{ endif }}   conditional block, with optional
//	                            {{ else if cond }} and {{ else }} branches
//
// A condition is either a bare variable name (true when the variable is
// present and truthy), "not name", or a CEL expression. Inside CEL the whole
// render context is bound to "_", so has(_.field) tests for an optional field.
package template

import (
	"strings"

	celeval "github.com/oakwood-commons/seekx/internal/cel"
)

// Context maps variable names to scalar values (string, bool, integer or
// float). Nested maps are reachable with dotted names.
type Context map[string]any

// Template is a compiled template. It is immutable and safe for concurrent use.
type Template struct {
	source string
	nodes  []node
}

// Option configures compilation.
type Option func(*options)

type options struct {
	variables []string
	strict    bool
}

// WithVariables declares the variables CEL conditions may reference by name.
// References to undeclared names are rejected at compile time.
func WithVariables(names ...string) Option {
	return func(o *options) {
		o.variables = append(o.variables, names...)
	}
}

// Strict rejects {name} references and bare-name conditions whose name was
// not declared with WithVariables. Every branch is checked, taken or not.
func Strict() Option {
	return func(o *options) {
		o.strict = true
	}
}

// Compile parses source into a Template.
func Compile(source string, opts ...Option) (*Template, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	p := &parser{src: source, opts: o}
	nodes, err := p.parse()
	if err != nil {
		return nil, err
	}
	return &Template{source: source, nodes: nodes}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(source string, opts ...Option) *Template {
	t, err := Compile(source, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Source returns the template text the Template was compiled from.
func (t *Template) Source() string {
	return t.source
}

// Render evaluates the template against ctx.
func (t *Template) Render(ctx Context) (string, error) {
	var b strings.Builder
	if err := renderNodes(&b, t.nodes, ctx); err != nil {
		return "", err
	}
	return b.String(), nil
}

func renderNodes(b *strings.Builder, nodes []node, ctx Context) error {
	for _, n := range nodes {
		if err := n.render(b, ctx); err != nil {
			return err
		}
	}
	return nil
}

type node interface {
	render(b *strings.Builder, ctx Context) error
}

type textNode string

func (n textNode) render(b *strings.Builder, _ Context) error {
	b.WriteString(string(n))
	return nil
}

type varNode struct {
	name string
}

func (n varNode) render(b *strings.Builder, ctx Context) error {
	v, ok := ctx.Lookup(n.name)
	if !ok {
		return &RenderError{Kind: UndefinedVariable, Name: n.name, Err: ErrUndefinedVariable}
	}
	b.WriteString(Stringify(v))
	return nil
}

type branch struct {
	cond condition
	body []node
}

type ifNode struct {
	branches  []branch
	otherwise []node
	hasElse   bool
}

func (n *ifNode) render(b *strings.Builder, ctx Context) error {
	for _, br := range n.branches {
		ok, err := br.cond.eval(ctx)
		if err != nil {
			return err
		}
		if ok {
			return renderNodes(b, br.body, ctx)
		}
	}
	return renderNodes(b, n.otherwise, ctx)
}

type condition interface {
	eval(ctx Context) (bool, error)
}

// presence is the bare-name test: {{ if name }} or {{ if not name }}.
type presence struct {
	name   string
	negate bool
}

func (c presence) eval(ctx Context) (bool, error) {
	v, ok := ctx.Lookup(c.name)
	truthy := ok && celeval.Truthy(normalize(v))
	return truthy != c.negate, nil
}

type celCondition struct {
	cond *celeval.Condition
}

func (c celCondition) eval(ctx Context) (bool, error) {
	ok, err := c.cond.Eval(map[string]any(ctx))
	if err != nil {
		return false, &RenderError{Kind: ConditionError, Name: c.cond.String(), Err: err}
	}
	return ok, nil
}

// Lookup resolves name in the context. An exact key wins; otherwise a dotted
// name walks nested maps.
func (c Context) Lookup(name string) (any, bool) {
	if v, ok := c[name]; ok {
		return v, true
	}
	if !strings.Contains(name, ".") {
		return nil, false
	}
	parts := strings.Split(name, ".")
	var cur any = map[string]any(c)
	for _, part := range parts {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Context:
		return m, true
	default:
		return nil, false
	}
}
