package template

import (
	"regexp"
	"slices"
	"strings"

	celeval "github.com/oakwood-commons/seekx/internal/cel"
)

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z0-9_]+)*$`)

type parser struct {
	src  string
	opts options
	eval *celeval.Evaluator

	root  []node
	stack []*frame
}

// frame is an open {{ if }} block.
type frame struct {
	node *ifNode
	pos  int
}

func (p *parser) parse() ([]node, error) {
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			p.emit(textNode(lit.String()))
			lit.Reset()
		}
	}

	s := p.src
	for i := 0; i < len(s); {
		switch {
		case s[i] == '\\' && i+1 < len(s) && s[i+1] == '{':
			end := matchingBrace(s, i+1)
			if end < 0 {
				return nil, p.errorf(i, "unterminated escaped brace run")
			}
			lit.WriteString(s[i+1 : end+1])
			i = end + 1

		case strings.HasPrefix(s[i:], "{{"):
			end := closingDirective(s, i+2)
			if end < 0 {
				return nil, p.errorf(i, "unterminated {{ block")
			}
			flush()
			if err := p.directive(i, strings.TrimSpace(s[i+2:end])); err != nil {
				return nil, err
			}
			i = end + 2

		case s[i] == '{':
			end := strings.IndexAny(s[i+1:], "{}")
			if end < 0 || s[i+1+end] == '{' {
				return nil, p.errorf(i, "unmatched {")
			}
			name := strings.TrimSpace(s[i+1 : i+1+end])
			if name == "" {
				return nil, p.errorf(i, "empty variable reference")
			}
			if !namePattern.MatchString(name) {
				return nil, p.errorf(i, "invalid variable name %q", name)
			}
			if err := p.declared(i, name); err != nil {
				return nil, err
			}
			flush()
			p.emit(varNode{name: name})
			i += end + 2

		case s[i] == '}':
			return nil, p.errorf(i, "unmatched }")

		default:
			lit.WriteByte(s[i])
			i++
		}
	}
	flush()

	if len(p.stack) > 0 {
		return nil, p.errorf(p.stack[len(p.stack)-1].pos, "{{ if }} without {{ endif }}")
	}
	return p.root, nil
}

// directive handles the body of a {{ ... }} block.
func (p *parser) directive(pos int, body string) error {
	keyword, rest := splitKeyword(body)
	switch keyword {
	case "if":
		cond, err := p.condition(pos, rest)
		if err != nil {
			return err
		}
		n := &ifNode{branches: []branch{{cond: cond}}}
		p.emit(n)
		p.stack = append(p.stack, &frame{node: n, pos: pos})
		return nil

	case "else":
		top := p.top()
		if top == nil {
			return p.errorf(pos, "{{ else }} without {{ if }}")
		}
		if top.node.hasElse {
			return p.errorf(pos, "{{ else }} after {{ else }}")
		}
		if rest == "" {
			top.node.hasElse = true
			return nil
		}
		elseKeyword, elseRest := splitKeyword(rest)
		if elseKeyword != "if" {
			return p.errorf(pos, "malformed {{ else %s }}", rest)
		}
		cond, err := p.condition(pos, elseRest)
		if err != nil {
			return err
		}
		top.node.branches = append(top.node.branches, branch{cond: cond})
		return nil

	case "endif":
		if rest != "" {
			return p.errorf(pos, "unexpected text after endif")
		}
		if p.top() == nil {
			return p.errorf(pos, "{{ endif }} without {{ if }}")
		}
		p.stack = p.stack[:len(p.stack)-1]
		return nil

	case "":
		return p.errorf(pos, "empty {{ }} block")

	default:
		return p.errorf(pos, "unknown directive %q", keyword)
	}
}

func (p *parser) condition(pos int, expr string) (condition, error) {
	if expr == "" {
		return nil, p.errorf(pos, "missing condition")
	}
	if namePattern.MatchString(expr) && expr != "true" && expr != "false" {
		if err := p.declared(pos, expr); err != nil {
			return nil, err
		}
		return presence{name: expr}, nil
	}
	if keyword, rest := splitKeyword(expr); keyword == "not" && namePattern.MatchString(rest) {
		if err := p.declared(pos, rest); err != nil {
			return nil, err
		}
		return presence{name: rest, negate: true}, nil
	}

	if p.eval == nil {
		eval, err := celeval.NewEvaluator(p.opts.variables...)
		if err != nil {
			return nil, p.errorf(pos, "%v", err)
		}
		p.eval = eval
	}
	cond, err := p.eval.Compile(expr)
	if err != nil {
		return nil, p.errorf(pos, "condition %q: %v", expr, err)
	}
	return celCondition{cond: cond}, nil
}

// emit appends n to the innermost open block, or to the root.
func (p *parser) emit(n node) {
	top := p.top()
	switch {
	case top == nil:
		p.root = append(p.root, n)
	case top.node.hasElse:
		top.node.otherwise = append(top.node.otherwise, n)
	default:
		last := &top.node.branches[len(top.node.branches)-1]
		last.body = append(last.body, n)
	}
}

func (p *parser) top() *frame {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

// declared enforces Strict mode for a variable reference.
func (p *parser) declared(pos int, name string) error {
	if !p.opts.strict || slices.Contains(p.opts.variables, name) {
		return nil
	}
	return p.errorf(pos, "undefined variable %q", name)
}

func (p *parser) errorf(pos int, format string, args ...any) error {
	return newCompileError(p.src, pos, format, args...)
}

func splitKeyword(s string) (string, string) {
	s = strings.TrimSpace(s)
	idx := strings.IndexAny(s, " \t\n")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimSpace(s[idx+1:])
}

// matchingBrace returns the index of the } closing the { at open, or -1.
func matchingBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// closingDirective returns the index of the }} ending the {{ block whose body
// starts at from, or -1. Braces and quotes inside the body must balance, so a
// CEL string or map literal may itself contain "}}".
func closingDirective(s string, from int) int {
	depth := 0
	var quote byte
	for i := from; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			} else if i+1 < len(s) && s[i+1] == '}' {
				return i
			}
		}
	}
	return -1
}
