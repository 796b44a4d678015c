package cel

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"
)

// ContextVariable is the name the whole render context is bound to.
// Optional fields are tested with has(_.field).
const ContextVariable = "_"

// Evaluator compiles boolean conditions against a fixed set of declared variables.
type Evaluator struct {
	env *cel.Env
}

// Condition is a compiled, reusable CEL program. It is safe for concurrent use.
type Condition struct {
	expr string
	prg  cel.Program
}

// NewEvaluator creates an evaluator whose conditions may reference the given
// variable names in addition to the context variable "_".
func NewEvaluator(variables ...string) (*Evaluator, error) {
	env, err := newConditionEnv(variables)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// newConditionEnv creates a CEL environment with dynamically typed variables
// and the string/math extensions.
func newConditionEnv(variables []string) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(variables)+3)
	opts = append(opts,
		cel.Variable(ContextVariable, cel.MapType(cel.StringType, cel.DynType)),
		celext.Strings(),
		celext.Math(),
	)
	seen := map[string]bool{ContextVariable: true}
	for _, name := range variables {
		if seen[name] {
			continue
		}
		seen[name] = true
		opts = append(opts, cel.Variable(name, cel.DynType))
	}
	return cel.NewEnv(opts...)
}

// Compile parses and type-checks expr.
func (e *Evaluator) Compile(expr string) (*Condition, error) {
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Condition{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (c *Condition) String() string {
	return c.expr
}

// Eval evaluates the condition. vars is bound both as "_" and as individual
// top-level variables. Non-boolean results are reduced with Truthy.
func (c *Condition) Eval(vars map[string]any) (bool, error) {
	activation := make(map[string]any, len(vars)+1)
	for k, v := range vars {
		activation[k] = v
	}
	activation[ContextVariable] = vars

	out, _, err := c.prg.Eval(activation)
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	return Truthy(ToGo(out)), nil
}

// Truthy reports whether v counts as true in a template condition: booleans
// as-is, strings when non-empty, numbers when non-zero, collections when
// non-empty, nil never.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case uint64:
		return t != 0
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// ToGo converts CEL values to Go native types.
func ToGo(val ref.Val) any {
	if val == nil {
		return nil
	}

	switch v := val.(type) {
	case types.Bool:
		return bool(v)
	case types.Int:
		return int64(v)
	case types.Uint:
		return uint64(v)
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Bytes:
		return []byte(v)
	case types.Null:
		return nil
	}

	if refSlice, ok := val.Value().([]ref.Val); ok {
		result := make([]any, len(refSlice))
		for i, elem := range refSlice {
			result[i] = ToGo(elem)
		}
		return result
	}
	return val.Value()
}
