// Package cel compiles CEL key expressions evaluated against a single record,
// bound to the `_` variable.
package cel

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	celext "github.com/google/cel-go/ext"
)

// Program is a compiled expression ready to evaluate against records.
type Program struct {
	expr string
	prg  cel.Program
}

// newStandardCELEnv creates the environment shared by every compiled
// expression. Additional options extend it (e.g. custom functions).
func newStandardCELEnv(opts ...cel.EnvOption) (*cel.Env, error) {
	allOpts := make([]cel.EnvOption, 0, 5+len(opts))
	allOpts = append(allOpts,
		cel.Variable("_", cel.DynType),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	)
	allOpts = append(allOpts, opts...)
	return cel.NewEnv(allOpts...)
}

// Compile parses and type-checks expr.
func Compile(expr string, opts ...cel.EnvOption) (*Program, error) {
	env, err := newStandardCELEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (p *Program) String() string { return p.expr }

// Eval evaluates the program with data bound to `_` and converts the result
// to plain Go values.
func (p *Program) Eval(data interface{}) (interface{}, error) {
	result, _, err := p.prg.Eval(map[string]interface{}{
		"_": data,
	})
	if err != nil {
		return nil, fmt.Errorf("eval error: %w", err)
	}
	return ToGo(result), nil
}

// ToGo converts CEL values to Go native types; lists convert recursively.
func ToGo(val ref.Val) interface{} {
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

	inner := val.Value()
	switch iv := inner.(type) {
	case []ref.Val:
		out := make([]interface{}, len(iv))
		for i, elem := range iv {
			out[i] = ToGo(elem)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(iv))
		for i, elem := range iv {
			if rv, ok := elem.(ref.Val); ok {
				out[i] = ToGo(rv)
			} else {
				out[i] = elem
			}
		}
		return out
	}
	return inner
}
