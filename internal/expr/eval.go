package expr

import (
	"fmt"
	"math"
	"strings"
)

// Env resolves node references during evaluation.
type Env interface {
	Resolve(name string) (interface{}, bool)
}

// EnvFunc adapts a plain function to the Env interface.
type EnvFunc func(name string) (interface{}, bool)

func (f EnvFunc) Resolve(name string) (interface{}, bool) { return f(name) }

// Eval walks the compiled AST and returns the resulting value: a
// float64, string or bool.
func (p *Program) Eval(env Env) (interface{}, error) {
	return eval(p.root, env)
}

func eval(e Expr, env Env) (interface{}, error) {
	switch n := e.(type) {
	case *LiteralExpr:
		return n.Value, nil
	case *RefExpr:
		v, ok := env.Resolve(n.Name)
		if !ok {
			return nil, fmt.Errorf("reference %q not found", n.Name)
		}
		return v, nil
	case *LogicalExpr:
		return evalLogical(n, env)
	case *NotExpr:
		v, err := evalBool(n.Expr, env)
		if err != nil {
			return nil, err
		}
		return !v, nil
	case *CompareExpr:
		return evalCompare(n, env)
	case *ArithExpr:
		return evalArith(n, env)
	case *NegExpr:
		v, err := evalNumber(n.Expr, env)
		if err != nil {
			return nil, err
		}
		return -v, nil
	case *CallExpr:
		return evalCall(n, env)
	default:
		return nil, fmt.Errorf("unknown expr type %T", e)
	}
}

func evalLogical(e *LogicalExpr, env Env) (interface{}, error) {
	left, err := evalBool(e.Left, env)
	if err != nil {
		return nil, err
	}
	switch strings.ToUpper(e.Op) {
	case "AND":
		if !left {
			return false, nil // short-circuit
		}
		return evalBool(e.Right, env)
	case "OR":
		if left {
			return true, nil // short-circuit
		}
		return evalBool(e.Right, env)
	default:
		return nil, fmt.Errorf("unknown logical op %q", e.Op)
	}
}

func evalCompare(e *CompareExpr, env Env) (interface{}, error) {
	left, err := eval(e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := eval(e.Right, env)
	if err != nil {
		return nil, err
	}
	return compare(e.Op, left, right)
}

func evalArith(e *ArithExpr, env Env) (interface{}, error) {
	left, err := eval(e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := eval(e.Right, env)
	if err != nil {
		return nil, err
	}

	// String concatenation is the one non-numeric arithmetic form.
	if e.Op == "+" {
		if ls, ok := left.(string); ok {
			if rs, ok := right.(string); ok {
				return ls + rs, nil
			}
		}
	}

	lf, lok := toFloat64(left)
	rf, rok := toFloat64(right)
	if !lok || !rok {
		return nil, fmt.Errorf("operator %s requires numeric operands, got %T and %T", e.Op, left, right)
	}
	switch e.Op {
	case "+":
		return lf + rf, nil
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return lf / rf, nil
	default:
		return nil, fmt.Errorf("unknown arithmetic op %q", e.Op)
	}
}

func evalBool(e Expr, env Env) (bool, error) {
	v, err := eval(e, env)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected boolean operand, got %T", v)
	}
	return b, nil
}

func evalNumber(e Expr, env Env) (float64, error) {
	v, err := eval(e, env)
	if err != nil {
		return 0, err
	}
	f, ok := toFloat64(v)
	if !ok {
		return 0, fmt.Errorf("expected numeric operand, got %T", v)
	}
	return f, nil
}

// -----------------------------------------------------------------------
// Builtin functions
// -----------------------------------------------------------------------

func isBuiltin(fn string) bool {
	switch strings.ToLower(fn) {
	case "abs", "min", "max", "round", "floor", "ceil":
		return true
	}
	return false
}

func evalCall(e *CallExpr, env Env) (interface{}, error) {
	args := make([]float64, len(e.Args))
	for i, a := range e.Args {
		f, err := evalNumber(a, env)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Fn, err)
		}
		args[i] = f
	}

	switch e.Fn {
	case "abs":
		if len(args) != 1 {
			return nil, fmt.Errorf("abs expects 1 argument, got %d", len(args))
		}
		return math.Abs(args[0]), nil
	case "round":
		if len(args) != 1 {
			return nil, fmt.Errorf("round expects 1 argument, got %d", len(args))
		}
		return math.Round(args[0]), nil
	case "floor":
		if len(args) != 1 {
			return nil, fmt.Errorf("floor expects 1 argument, got %d", len(args))
		}
		return math.Floor(args[0]), nil
	case "ceil":
		if len(args) != 1 {
			return nil, fmt.Errorf("ceil expects 1 argument, got %d", len(args))
		}
		return math.Ceil(args[0]), nil
	case "min":
		if len(args) == 0 {
			return nil, fmt.Errorf("min expects at least 1 argument")
		}
		out := args[0]
		for _, f := range args[1:] {
			out = math.Min(out, f)
		}
		return out, nil
	case "max":
		if len(args) == 0 {
			return nil, fmt.Errorf("max expects at least 1 argument")
		}
		out := args[0]
		for _, f := range args[1:] {
			out = math.Max(out, f)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown function %q", e.Fn)
	}
}
