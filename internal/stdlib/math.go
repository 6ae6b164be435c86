package stdlib

import (
	"math"

	"aleng/internal/ast"
	"aleng/internal/runtime"
)

func unary(name string, f func(float64) float64) runtime.NativeFunc {
	return func(ev *runtime.Evaluator, args []runtime.Value, call *ast.CallExpr) (runtime.Value, error) {
		if err := expectArgs(ev, call, name, args, 1); err != nil {
			return nil, err
		}
		x, err := numberArg(ev, call, name, args[0])
		if err != nil {
			return nil, err
		}
		return runtime.Number(f(x)), nil
	}
}

// fold reduces one or more Number arguments with f.
func fold(name string, f func(a, b float64) float64) runtime.NativeFunc {
	return func(ev *runtime.Evaluator, args []runtime.Value, call *ast.CallExpr) (runtime.Value, error) {
		if len(args) == 0 {
			return nil, ev.Errorf(call, "%s() expects at least 1 argument", name)
		}
		acc, err := numberArg(ev, call, name, args[0])
		if err != nil {
			return nil, err
		}
		for _, a := range args[1:] {
			x, err := numberArg(ev, call, name, a)
			if err != nil {
				return nil, err
			}
			acc = f(acc, x)
		}
		return runtime.Number(acc), nil
	}
}

func newMathLibrary() *runtime.Library {
	return &runtime.Library{
		Functions: map[string]runtime.NativeFunc{
			"Sin":   unary("Sin", math.Sin),
			"Cos":   unary("Cos", math.Cos),
			"Tan":   unary("Tan", math.Tan),
			"Abs":   unary("Abs", math.Abs),
			"Floor": unary("Floor", math.Floor),
			"Ceil":  unary("Ceil", math.Ceil),
			"Round": unary("Round", math.Round),
			"Sqrt": func(ev *runtime.Evaluator, args []runtime.Value, call *ast.CallExpr) (runtime.Value, error) {
				if err := expectArgs(ev, call, "Sqrt", args, 1); err != nil {
					return nil, err
				}
				x, err := numberArg(ev, call, "Sqrt", args[0])
				if err != nil {
					return nil, err
				}
				if x < 0 {
					return nil, ev.Errorf(call, "Sqrt() of a negative number")
				}
				return runtime.Number(math.Sqrt(x)), nil
			},
			"Pow": func(ev *runtime.Evaluator, args []runtime.Value, call *ast.CallExpr) (runtime.Value, error) {
				if err := expectArgs(ev, call, "Pow", args, 2); err != nil {
					return nil, err
				}
				base, err := numberArg(ev, call, "Pow", args[0])
				if err != nil {
					return nil, err
				}
				exp, err := numberArg(ev, call, "Pow", args[1])
				if err != nil {
					return nil, err
				}
				return runtime.Number(math.Pow(base, exp)), nil
			},
			"Min": fold("Min", math.Min),
			"Max": fold("Max", math.Max),
		},
		Variables: map[string]runtime.Value{
			"PI": runtime.Number(math.Pi),
			"E":  runtime.Number(math.E),
		},
	}
}
