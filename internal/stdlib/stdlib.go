// Package stdlib provides the native libraries importable as std/*.
package stdlib

import (
	"fmt"
	"sort"

	"aleng/internal/ast"
	"aleng/internal/runtime"
)

// constructors builds a fresh instance of every library. Instances hold
// their own state, so two loaders never share test suites.
var constructors = map[string]func() *runtime.Library{
	"std/math": newMathLibrary,
	"std/test": newTestLibrary,
	"std/hash": newHashLibrary,
}

// Names returns the names of all available libraries, sorted.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register installs the named libraries into loader, or all of them when
// no name is given.
func Register(loader *runtime.ModuleLoader, names ...string) error {
	if len(names) == 0 {
		names = Names()
	}
	for _, name := range names {
		build, ok := constructors[name]
		if !ok {
			return fmt.Errorf("unknown native library %q", name)
		}
		loader.RegisterLibrary(name, build())
	}
	return nil
}

func builtin(name string) *runtime.Function {
	return &runtime.Function{Name: name, Builtin: true}
}

func expectArgs(ev *runtime.Evaluator, call *ast.CallExpr, name string, args []runtime.Value, n int) error {
	if len(args) != n {
		return ev.Errorf(call, "%s() expects %d argument(s), got %d", name, n, len(args))
	}
	return nil
}

func numberArg(ev *runtime.Evaluator, call *ast.CallExpr, name string, v runtime.Value) (float64, error) {
	n, ok := v.(runtime.Number)
	if !ok {
		return 0, ev.Errorf(call, "%s() expects a Number, got %s", name, v.TypeName())
	}
	return float64(n), nil
}

func stringArg(ev *runtime.Evaluator, call *ast.CallExpr, name string, v runtime.Value) (string, error) {
	s, ok := v.(runtime.String)
	if !ok {
		return "", ev.Errorf(call, "%s() expects a String, got %s", name, v.TypeName())
	}
	return string(s), nil
}
