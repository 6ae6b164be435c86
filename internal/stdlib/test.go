package stdlib

import (
	"errors"
	"fmt"

	"github.com/fatih/color"

	"aleng/internal/ast"
	"aleng/internal/runtime"
)

const assertPrefix = "std/test::Assert::"

type testCase struct {
	description string
	fn          *runtime.Function
}

type suite struct {
	name  string
	cases []testCase
}

// tester is the state of one std/test instance. Each suite gets its own
// pair of natives, named after the suite's id.
type tester struct {
	suites []*suite
}

var (
	boldColor = color.New(color.Bold)
	passColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
)

func newTestLibrary() *runtime.Library {
	t := &tester{}

	assert := runtime.NewMap()
	for _, name := range []string{"Equals", "Throws", "IsTrue", "IsFalse"} {
		assert.Set(name, builtin(assertPrefix+name))
	}

	return &runtime.Library{
		Functions: map[string]runtime.NativeFunc{
			"CreateSuite": t.createSuite,
		},
		Internal: map[string]runtime.NativeFunc{
			assertPrefix + "Equals":  assertEquals,
			assertPrefix + "Throws":  assertThrows,
			assertPrefix + "IsTrue":  assertTruth("IsTrue", true),
			assertPrefix + "IsFalse": assertTruth("IsFalse", false),
		},
		Variables: map[string]runtime.Value{
			"Assert": assert,
		},
	}
}

func (t *tester) createSuite(ev *runtime.Evaluator, args []runtime.Value, call *ast.CallExpr) (runtime.Value, error) {
	if err := expectArgs(ev, call, "CreateSuite", args, 1); err != nil {
		return nil, err
	}
	name, ok := args[0].(runtime.String)
	if !ok {
		return nil, ev.Errorf(call, "suite name must be a String")
	}

	s := &suite{name: string(name)}
	id := len(t.suites)
	t.suites = append(t.suites, s)

	prefix := fmt.Sprintf("std/test::suite%d::", id)
	ev.RegisterNative(prefix+"Add", s.add)
	ev.RegisterNative(prefix+"Run", s.run)

	obj := runtime.NewMap()
	obj.Set("Name", name)
	obj.Set("Add", builtin(prefix+"Add"))
	obj.Set("Run", builtin(prefix+"Run"))
	return obj, nil
}

func (s *suite) add(ev *runtime.Evaluator, args []runtime.Value, call *ast.CallExpr) (runtime.Value, error) {
	if err := expectArgs(ev, call, "Add", args, 2); err != nil {
		return nil, err
	}
	desc, ok := args[0].(runtime.String)
	if !ok {
		return nil, ev.Errorf(call, "first argument to Add() must be a String description")
	}
	fn, ok := args[1].(*runtime.Function)
	if !ok {
		return nil, ev.Errorf(call, "second argument to Add() must be a Function")
	}
	s.cases = append(s.cases, testCase{description: string(desc), fn: fn})
	return runtime.Neutral, nil
}

// run executes every test case and prints a report. A failing case does
// not stop the suite; the number of failures is returned.
func (s *suite) run(ev *runtime.Evaluator, args []runtime.Value, call *ast.CallExpr) (runtime.Value, error) {
	w := ev.Output()
	boldColor.Fprintf(w, "\n▶ Running suite: %s\n", s.name)

	passed, failed := 0, 0
	for _, tc := range s.cases {
		_, err := ev.Call(tc.fn, nil, call)
		if err == nil {
			passed++
			fmt.Fprintf(w, "  %s %s\n", passColor.Sprint("✔"), tc.description)
			continue
		}

		var exit *runtime.ExitError
		if errors.As(err, &exit) {
			return nil, err
		}
		failed++
		fmt.Fprintf(w, "  %s %s\n", failColor.Sprint("✖"), tc.description)
		var re *runtime.RuntimeError
		if errors.As(err, &re) {
			fmt.Fprintf(w, "    %s %s at %s\n", failColor.Sprint("[FAIL]"), re.Message, re.Span.Start)
		} else {
			fmt.Fprintf(w, "    %s %v\n", failColor.Sprint("[ERROR]"), err)
		}
	}

	fmt.Fprintln(w, "----------")
	boldColor.Fprintf(w, "Summary: %d tests passed, %d failed.\n", passed, failed)
	return runtime.Number(failed), nil
}

func assertEquals(ev *runtime.Evaluator, args []runtime.Value, call *ast.CallExpr) (runtime.Value, error) {
	if err := expectArgs(ev, call, "Assert.Equals", args, 3); err != nil {
		return nil, err
	}
	if !runtime.Equal(args[0], args[1]) {
		return nil, ev.Errorf(call, "%s", args[2].String())
	}
	return runtime.Bool(true), nil
}

// assertThrows succeeds when calling the function raises a language error.
func assertThrows(ev *runtime.Evaluator, args []runtime.Value, call *ast.CallExpr) (runtime.Value, error) {
	if err := expectArgs(ev, call, "Assert.Throws", args, 2); err != nil {
		return nil, err
	}
	fn, ok := args[0].(*runtime.Function)
	if !ok {
		return nil, ev.Errorf(call, "first argument to Throws() must be a Function")
	}
	_, err := ev.Call(fn, nil, call)
	var re *runtime.RuntimeError
	switch {
	case err == nil:
		return nil, ev.Errorf(call, "%s", args[1].String())
	case errors.As(err, &re):
		return runtime.Bool(true), nil
	}
	return nil, err
}

func assertTruth(name string, want bool) runtime.NativeFunc {
	return func(ev *runtime.Evaluator, args []runtime.Value, call *ast.CallExpr) (runtime.Value, error) {
		if err := expectArgs(ev, call, "Assert."+name, args, 2); err != nil {
			return nil, err
		}
		if runtime.IsTruthy(args[0]) != want {
			return nil, ev.Errorf(call, "%s", args[1].String())
		}
		return runtime.Bool(true), nil
	}
}
