package runtime

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"aleng/internal/ast"
)

// registerBuiltins adds the core native functions to the evaluator.
func registerBuiltins(ev *Evaluator) {
	ev.RegisterNative("Print", func(ev *Evaluator, args []Value, call *ast.CallExpr) (Value, error) {
		fmt.Fprintln(ev.out, ValuesString(args, " "))
		return Neutral, nil
	})

	ev.RegisterNative("PrintRaw", func(ev *Evaluator, args []Value, call *ast.CallExpr) (Value, error) {
		fmt.Fprint(ev.out, ValuesString(args, ""))
		return Neutral, nil
	})

	ev.RegisterNative("IsString", func(ev *Evaluator, args []Value, call *ast.CallExpr) (Value, error) {
		return allOfType(args, TypeString), nil
	})

	ev.RegisterNative("IsNumber", func(ev *Evaluator, args []Value, call *ast.CallExpr) (Value, error) {
		return allOfType(args, TypeNumber), nil
	})

	ev.RegisterNative("Type", func(ev *Evaluator, args []Value, call *ast.CallExpr) (Value, error) {
		if err := expectArgs(ev, call, "Type", args, 1); err != nil {
			return nil, err
		}
		return String(args[0].TypeName()), nil
	})

	ev.RegisterNative("ParseNumber", func(ev *Evaluator, args []Value, call *ast.CallExpr) (Value, error) {
		if err := expectArgs(ev, call, "ParseNumber", args, 1); err != nil {
			return nil, err
		}
		switch v := args[0].(type) {
		case Number:
			return v, nil
		case String:
			f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
			if err != nil {
				return nil, ev.Errorf(call, "ParseNumber() cannot parse %q as a Number", string(v))
			}
			return Number(f), nil
		}
		return nil, ev.Errorf(call, "ParseNumber() expects a String, got %s", args[0].TypeName())
	})

	ev.RegisterNative("Len", func(ev *Evaluator, args []Value, call *ast.CallExpr) (Value, error) {
		if err := expectArgs(ev, call, "Len", args, 1); err != nil {
			return nil, err
		}
		switch v := args[0].(type) {
		case String:
			return Number(len(v)), nil
		case *List:
			return Number(len(v.Elements)), nil
		case *Map:
			return Number(v.Len()), nil
		}
		return nil, ev.Errorf(call, "Len() not supported for type %s", args[0].TypeName())
	})

	ev.RegisterNative("Append", func(ev *Evaluator, args []Value, call *ast.CallExpr) (Value, error) {
		if len(args) < 1 {
			return nil, ev.Errorf(call, "Append() expects at least 1 argument, got 0")
		}
		list, ok := args[0].(*List)
		if !ok {
			return nil, ev.Errorf(call, "Append() first argument must be a List, got %s", args[0].TypeName())
		}
		list.Elements = append(list.Elements, args[1:]...)
		return list, nil
	})

	ev.RegisterNative("Pop", func(ev *Evaluator, args []Value, call *ast.CallExpr) (Value, error) {
		if err := expectArgs(ev, call, "Pop", args, 1); err != nil {
			return nil, err
		}
		list, ok := args[0].(*List)
		if !ok {
			return nil, ev.Errorf(call, "Pop() argument must be a List, got %s", args[0].TypeName())
		}
		if len(list.Elements) == 0 {
			return Bool(false), nil
		}
		last := list.Elements[len(list.Elements)-1]
		list.Elements[len(list.Elements)-1] = nil
		list.Elements = list.Elements[:len(list.Elements)-1]
		return last, nil
	})

	ev.RegisterNative("Keys", func(ev *Evaluator, args []Value, call *ast.CallExpr) (Value, error) {
		if err := expectArgs(ev, call, "Keys", args, 1); err != nil {
			return nil, err
		}
		m, ok := args[0].(*Map)
		if !ok {
			return nil, ev.Errorf(call, "Keys() argument must be a Map, got %s", args[0].TypeName())
		}
		keys := make([]Value, len(m.Keys))
		for i, k := range m.Keys {
			keys[i] = String(k)
		}
		return NewList(keys...), nil
	})

	ev.RegisterNative("Has", func(ev *Evaluator, args []Value, call *ast.CallExpr) (Value, error) {
		if err := expectArgs(ev, call, "Has", args, 2); err != nil {
			return nil, err
		}
		m, ok := args[0].(*Map)
		if !ok {
			return nil, ev.Errorf(call, "Has() first argument must be a Map, got %s", args[0].TypeName())
		}
		key, ok := args[1].(String)
		if !ok {
			return nil, ev.Errorf(call, "Has() key must be a String, got %s", args[1].TypeName())
		}
		_, found := m.Get(string(key))
		return Bool(found), nil
	})

	ev.RegisterNative("Assert", func(ev *Evaluator, args []Value, call *ast.CallExpr) (Value, error) {
		if err := expectArgs(ev, call, "Assert", args, 2); err != nil {
			return nil, err
		}
		cond, ok := args[0].(Bool)
		if !ok {
			return nil, ev.Errorf(call, "Assert() condition must be a Boolean, got %s", args[0].TypeName())
		}
		if !cond {
			return nil, ev.Errorf(call, "assertion failed: %s", args[1].String())
		}
		return Bool(true), nil
	})

	ev.RegisterNative("Error", func(ev *Evaluator, args []Value, call *ast.CallExpr) (Value, error) {
		if err := expectArgs(ev, call, "Error", args, 1); err != nil {
			return nil, err
		}
		return nil, ev.Errorf(call, "%s", args[0].String())
	})

	ev.RegisterNative("ReadFile", func(ev *Evaluator, args []Value, call *ast.CallExpr) (Value, error) {
		if err := expectArgs(ev, call, "ReadFile", args, 1); err != nil {
			return nil, err
		}
		name, ok := args[0].(String)
		if !ok {
			return nil, ev.Errorf(call, "ReadFile() path must be a String, got %s", args[0].TypeName())
		}
		path := string(name)
		if !filepath.IsAbs(path) {
			path = filepath.Join(ev.loader.Root(), path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, ev.Errorf(call, "ReadFile() failed: %v", err)
		}
		return String(data), nil
	})

	ev.RegisterNative("Exit", func(ev *Evaluator, args []Value, call *ast.CallExpr) (Value, error) {
		if len(args) == 0 {
			return nil, &ExitError{Code: 0}
		}
		code, ok := AsInt(args[0])
		if !ok || len(args) > 1 {
			return nil, ev.Errorf(call, "Exit() expects an optional integer status code")
		}
		return nil, &ExitError{Code: code}
	})
}

func expectArgs(ev *Evaluator, call *ast.CallExpr, name string, args []Value, n int) error {
	if len(args) != n {
		return ev.Errorf(call, "%s() expects %d argument(s), got %d", name, n, len(args))
	}
	return nil
}

func allOfType(args []Value, typ string) Value {
	for _, a := range args {
		if a.TypeName() != typ {
			return Bool(false)
		}
	}
	return Bool(len(args) > 0)
}
