package runtime

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"aleng/internal/ast"
	"aleng/internal/diag"
	"aleng/internal/parser"
)

// Library is a native module: Go callbacks plus constant values.
// Functions are exported under their map key. Internal functions are
// registered with the evaluator but left out of the export map; they back
// values such as maps of builtins stored in Variables.
type Library struct {
	Functions map[string]NativeFunc
	Internal  map[string]NativeFunc
	Variables map[string]Value
}

// ModuleLoader resolves Import expressions to export maps. Results are
// cached per loader, so importing a module twice yields the same Map.
type ModuleLoader struct {
	root      string
	libraries map[string]*Library
	cache     map[string]*Map
	loading   []string
}

// NewModuleLoader returns a loader resolving file modules relative to root.
func NewModuleLoader(root string) *ModuleLoader {
	return &ModuleLoader{
		root:      root,
		libraries: make(map[string]*Library),
		cache:     make(map[string]*Map),
	}
}

// Root returns the directory file modules are resolved against.
func (ml *ModuleLoader) Root() string { return ml.root }

// RegisterLibrary makes a native library importable under name.
func (ml *ModuleLoader) RegisterLibrary(name string, lib *Library) {
	ml.libraries[name] = lib
}

// Libraries returns the registered native library names, sorted.
func (ml *ModuleLoader) Libraries() []string {
	names := make([]string, 0, len(ml.libraries))
	for name := range ml.libraries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load returns the export map of the named module, loading it on first use.
func (ml *ModuleLoader) Load(name string, site *ast.ImportExpr, ev *Evaluator) (Value, error) {
	lib, native := ml.libraries[name]
	if native {
		// Re-registering is harmless and keeps natives available to an
		// evaluator that shares this loader but has not imported yet.
		registerLibrary(ev, lib)
	}
	if m, ok := ml.cache[name]; ok {
		return m, nil
	}

	if native {
		m := NewMap()
		for _, fname := range sortedKeys(lib.Functions) {
			m.Set(fname, &Function{Name: fname, Builtin: true})
		}
		for _, vname := range sortedKeys(lib.Variables) {
			m.Set(vname, lib.Variables[vname])
		}
		ml.cache[name] = m
		return m, nil
	}

	for i, loading := range ml.loading {
		if loading == name {
			chain := append(append([]string(nil), ml.loading[i:]...), name)
			return nil, runtimeErr(spanOf(site), "import cycle: %s", strings.Join(chain, " -> "))
		}
	}

	m, err := ml.loadFile(name, site, ev)
	if err != nil {
		return nil, err
	}
	ml.cache[name] = m
	return m, nil
}

func (ml *ModuleLoader) loadFile(name string, site *ast.ImportExpr, ev *Evaluator) (*Map, error) {
	path := filepath.Join(ml.root, filepath.FromSlash(name)+".aleng")
	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, runtimeErr(spanOf(site), "module '%s' not found (looked for %s)", name, path)
		}
		return nil, runtimeErr(spanOf(site), "module '%s': %v", name, err)
	}

	prog, diags := parser.Parse(string(src), path)
	if errs := diag.Errors(diags); len(errs) > 0 {
		first := errs[0]
		msg := fmt.Sprintf("in module '%s': %s", name, first.Message)
		if len(errs) > 1 {
			msg += fmt.Sprintf(" (and %d more)", len(errs)-1)
		}
		return nil, &RuntimeError{Message: msg, Span: first.Span}
	}

	ml.loading = append(ml.loading, name)
	defer func() { ml.loading = ml.loading[:len(ml.loading)-1] }()

	moduleScope := NewScope()
	saved := ev.scopes
	ev.scopes = []*Scope{moduleScope}
	defer func() { ev.scopes = saved }()

	if _, err := ev.Run(prog); err != nil {
		var re *RuntimeError
		if errors.As(err, &re) {
			return nil, &RuntimeError{Message: fmt.Sprintf("in module '%s': %s", name, re.Message), Span: re.Span}
		}
		return nil, err
	}
	return moduleScope.Export(), nil
}

func registerLibrary(ev *Evaluator, lib *Library) {
	for name, fn := range lib.Functions {
		ev.RegisterNative(name, fn)
	}
	for name, fn := range lib.Internal {
		ev.RegisterNative(name, fn)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
