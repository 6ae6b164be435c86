package runtime

// Scope is one shared, mutable table of bindings. Closures hold pointers
// to the scopes that were live where they were defined, so a write through
// any holder is seen by all of them.
type Scope struct {
	names  []string
	values map[string]Value
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{values: make(map[string]Value)}
}

// Get returns the value bound to name in this scope only.
func (s *Scope) Get(name string) (Value, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Has reports whether name is bound in this scope.
func (s *Scope) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Set binds name, keeping the position of an existing binding.
func (s *Scope) Set(name string, v Value) {
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = v
}

// Export copies the bindings into a new Map, in definition order.
func (s *Scope) Export() *Map {
	m := NewMap()
	for _, name := range s.names {
		m.Set(name, s.values[name])
	}
	return m
}

// ---- scope chain ----

func (ev *Evaluator) current() *Scope {
	if len(ev.scopes) == 0 {
		panic(&InternalError{Message: "scope chain is empty"})
	}
	return ev.scopes[len(ev.scopes)-1]
}

func (ev *Evaluator) pushScope() {
	ev.scopes = append(ev.scopes, NewScope())
}

// popScope removes the innermost scope. The chain is never allowed to
// become empty.
func (ev *Evaluator) popScope() {
	if len(ev.scopes) <= 1 {
		panic(&InternalError{Message: "attempt to pop the last scope"})
	}
	ev.scopes[len(ev.scopes)-1] = nil
	ev.scopes = ev.scopes[:len(ev.scopes)-1]
}

// captureScopes snapshots the chain for a closure. The slice is copied; the
// scopes it points to are shared.
func (ev *Evaluator) captureScopes() []*Scope {
	return append([]*Scope(nil), ev.scopes...)
}

// lookup walks the chain from innermost to outermost.
func (ev *Evaluator) lookup(name string) (Value, bool) {
	for i := len(ev.scopes) - 1; i >= 0; i-- {
		if v, ok := ev.scopes[i].Get(name); ok {
			return v, true
		}
	}
	return nil, false
}

// assign mutates the innermost existing binding of name, or defines it in
// the current scope when no scope binds it.
func (ev *Evaluator) assign(name string, v Value) {
	for i := len(ev.scopes) - 1; i >= 0; i-- {
		if ev.scopes[i].Has(name) {
			ev.scopes[i].Set(name, v)
			return
		}
	}
	ev.current().Set(name, v)
}

// define binds name in the current scope.
func (ev *Evaluator) define(name string, v Value) {
	ev.current().Set(name, v)
}
