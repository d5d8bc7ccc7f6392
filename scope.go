package rustscript

import (
	"sort"
	"sync"

	"github.com/oarkflow/xid"
)

// Scope is one link of the environment chain. Module scopes additionally
// keep a private partition that is only visible from inside the module.
type Scope struct {
	id     string
	name   string
	parent *Scope
	module bool

	mu      sync.RWMutex
	vars    map[string]Value
	private map[string]Value

	// global is set on the root scope only.
	global *globalState
}

type globalState struct {
	interp    *Interpreter
	functions map[string]ProgramFunction
	sourceDir string

	mu      sync.RWMutex
	exports map[string]Value
}

func newScope(name string, parent *Scope) *Scope {
	return &Scope{
		id:     xid.New().String(),
		name:   name,
		parent: parent,
		vars:   make(map[string]Value),
	}
}

func newModuleScope(name string, parent *Scope) *Scope {
	s := newScope(name, parent)
	s.module = true
	s.private = make(map[string]Value)
	return s
}

func (s *Scope) ID() string     { return s.id }
func (s *Scope) Name() string   { return s.name }
func (s *Scope) Parent() *Scope { return s.parent }
func (s *Scope) IsGlobal() bool { return s.global != nil }
func (s *Scope) IsModule() bool { return s.module }

func (s *Scope) Child(name string) *Scope {
	return newScope(name, s)
}

// Get resolves name by walking parent links up to the root.
func (s *Scope) Get(name string) (Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.local(name, true); ok {
			return v, true
		}
	}
	return nil, false
}

func (s *Scope) local(name string, withPrivate bool) (Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.vars[name]; ok {
		return v, true
	}
	if s.module && withPrivate {
		v, ok := s.private[name]
		return v, ok
	}
	return nil, false
}

// Set binds name in this scope, shadowing any outer binding. In a module
// scope Set writes the public partition.
func (s *Scope) Set(name string, v Value) {
	s.mu.Lock()
	s.vars[name] = v
	s.mu.Unlock()
}

func (s *Scope) define(name string, v Value, public bool) {
	if !s.module || public {
		s.Set(name, v)
		return
	}
	s.mu.Lock()
	s.private[name] = v
	s.mu.Unlock()
}

// member looks name up in module scope s. Private members are visible
// only when from is s itself or nested inside it.
func (s *Scope) member(name string, from *Scope) (Value, bool) {
	return s.local(name, from != nil && from.within(s))
}

func (s *Scope) within(ancestor *Scope) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// Names lists the bindings visible in this scope alone, sorted.
func (s *Scope) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.vars)+len(s.private))
	for k := range s.vars {
		out = append(out, k)
	}
	for k := range s.private {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *Scope) root() *Scope {
	cur := s
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

func (s *Scope) state() *globalState {
	return s.root().global
}

// SourceDir is the directory relative imports are resolved against.
func (s *Scope) SourceDir() string {
	if g := s.state(); g != nil {
		return g.sourceDir
	}
	return ""
}

func (s *Scope) function(name string) (ProgramFunction, bool) {
	g := s.state()
	if g == nil {
		return nil, false
	}
	fn, ok := g.functions[name]
	return fn, ok
}

func (s *Scope) export(name string, v Value) {
	g := s.state()
	if g == nil {
		return
	}
	g.mu.Lock()
	g.exports[name] = v
	g.mu.Unlock()
}

// Exports returns a copy of the names marked `pub` at the top level.
func (s *Scope) Exports() map[string]Value {
	out := make(map[string]Value)
	g := s.state()
	if g == nil {
		return out
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	for k, v := range g.exports {
		out[k] = v
	}
	return out
}
