package rustscript

import (
	"bufio"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/oarkflow/log"
)

// CallContext carries the collaborators a builtin may use.
type CallContext struct {
	Stdout io.Writer
	Stdin  *bufio.Reader
	Logger *log.Logger
	Scope  *Scope
	// Name is the name the builtin was called by.
	Name string
}

// ProgramFunction is a builtin. It receives evaluated arguments and does
// its own arity and type checks.
type ProgramFunction func(ctx *CallContext, args []Value) (Value, error)

type functionRegistry struct {
	mu        sync.RWMutex
	functions map[string]ProgramFunction
	opts      FunctionRegistryOptions
}

type FunctionRegistryOptions struct {
	AllowOverride bool
	Frozen        bool
}

var (
	functionRegistryInitOnce sync.Once
	defaultFunctionRegistry  = &functionRegistry{
		functions: make(map[string]ProgramFunction),
		opts: FunctionRegistryOptions{
			AllowOverride: false,
			Frozen:        false,
		},
	}
)

// RegisterFunction adds a builtin to every global scope created afterwards.
// Registration errors are ignored; use RegisterFunctionE to see them.
func RegisterFunction(name string, fn ProgramFunction) {
	ensureFunctionRegistryInitialized()
	_ = defaultFunctionRegistry.register(name, fn, false)
}

func RegisterFunctionE(name string, fn ProgramFunction) error {
	ensureFunctionRegistryInitialized()
	return defaultFunctionRegistry.register(name, fn, false)
}

func UnregisterFunction(name string) error {
	ensureFunctionRegistryInitialized()
	return defaultFunctionRegistry.unregister(name)
}

func SetFunctionRegistryOptions(opts FunctionRegistryOptions) {
	ensureFunctionRegistryInitialized()
	defaultFunctionRegistry.mu.Lock()
	defaultFunctionRegistry.opts = opts
	defaultFunctionRegistry.mu.Unlock()
}

func GetFunctionRegistryOptions() FunctionRegistryOptions {
	ensureFunctionRegistryInitialized()
	defaultFunctionRegistry.mu.RLock()
	defer defaultFunctionRegistry.mu.RUnlock()
	return defaultFunctionRegistry.opts
}

func FreezeFunctionRegistry() {
	ensureFunctionRegistryInitialized()
	defaultFunctionRegistry.mu.Lock()
	defaultFunctionRegistry.opts.Frozen = true
	defaultFunctionRegistry.mu.Unlock()
}

func UnfreezeFunctionRegistry() {
	ensureFunctionRegistryInitialized()
	defaultFunctionRegistry.mu.Lock()
	defaultFunctionRegistry.opts.Frozen = false
	defaultFunctionRegistry.mu.Unlock()
}

func LookupFunction(name string) (ProgramFunction, bool) {
	ensureFunctionRegistryInitialized()
	defaultFunctionRegistry.mu.RLock()
	defer defaultFunctionRegistry.mu.RUnlock()
	fn, ok := defaultFunctionRegistry.functions[strings.TrimSpace(name)]
	return fn, ok
}

// FunctionNames lists the registered builtins, sorted.
func FunctionNames() []string {
	ensureFunctionRegistryInitialized()
	defaultFunctionRegistry.mu.RLock()
	defer defaultFunctionRegistry.mu.RUnlock()
	out := make([]string, 0, len(defaultFunctionRegistry.functions))
	for name := range defaultFunctionRegistry.functions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func ensureFunctionRegistryInitialized() {
	functionRegistryInitOnce.Do(registerDefaultFunctions)
}

// snapshot copies the table so a global scope is unaffected by later
// registrations.
func (r *functionRegistry) snapshot() map[string]ProgramFunction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]ProgramFunction, len(r.functions))
	for k, v := range r.functions {
		out[k] = v
	}
	return out
}

func (r *functionRegistry) register(name string, fn ProgramFunction, internal bool) error {
	n := strings.TrimSpace(name)
	if n == "" || fn == nil || !isValidIdentifier(n) {
		return &Error{Code: ErrCodeRegistry, Message: "invalid function registration: " + name}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.opts.Frozen && !internal {
		return &Error{Code: ErrCodeRegistry, Message: "function registry is frozen"}
	}
	if _, exists := r.functions[n]; exists && !r.opts.AllowOverride && !internal {
		return &Error{Code: ErrCodeRegistry, Message: "function already exists: " + n}
	}
	r.functions[n] = fn
	return nil
}

func (r *functionRegistry) unregister(name string) error {
	n := strings.TrimSpace(name)
	if n == "" {
		return &Error{Code: ErrCodeRegistry, Message: "invalid function name"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.opts.Frozen {
		return &Error{Code: ErrCodeRegistry, Message: "function registry is frozen"}
	}
	if _, exists := r.functions[n]; !exists {
		return &Error{Code: ErrCodeRegistry, Message: "function does not exist: " + n}
	}
	delete(r.functions, n)
	return nil
}

func isValidIdentifier(name string) bool {
	for i, r := range name {
		if i == 0 && !isIdentStart(r) {
			return false
		}
		if !isIdentChar(r) {
			return false
		}
	}
	return lookupKeyword(name) == IDENT
}
