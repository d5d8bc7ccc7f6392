package rustscript

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/ristretto"
	"github.com/oarkflow/log"

	"github.com/oarkflow/rustscript/pkg/source"
)

// FileReader loads script sources for imports and prelude files.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// Interpreter evaluates RustScript source against a global scope. An
// Interpreter is not safe for concurrent use; create one per goroutine.
type Interpreter struct {
	cfg    RuntimeConfig
	logger *log.Logger
	stdout io.Writer
	stdin  *bufio.Reader
	files  FileReader
	cache  *ristretto.Cache

	sourceDir    string
	preludeFiles []string

	global    *Scope
	depth     int
	importing []string
}

var (
	preludeOnce  sync.Once
	preludeExprs []Expr
	preludeErr   error
)

func New(opts ...Option) (*Interpreter, error) {
	in := &Interpreter{
		cfg:    GetRuntimeConfig(),
		logger: &log.DefaultLogger,
		stdout: os.Stdout,
		stdin:  bufio.NewReader(os.Stdin),
		files:  source.NewLocal(source.LocalOptions{}),
	}
	for _, opt := range opts {
		if err := opt(in); err != nil {
			return nil, err
		}
	}
	if err := in.cfg.Validate(); err != nil {
		return nil, err
	}
	if in.cfg.ImportCacheSize > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters:        in.cfg.ImportCacheSize * 10,
			MaxCost:            in.cfg.ImportCacheSize,
			BufferItems:        64,
			IgnoreInternalCost: true,
		})
		if err != nil {
			return nil, fmt.Errorf("import cache: %w", err)
		}
		in.cache = cache
	}
	global, err := in.NewGlobalScope(in.sourceDir)
	if err != nil {
		return nil, err
	}
	in.global = global
	return in, nil
}

// NewGlobalScope creates an interpreter from opts and returns its global
// scope, with builtins and the prelude installed.
func NewGlobalScope(opts ...Option) (*Scope, error) {
	in, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return in.Global(), nil
}

// Evaluate evaluates every statement of source in scope and returns the
// value of the last one.
func Evaluate(source string, scope *Scope) (Value, error) {
	in, err := interpreterOf(scope)
	if err != nil {
		return nil, err
	}
	return in.Evaluate(source, scope)
}

// EvaluateAll evaluates source statement by statement and returns every
// value produced before the first error.
func EvaluateAll(source string, scope *Scope) ([]Value, error) {
	in, err := interpreterOf(scope)
	if err != nil {
		return nil, err
	}
	return in.EvaluateAll(source, scope)
}

func interpreterOf(scope *Scope) (*Interpreter, error) {
	if scope == nil {
		return nil, evalError(ErrCodeUndefinedVariable, "scope is nil")
	}
	g := scope.state()
	if g == nil || g.interp == nil {
		return nil, evalError(ErrCodeUndefinedVariable, "scope %s has no interpreter", scope.Name())
	}
	return g.interp, nil
}

func (in *Interpreter) Global() *Scope        { return in.global }
func (in *Interpreter) Config() RuntimeConfig { return in.cfg }

// NewGlobalScope returns a fresh root scope owned by in. Relative imports
// evaluated in it resolve against sourceDir.
func (in *Interpreter) NewGlobalScope(sourceDir string) (*Scope, error) {
	ensureFunctionRegistryInitialized()
	scope := newScope("global", nil)
	scope.global = &globalState{
		interp:    in,
		functions: defaultFunctionRegistry.snapshot(),
		sourceDir: sourceDir,
		exports:   make(map[string]Value),
	}
	preludeOnce.Do(func() {
		preludeExprs, preludeErr = newParser(mustTokenize(prelude), 0).ParseAll()
	})
	if preludeErr != nil {
		return nil, preludeErr
	}
	for _, expr := range preludeExprs {
		if _, err := in.eval(expr, scope); err != nil {
			return nil, err
		}
	}
	for _, path := range in.preludeFiles {
		data, err := in.files.ReadFile(path)
		if err != nil {
			return nil, &Error{Code: ErrCodeImport, Message: "cannot read prelude " + path, Cause: err}
		}
		if _, err := in.EvaluateAll(string(data), scope); err != nil {
			return nil, &Error{Code: ErrCodeImport, Message: "prelude " + path, Cause: err}
		}
	}
	if in.cfg.LogEvaluation {
		in.logger.Info().Str("scope", scope.ID()).Str("source_dir", sourceDir).Msg("global scope created")
	}
	return scope, nil
}

// Reset discards every binding made in the global scope.
func (in *Interpreter) Reset() error {
	global, err := in.NewGlobalScope(in.sourceDir)
	if err != nil {
		return err
	}
	in.global = global
	in.depth = 0
	return nil
}

func (in *Interpreter) Evaluate(source string, scope *Scope) (Value, error) {
	var last Value = Unit{}
	err := in.stream(source, scope, func(v Value) {
		last = v
	})
	if err != nil {
		return nil, err
	}
	return last, nil
}

func (in *Interpreter) EvaluateAll(source string, scope *Scope) ([]Value, error) {
	var out []Value
	err := in.stream(source, scope, func(v Value) {
		out = append(out, v)
	})
	return out, err
}

// EvaluateFile runs the script at path in the global scope. Imports made
// by the script resolve against the script's directory.
func (in *Interpreter) EvaluateFile(path string) ([]Value, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	data, err := in.files.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	g := in.global.state()
	prevDir, prevImporting := g.sourceDir, in.importing
	g.sourceDir = filepath.Dir(abs)
	in.importing = append(append([]string{}, in.importing...), abs)
	defer func() {
		g.sourceDir = prevDir
		in.importing = prevImporting
	}()
	return in.EvaluateAll(string(data), in.global)
}

// stream parses one statement at a time and evaluates it before parsing
// the next, so earlier statements take effect even when a later one is
// malformed.
func (in *Interpreter) stream(source string, scope *Scope, emit func(Value)) error {
	if scope == nil {
		scope = in.global
	}
	tokens, err := Tokenize(source)
	if err != nil {
		in.logFailure(0, err)
		return err
	}
	p := newParser(tokens, in.cfg.MaxExpressionDepth)
	for stmt := 0; p.More(); stmt++ {
		expr, err := p.ParseStatement()
		if err != nil {
			in.logFailure(stmt, err)
			return err
		}
		v, err := in.eval(expr, scope)
		if err != nil {
			in.logFailure(stmt, err)
			return err
		}
		emit(v)
	}
	return nil
}

func (in *Interpreter) logFailure(stmt int, err error) {
	if !in.cfg.LogEvaluation {
		return
	}
	in.logger.Error().
		Int("statement", stmt).
		Str("code", string(CodeOf(err))).
		Err(err).
		Msg("evaluation failed")
}

func mustTokenize(src string) []Token {
	tokens, err := Tokenize(src)
	if err != nil {
		panic(err)
	}
	return tokens
}
