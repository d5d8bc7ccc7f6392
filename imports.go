package rustscript

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// evalImport runs the imported file in a fresh global scope and copies the
// requested exports into scope. Each file is evaluated once per import
// statement; parsed files are shared through the import cache.
func (in *Interpreter) evalImport(e *ImportExpr, scope *Scope) (Value, error) {
	path := e.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(scope.SourceDir(), path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &Error{Code: ErrCodeImport, Message: "cannot resolve " + e.Path, Cause: err}
	}
	for i, p := range in.importing {
		if p == abs {
			chain := append(append([]string{}, in.importing[i:]...), abs)
			return nil, &Error{
				Code:    ErrCodeImport,
				Message: "import cycle: " + strings.Join(chain, " -> "),
				Value:   e.Path,
			}
		}
	}
	data, err := in.files.ReadFile(abs)
	if err != nil {
		return nil, &Error{Code: ErrCodeImport, Message: "cannot read " + e.Path, Value: e.Path, Cause: err}
	}
	exprs, cached, err := in.parseFile(abs, string(data))
	if err != nil {
		return nil, &Error{Code: ErrCodeImport, Message: "cannot parse " + e.Path, Value: e.Path, Cause: err}
	}
	child, err := in.spawn(abs)
	if err != nil {
		return nil, &Error{Code: ErrCodeImport, Message: "cannot load " + e.Path, Value: e.Path, Cause: err}
	}
	for _, expr := range exprs {
		if _, err := child.eval(expr, child.global); err != nil {
			return nil, &Error{Code: ErrCodeImport, Message: "error in " + e.Path, Value: e.Path, Cause: err}
		}
	}
	exports := child.global.Exports()
	for _, name := range e.Names {
		v, ok := exports[name]
		if !ok {
			return nil, &Error{
				Code:    ErrCodeImport,
				Message: fmt.Sprintf("%s does not export %s", e.Path, name),
				Value:   name,
				Details: []string{"exported: " + strings.Join(sortedKeys(exports), ", ")},
			}
		}
		scope.define(name, v, false)
	}
	if in.cfg.LogEvaluation {
		in.logger.Info().
			Str("path", abs).
			Str("names", strings.Join(e.Names, ",")).
			Str("cache", cacheState(cached)).
			Msg("imported")
	}
	return Unit{}, nil
}

// spawn returns an interpreter for evaluating the file at abs. It shares
// in's collaborators and import cache but owns its global scope.
func (in *Interpreter) spawn(abs string) (*Interpreter, error) {
	child := &Interpreter{
		cfg:          in.cfg,
		logger:       in.logger,
		stdout:       in.stdout,
		stdin:        in.stdin,
		files:        in.files,
		cache:        in.cache,
		sourceDir:    filepath.Dir(abs),
		preludeFiles: in.preludeFiles,
		depth:        in.depth,
		importing:    append(append([]string{}, in.importing...), abs),
	}
	global, err := child.NewGlobalScope(child.sourceDir)
	if err != nil {
		return nil, err
	}
	child.global = global
	return child, nil
}

// parseFile parses src, consulting the import cache. The key covers the
// content so an edited file is parsed again.
func (in *Interpreter) parseFile(path, src string) ([]Expr, bool, error) {
	key := path + "\x00" + src
	if in.cache != nil {
		if v, ok := in.cache.Get(key); ok {
			if exprs, ok := v.([]Expr); ok {
				return exprs, true, nil
			}
		}
	}
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, false, err
	}
	exprs, err := newParser(tokens, in.cfg.MaxExpressionDepth).ParseAll()
	if err != nil {
		return nil, false, err
	}
	if in.cache != nil {
		in.cache.Set(key, exprs, 1)
		in.cache.Wait()
	}
	return exprs, false, nil
}

func cacheState(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

func sortedKeys(m map[string]Value) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
