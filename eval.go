package rustscript

import (
	"fmt"
	"strings"
)

// Eval evaluates a parsed tree against scope.
func (in *Interpreter) Eval(expr Expr, scope *Scope) (Value, error) {
	return in.eval(expr, scope)
}

func (in *Interpreter) eval(expr Expr, scope *Scope) (Value, error) {
	switch e := expr.(type) {
	case *AtomicExpr:
		return in.evalAtomic(e, scope)
	case *PrefixExpr:
		return in.evalPrefix(e, scope)
	case *BinaryExpr:
		return in.evalBinary(e, scope)
	case *IfExpr:
		return in.evalIf(e, scope)
	case *BlockExpr:
		return in.evalBlock(e, scope)
	case *MatchExpr:
		return in.evalMatch(e, scope)
	case *MatchCaseExpr:
		subject, err := in.eval(e.Subject, scope)
		if err != nil {
			return nil, err
		}
		r, err := in.evalCase(e, subject, scope)
		if err != nil {
			return nil, err
		}
		if !r.matched {
			return nil, noMatch(subject, e.Span().Pos)
		}
		return r.val, nil
	case *LambdaCall:
		return in.evalCall(e, scope)
	case *AssignExpr:
		return in.evalAssign(e, scope, false)
	case *VariationExpr:
		return in.evalVariation(e, scope)
	case *ModuleExpr:
		return in.evalModule(e, scope, false)
	case *ImportExpr:
		v, err := in.evalImport(e, scope)
		return v, at(err, e.Span().Pos)
	case *PublicExpr:
		return in.evalPublic(e, scope)
	}
	return nil, evalError(ErrCodeType, "cannot evaluate %T", expr)
}

func (in *Interpreter) elementEval(scope *Scope) elementEval {
	return func(e Expr) (Value, error) {
		return in.eval(e, scope)
	}
}

func (in *Interpreter) evalAtomic(e *AtomicExpr, scope *Scope) (Value, error) {
	switch v := e.Value.(type) {
	case Ident:
		if val, ok := scope.Get(string(v)); ok {
			return val, nil
		}
		return nil, undefined(string(v), e.Span().Pos)
	case IdentList:
		val, err := in.resolvePath(v, scope)
		return val, at(err, e.Span().Pos)
	case List:
		if settled(v) {
			return v, nil
		}
		elems := make([]Expr, len(v.Elems))
		for i, el := range v.Elems {
			val, err := in.eval(el, scope)
			if err != nil {
				return nil, err
			}
			elems[i] = atom(val)
		}
		return List{Elems: elems}, nil
	case *Lambda:
		if v.bound() {
			return v, nil
		}
		return v.bind(scope), nil
	}
	return e.Value, nil
}

// settled reports whether evaluating l would reproduce it unchanged.
func settled(l List) bool {
	for _, el := range l.Elems {
		a, ok := el.(*AtomicExpr)
		if !ok {
			return false
		}
		switch v := a.Value.(type) {
		case Int, Float, Bool, Char, Unit, *Module:
		case List:
			if !settled(v) {
				return false
			}
		case *Lambda:
			if !v.bound() {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// resolvePath follows a dotted path through module values. Private
// members are reachable only from scopes nested inside their module.
func (in *Interpreter) resolvePath(path IdentList, scope *Scope) (Value, error) {
	if len(path.Path) == 0 {
		return nil, evalError(ErrCodeUndefinedVariable, "empty identifier path")
	}
	cur, ok := scope.Get(path.Path[0])
	if !ok {
		return nil, undefined(path.Path[0], Position{})
	}
	for i := 1; i < len(path.Path); i++ {
		prefix := strings.Join(path.Path[:i], ".")
		mod, ok := cur.(*Module)
		if !ok {
			return nil, &Error{
				Code:    ErrCodeUndefinedMember,
				Message: fmt.Sprintf("%s is not a module, cannot access %s", prefix, path.Path[i]),
				Value:   cur.String(),
			}
		}
		member, ok := mod.Scope.member(path.Path[i], scope)
		if !ok {
			return nil, &Error{
				Code:    ErrCodeUndefinedMember,
				Message: fmt.Sprintf("module %s has no public member %s", prefix, path.Path[i]),
				Value:   path.String(),
			}
		}
		cur = member
	}
	return cur, nil
}

func (in *Interpreter) evalPrefix(e *PrefixExpr, scope *Scope) (Value, error) {
	right, err := in.eval(e.Right, scope)
	if err != nil {
		return nil, err
	}
	var v Value
	switch e.Op {
	case Negate:
		v, err = negate(right)
	case Head:
		v, err = head(right, in.elementEval(scope))
	case Tail:
		v, err = tail(right)
	default:
		err = evalError(ErrCodeType, "unknown prefix operator %s", e.Op)
	}
	if err != nil {
		return nil, at(err, e.Span().Pos)
	}
	return v, nil
}

// evalBinary evaluates both operands before applying the operator, for
// && and || too.
func (in *Interpreter) evalBinary(e *BinaryExpr, scope *Scope) (Value, error) {
	lhs, err := in.eval(e.Left, scope)
	if err != nil {
		return nil, err
	}
	rhs, err := in.eval(e.Right, scope)
	if err != nil {
		return nil, err
	}
	v, err := binaryOp(e.Op, lhs, rhs, in.elementEval(scope))
	if err != nil {
		return nil, at(err, e.Span().Pos)
	}
	return v, nil
}

func (in *Interpreter) evalIf(e *IfExpr, scope *Scope) (Value, error) {
	cond, err := in.eval(e.Cond, scope)
	if err != nil {
		return nil, err
	}
	ok, err := Truthy(cond)
	if err != nil {
		return nil, at(err, e.Cond.Span().Pos)
	}
	if ok {
		return in.eval(e.Then, scope)
	}
	return in.eval(e.Else, scope)
}

func (in *Interpreter) evalBlock(e *BlockExpr, scope *Scope) (Value, error) {
	child := scope.Child("block")
	var last Value = Unit{}
	for _, stmt := range e.Exprs {
		v, err := in.eval(stmt, child)
		if err != nil {
			return nil, err
		}
		last = v
	}
	return last, nil
}

func (in *Interpreter) evalMatch(e *MatchExpr, scope *Scope) (Value, error) {
	subject, err := in.eval(e.Subject, scope)
	if err != nil {
		return nil, err
	}
	for _, c := range e.Cases {
		r, err := in.evalCase(c, subject, scope)
		if err != nil {
			return nil, err
		}
		if r.matched {
			return r.val, nil
		}
	}
	return nil, noMatch(subject, e.Span().Pos)
}

func (in *Interpreter) evalCase(c *MatchCaseExpr, subject Value, scope *Scope) (matchResult, error) {
	child := scope.Child("match")
	child.Set(c.Pattern, subject)
	if c.Guard != nil {
		g, err := in.eval(c.Guard, child)
		if err != nil {
			return matchResult{}, err
		}
		ok, err := Truthy(g)
		if err != nil {
			return matchResult{}, at(err, c.Guard.Span().Pos)
		}
		if !ok {
			return matchResult{}, nil
		}
	}
	v, err := in.eval(c.Body, child)
	if err != nil {
		return matchResult{}, err
	}
	return matchResult{matched: true, val: v}, nil
}

func (in *Interpreter) evalCall(e *LambdaCall, scope *Scope) (Value, error) {
	pos := e.Span().Pos
	switch callee := e.Callee.(type) {
	case Ident:
		name := string(callee)
		v, bound := scope.Get(name)
		if lam, ok := v.(*Lambda); bound && ok {
			return in.callLambda(lam, e, scope)
		}
		if fn, ok := scope.function(name); ok {
			return in.callBuiltin(fn, name, e, scope)
		}
		if bound {
			return nil, &Error{Code: ErrCodeType, Message: name + " is not a function", Op: name, Value: v.String(), Pos: pos}
		}
		err := undefined(name, pos)
		err.Message = "undefined function " + name
		return nil, err
	case IdentList:
		v, err := in.resolvePath(callee, scope)
		if err != nil {
			return nil, at(err, pos)
		}
		lam, ok := v.(*Lambda)
		if !ok {
			return nil, &Error{Code: ErrCodeType, Message: callee.String() + " is not a function", Op: callee.String(), Value: v.String(), Pos: pos}
		}
		return in.callLambda(lam, e, scope)
	}
	return nil, &Error{Code: ErrCodeType, Message: "cannot call " + e.Callee.String(), Pos: pos}
}

// callLambda evaluates the arguments in the caller's scope and the body in
// a new child of the variation's closure scope.
func (in *Interpreter) callLambda(lam *Lambda, e *LambdaCall, caller *Scope) (Value, error) {
	vr, ok := lam.Variation(len(e.Args))
	if !ok {
		return nil, &Error{
			Code:    ErrCodeArity,
			Message: fmt.Sprintf("%s has no variation taking %d argument(s)", lam.displayName(), len(e.Args)),
			Op:      lam.displayName(),
			Details: []string{fmt.Sprintf("defined arities: %v", lam.Arities())},
			Pos:     e.Span().Pos,
		}
	}
	args, err := in.evalArgs(e.Args, caller)
	if err != nil {
		return nil, err
	}
	if err := in.enter(e.Span().Pos); err != nil {
		return nil, err
	}
	defer in.leave()
	closure := vr.Scope
	if closure == nil {
		closure = caller
	}
	frame := closure.Child(lam.displayName())
	for i, name := range vr.Params {
		frame.Set(name, args[i])
	}
	return in.eval(vr.Body, frame)
}

func (in *Interpreter) callBuiltin(fn ProgramFunction, name string, e *LambdaCall, scope *Scope) (Value, error) {
	args, err := in.evalArgs(e.Args, scope.Child(name))
	if err != nil {
		return nil, err
	}
	if err := in.enter(e.Span().Pos); err != nil {
		return nil, err
	}
	defer in.leave()
	ctx := &CallContext{
		Stdout: in.stdout,
		Stdin:  in.stdin,
		Logger: in.logger,
		Scope:  scope,
		Name:   name,
	}
	v, err := fn(ctx, args)
	if err != nil {
		return nil, at(err, e.Span().Pos)
	}
	if v == nil {
		return Unit{}, nil
	}
	return v, nil
}

func (in *Interpreter) evalArgs(exprs []Expr, scope *Scope) ([]Value, error) {
	args := make([]Value, len(exprs))
	for i, a := range exprs {
		v, err := in.eval(a, scope)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (in *Interpreter) enter(pos Position) error {
	in.depth++
	if in.depth > in.cfg.MaxCallDepth {
		in.depth--
		return &Error{
			Code:    ErrCodeStackOverflow,
			Message: fmt.Sprintf("call depth exceeded %d", in.cfg.MaxCallDepth),
			Pos:     pos,
		}
	}
	return nil
}

func (in *Interpreter) leave() {
	in.depth--
}

func (in *Interpreter) evalAssign(e *AssignExpr, scope *Scope, public bool) (Value, error) {
	v, err := in.eval(e.Value, scope)
	if err != nil {
		return nil, err
	}
	scope.define(e.Name, v, public)
	return Unit{}, nil
}

func (in *Interpreter) evalVariation(e *VariationExpr, scope *Scope) (Value, error) {
	pos := e.Span().Pos
	existing, ok := scope.Get(e.Name)
	if !ok {
		err := undefined(e.Name, pos)
		err.Message = "cannot add a variation to undefined function " + e.Name
		return nil, err
	}
	lam, ok := existing.(*Lambda)
	if !ok {
		return nil, &Error{Code: ErrCodeType, Message: "var " + e.Name + ": not a function", Op: "var", Value: existing.String(), Pos: pos}
	}
	v, err := in.eval(e.Value, scope)
	if err != nil {
		return nil, err
	}
	add, ok := v.(*Lambda)
	if !ok || len(add.variations) != 1 {
		return nil, &Error{Code: ErrCodeType, Message: "var " + e.Name + " expects a single fn literal", Op: "var", Value: v.String(), Pos: pos}
	}
	arity := add.Arities()[0]
	vr, _ := add.Variation(arity)
	if err := lam.AddVariation(arity, vr.Params, vr.Body, vr.Scope); err != nil {
		return nil, at(err, pos)
	}
	return Unit{}, nil
}

func (in *Interpreter) evalModule(e *ModuleExpr, scope *Scope, public bool) (Value, error) {
	mod := &Module{Name: e.Name, Body: e.Body, Scope: newModuleScope(e.Name, scope)}
	for _, stmt := range e.Body {
		if _, err := in.eval(stmt, mod.Scope); err != nil {
			return nil, err
		}
	}
	scope.define(e.Name, mod, public)
	return Unit{}, nil
}

// evalPublic routes the binding of a `pub let` or `pub mod` to the public
// side of a module scope, and records it as an export at the top level.
func (in *Interpreter) evalPublic(e *PublicExpr, scope *Scope) (Value, error) {
	var (
		name string
		v    Value
		err  error
	)
	switch inner := e.Inner.(type) {
	case *AssignExpr:
		name = inner.Name
		v, err = in.evalAssign(inner, scope, true)
	case *ModuleExpr:
		name = inner.Name
		v, err = in.evalModule(inner, scope, true)
	default:
		return in.eval(e.Inner, scope)
	}
	if err != nil {
		return nil, err
	}
	if scope.IsGlobal() {
		if bound, ok := scope.Get(name); ok {
			scope.export(name, bound)
		}
	}
	return v, nil
}

func undefined(name string, pos Position) *Error {
	return &Error{
		Code:    ErrCodeUndefinedVariable,
		Message: "undefined variable " + name,
		Value:   name,
		Pos:     pos,
	}
}

func noMatch(subject Value, pos Position) *Error {
	return &Error{
		Code:    ErrCodeNoMatch,
		Message: "no match found for value " + subject.String(),
		Value:   subject.String(),
		Pos:     pos,
	}
}
