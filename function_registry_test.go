package rustscript

import (
	"sort"
	"strings"
	"testing"
)

func twice(ctx *CallContext, args []Value) (Value, error) {
	if err := expectArgs(ctx, args, 1); err != nil {
		return nil, err
	}
	n, ok := args[0].(Int)
	if !ok {
		return nil, typeError(ctx.Name+" expects an integer", args[0])
	}
	return n * 2, nil
}

func TestRegisterFunction(t *testing.T) {
	_ = UnregisterFunction("twice")
	before, _ := newTestInterpreter(t)
	if err := RegisterFunctionE("twice", twice); err != nil {
		t.Fatalf("register twice failed: %v", err)
	}
	t.Cleanup(func() { _ = UnregisterFunction("twice") })

	after, _ := newTestInterpreter(t)
	if got := mustEval(t, after, "twice(21)"); got != Int(42) {
		t.Fatalf("expected 42, got %s", got)
	}
	evalErr(t, after, "twice(1, 2)", ErrCodeArity)
	evalErr(t, after, "twice(true)", ErrCodeType)
	evalErr(t, before, "twice(21)", ErrCodeUndefinedVariable)

	if err := after.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got := mustEval(t, after, "twice(2)"); got != Int(4) {
		t.Fatalf("reset should keep registered builtins, got %s", got)
	}
}

func TestRegisterFunctionValidation(t *testing.T) {
	for _, name := range []string{"", "  ", "1abc", "has space", "let", "match"} {
		if err := RegisterFunctionE(name, twice); !IsCode(err, ErrCodeRegistry) {
			t.Fatalf("%q: expected registry error, got %v", name, err)
		}
	}
	if err := RegisterFunctionE("nilfn", nil); !IsCode(err, ErrCodeRegistry) {
		t.Fatalf("expected registry error for nil function, got %v", err)
	}
	err := RegisterFunctionE("println", twice)
	if !IsCode(err, ErrCodeRegistry) || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected duplicate registration to fail, got %v", err)
	}
	if err := UnregisterFunction("no_such_builtin"); !IsCode(err, ErrCodeRegistry) {
		t.Fatalf("expected registry error, got %v", err)
	}
}

func TestFunctionRegistryOverride(t *testing.T) {
	prev := GetFunctionRegistryOptions()
	t.Cleanup(func() {
		SetFunctionRegistryOptions(prev)
		_ = UnregisterFunction("answer")
	})
	_ = UnregisterFunction("answer")
	RegisterFunction("answer", func(ctx *CallContext, args []Value) (Value, error) {
		return Int(41), nil
	})
	SetFunctionRegistryOptions(FunctionRegistryOptions{AllowOverride: true})
	if err := RegisterFunctionE("answer", func(ctx *CallContext, args []Value) (Value, error) {
		return Int(42), nil
	}); err != nil {
		t.Fatalf("override should be allowed: %v", err)
	}
	in, _ := newTestInterpreter(t)
	if got := mustEval(t, in, "answer()"); got != Int(42) {
		t.Fatalf("expected the override to win, got %s", got)
	}
}

func TestFrozenFunctionRegistry(t *testing.T) {
	FreezeFunctionRegistry()
	t.Cleanup(UnfreezeFunctionRegistry)
	if err := RegisterFunctionE("late", twice); !IsCode(err, ErrCodeRegistry) {
		t.Fatalf("expected frozen registry error, got %v", err)
	}
	if err := UnregisterFunction("println"); !IsCode(err, ErrCodeRegistry) {
		t.Fatalf("expected frozen registry error, got %v", err)
	}
	if !GetFunctionRegistryOptions().Frozen {
		t.Fatalf("registry should report frozen")
	}
	in, _ := newTestInterpreter(t)
	mustEval(t, in, `println("still works")`)
}

func TestFunctionNames(t *testing.T) {
	names := FunctionNames()
	if !sort.StringsAreSorted(names) {
		t.Fatalf("names should be sorted: %v", names)
	}
	for _, want := range []string{"print", "println", "input", "typeof", "substr", "parseInt", "parseBool"} {
		if _, ok := LookupFunction(want); !ok {
			t.Fatalf("missing builtin %s", want)
		}
	}
	if _, ok := LookupFunction(" println "); !ok {
		t.Fatalf("lookup should trim the name")
	}
}

func TestBindingsShadowBuiltins(t *testing.T) {
	in, _ := newTestInterpreter(t)
	mustEval(t, in, "let upper = fn(s) => 1")
	if got := mustEval(t, in, `upper("a")`); got != Int(1) {
		t.Fatalf("a lambda binding should shadow the builtin, got %s", got)
	}
	other, _ := newTestInterpreter(t)
	if got := text(t, mustEval(t, other, `upper("a")`)); got != "A" {
		t.Fatalf("other interpreters keep the builtin, got %s", got)
	}
}

func TestCallContextScope(t *testing.T) {
	_ = UnregisterFunction("scopeName")
	RegisterFunction("scopeName", func(ctx *CallContext, args []Value) (Value, error) {
		return NewStr(ctx.Scope.Name()), nil
	})
	t.Cleanup(func() { _ = UnregisterFunction("scopeName") })
	in, _ := newTestInterpreter(t)
	if got := text(t, mustEval(t, in, "scopeName()")); got != "global" {
		t.Fatalf("expected global, got %s", got)
	}
	mustEval(t, in, "let where = fn() => scopeName()")
	if got := text(t, mustEval(t, in, "where()")); got != "where" {
		t.Fatalf("expected the calling frame, got %s", got)
	}
}
