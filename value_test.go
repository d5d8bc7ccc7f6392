package rustscript

import (
	"math"
	"testing"
)

func TestFormatFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{2, "2.0"},
		{3.5, "3.5"},
		{-0.25, "-0.25"},
		{1e7, "1.0E7"},
		{1.5e-4, "1.5E-4"},
		{0, "0.0"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tc := range cases {
		if got := Float(tc.in).String(); got != tc.want {
			t.Fatalf("%v: expected %s, got %s", tc.in, tc.want, got)
		}
	}
}

func TestRendering(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Char('a'), "'a'"},
		{Char('\n'), `'\n'`},
		{Char('\''), `'\''`},
		{NewStr("say \"hi\"\n"), `"say \"hi\"\n"`},
		{NewList(Int(1), NewStr("a"), Char('b')), `[1, "a", 'b']`},
		{NewList(), `""`},
		{Unit{}, "()"},
		{Bool(true), "true"},
		{IdentList{Path: []string{"M", "x"}}, "M.x"},
	}
	for _, tc := range cases {
		if got := tc.v.String(); got != tc.want {
			t.Fatalf("expected %s, got %s", tc.want, got)
		}
	}
	if got := Display(NewStr("raw \"text\"")); got != `raw "text"` {
		t.Fatalf("Display should not quote strings, got %s", got)
	}
	if got := Display(Char('x')); got != "x" {
		t.Fatalf("Display should not quote chars, got %s", got)
	}
}

func TestListHelpers(t *testing.T) {
	s := NewStr("héllo")
	if s.Len() != 5 || !s.IsStr() {
		t.Fatalf("expected a 5 character string, got %d", s.Len())
	}
	if txt, ok := s.Text(); !ok || txt != "héllo" {
		t.Fatalf("unexpected text %q", txt)
	}
	l := NewList(Int(1), Float(2.5))
	if l.IsStr() {
		t.Fatalf("a number list is not a string")
	}
	values, ok := l.Values()
	if !ok || len(values) != 2 || values[1] != Float(2.5) {
		t.Fatalf("unexpected values %v", values)
	}
	raw := List{Elems: []Expr{&AtomicExpr{Value: Ident("x")}}}
	if _, ok := raw.Values(); ok {
		t.Fatalf("an unevaluated list has no values")
	}
}

func TestTruthy(t *testing.T) {
	for _, v := range []Value{Bool(true), NewList(Int(0)), NewStr("a")} {
		if ok, err := Truthy(v); err != nil || !ok {
			t.Fatalf("%s should be truthy", v)
		}
	}
	for _, v := range []Value{Bool(false), NewList()} {
		if ok, err := Truthy(v); err != nil || ok {
			t.Fatalf("%s should be falsy", v)
		}
	}
	for _, v := range []Value{Int(1), Float(0), Char('a'), Unit{}} {
		if _, err := Truthy(v); !IsCode(err, ErrCodeCoercion) {
			t.Fatalf("%s: expected coercion error, got %v", v, err)
		}
	}
}

func TestLambdaVariations(t *testing.T) {
	lam := NewLambda([]string{"x"}, atom(Int(1)))
	lam.Name = "f"
	if err := lam.AddVariation(2, []string{"x", "y"}, atom(Int(2)), nil); err != nil {
		t.Fatalf("add variation: %v", err)
	}
	err := lam.AddVariation(1, []string{"z"}, atom(Int(3)), nil)
	if !IsCode(err, ErrCodeDuplicateArity) {
		t.Fatalf("expected duplicate arity, got %v", err)
	}
	if got := lam.Arities(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("unexpected arities %v", got)
	}
	if got := lam.String(); got != "fn(x) => 1 | fn(x, y) => 2" {
		t.Fatalf("unexpected rendering %s", got)
	}
	if TypeName(lam) != "Lambda" {
		t.Fatalf("unexpected type name %s", TypeName(lam))
	}
}

func TestLambdaBindKeepsExistingClosures(t *testing.T) {
	in, _ := newTestInterpreter(t)
	outer := in.Global().Child("outer")
	inner := in.Global().Child("inner")
	lam := NewLambda([]string{"x"}, atom(Int(1)))
	if err := lam.AddVariation(2, []string{"x", "y"}, atom(Int(2)), outer); err != nil {
		t.Fatalf("add variation: %v", err)
	}
	bound := lam.bind(inner)
	one, _ := bound.Variation(1)
	two, _ := bound.Variation(2)
	if one.Scope != inner || two.Scope != outer {
		t.Fatalf("bind should only close unbound variations")
	}
	if lam == bound {
		t.Fatalf("bind should copy the lambda")
	}
	if first, _ := lam.Variation(1); first.Scope != nil {
		t.Fatalf("bind must not mutate the literal")
	}
}

func TestMatchResultRendering(t *testing.T) {
	if got := (matchResult{matched: true, val: Int(7)}).String(); got != "match 7" {
		t.Fatalf("unexpected rendering %s", got)
	}
	if got := (matchResult{}).String(); got != "no match" {
		t.Fatalf("unexpected rendering %s", got)
	}
}
