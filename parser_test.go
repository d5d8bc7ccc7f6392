package rustscript

import (
	"strings"
	"testing"
)

func TestParseRendering(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{"x + 3 * 5 - 2 / 4", "((x + (3 * 5)) - (2 / 4))"},
		{"-a * b", "((-a) * b)"},
		{"^$ls + 1", "((^($ls)) + 1)"},
		{"a < b == c", "((a < b) == c)"},
		{"a && b || c", "((a && b) || c)"},
		{"a + b < c && d", "(((a + b) < c) && d)"},
		{"a - b - c", "((a - b) - c)"},
		{"f(1, g(2))", "f(1, g(2))"},
		{"f()", "f()"},
		{"M.f(x)", "M.f(x)"},
		{"let f = fn(x, y) => x * y", "let f = fn(x, y) => (x * y)"},
		{"var f = fn() => 1", "var f = fn() => 1"},
		{"if a then b else c", "if a then b else c"},
		{"[1, 2, 3]", "[1, 2, 3]"},
		{"[1, 2,]", "[1, 2]"},
		{"[]", `""`},
		{"[0..n]", "range(0, n)"},
		{"[x * 2 for x in xs]", "fmap(fn(x) => (x * 2), xs)"},
		{"[x for x in xs if x > 1]", "filter(fn(x) => (x > 1), fmap(fn(x) => x, xs))"},
		{"match n | x and x > 0 then 1 | y then 2", "match n | x and (x > 0) then 1 | y then 2"},
		{"match n\n  | x then 1\n  | y then 2", "match n | x then 1 | y then 2"},
		{"{ let a = 1; a }", "{ let a = 1; a }"},
		{"{\n}", "{}"},
		{"pub mod M { pub let x = 1 }", "pub mod M { pub let x = 1 }"},
		{`imp a, b from "lib.rs"`, `imp a, b from "lib.rs"`},
		{"'c'", "'c'"},
		{`"hi"`, `"hi"`},
		{"(\n1\n+\n2\n)", "(1 + 2)"},
		{"f(\n  1,\n  2\n)", "f(1, 2)"},
		{"[\n  1,\n  2,\n]", "[1, 2]"},
	}
	for _, tc := range cases {
		expr, err := ParseExpr(tc.src)
		if err != nil {
			t.Fatalf("%q: %v", tc.src, err)
		}
		if got := expr.String(); got != tc.want {
			t.Fatalf("%q: expected %s, got %s", tc.src, tc.want, got)
		}
	}
}

func TestParseNamesLambdas(t *testing.T) {
	expr, err := ParseExpr("let double = fn(x) => x * 2")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	assign, ok := expr.(*AssignExpr)
	if !ok {
		t.Fatalf("expected assignment, got %T", expr)
	}
	lam := assign.Value.(*AtomicExpr).Value.(*Lambda)
	if lam.Name != "double" {
		t.Fatalf("expected the lambda to be named double, got %q", lam.Name)
	}
	if lam.bound() {
		t.Fatalf("a parsed lambda literal has no closure yet")
	}
}

func TestParseSpans(t *testing.T) {
	expr, err := ParseExpr("  a + b")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	span := expr.Span()
	if span.Start != 2 || span.End != 7 || span.Pos.Column != 3 {
		t.Fatalf("unexpected span %+v", span)
	}
}

func TestParseExprs(t *testing.T) {
	exprs, err := ParseExprs("let a = 1\n\nlet b = 2; a + b\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(exprs) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(exprs))
	}
	if _, err := ParseExpr("1\n2"); err == nil {
		t.Fatalf("ParseExpr should reject a second statement")
	}
	if _, err := ParseExpr(""); err == nil {
		t.Fatalf("ParseExpr should reject empty input")
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		src        string
		incomplete bool
		message    string
	}{
		{"(1 + 2", true, "')'"},
		{"if a then b", true, "'else'"},
		{"[1, 2", true, "']'"},
		{"{ 1", true, "'}'"},
		{"f(1,", true, "expression"},
		{"1 2", false, "newline after expression"},
		{"fn(x, x) => x", false, "duplicate parameter"},
		{"fn(1) => 1", false, "parameter name"},
		{"let 5 = 1", false, "a name after let"},
		{")", false, "an expression"},
		{"match x | 1 then 2", false, "identifier pattern"},
		{"imp a from b", false, "file path"},
		{"mod { }", false, "module name"},
		{"99999999999999999999", false, "out of range"},
	}
	for _, tc := range cases {
		_, err := ParseExpr(tc.src)
		if !IsCode(err, ErrCodeParse) {
			t.Fatalf("%q: expected parse error, got %v", tc.src, err)
		}
		if IsIncomplete(err) != tc.incomplete {
			t.Fatalf("%q: incomplete=%v, expected %v (%v)", tc.src, IsIncomplete(err), tc.incomplete, err)
		}
		if !strings.Contains(err.Error(), tc.message) {
			t.Fatalf("%q: expected %q in %v", tc.src, tc.message, err)
		}
	}
}

func TestParseMatchHint(t *testing.T) {
	_, err := ParseExpr("match x | 1 then 2")
	e, ok := err.(*Error)
	if !ok || len(e.Details) == 0 || !strings.Contains(e.Details[0], "and <condition>") {
		t.Fatalf("expected a hint about guards, got %v", err)
	}
}

func TestParseDepthLimit(t *testing.T) {
	orig := GetRuntimeConfig()
	t.Cleanup(func() { SetRuntimeConfig(orig) })
	cfg := orig
	cfg.MaxExpressionDepth = 8
	SetRuntimeConfig(cfg)

	if _, err := ParseExpr("((((1))))"); err != nil {
		t.Fatalf("shallow nesting should parse: %v", err)
	}
	src := strings.Repeat("(", 20) + "1" + strings.Repeat(")", 20)
	_, err := ParseExpr(src)
	if !IsCode(err, ErrCodeParse) || !strings.Contains(err.Error(), "maximum depth 8") {
		t.Fatalf("expected depth error, got %v", err)
	}
}
