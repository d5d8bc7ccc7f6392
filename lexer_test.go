package rustscript

import (
	"strings"
	"testing"
)

func tokenTypes(t *testing.T, src string) []TokenType {
	t.Helper()
	tokens, err := Tokenize(src)
	if err != nil {
		t.Fatalf("tokenize %q: %v", src, err)
	}
	out := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func sameTypes(a, b []TokenType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTokenize(t *testing.T) {
	cases := []struct {
		src  string
		want []TokenType
	}{
		{"let x = 5", []TokenType{LET, IDENT, ASSIGN, INT, EOF}},
		{"fn(a, b) => a + b", []TokenType{FN, LPAREN, IDENT, COMMA, IDENT, RPAREN, ARROW, IDENT, PLUS, IDENT, EOF}},
		{"a == b != c && d || e", []TokenType{IDENT, EQ, IDENT, NOT_EQ, IDENT, AND, IDENT, OR, IDENT, EOF}},
		{"^$ls", []TokenType{CARET, DOLLAR, IDENT, EOF}},
		{"[0..n]", []TokenType{LBRACKET, INT, DOTDOT, IDENT, RBRACKET, EOF}},
		{"[a..b]", []TokenType{LBRACKET, IDENT, DOTDOT, IDENT, RBRACKET, EOF}},
		{"Math.Inner.f(1)", []TokenType{IDENT_LIST, LPAREN, INT, RPAREN, EOF}},
		{"3.14 3 3.", []TokenType{FLOAT, INT, INT, DOT, EOF}},
		{"match x | y and y > 1 then y", []TokenType{MATCH, IDENT, PIPE, IDENT, GUARD, IDENT, GT, INT, THEN, IDENT, EOF}},
		{"pub mod M { }", []TokenType{PUB, MOD, IDENT, LBRACE, RBRACE, EOF}},
		{"imp a, b from \"lib.rs\"", []TokenType{IMP, IDENT, COMMA, IDENT, FROM, STRING, EOF}},
		{"[x for x in xs if x]", []TokenType{LBRACKET, IDENT, FOR, IDENT, IN, IDENT, IF, IDENT, RBRACKET, EOF}},
		{"1 // comment\n2", []TokenType{INT, NEWLINE, INT, EOF}},
		{"1\n\n\n2", []TokenType{INT, NEWLINE, INT, EOF}},
		{"1\n;\n2", []TokenType{INT, SEMICOLON, INT, EOF}},
		{"1;;2", []TokenType{INT, SEMICOLON, INT, EOF}},
	}
	for _, tc := range cases {
		if got := tokenTypes(t, tc.src); !sameTypes(got, tc.want) {
			t.Fatalf("%q: expected %v, got %v", tc.src, tc.want, got)
		}
	}
}

func TestTokenPositions(t *testing.T) {
	tokens, err := Tokenize("let x = 1\n  x + 2")
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	plus := tokens[6]
	if plus.Type != PLUS || plus.Line != 2 || plus.Column != 5 || plus.Offset != 14 {
		t.Fatalf("unexpected token %+v", plus)
	}
	x := tokens[1]
	if x.Literal != "x" || x.Offset != 4 || x.Length != 1 || x.End() != 5 {
		t.Fatalf("unexpected token %+v", x)
	}
}

func TestLiterals(t *testing.T) {
	tokens, err := Tokenize(`'a' '\n' '\'' "a\tb\"c" "été" 'é'`)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	want := []string{"a", "\n", "'", "a\tb\"c", "été", "é"}
	for i, w := range want {
		if tokens[i].Literal != w {
			t.Fatalf("literal %d: expected %q, got %q", i, w, tokens[i].Literal)
		}
	}
	if tokens[0].Type != CHAR || tokens[3].Type != STRING {
		t.Fatalf("unexpected literal types %s %s", tokens[0].Type, tokens[3].Type)
	}
}

func TestLexErrors(t *testing.T) {
	cases := []struct {
		src     string
		message string
	}{
		{"''", "empty character literal"},
		{"'ab'", "holds 2 characters"},
		{`"abc`, "unterminated"},
		{`'a`, "unterminated"},
		{`"\q"`, "invalid escape"},
		{`"\u12"`, "unicode escape"},
		{`'\uD800'`, "invalid unicode escape"},
		{`"a\udfff"`, "surrogate"},
		{"a ! b", "'!'"},
		{"a & b", "'&'"},
		{"a.", "after '.'"},
		{"#", "unexpected character"},
	}
	for _, tc := range cases {
		_, err := Tokenize(tc.src)
		if !IsCode(err, ErrCodeLex) {
			t.Fatalf("%q: expected lex error, got %v", tc.src, err)
		}
		if !strings.Contains(err.Error(), tc.message) {
			t.Fatalf("%q: expected %q in %v", tc.src, tc.message, err)
		}
	}
	_, err := Tokenize("\"open")
	if !IsIncomplete(err) {
		t.Fatalf("an unterminated string should be incomplete input")
	}
}
