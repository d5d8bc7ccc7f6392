package rustscript

import (
	"fmt"
	"strings"
)

type TokenType string

const (
	EOF = "EOF"

	// NEWLINE is a soft statement separator; SEMICOLON is a hard one.
	NEWLINE   = "NEWLINE"
	SEMICOLON = ";"

	IDENT      = "IDENT"
	IDENT_LIST = "IDENT_LIST"
	INT        = "INT"
	FLOAT      = "FLOAT"
	CHAR       = "CHAR"
	STRING     = "STRING"
	TRUE       = "TRUE"
	FALSE      = "FALSE"

	IF    = "IF"
	THEN  = "THEN"
	ELSE  = "ELSE"
	LET   = "LET"
	VAR   = "VAR"
	FN    = "FN"
	FOR   = "FOR"
	IN    = "IN"
	MATCH = "MATCH"
	GUARD = "AND" // `and` introduces a match guard
	MOD   = "MOD"
	PUB   = "PUB"
	IMP   = "IMP"
	FROM  = "FROM"

	PLUS     = "+"
	MINUS    = "-"
	ASTERISK = "*"
	SLASH    = "/"
	PERCENT  = "%"
	LT       = "<"
	GT       = ">"
	EQ       = "=="
	NOT_EQ   = "!="
	AND      = "&&"
	OR       = "||"
	CARET    = "^"
	DOLLAR   = "$"

	ASSIGN   = "="
	ARROW    = "=>"
	PIPE     = "|"
	DOTDOT   = ".."
	DOT      = "."
	COMMA    = ","
	LPAREN   = "("
	RPAREN   = ")"
	LBRACKET = "["
	RBRACKET = "]"
	LBRACE   = "{"
	RBRACE   = "}"
)

var keywords = map[string]TokenType{
	"if":    IF,
	"then":  THEN,
	"else":  ELSE,
	"let":   LET,
	"var":   VAR,
	"fn":    FN,
	"for":   FOR,
	"in":    IN,
	"match": MATCH,
	"and":   GUARD,
	"mod":   MOD,
	"pub":   PUB,
	"imp":   IMP,
	"from":  FROM,
	"true":  TRUE,
	"false": FALSE,
}

// Binding powers for infix operators as (left, right) pairs.
var bindingPowers = map[TokenType][2]int{
	AND:      {0, 1},
	OR:       {0, 1},
	LT:       {2, 3},
	GT:       {2, 3},
	EQ:       {2, 3},
	NOT_EQ:   {2, 3},
	PLUS:     {4, 5},
	MINUS:    {4, 5},
	ASTERISK: {6, 7},
	SLASH:    {6, 7},
	PERCENT:  {6, 7},
}

const prefixBindingPower = 10

// Token is one lexeme together with its position in the source text.
// Offset and Length are in bytes; Line and Column are 1-based.
type Token struct {
	Type    TokenType
	Literal string
	Offset  int
	Length  int
	Line    int
	Column  int
}

func (t Token) Pos() Position {
	return Position{Offset: t.Offset, Line: t.Line, Column: t.Column}
}

func (t Token) End() int {
	return t.Offset + t.Length
}

func (t Token) String() string {
	switch t.Type {
	case EOF:
		return "end of input"
	case NEWLINE:
		return "newline"
	case IDENT, IDENT_LIST, INT, FLOAT:
		return fmt.Sprintf("%s %q", strings.ToLower(string(t.Type)), t.Literal)
	case CHAR:
		return "character " + renderChar([]rune(t.Literal)[0])
	case STRING:
		return "string " + renderString(t.Literal)
	}
	return fmt.Sprintf("'%s'", t.Literal)
}

func lookupKeyword(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	if strings.Contains(ident, ".") {
		return IDENT_LIST
	}
	return IDENT
}

func isSeparator(t TokenType) bool {
	return t == NEWLINE || t == SEMICOLON
}

func isInfix(t TokenType) bool {
	_, ok := bindingPowers[t]
	return ok
}
