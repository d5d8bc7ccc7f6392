package rustscript

import (
	"strings"
)

// Span is the half-open byte range [Start, End) a node was parsed from.
type Span struct {
	Start int
	End   int
	// Pos is the line and column of Start.
	Pos Position
}

type Expr interface {
	Span() Span
	String() string
	exprNode()
}

type PrefixOp string

const (
	Negate PrefixOp = "-"
	Head   PrefixOp = "^"
	Tail   PrefixOp = "$"
)

type BinOp string

const (
	Add BinOp = "+"
	Sub BinOp = "-"
	Mul BinOp = "*"
	Div BinOp = "/"
	Mod BinOp = "%"
	Lt  BinOp = "<"
	Gt  BinOp = ">"
	Eq  BinOp = "=="
	Neq BinOp = "!="
	And BinOp = "&&"
	Or  BinOp = "||"
)

var binOps = map[TokenType]BinOp{
	PLUS:     Add,
	MINUS:    Sub,
	ASTERISK: Mul,
	SLASH:    Div,
	PERCENT:  Mod,
	LT:       Lt,
	GT:       Gt,
	EQ:       Eq,
	NOT_EQ:   Neq,
	AND:      And,
	OR:       Or,
}

type node struct {
	span Span
}

func (n node) Span() Span { return n.span }
func (node) exprNode()    {}

// AtomicExpr wraps a literal, identifier, list literal or lambda literal.
// Evaluated lists hold AtomicExprs around their element values.
type AtomicExpr struct {
	node
	Value Value
}

func (e *AtomicExpr) String() string { return e.Value.String() }

type PrefixExpr struct {
	node
	Op    PrefixOp
	Right Expr
}

func (e *PrefixExpr) String() string {
	return "(" + string(e.Op) + e.Right.String() + ")"
}

type BinaryExpr struct {
	node
	Op    BinOp
	Left  Expr
	Right Expr
}

func (e *BinaryExpr) String() string {
	return "(" + e.Left.String() + " " + string(e.Op) + " " + e.Right.String() + ")"
}

type IfExpr struct {
	node
	Cond Expr
	Then Expr
	Else Expr
}

func (e *IfExpr) String() string {
	return "if " + e.Cond.String() + " then " + e.Then.String() + " else " + e.Else.String()
}

type BlockExpr struct {
	node
	Exprs []Expr
}

func (e *BlockExpr) String() string {
	if len(e.Exprs) == 0 {
		return "{}"
	}
	return "{ " + joinExprs(e.Exprs, "; ") + " }"
}

type MatchExpr struct {
	node
	Subject Expr
	Cases   []*MatchCaseExpr
}

func (e *MatchExpr) String() string {
	var sb strings.Builder
	sb.WriteString("match ")
	sb.WriteString(e.Subject.String())
	for _, c := range e.Cases {
		sb.WriteString(" ")
		sb.WriteString(c.String())
	}
	return sb.String()
}

// MatchCaseExpr binds the match subject to Pattern; Guard is nil when the
// case has no `and` clause.
type MatchCaseExpr struct {
	node
	Subject Expr
	Pattern string
	Guard   Expr
	Body    Expr
}

func (e *MatchCaseExpr) String() string {
	s := "| " + e.Pattern
	if e.Guard != nil {
		s += " and " + e.Guard.String()
	}
	return s + " then " + e.Body.String()
}

// LambdaCall calls Callee, which is an Ident or an IdentList.
type LambdaCall struct {
	node
	Callee Value
	Args   []Expr
}

func (e *LambdaCall) String() string {
	return e.Callee.String() + "(" + joinExprs(e.Args, ", ") + ")"
}

type AssignExpr struct {
	node
	Name  string
	Value Expr
}

func (e *AssignExpr) String() string { return "let " + e.Name + " = " + e.Value.String() }

type VariationExpr struct {
	node
	Name  string
	Value Expr
}

func (e *VariationExpr) String() string { return "var " + e.Name + " = " + e.Value.String() }

type ModuleExpr struct {
	node
	Name string
	Body []Expr
}

func (e *ModuleExpr) String() string {
	if len(e.Body) == 0 {
		return "mod " + e.Name + " {}"
	}
	return "mod " + e.Name + " { " + joinExprs(e.Body, "; ") + " }"
}

type ImportExpr struct {
	node
	Names []string
	Path  string
}

func (e *ImportExpr) String() string {
	return "imp " + strings.Join(e.Names, ", ") + " from " + renderString(e.Path)
}

type PublicExpr struct {
	node
	Inner Expr
}

func (e *PublicExpr) String() string { return "pub " + e.Inner.String() }

func joinExprs(exprs []Expr, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, sep)
}

// atom wraps an already evaluated value so it can sit inside a List.
func atom(v Value) *AtomicExpr {
	return &AtomicExpr{Value: v}
}
