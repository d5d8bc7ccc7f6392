package rustscript

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Value is a runtime value. The set of implementations is closed; switch
// on the concrete type to inspect one.
type Value interface {
	String() string
	value()
}

type (
	Int   int64
	Float float64
	Bool  bool
	Char  rune
	Unit  struct{}
	// Ident is an unresolved name; it only appears in parsed trees.
	Ident string
)

// IdentList is a dotted module path such as Math.square.
type IdentList struct {
	Path []string
}

// List holds element expressions. Once a list has been evaluated every
// element is an *AtomicExpr around a value. A list whose elements are all
// characters is a string; see IsStr.
type List struct {
	Elems []Expr
}

// Lambda maps an arity to the parameters, body and closure scope of one
// variation. Lambdas are shared by reference so that `var` extends every
// binding of the same function.
type Lambda struct {
	Name       string
	variations map[int]*Variation
}

type Variation struct {
	Params []string
	Body   Expr
	// Scope is nil until the defining lambda literal is evaluated.
	Scope *Scope
}

type Module struct {
	Name  string
	Body  []Expr
	Scope *Scope
}

// matchResult is produced by a single match case and never escapes the
// evaluator.
type matchResult struct {
	matched bool
	val     Value
}

func (Int) value()         {}
func (Float) value()       {}
func (Bool) value()        {}
func (Char) value()        {}
func (Unit) value()        {}
func (Ident) value()       {}
func (IdentList) value()   {}
func (List) value()        {}
func (*Lambda) value()     {}
func (*Module) value()     {}
func (matchResult) value() {}

func (v Int) String() string   { return strconv.FormatInt(int64(v), 10) }
func (v Float) String() string { return formatFloat(float64(v)) }
func (v Bool) String() string  { return strconv.FormatBool(bool(v)) }
func (v Char) String() string  { return renderChar(rune(v)) }
func (Unit) String() string    { return "()" }
func (v Ident) String() string { return string(v) }

func (v IdentList) String() string { return strings.Join(v.Path, ".") }

func (v List) String() string {
	if s, ok := v.Text(); ok {
		return renderString(s)
	}
	return "[" + joinExprs(v.Elems, ", ") + "]"
}

func (v *Lambda) String() string {
	arities := v.Arities()
	parts := make([]string, len(arities))
	for i, n := range arities {
		vr := v.variations[n]
		parts[i] = "fn(" + strings.Join(vr.Params, ", ") + ") => " + vr.Body.String()
	}
	return strings.Join(parts, " | ")
}

func (v *Module) String() string { return "mod " + v.Name }

func (v matchResult) String() string {
	if !v.matched {
		return "no match"
	}
	return "match " + v.val.String()
}

// NewStr builds the character list for s.
func NewStr(s string) List {
	elems := make([]Expr, 0, len(s))
	for _, r := range s {
		elems = append(elems, atom(Char(r)))
	}
	return List{Elems: elems}
}

func NewList(values ...Value) List {
	elems := make([]Expr, len(values))
	for i, v := range values {
		elems[i] = atom(v)
	}
	return List{Elems: elems}
}

// IsStr reports whether every element is a character. The empty list is
// vacuously a string.
func (v List) IsStr() bool {
	for _, e := range v.Elems {
		a, ok := e.(*AtomicExpr)
		if !ok {
			return false
		}
		if _, ok := a.Value.(Char); !ok {
			return false
		}
	}
	return true
}

// Text returns the list as Go text when it is a string.
func (v List) Text() (string, bool) {
	if !v.IsStr() {
		return "", false
	}
	var sb strings.Builder
	for _, e := range v.Elems {
		sb.WriteRune(rune(e.(*AtomicExpr).Value.(Char)))
	}
	return sb.String(), true
}

// Values returns the element values of an evaluated list. It reports false
// if some element has not been evaluated yet.
func (v List) Values() ([]Value, bool) {
	out := make([]Value, len(v.Elems))
	for i, e := range v.Elems {
		a, ok := e.(*AtomicExpr)
		if !ok {
			return nil, false
		}
		switch a.Value.(type) {
		case Ident, IdentList:
			return nil, false
		}
		out[i] = a.Value
	}
	return out, true
}

func (v List) Len() int { return len(v.Elems) }

// NewLambda returns an unbound single-variation lambda, as produced by a
// `fn` literal.
func NewLambda(params []string, body Expr) *Lambda {
	return &Lambda{
		variations: map[int]*Variation{
			len(params): {Params: params, Body: body},
		},
	}
}

func (v *Lambda) Arities() []int {
	out := make([]int, 0, len(v.variations))
	for n := range v.variations {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func (v *Lambda) Variation(arity int) (*Variation, bool) {
	vr, ok := v.variations[arity]
	return vr, ok
}

// AddVariation registers another arity. Each arity may be defined once.
func (v *Lambda) AddVariation(arity int, params []string, body Expr, scope *Scope) error {
	if _, exists := v.variations[arity]; exists {
		return &Error{
			Code:    ErrCodeDuplicateArity,
			Message: "function " + v.displayName() + " already has a variation taking " + strconv.Itoa(arity) + " argument(s)",
		}
	}
	v.variations[arity] = &Variation{Params: params, Body: body, Scope: scope}
	return nil
}

func (v *Lambda) bound() bool {
	for _, vr := range v.variations {
		if vr.Scope == nil {
			return false
		}
	}
	return true
}

// bind returns a copy of v closed over scope. Variations that already
// carry a scope keep it.
func (v *Lambda) bind(scope *Scope) *Lambda {
	out := &Lambda{Name: v.Name, variations: make(map[int]*Variation, len(v.variations))}
	for n, vr := range v.variations {
		cp := *vr
		if cp.Scope == nil {
			cp.Scope = scope
		}
		out.variations[n] = &cp
	}
	return out
}

func (v *Lambda) displayName() string {
	if v.Name == "" {
		return "<anonymous>"
	}
	return v.Name
}

// TypeName is the name typeof reports for v.
func TypeName(v Value) string {
	switch x := v.(type) {
	case Int:
		return "Integer"
	case Float:
		return "Float"
	case Bool:
		return "Bool"
	case Char:
		return "Char"
	case List:
		if x.IsStr() {
			return "Str"
		}
		return "List"
	case *Lambda:
		return "Lambda"
	case *Module:
		return "Module"
	case Ident:
		return "Ident"
	case IdentList:
		return "IdentList"
	case matchResult:
		return "MatchResult"
	}
	return "Unit"
}

// Display renders v for print and println: strings and characters are
// written raw, everything else as String does.
func Display(v Value) string {
	switch x := v.(type) {
	case Char:
		return string(rune(x))
	case List:
		if s, ok := x.Text(); ok {
			return s
		}
	}
	return v.String()
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e7 || abs < 1e-3) {
		s := strconv.FormatFloat(f, 'E', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "E")
		if !strings.Contains(mantissa, ".") {
			mantissa += ".0"
		}
		n, _ := strconv.Atoi(exp)
		return mantissa + "E" + strconv.Itoa(n)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
