package rustscript

import (
	"math"
	"unicode/utf8"
)

// elementEval evaluates a list element in the caller's scope.
type elementEval func(Expr) (Value, error)

func binaryOp(op BinOp, lhs, rhs Value, eval elementEval) (Value, error) {
	switch op {
	case Add:
		return addValues(lhs, rhs)
	case Sub:
		return subValues(lhs, rhs)
	case Mul:
		return mulValues(lhs, rhs)
	case Div:
		return divValues(lhs, rhs)
	case Mod:
		return modValues(lhs, rhs)
	case Lt:
		return lessThan(lhs, rhs)
	case Gt:
		return lessThanOp("Bad Gt", rhs, lhs)
	case Eq:
		eq, err := equalValues(lhs, rhs, eval)
		return Bool(eq), err
	case Neq:
		eq, err := equalValues(lhs, rhs, eval)
		return Bool(!eq), err
	case And, Or:
		l, err := Truthy(lhs)
		if err != nil {
			return nil, err
		}
		r, err := Truthy(rhs)
		if err != nil {
			return nil, err
		}
		if op == And {
			return Bool(l && r), nil
		}
		return Bool(l || r), nil
	}
	return nil, evalError(ErrCodeType, "unknown operator %s", op)
}

func addValues(lhs, rhs Value) (Value, error) {
	switch l := lhs.(type) {
	case Int:
		switch r := rhs.(type) {
		case Int:
			sum := l + r
			if (l^sum)&(r^sum) < 0 {
				return nil, overflow("Badd", lhs, rhs)
			}
			return sum, nil
		case Float:
			return Float(l) + r, nil
		}
	case Float:
		switch r := rhs.(type) {
		case Int:
			return l + Float(r), nil
		case Float:
			return l + r, nil
		}
	case Char:
		if r, ok := rhs.(Int); ok {
			return shiftChar("Badd", l, int64(r))
		}
	case List:
		if r, ok := rhs.(List); ok {
			return concatLists(l, r), nil
		}
		if l.IsStr() {
			return appendText(l, rhs), nil
		}
	}
	return nil, binaryTypeError("Badd", lhs, rhs)
}

func concatLists(l, r List) List {
	elems := make([]Expr, 0, len(l.Elems)+len(r.Elems))
	elems = append(elems, l.Elems...)
	elems = append(elems, r.Elems...)
	return List{Elems: elems}
}

// appendText concatenates a string with the rendered form of a non-list
// value. Characters are appended as themselves.
func appendText(s List, v Value) List {
	if c, ok := v.(Char); ok {
		return concatLists(s, NewList(c))
	}
	return concatLists(s, NewStr(v.String()))
}

func subValues(lhs, rhs Value) (Value, error) {
	switch l := lhs.(type) {
	case Int:
		switch r := rhs.(type) {
		case Int:
			diff := l - r
			if (l^r)&(l^diff) < 0 {
				return nil, overflow("Bad Sub", lhs, rhs)
			}
			return diff, nil
		case Float:
			return Float(l) - r, nil
		}
	case Float:
		switch r := rhs.(type) {
		case Int:
			return l - Float(r), nil
		case Float:
			return l - r, nil
		}
	case Char:
		if r, ok := rhs.(Int); ok {
			return shiftChar("Bad Sub", l, -int64(r))
		}
	}
	return nil, binaryTypeError("Bad Sub", lhs, rhs)
}

func mulValues(lhs, rhs Value) (Value, error) {
	switch l := lhs.(type) {
	case Int:
		switch r := rhs.(type) {
		case Int:
			if l == 0 || r == 0 {
				return Int(0), nil
			}
			prod := l * r
			if prod/r != l || (l == -1 && r == math.MinInt64) || (r == -1 && l == math.MinInt64) {
				return nil, overflow("Bad Mul", lhs, rhs)
			}
			return prod, nil
		case Float:
			return Float(l) * r, nil
		}
	case Float:
		switch r := rhs.(type) {
		case Int:
			return l * Float(r), nil
		case Float:
			return l * r, nil
		}
	}
	return nil, binaryTypeError("Bad Mul", lhs, rhs)
}

func divValues(lhs, rhs Value) (Value, error) {
	switch l := lhs.(type) {
	case Int:
		switch r := rhs.(type) {
		case Int:
			if r == 0 {
				return nil, &Error{Code: ErrCodeArithmetic, Message: "integer division by zero", Op: "Bad Div", Value: l.String()}
			}
			if l == math.MinInt64 && r == -1 {
				return nil, overflow("Bad Div", lhs, rhs)
			}
			return l / r, nil
		case Float:
			return Float(l) / r, nil
		}
	case Float:
		switch r := rhs.(type) {
		case Int:
			return l / Float(r), nil
		case Float:
			return l / r, nil
		}
	}
	return nil, binaryTypeError("Bad Div", lhs, rhs)
}

func modValues(lhs, rhs Value) (Value, error) {
	l, lok := lhs.(Int)
	r, rok := rhs.(Int)
	if !lok || !rok {
		return nil, binaryTypeError("Bad Mod", lhs, rhs)
	}
	if r == 0 {
		return nil, &Error{Code: ErrCodeArithmetic, Message: "integer modulo by zero", Op: "Bad Mod", Value: l.String()}
	}
	return l % r, nil
}

// shiftChar moves c by delta code points. Results outside the Unicode
// scalar range are an error rather than wrapping.
// overflow reports Int arithmetic whose result does not fit in 64 bits.
func overflow(op string, lhs, rhs Value) *Error {
	return &Error{
		Code:    ErrCodeArithmetic,
		Message: op + ": integer overflow",
		Op:      op,
		Value:   lhs.String() + ", " + rhs.String(),
	}
}

func shiftChar(op string, c Char, delta int64) (Value, error) {
	n := int64(c) + delta
	if n < 0 || n > utf8.MaxRune || (n >= 0xD800 && n <= 0xDFFF) {
		return nil, &Error{
			Code:    ErrCodeType,
			Message: op + ": character arithmetic out of range",
			Op:      op,
			Value:   c.String(),
		}
	}
	return Char(rune(n)), nil
}

func lessThan(lhs, rhs Value) (Value, error) {
	return lessThanOp("Bad Lt", lhs, rhs)
}

func lessThanOp(op string, lhs, rhs Value) (Value, error) {
	switch l := lhs.(type) {
	case Int:
		switch r := rhs.(type) {
		case Int:
			return Bool(l < r), nil
		case Float:
			return Bool(Float(l) < r), nil
		}
	case Float:
		switch r := rhs.(type) {
		case Int:
			return Bool(l < Float(r)), nil
		case Float:
			return Bool(l < r), nil
		}
	case Char:
		if r, ok := rhs.(Char); ok {
			return Bool(l < r), nil
		}
	}
	if op == "Bad Gt" {
		return nil, binaryTypeError(op, rhs, lhs)
	}
	return nil, binaryTypeError(op, lhs, rhs)
}

// equalValues compares deeply. When either side is a Bool both sides are
// compared by truthiness. List elements are evaluated with eval.
func equalValues(lhs, rhs Value, eval elementEval) (bool, error) {
	_, lb := lhs.(Bool)
	_, rb := rhs.(Bool)
	if lb || rb {
		l, err := Truthy(lhs)
		if err != nil {
			return false, err
		}
		r, err := Truthy(rhs)
		if err != nil {
			return false, err
		}
		return l == r, nil
	}
	switch l := lhs.(type) {
	case Int:
		switch r := rhs.(type) {
		case Int:
			return l == r, nil
		case Float:
			return Float(l) == r, nil
		}
	case Float:
		switch r := rhs.(type) {
		case Int:
			return l == Float(r), nil
		case Float:
			return l == r, nil
		}
	case Char:
		if r, ok := rhs.(Char); ok {
			return l == r, nil
		}
	case List:
		if r, ok := rhs.(List); ok {
			return equalLists(l, r, eval)
		}
	}
	return false, binaryTypeError("Bad Cmp", lhs, rhs)
}

func equalLists(l, r List, eval elementEval) (bool, error) {
	if len(l.Elems) != len(r.Elems) {
		return false, nil
	}
	for i := range l.Elems {
		a, err := eval(l.Elems[i])
		if err != nil {
			return false, err
		}
		b, err := eval(r.Elems[i])
		if err != nil {
			return false, err
		}
		eq, err := equalValues(a, b, eval)
		if err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}

func negate(v Value) (Value, error) {
	switch x := v.(type) {
	case Int:
		if x == math.MinInt64 {
			return nil, &Error{Code: ErrCodeArithmetic, Message: "Bad Negate: integer overflow", Op: "Bad Negate", Value: x.String()}
		}
		return -x, nil
	case Float:
		return -x, nil
	case Bool:
		return !x, nil
	}
	return nil, typeError("Bad Negate", v)
}

// Truthy coerces v for if, &&, || and match guards.
func Truthy(v Value) (bool, error) {
	switch x := v.(type) {
	case Bool:
		return bool(x), nil
	case List:
		return len(x.Elems) > 0, nil
	}
	return false, &Error{
		Code:    ErrCodeCoercion,
		Message: "can't coerce " + v.String() + " to a boolean",
		Value:   v.String(),
	}
}

func head(v Value, eval elementEval) (Value, error) {
	l, ok := v.(List)
	if !ok {
		return nil, typeError("Bad Head", v)
	}
	if len(l.Elems) == 0 {
		return nil, &Error{Code: ErrCodeIndex, Message: "head of an empty list", Op: "^", Value: v.String()}
	}
	return eval(l.Elems[0])
}

func tail(v Value) (Value, error) {
	l, ok := v.(List)
	if !ok {
		return nil, typeError("Bad Tail", v)
	}
	if len(l.Elems) == 0 {
		return l, nil
	}
	return List{Elems: l.Elems[1:]}, nil
}
