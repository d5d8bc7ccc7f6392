package rustscript

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/oarkflow/convert"
)

func registerDefaultFunctions() {
	r := defaultFunctionRegistry
	_ = r.register("print", func(ctx *CallContext, args []Value) (Value, error) {
		return writeValues(ctx, args, "")
	}, true)
	_ = r.register("println", func(ctx *CallContext, args []Value) (Value, error) {
		return writeValues(ctx, args, "\n")
	}, true)
	_ = r.register("input", builtinInput, true)
	_ = r.register("typeof", func(ctx *CallContext, args []Value) (Value, error) {
		if err := expectArgs(ctx, args, 1); err != nil {
			return nil, err
		}
		return NewStr(TypeName(args[0])), nil
	}, true)
	_ = r.register("upper", func(ctx *CallContext, args []Value) (Value, error) {
		return mapCase(ctx, args, strings.ToUpper, unicode.ToUpper)
	}, true)
	_ = r.register("lower", func(ctx *CallContext, args []Value) (Value, error) {
		return mapCase(ctx, args, strings.ToLower, unicode.ToLower)
	}, true)
	_ = r.register("round", func(ctx *CallContext, args []Value) (Value, error) {
		return roundWith(ctx, args, math.Round)
	}, true)
	_ = r.register("floor", func(ctx *CallContext, args []Value) (Value, error) {
		return roundWith(ctx, args, math.Floor)
	}, true)
	_ = r.register("ceil", func(ctx *CallContext, args []Value) (Value, error) {
		return roundWith(ctx, args, math.Ceil)
	}, true)
	_ = r.register("substr", builtinSubstr, true)
	_ = r.register("parseInt", builtinParseInt, true)
	_ = r.register("parseVal", builtinParseInt, true)
	_ = r.register("parseBool", builtinParseBool, true)
}

func writeValues(ctx *CallContext, args []Value, suffix string) (Value, error) {
	parts := make([]string, len(args))
	for i, v := range args {
		parts[i] = Display(v)
	}
	if _, err := io.WriteString(ctx.Stdout, strings.Join(parts, " ")+suffix); err != nil {
		return nil, evalError(ErrCodeType, "%s: %v", ctx.Name, err)
	}
	return Unit{}, nil
}

func builtinInput(ctx *CallContext, args []Value) (Value, error) {
	if len(args) > 1 {
		return nil, arityError(ctx.Name, "0 or 1", len(args))
	}
	if len(args) == 1 {
		switch args[0].(type) {
		case Char, List:
			if _, err := io.WriteString(ctx.Stdout, Display(args[0])); err != nil {
				return nil, evalError(ErrCodeType, "%s: %v", ctx.Name, err)
			}
		default:
			return nil, typeError("can't coerce to a string or char", args[0])
		}
	}
	if ctx.Stdin == nil {
		return Unit{}, nil
	}
	line, err := ctx.Stdin.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return Unit{}, nil
	}
	return NewStr(strings.TrimRight(line, "\r\n")), nil
}

func mapCase(ctx *CallContext, args []Value, text func(string) string, char func(rune) rune) (Value, error) {
	if err := expectArgs(ctx, args, 1); err != nil {
		return nil, err
	}
	if c, ok := args[0].(Char); ok {
		return Char(char(rune(c))), nil
	}
	s, err := textArg(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return NewStr(text(s)), nil
}

// roundWith applies fn to a number or to numeric text and returns an Int.
func roundWith(ctx *CallContext, args []Value, fn func(float64) float64) (Value, error) {
	if err := expectArgs(ctx, args, 1); err != nil {
		return nil, err
	}
	var raw any
	switch x := args[0].(type) {
	case Int:
		return x, nil
	case Float:
		raw = float64(x)
	case List:
		text, ok := x.Text()
		if !ok {
			return nil, typeError(ctx.Name+" expects a number", args[0])
		}
		raw = strings.TrimSpace(text)
	default:
		return nil, typeError(ctx.Name+" expects a number", args[0])
	}
	f, ok := convert.ToFloat64(raw)
	if !ok {
		return nil, typeError(ctx.Name+" expects a number", args[0])
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &Error{Code: ErrCodeArithmetic, Message: ctx.Name + ": cannot convert " + args[0].String() + " to an integer", Op: ctx.Name, Value: args[0].String()}
	}
	r := fn(f)
	if r >= math.MaxInt64 || r < math.MinInt64 {
		return nil, &Error{Code: ErrCodeArithmetic, Message: ctx.Name + ": " + args[0].String() + " is out of integer range", Op: ctx.Name, Value: args[0].String()}
	}
	return Int(int64(r)), nil
}

func builtinSubstr(ctx *CallContext, args []Value) (Value, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, arityError(ctx.Name, "2 or 3", len(args))
	}
	s, err := textArg(ctx, args[0])
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	begin, ok := args[1].(Int)
	if !ok {
		return nil, typeError(ctx.Name+" expects an integer start", args[1])
	}
	end := Int(len(runes))
	if len(args) == 3 {
		if end, ok = args[2].(Int); !ok {
			return nil, typeError(ctx.Name+" expects an integer end", args[2])
		}
	}
	if begin < 0 || end > Int(len(runes)) || begin > end {
		return nil, &Error{
			Code:    ErrCodeIndex,
			Message: fmt.Sprintf("%s: range [%d, %d) out of bounds for length %d", ctx.Name, begin, end, len(runes)),
			Op:      ctx.Name,
			Value:   args[0].String(),
		}
	}
	return NewStr(string(runes[begin:end])), nil
}

func builtinParseInt(ctx *CallContext, args []Value) (Value, error) {
	if err := expectArgs(ctx, args, 1); err != nil {
		return nil, err
	}
	s, err := textArg(ctx, args[0])
	if err != nil {
		return nil, err
	}
	n, ok := convert.ToInt64(strings.TrimSpace(s))
	if !ok {
		return Unit{}, nil
	}
	return Int(n), nil
}

// builtinParseBool accepts the forms of strconv.ParseBool in any case.
func builtinParseBool(ctx *CallContext, args []Value) (Value, error) {
	if err := expectArgs(ctx, args, 1); err != nil {
		return nil, err
	}
	s, err := textArg(ctx, args[0])
	if err != nil {
		return nil, err
	}
	b, ok := convert.ToBool(strings.ToLower(strings.TrimSpace(s)))
	if !ok {
		return Unit{}, nil
	}
	return Bool(b), nil
}

func expectArgs(ctx *CallContext, args []Value, n int) error {
	if len(args) != n {
		return arityError(ctx.Name, strconv.Itoa(n), len(args))
	}
	return nil
}

func arityError(name, want string, got int) *Error {
	return &Error{
		Code:    ErrCodeArity,
		Message: fmt.Sprintf("%s expects %s argument(s), got %d", name, want, got),
		Op:      name,
	}
}

func textArg(ctx *CallContext, v Value) (string, error) {
	l, ok := v.(List)
	if !ok {
		return "", typeError(ctx.Name+" expects a string", v)
	}
	s, ok := l.Text()
	if !ok {
		return "", typeError(ctx.Name+" expects a string", v)
	}
	return s, nil
}
