package rustscript

import (
	sterrors "errors"
	"fmt"
	"strings"
)

type ErrorCode string

const (
	ErrCodeLex               ErrorCode = "LEX_ERROR"
	ErrCodeParse             ErrorCode = "PARSE_ERROR"
	ErrCodeUndefinedVariable ErrorCode = "UNDEFINED_VARIABLE"
	ErrCodeUndefinedMember   ErrorCode = "UNDEFINED_MODULE_MEMBER"
	ErrCodeType              ErrorCode = "TYPE_ERROR"
	ErrCodeCoercion          ErrorCode = "COERCION_ERROR"
	ErrCodeArity             ErrorCode = "ARITY_ERROR"
	ErrCodeDuplicateArity    ErrorCode = "DUPLICATE_ARITY"
	ErrCodeNoMatch           ErrorCode = "NO_MATCH"
	ErrCodeImport            ErrorCode = "IMPORT_ERROR"
	ErrCodeIndex             ErrorCode = "INDEX_ERROR"
	ErrCodeArithmetic        ErrorCode = "ARITHMETIC_ERROR"
	ErrCodeStackOverflow     ErrorCode = "STACK_OVERFLOW"
	ErrCodeRegistry          ErrorCode = "REGISTRY_ERROR"
)

// Position locates a token or node in source text. The zero value means
// the position is unknown.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Error is returned by every stage of the interpreter. Callers branch on
// Code; the remaining fields are filled in where the stage knows them.
type Error struct {
	Code    ErrorCode
	Message string
	// Op is the operator or builtin that failed, e.g. "Badd".
	Op string
	// Value is the rendered form of the offending value.
	Value    string
	Expected string
	Found    string
	Pos      Position
	Details  []string
	Cause    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	if e.Pos.IsValid() {
		sb.WriteString(" at ")
		sb.WriteString(e.Pos.String())
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// CodeOf returns the code of the first *Error in err's chain, or "" when
// there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if sterrors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsIncomplete reports whether err is a syntax error caused by the input
// ending early, so more input could still make it parse.
func IsIncomplete(err error) bool {
	var e *Error
	if !sterrors.As(err, &e) {
		return false
	}
	switch e.Code {
	case ErrCodeParse:
		return e.Found == EOF
	case ErrCodeLex:
		return strings.HasPrefix(e.Message, "unterminated")
	}
	return false
}

// FormatError renders err with the offending source line and a caret under
// the reported column, when src and a position are available.
func FormatError(err error, src string) string {
	var e *Error
	if !sterrors.As(err, &e) || !e.Pos.IsValid() || src == "" {
		return err.Error()
	}
	lines := strings.Split(src, "\n")
	if e.Pos.Line > len(lines) {
		return e.Error()
	}
	line := strings.TrimRight(lines[e.Pos.Line-1], "\r")
	col := e.Pos.Column
	if col < 1 {
		col = 1
	}
	var sb strings.Builder
	sb.WriteString(e.Error())
	sb.WriteString("\n  ")
	sb.WriteString(strings.ReplaceAll(line, "\t", " "))
	sb.WriteString("\n  ")
	sb.WriteString(strings.Repeat(" ", col-1))
	sb.WriteString("^")
	for _, d := range e.Details {
		sb.WriteString("\n  ")
		sb.WriteString(d)
	}
	return sb.String()
}

func lexError(pos Position, format string, args ...any) *Error {
	return &Error{Code: ErrCodeLex, Message: fmt.Sprintf(format, args...), Pos: pos}
}

func parseError(tok Token, expected string) *Error {
	return &Error{
		Code:     ErrCodeParse,
		Message:  fmt.Sprintf("expected %s, found %s", expected, tok),
		Expected: expected,
		Found:    string(tok.Type),
		Pos:      tok.Pos(),
	}
}

func typeError(op string, v Value) *Error {
	return &Error{
		Code:    ErrCodeType,
		Message: fmt.Sprintf("%s: %s", op, v),
		Op:      op,
		Value:   v.String(),
	}
}

func binaryTypeError(op string, lhs, rhs Value) *Error {
	return &Error{
		Code:    ErrCodeType,
		Message: fmt.Sprintf("%s: %s and %s", op, lhs, rhs),
		Op:      op,
		Value:   lhs.String() + ", " + rhs.String(),
	}
}

func evalError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// at attaches pos to err when err is an *Error without a position yet.
func at(err error, pos Position) error {
	var e *Error
	if sterrors.As(err, &e) && !e.Pos.IsValid() && pos.IsValid() {
		e.Pos = pos
	}
	return err
}
