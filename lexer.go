package rustscript

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           rune
	eof          bool
	line         int
	column       int
}

func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1}
	l.readChar()
	return l
}

// Tokenize lexes the whole input. The returned slice always ends with an
// EOF token. Lexing stops at the first error.
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) readChar() {
	if l.ch == '\n' && !l.eof {
		l.line++
		l.column = 0
	}
	l.position = l.readPosition
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.eof = true
		l.column++
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.readPosition += w
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) pos() Position {
	return Position{Offset: l.position, Line: l.line, Column: l.column}
}

func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespaceAndComments()
	start := l.pos()
	if l.eof {
		return l.token(EOF, "", start), nil
	}
	switch l.ch {
	case '\n', ';':
		return l.readSeparator(start), nil
	case '=':
		switch l.peekChar() {
		case '=':
			l.readChar()
			l.readChar()
			return l.token(EQ, "==", start), nil
		case '>':
			l.readChar()
			l.readChar()
			return l.token(ARROW, "=>", start), nil
		}
		l.readChar()
		return l.token(ASSIGN, "=", start), nil
	case '!':
		if l.peekChar() != '=' {
			return Token{}, lexError(start, "unexpected character '!', did you mean '!='?")
		}
		l.readChar()
		l.readChar()
		return l.token(NOT_EQ, "!=", start), nil
	case '&':
		if l.peekChar() != '&' {
			return Token{}, lexError(start, "unexpected character '&', did you mean '&&'?")
		}
		l.readChar()
		l.readChar()
		return l.token(AND, "&&", start), nil
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			l.readChar()
			return l.token(OR, "||", start), nil
		}
		l.readChar()
		return l.token(PIPE, "|", start), nil
	case '.':
		if l.peekChar() == '.' {
			l.readChar()
			l.readChar()
			return l.token(DOTDOT, "..", start), nil
		}
		l.readChar()
		return l.token(DOT, ".", start), nil
	case '\'':
		return l.readCharLiteral(start)
	case '"':
		return l.readStringLiteral(start)
	}
	if tt, ok := singleCharTokens[l.ch]; ok {
		lit := string(l.ch)
		l.readChar()
		return l.token(tt, lit, start), nil
	}
	if isDigit(l.ch) {
		return l.readNumber(start), nil
	}
	if isIdentStart(l.ch) {
		literal, err := l.readIdentifier()
		if err != nil {
			return Token{}, err
		}
		return l.token(lookupKeyword(literal), literal, start), nil
	}
	return Token{}, lexError(start, "unexpected character %q", l.ch)
}

var singleCharTokens = map[rune]TokenType{
	'+': PLUS,
	'-': MINUS,
	'*': ASTERISK,
	'/': SLASH,
	'%': PERCENT,
	'<': LT,
	'>': GT,
	'^': CARET,
	'$': DOLLAR,
	',': COMMA,
	'(': LPAREN,
	')': RPAREN,
	'[': LBRACKET,
	']': RBRACKET,
	'{': LBRACE,
	'}': RBRACE,
}

func (l *Lexer) token(tt TokenType, literal string, start Position) Token {
	return Token{
		Type:    tt,
		Literal: literal,
		Offset:  start.Offset,
		Length:  l.position - start.Offset,
		Line:    start.Line,
		Column:  start.Column,
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.eof {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for !l.eof && l.ch != '\n' {
				l.readChar()
			}
		default:
			return
		}
	}
}

// readSeparator folds a run of newlines and semicolons into one token. The
// run is a hard separator if it contains at least one semicolon.
func (l *Lexer) readSeparator(start Position) Token {
	tt := TokenType(NEWLINE)
	literal := "\n"
	for !l.eof && (l.ch == '\n' || l.ch == ';') {
		if l.ch == ';' {
			tt = SEMICOLON
			literal = ";"
		}
		l.readChar()
		l.skipWhitespaceAndComments()
	}
	return l.token(tt, literal, start)
}

func (l *Lexer) readIdentifier() (string, error) {
	start := l.position
	for {
		for isIdentChar(l.ch) && !l.eof {
			l.readChar()
		}
		// A dot continues the path unless it begins a `..` range.
		if l.ch != '.' || l.peekChar() == '.' {
			break
		}
		dot := l.pos()
		l.readChar()
		if l.eof || !isIdentStart(l.ch) {
			return "", lexError(dot, "expected identifier after '.' in %q", l.input[start:dot.Offset])
		}
	}
	return l.input[start:l.position], nil
}

func (l *Lexer) readNumber(start Position) Token {
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch != '.' || !isDigit(l.peekChar()) {
		return l.token(INT, l.input[start.Offset:l.position], start)
	}
	l.readChar()
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.token(FLOAT, l.input[start.Offset:l.position], start)
}

func (l *Lexer) readCharLiteral(start Position) (Token, error) {
	runes, err := l.readQuoted('\'', start)
	if err != nil {
		return Token{}, err
	}
	switch len(runes) {
	case 0:
		return Token{}, lexError(start, "empty character literal")
	case 1:
		return l.token(CHAR, string(runes), start), nil
	}
	return Token{}, lexError(start, "character literal %q holds %d characters, use \"...\" for strings", string(runes), len(runes))
}

func (l *Lexer) readStringLiteral(start Position) (Token, error) {
	runes, err := l.readQuoted('"', start)
	if err != nil {
		return Token{}, err
	}
	return l.token(STRING, string(runes), start), nil
}

// readQuoted consumes a quoted literal starting at the opening quote and
// returns its unescaped contents.
func (l *Lexer) readQuoted(quote rune, start Position) ([]rune, error) {
	l.readChar()
	var out []rune
	for {
		if l.eof {
			return nil, lexError(start, "unterminated literal, missing closing %c", quote)
		}
		switch l.ch {
		case quote:
			l.readChar()
			return out, nil
		case '\\':
			r, err := l.readEscape(quote, start)
			if err != nil {
				return nil, err
			}
			out = append(out, r)
		default:
			out = append(out, l.ch)
			l.readChar()
		}
	}
}

func (l *Lexer) readEscape(quote rune, start Position) (rune, error) {
	backslash := l.pos()
	l.readChar()
	if l.eof {
		return 0, lexError(start, "unterminated literal, missing closing %c", quote)
	}
	if l.ch == 'u' {
		l.readChar()
		digits := make([]rune, 0, 4)
		for i := 0; i < 4; i++ {
			if l.eof || !isHexDigit(l.ch) {
				return 0, lexError(backslash, "invalid unicode escape, expected 4 hex digits")
			}
			digits = append(digits, l.ch)
			l.readChar()
		}
		n, err := strconv.ParseUint(string(digits), 16, 32)
		if err != nil {
			return 0, lexError(backslash, "invalid unicode escape \\u%s", string(digits))
		}
		if n >= 0xD800 && n <= 0xDFFF {
			return 0, lexError(backslash, "invalid unicode escape \\u%s, surrogate code points are not characters", string(digits))
		}
		return rune(n), nil
	}
	r, ok := simpleEscapes[l.ch]
	if !ok {
		return 0, lexError(backslash, "invalid escape sequence '\\%c'", l.ch)
	}
	l.readChar()
	return r, nil
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentChar(ch rune) bool {
	return isIdentStart(ch) || unicode.IsDigit(ch)
}
