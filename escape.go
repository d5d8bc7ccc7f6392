package rustscript

import (
	"strconv"
	"strings"
)

var simpleEscapes = map[rune]rune{
	'0':  0,
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'v':  '\v',
	'e':  0x1b,
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
}

var reverseEscapes = map[rune]string{
	0:    `\0`,
	'\a': `\a`,
	'\b': `\b`,
	'\f': `\f`,
	'\n': `\n`,
	'\r': `\r`,
	'\t': `\t`,
	'\v': `\v`,
	0x1b: `\e`,
	'\\': `\\`,
}

func escapeRune(r rune, quote rune) string {
	if r == quote {
		return `\` + string(r)
	}
	if s, ok := reverseEscapes[r]; ok {
		return s
	}
	if r < 0x20 || r == 0x7f {
		return `\u` + strings.ToUpper(leftPad(strconv.FormatInt(int64(r), 16), 4))
	}
	return string(r)
}

func leftPad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}

func renderChar(r rune) string {
	return "'" + escapeRune(r, '\'') + "'"
}

func renderString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		sb.WriteString(escapeRune(r, '"'))
	}
	sb.WriteByte('"')
	return sb.String()
}

func isHexDigit(r rune) bool {
	return ('0' <= r && r <= '9') || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}
