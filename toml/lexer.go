package toml

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// lexer splits input into tokens; comments and blank space never reach the parser
type lexer struct {
	src  []byte
	pos  int
	line int
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src, line: 1}
}

func (l *lexer) next() token {
	l.skipBlank()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: l.line}
	}

	ch := l.src[l.pos]
	switch ch {
	case '\n':
		l.pos++
		l.line++
		return token{kind: tokNewline, line: l.line - 1}
	case '=':
		return l.single(tokEqual)
	case '.':
		return l.single(tokDot)
	case ',':
		return l.single(tokComma)
	case '[':
		return l.single(tokLBracket)
	case ']':
		return l.single(tokRBracket)
	case '{':
		return l.single(tokLBrace)
	case '}':
		return l.single(tokRBrace)
	case '"':
		return l.basicString()
	case '\'':
		return l.literalString()
	}

	if isBareChar(ch) || ch == '+' {
		return l.word()
	}

	r, _ := utf8.DecodeRune(l.src[l.pos:])
	l.pos++
	return l.fail("unexpected character " + strconv.QuoteRune(r))
}

func (l *lexer) single(kind tokenKind) token {
	t := token{kind: kind, text: string(l.src[l.pos]), line: l.line}
	l.pos++
	return t
}

func (l *lexer) fail(msg string) token {
	return token{kind: tokError, text: msg, line: l.line}
}

// skipBlank consumes spaces, tabs, carriage returns and comments, stopping at newlines
func (l *lexer) skipBlank() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\r':
			l.pos++
		case '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) basicString() token {
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		switch {
		case ch == '"':
			l.pos++
			return token{kind: tokString, text: sb.String(), line: l.line}
		case ch == '\n':
			return l.fail("newline in string")
		case ch == '\\':
			if l.pos+1 >= len(l.src) {
				return l.fail("unterminated escape")
			}
			esc := l.src[l.pos+1]
			l.pos += 2
			switch esc {
			case '"', '\\':
				sb.WriteByte(esc)
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case 'u', 'U':
				n := 4
				if esc == 'U' {
					n = 8
				}
				if l.pos+n > len(l.src) {
					return l.fail("short unicode escape")
				}
				code, err := strconv.ParseUint(string(l.src[l.pos:l.pos+n]), 16, 32)
				if err != nil || !utf8.ValidRune(rune(code)) {
					return l.fail("invalid unicode escape")
				}
				sb.WriteRune(rune(code))
				l.pos += n
			default:
				return l.fail("invalid escape \\" + string(esc))
			}
		default:
			sb.WriteByte(ch)
			l.pos++
		}
	}
	return l.fail("unterminated string")
}

func (l *lexer) literalString() token {
	l.pos++
	start := l.pos
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case '\'':
			t := token{kind: tokString, text: string(l.src[start:l.pos]), line: l.line}
			l.pos++
			return t
		case '\n':
			return l.fail("newline in literal string")
		}
		l.pos++
	}
	return l.fail("unterminated literal string")
}

// word reads a bare key, boolean or number
// Dots split bare keys but belong to floats, so a word starting with a sign or digit keeps them
func (l *lexer) word() token {
	start := l.pos
	numeric := l.src[l.pos] == '+' || l.src[l.pos] == '-' || isDigit(l.src[l.pos])
	for l.pos < len(l.src) {
		ch := l.src[l.pos]
		if isBareChar(ch) || (numeric && (ch == '.' || ch == '+')) {
			l.pos++
			continue
		}
		break
	}
	text := string(l.src[start:l.pos])

	switch text {
	case "true", "false":
		return token{kind: tokBool, text: text, line: l.line}
	case "inf", "+inf", "-inf", "nan", "+nan", "-nan":
		return token{kind: tokFloat, text: text, line: l.line}
	}
	if !numeric {
		return token{kind: tokBare, text: text, line: l.line}
	}
	return l.number(text)
}

func (l *lexer) number(text string) token {
	clean := text
	if strings.Contains(text, "_") {
		if strings.HasPrefix(text, "_") || strings.HasSuffix(text, "_") || strings.Contains(text, "__") {
			return l.fail("misplaced underscore in number " + text)
		}
		clean = strings.ReplaceAll(text, "_", "")
	}

	if isIntLiteral(clean) {
		return token{kind: tokInteger, text: clean, line: l.line}
	}
	if isFloatLiteral(clean) {
		return token{kind: tokFloat, text: clean, line: l.line}
	}
	// Digits-first bare keys such as 3d_offset are legal keys
	if isDigit(text[0]) && !strings.ContainsAny(text, "+.") {
		return token{kind: tokBare, text: text, line: l.line}
	}
	return l.fail("invalid number " + text)
}

func isIntLiteral(s string) bool {
	if _, err := strconv.ParseInt(s, 0, 64); err != nil {
		return false
	}
	digits := strings.TrimLeft(s, "+-")
	// Base 0 reads a leading zero as octal; plain decimals must not have one
	return !(len(digits) > 1 && digits[0] == '0' && isDigit(digits[1]))
}

func isFloatLiteral(s string) bool {
	if !strings.ContainsAny(s, ".eE") || strings.ContainsAny(s, "xXpP") {
		return false
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return false
	}
	// A dot needs a digit on both sides
	for i := 0; i < len(s); i++ {
		if s[i] == '.' && (i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1])) {
			return false
		}
	}
	return true
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isBareChar(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || isDigit(ch) || ch == '_' || ch == '-'
}
