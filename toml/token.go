package toml

import "fmt"

type tokenKind int

const (
	tokError tokenKind = iota
	tokEOF
	tokNewline

	tokBare   // bare key or keyword
	tokString // basic or literal string, already unescaped
	tokInteger
	tokFloat
	tokBool

	tokEqual
	tokDot
	tokComma
	tokLBracket
	tokRBracket
	tokLBrace
	tokRBrace
)

type token struct {
	kind tokenKind
	text string
	line int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokNewline:
		return "newline"
	case tokError:
		return "error: " + t.text
	}
	if len(t.text) > 24 {
		return fmt.Sprintf("%q...", t.text[:24])
	}
	return fmt.Sprintf("%q", t.text)
}

// ParseError locates a syntax error in the input
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("toml: line %d: %s", e.Line, e.Msg)
}
