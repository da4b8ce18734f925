package toml

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse reads a TOML document into nested map[string]any values
// Tables are map[string]any, arrays of tables []map[string]any, other arrays []any;
// integers are int64 and floats float64
func Parse(data []byte) (map[string]any, error) {
	p := &parser{
		lex:     newLexer(data),
		root:    make(map[string]any),
		defined: make(map[string]bool),
	}
	p.advance()
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.root, nil
}

type parser struct {
	lex  *lexer
	tok  token
	root map[string]any
	// scope is the table receiving key/value pairs
	scope map[string]any
	// defined records explicit [table] headers so they cannot repeat
	defined map[string]bool
}

func (p *parser) advance() {
	p.tok = p.lex.next()
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Line: p.tok.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parse() error {
	p.scope = p.root
	for {
		switch p.tok.kind {
		case tokEOF:
			return nil
		case tokNewline:
			p.advance()
			continue
		case tokLBracket:
			if err := p.header(); err != nil {
				return err
			}
		case tokError:
			return p.errorf("%s", p.tok.text)
		default:
			if err := p.keyValue(p.scope); err != nil {
				return err
			}
		}

		// Every statement ends the line
		switch p.tok.kind {
		case tokNewline, tokEOF:
		default:
			return p.errorf("expected end of line, got %s", p.tok)
		}
	}
}

// header handles [table] and [[array.of.tables]]
func (p *parser) header() error {
	p.advance()
	array := false
	if p.tok.kind == tokLBracket {
		array = true
		p.advance()
	}

	keys, err := p.key()
	if err != nil {
		return err
	}

	closers := 1
	if array {
		closers = 2
	}
	for i := 0; i < closers; i++ {
		if p.tok.kind != tokRBracket {
			return p.errorf("expected ] to close table header, got %s", p.tok)
		}
		p.advance()
	}

	path := strings.Join(keys, ".")
	parent, err := p.walk(keys[:len(keys)-1])
	if err != nil {
		return err
	}
	last := keys[len(keys)-1]

	if array {
		existing, ok := parent[last]
		var list []map[string]any
		if ok {
			list, ok = existing.([]map[string]any)
			if !ok {
				return p.errorf("%s is not an array of tables", path)
			}
		}
		table := make(map[string]any)
		parent[last] = append(list, table)
		p.scope = table
		// Sub-tables of the new element may be declared again
		for k := range p.defined {
			if strings.HasPrefix(k, path+".") {
				delete(p.defined, k)
			}
		}
		return nil
	}

	if p.defined[path] {
		return p.errorf("table %s defined twice", path)
	}
	p.defined[path] = true

	switch existing := parent[last].(type) {
	case nil:
		table := make(map[string]any)
		parent[last] = table
		p.scope = table
	case map[string]any:
		p.scope = existing
	default:
		return p.errorf("%s is not a table", path)
	}
	return nil
}

// walk descends from the root through keys, creating tables as needed
// An array of tables is entered through its last element
func (p *parser) walk(keys []string) (map[string]any, error) {
	cur := p.root
	for _, k := range keys {
		switch next := cur[k].(type) {
		case nil:
			m := make(map[string]any)
			cur[k] = m
			cur = m
		case map[string]any:
			cur = next
		case []map[string]any:
			if len(next) == 0 {
				return nil, p.errorf("array of tables %s is empty", k)
			}
			cur = next[len(next)-1]
		default:
			return nil, p.errorf("key %s is not a table", k)
		}
	}
	return cur, nil
}

func (p *parser) key() ([]string, error) {
	var keys []string
	for {
		switch p.tok.kind {
		case tokBare, tokString, tokInteger, tokBool:
			keys = append(keys, p.tok.text)
		case tokFloat:
			// inf and nan are values on the right and plain words on the left
			if strings.Contains(p.tok.text, ".") {
				return nil, p.errorf("expected key, got %s", p.tok)
			}
			keys = append(keys, p.tok.text)
		default:
			return nil, p.errorf("expected key, got %s", p.tok)
		}
		p.advance()
		if p.tok.kind != tokDot {
			return keys, nil
		}
		p.advance()
	}
}

func (p *parser) keyValue(table map[string]any) error {
	keys, err := p.key()
	if err != nil {
		return err
	}
	if p.tok.kind != tokEqual {
		return p.errorf("expected = after key %s, got %s", strings.Join(keys, "."), p.tok)
	}
	p.advance()

	val, err := p.value()
	if err != nil {
		return err
	}

	cur := table
	for _, k := range keys[:len(keys)-1] {
		switch next := cur[k].(type) {
		case nil:
			m := make(map[string]any)
			cur[k] = m
			cur = m
		case map[string]any:
			cur = next
		default:
			return p.errorf("key %s is not a table", k)
		}
	}

	last := keys[len(keys)-1]
	if _, dup := cur[last]; dup {
		return p.errorf("duplicate key %s", strings.Join(keys, "."))
	}
	cur[last] = val
	return nil
}

func (p *parser) value() (any, error) {
	t := p.tok
	switch t.kind {
	case tokString:
		p.advance()
		return t.text, nil
	case tokBool:
		p.advance()
		return t.text == "true", nil
	case tokInteger:
		n, err := strconv.ParseInt(t.text, 0, 64)
		if err != nil {
			return nil, p.errorf("integer %s: %v", t.text, err)
		}
		p.advance()
		return n, nil
	case tokFloat:
		f, err := parseFloat(t.text)
		if err != nil {
			return nil, p.errorf("float %s: %v", t.text, err)
		}
		p.advance()
		return f, nil
	case tokLBracket:
		return p.array()
	case tokLBrace:
		return p.inlineTable()
	case tokError:
		return nil, p.errorf("%s", t.text)
	}
	return nil, p.errorf("expected value, got %s", t)
}

func parseFloat(s string) (float64, error) {
	switch strings.TrimLeft(s, "+") {
	case "inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	case "nan", "-nan":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// array reads [v, v, ...]; newlines and a trailing comma are allowed
func (p *parser) array() ([]any, error) {
	p.advance()
	out := make([]any, 0)
	for {
		p.skipNewlines()
		if p.tok.kind == tokRBracket {
			p.advance()
			return out, nil
		}

		v, err := p.value()
		if err != nil {
			return nil, err
		}
		out = append(out, v)

		p.skipNewlines()
		switch p.tok.kind {
		case tokComma:
			p.advance()
		case tokRBracket:
		default:
			return nil, p.errorf("expected , or ] in array, got %s", p.tok)
		}
	}
}

// inlineTable reads { k = v, ... } on one line
func (p *parser) inlineTable() (map[string]any, error) {
	p.advance()
	out := make(map[string]any)
	if p.tok.kind == tokRBrace {
		p.advance()
		return out, nil
	}
	for {
		if err := p.keyValue(out); err != nil {
			return nil, err
		}
		switch p.tok.kind {
		case tokComma:
			p.advance()
		case tokRBrace:
			p.advance()
			return out, nil
		default:
			return nil, p.errorf("expected , or } in inline table, got %s", p.tok)
		}
	}
}

func (p *parser) skipNewlines() {
	for p.tok.kind == tokNewline {
		p.advance()
	}
}
