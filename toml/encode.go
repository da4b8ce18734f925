package toml

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Marshal returns the TOML encoding of a struct or map[string]T
//
// Struct fields are written in declaration order, map keys sorted. Plain values come
// before sub-tables so every key lands in the right table. Nil pointers and interfaces
// are skipped, as are zero fields tagged `omitempty`.
func Marshal(v any) ([]byte, error) {
	rv := indirect(reflect.ValueOf(v))
	if !rv.IsValid() {
		return nil, fmt.Errorf("toml: cannot marshal nil")
	}
	if rv.Kind() != reflect.Struct && rv.Kind() != reflect.Map {
		return nil, fmt.Errorf("toml: root must be a struct or map, got %s", rv.Kind())
	}

	var buf bytes.Buffer
	if err := writeTable(&buf, rv, ""); err != nil {
		return nil, err
	}
	return bytes.TrimLeft(buf.Bytes(), "\n"), nil
}

type entry struct {
	key string
	val reflect.Value
}

func writeTable(buf *bytes.Buffer, rv reflect.Value, prefix string) error {
	entries, err := tableEntries(rv)
	if err != nil {
		return err
	}

	var tables []entry
	for _, e := range entries {
		if isTableValue(e.val) {
			tables = append(tables, e)
			continue
		}
		buf.WriteString(formatKey(e.key))
		buf.WriteString(" = ")
		if err := writeValue(buf, e.val); err != nil {
			return fmt.Errorf("toml: key %s: %w", joinPath(prefix, e.key), err)
		}
		buf.WriteByte('\n')
	}

	for _, e := range tables {
		header := joinPath(prefix, formatKey(e.key))
		if e.val.Kind() == reflect.Struct || e.val.Kind() == reflect.Map {
			buf.WriteString("\n[" + header + "]\n")
			if err := writeTable(buf, e.val, header); err != nil {
				return err
			}
			continue
		}
		for i := 0; i < e.val.Len(); i++ {
			elem := indirect(e.val.Index(i))
			if !elem.IsValid() {
				continue
			}
			buf.WriteString("\n[[" + header + "]]\n")
			if err := writeTable(buf, elem, header); err != nil {
				return err
			}
		}
	}
	return nil
}

// tableEntries lists the encodable members of a struct or map
func tableEntries(rv reflect.Value) ([]entry, error) {
	var out []entry
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("toml: map keys must be strings, got %s", rv.Type().Key())
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			if v := indirect(rv.MapIndex(k)); v.IsValid() {
				out = append(out, entry{key: k.String(), val: v})
			}
		}
	case reflect.Struct:
		typ := rv.Type()
		for i := 0; i < typ.NumField(); i++ {
			f := typ.Field(i)
			if !f.IsExported() {
				continue
			}
			key, skip := fieldKey(f)
			if skip {
				continue
			}
			v := indirect(rv.Field(i))
			if !v.IsValid() {
				continue
			}
			if strings.Contains(f.Tag.Get("toml"), ",omitempty") && v.IsZero() {
				continue
			}
			out = append(out, entry{key: key, val: v})
		}
	}
	return out, nil
}

// indirect unwraps pointers and interfaces; nil yields the zero Value
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// isTableValue reports whether v is written under a header rather than inline
func isTableValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Struct, reflect.Map:
		return true
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return false
		}
		first := indirect(v.Index(0))
		return first.Kind() == reflect.Struct || first.Kind() == reflect.Map
	}
	return false
}

func writeValue(buf *bytes.Buffer, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Bool:
		buf.WriteString(strconv.FormatBool(v.Bool()))
	case reflect.String:
		buf.WriteString(quote(v.String()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v.Uint() > math.MaxInt64 {
			return fmt.Errorf("%d exceeds int64", v.Uint())
		}
		buf.WriteString(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		buf.WriteString(formatFloat(v.Float()))
	case reflect.Slice, reflect.Array:
		buf.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				buf.WriteString(", ")
			}
			elem := indirect(v.Index(i))
			if !elem.IsValid() {
				return fmt.Errorf("nil array element %d", i)
			}
			if err := writeValue(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case reflect.Struct, reflect.Map:
		// Tables inside inline arrays
		return writeInlineTable(buf, v)
	default:
		return fmt.Errorf("unsupported type %s", v.Type())
	}
	return nil
}

func writeInlineTable(buf *bytes.Buffer, v reflect.Value) error {
	entries, err := tableEntries(v)
	if err != nil {
		return err
	}
	buf.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			buf.WriteString(", ")
		} else {
			buf.WriteByte(' ')
		}
		buf.WriteString(formatKey(e.key))
		buf.WriteString(" = ")
		if err := writeValue(buf, e.val); err != nil {
			return err
		}
	}
	if len(entries) > 0 {
		buf.WriteByte(' ')
	}
	buf.WriteByte('}')
	return nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

// formatKey quotes keys the lexer would not read back as a bare key
func formatKey(k string) string {
	if k == "" || k == "true" || k == "false" {
		return quote(k)
	}
	for i := 0; i < len(k); i++ {
		if !isBareChar(k[i]) {
			return quote(k)
		}
	}
	if isDigit(k[0]) || k[0] == '-' {
		return quote(k)
	}
	return k
}

func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\u%04X`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
