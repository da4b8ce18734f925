package toml

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
)

// Unmarshal parses TOML data into the value pointed to by v
// Keys without a matching field are ignored
func Unmarshal(data []byte, v any) error {
	return unmarshal(data, v, false)
}

// UnmarshalStrict is Unmarshal that fails with *UnknownKeysError when the document
// carries keys no field accepts; v is still fully populated
func UnmarshalStrict(data []byte, v any) error {
	return unmarshal(data, v, true)
}

func unmarshal(data []byte, v any, strict bool) error {
	doc, err := Parse(data)
	if err != nil {
		return err
	}
	d := &decoder{strict: strict}
	if err := d.decode(doc, v); err != nil {
		return err
	}
	if len(d.unknown) > 0 {
		sort.Strings(d.unknown)
		return &UnknownKeysError{Keys: d.unknown}
	}
	return nil
}

// Decode maps a parsed document onto v using `toml` tags, falling back to field names
func Decode(doc map[string]any, v any) error {
	return (&decoder{}).decode(doc, v)
}

// UnknownKeysError lists dotted paths of keys that matched no field
type UnknownKeysError struct {
	Keys []string
}

func (e *UnknownKeysError) Error() string {
	return "toml: unknown keys: " + strings.Join(e.Keys, ", ")
}

type decoder struct {
	strict  bool
	unknown []string
}

func (d *decoder) decode(data any, v any) error {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Pointer || val.IsNil() {
		return fmt.Errorf("toml: decode target must be a non-nil pointer, got %T", v)
	}
	return d.value("", data, val.Elem())
}

func (d *decoder) value(path string, data any, val reflect.Value) error {
	if data == nil {
		return nil
	}

	switch val.Kind() {
	case reflect.Pointer:
		elem := reflect.New(val.Type().Elem())
		if err := d.value(path, data, elem.Elem()); err != nil {
			return err
		}
		val.Set(elem)

	case reflect.Struct:
		m, ok := data.(map[string]any)
		if !ok {
			return typeError(path, "table", data)
		}
		return d.structFields(path, m, val)

	case reflect.Slice:
		items, ok := asList(data)
		if !ok {
			return typeError(path, "array", data)
		}
		out := reflect.MakeSlice(val.Type(), len(items), len(items))
		for i, item := range items {
			if err := d.value(indexPath(path, i), item, out.Index(i)); err != nil {
				return err
			}
		}
		val.Set(out)

	case reflect.Array:
		items, ok := asList(data)
		if !ok {
			return typeError(path, "array", data)
		}
		if len(items) != val.Len() {
			return fmt.Errorf("toml: %s: expected %d elements, got %d", displayPath(path), val.Len(), len(items))
		}
		for i, item := range items {
			if err := d.value(indexPath(path, i), item, val.Index(i)); err != nil {
				return err
			}
		}

	case reflect.Map:
		if val.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("toml: %s: map keys must be strings", displayPath(path))
		}
		m, ok := data.(map[string]any)
		if !ok {
			return typeError(path, "table", data)
		}
		out := reflect.MakeMapWithSize(val.Type(), len(m))
		for k, item := range m {
			elem := reflect.New(val.Type().Elem()).Elem()
			if err := d.value(joinPath(path, k), item, elem); err != nil {
				return err
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(val.Type().Key()), elem)
		}
		val.Set(out)

	case reflect.Interface:
		if val.NumMethod() != 0 {
			return fmt.Errorf("toml: %s: cannot decode into non-empty interface %s", displayPath(path), val.Type())
		}
		val.Set(reflect.ValueOf(data))

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := data.(int64)
		if !ok {
			return typeError(path, "integer", data)
		}
		if val.OverflowInt(n) {
			return fmt.Errorf("toml: %s: %d overflows %s", displayPath(path), n, val.Type())
		}
		val.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := data.(int64)
		if !ok {
			return typeError(path, "integer", data)
		}
		if n < 0 || val.OverflowUint(uint64(n)) {
			return fmt.Errorf("toml: %s: %d out of range for %s", displayPath(path), n, val.Type())
		}
		val.SetUint(uint64(n))

	case reflect.Float32, reflect.Float64:
		var f float64
		switch x := data.(type) {
		case float64:
			f = x
		case int64:
			// Integers are accepted where floats are expected: length = 1
			f = float64(x)
		default:
			return typeError(path, "float", data)
		}
		if val.Kind() == reflect.Float32 && !math.IsInf(f, 0) && val.OverflowFloat(f) {
			return fmt.Errorf("toml: %s: %g overflows float32", displayPath(path), f)
		}
		val.SetFloat(f)

	case reflect.String:
		s, ok := data.(string)
		if !ok {
			return typeError(path, "string", data)
		}
		val.SetString(s)

	case reflect.Bool:
		b, ok := data.(bool)
		if !ok {
			return typeError(path, "boolean", data)
		}
		val.SetBool(b)

	default:
		return fmt.Errorf("toml: %s: unsupported field type %s", displayPath(path), val.Type())
	}
	return nil
}

func (d *decoder) structFields(path string, m map[string]any, val reflect.Value) error {
	typ := val.Type()
	seen := make(map[string]bool, len(m))

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		key, skip := fieldKey(field)
		if skip {
			continue
		}

		data, ok := m[key]
		if !ok {
			continue
		}
		seen[key] = true
		if err := d.value(joinPath(path, key), data, val.Field(i)); err != nil {
			return err
		}
	}

	if d.strict {
		for k := range m {
			if !seen[k] {
				d.unknown = append(d.unknown, joinPath(path, k))
			}
		}
	}
	return nil
}

// fieldKey resolves the document key of a struct field from its tag
func fieldKey(f reflect.StructField) (key string, skip bool) {
	tag := f.Tag.Get("toml")
	if tag == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	return name, false
}

func asList(data any) ([]any, bool) {
	switch x := data.(type) {
	case []any:
		return x, true
	case []map[string]any:
		out := make([]any, len(x))
		for i, m := range x {
			out[i] = m
		}
		return out, true
	}
	return nil, false
}

func typeError(path, want string, got any) error {
	return fmt.Errorf("toml: %s: expected %s, got %s", displayPath(path), want, describe(got))
}

func describe(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case int64:
		return "integer"
	case float64:
		return "float"
	case bool:
		return "boolean"
	case []any, []map[string]any:
		return "array"
	case map[string]any:
		return "table"
	}
	return fmt.Sprintf("%T", v)
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func indexPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

func displayPath(path string) string {
	if path == "" {
		return "document"
	}
	return path
}
