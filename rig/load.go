package rig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/fabrik/ik"
	"github.com/lixenwraith/fabrik/toml"
)

// Format names a rig file encoding
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

var formats = []string{string(FormatTOML), string(FormatYAML), string(FormatJSON)}

// ParseFormat accepts toml, yaml, yml and json in any case
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown rig format %q%s", s, ik.Suggest(strings.ToLower(s), formats))
}

// FormatFromPath picks the format from the file extension
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("rig file %s has no extension", path)
	}
	return ParseFormat(ext)
}

// Load reads a rig file; the format follows the extension
// Loading does not validate, call Validate or Build
func Load(path string) (*Definition, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rig file: %w", err)
	}
	d, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse decodes a definition; keys that match no field are errors in every format
func Parse(data []byte, format Format) (*Definition, error) {
	var d Definition
	switch format {
	case FormatTOML:
		if err := toml.UnmarshalStrict(data, &d); err != nil {
			var unknown *toml.UnknownKeysError
			if errors.As(err, &unknown) {
				return nil, fmt.Errorf("parsing rig TOML: %w", describeUnknown(unknown))
			}
			return nil, fmt.Errorf("parsing rig TOML: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("parsing rig YAML: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("parsing rig JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown rig format %q", format)
	}
	return &d, nil
}

// Encode writes d in the given format
func (d *Definition) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		return toml.Marshal(d)
	case FormatYAML:
		return yaml.Marshal(d)
	case FormatJSON:
		return json.MarshalIndent(d, "", "  ")
	}
	return nil, fmt.Errorf("unknown rig format %q", format)
}

// Save encodes d by the extension of path
func (d *Definition) Save(path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := d.Encode(format)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// knownKeys are the field names a rig file may use at any depth
var knownKeys = []string{
	"name", "solver", "chains", "targets", "tolerance", "max_iterations", "min_improvement",
	"base", "free_base", "base_constraint", "connect", "bones", "color", "direction", "length",
	"rotor", "joint", "type", "axis", "reference", "clockwise", "anticlockwise", "angle",
	"host", "bone", "point",
}

// keysError is a toml.UnknownKeysError with a suggestion per misspelt key
type keysError struct {
	err  *toml.UnknownKeysError
	msgs []string
}

func (e *keysError) Error() string { return "unknown keys: " + strings.Join(e.msgs, ", ") }
func (e *keysError) Unwrap() error { return e.err }

func describeUnknown(e *toml.UnknownKeysError) error {
	msgs := make([]string, len(e.Keys))
	for i, path := range e.Keys {
		leaf := path
		if dot := strings.LastIndexByte(path, '.'); dot >= 0 {
			leaf = path[dot+1:]
		}
		msgs[i] = path + ik.Suggest(leaf, knownKeys)
	}
	return &keysError{err: e, msgs: msgs}
}
