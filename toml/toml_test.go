package toml

import (
	"errors"
	"math"
	"strings"
	"testing"
)

type testJoint struct {
	Type          string     `toml:"type"`
	Axis          [3]float64 `toml:"axis"`
	Clockwise     float64    `toml:"clockwise"`
	Anticlockwise float64    `toml:"anticlockwise"`
}

type testBone struct {
	Name      string     `toml:"name,omitempty"`
	Direction [3]float64 `toml:"direction"`
	Length    float64    `toml:"length"`
	Joint     *testJoint `toml:"joint,omitempty"`
}

type testConnect struct {
	Host  string `toml:"host"`
	Bone  int    `toml:"bone"`
	Point string `toml:"point"`
}

type testChain struct {
	Name    string       `toml:"name"`
	Base    [3]float64   `toml:"base"`
	Connect *testConnect `toml:"connect,omitempty"`
	Bones   []testBone   `toml:"bones"`
}

type testRig struct {
	Name   string `toml:"name"`
	Solver struct {
		Tolerance     float64 `toml:"tolerance"`
		MaxIterations int     `toml:"max_iterations"`
	} `toml:"solver"`
	Chains []testChain `toml:"chains"`
}

const rigDoc = `
# two-chain rig
name = 'demo rig'

[solver]
tolerance = 1e-2
max_iterations = 20

[[chains]]
name = "spine"
base = [0, 0, 0]

[[chains.bones]]
name = "hips"
direction = [0, 1, 0]
length = 0.001

[[chains.bones]]
direction = [0.0, 1.0, 0.0]
length = 0.5
joint = { type = "local_hinge", axis = [1, 0, 0], clockwise = 0, anticlockwise = 90 }

[[chains]]
name = "arm"
base = [
  0.25,
  -1.5,   # trailing comments and commas are fine
  +2,
]
connect = { host = "spine", bone = 1, point = "end" }

[[chains.bones]]
direction = [1, 0, 0]
length = 1_000
`

func TestUnmarshal_Rig(t *testing.T) {
	var rig testRig
	if err := Unmarshal([]byte(rigDoc), &rig); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if rig.Name != "demo rig" {
		t.Errorf("Expected literal string name, got %q", rig.Name)
	}
	if rig.Solver.Tolerance != 0.01 || rig.Solver.MaxIterations != 20 {
		t.Errorf("Unexpected solver settings %+v", rig.Solver)
	}
	if len(rig.Chains) != 2 {
		t.Fatalf("Expected 2 chains, got %d", len(rig.Chains))
	}

	spine := rig.Chains[0]
	if len(spine.Bones) != 2 {
		t.Fatalf("Expected 2 spine bones, got %d", len(spine.Bones))
	}
	if spine.Bones[0].Length != 0.001 || spine.Bones[0].Direction != [3]float64{0, 1, 0} {
		t.Errorf("Unexpected hips bone %+v", spine.Bones[0])
	}
	j := spine.Bones[1].Joint
	if j == nil || j.Type != "local_hinge" || j.Axis != [3]float64{1, 0, 0} || j.Anticlockwise != 90 {
		t.Errorf("Unexpected joint %+v", j)
	}
	if spine.Connect != nil {
		t.Error("Spine should have no connection")
	}

	arm := rig.Chains[1]
	if arm.Base != [3]float64{0.25, -1.5, 2} {
		t.Errorf("Unexpected multi-line base %v", arm.Base)
	}
	if arm.Connect == nil || arm.Connect.Host != "spine" || arm.Connect.Bone != 1 || arm.Connect.Point != "end" {
		t.Errorf("Unexpected connection %+v", arm.Connect)
	}
	if len(arm.Bones) != 1 || arm.Bones[0].Length != 1000 {
		t.Errorf("Expected underscore integer coerced to float, got %+v", arm.Bones)
	}
}

func TestUnmarshalStrict_UnknownKeys(t *testing.T) {
	doc := `
name = "x"
colour = "red"

[[chains]]
name = "a"
lenght = 2
`
	var rig testRig
	err := UnmarshalStrict([]byte(doc), &rig)

	var unknown *UnknownKeysError
	if !errors.As(err, &unknown) {
		t.Fatalf("Expected UnknownKeysError, got %v", err)
	}
	want := []string{"chains[0].lenght", "colour"}
	if len(unknown.Keys) != len(want) {
		t.Fatalf("Expected keys %v, got %v", want, unknown.Keys)
	}
	for i := range want {
		if unknown.Keys[i] != want[i] {
			t.Errorf("Key %d: expected %q, got %q", i, want[i], unknown.Keys[i])
		}
	}

	// Known fields are still populated
	if rig.Name != "x" || len(rig.Chains) != 1 || rig.Chains[0].Name != "a" {
		t.Errorf("Expected partial decode, got %+v", rig)
	}

	if err := Unmarshal([]byte(doc), &rig); err != nil {
		t.Errorf("Lenient decode should ignore unknown keys: %v", err)
	}
}

func TestUnmarshal_TypeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"short vector", "[[chains]]\nbase = [1, 2]\n", "chains[0].base: expected 3 elements"},
		{"string length", "[[chains]]\n[[chains.bones]]\nlength = \"long\"\n", "chains[0].bones[0].length: expected float, got string"},
		{"float iterations", "[solver]\nmax_iterations = 2.5\n", "solver.max_iterations: expected integer, got float"},
		{"table for string", "name = { a = 1 }\n", "name: expected string, got table"},
	}

	for _, tt := range tests {
		var rig testRig
		err := Unmarshal([]byte(tt.doc), &rig)
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: expected %q in %q", tt.name, tt.want, err.Error())
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		line int
	}{
		{"duplicate key", "a = 1\na = 2\n", 2},
		{"table twice", "[x]\n[y]\n[x]\n", 3},
		{"missing value", "a =\n", 1},
		{"unterminated string", "a = \"abc\n", 1},
		{"bad escape", `a = "\q"`, 1},
		{"two values", "a = 1 2\n", 1},
		{"bad float", "a = 1.\n", 1},
		{"leading zero", "a = 012\n", 1},
		{"key conflict", "a = 1\n[a.b]\n", 2},
		{"unclosed array", "a = [1, 2\n", 2},
	}

	for _, tt := range tests {
		_, err := Parse([]byte(tt.doc))
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("%s: expected ParseError, got %v", tt.name, err)
			continue
		}
		if pe.Line != tt.line {
			t.Errorf("%s: expected line %d, got %d (%v)", tt.name, tt.line, pe.Line, pe)
		}
	}
}

func TestParse_Values(t *testing.T) {
	doc, err := Parse([]byte(`
hex = 0xff
neg = -3
exp = 2.5e-3
big = 1E6
inf = -inf
esc = "tab\there é"
"quoted key" = true
dotted.inner.leaf = 1
3d_offset = 4
empty = []
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	checks := map[string]any{
		"hex":        int64(255),
		"neg":        int64(-3),
		"exp":        2.5e-3,
		"big":        1e6,
		"esc":        "tab\there é",
		"quoted key": true,
		"3d_offset":  int64(4),
	}
	for k, want := range checks {
		if doc[k] != want {
			t.Errorf("%s: expected %v (%T), got %v (%T)", k, want, want, doc[k], doc[k])
		}
	}
	if f, _ := doc["inf"].(float64); !math.IsInf(f, -1) {
		t.Errorf("Expected -inf, got %v", doc["inf"])
	}
	inner, _ := doc["dotted"].(map[string]any)["inner"].(map[string]any)
	if inner["leaf"] != int64(1) {
		t.Errorf("Dotted key not nested: %v", doc["dotted"])
	}
	if arr, ok := doc["empty"].([]any); !ok || len(arr) != 0 {
		t.Errorf("Expected empty array, got %v", doc["empty"])
	}
}

func TestDecode_Targets(t *testing.T) {
	var n int
	if err := Decode(map[string]any{}, n); err == nil {
		t.Error("Expected error for non-pointer target")
	}

	var m map[string]float64
	if err := Decode(map[string]any{"a": int64(1), "b": 2.5}, &m); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if m["a"] != 1 || m["b"] != 2.5 {
		t.Errorf("Unexpected map %v", m)
	}

	var small struct {
		V int8 `toml:"v"`
	}
	if err := Decode(map[string]any{"v": int64(300)}, &small); err == nil {
		t.Error("Expected overflow error")
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	in := testRig{Name: "round \"trip\""}
	in.Solver.Tolerance = 0.005
	in.Solver.MaxIterations = 15
	in.Chains = []testChain{
		{
			Name: "spine",
			Bones: []testBone{
				{Name: "hips", Direction: [3]float64{0, 1, 0}, Length: 1e-5},
				{Direction: [3]float64{0, 1, 0}, Length: 2, Joint: &testJoint{Type: "ball"}},
			},
		},
		{
			Name:    "arm",
			Base:    [3]float64{0.5, -1, 3},
			Connect: &testConnect{Host: "spine", Bone: 1, Point: "end"},
			Bones:   []testBone{{Direction: [3]float64{1, 0, 0}, Length: 0.75}},
		},
	}

	data, err := Marshal(&in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "[[chains.bones]]") || !strings.Contains(text, "[chains.connect]") {
		t.Errorf("Expected nested headers in:\n%s", text)
	}
	if strings.Contains(text, "name = \"\"") {
		t.Errorf("omitempty name should be skipped:\n%s", text)
	}

	var out testRig
	if err := UnmarshalStrict(data, &out); err != nil {
		t.Fatalf("Unmarshal of marshalled output failed: %v\n%s", err, text)
	}
	if out.Name != in.Name || out.Solver != in.Solver || len(out.Chains) != 2 {
		t.Fatalf("Round trip mismatch: %+v", out)
	}
	if out.Chains[0].Bones[0].Length != 1e-5 || out.Chains[0].Bones[1].Joint.Type != "ball" {
		t.Errorf("Spine bones mismatch: %+v", out.Chains[0].Bones)
	}
	if out.Chains[1].Base != in.Chains[1].Base || *out.Chains[1].Connect != *in.Chains[1].Connect {
		t.Errorf("Arm mismatch: %+v", out.Chains[1])
	}
}

func TestMarshal_Root(t *testing.T) {
	if _, err := Marshal(42); err == nil {
		t.Error("Expected error for scalar root")
	}
	var p *testRig
	if _, err := Marshal(p); err == nil {
		t.Error("Expected error for nil root")
	}

	data, err := Marshal(map[string]any{"b": 1, "a": []float64{1.5, 2}, "t": map[string]any{"k": "v"}})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := "a = [1.5, 2.0]\nb = 1\n\n[t]\nk = \"v\"\n"
	if string(data) != want {
		t.Errorf("Expected:\n%q\ngot:\n%q", want, string(data))
	}
}
