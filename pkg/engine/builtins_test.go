package engine

import (
	"strings"
	"testing"

	"github.com/chazu/fluteforge/pkg/tool"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(tool :material "HSS")`,
			expect: `(tool "__kw_material" "HSS")`,
		},
		{
			name:   "multiple keywords",
			input:  `(tool :diameter 10 :length 100)`,
			expect: `(tool "__kw_diameter" 10 "__kw_length" 100)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(preset-names :flute-count n)`,
			expect: `(preset_names "__kw_flute-count" n)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "keyword value",
			input:  `:step-drill`,
			expect: `"__kw_step-drill"`,
		},
		{
			name:   "preset name string untouched",
			input:  `(preset "jobber-drill-10")`,
			expect: `(preset "jobber-drill-10")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestNormalizeKey(t *testing.T) {
	for _, k := range []string{"flute-count", "flute_count", "fluteCount", "FluteCount"} {
		if got := normalizeKey(k); got != "flutecount" {
			t.Errorf("normalizeKey(%q) = %q, want %q", k, got, "flutecount")
		}
	}
}

// evalTools evaluates source and fails the test on any error.
func evalTools(t *testing.T, source string) []tool.Parameters {
	t.Helper()
	tools, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return tools
}

// evalMessages evaluates source that must fail and returns the joined
// eval error messages.
func evalMessages(t *testing.T, source string) string {
	t.Helper()
	tools, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("expected non-fatal eval error, got fatal: %v", err)
	}
	if tools != nil {
		t.Fatalf("expected nil tools, got %v", tools)
	}
	if len(evalErrs) == 0 {
		t.Fatal("expected at least one eval error")
	}
	msgs := make([]string, len(evalErrs))
	for i, e := range evalErrs {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "\n")
}

// ---------------------------------------------------------------------------
// tool builtin
// ---------------------------------------------------------------------------

func TestToolAllFields(t *testing.T) {
	source := `
(tool :type :endmill
      :diameter 12 :shank-diameter 12
      :length 83 :shank-length 36 :flute-length 26
      :flute-count 4 :tip-angle 180 :helix-angle 35
      :tolerance :h6 :material :carbide :finish :altin)
`
	tools := evalTools(t, source)
	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
	want := tool.Parameters{
		Type:          tool.Endmill,
		Diameter:      12,
		ShankDiameter: 12,
		Length:        83,
		ShankLength:   36,
		FluteLength:   26,
		FluteCount:    4,
		TipAngle:      180,
		HelixAngle:    35,
		Tolerance:     tool.ToleranceH6,
		Material:      tool.Carbide,
		SurfaceFinish: tool.AlTiN,
	}
	if tools[0] != want {
		t.Errorf("tool = %+v, want %+v", tools[0], want)
	}
}

func TestToolDefaultsForOmittedFields(t *testing.T) {
	tools := evalTools(t, `(tool :diameter 8 :shank-diameter 8)`)
	want := tool.Defaults()
	want.Diameter = 8
	want.ShankDiameter = 8
	if tools[0] != want {
		t.Errorf("tool = %+v, want %+v", tools[0], want)
	}
}

func TestToolStringEnumsAndFloats(t *testing.T) {
	tools := evalTools(t, `(tool :type "StepDrill" :material "HSSCo" :surface-finish "TiN" :helix-angle 27.5)`)
	p := tools[0]
	if p.Type != tool.StepDrill {
		t.Errorf("type = %s, want StepDrill", p.Type)
	}
	if p.Material != tool.HSSCo {
		t.Errorf("material = %s, want HSSCo", p.Material)
	}
	if p.SurfaceFinish != tool.TiN {
		t.Errorf("finish = %s, want TiN", p.SurfaceFinish)
	}
	if p.HelixAngle != 27.5 {
		t.Errorf("helix angle = %v, want 27.5", p.HelixAngle)
	}
}

func TestToolsInCallOrder(t *testing.T) {
	source := `
(tool :diameter 6 :shank-diameter 6)
(tool :diameter 8 :shank-diameter 8)
(tool :diameter 10)
`
	tools := evalTools(t, source)
	if len(tools) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(tools))
	}
	for i, d := range []float64{6, 8, 10} {
		if tools[i].Diameter != d {
			t.Errorf("tools[%d].Diameter = %v, want %v", i, tools[i].Diameter, d)
		}
	}
}

func TestToolArithmetic(t *testing.T) {
	tools := evalTools(t, "(def d 6)\n(tool :diameter d :shank-diameter d :flute-length (* d 5))")
	if tools[0].FluteLength != 30 {
		t.Errorf("flute length = %v, want 30", tools[0].FluteLength)
	}
}

// ---------------------------------------------------------------------------
// preset and variant
// ---------------------------------------------------------------------------

func TestPresetWithOverride(t *testing.T) {
	tools := evalTools(t, `(preset "jobber-drill-10" :length 140)`)
	want, err := tool.Preset("jobber-drill-10")
	if err != nil {
		t.Fatal(err)
	}
	want.Length = 140
	if tools[0] != want {
		t.Errorf("preset = %+v, want %+v", tools[0], want)
	}
}

func TestVariant(t *testing.T) {
	source := `
(def base (preset "endmill-2f-8"))
(variant base :flute-count 3)
`
	tools := evalTools(t, source)
	if len(tools) != 2 {
		t.Fatalf("expected base and variant, got %d tools", len(tools))
	}
	if tools[0].FluteCount != 2 || tools[1].FluteCount != 3 {
		t.Errorf("flute counts = %d, %d, want 2, 3", tools[0].FluteCount, tools[1].FluteCount)
	}
	if tools[0].Diameter != tools[1].Diameter {
		t.Errorf("variant changed diameter: %v -> %v", tools[0].Diameter, tools[1].Diameter)
	}
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"unknown keyword", `(tool :colour "red")`, "unknown keyword"},
		{"unknown type", `(tool :type :lathe)`, "unknown tool type"},
		{"non-numeric diameter", `(tool :diameter "ten")`, "expected number"},
		{"fractional flute count", `(tool :flute-count 2.5)`, "expected whole number"},
		{"unknown preset", `(preset "no-such-tool")`, "unknown preset"},
		{"preset without name", `(preset)`, "preset requires"},
		{"variant of number", `(variant 3 :diameter 4)`, "expected tool"},
		{"positional tool arg", `(tool 10)`, "unexpected positional"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evalMessages(t, tt.source)
			if !strings.Contains(msg, tt.want) {
				t.Errorf("error %q does not mention %q", msg, tt.want)
			}
		})
	}
}

func TestEvaluateDoesNotValidate(t *testing.T) {
	// Range checks belong to the pipeline; the script only builds values.
	tools := evalTools(t, `(tool :diameter -1)`)
	if tools[0].Diameter != -1 {
		t.Errorf("diameter = %v, want -1", tools[0].Diameter)
	}
	if tool.Validate(tools[0]).OK() {
		t.Error("negative diameter should fail validation")
	}
}
