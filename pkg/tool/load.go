package tool

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/titanous/json5"
)

// ParseParameters decodes a JSON5 parameter document. The document is either
// a single object or an array of objects; each object is decoded on top of
// Defaults so omitted fields keep their default values.
func ParseParameters(data []byte) ([]Parameters, error) {
	var doc any
	if err := json5.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse tool parameters: %w", err)
	}

	var items []any
	switch v := doc.(type) {
	case map[string]any:
		items = []any{v}
	case []any:
		items = v
	default:
		return nil, fmt.Errorf("parse tool parameters: expected object or array, got %T", doc)
	}

	out := make([]Parameters, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("parse tool parameters: entry %d: expected object, got %T", i, item)
		}
		p, err := decodeOnto(Defaults(), obj)
		if err != nil {
			return nil, fmt.Errorf("parse tool parameters: entry %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// decodeOnto round-trips a generic JSON5 object through encoding/json so the
// struct tags of Parameters apply and unspecified fields keep base values.
func decodeOnto(base Parameters, obj map[string]any) (Parameters, error) {
	if name, ok := obj["preset"].(string); ok {
		preset, err := Preset(name)
		if err != nil {
			return Parameters{}, err
		}
		base = preset
		delete(obj, "preset")
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return Parameters{}, err
	}
	if err := json.Unmarshal(raw, &base); err != nil {
		return Parameters{}, err
	}
	return base, nil
}

// LoadParameters reads and decodes a JSON5 parameter file.
func LoadParameters(path string) ([]Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseParameters(data)
}

var presets = map[string]Parameters{
	"jobber-drill-10": {
		Type: Drill, Diameter: 10, ShankDiameter: 10, Length: 133, ShankLength: 40, FluteLength: 87,
		FluteCount: 2, TipAngle: 118, HelixAngle: 30, Tolerance: ToleranceH8, Material: HSS, SurfaceFinish: Bright,
	},
	"stub-drill-6": {
		Type: Drill, Diameter: 6, ShankDiameter: 6, Length: 66, ShankLength: 30, FluteLength: 28,
		FluteCount: 2, TipAngle: 118, HelixAngle: 30, Tolerance: ToleranceH8, Material: HSSCo, SurfaceFinish: TiN,
	},
	"endmill-2f-8": {
		Type: Endmill, Diameter: 8, ShankDiameter: 8, Length: 63, ShankLength: 30, FluteLength: 20,
		FluteCount: 2, TipAngle: 180, HelixAngle: 30, Tolerance: ToleranceH6, Material: Carbide, SurfaceFinish: TiAlN,
	},
	"endmill-4f-12": {
		Type: Endmill, Diameter: 12, ShankDiameter: 12, Length: 83, ShankLength: 36, FluteLength: 26,
		FluteCount: 4, TipAngle: 180, HelixAngle: 35, Tolerance: ToleranceH6, Material: Carbide, SurfaceFinish: AlTiN,
	},
	"reamer-10": {
		Type: Reamer, Diameter: 10, ShankDiameter: 9, Length: 133, ShankLength: 50, FluteLength: 38,
		FluteCount: 4, TipAngle: 90, HelixAngle: 0, Tolerance: ToleranceH7, Material: HSSCo, SurfaceFinish: Bright,
	},
	"step-drill-8": {
		Type: StepDrill, Diameter: 8, ShankDiameter: 10, Length: 100, ShankLength: 40, FluteLength: 45,
		FluteCount: 2, TipAngle: 118, HelixAngle: 30, Tolerance: ToleranceH9, Material: Carbide, SurfaceFinish: TiCN,
	},
}

// Preset returns a named standard tool.
func Preset(name string) (Parameters, error) {
	p, ok := presets[name]
	if !ok {
		return Parameters{}, fmt.Errorf("unknown preset %q", name)
	}
	return p, nil
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
