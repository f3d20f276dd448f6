// Package tool defines the parameter model of a rotary cutting tool and the
// pure functions that turn raw parameters into geometry-ready quantities.
// Nothing in this package touches meshes; it is the input side of the
// synthesis pipeline in package tessellate.
package tool

import (
	"fmt"
	"strings"
)

// Geometry tuning constants. SafetyBuffer is the manufacturing buffer added
// to every minimum length. ExtensionFactor sizes the flute run-out margin
// (diameter × 1.35) and the helix overshoot past the tip. FluteDepthFactor
// sizes the flute cross-section radius (diameter × 0.3). The last two are
// empirical values and are kept as-is pending review by a tooling engineer.
const (
	SafetyBuffer     = 3.0
	ExtensionFactor  = 1.35
	FluteDepthFactor = 0.3
)

// ToolType identifies the family of cutting tool.
type ToolType string

const (
	Drill     ToolType = "Drill"
	Endmill   ToolType = "Endmill"
	Reamer    ToolType = "Reamer"
	StepDrill ToolType = "StepDrill"
)

// ToolTypes lists every supported tool type.
var ToolTypes = []ToolType{Drill, Endmill, Reamer, StepDrill}

// Tolerance is an ISO fit tag for the cutting diameter. Metadata only.
type Tolerance string

const (
	ToleranceH6 Tolerance = "h6"
	ToleranceH7 Tolerance = "h7"
	ToleranceH8 Tolerance = "h8"
	ToleranceH9 Tolerance = "h9"
	ToleranceM7 Tolerance = "m7"
	ToleranceK6 Tolerance = "k6"
)

// Tolerances lists every supported tolerance tag.
var Tolerances = []Tolerance{ToleranceH6, ToleranceH7, ToleranceH8, ToleranceH9, ToleranceM7, ToleranceK6}

// Material is the substrate the tool is made from. Metadata only.
type Material string

const (
	HSS     Material = "HSS"
	HSSCo   Material = "HSSCo"
	Carbide Material = "Carbide"
	Cermet  Material = "Cermet"
)

// Materials lists every supported material.
var Materials = []Material{HSS, HSSCo, Carbide, Cermet}

// SurfaceFinish is the coating or finish of the tool. Metadata only.
type SurfaceFinish string

const (
	Bright SurfaceFinish = "Bright"
	TiN    SurfaceFinish = "TiN"
	TiCN   SurfaceFinish = "TiCN"
	TiAlN  SurfaceFinish = "TiAlN"
	AlTiN  SurfaceFinish = "AlTiN"
	DLC    SurfaceFinish = "DLC"
)

// SurfaceFinishes lists every supported surface finish.
var SurfaceFinishes = []SurfaceFinish{Bright, TiN, TiCN, TiAlN, AlTiN, DLC}

// Parameters is the full, immutable description of one tool. All lengths
// are in millimetres, all angles in degrees.
type Parameters struct {
	Type             ToolType      `json:"type"`
	Diameter         float64       `json:"diameter"`
	ShankDiameter    float64       `json:"shankDiameter"`
	Length           float64       `json:"length"`
	ShankLength      float64       `json:"shankLength"`
	FluteLength      float64       `json:"fluteLength"`
	NonCuttingLength float64       `json:"nonCuttingLength"`
	FluteCount       int           `json:"fluteCount"`
	TipAngle         float64       `json:"tipAngle"`
	HelixAngle       float64       `json:"helixAngle"`
	Tolerance        Tolerance     `json:"tolerance"`
	Material         Material      `json:"material"`
	SurfaceFinish    SurfaceFinish `json:"surfaceFinish"`
}

// Defaults returns a 10 mm two-flute jobber drill. Parameter files are
// decoded on top of this value, so any field they omit keeps its default.
func Defaults() Parameters {
	return Parameters{
		Type:          Drill,
		Diameter:      10,
		ShankDiameter: 10,
		Length:        100,
		ShankLength:   30,
		FluteLength:   60,
		FluteCount:    2,
		TipAngle:      118,
		HelixAngle:    30,
		Tolerance:     ToleranceH7,
		Material:      HSS,
		SurfaceFinish: Bright,
	}
}

// String returns a short human-readable label, e.g. "Drill Ø10 x 100 2F".
func (p Parameters) String() string {
	return fmt.Sprintf("%s Ø%g x %g %dF", p.Type, p.Diameter, p.Length, p.FluteCount)
}

// ParseToolType resolves a tool type name case-insensitively. Kebab and
// snake spellings ("step-drill", "step_drill") are accepted.
func ParseToolType(s string) (ToolType, error) {
	norm := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(s))
	for _, t := range ToolTypes {
		if strings.ToLower(string(t)) == norm {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tool type %q", s)
}

// ParseMaterial resolves a material name case-insensitively.
func ParseMaterial(s string) (Material, error) {
	for _, m := range Materials {
		if strings.EqualFold(string(m), s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown material %q", s)
}

// ParseSurfaceFinish resolves a surface finish name case-insensitively.
func ParseSurfaceFinish(s string) (SurfaceFinish, error) {
	for _, f := range SurfaceFinishes {
		if strings.EqualFold(string(f), s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown surface finish %q", s)
}

// ParseTolerance resolves a tolerance tag case-insensitively.
func ParseTolerance(s string) (Tolerance, error) {
	for _, t := range Tolerances {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tolerance %q", s)
}
