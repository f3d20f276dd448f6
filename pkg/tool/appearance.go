package tool

import (
	"fmt"
	"strings"
)

// Appearance is the display material for a tool. It has no geometric effect.
type Appearance struct {
	Color     string  `json:"color"` // "#RRGGBB"
	Shininess float64 `json:"shininess"`
}

var materialAppearance = map[Material]Appearance{
	HSS:     {Color: "#B8BCC2", Shininess: 80},
	HSSCo:   {Color: "#A9ADB3", Shininess: 70},
	Carbide: {Color: "#8A8D91", Shininess: 50},
	Cermet:  {Color: "#9C9590", Shininess: 40},
}

// Coatings override the substrate colour; Bright leaves it visible.
var finishAppearance = map[SurfaceFinish]Appearance{
	TiN:   {Color: "#D4AF37", Shininess: 90},
	TiCN:  {Color: "#6E7F99", Shininess: 75},
	TiAlN: {Color: "#4B3F58", Shininess: 60},
	AlTiN: {Color: "#2F2F3A", Shininess: 55},
	DLC:   {Color: "#1C1C1C", Shininess: 95},
}

var defaultAppearance = Appearance{Color: "#B8BCC2", Shininess: 60}

// AppearanceFor looks up the display material for a material and finish.
func AppearanceFor(m Material, f SurfaceFinish) Appearance {
	if a, ok := finishAppearance[f]; ok {
		return a
	}
	if a, ok := materialAppearance[m]; ok {
		return a
	}
	return defaultAppearance
}

// RGB parses the appearance colour into 0..1 components.
func (a Appearance) RGB() (r, g, b float64, err error) {
	var ri, gi, bi int
	if _, err := fmt.Sscanf(strings.TrimPrefix(a.Color, "#"), "%02x%02x%02x", &ri, &gi, &bi); err != nil {
		return 0, 0, 0, fmt.Errorf("parse colour %q: %w", a.Color, err)
	}
	return float64(ri) / 255, float64(gi) / 255, float64(bi) / 255, nil
}

// FileName returns the conventional export file name,
// "<ToolType>_<diameter>x<length>_<fluteCount>F.<ext>".
func FileName(p Parameters, ext string) string {
	return fmt.Sprintf("%s_%gx%g_%dF.%s", p.Type, p.Diameter, p.Length, p.FluteCount, strings.TrimPrefix(ext, "."))
}
