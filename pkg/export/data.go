package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/samber/lo"

	"github.com/chazu/fluteforge/pkg/tool"
)

// CSVHeader names the CSV columns; they match the JSON field names.
var CSVHeader = []string{
	"type", "diameter", "shankDiameter", "length", "shankLength", "fluteLength",
	"nonCuttingLength", "fluteCount", "tipAngle", "helixAngle",
	"tolerance", "material", "surfaceFinish",
}

// WriteJSON writes a single parameter set as an object and several as an
// array. The output loads back through tool.ParseParameters.
func WriteJSON(w io.Writer, params ...tool.Parameters) error {
	if len(params) == 0 {
		return fmt.Errorf("%w: json needs parameters", ErrMissingArtifact)
	}
	var v any = params
	if len(params) == 1 {
		v = params[0]
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// WriteCSV writes a header row and one row per parameter set.
func WriteCSV(w io.Writer, params ...tool.Parameters) error {
	if len(params) == 0 {
		return fmt.Errorf("%w: csv needs parameters", ErrMissingArtifact)
	}
	cw := csv.NewWriter(w)
	rows := append([][]string{CSVHeader}, lo.Map(params, func(p tool.Parameters, _ int) []string {
		return csvRow(p)
	})...)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func csvRow(p tool.Parameters) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return []string{
		string(p.Type),
		f(p.Diameter),
		f(p.ShankDiameter),
		f(p.Length),
		f(p.ShankLength),
		f(p.FluteLength),
		f(p.NonCuttingLength),
		strconv.Itoa(p.FluteCount),
		f(p.TipAngle),
		f(p.HelixAngle),
		string(p.Tolerance),
		string(p.Material),
		string(p.SurfaceFinish),
	}
}
