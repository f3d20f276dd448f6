package engine

import (
	"fmt"
	"math"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/samber/lo"

	"github.com/chazu/fluteforge/pkg/tool"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites script source before zygomys sees it:
//
//  1. Keywords become tagged string literals: :flute-count -> "__kw_flute-count".
//     Keywords are never registered as symbols, so they cannot collide with
//     user variables.
//
//  2. Kebab-case identifiers become snake case: preset-names -> preset_names.
//     zygomys reads a hyphen inside an identifier as subtraction.
//
//  3. ; line comments become // comments.
//
// String literals are copied verbatim. Newlines are preserved so error
// line numbers match the original source.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Tool values
// ---------------------------------------------------------------------------

// sexpTool wraps a parameter set so it can be bound with def and passed to
// variant.
type sexpTool struct {
	params tool.Parameters
}

func (t *sexpTool) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(tool %s)", t.params)
}

func (t *sexpTool) Type() *zygo.RegisteredType { return nil }

// definitions collects every tool made during one evaluation, in call order.
type definitions struct {
	tools []tool.Parameters
}

func (d *definitions) add(p tool.Parameters) zygo.Sexp {
	d.tools = append(d.tools, p)
	return &sexpTool{params: p}
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	order      []string
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			i++
			continue
		}
		if _, seen := result.kw[name]; !seen {
			result.order = append(result.order, name)
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i += 2
		} else {
			// Trailing keyword with no value.
			result.kw[name] = zygo.SexpNull
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number.
func toInt(s zygo.Sexp) (int, error) {
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("expected whole number, got %g", f)
	}
	return int(f), nil
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_hss) and plain strings ("HSS").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toTool extracts the parameters from a sexpTool.
func toTool(s zygo.Sexp) (tool.Parameters, error) {
	if t, ok := s.(*sexpTool); ok {
		return t.params, nil
	}
	return tool.Parameters{}, fmt.Errorf("expected tool, got %T (%s)", s, s.SexpString(nil))
}

// normalizeKey folds kebab, snake and camel spellings of a field name
// together: flute-count, flute_count and fluteCount all become flutecount.
func normalizeKey(k string) string {
	return strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(k))
}

// fieldSetters assign one keyword argument onto a parameter set.
var fieldSetters = map[string]func(p *tool.Parameters, v zygo.Sexp) error{
	"type": func(p *tool.Parameters, v zygo.Sexp) (err error) {
		s, err := toKeywordString(v)
		if err == nil {
			p.Type, err = tool.ParseToolType(s)
		}
		return err
	},
	"diameter":         floatSetter(func(p *tool.Parameters) *float64 { return &p.Diameter }),
	"shankdiameter":    floatSetter(func(p *tool.Parameters) *float64 { return &p.ShankDiameter }),
	"length":           floatSetter(func(p *tool.Parameters) *float64 { return &p.Length }),
	"shanklength":      floatSetter(func(p *tool.Parameters) *float64 { return &p.ShankLength }),
	"flutelength":      floatSetter(func(p *tool.Parameters) *float64 { return &p.FluteLength }),
	"noncuttinglength": floatSetter(func(p *tool.Parameters) *float64 { return &p.NonCuttingLength }),
	"tipangle":         floatSetter(func(p *tool.Parameters) *float64 { return &p.TipAngle }),
	"helixangle":       floatSetter(func(p *tool.Parameters) *float64 { return &p.HelixAngle }),
	"flutecount": func(p *tool.Parameters, v zygo.Sexp) (err error) {
		p.FluteCount, err = toInt(v)
		return err
	},
	"tolerance": func(p *tool.Parameters, v zygo.Sexp) (err error) {
		s, err := toKeywordString(v)
		if err == nil {
			p.Tolerance, err = tool.ParseTolerance(s)
		}
		return err
	},
	"material": func(p *tool.Parameters, v zygo.Sexp) (err error) {
		s, err := toKeywordString(v)
		if err == nil {
			p.Material, err = tool.ParseMaterial(s)
		}
		return err
	},
	"surfacefinish": func(p *tool.Parameters, v zygo.Sexp) (err error) {
		s, err := toKeywordString(v)
		if err == nil {
			p.SurfaceFinish, err = tool.ParseSurfaceFinish(s)
		}
		return err
	},
}

func init() {
	fieldSetters["finish"] = fieldSetters["surfacefinish"]
}

func floatSetter(field func(*tool.Parameters) *float64) func(*tool.Parameters, zygo.Sexp) error {
	return func(p *tool.Parameters, v zygo.Sexp) error {
		f, err := toFloat64(v)
		if err != nil {
			return err
		}
		*field(p) = f
		return nil
	}
}

// applyKeywords sets every keyword argument onto base in source order.
func applyKeywords(fn string, base tool.Parameters, pa kwArgs) (tool.Parameters, error) {
	for _, k := range pa.order {
		set, ok := fieldSetters[normalizeKey(k)]
		if !ok {
			return tool.Parameters{}, fmt.Errorf("%s: unknown keyword :%s", fn, k)
		}
		if err := set(&base, pa.kw[k]); err != nil {
			return tool.Parameters{}, fmt.Errorf("%s: %s: %w", fn, k, err)
		}
	}
	return base, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the tool builtins into a zygomys environment.
// Every tool, preset and variant call appends one definition to defs.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, defs *definitions) {

	// -----------------------------------------------------------------------
	// (tool :type :drill :diameter 10 :flute-count 2 ...)
	// Omitted fields take the default drill's values.
	// -----------------------------------------------------------------------
	env.AddFunction("tool", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) > 0 {
			return zygo.SexpNull, fmt.Errorf("tool: unexpected positional argument %s", pa.positional[0].SexpString(nil))
		}
		p, err := applyKeywords("tool", tool.Defaults(), pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		return defs.add(p), nil
	})

	// -----------------------------------------------------------------------
	// (preset "jobber-drill-10" :length 120)
	// -----------------------------------------------------------------------
	env.AddFunction("preset", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("preset requires exactly one preset name")
		}
		presetName, err := toKeywordString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("preset: name: %w", err)
		}
		base, err := tool.Preset(presetName)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("preset: %w", err)
		}
		p, err := applyKeywords("preset", base, pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		return defs.add(p), nil
	})

	// -----------------------------------------------------------------------
	// (variant base :diameter 12)
	// -----------------------------------------------------------------------
	env.AddFunction("variant", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("variant requires exactly one base tool")
		}
		base, err := toTool(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("variant: %w", err)
		}
		p, err := applyKeywords("variant", base, pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		return defs.add(p), nil
	})

	// -----------------------------------------------------------------------
	// (preset-names)
	// -----------------------------------------------------------------------
	env.AddFunction("preset_names", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		names := lo.Map(tool.PresetNames(), func(n string, _ int) zygo.Sexp {
			return &zygo.SexpStr{S: n}
		})
		return zygo.MakeList(names), nil
	})
}
