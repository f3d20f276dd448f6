package tool

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
)

// ErrInvalidParameters is wrapped by every error returned from
// ValidationResult.Err.
var ErrInvalidParameters = errors.New("invalid tool parameters")

// ValidationSeverity indicates whether a validation finding blocks
// generation or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks generation
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Field    string             // JSON name of the offending parameter
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Field, e.Message)
}

// ValidationResult bundles blocking errors and advisory warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Err folds the blocking errors into a single error wrapping
// ErrInvalidParameters, or returns nil.
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	msgs := lo.Map(r.Errors, func(e ValidationError, _ int) string { return e.Error() })
	return fmt.Errorf("%w: %s", ErrInvalidParameters, strings.Join(msgs, "; "))
}

// Notices converts warnings into user-facing notices.
func (r ValidationResult) Notices() []Notice {
	return lo.Map(r.Warnings, func(w ValidationError, _ int) Notice {
		return Notice{Level: NoticeWarning, Message: w.Message}
	})
}

// Validate checks p against the physical and numeric invariants of a tool.
// It is read-only. A length below the minimum is a warning, not an error,
// because Derive clamps it.
func Validate(p Parameters) ValidationResult {
	var r ValidationResult
	fail := func(field, format string, args ...any) {
		r.Errors = append(r.Errors, ValidationError{
			Field:    field,
			Message:  fmt.Sprintf(format, args...),
			Severity: SeverityError,
		})
	}

	positive := []struct {
		field string
		v     float64
	}{
		{"diameter", p.Diameter},
		{"shankDiameter", p.ShankDiameter},
		{"length", p.Length},
		{"shankLength", p.ShankLength},
		{"fluteLength", p.FluteLength},
	}
	for _, c := range positive {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) {
			fail(c.field, "must be a finite number")
		} else if c.v <= 0 {
			fail(c.field, "must be positive, got %g", c.v)
		}
	}

	if p.NonCuttingLength < 0 || math.IsNaN(p.NonCuttingLength) {
		fail("nonCuttingLength", "must not be negative, got %g", p.NonCuttingLength)
	}
	if !(p.TipAngle > 0 && p.TipAngle <= 180) {
		fail("tipAngle", "must be in (0, 180], got %g", p.TipAngle)
	}
	if !(p.HelixAngle >= 0 && p.HelixAngle <= 60) {
		fail("helixAngle", "must be in [0, 60], got %g", p.HelixAngle)
	}
	if p.FluteCount < 1 || p.FluteCount > 4 {
		fail("fluteCount", "must be in [1, 4], got %d", p.FluteCount)
	}

	if !lo.Contains(ToolTypes, p.Type) {
		fail("type", "unknown tool type %q", p.Type)
	}
	if p.Tolerance != "" && !lo.Contains(Tolerances, p.Tolerance) {
		fail("tolerance", "unknown tolerance %q", p.Tolerance)
	}
	if p.Material != "" && !lo.Contains(Materials, p.Material) {
		fail("material", "unknown material %q", p.Material)
	}
	if p.SurfaceFinish != "" && !lo.Contains(SurfaceFinishes, p.SurfaceFinish) {
		fail("surfaceFinish", "unknown surface finish %q", p.SurfaceFinish)
	}

	// Derived checks only make sense once the raw inputs are sane.
	if !r.OK() {
		return r
	}

	d, _ := Derive(p)
	if d.FlutedPartLength < 0 {
		fail("fluteLength", "flute length %g mm is too short for the tip (%.3f mm) and run-out margin (%.3f mm)",
			p.FluteLength, d.TipHeight, d.RunOutLength)
	}
	if p.Length < d.MinimumLength {
		r.Warnings = append(r.Warnings, ValidationError{
			Field:    "length",
			Message:  fmt.Sprintf("length %g mm is below the minimum of %g mm and will be clamped", p.Length, d.MinimumLength),
			Severity: SeverityWarning,
		})
	}
	return r
}
