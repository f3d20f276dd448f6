// Package tessellate runs the geometry pipeline for one tool: derive the
// layout, build the blank, sweep the flutes, subtract them through a
// kernel.Kernel and heal the result. The pipeline always produces a mesh
// for valid parameters; boolean failures degrade to the blank and
// unexpected faults degrade to a plain cylinder.
package tessellate

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chazu/fluteforge/pkg/helix"
	"github.com/chazu/fluteforge/pkg/kernel"
	"github.com/chazu/fluteforge/pkg/primitive"
	"github.com/chazu/fluteforge/pkg/sweep"
	"github.com/chazu/fluteforge/pkg/tool"
)

// Status records which path the pipeline took.
type Status int

const (
	StatusOK               Status = iota // flutes subtracted
	StatusNoFlutes                       // flute count 0, boolean skipped
	StatusBlankFallback                  // boolean failed, blank returned
	StatusCylinderFallback               // synthesis failed, plain cylinder returned
	StatusTimeoutFallback                // still running at the deadline, blank returned
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoFlutes:
		return "no-flutes"
	case StatusBlankFallback:
		return "blank-fallback"
	case StatusCylinderFallback:
		return "cylinder-fallback"
	case StatusTimeoutFallback:
		return "timeout-fallback"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText lets Status appear by name in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Options tunes the pipeline.
type Options struct {
	// TubeResolution scales the flute tube tessellation; <= 0 means 1.
	TubeResolution float64
	Heal           kernel.HealOptions
	// Notify, if set, receives every user-facing notice.
	Notify func(tool.Notice)
}

// Result is the outcome of one generation.
type Result struct {
	ID         string          `json:"id"`
	Parameters tool.Parameters `json:"parameters"` // effective, after clamping
	Derived    tool.Derived    `json:"derived"`
	Segments   []tool.Segment  `json:"segments"`
	Paths      []helix.Path    `json:"paths"`
	Appearance tool.Appearance `json:"appearance"`
	Status     Status          `json:"status"`
	Notices    []tool.Notice   `json:"notices"`
	Kernel     string          `json:"kernel"`
	Duration   time.Duration   `json:"duration"`

	Blank *kernel.Mesh `json:"-"`
	Mesh  *kernel.Mesh `json:"-"`
}

// Dispose releases the meshes held by the result.
func (r *Result) Dispose() {
	if r == nil {
		return
	}
	if r.Blank != nil {
		r.Blank.Dispose()
	}
	if r.Mesh != nil {
		r.Mesh.Dispose()
	}
}

// Clone returns a copy with its own meshes. Segments and paths are shared;
// nothing mutates them after generation.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	c := *r
	c.Notices = append([]tool.Notice(nil), r.Notices...)
	if r.Blank != nil {
		c.Blank = r.Blank.Clone()
	}
	if r.Mesh != nil {
		c.Mesh = r.Mesh.Clone()
	}
	return &c
}

// Generator runs the pipeline against one boolean backend.
type Generator struct {
	Kernel  kernel.Kernel
	Log     zerolog.Logger
	Options Options
}

// New returns a Generator.
func New(k kernel.Kernel, log zerolog.Logger, opts Options) *Generator {
	return &Generator{Kernel: k, Log: log, Options: opts}
}

func (g *Generator) kernelName() string {
	if g.Kernel == nil {
		return "none"
	}
	return g.Kernel.Name()
}

// notify delivers n to Options.Notify, or logs it when nobody listens.
func (g *Generator) notify(n tool.Notice) {
	if g.Options.Notify != nil {
		g.Options.Notify(n)
		return
	}
	ev := g.Log.Info()
	if n.Level == tool.NoticeWarning {
		ev = g.Log.Warn()
	}
	ev.Msg(n.Message)
}

// Generate validates p and runs the pipeline. Invalid parameters yield an
// error wrapping tool.ErrInvalidParameters and no geometry; valid
// parameters always yield a result.
func (g *Generator) Generate(p tool.Parameters) (*Result, error) {
	if err := tool.Validate(p).Err(); err != nil {
		g.Log.Debug().Err(err).Msg("rejected tool parameters")
		return nil, err
	}
	d, notices := tool.Derive(p)
	for _, n := range notices {
		g.notify(n)
	}
	res := g.Build(p, d)
	res.Notices = append(notices, res.Notices...)
	return res, nil
}

// Build runs the pipeline without validation. A panic anywhere in
// synthesis is recovered into a cylinder fallback.
func (g *Generator) Build(p tool.Parameters, d tool.Derived) (res *Result) {
	start := time.Now()
	res = &Result{
		ID:         uuid.NewString(),
		Parameters: tool.Apply(p, d),
		Derived:    d,
		Appearance: tool.AppearanceFor(p.Material, p.SurfaceFinish),
		Kernel:     g.kernelName(),
	}
	log := g.Log.With().Str("result", res.ID).Str("kernel", res.Kernel).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("tool synthesis failed; using fallback cylinder")
			res.Mesh = Fallback(p, d)
			res.Status = StatusCylinderFallback
			n := tool.Notice{Level: tool.NoticeWarning, Message: "geometry generation failed; showing a plain cylinder"}
			res.Notices = append(res.Notices, n)
			g.notify(n)
		}
		res.Duration = time.Since(start)
		log.Debug().Stringer("status", res.Status).Dur("took", res.Duration).Msg("tool generated")
	}()

	res.Segments = tool.Segments(p, d)
	res.Blank = primitive.Blank(res.Segments)

	if p.FluteCount == 0 {
		res.Mesh = res.Blank.Clone()
		res.Mesh.PartName = "tool"
		res.Mesh.ComputeBounds()
		res.Status = StatusNoFlutes
		return res
	}

	res.Paths = helix.Paths(p, d)
	res.Mesh = g.cut(res, p, log)
	return res
}

// cut subtracts the merged flute cutter from the blank.
func (g *Generator) cut(res *Result, p tool.Parameters, log zerolog.Logger) *kernel.Mesh {
	cutter := sweep.Cutter(res.Paths, p.Diameter*tool.FluteDepthFactor,
		sweep.ResolutionFor(p.Diameter, g.Options.TubeResolution))
	defer cutter.Dispose()

	mesh, ok := g.Subtract(res.Blank, cutter)
	if !ok {
		res.Status = StatusBlankFallback
		n := tool.Notice{Level: tool.NoticeWarning, Message: "flute cut failed; showing the uncut blank"}
		res.Notices = append(res.Notices, n)
		g.notify(n)
		mesh.ComputeBounds()
		return mesh
	}
	log.Debug().
		Int("triangles", mesh.TriangleCount()).
		Int("open_edges", mesh.OpenEdges()).
		Msg("flutes subtracted")
	mesh = kernel.Heal(mesh, g.Options.Heal)
	mesh.PartName = "tool"
	res.Status = StatusOK
	return mesh
}

// Subtract is the boolean adapter. Any backend error, panic, empty or
// non-finite output is logged and answered with a copy of the blank and
// false; it never propagates failure to the caller.
func (g *Generator) Subtract(blank, cutter *kernel.Mesh) (out *kernel.Mesh, ok bool) {
	fallback := func(ev *zerolog.Event, msg string) (*kernel.Mesh, bool) {
		ev.Str("kernel", g.kernelName()).Msg(msg)
		m := blank.Clone()
		m.PartName = "tool"
		return m, false
	}
	defer func() {
		if r := recover(); r != nil {
			out, ok = fallback(g.Log.Warn().Interface("panic", r), "boolean backend panicked; keeping blank")
		}
	}()

	if g.Kernel == nil {
		return fallback(g.Log.Warn(), "no boolean backend configured; keeping blank")
	}
	m, err := g.Kernel.Difference(blank, cutter)
	switch {
	case err != nil:
		return fallback(g.Log.Warn().Err(err), "boolean difference failed; keeping blank")
	case m == nil || m.IsEmpty():
		return fallback(g.Log.Warn(), "boolean difference returned an empty mesh; keeping blank")
	case !m.Finite():
		return fallback(g.Log.Warn(), "boolean difference returned non-finite coordinates; keeping blank")
	}
	return m, true
}

// Preview returns the uncut blank for valid parameters without touching
// the boolean backend. Sessions show it while a slow cut is still running.
func (g *Generator) Preview(p tool.Parameters) *Result {
	d, notices := tool.Derive(p)
	segs := tool.Segments(p, d)
	blank := primitive.Blank(segs)
	mesh := blank.Clone()
	mesh.PartName = "tool"
	mesh.ComputeBounds()
	return &Result{
		ID:         uuid.NewString(),
		Parameters: tool.Apply(p, d),
		Derived:    d,
		Segments:   segs,
		Paths:      helix.Paths(p, d),
		Appearance: tool.AppearanceFor(p.Material, p.SurfaceFinish),
		Status:     StatusTimeoutFallback,
		Notices:    notices,
		Kernel:     g.kernelName(),
		Blank:      blank,
		Mesh:       mesh,
	}
}

// Fallback returns the plain cylinder used when synthesis fails.
func Fallback(p tool.Parameters, d tool.Derived) *kernel.Mesh {
	length := d.Length
	if length <= 0 {
		length = p.Length
	}
	m := primitive.Fallback(length, p.Diameter)
	m.ComputeBounds()
	return m
}
