package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bep/debounce"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/chazu/fluteforge/pkg/config"
	"github.com/chazu/fluteforge/pkg/engine"
	"github.com/chazu/fluteforge/pkg/export"
	"github.com/chazu/fluteforge/pkg/projection"
	"github.com/chazu/fluteforge/pkg/tessellate"
	"github.com/chazu/fluteforge/pkg/tool"
)

// Frontend event names.
const (
	EventGenerated = "tool:generated"
	EventNotice    = "tool:notice"
)

// ErrNoTool is returned by exports before anything has been generated.
var ErrNoTool = errors.New("no generated tool to export")

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx     context.Context
	cfg     config.Config
	log     zerolog.Logger
	engine  *engine.Engine
	session *tessellate.Session

	debounced func(func())

	mu      sync.Mutex
	pending tool.Parameters
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	UVs      []float32 `json:"uvs"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// ErrorData is a JSON-serializable error for the frontend. Field is set
// for parameter validation errors, Line for script errors.
type ErrorData struct {
	Field   string `json:"field,omitempty"`
	Line    int    `json:"line,omitempty"`
	Col     int    `json:"col,omitempty"`
	Message string `json:"message"`
}

// GenerateResult is the full result of one generation returned to the
// frontend. ID names the mesh for ReleaseMesh.
type GenerateResult struct {
	ID         string            `json:"id"`
	Status     tessellate.Status `json:"status"`
	Parameters tool.Parameters   `json:"parameters"`
	Derived    tool.Derived      `json:"derived"`
	Appearance tool.Appearance   `json:"appearance"`
	Mesh       *MeshData         `json:"mesh"`
	Notices    []tool.Notice     `json:"notices"`
	Errors     []ErrorData       `json:"errors"`
	Kernel     string            `json:"kernel"`
	DurationMS int64             `json:"durationMs"`
}

// ScriptResult is returned by Evaluate. The first tool a script defines
// is generated.
type ScriptResult struct {
	Tools     []tool.Parameters `json:"tools"`
	Errors    []ErrorData       `json:"errors"`
	Generated *GenerateResult   `json:"generated"`
}

// NewApp creates an App from cfg.
func NewApp(cfg config.Config, log zerolog.Logger) (*App, error) {
	k, err := cfg.NewKernel()
	if err != nil {
		return nil, fmt.Errorf("kernel: %w", err)
	}
	a := &App{
		cfg:       cfg,
		log:       log,
		engine:    engine.NewEngine(),
		debounced: debounce.New(cfg.Debounce()),
	}
	gen := tessellate.New(k, log, cfg.PipelineOptions(a.notice))
	a.session = tessellate.NewSession(gen, cfg.GenerateTimeout())
	a.session.Late = func(res *tessellate.Result) {
		a.emit(EventGenerated, a.result(res))
	}
	return a, nil
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// shutdown releases the current mesh.
func (a *App) shutdown(ctx context.Context) {
	a.session.Release()
}

func (a *App) runCtx() context.Context {
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

// emit sends an event to the frontend; it is a no-op outside Wails.
func (a *App) emit(name string, data ...any) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, name, data...)
}

func (a *App) notice(n tool.Notice) {
	a.log.Debug().Stringer("level", n.Level).Msg(n.Message)
	a.emit(EventNotice, n)
}

// Defaults returns the default tool parameters.
func (a *App) Defaults() tool.Parameters {
	return tool.Defaults()
}

// Presets returns the preset names.
func (a *App) Presets() []string {
	return tool.PresetNames()
}

// Preset returns a named preset.
func (a *App) Preset(name string) (tool.Parameters, error) {
	return tool.Preset(name)
}

// Validate checks parameters without generating.
func (a *App) Validate(p tool.Parameters) []ErrorData {
	r := tool.Validate(p)
	return lo.Map(append(r.Errors, r.Warnings...), func(e tool.ValidationError, _ int) ErrorData {
		return ErrorData{Field: e.Field, Message: e.Error()}
	})
}

// Generate runs the pipeline for p. The result replaces, and releases,
// the previous mesh.
func (a *App) Generate(p tool.Parameters) GenerateResult {
	out := GenerateResult{Parameters: p, Notices: []tool.Notice{}, Errors: []ErrorData{}}

	res, err := a.session.Generate(a.runCtx(), p)
	if err != nil {
		if errors.Is(err, tessellate.ErrSuperseded) {
			a.log.Debug().Msg("generation superseded")
		} else {
			a.log.Error().Err(err).Str("tool", p.String()).Msg("generation failed")
		}
		r := tool.Validate(p)
		if r.OK() {
			out.Errors = append(out.Errors, ErrorData{Message: err.Error()})
		}
		for _, e := range r.Errors {
			out.Errors = append(out.Errors, ErrorData{Field: e.Field, Message: e.Error()})
		}
		return out
	}

	return a.result(res)
}

// result converts a pipeline result for the frontend.
func (a *App) result(res *tessellate.Result) GenerateResult {
	out := GenerateResult{Notices: []tool.Notice{}, Errors: []ErrorData{}}
	out.ID = res.ID
	out.Status = res.Status
	out.Parameters = res.Parameters
	out.Derived = res.Derived
	out.Appearance = res.Appearance
	out.Kernel = res.Kernel
	out.DurationMS = res.Duration.Milliseconds()
	if len(res.Notices) > 0 {
		out.Notices = res.Notices
	}
	if m := res.Mesh; m != nil {
		out.Mesh = &MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			UVs:      m.UVs,
			Indices:  m.Indices,
			PartName: m.PartName,
			Color:    res.Appearance.Color,
		}
	}
	return out
}

// UpdateParameters schedules a regeneration for p once edits pause. The
// result is delivered as an EventGenerated event.
func (a *App) UpdateParameters(p tool.Parameters) {
	a.mu.Lock()
	a.pending = p
	a.mu.Unlock()

	a.debounced(func() {
		a.mu.Lock()
		latest := a.pending
		a.mu.Unlock()
		a.emit(EventGenerated, a.Generate(latest))
	})
}

// Evaluate runs a tool script and generates the first tool it defines.
func (a *App) Evaluate(source string) ScriptResult {
	out := ScriptResult{Tools: []tool.Parameters{}, Errors: []ErrorData{}}

	tools, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		a.log.Warn().Err(err).Msg("script evaluation failed")
		out.Errors = append(out.Errors, ErrorData{Message: err.Error()})
		return out
	}
	if len(evalErrs) > 0 {
		out.Errors = lo.Map(evalErrs, func(e engine.EvalError, _ int) ErrorData {
			return ErrorData{Line: e.Line, Col: e.Col, Message: e.Message}
		})
		return out
	}

	out.Tools = append(out.Tools, tools...)
	if len(tools) > 0 {
		res := a.Generate(tools[0])
		out.Generated = &res
	}
	return out
}

// ReleaseMesh tells the backend the frontend has dropped the mesh with the
// given ID. It reports whether the ID named the current mesh.
func (a *App) ReleaseMesh(id string) bool {
	return a.session.ReleaseID(id)
}

// artifacts gathers the current tool for export. The session hands out a
// copy, so a concurrent regeneration cannot release it mid-export.
func (a *App) artifacts() (export.Artifacts, error) {
	cur := a.session.Current()
	if cur == nil || cur.Mesh == nil {
		return export.Artifacts{}, ErrNoTool
	}
	mesh := cur.Mesh
	drawing := projection.Extract(projection.Input{
		Mesh:       mesh,
		Segments:   cur.Segments,
		Paths:      cur.Paths,
		Parameters: cur.Parameters,
		Derived:    cur.Derived,
	}, a.cfg.ProjectionOptions())
	return export.Artifacts{
		Parameters: []tool.Parameters{cur.Parameters},
		Mesh:       mesh,
		Drawing:    &drawing,
		Appearance: cur.Appearance,
		ImageSize:  a.cfg.PreviewSize,
	}, nil
}

// Export writes the current tool in format to path, or into the configured
// output directory under the conventional name when path is empty. It
// returns the path written.
func (a *App) Export(format, path string) (string, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return "", err
	}
	art, err := a.artifacts()
	if err != nil {
		return "", err
	}
	if path == "" {
		path, err = export.ExportFile(a.cfg.OutputDir, f, art)
	} else {
		err = export.ExportPath(path, f, art)
	}
	if err != nil {
		a.log.Error().Err(err).Str("format", string(f)).Msg("export failed")
		return "", err
	}
	a.log.Info().Str("path", path).Str("format", string(f)).Msg("exported")
	return path, nil
}

// ExportDialog asks the user for a destination and exports there. An
// empty path with no error means the dialog was cancelled.
func (a *App) ExportDialog(format string) (string, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return "", err
	}
	if a.ctx == nil {
		return "", errors.New("export dialog requires the desktop runtime")
	}
	name := "tool." + string(f)
	if cur := a.session.Current(); cur != nil {
		name = tool.FileName(cur.Parameters, string(f))
	}
	path, err := runtime.SaveFileDialog(a.ctx, runtime.SaveDialogOptions{
		Title:           "Export " + string(f),
		DefaultFilename: name,
		Filters:         []runtime.FileFilter{{DisplayName: string(f), Pattern: "*." + string(f)}},
	})
	if err != nil || path == "" {
		return "", err
	}
	return a.Export(string(f), path)
}
