// Command fluteforge generates cutting tools from parameter files or tool
// scripts without the desktop UI.
//
//	fluteforge [flags] FILE...
//
// FILE is a JSON5 parameter document (.json5, .json) or a tool script (.ff).
// Every tool it defines is generated and written once per output format.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/chazu/fluteforge/pkg/config"
	"github.com/chazu/fluteforge/pkg/engine"
	"github.com/chazu/fluteforge/pkg/export"
	"github.com/chazu/fluteforge/pkg/projection"
	"github.com/chazu/fluteforge/pkg/tessellate"
	"github.com/chazu/fluteforge/pkg/tool"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "fluteforge:", err)
		}
		os.Exit(1)
	}
}

type options struct {
	config  string
	kernel  string
	out     string
	formats []string
	presets []string
	notify  bool
	verbose bool
}

func parseFlags(args []string, stderr io.Writer) (options, []string, error) {
	var o options
	fs := pflag.NewFlagSet("fluteforge", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&o.config, "config", "c", "", "JSON5 config file")
	fs.StringVarP(&o.kernel, "kernel", "k", "", "boolean kernel: "+strings.Join(tessellate.KernelNames(), ", "))
	fs.StringVarP(&o.out, "out", "o", "", "output directory")
	fs.StringSliceVarP(&o.formats, "format", "f", nil, "output formats (stl, dxf, svg, png, json, csv)")
	fs.StringSliceVarP(&o.presets, "preset", "p", nil, "generate a named preset")
	fs.BoolVar(&o.notify, "notify", true, "log pipeline notices")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: fluteforge [flags] FILE...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return o, nil, err
	}
	return o, fs.Args(), nil
}

// loadConfig applies command-line overrides on top of the config file.
func loadConfig(o options) (config.Config, error) {
	cfg := config.Default()
	if o.config != "" {
		var err error
		if cfg, err = config.Load(o.config); err != nil {
			return cfg, err
		}
	}
	if o.kernel != "" {
		cfg.Kernel = o.kernel
	}
	if o.out != "" {
		cfg.OutputDir = o.out
	}
	if len(o.formats) > 0 {
		cfg.Formats = o.formats
	}
	if o.verbose {
		cfg.LogLevel = "debug"
	}
	cfg.Notify = cfg.Notify && o.notify
	return cfg, cfg.Validate()
}

func run(args []string, stdout, stderr io.Writer) error {
	o, files, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if len(files) == 0 && len(o.presets) == 0 {
		return errors.New("no input files or presets")
	}

	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	log, err := cfg.Logger(stderr)
	if err != nil {
		return err
	}
	formats, err := cfg.ExportFormats()
	if err != nil {
		return err
	}
	k, err := cfg.NewKernel()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}

	tools, err := collect(files, o.presets)
	if err != nil {
		return err
	}

	gen := tessellate.New(k, log, cfg.PipelineOptions(func(n tool.Notice) {
		log.Warn().Stringer("level", n.Level).Msg(n.Message)
	}))

	failed := 0
	for _, p := range tools {
		paths, err := generate(gen, cfg, formats, p, log)
		if err != nil {
			failed++
			log.Error().Err(err).Str("tool", p.String()).Msg("generation failed")
			continue
		}
		for _, path := range paths {
			fmt.Fprintln(stdout, path)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tools failed", failed, len(tools))
	}
	return nil
}

// collect gathers the tools defined by every input file followed by the
// named presets.
func collect(files, presets []string) ([]tool.Parameters, error) {
	var out []tool.Parameters
	for _, path := range files {
		tools, err := load(path)
		if err != nil {
			return nil, err
		}
		out = append(out, tools...)
	}
	for _, name := range presets {
		p, err := tool.Preset(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, errors.New("inputs define no tools")
	}
	return out, nil
}

func load(path string) ([]tool.Parameters, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json5", ".json":
		return tool.LoadParameters(path)
	case ".ff":
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		tools, evalErrs, err := engine.NewEngine().Evaluate(string(src))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if len(evalErrs) > 0 {
			e := evalErrs[0]
			return nil, fmt.Errorf("%s:%d:%d: %s", path, e.Line, e.Col, e.Message)
		}
		return tools, nil
	default:
		return nil, fmt.Errorf("%s: unknown input type (want .json5, .json or .ff)", path)
	}
}

// generate builds one tool and writes it in every format. The meshes are
// released before returning.
func generate(gen *tessellate.Generator, cfg config.Config, formats []export.Format, p tool.Parameters, log zerolog.Logger) ([]string, error) {
	res, err := gen.Generate(p)
	if err != nil {
		return nil, err
	}
	defer res.Dispose()

	drawing := projection.Extract(projection.Input{
		Mesh:       res.Mesh,
		Segments:   res.Segments,
		Paths:      res.Paths,
		Parameters: res.Parameters,
		Derived:    res.Derived,
	}, cfg.ProjectionOptions())
	art := export.Artifacts{
		Parameters: []tool.Parameters{res.Parameters},
		Mesh:       res.Mesh,
		Drawing:    &drawing,
		Appearance: res.Appearance,
		ImageSize:  cfg.PreviewSize,
	}

	log.Info().
		Str("tool", res.Parameters.String()).
		Stringer("status", res.Status).
		Int("triangles", res.Mesh.TriangleCount()).
		Dur("took", res.Duration).
		Msg("generated")

	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		path, err := export.ExportFile(cfg.OutputDir, f, art)
		if err != nil {
			return paths, fmt.Errorf("export %s: %w", f, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
