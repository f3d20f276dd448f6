// Package config loads application settings from a JSON5 file and turns
// them into the options of the pipeline, projection and export packages.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/titanous/json5"

	"github.com/chazu/fluteforge/pkg/export"
	"github.com/chazu/fluteforge/pkg/kernel"
	"github.com/chazu/fluteforge/pkg/projection"
	"github.com/chazu/fluteforge/pkg/tessellate"
	"github.com/chazu/fluteforge/pkg/tool"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds every tunable setting.
type Config struct {
	Kernel string `json:"kernel"` // bsp, sdfx or manifold
	Notify bool   `json:"notify"` // surface pipeline notices to the user

	DebounceMS       int     `json:"debounce_ms"`
	GenerateTimeoutS float64 `json:"generate_timeout_s"`

	TubeResolution float64 `json:"tube_resolution"` // sweep facet scale
	SDFCells       int     `json:"sdf_cells"`       // marching cubes cells, sdfx only
	HealRepair     bool    `json:"heal_repair"`

	EdgeThresholdDeg  float64 `json:"edge_threshold_deg"`
	HelixGuideSamples int     `json:"helix_guide_samples"`

	PreviewSize int      `json:"preview_size"`
	OutputDir   string   `json:"output_dir"`
	Formats     []string `json:"formats"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"` // console or json
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Kernel:            tessellate.DefaultKernel,
		Notify:            true,
		DebounceMS:        300,
		GenerateTimeoutS:  tessellate.GenerateTimeout.Seconds(),
		TubeResolution:    0.5,
		SDFCells:          200,
		EdgeThresholdDeg:  projection.DefaultThreshold,
		HelixGuideSamples: 96,
		PreviewSize:       export.DefaultImageSize,
		OutputDir:         ".",
		Formats:           []string{string(export.FormatSTL)},
		LogLevel:          "info",
		LogFormat:         "console",
	}
}

// Parse decodes a JSON5 document on top of Default and validates it.
func Parse(data []byte) (Config, error) {
	c := Default()
	if err := json5.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads and parses a config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}
	if c.Kernel != "" && !lo.Contains(tessellate.KernelNames(), strings.ToLower(c.Kernel)) {
		return invalid("kernel %q (want one of %s)", c.Kernel, strings.Join(tessellate.KernelNames(), ", "))
	}
	switch {
	case c.DebounceMS < 0:
		return invalid("debounce_ms must not be negative")
	case c.GenerateTimeoutS <= 0:
		return invalid("generate_timeout_s must be positive")
	case c.TubeResolution <= 0:
		return invalid("tube_resolution must be positive")
	case c.SDFCells <= 0:
		return invalid("sdf_cells must be positive")
	case c.EdgeThresholdDeg <= 0 || c.EdgeThresholdDeg >= 180:
		return invalid("edge_threshold_deg must be in (0, 180)")
	case c.HelixGuideSamples < 2:
		return invalid("helix_guide_samples must be at least 2")
	case c.PreviewSize <= 0:
		return invalid("preview_size must be positive")
	}
	if _, err := c.ExportFormats(); err != nil {
		return invalid("%v", err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return invalid("log_level %q", c.LogLevel)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return invalid("log_format %q (want console or json)", c.LogFormat)
	}
	return nil
}

// ExportFormats parses Formats, dropping duplicates.
func (c Config) ExportFormats() ([]export.Format, error) {
	out := make([]export.Format, 0, len(c.Formats))
	for _, s := range c.Formats {
		f, err := export.ParseFormat(s)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return lo.Uniq(out), nil
}

// Debounce is the quiet period before an edit triggers regeneration.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// GenerateTimeout bounds one generation.
func (c Config) GenerateTimeout() time.Duration {
	return time.Duration(c.GenerateTimeoutS * float64(time.Second))
}

// NewKernel constructs the configured boolean backend.
func (c Config) NewKernel() (kernel.Kernel, error) {
	return tessellate.KernelByName(c.Kernel, c.SDFCells)
}

// PipelineOptions returns the tessellate options. notify receives notices
// only when Notify is set.
func (c Config) PipelineOptions(notify func(tool.Notice)) tessellate.Options {
	heal := kernel.DefaultHealOptions()
	heal.Repair = c.HealRepair
	opts := tessellate.Options{TubeResolution: c.TubeResolution, Heal: heal}
	if c.Notify {
		opts.Notify = notify
	}
	return opts
}

// ProjectionOptions returns the drawing options.
func (c Config) ProjectionOptions() projection.Options {
	opts := projection.DefaultOptions()
	opts.Threshold = c.EdgeThresholdDeg
	opts.GuideSamples = c.HelixGuideSamples
	return opts
}

// Logger builds a logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	if c.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}
