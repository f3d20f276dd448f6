// Package export serialises generated tools: meshes as binary STL, line
// drawings as DXF or SVG, a shaded PNG preview, and parameter records as
// JSON or CSV. Exporters never modify the mesh or drawing they are given.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/fluteforge/pkg/kernel"
	"github.com/chazu/fluteforge/pkg/projection"
	"github.com/chazu/fluteforge/pkg/tool"
)

// ErrUnsupportedFormat is returned for unknown formats. Nothing is
// written when it is returned.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ErrMissingArtifact is returned when the artifacts lack what a format needs.
var ErrMissingArtifact = errors.New("missing export input")

// Format names an export format; it doubles as the file extension.
type Format string

const (
	FormatSTL  Format = "stl"
	FormatDXF  Format = "dxf"
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Formats lists every supported format.
var Formats = []Format{FormatSTL, FormatDXF, FormatSVG, FormatPNG, FormatJSON, FormatCSV}

// ParseFormat accepts a format name or extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Artifacts is everything a format may draw from.
type Artifacts struct {
	Parameters []tool.Parameters // first entry names the file
	Mesh       *kernel.Mesh
	Drawing    *projection.Drawing
	Appearance tool.Appearance
	ImageSize  int // PNG edge length in pixels; 0 selects DefaultImageSize
}

// Write serialises the artifacts in format f.
func Write(w io.Writer, f Format, a Artifacts) error {
	switch f {
	case FormatSTL:
		if a.Mesh == nil || a.Mesh.IsEmpty() {
			return fmt.Errorf("%w: stl needs a mesh", ErrMissingArtifact)
		}
		return WriteSTL(w, a.Mesh, solidName(a))
	case FormatDXF:
		if a.Drawing == nil {
			return fmt.Errorf("%w: dxf needs a drawing", ErrMissingArtifact)
		}
		return WriteDXF(w, *a.Drawing)
	case FormatSVG:
		if a.Drawing == nil {
			return fmt.Errorf("%w: svg needs a drawing", ErrMissingArtifact)
		}
		return WriteSVG(w, *a.Drawing)
	case FormatPNG:
		if a.Mesh == nil || a.Mesh.IsEmpty() {
			return fmt.Errorf("%w: png needs a mesh", ErrMissingArtifact)
		}
		return WritePreview(w, a.Mesh, a.Appearance, a.ImageSize)
	case FormatJSON:
		return WriteJSON(w, a.Parameters...)
	case FormatCSV:
		return WriteCSV(w, a.Parameters...)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
	}
}

func solidName(a Artifacts) string {
	if len(a.Parameters) == 0 {
		return "tool"
	}
	return strings.TrimSuffix(tool.FileName(a.Parameters[0], "stl"), ".stl")
}

// FileName returns the conventional file name for the artifacts.
func FileName(f Format, a Artifacts) string {
	if len(a.Parameters) == 0 {
		return "tool." + string(f)
	}
	return tool.FileName(a.Parameters[0], string(f))
}

// ExportFile writes the artifacts into dir under the conventional file
// name and returns the path written.
func ExportFile(dir string, f Format, a Artifacts) (string, error) {
	if _, err := ParseFormat(string(f)); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(f, a))
	return path, ExportPath(path, f, a)
}

// ExportPath writes the artifacts to path. The content is rendered in
// memory first and then written to a temporary file that is renamed into
// place, so a failed export never leaves a partial file behind.
func ExportPath(path string, f Format, a Artifacts) error {
	var buf bytes.Buffer
	if err := Write(&buf, f, a); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("export %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}
