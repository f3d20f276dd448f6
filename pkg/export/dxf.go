package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"

	"github.com/chazu/fluteforge/pkg/projection"
)

// DXFLayers maps each layer to its colour. Every view and annotation
// class gets its own layer so CAM tools can toggle them independently.
var DXFLayers = []struct {
	Name  string
	Color color.ColorNumber
}{
	{"Top", color.Cyan},
	{"Front", color.White},
	{"Side", color.Green},
	{layerDimensions, color.Red},
	{layerText, color.Yellow},
}

// WriteDXF writes the drawing as a 2D DXF with views laid out side by side.
func WriteDXF(w io.Writer, d projection.Drawing) error {
	s := layout(d)

	dr := dxf.NewDrawing()
	for _, l := range DXFLayers {
		if _, err := dr.AddLayer(l.Name, l.Color, dxf.DefaultLineType, false); err != nil {
			return fmt.Errorf("dxf layer %s: %w", l.Name, err)
		}
	}

	for _, l := range s.lines {
		if err := dr.ChangeLayer(l.layer); err != nil {
			return fmt.Errorf("dxf layer %s: %w", l.layer, err)
		}
		if _, err := dr.Line(l.a.X, l.a.Y, 0, l.b.X, l.b.Y, 0); err != nil {
			return fmt.Errorf("dxf line: %w", err)
		}
	}
	for _, c := range s.circles {
		if err := dr.ChangeLayer(c.layer); err != nil {
			return fmt.Errorf("dxf layer %s: %w", c.layer, err)
		}
		if _, err := dr.Circle(c.center.X, c.center.Y, 0, c.radius); err != nil {
			return fmt.Errorf("dxf circle: %w", err)
		}
	}
	for _, t := range s.texts {
		if err := dr.ChangeLayer(t.layer); err != nil {
			return fmt.Errorf("dxf layer %s: %w", t.layer, err)
		}
		if _, err := dr.Text(t.text, t.at.X, t.at.Y, 0, textHeight); err != nil {
			return fmt.Errorf("dxf text: %w", err)
		}
	}

	// The dxf package only saves to a path.
	dir, err := os.MkdirTemp("", "fluteforge-dxf-")
	if err != nil {
		return fmt.Errorf("write dxf: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "drawing.dxf")
	if err := dr.SaveAs(path); err != nil {
		return fmt.Errorf("write dxf: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("write dxf: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("write dxf: %w", err)
	}
	return nil
}
