package export

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/chazu/fluteforge/pkg/projection"
)

// svgScale is SVG user units per millimetre.
const svgScale = 10.0

const svgMargin = 10.0 // mm

var svgStyles = map[projection.EdgeKind]string{
	projection.EdgeSharp:      "stroke:black;stroke-width:3",
	projection.EdgeSilhouette: "stroke:black;stroke-width:3",
	projection.EdgeOutline:    "stroke:black;stroke-width:5",
	projection.EdgeGuide:      "stroke:gray;stroke-width:2;stroke-dasharray:12,6",
}

// WriteSVG writes the drawing with the same sheet layout as WriteDXF,
// one group per layer, y pointing up.
func WriteSVG(w io.Writer, d projection.Drawing) error {
	s := layout(d)
	width := int(math.Ceil((s.max.X - s.min.X + 2*svgMargin) * svgScale))
	height := int(math.Ceil((s.max.Y - s.min.Y + 2*svgMargin) * svgScale))
	pt := func(p r2.Vec) (int, int) {
		x := (p.X - s.min.X + svgMargin) * svgScale
		y := (s.max.Y - p.Y + svgMargin) * svgScale
		return int(math.Round(x)), int(math.Round(y))
	}

	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(width, height)
	canvas.Title("tool drawing")
	canvas.Rect(0, 0, width, height, "fill:white")

	for _, l := range DXFLayers {
		canvas.Gid(l.Name)
		for _, ln := range s.lines {
			if ln.layer != l.Name {
				continue
			}
			x1, y1 := pt(ln.a)
			x2, y2 := pt(ln.b)
			style := svgStyles[ln.kind]
			if ln.layer == layerDimensions {
				style = "stroke:red;stroke-width:2"
			}
			canvas.Line(x1, y1, x2, y2, style)
		}
		for _, c := range s.circles {
			if c.layer != l.Name {
				continue
			}
			cx, cy := pt(c.center)
			canvas.Circle(cx, cy, int(math.Round(c.radius*svgScale)), "fill:none;stroke:black;stroke-width:3")
		}
		for _, t := range s.texts {
			if t.layer != l.Name {
				continue
			}
			x, y := pt(t.at)
			canvas.Text(x, y, t.text, fmt.Sprintf("font-family:sans-serif;font-size:%dpx", int(textHeight*svgScale)))
		}
		canvas.Gend()
	}
	canvas.End()
	if ew.err != nil {
		return fmt.Errorf("write svg: %w", ew.err)
	}
	return nil
}

// errWriter latches the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
