// Package prender renders a viewer's figure to PNG images using
// gonum/plot, and holds the sinks for camera frames.
package prender

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/pitwall-engine/pitwall"
	"github.com/pitwall-engine/pitwall/pcurve"
)

const (
	defaultWidth  = 10 * vg.Inch
	defaultHeight = 6 * vg.Inch
)

// WritePNG draws the whole figure and writes it to w as a PNG.
func WritePNG(v *pitwall.Viewer, w io.Writer, width, height vg.Length) error {
	if width == 0 {
		width = defaultWidth
	}
	if height == 0 {
		height = defaultHeight
	}

	img := vgimg.New(width, height)
	if err := renderFigure(v, draw.New(img)); err != nil {
		return err
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}

// renderFigure draws every subplot into its grid region on the canvas.
// Grid rows count from the top; vg coordinates grow from the bottom.
func renderFigure(v *pitwall.Viewer, dc draw.Canvas) error {
	size := dc.Rectangle.Size()
	cellW := size.X / vg.Length(v.Cols())
	cellH := size.Y / vg.Length(v.Rows())

	for _, name := range v.SubplotNames() {
		cfg, _ := v.SubplotConfig(name)
		region := cfg.Region.Normalized()

		x0 := dc.Min.X + vg.Length(region.Col)*cellW
		x1 := x0 + vg.Length(region.ColSpan)*cellW
		yTop := dc.Max.Y - vg.Length(region.Row)*cellH
		y0 := yTop - vg.Length(region.RowSpan)*cellH

		sub := draw.Canvas{
			Canvas: dc.Canvas,
			Rectangle: vg.Rectangle{
				Min: vg.Point{X: x0, Y: y0},
				Max: vg.Point{X: x1, Y: yTop},
			},
		}

		p, err := buildSubplot(v, name, cfg)
		if err != nil {
			return fmt.Errorf("failed to build subplot %q: %w", name, err)
		}
		p.Draw(sub)
	}
	return nil
}

func buildSubplot(v *pitwall.Viewer, name string, cfg pitwall.SubplotConfig) (*plot.Plot, error) {
	p := plot.New()

	title := name
	if cfg.ShowUnit && cfg.Unit != "" {
		title += " [" + cfg.Unit + "]"
	}
	p.Title.Text = title

	curves, _ := v.Curves(name)

	// Prediction windows start where the accumulated history ends.
	historyLen := 0
	for _, curveID := range curves.CurveIDs() {
		st, _ := curves.Curve(curveID)
		if st.Role() == pcurve.Regular && st.Len() > historyLen {
			historyLen = st.Len()
		}
	}

	for i, curveID := range curves.CurveIDs() {
		st, _ := curves.Curve(curveID)
		curveCfg := cfg.Curves[curveID]

		xys := curveXYs(v, cfg.Kind, st, historyLen)

		c := curveCfg.Color
		if c == nil {
			c = plotutil.Color(i)
		}

		if err := addCurve(p, curveCfg.Style, c, xys); err != nil {
			return nil, fmt.Errorf("curve %q: %w", curveID, err)
		}
	}

	return p, nil
}

func curveXYs(v *pitwall.Viewer, kind pcurve.Kind, st *pcurve.State, historyLen int) plotter.XYs {
	if kind == pcurve.Spatial {
		pts := st.Spatial()
		xys := make(plotter.XYs, len(pts))
		for i, pt := range pts {
			xys[i] = plotter.XY{X: pt[0], Y: pt[1]}
		}
		return xys
	}

	dt := v.SamplingTime()
	if dt == 0 {
		dt = 1
	}
	offset := 0
	if st.Role() == pcurve.Prediction {
		offset = historyLen
	}

	ys := st.Temporal()
	xys := make(plotter.XYs, len(ys))
	for i, y := range ys {
		xys[i] = plotter.XY{X: float64(offset+i) * dt, Y: y}
	}
	return xys
}

func addCurve(p *plot.Plot, style pitwall.CurveStyle, c color.Color, xys plotter.XYs) error {
	switch style {
	case pitwall.StyleScatter:
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = c
		p.Add(sc)
		return nil

	case pitwall.StyleStep:
		ln, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		ln.StepStyle = plotter.PostStep
		ln.Color = c
		p.Add(ln)
		return nil

	case pitwall.StyleSemilogX:
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}

	case pitwall.StyleSemilogY:
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	case pitwall.StyleLogLog:
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	ln, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	ln.Color = c
	p.Add(ln)
	return nil
}
