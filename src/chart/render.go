package chart

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"buildtrend/src/buildstore"
)

// Default canvas size, 6.4x4.8 inches.
const (
	Width  = 6.4 * vg.Inch
	Height = 4.8 * vg.Inch
)

var pointColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}

func unix(p Point) float64 {
	return float64(p.Time.Unix())
}

// Build lays out the chart for points, which should already be filtered.
func Build(points []Point, v Variant) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = v.Title
	p.Y.Label.Text = v.YLabel

	if v.DailyTicks {
		p.X.Tick.Marker = dailyTicks{Format: "2006-01-02"}
	} else {
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	}
	p.X.Tick.Label.Rotation = 0.5
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Add(plotter.NewGrid())

	if len(points) > 0 {
		xys := make(plotter.XYs, len(points))
		for i, pt := range points {
			xys[i] = plotter.XY{X: unix(pt), Y: pt.Minutes}
		}
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("failed to plot builds: %w", err)
		}
		scatter.GlyphStyle = draw.GlyphStyle{
			Color:  pointColor,
			Radius: vg.Points(1.5),
			Shape:  draw.CircleGlyph{},
		}
		p.Add(scatter)
	}

	for _, a := range v.Annotations {
		if err := annotate(p, a); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// annotate draws a connector from the text position down (or up) to the
// annotated point, with an arrowhead at the point.
func annotate(p *plot.Plot, a Annotation) error {
	x := float64(a.Date.Unix())

	connector, err := plotter.NewLine(plotter.XYs{{X: x, Y: a.TextY}, {X: x, Y: a.Y}})
	if err != nil {
		return fmt.Errorf("failed to draw annotation %q: %w", a.Text, err)
	}
	connector.LineStyle = draw.LineStyle{Color: color.Black, Width: vg.Points(1)}

	head, err := plotter.NewScatter(plotter.XYs{{X: x, Y: a.Y}})
	if err != nil {
		return fmt.Errorf("failed to draw annotation %q: %w", a.Text, err)
	}
	head.GlyphStyle = draw.GlyphStyle{Color: color.Black, Radius: vg.Points(2.5), Shape: draw.TriangleGlyph{}}

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: x, Y: a.TextY}},
		Labels: []string{a.Text},
	})
	if err != nil {
		return fmt.Errorf("failed to draw annotation %q: %w", a.Text, err)
	}
	labels.Offset = vg.Point{X: vg.Points(2), Y: vg.Points(2)}

	p.Add(connector, head, labels)
	return nil
}

// Write renders points to w in the given image format ("png", "svg", "pdf").
func Write(w io.Writer, points []Point, v Variant, format string) error {
	p, err := Build(points, v)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(Width, Height, format)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", v.Name, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write %s: %w", v.Name, err)
	}
	return nil
}

// Render loads store, applies the variant's cutoff and writes the chart to
// dir/v.Output. It returns the number of points drawn.
func Render(store *buildstore.Store, v Variant, dir string) (int, error) {
	points, err := LoadPoints(store)
	if err != nil {
		return 0, err
	}
	points = Filter(points, v.Cutoff)

	p, err := Build(points, v)
	if err != nil {
		return 0, err
	}

	out := v.Output
	if dir != "" && !filepath.IsAbs(out) {
		out = filepath.Join(dir, out)
	}
	if err := p.Save(Width, Height, out); err != nil {
		return 0, fmt.Errorf("failed to save %s: %w", out, err)
	}
	return len(points), nil
}
