package plots

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"hjta/util/filesys"
)

const (
	DefaultFormat = "pdf"
	DefaultWidth  = 25.0 // cm
	DefaultHeight = 20.0 // cm

	histBins = 50

	// Fraction of the width and height that goes to the main plot when there are marginals
	mainFraction = 0.75

	// Lower end of log count axes, below a count of one so that single jobs are visible
	minCount = 0.5

	countHeadroom = 1.5
)

var Formats = []string{"pdf", "png", "svg"}

func CheckFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return fmt.Errorf("Unsupported plot format %s, use one of %v", format, Formats)
	}
	return nil
}

// Size of a rendered plot in centimetres.

type Size struct {
	Width, Height float64
}

func (s Size) lengths() (vg.Length, vg.Length) {
	return vg.Length(s.Width) * vg.Centimeter, vg.Length(s.Height) * vg.Centimeter
}

// A Figure is a plot, possibly with marginal histograms above and to the right of it.

type Figure struct {
	Main *plot.Plot

	// nil if there are no marginals
	Top, Right *plot.Plot
}

// Render a data set.  Empty series are not drawn, so an empty data set gives empty axes.

func Render(d *Dataset) (*Figure, error) {
	p := plot.New()
	p.Title.Text = d.Title
	p.X.Label.Text = d.XLabel
	p.Y.Label.Text = d.YLabel
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	for i, s := range d.Scatter {
		if len(s.X) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(s.X))
		for j := range s.X {
			xys[j].X = s.X[j]
			xys[j].Y = s.Y[j]
		}
		sc, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Label, err)
		}
		sc.GlyphStyle.Color = plotutil.Color(i)
		sc.GlyphStyle.Shape = plotutil.Shape(i)
		sc.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(sc)
		p.Legend.Add(s.Label, sc)
	}

	for i, l := range d.Lines {
		slope := l.Slope
		f := plotter.NewFunction(func(x float64) float64 { return slope * x })
		f.Color = color.Gray{Y: uint8(100 * i)}
		f.Width = vg.Points(1)
		p.Add(f)
		p.Legend.Add(l.Label, f)
	}

	// Histograms share log-spaced bins and are drawn on log-log axes.
	edges := logEdges(d.Hist)
	maxCount := 0.0
	for i, h := range d.Hist {
		if len(h.Values) == 0 {
			continue
		}
		hist := &plotter.Histogram{Bins: binValues(h.Values, edges), LogY: true}
		hist.LineStyle.Color = plotutil.Color(i)
		hist.LineStyle.Width = vg.Points(1.5)
		hist.LineStyle.Dashes = plotutil.Dashes(i)
		maxCount = math.Max(maxCount, maxWeight(hist.Bins))
		p.Add(hist)
		p.Legend.Add(h.Label, hist)
	}
	if maxCount > 0 {
		logAxis(&p.X, edges[0], edges[len(edges)-1])
		logAxis(&p.Y, minCount, maxCount*countHeadroom)
	}

	for _, n := range d.Notes {
		p.Legend.Add(n)
	}

	f := &Figure{Main: p}
	if d.Marginals {
		f.addMarginals(d)
	}
	return f, nil
}

// Histograms of the scatter's x values above the plot and of its y values to the right, over the
// same ranges as the scatter and with log-scaled counts.

func (f *Figure) addMarginals(d *Dataset) {
	var xs, ys []float64
	for _, s := range d.Scatter {
		xs = append(xs, s.X...)
		ys = append(ys, s.Y...)
	}
	if len(xs) == 0 {
		return
	}
	xlo, xhi := extent(xs)
	ylo, yhi := extent(ys)
	f.Main.X.Min, f.Main.X.Max = xlo, xhi
	f.Main.Y.Min, f.Main.Y.Max = ylo, yhi

	top := plot.New()
	top.Title.Text = f.Main.Title.Text
	f.Main.Title.Text = ""
	top.HideX()
	top.Y.Label.Text = "Jobs"
	xbins := binValues(xs, linearEdges(xlo, xhi, histBins))
	th := &plotter.Histogram{Bins: xbins, LogY: true}
	th.LineStyle.Color = plotutil.Color(0)
	th.LineStyle.Width = vg.Points(1)
	top.Add(th)
	top.X.Min, top.X.Max = xlo, xhi
	logAxis(&top.Y, minCount, maxWeight(xbins)*countHeadroom)

	right := plot.New()
	right.HideY()
	right.X.Label.Text = "Jobs"
	ybins := binValues(ys, linearEdges(ylo, yhi, histBins))
	rh := &sidewaysHist{bins: ybins}
	rh.LineStyle.Color = plotutil.Color(0)
	rh.LineStyle.Width = vg.Points(1)
	right.Add(rh)
	right.Y.Min, right.Y.Max = ylo, yhi
	logAxis(&right.X, minCount, maxWeight(ybins)*countHeadroom)

	f.Top = top
	f.Right = right
}

func logAxis(a *plot.Axis, lo, hi float64) {
	a.Scale = plot.LogScale{}
	a.Tick.Marker = plot.LogTicks{}
	a.Min, a.Max = lo, hi
}

// The main plot takes the lower left part of the canvas.  The marginals are cropped so that their
// data areas line up with the main plot's.

func (f *Figure) Draw(c draw.Canvas) {
	if f.Top == nil || f.Right == nil {
		f.Main.Draw(c)
		return
	}
	splitX := c.Min.X + (c.Max.X-c.Min.X)*mainFraction
	splitY := c.Min.Y + (c.Max.Y-c.Min.Y)*mainFraction
	mainC := draw.Crop(c, 0, splitX-c.Max.X, 0, splitY-c.Max.Y)
	topC := draw.Crop(c, 0, splitX-c.Max.X, splitY-c.Min.Y, 0)
	rightC := draw.Crop(c, splitX-c.Min.X, 0, 0, splitY-c.Max.Y)

	f.Main.Draw(mainC)
	data := f.Main.DataCanvas(mainC)
	dc := f.Top.DataCanvas(topC)
	f.Top.Draw(draw.Crop(topC, data.Min.X-dc.Min.X, data.Max.X-dc.Max.X, 0, 0))
	dc = f.Right.DataCanvas(rightC)
	f.Right.Draw(draw.Crop(rightC, 0, 0, data.Min.Y-dc.Min.Y, data.Max.Y-dc.Max.Y))
}

func WriteTo(output io.Writer, f *Figure, format string, size Size) error {
	w, h := size.lengths()
	c, err := draw.NewFormattedCanvas(w, h, format)
	if err != nil {
		return err
	}
	f.Draw(draw.New(c))
	_, err = c.WriteTo(output)
	return err
}

// Write the figure to <dir>/<name>.<format>, replacing any existing file.  Returns the file name.

func Save(p *Figure, dir, name, format string, size Size) (string, error) {
	filename := filepath.Join(dir, name+"."+format)
	err := filesys.WriteAtomically(filename, func(f *os.File) error {
		return WriteTo(f, p, format, size)
	})
	if err != nil {
		return "", err
	}
	return filename, nil
}
