package plots

import (
	"math"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	// Log-spaced bins cover at least 1s to 10^6s, and more decades if some value is larger.
	// Anything below 1s goes in a first bin that starts at 0.1s.
	minDecades   = 6
	underflowMin = 0.1
)

// Count the values into the bins delimited by the sorted edges.  A value on an edge goes in the bin
// above it.  Values outside the edges go in the first or last bin.

func binValues(values, edges []float64) []plotter.HistogramBin {
	bins := make([]plotter.HistogramBin, len(edges)-1)
	for i := range bins {
		bins[i].Min = edges[i]
		bins[i].Max = edges[i+1]
	}
	for _, v := range values {
		i, found := slices.BinarySearch(edges, v)
		if !found {
			i--
		}
		bins[max(0, min(i, len(bins)-1))].Weight++
	}
	return bins
}

func linearEdges(lo, hi float64, n int) []float64 {
	edges := make([]float64, n+1)
	for i := range edges {
		edges[i] = lo + (hi-lo)*float64(i)/float64(n)
	}
	return edges
}

// One underflow bin and histBins-1 bins evenly spaced in log10 from 1 up to the decade that holds
// the largest value.

func logEdges(hs []Values) []float64 {
	decades := float64(minDecades)
	for _, h := range hs {
		for _, v := range h.Values {
			if v > 1 {
				decades = math.Max(decades, math.Ceil(math.Log10(v)))
			}
		}
	}
	edges := make([]float64, 0, histBins+1)
	edges = append(edges, underflowMin)
	for i := range histBins {
		edges = append(edges, math.Pow(10, decades*float64(i)/float64(histBins-1)))
	}
	return edges
}

func maxWeight(bins []plotter.HistogramBin) float64 {
	m := 0.0
	for _, b := range bins {
		m = math.Max(m, b.Weight)
	}
	return m
}

// The range of the values, widened if they are all the same.

func extent(xs []float64) (lo, hi float64) {
	lo, hi = slices.Min(xs), slices.Max(xs)
	if lo == hi {
		lo--
		hi++
	}
	return
}

// Histogram bins drawn sideways: the values on the y axis and the counts on the x axis.

type sidewaysHist struct {
	bins []plotter.HistogramBin
	draw.LineStyle
}

func (h *sidewaysHist) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	for _, bin := range h.bins {
		xmin := c.Min.X
		xmax := c.Min.X
		if bin.Weight != 0 {
			xmax = trX(bin.Weight)
		}
		ymin := trY(bin.Min)
		ymax := trY(bin.Max)
		pts := []vg.Point{
			{X: xmin, Y: ymin},
			{X: xmax, Y: ymin},
			{X: xmax, Y: ymax},
			{X: xmin, Y: ymax},
			{X: xmin, Y: ymin},
		}
		c.StrokeLines(h.LineStyle, c.ClipLinesXY(pts)...)
	}
}
