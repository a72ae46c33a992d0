package plots

import (
	"fmt"
	"math"
	"slices"

	"hjta/jobtable"
)

// A Dataset is everything a plot shows, independent of the rendering.

type Dataset struct {
	Title  string
	XLabel string
	YLabel string

	Scatter []Series

	// Drawn with log-spaced bins on log-log axes
	Hist []Values

	// Show histograms of the scatter's x and y values along the top and right edges
	Marginals bool

	// Reference lines through the origin
	Lines []RefLine

	// Text-only legend entries
	Notes []string
}

type Series struct {
	Label string
	X, Y  []float64
}

type Values struct {
	Label  string
	Values []float64
}

type RefLine struct {
	Label string
	Slope float64
}

// Number of data points in the data set.

func (d *Dataset) Points() int {
	n := 0
	for _, s := range d.Scatter {
		n += len(s.X)
	}
	for _, h := range d.Hist {
		n += len(h.Values)
	}
	return n
}

func TransferVsExecute(records []*jobtable.JobRecord) *Dataset {
	d := &Dataset{
		Title:     "Transfer vs Execution",
		XLabel:    jobtable.ExecuteTime.Label,
		YLabel:    jobtable.TransferTime.Label,
		Marginals: true,
	}
	xs, ys := jobtable.Pairs(records, jobtable.ExecuteTime, jobtable.TransferTime)
	d.Scatter = []Series{{Label: "Jobs", X: xs, Y: ys}}

	// The transfer fraction is undefined for jobs that did not execute for any time.
	worst, sum, n := 0.0, 0.0, 0
	for i := range xs {
		if xs[i] > 0 {
			frac := ys[i] / xs[i]
			worst = math.Max(worst, frac)
			sum += frac
			n++
		}
	}
	if n > 0 {
		mean := sum / float64(n)
		d.Lines = []RefLine{
			{Label: fmt.Sprintf("Worst Transfer (%.2f%%)", worst*100), Slope: worst},
			{Label: fmt.Sprintf("Mean Transfer (%.2f%%)", mean*100), Slope: mean},
		}
	}

	d.Notes = summary(records)
	return d
}

// The summary statistics for a set of jobs: overall submit-to-complete time, job count, mean job
// time, total execution time and the effective number of cores that the execution time amounts to.

func summary(records []*jobtable.JobRecord) []string {
	first, last := jobtable.Time{}, jobtable.Time{}
	for _, r := range records {
		if r.Submit.Valid && (!first.Valid || r.Submit.Unix < first.Unix) {
			first = r.Submit
		}
		if r.Complete.Valid && (!last.Valid || r.Complete.Unix > last.Unix) {
			last = r.Complete
		}
	}
	notes := make([]string, 0, 5)
	span, haveSpan := last.Sub(first)
	if haveSpan {
		notes = append(notes, fmt.Sprintf("Total Submit to Complete: %.2f min", span/60))
	}
	notes = append(notes, fmt.Sprintf("Num Jobs: %d", len(records)))
	if jobTimes := jobtable.JobTime.Values(records); len(jobTimes) > 0 {
		notes = append(notes, fmt.Sprintf("Mean Job Time (including transfer): %.2f s", mean(jobTimes)))
	}
	totExecute := sum(jobtable.ExecuteTime.Values(records))
	notes = append(notes, fmt.Sprintf("Total Execute: %.0f s", totExecute))
	if haveSpan && span > 0 {
		notes = append(notes, fmt.Sprintf("Eff N cores: %.2f", totExecute/span))
	}
	return notes
}

var histMetrics = []*jobtable.Metric{
	jobtable.TransferTime,
	jobtable.TransferInQueueTime,
	jobtable.TransferOutTime,
	jobtable.TransferOutQueueTime,
}

// The transfer time is always shown, the other distributions only if some job has them.

func TransferHist(records []*jobtable.JobRecord) *Dataset {
	d := &Dataset{
		Title:  "Transfer Times",
		XLabel: "Time [s]",
		YLabel: "Jobs",
	}
	for i, m := range histMetrics {
		vs := m.Values(records)
		if i > 0 && len(vs) == 0 {
			continue
		}
		d.Hist = append(d.Hist, Values{Label: m.Name, Values: vs})
	}
	return d
}

var indexMetrics = []struct {
	metric *jobtable.Metric
	label  string
}{
	{jobtable.TransferTime, "Transfer"},
	{jobtable.TransferInQueueTime, "In Queue"},
	{jobtable.TransferOutQueueTime, "Out Queue"},
}

// The x coordinate is the ordinal of the job in (Batch, Index) order among all jobs, not only
// those that have the metric.

func TransferVsJobIndex(records []*jobtable.JobRecord) *Dataset {
	d := &Dataset{
		Title:  "Transfer by Job Index",
		XLabel: "Job Index (sort by Batch then Index)",
		YLabel: "Time [s]",
	}
	sorted := slices.Clone(records)
	jobtable.SortByBatchIndex(sorted)
	for i, im := range indexMetrics {
		s := Series{Label: im.label}
		for ordinal, r := range sorted {
			if v, ok := im.metric.Value(r); ok {
				s.X = append(s.X, float64(ordinal))
				s.Y = append(s.Y, v)
			}
		}
		if i > 0 && len(s.X) == 0 {
			continue
		}
		d.Scatter = append(d.Scatter, s)
	}
	return d
}

func sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return sum(xs) / float64(len(xs))
}
