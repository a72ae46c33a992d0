package plots

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"gonum.org/v1/plot"

	"hjta/jobtable"
)

// Five jobs, two of which never started executing.

func testRecords() []*jobtable.JobRecord {
	records := make([]*jobtable.JobRecord, 0)
	for i := range 5 {
		base := int64(1700000000 + 100*i)
		r := &jobtable.JobRecord{
			Batch:          "42",
			Index:          uint64(4 - i),
			Submit:         jobtable.At(base),
			TransferQueued: jobtable.At(base + 1),
			TransferStart:  jobtable.At(base + 5),
		}
		if i%2 == 0 {
			r.ExecuteStart = jobtable.At(base + 15)
			r.Complete = jobtable.At(base + 115)
		}
		records = append(records, r)
	}
	return records
}

func TestExpand(t *testing.T) {
	ps, err := Expand([]string{"all"})
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != len(Names()) || len(ps) != 3 {
		t.Fatalf("all gave %d plots", len(ps))
	}

	ps, err = Expand([]string{"transfer_hist", "execute_vs_transfer", "transfer_vs_execute", "all"})
	if err != nil {
		t.Fatal(err)
	}
	if len(ps) != 3 || ps[0].Name != "transfer_hist" || ps[1].Name != "transfer_vs_execute" {
		t.Fatalf("Bad expansion %v", ps)
	}

	_, err = Expand([]string{"transfer_hist", "nonsense"})
	if !errors.Is(err, ErrUnknownPlot) || !strings.Contains(err.Error(), "nonsense") {
		t.Fatalf("Unknown plot accepted: %v", err)
	}
	if _, err = Expand(nil); err == nil {
		t.Fatalf("Empty request accepted")
	}
}

func TestLookupAlias(t *testing.T) {
	p, found := Lookup("transfer_by_index")
	if !found || p.Name != "transfer_vs_jobindex" {
		t.Fatalf("Alias not resolved")
	}
	if slices.Contains(Names(), "transfer_by_index") {
		t.Fatalf("Alias listed as a plot")
	}
}

func TestTransferHistFilters(t *testing.T) {
	d := TransferHist(testRecords())
	if d.Hist[0].Label != jobtable.TransferTime.Name || len(d.Hist[0].Values) != 3 {
		t.Fatalf("Bad transfer series %v", d.Hist[0])
	}
	for _, v := range d.Hist[0].Values {
		if v != 10 {
			t.Fatalf("Bad transfer time %v", v)
		}
	}
	// In-queue time is known for all five, nothing is known about output transfer
	if len(d.Hist) != 2 || len(d.Hist[1].Values) != 5 {
		t.Fatalf("Bad optional series %v", d.Hist)
	}
}

func TestTransferVsExecute(t *testing.T) {
	d := TransferVsExecute(testRecords())
	if len(d.Scatter[0].X) != 3 {
		t.Fatalf("Expected 3 points, got %d", len(d.Scatter[0].X))
	}
	if len(d.Lines) != 2 || d.Lines[0].Slope != 0.1 || math.Abs(d.Lines[1].Slope-0.1) > 1e-9 {
		t.Fatalf("Bad ratio lines %v", d.Lines)
	}
	if !slices.Contains(d.Notes, "Num Jobs: 5") || !slices.Contains(d.Notes, "Total Execute: 300 s") {
		t.Fatalf("Bad summary %v", d.Notes)
	}
}

func TestTransferVsJobIndex(t *testing.T) {
	d := TransferVsJobIndex(testRecords())
	s := d.Scatter[0]
	// After sorting by index the executing jobs (indices 4, 2, 0) are at ordinals 0, 2, 4
	if !slices.Equal(s.X, []float64{0, 2, 4}) {
		t.Fatalf("Bad ordinals %v", s.X)
	}
}

func TestRenderEmpty(t *testing.T) {
	for _, pl := range Registry() {
		p, err := pl.Render(nil)
		if err != nil {
			t.Fatalf("%s: %v", pl.Name, err)
		}
		var buf bytes.Buffer
		if err := WriteTo(&buf, p, "svg", Size{10, 8}); err != nil {
			t.Fatalf("%s: %v", pl.Name, err)
		}
		if !strings.Contains(buf.String(), "<svg") {
			t.Fatalf("%s: not svg", pl.Name)
		}
	}
}

func TestBinValues(t *testing.T) {
	bins := binValues([]float64{-5, 0, 1, 1.5, 2, 10}, []float64{0, 1, 2, 3})
	for i, want := range []float64{2, 2, 2} {
		if bins[i].Weight != want {
			t.Fatalf("Bin %d: %v", i, bins[i])
		}
	}
}

func TestLogEdges(t *testing.T) {
	edges := logEdges([]Values{{Values: []float64{0, 5}}})
	if len(edges) != histBins+1 || edges[0] != underflowMin || edges[1] != 1 || edges[len(edges)-1] != 1e6 {
		t.Fatalf("Bad edges %v", edges)
	}
	if !slices.IsSorted(edges) {
		t.Fatalf("Unsorted edges")
	}
	edges = logEdges([]Values{{Values: []float64{3}}, {Values: []float64{2e7}}})
	if edges[len(edges)-1] != 1e8 {
		t.Fatalf("Edges do not cover the largest value: %v", edges[len(edges)-1])
	}
}

func TestRenderLogHistogram(t *testing.T) {
	pl, _ := Lookup("transfer_hist")
	f, err := pl.Render(testRecords())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := f.Main.X.Scale.(plot.LogScale); !ok || f.Main.X.Min != underflowMin {
		t.Fatalf("X axis not log scaled")
	}
	if _, ok := f.Main.Y.Scale.(plot.LogScale); !ok || f.Main.Y.Min <= 0 {
		t.Fatalf("Y axis not log scaled")
	}
	if f.Top != nil || f.Right != nil {
		t.Fatalf("Histogram has marginals")
	}
	var buf bytes.Buffer
	if err := WriteTo(&buf, f, "svg", Size{10, 8}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<svg") {
		t.Fatalf("Not svg")
	}
}

func TestRenderMarginals(t *testing.T) {
	pl, _ := Lookup("transfer_vs_execute")
	f, err := pl.Render(testRecords())
	if err != nil {
		t.Fatal(err)
	}
	if f.Top == nil || f.Right == nil {
		t.Fatalf("No marginals")
	}
	// All execute times are 100s and all transfer times 10s, so the ranges are widened
	if f.Main.X.Min != 99 || f.Main.X.Max != 101 || f.Main.Y.Min != 9 || f.Main.Y.Max != 11 {
		t.Fatalf("Bad main ranges %v %v", f.Main.X, f.Main.Y)
	}
	if f.Top.X.Min != f.Main.X.Min || f.Top.X.Max != f.Main.X.Max ||
		f.Right.Y.Min != f.Main.Y.Min || f.Right.Y.Max != f.Main.Y.Max {
		t.Fatalf("Marginal ranges differ from the scatter")
	}
	if _, ok := f.Top.Y.Scale.(plot.LogScale); !ok {
		t.Fatalf("Top counts not log scaled")
	}
	if _, ok := f.Right.X.Scale.(plot.LogScale); !ok {
		t.Fatalf("Right counts not log scaled")
	}
	if f.Top.Title.Text == "" || f.Main.Title.Text != "" {
		t.Fatalf("Title should be above the top marginal")
	}
	var buf bytes.Buffer
	if err := WriteTo(&buf, f, "pdf", Size{20, 16}); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("Not pdf")
	}
}

func TestMakeAll(t *testing.T) {
	ps, err := Expand([]string{"all"})
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	files, err := Make(ps, testRecords(), Options{OutDir: dir, Format: "png", Size: Size{12, 9}})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != len(Names()) {
		t.Fatalf("Expected %d files, got %d", len(Names()), len(files))
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(files) {
		t.Fatalf("Stray files in output directory: %v", entries)
	}
	for _, name := range Names() {
		if _, err := os.Stat(filepath.Join(dir, name+".png")); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCheckFormat(t *testing.T) {
	if CheckFormat("pdf") != nil || CheckFormat("gif") == nil {
		t.Fatalf("Bad format check")
	}
}
