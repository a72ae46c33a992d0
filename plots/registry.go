// The plot registry.  Every plot has a canonical name, possibly some aliases, a chart kind and a
// function that derives its data set from the job table.  Rendering is common to all plots.

package plots

import (
	"errors"
	"fmt"
	"slices"

	"hjta/jobtable"
)

type Kind string

const (
	KindScatter   Kind = "scatter"
	KindHistogram Kind = "histogram"
)

// Expands to every canonical plot name.
const AllPlots = "all"

var ErrUnknownPlot = errors.New("Unknown plot")

type Plot struct {
	Name        string
	Aliases     []string
	Kind        Kind
	Description string
	Data        func(records []*jobtable.JobRecord) *Dataset
}

var registry = []*Plot{
	{
		Name:        "transfer_vs_execute",
		Aliases:     []string{"execute_vs_transfer"},
		Kind:        KindScatter,
		Description: "Transfer time against execution time, with worst and mean transfer ratio",
		Data:        TransferVsExecute,
	},
	{
		Name:        "transfer_hist",
		Kind:        KindHistogram,
		Description: "Histogram of transfer time, and of transfer queue and output times where known",
		Data:        TransferHist,
	},
	{
		Name:        "transfer_vs_jobindex",
		Aliases:     []string{"transfer_by_index"},
		Kind:        KindScatter,
		Description: "Transfer and transfer queue times against job ordinal, by batch and index",
		Data:        TransferVsJobIndex,
	},
}

func Registry() []*Plot {
	return registry
}

// The canonical names, in registry order.

func Names() []string {
	names := make([]string, 0, len(registry))
	for _, p := range registry {
		names = append(names, p.Name)
	}
	return names
}

func Lookup(name string) (*Plot, bool) {
	for _, p := range registry {
		if p.Name == name || slices.Contains(p.Aliases, name) {
			return p, true
		}
	}
	return nil, false
}

// Resolve requested names to plots, expanding AllPlots and collapsing duplicates, in order of first
// request.  Every unknown name is reported.

func Expand(names []string) ([]*Plot, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no plot names", ErrUnknownPlot)
	}
	result := make([]*Plot, 0, len(registry))
	var errs []error
	add := func(p *Plot) {
		if !slices.Contains(result, p) {
			result = append(result, p)
		}
	}
	for _, name := range names {
		if name == AllPlots {
			for _, p := range registry {
				add(p)
			}
			continue
		}
		p, found := Lookup(name)
		if !found {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownPlot, name))
			continue
		}
		add(p)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return result, nil
}
