package plot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	. "hjta/cmd"
	. "hjta/common"
	"hjta/jobtable"
	"hjta/plots"
	"hjta/util/options"
)

type PlotCommand struct {
	DevArgs
	VerboseArgs
	InputArgs

	OutDir string
	Format string
	Width  string
	Height string
	List   bool

	// Computed
	PlotNames []string
	plots     []*plots.Plot
	size      plots.Size
}

var _ = Command((*PlotCommand)(nil))
var _ = SetRestArgumentsAPI((*PlotCommand)(nil))

func (pc *PlotCommand) Summary(out io.Writer) {
	fmt.Fprint(out, `Render plots from a job table written by pull, one file per plot.  "all" selects
   every plot, -list shows them.`)
}

func (pc *PlotCommand) Add(fs *CLI) {
	pc.DevArgs.Add(fs)
	pc.VerboseArgs.Add(fs)
	pc.InputArgs.Add(fs)

	fs.Group("operation-selection")
	fs.BoolVar(&pc.List, "list", false, "List the available plots and exit")

	fs.Group("plot-output")
	fs.StringVar(&pc.OutDir, "out-dir", "",
		"Write plots to existing `directory` [default: current directory]")
	fs.StringVar(&pc.Format, "format", "",
		fmt.Sprintf("Plot file `format`, one of %v [default: %s]", plots.Formats, plots.DefaultFormat))
	fs.StringVar(&pc.Width, "width", "",
		fmt.Sprintf("Plot width in `cm` [default: %g]", plots.DefaultWidth))
	fs.StringVar(&pc.Height, "height", "",
		fmt.Sprintf("Plot height in `cm` [default: %g]", plots.DefaultHeight))
}

func (pc *PlotCommand) SetRestArguments(args []string) {
	pc.PlotNames = args
}

func (pc *PlotCommand) RestArgumentsHelp() string {
	return "plot-name ..."
}

func (pc *PlotCommand) Validate() error {
	var errs []error
	errs = append(errs, pc.DevArgs.Validate(), pc.VerboseArgs.Validate())
	if pc.List {
		return errors.Join(errs...)
	}

	// Plot names are checked first, before anything looks at files.
	var err error
	pc.plots, err = plots.Expand(pc.PlotNames)
	errs = append(errs, err)

	errs = append(errs, pc.InputArgs.Validate())

	StringDefault(&pc.OutDir, PlotOutDir, ".")
	pc.OutDir, err = options.RequireDirectory(pc.OutDir, "-out-dir")
	errs = append(errs, err)

	StringDefault(&pc.Format, PlotFormat, plots.DefaultFormat)
	errs = append(errs, plots.CheckFormat(pc.Format))

	StringDefault(&pc.Width, PlotWidth, strconv.FormatFloat(plots.DefaultWidth, 'g', -1, 64))
	StringDefault(&pc.Height, PlotHeight, strconv.FormatFloat(plots.DefaultHeight, 'g', -1, 64))
	pc.size.Width, errs = ParsePositiveFloat(errs, pc.Width, "-width")
	pc.size.Height, errs = ParsePositiveFloat(errs, pc.Height, "-height")

	return errors.Join(errs...)
}

func (pc *PlotCommand) Perform(_ context.Context, _ io.Reader, stdout, _ io.Writer) error {
	if pc.List {
		for _, p := range plots.Registry() {
			fmt.Fprintf(stdout, "%-22s %-10s %s\n", p.Name, p.Kind, p.Description)
			for _, a := range p.Aliases {
				fmt.Fprintf(stdout, "%-22s alias for %s\n", a, p.Name)
			}
		}
		return nil
	}

	records, err := jobtable.ReadFile(pc.Input)
	if err != nil {
		return err
	}
	if pc.Verbose {
		bad := 0
		for _, r := range records {
			if !r.WellOrdered() {
				bad++
			}
		}
		Log.Infof("%s: %d jobs, %d with out-of-order timestamps", pc.Input, len(records), bad)
	}

	files, err := plots.Make(pc.plots, records, plots.Options{
		OutDir: pc.OutDir,
		Format: pc.Format,
		Size:   pc.size,
	})
	if pc.Verbose {
		for _, fn := range files {
			Log.Infof("Wrote %s", fn)
		}
	}
	return err
}
