package plots

import (
	. "hjta/common"
	"hjta/jobtable"
)

type Options struct {
	OutDir string
	Format string
	Size   Size
}

// Render every plot to a file in opts.OutDir.  Returns the names of the files written.

func Make(ps []*Plot, records []*jobtable.JobRecord, opts Options) ([]string, error) {
	files := make([]string, 0, len(ps))
	for _, pl := range ps {
		fn, err := pl.Make(records, opts)
		if err != nil {
			return files, err
		}
		files = append(files, fn)
	}
	return files, nil
}

func (pl *Plot) Make(records []*jobtable.JobRecord, opts Options) (string, error) {
	p, err := pl.Render(records)
	if err != nil {
		return "", err
	}
	return Save(p, opts.OutDir, pl.Name, opts.Format, opts.Size)
}

func (pl *Plot) Render(records []*jobtable.JobRecord) (*Figure, error) {
	d := pl.Data(records)
	if d.Points() == 0 {
		Log.Warningf("%s: No jobs with the necessary data, the plot is empty", pl.Name)
	}
	return Render(d)
}
