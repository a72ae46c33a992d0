package sonar

import (
	"context"
	"fmt"
	"os"

	"github.com/NordicHPC/sonar/util/formats/newfmt"

	. "hjta/common"
	"hjta/jobtable"
	"hjta/scheduler"
)

type Source struct {
	scheduler.Unqualified
	files   []string
	verbose bool
	jobs    *JobSet // nil until loaded
}

var _ = scheduler.Source((*Source)(nil))

func New(files []string, verbose bool) *Source {
	return &Source{files: files, verbose: verbose}
}

func (s *Source) Name() string {
	return "sonar"
}

func (s *Source) Close() error {
	return nil
}

func (s *Source) Query(_ context.Context, batch scheduler.BatchID) ([]*jobtable.JobRecord, error) {
	if s.jobs == nil {
		jobs := NewJobSet()
		for _, fn := range s.files {
			if err := LoadFile(jobs, fn); err != nil {
				return nil, err
			}
		}
		if s.verbose {
			Log.Infof("Loaded %d jobs from %d files", jobs.Len(), len(s.files))
		}
		if jobs.SoftErrors > 0 {
			Log.Warningf("%d error envelopes ignored", jobs.SoftErrors)
		}
		s.jobs = jobs
	}
	return s.jobs.Batch(batch.Key(), batch.ID), nil
}

// The file holds a stream of JSON jobs envelopes.

func LoadFile(jobs *JobSet, filename string) error {
	input, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer input.Close()
	err = newfmt.ConsumeJSONJobs(input, false, func(r *newfmt.JobsEnvelope) {
		jobs.AddEnvelope(r)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	return nil
}
