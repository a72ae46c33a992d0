// The Collector: pull the jobs of a list of batches from a scheduler source into a job table.

package collect

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "hjta/common"
	"hjta/jobtable"
	"hjta/scheduler"
)

type Options struct {
	// Per-query timeout, none if zero
	Timeout time.Duration
}

// Parse all the batch identifiers, collecting every error.

func ParseBatches(args []string) ([]scheduler.BatchID, error) {
	batches := make([]scheduler.BatchID, 0, len(args))
	var errs []error
	for _, a := range args {
		b, err := scheduler.ParseBatchID(a)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		batches = append(batches, b)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return batches, nil
}

// Resolve and query every batch in turn and return the jobs: batches in the order given, the jobs
// of each batch sorted by index.  Batches that are the same after resolution are queried once.  Any
// error aborts the collection.

func Collect(
	ctx context.Context,
	src scheduler.Source,
	batches []scheduler.BatchID,
	opts Options,
) ([]*jobtable.JobRecord, error) {
	resolved := make([]scheduler.BatchID, 0, len(batches))
	seen := make(map[scheduler.BatchID]bool)
	for _, b := range batches {
		r, err := src.Resolve(ctx, b)
		if err != nil {
			return nil, err
		}
		if seen[r] {
			Log.Warningf("Batch %s given more than once, ignoring the duplicate", b)
			continue
		}
		seen[r] = true
		resolved = append(resolved, r)
	}

	records := make([]*jobtable.JobRecord, 0)
	for _, b := range resolved {
		jobs, err := query(ctx, src, b, opts.Timeout)
		if err != nil {
			return nil, fmt.Errorf("%s: batch %s: %w", src.Name(), b, err)
		}
		if len(jobs) == 0 {
			Log.Warningf("Batch %s: no jobs", b)
		} else {
			Log.Infof("Batch %s: %d jobs", b, len(jobs))
		}
		jobtable.SortByBatchIndex(jobs)
		records = append(records, jobs...)
	}
	return records, nil
}

func query(
	ctx context.Context,
	src scheduler.Source,
	b scheduler.BatchID,
	timeout time.Duration,
) ([]*jobtable.JobRecord, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return src.Query(ctx, b)
}

// Collect and write the table to the output file, which is only touched if the collection
// succeeded.  Returns the number of jobs written.

func Pull(
	ctx context.Context,
	src scheduler.Source,
	batches []scheduler.BatchID,
	output string,
	opts Options,
) (int, error) {
	records, err := Collect(ctx, src, batches, opts)
	if err != nil {
		return 0, err
	}
	if err := jobtable.WriteFile(output, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
