// The job table is the interface between `hjta pull` and `hjta plot`: one JobRecord per job, with
// the timestamps of its life cycle, stored as CSV with a header row.
//
// Every field except Batch and Index may be absent.  Absent values are represented explicitly in
// memory (Valid == false) and as empty cells on disk, never as zero.

package jobtable

import (
	"cmp"
	"slices"
	"strconv"
)

// A point in time as Unix epoch seconds, or absent.

type Time struct {
	Unix  int64
	Valid bool
}

func At(unix int64) Time {
	return Time{Unix: unix, Valid: true}
}

// t - u in seconds, if both are present.

func (t Time) Sub(u Time) (float64, bool) {
	if !t.Valid || !u.Valid {
		return 0, false
	}
	return float64(t.Unix - u.Unix), true
}

type Int struct {
	Value int64
	Valid bool
}

func SomeInt(v int64) Int {
	return Int{Value: v, Valid: true}
}

type Float struct {
	Value float64
	Valid bool
}

func SomeFloat(v float64) Float {
	return Float{Value: v, Valid: true}
}

type JobRecord struct {
	// Scheduler-assigned batch identifier: HTCondor ClusterId, Slurm job ID or array job ID.
	Batch string

	// Position within the batch: HTCondor ProcId, Slurm array task ID.
	Index uint64

	// The schedd the batch was pulled from, "" for the default.
	Schedd string

	Submit            Time
	TransferQueued    Time
	TransferStart     Time
	ExecuteStart      Time
	TransferOutQueued Time
	TransferOutStart  Time
	Complete          Time
	JobStart          Time

	ExitCode    Int
	InputSizeMB Float
	BytesSent   Float
}

// Check the life cycle ordering Submit <= TransferStart <= ExecuteStart <= Complete among the
// timestamps that are present.

func (r *JobRecord) WellOrdered() bool {
	prev := Time{}
	for _, t := range []Time{r.Submit, r.TransferStart, r.ExecuteStart, r.Complete} {
		if !t.Valid {
			continue
		}
		if prev.Valid && t.Unix < prev.Unix {
			return false
		}
		prev = t
	}
	return true
}

// Batches that are numbers sort numerically, the rest after them lexicographically.

func CompareBatch(a, b string) int {
	an, aerr := strconv.ParseUint(a, 10, 64)
	bn, berr := strconv.ParseUint(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		return cmp.Compare(an, bn)
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}

// Sort in place by (Batch, Index, Schedd).  The sort is stable.

func SortByBatchIndex(records []*JobRecord) {
	slices.SortStableFunc(records, func(a, b *JobRecord) int {
		if c := CompareBatch(a.Batch, b.Batch); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Index, b.Index); c != 0 {
			return c
		}
		return cmp.Compare(a.Schedd, b.Schedd)
	})
}
