// Sonar source: job timing is read from Sonar "jobs" data, the JSON envelopes that Sonar's Slurm
// collector emits.  The envelopes come from files here and from Kafka in the sibling package, they
// are merged into a JobSet in either case.
//
// Every envelope carries a snapshot of some jobs at the envelope's time.  A job is usually observed
// many times, as it goes from pending through running to completed, and the latest observation
// wins.  Only main jobs are considered, steps are ignored.  The batch/index mapping is as for the
// slurm source: array jobs are batches of their tasks, heterogeneous jobs are batches of their
// components, and other jobs are batches of one.

package sonar

import (
	"time"

	"github.com/NordicHPC/sonar/util/formats/newfmt"

	. "hjta/common"
	"hjta/jobtable"
)

type jobKey struct {
	batch uint64
	index uint64
}

// The parts of a Sonar job that we care about.

type observation struct {
	observed   int64
	jobID      uint64
	arrayJobID uint64
	arrayTask  uint64
	hetJobID   uint64
	hetOffset  uint64
	step       string
	submit     string
	start      string
	end        string
	exitCode   int64
}

type JobSet struct {
	jobs map[jobKey]*observation

	// Envelopes that were error objects, had no data, or had an unparseable time
	SoftErrors int
}

func NewJobSet() *JobSet {
	return &JobSet{jobs: make(map[jobKey]*observation)}
}

func (js *JobSet) Len() int {
	return len(js.jobs)
}

func (js *JobSet) AddEnvelope(r *newfmt.JobsEnvelope) {
	if r.Errors != nil || r.Data == nil {
		js.SoftErrors++
		return
	}
	t, err := time.Parse(time.RFC3339, string(r.Data.Attributes.Time))
	if err != nil {
		Log.Warningf("Dropping jobs envelope with bad time %q", r.Data.Attributes.Time)
		js.SoftErrors++
		return
	}
	observed := t.Unix()
	for i := range r.Data.Attributes.SlurmJobs {
		job := &r.Data.Attributes.SlurmJobs[i]
		js.add(&observation{
			observed:   observed,
			jobID:      uint64(job.JobID),
			arrayJobID: uint64(job.ArrayJobID),
			arrayTask:  uint64(job.ArrayTaskID),
			hetJobID:   uint64(job.HetJobID),
			hetOffset:  uint64(job.HetJobOffset),
			step:       string(job.JobStep),
			submit:     string(job.SubmitTime),
			start:      string(job.Start),
			end:        string(job.End),
			exitCode:   int64(job.ExitCode),
		})
	}
}

func (js *JobSet) add(o *observation) {
	if o.step != "" {
		return
	}
	var k jobKey
	switch {
	case o.arrayJobID != 0:
		k = jobKey{o.arrayJobID, o.arrayTask}
	case o.hetJobID != 0:
		k = jobKey{o.hetJobID, o.hetOffset}
	default:
		k = jobKey{o.jobID, 0}
	}
	if prev, found := js.jobs[k]; found && prev.observed > o.observed {
		return
	}
	js.jobs[k] = o
}

// The jobs of the batch, in no particular order.

func (js *JobSet) Batch(batch string, id uint64) []*jobtable.JobRecord {
	records := make([]*jobtable.JobRecord, 0)
	for k, o := range js.jobs {
		if k.batch != id {
			continue
		}
		r := &jobtable.JobRecord{
			Batch:        batch,
			Index:        k.index,
			Submit:       parseTime(o.submit),
			ExecuteStart: parseTime(o.start),
			JobStart:     parseTime(o.start),
			Complete:     parseTime(o.end),
		}
		// The exit code is only meaningful once the job has ended.
		if r.Complete.Valid {
			r.ExitCode = jobtable.SomeInt(o.exitCode)
		}
		records = append(records, r)
	}
	return records
}

func parseTime(s string) jobtable.Time {
	if s == "" {
		return jobtable.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil || t.Unix() <= 0 {
		return jobtable.Time{}
	}
	return jobtable.At(t.Unix())
}
