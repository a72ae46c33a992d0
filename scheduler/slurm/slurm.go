// Slurm source: job timing is read from the accounting database with `sacct`.
//
// A batch is a Slurm job ID.  For an array job that is the array job ID, and each array task
// becomes a job with the task ID as its index; for a heterogeneous job each component becomes a job
// with the component offset as its index; a plain job is a batch of one job with index 0.  Job
// steps and not-yet-expanded pending array ranges are not jobs.
//
// Slurm has no notion of input transfer so TransferStart and the other transfer timestamps are
// always absent.  Submit, Start and End map to Submit, ExecuteStart (and JobStart) and Complete.

package slurm

import (
	"bufio"
	"context"
	"strconv"
	"strings"
	"time"

	. "hjta/common"
	"hjta/jobtable"
	"hjta/scheduler"
	"hjta/util/process"
)

const (
	DefaultSacctPath = "sacct"

	// Slurm's date format is localtime without a time zone offset.
	sacctDateFormat = "2006-01-02T15:04:05"
)

// JobID should come first, the code below depends on it.
var fieldNames = []string{
	"JobID",
	"Submit",
	"Start",
	"End",
	"ExitCode",
	"State",
}

type Config struct {
	SacctPath string

	// Passed as `sacct -S`, if not "".  Depending on the Slurm version and configuration, sacct may
	// only look at recent jobs without it.
	StartTime string

	// Time zone of sacct's dates, time.Local if nil
	Location *time.Location

	// If nil, process.RunSubprocess
	Run process.Runner

	Verbose bool
}

type Source struct {
	scheduler.Unqualified
	cfg Config
}

var _ = scheduler.Source((*Source)(nil))

func New(cfg Config) *Source {
	if cfg.SacctPath == "" {
		cfg.SacctPath = DefaultSacctPath
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Run == nil {
		cfg.Run = process.RunSubprocess
	}
	return &Source{cfg: cfg}
}

func (s *Source) Name() string {
	return "slurm"
}

func (s *Source) Close() error {
	return nil
}

func (s *Source) Query(ctx context.Context, batch scheduler.BatchID) ([]*jobtable.JobRecord, error) {
	args := []string{
		"-aPX",
		"--noheader",
		"-o", strings.Join(fieldNames, ","),
		"-j", batch.Key(),
	}
	if s.cfg.StartTime != "" {
		args = append(args, "-S", s.cfg.StartTime)
	}
	if s.cfg.Verbose {
		Log.Infof("Running %s %s", s.cfg.SacctPath, strings.Join(args, " "))
	}
	stdout, _, err := s.cfg.Run(ctx, s.cfg.SacctPath, args)
	if err != nil {
		return nil, err
	}
	return s.parseSacct(stdout, batch), nil
}

func (s *Source) parseSacct(output string, batch scheduler.BatchID) []*jobtable.JobRecord {
	records := make([]*jobtable.JobRecord, 0)
	scan := bufio.NewScanner(strings.NewReader(output))
	for scan.Scan() {
		line := scan.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < len(fieldNames) {
			Log.Warningf("Dropping short sacct line: %s", line)
			continue
		}
		id, index, ok := splitJobID(fields[0])
		if !ok {
			if s.cfg.Verbose {
				Log.Infof("Skipping sacct record %s", fields[0])
			}
			continue
		}
		if id != batch.Key() {
			if s.cfg.Verbose {
				Log.Infof("Skipping sacct record %s, not in batch %s", fields[0], batch)
			}
			continue
		}
		r := &jobtable.JobRecord{
			Batch:        batch.Key(),
			Index:        index,
			Submit:       s.parseTime(fields[1]),
			ExecuteStart: s.parseTime(fields[2]),
			JobStart:     s.parseTime(fields[2]),
			Complete:     s.parseTime(fields[3]),
		}
		code, _, _ := strings.Cut(fields[4], ":")
		if n, err := strconv.ParseInt(code, 10, 64); err == nil {
			r.ExitCode = jobtable.SomeInt(n)
		}
		records = append(records, r)
	}
	return records
}

// Split "id", "id_task" or "id+offset" into the id and index.  Steps ("id.batch") and pending array
// ranges ("id_[1-10%2]") are rejected.

func splitJobID(s string) (id string, index uint64, ok bool) {
	if strings.ContainsRune(s, '.') {
		return
	}
	id, sub, found := strings.Cut(s, "_")
	if !found {
		id, sub, found = strings.Cut(s, "+")
	}
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return
	}
	if found {
		var err error
		index, err = strconv.ParseUint(sub, 10, 64)
		if err != nil {
			return
		}
	}
	ok = true
	return
}

func (s *Source) parseTime(val string) jobtable.Time {
	switch val {
	case "", "Unknown", "None":
		return jobtable.Time{}
	}
	t, err := time.ParseInLocation(sacctDateFormat, val, s.cfg.Location)
	if err != nil {
		Log.Warningf("Unparseable sacct time %s", val)
		return jobtable.Time{}
	}
	return jobtable.At(t.Unix())
}
