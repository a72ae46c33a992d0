// HTCondor source: job timing is read from the schedd history with `condor_history`.
//
// HTCondor cleans up its old history periodically, so the pull should be done close enough in time
// to the job completion that the history has not been removed.
//
// A batch is an HTCondor cluster, identified by the cluster ID and the schedd it was submitted
// to.  The index of a job in the batch is its ProcId.  The timestamps are mapped as follows:
//
//   Submit            QDate
//   TransferQueued    TransferInQueued
//   TransferStart     TransferInStarted
//   ExecuteStart      TransferInFinished
//   TransferOutQueued TransferOutQueued
//   TransferOutStart  TransferOutStarted
//   Complete          TransferOutFinished, or CompletionDate if there was no output transfer
//   JobStart          JobStartDate
//
// HTCondor uses 0 for "never happened", that is mapped to absent.

package condor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	. "hjta/common"
	"hjta/jobtable"
	"hjta/scheduler"
	"hjta/util/process"
)

const (
	DefaultHistoryPath = "condor_history"
	DefaultStatusPath  = "condor_status"
)

var attributes = []string{
	"ClusterId",
	"ProcId",
	"ExitCode",
	"QDate",
	"TransferInputSizeMB",
	"JobStartDate",
	"TransferInQueued",
	"TransferInStarted",
	"TransferInFinished",
	"TransferOutQueued",
	"TransferOutStarted",
	"TransferOutFinished",
	"CompletionDate",
	"BytesSent",
}

type Config struct {
	HistoryPath string

	StatusPath string

	// Schedd to use for unqualified batch IDs, "" for the local schedd.
	DefaultSchedd string

	// If nil, process.RunSubprocess
	Run process.Runner

	Verbose bool
}

type Source struct {
	cfg     Config
	schedds []schedd // nil until needed
}

var _ = scheduler.Source((*Source)(nil))

func New(cfg Config) *Source {
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = DefaultHistoryPath
	}
	if cfg.StatusPath == "" {
		cfg.StatusPath = DefaultStatusPath
	}
	if cfg.Run == nil {
		cfg.Run = process.RunSubprocess
	}
	return &Source{cfg: cfg}
}

func (s *Source) Name() string {
	return "condor"
}

func (s *Source) Close() error {
	return nil
}

func (s *Source) Query(ctx context.Context, batch scheduler.BatchID) ([]*jobtable.JobRecord, error) {
	args := []string{"-json", "-attributes", strings.Join(attributes, ",")}
	if batch.Schedd != "" {
		args = append(args, "-name", batch.Schedd)
	}
	args = append(args, batch.Key())
	if s.cfg.Verbose {
		Log.Infof("Running %s %s", s.cfg.HistoryPath, strings.Join(args, " "))
	}
	stdout, _, err := s.cfg.Run(ctx, s.cfg.HistoryPath, args)
	if err != nil {
		return nil, err
	}
	return parseHistory(strings.NewReader(stdout), batch)
}

// condor_history -json prints a JSON array of ads, or nothing at all if there are no matches.

func parseHistory(input io.Reader, batch scheduler.BatchID) ([]*jobtable.JobRecord, error) {
	dec := json.NewDecoder(input)
	dec.UseNumber()
	records := make([]*jobtable.JobRecord, 0)
	for {
		var ads []map[string]any
		err := dec.Decode(&ads)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Bad condor_history output: %w", err)
		}
		for _, ad := range ads {
			if cid, ok := intAttr(ad, "ClusterId"); ok && uint64(cid) != batch.ID {
				continue
			}
			records = append(records, adToRecord(ad, batch))
		}
	}
	return records, nil
}

func adToRecord(ad map[string]any, batch scheduler.BatchID) *jobtable.JobRecord {
	r := &jobtable.JobRecord{
		Batch:             batch.Key(),
		Schedd:            batch.Schedd,
		Submit:            timeAttr(ad, "QDate"),
		TransferQueued:    timeAttr(ad, "TransferInQueued"),
		TransferStart:     timeAttr(ad, "TransferInStarted"),
		ExecuteStart:      timeAttr(ad, "TransferInFinished"),
		TransferOutQueued: timeAttr(ad, "TransferOutQueued"),
		TransferOutStart:  timeAttr(ad, "TransferOutStarted"),
		Complete:          timeAttr(ad, "TransferOutFinished"),
		JobStart:          timeAttr(ad, "JobStartDate"),
	}
	if !r.Complete.Valid {
		r.Complete = timeAttr(ad, "CompletionDate")
	}
	if proc, ok := intAttr(ad, "ProcId"); ok && proc >= 0 {
		r.Index = uint64(proc)
	}
	if code, ok := intAttr(ad, "ExitCode"); ok {
		r.ExitCode = jobtable.SomeInt(code)
	}
	if size, ok := floatAttr(ad, "TransferInputSizeMB"); ok {
		r.InputSizeMB = jobtable.SomeFloat(size)
	}
	if sent, ok := floatAttr(ad, "BytesSent"); ok {
		r.BytesSent = jobtable.SomeFloat(sent)
	}
	return r
}

func intAttr(ad map[string]any, name string) (int64, bool) {
	if n, ok := ad[name].(json.Number); ok {
		if v, err := n.Int64(); err == nil {
			return v, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}

func floatAttr(ad map[string]any, name string) (float64, bool) {
	if n, ok := ad[name].(json.Number); ok {
		if v, err := n.Float64(); err == nil {
			return v, true
		}
	}
	return 0, false
}

func timeAttr(ad map[string]any, name string) jobtable.Time {
	if v, ok := intAttr(ad, name); ok && v > 0 {
		return jobtable.At(v)
	}
	return jobtable.Time{}
}
