package tsdb

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"hjta/jobtable"
	"hjta/scheduler"
)

func ts(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func intp(n int) *int {
	return &n
}

func TestArrayTaskRow(t *testing.T) {
	submit := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	row := jobRow{
		jobID:       pgtype.Int8{Int64: 1003, Valid: true},
		arrayJobID:  pgtype.Int8{Int64: 1000, Valid: true},
		arrayTaskID: intp(3),
		submitTime:  ts(submit),
		startTime:   ts(submit.Add(time.Minute)),
		endTime:     ts(submit.Add(time.Hour)),
		exitCode:    intp(0),
	}
	r := row.toRecord(scheduler.BatchID{ID: 1000})
	if r.Batch != "1000" || r.Index != 3 {
		t.Fatalf("Bad identity %v", r)
	}
	if r.Submit != jobtable.At(submit.Unix()) ||
		r.ExecuteStart != jobtable.At(submit.Unix()+60) ||
		r.Complete != jobtable.At(submit.Unix()+3600) ||
		r.ExitCode != jobtable.SomeInt(0) ||
		r.TransferStart.Valid {
		t.Fatalf("Bad record %v", r)
	}
}

func TestRunningRow(t *testing.T) {
	row := jobRow{
		jobID:      pgtype.Int8{Int64: 7, Valid: true},
		submitTime: ts(time.Unix(1700000000, 0)),
		startTime:  ts(time.Unix(1700000100, 0)),
		endTime:    pgtype.Timestamptz{Valid: true, InfinityModifier: pgtype.Infinity},
		exitCode:   intp(0),
	}
	r := row.toRecord(scheduler.BatchID{ID: 7})
	if r.Index != 0 || r.Complete.Valid || r.ExitCode.Valid || !r.ExecuteStart.Valid {
		t.Fatalf("Bad running job %v", r)
	}
}

func TestTaskBelongsToArrayOnly(t *testing.T) {
	task := jobRow{
		jobID:       pgtype.Int8{Int64: 101, Valid: true},
		arrayJobID:  pgtype.Int8{Int64: 100, Valid: true},
		arrayTaskID: intp(1),
	}
	if !task.inBatch(100) || task.inBatch(101) {
		t.Fatalf("Array task filed under wrong batch")
	}
	component := jobRow{
		jobID:        pgtype.Int8{Int64: 201, Valid: true},
		hetJobID:     pgtype.Int8{Int64: 200, Valid: true},
		hetJobOffset: intp(1),
	}
	if !component.inBatch(200) || component.inBatch(201) {
		t.Fatalf("Het component filed under wrong batch")
	}
	plain := jobRow{
		jobID:      pgtype.Int8{Int64: 300, Valid: true},
		arrayJobID: pgtype.Int8{Int64: 0, Valid: true},
	}
	if !plain.inBatch(300) {
		t.Fatalf("Plain job not in its own batch")
	}
}
