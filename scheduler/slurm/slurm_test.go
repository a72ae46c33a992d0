package slurm

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"hjta/jobtable"
	"hjta/scheduler"
)

const sacctOutput = `756717_0|2024-08-05T09:01:07|2024-08-05T09:01:08|2024-08-05T09:01:39|0:0|COMPLETED
756717_1|2024-08-05T09:01:07|2024-08-05T09:02:00|2024-08-05T09:05:00|1:0|FAILED
756717_0.batch|2024-08-05T09:01:08|2024-08-05T09:01:08|2024-08-05T09:01:39|0:0|COMPLETED
756717_[2-9%2]|2024-08-05T09:01:07|Unknown|Unknown|0:0|PENDING
756717_10|2024-08-05T09:01:07|None|Unknown|0:0|CANCELLED by 1234
short|line
`

func runner(output string, calls *[][]string) func(context.Context, string, []string) (string, string, error) {
	return func(_ context.Context, program string, args []string) (string, string, error) {
		*calls = append(*calls, append([]string{program}, args...))
		return output, "", nil
	}
}

func TestQuery(t *testing.T) {
	var calls [][]string
	src := New(Config{Run: runner(sacctOutput, &calls), Location: time.UTC, StartTime: "2024-08-01"})
	records, err := src.Query(context.Background(), scheduler.BatchID{ID: 756717})
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	r := records[0]
	submit := time.Date(2024, 8, 5, 9, 1, 7, 0, time.UTC).Unix()
	if r.Batch != "756717" || r.Index != 0 ||
		r.Submit != jobtable.At(submit) ||
		r.ExecuteStart != jobtable.At(submit+1) ||
		r.JobStart != r.ExecuteStart ||
		r.Complete != jobtable.At(submit+32) ||
		r.ExitCode != jobtable.SomeInt(0) ||
		r.TransferStart.Valid {
		t.Fatalf("Bad record %v", r)
	}
	if records[1].Index != 1 || records[1].ExitCode != jobtable.SomeInt(1) {
		t.Fatalf("Bad record %v", records[1])
	}
	if r := records[2]; r.Index != 10 || r.ExecuteStart.Valid || r.Complete.Valid || !r.Submit.Valid {
		t.Fatalf("Bad cancelled record %v", r)
	}

	call := calls[0]
	if ix := slices.Index(call, "-j"); ix == -1 || call[ix+1] != "756717" {
		t.Fatalf("Bad command %v", call)
	}
	if ix := slices.Index(call, "-S"); ix == -1 || call[ix+1] != "2024-08-01" {
		t.Fatalf("Bad command %v", call)
	}
}

func TestSplitJobID(t *testing.T) {
	for _, c := range []struct {
		in    string
		id    string
		index uint64
		ok    bool
	}{
		{"123", "123", 0, true},
		{"123_7", "123", 7, true},
		{"123+2", "123", 2, true},
		{"123.batch", "", 0, false},
		{"123_[1-3]", "", 0, false},
		{"abc", "", 0, false},
	} {
		id, index, ok := splitJobID(c.in)
		if ok != c.ok || (ok && (id != c.id || index != c.index)) {
			t.Fatalf("%s: got %s %d %v", c.in, id, index, ok)
		}
	}
}

func TestRejectsSchedd(t *testing.T) {
	src := New(Config{})
	_, err := src.Resolve(context.Background(), scheduler.BatchID{ID: 1, Schedd: "x"})
	if !errors.Is(err, scheduler.ErrBadBatch) {
		t.Fatalf("Schedd accepted by slurm source")
	}
}
