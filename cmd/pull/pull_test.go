package pull

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"testing"

	. "hjta/cmd"
	. "hjta/common"
	"hjta/jobtable"
	"hjta/scheduler"
)

func parse(t *testing.T, args ...string) (*PullCommand, error) {
	t.Helper()
	pc := new(PullCommand)
	fs := NewCLI("pull", pc, "hjta", io.Discard)
	return pc, ParseArgs("pull", args, pc, fs)
}

func TestValidate(t *testing.T) {
	pc, err := parse(t, "--output", "x.csv", "12", "13:submit")
	if err != nil {
		t.Fatal(err)
	}
	if pc.Source != "condor" || len(pc.batches) != 2 || pc.batches[1].Schedd != "submit" {
		t.Fatalf("Bad command %v", pc)
	}

	for _, args := range [][]string{
		{"12"},
		{"-o", "x.csv"},
		{"-o", "x.csv", "12x"},
		{"-o", "x.csv", "-source", "pbs", "12"},
		{"-o", "x.csv", "-source", "kafka", "12"},
		{"-o", "x.csv", "-source", "sonar", "12"},
		{"-o", "x.csv", "-timeout", "soon", "12"},
	} {
		if _, err := parse(t, args...); !errors.Is(err, ErrUsage) {
			t.Fatalf("%v: expected usage error, got %v", args, err)
		}
	}
}

func TestDefaults(t *testing.T) {
	err := ParseDefaults(strings.NewReader(`
[pull]
source=slurm
sacct=/opt/slurm/bin/sacct
timeout=30s
`))
	if err != nil {
		t.Fatal(err)
	}
	defer ClearDefaults()

	pc, err := parse(t, "-o", "x.csv", "-sacct", "/usr/bin/sacct", "1")
	if err != nil {
		t.Fatal(err)
	}
	if pc.Source != "slurm" || pc.Sacct != "/usr/bin/sacct" || pc.timeout.Seconds() != 30 {
		t.Fatalf("Bad defaulting %v", pc)
	}
}

type fakeSource struct {
	scheduler.Unqualified
}

func (fakeSource) Name() string { return "fake" }
func (fakeSource) Close() error { return nil }

func (fakeSource) Query(_ context.Context, b scheduler.BatchID) ([]*jobtable.JobRecord, error) {
	return []*jobtable.JobRecord{{Batch: b.Key()}, {Batch: b.Key(), Index: 1}}, nil
}

func TestPull(t *testing.T) {
	output := path.Join(t.TempDir(), "jobs.csv")
	pc, err := parse(t, "-o", output, "5", "6")
	if err != nil {
		t.Fatal(err)
	}
	if err := pc.pull(context.Background(), fakeSource{}); err != nil {
		t.Fatal(err)
	}
	records, err := jobtable.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 || records[2].Batch != "6" {
		t.Fatalf("Bad table %v", records)
	}
}
