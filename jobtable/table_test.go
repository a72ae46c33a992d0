package jobtable

import (
	"errors"
	"os"
	"path"
	"reflect"
	"strings"
	"testing"
)

func fullRecord() *JobRecord {
	return &JobRecord{
		Batch:             "4711",
		Index:             3,
		Schedd:            "submit01.example.org",
		Submit:            At(1700000000),
		TransferQueued:    At(1700000010),
		TransferStart:     At(1700000012),
		ExecuteStart:      At(1700000040),
		TransferOutQueued: At(1700000500),
		TransferOutStart:  At(1700000501),
		Complete:          At(1700000530),
		JobStart:          At(1700000011),
		ExitCode:          SomeInt(0),
		InputSizeMB:       SomeFloat(12.5),
		BytesSent:         SomeFloat(1.25e9),
	}
}

func TestRoundTrip(t *testing.T) {
	sparse := &JobRecord{
		Batch:  "4711",
		Index:  4,
		Submit: At(1700000001),
	}
	input := []*JobRecord{fullRecord(), sparse}
	var buf strings.Builder
	if err := Write(&buf, input); err != nil {
		t.Fatal(err)
	}
	output, err := Read(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(input, output) {
		t.Fatalf("Round trip failed:\n%v\n%v", input, output)
	}
}

func TestAbsentIsEmpty(t *testing.T) {
	var buf strings.Builder
	if err := Write(&buf, []*JobRecord{{Batch: "1", Index: 0}}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Bad line count %d", len(lines))
	}
	if lines[0] != strings.Join(Header(), ",") {
		t.Fatalf("Bad header %q", lines[0])
	}
	if lines[1] != "1,0"+strings.Repeat(",", len(Header())-2) {
		t.Fatalf("Bad row %q", lines[1])
	}
}

func TestReadByName(t *testing.T) {
	input := "Extra,Index,Complete,Batch\nzappa,2,1700000100,17\n"
	records, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("Bad length %d", len(records))
	}
	r := records[0]
	if r.Batch != "17" || r.Index != 2 || r.Complete != At(1700000100) || r.Submit.Valid {
		t.Fatalf("Bad record %v", r)
	}
}

func TestReadMalformed(t *testing.T) {
	for _, input := range []string{
		"",
		"Index,Submit\n1,2\n",
		"Batch,Index\n1,x\n",
		"Batch,Index\n,1\n",
		"Batch,Index,Submit\n1,2,yesterday\n",
		"Batch,Index\n1,2,3\n",
		"Batch,Index,Batch\n1,2,3\n",
	} {
		_, err := Read(strings.NewReader(input))
		if err == nil {
			t.Fatalf("Accepted %q", input)
		}
		if !errors.Is(err, ErrMalformed) {
			t.Fatalf("Not ErrMalformed for %q: %v", input, err)
		}
	}
}

func TestReadMalformedLine(t *testing.T) {
	_, err := Read(strings.NewReader("Batch,Index\n1,1\n1,2\n1,q\n"))
	if err == nil || !strings.Contains(err.Error(), "line 4") {
		t.Fatalf("Bad error %v", err)
	}
}

func TestWriteFile(t *testing.T) {
	fn := path.Join(t.TempDir(), "jobs.csv")
	if err := os.WriteFile(fn, []byte("old contents\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(fn, []*JobRecord{fullRecord()}); err != nil {
		t.Fatal(err)
	}
	records, err := ReadFile(fn)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || !reflect.DeepEqual(records[0], fullRecord()) {
		t.Fatalf("Bad contents %v", records)
	}
}

func TestWellOrdered(t *testing.T) {
	r := fullRecord()
	if !r.WellOrdered() {
		t.Fatalf("Should be well ordered")
	}
	r.TransferStart = Time{}
	if !r.WellOrdered() {
		t.Fatalf("Absent fields should be skipped")
	}
	r.Complete = At(r.Submit.Unix - 1)
	if r.WellOrdered() {
		t.Fatalf("Should not be well ordered")
	}
}

func TestSortByBatchIndex(t *testing.T) {
	records := []*JobRecord{
		{Batch: "100", Index: 1},
		{Batch: "abc", Index: 0},
		{Batch: "99", Index: 5},
		{Batch: "100", Index: 0},
	}
	SortByBatchIndex(records)
	var got []string
	for _, r := range records {
		got = append(got, r.Batch)
	}
	if strings.Join(got, " ") != "99 100 100 abc" || records[1].Index != 0 {
		t.Fatalf("Bad order %v", got)
	}
}
