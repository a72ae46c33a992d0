package jobtable

import (
	"testing"
)

func TestMetrics(t *testing.T) {
	r := fullRecord()
	check := func(m *Metric, expect float64) {
		v, ok := m.Value(r)
		if !ok || v != expect {
			t.Fatalf("%s: got %v %v, expected %v", m.Name, v, ok, expect)
		}
	}
	check(TransferTime, 28)
	check(TransferInQueueTime, 2)
	check(TransferOutTime, 29)
	check(TransferOutQueueTime, 1)
	check(ExecuteTime, 461)
	check(JobTime, 519)

	// Without output transfer, execution ends at completion
	r.TransferOutStart = Time{}
	check(ExecuteTime, 490)
	if _, ok := TransferOutTime.Value(r); ok {
		t.Fatalf("TransferOutTime should be absent")
	}
}

func TestValuesSkipAbsent(t *testing.T) {
	records := make([]*JobRecord, 5)
	for i := range records {
		records[i] = fullRecord()
	}
	records[1].ExecuteStart = Time{}
	records[3].ExecuteStart = Time{}
	if n := len(TransferTime.Values(records)); n != 3 {
		t.Fatalf("Expected 3 values, got %d", n)
	}
	// Metrics that don't need ExecuteStart still see all the records
	if n := len(TransferInQueueTime.Values(records)); n != 5 {
		t.Fatalf("Expected 5 values, got %d", n)
	}

	records[4].TransferStart = Time{}
	xs, ys := Pairs(records, ExecuteTime, TransferInQueueTime)
	if len(xs) != 2 || len(ys) != 2 {
		t.Fatalf("Expected 2 pairs, got %d %d", len(xs), len(ys))
	}
}
