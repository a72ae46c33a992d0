package jobtable

// Derived quantities, all in seconds.  A metric has a value for a record only if every timestamp it
// needs is present.

type Metric struct {
	Name  string
	Label string
	Value func(r *JobRecord) (float64, bool)
}

var (
	TransferTime = &Metric{
		Name:  "TransferTime",
		Label: "Transfer Time [s]",
		Value: func(r *JobRecord) (float64, bool) {
			return r.ExecuteStart.Sub(r.TransferStart)
		},
	}

	TransferInQueueTime = &Metric{
		Name:  "TransferInQueueTime",
		Label: "Transfer In Queue Time [s]",
		Value: func(r *JobRecord) (float64, bool) {
			return r.TransferStart.Sub(r.TransferQueued)
		},
	}

	TransferOutTime = &Metric{
		Name:  "TransferOutTime",
		Label: "Transfer Out Time [s]",
		Value: func(r *JobRecord) (float64, bool) {
			return r.Complete.Sub(r.TransferOutStart)
		},
	}

	TransferOutQueueTime = &Metric{
		Name:  "TransferOutQueueTime",
		Label: "Transfer Out Queue Time [s]",
		Value: func(r *JobRecord) (float64, bool) {
			return r.TransferOutStart.Sub(r.TransferOutQueued)
		},
	}

	// Execution ends when output transfer starts, or at completion when there is no output
	// transfer (eg Slurm).
	ExecuteTime = &Metric{
		Name:  "ExecuteTime",
		Label: "Execution Time [s]",
		Value: func(r *JobRecord) (float64, bool) {
			if r.TransferOutStart.Valid {
				return r.TransferOutStart.Sub(r.ExecuteStart)
			}
			return r.Complete.Sub(r.ExecuteStart)
		},
	}

	// Not exactly the job's wall time but within a few seconds of it.
	JobTime = &Metric{
		Name:  "JobTime",
		Label: "Job Time [s]",
		Value: func(r *JobRecord) (float64, bool) {
			if r.JobStart.Valid {
				return r.Complete.Sub(r.JobStart)
			}
			return r.Complete.Sub(r.ExecuteStart)
		},
	}
)

// The values of m for the records that have it, in record order.

func (m *Metric) Values(records []*JobRecord) []float64 {
	vs := make([]float64, 0, len(records))
	for _, r := range records {
		if v, ok := m.Value(r); ok {
			vs = append(vs, v)
		}
	}
	return vs
}

// Pairs (x, y) for the records that have both metrics, in record order.

func Pairs(records []*JobRecord, x, y *Metric) (xs, ys []float64) {
	xs = make([]float64, 0, len(records))
	ys = make([]float64, 0, len(records))
	for _, r := range records {
		xv, xok := x.Value(r)
		yv, yok := y.Value(r)
		if xok && yok {
			xs = append(xs, xv)
			ys = append(ys, yv)
		}
	}
	return
}
