// TimescaleDB source: job timing is read from the sample_slurm_job table that the slurm-monitor
// ingestor fills from Sonar's jobs data.  The table holds one row per observation of a job, so for
// every main job of the batch the latest row is used.

package tsdb

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	. "hjta/common"
	"hjta/jobtable"
	"hjta/scheduler"
)

// Array tasks are distinguished by array_task_id, heterogeneous components by het_job_offset.  A
// task or component belongs to its array or het job only, never to the batch of its own job_id.  The
// ORDER BY must start with the DISTINCT ON columns.
const batchQuery = `
SELECT DISTINCT ON (job_id, array_task_id, het_job_offset)
  job_id, array_job_id, array_task_id, het_job_id, het_job_offset,
  submit_time, start_time, end_time, exit_code
FROM sample_slurm_job
WHERE cluster = $1 AND job_step = '' AND (
  array_job_id = $2 OR
  het_job_id = $2 OR
  (job_id = $2 AND COALESCE(array_job_id, 0) = 0 AND COALESCE(het_job_id, 0) = 0))
ORDER BY job_id, array_task_id, het_job_offset, time DESC`

type Config struct {
	DatabaseURI string
	Cluster     string
	Verbose     bool
}

type Source struct {
	scheduler.Unqualified
	cfg  Config
	conn *pgx.Conn // nil until connected
}

var _ = scheduler.Source((*Source)(nil))

func New(cfg Config) *Source {
	return &Source{cfg: cfg}
}

func (s *Source) Name() string {
	return "tsdb"
}

func (s *Source) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close(context.Background())
	s.conn = nil
	return err
}

// One sample_slurm_job row.  Nullable columns are boxed.

type jobRow struct {
	jobID        pgtype.Int8
	arrayJobID   pgtype.Int8
	arrayTaskID  *int
	hetJobID     pgtype.Int8
	hetJobOffset *int
	submitTime   pgtype.Timestamptz
	startTime    pgtype.Timestamptz
	endTime      pgtype.Timestamptz
	exitCode     *int
}

func (s *Source) Query(ctx context.Context, batch scheduler.BatchID) ([]*jobtable.JobRecord, error) {
	if s.conn == nil {
		conn, err := pgx.Connect(ctx, s.cfg.DatabaseURI)
		if err != nil {
			return nil, fmt.Errorf("Unable to connect to database: %w", err)
		}
		s.conn = conn
	}
	if s.cfg.Verbose {
		Log.Infof("Querying %s for batch %s", s.cfg.Cluster, batch)
	}
	rows, err := s.conn.Query(ctx, batchQuery, s.cfg.Cluster, int64(batch.ID))
	if err != nil {
		return nil, err
	}
	var row jobRow
	boxes := []any{
		&row.jobID, &row.arrayJobID, &row.arrayTaskID, &row.hetJobID, &row.hetJobOffset,
		&row.submitTime, &row.startTime, &row.endTime, &row.exitCode,
	}
	records := make([]*jobtable.JobRecord, 0)
	_, err = pgx.ForEachRow(rows, boxes, func() error {
		if row.inBatch(batch.ID) {
			records = append(records, row.toRecord(batch))
		}
		row = jobRow{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// The batch of a row is its array job, its het job, or else the job itself.

func (row *jobRow) batchID() uint64 {
	switch {
	case row.arrayJobID.Valid && row.arrayJobID.Int64 != 0:
		return uint64(row.arrayJobID.Int64)
	case row.hetJobID.Valid && row.hetJobID.Int64 != 0:
		return uint64(row.hetJobID.Int64)
	case row.jobID.Valid:
		return uint64(row.jobID.Int64)
	}
	return 0
}

func (row *jobRow) inBatch(id uint64) bool {
	return row.batchID() == id
}

func (row *jobRow) toRecord(batch scheduler.BatchID) *jobtable.JobRecord {
	r := &jobtable.JobRecord{
		Batch:        batch.Key(),
		Submit:       timestamp(row.submitTime),
		ExecuteStart: timestamp(row.startTime),
		JobStart:     timestamp(row.startTime),
		Complete:     timestamp(row.endTime),
	}
	switch {
	case row.arrayJobID.Valid && row.arrayJobID.Int64 != 0 && row.arrayTaskID != nil:
		r.Index = uint64(*row.arrayTaskID)
	case row.hetJobID.Valid && row.hetJobID.Int64 != 0 && row.hetJobOffset != nil:
		r.Index = uint64(*row.hetJobOffset)
	}
	if row.exitCode != nil && r.Complete.Valid {
		r.ExitCode = jobtable.SomeInt(int64(*row.exitCode))
	}
	return r
}

func timestamp(ts pgtype.Timestamptz) jobtable.Time {
	if !ts.Valid || ts.InfinityModifier != pgtype.Finite {
		return jobtable.Time{}
	}
	return jobtable.At(ts.Time.UTC().Unix())
}
