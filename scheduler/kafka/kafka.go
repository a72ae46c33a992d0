// Kafka source: Sonar jobs envelopes are consumed from the cluster's jobs topic on a Kafka broker.
//
// The topic is read from the earliest retained offset until no new records have arrived for the
// idle period; everything read is merged into a sonar.JobSet which then answers the queries.  No
// consumer group is used, a pull does not disturb the offsets of the ingestors.

package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/NordicHPC/sonar/util/formats/newfmt"
	"github.com/twmb/franz-go/pkg/kgo"

	. "hjta/common"
	"hjta/jobtable"
	"hjta/scheduler"
	"hjta/scheduler/sonar"
)

const DefaultIdle = 5 * time.Second

type Config struct {
	Broker  string
	Cluster string

	// How long the topic must be quiet before we assume we've seen everything, DefaultIdle if zero
	Idle time.Duration

	Verbose bool
}

type Source struct {
	scheduler.Unqualified
	cfg  Config
	jobs *sonar.JobSet // nil until consumed
}

var _ = scheduler.Source((*Source)(nil))

func New(cfg Config) *Source {
	if cfg.Idle == 0 {
		cfg.Idle = DefaultIdle
	}
	return &Source{cfg: cfg}
}

func (s *Source) Name() string {
	return "kafka"
}

func (s *Source) Close() error {
	return nil
}

func JobsTopic(cluster string) string {
	return cluster + "." + string(newfmt.DataTagJobs)
}

func (s *Source) Query(ctx context.Context, batch scheduler.BatchID) ([]*jobtable.JobRecord, error) {
	if s.jobs == nil {
		jobs, err := s.consume(ctx)
		if err != nil {
			return nil, err
		}
		s.jobs = jobs
	}
	return s.jobs.Batch(batch.Key(), batch.ID), nil
}

func (s *Source) consume(ctx context.Context) (*sonar.JobSet, error) {
	topic := JobsTopic(s.cfg.Cluster)
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(s.cfg.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, err
	}
	defer cl.Close()
	if err := cl.Ping(ctx); err != nil {
		return nil, err
	}
	if s.cfg.Verbose {
		Log.Infof("%s: Connected, consuming %s", s.cfg.Broker, topic)
	}

	jobs := sonar.NewJobSet()
	for {
		pollCtx, cancel := context.WithTimeout(ctx, s.cfg.Idle)
		fetches := cl.PollFetches(pollCtx)
		cancel()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		idle := false
		fetches.EachError(func(t string, p int32, err error) {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				idle = true
				return
			}
			// Non-retriable errors are returned from polls so that users can notice.
			Log.Warningf("%s: SOFT ERROR: Failed to fetch from %s/%d: %v", s.cfg.Broker, t, p, err)
		})

		n := 0
		iter := fetches.RecordIter()
		for !iter.Done() {
			record := iter.Next()
			n++
			if err := addRecord(jobs, record.Value); err != nil {
				Log.Warningf("%s: SOFT ERROR: Bad record at offset %d: %v", topic, record.Offset, err)
			}
		}
		if s.cfg.Verbose {
			Log.Infof("%s: Fetched %d records", topic, n)
		}
		if idle || fetches.Empty() {
			break
		}
	}
	if s.cfg.Verbose {
		Log.Infof("%s: Consumed %d jobs", topic, jobs.Len())
	}
	return jobs, nil
}

func addRecord(jobs *sonar.JobSet, value []byte) error {
	info := new(newfmt.JobsEnvelope)
	if err := json.Unmarshal(value, info); err != nil {
		return err
	}
	jobs.AddEnvelope(info)
	return nil
}
