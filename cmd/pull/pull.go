package pull

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"time"

	. "hjta/cmd"
	"hjta/collect"
	. "hjta/common"
	"hjta/scheduler"
	"hjta/scheduler/condor"
	"hjta/scheduler/kafka"
	"hjta/scheduler/slurm"
	"hjta/scheduler/sonar"
	"hjta/scheduler/tsdb"
)

var sourceNames = []string{"condor", "slurm", "sonar", "kafka", "tsdb"}

const defaultSource = "condor"

type PullCommand struct {
	DevArgs
	VerboseArgs

	Output        string
	Source        string
	Schedd        string
	CondorHistory string
	CondorStatus  string
	Sacct         string
	SacctStart    string
	SonarFiles    RepeatableString
	KafkaBroker   string
	KafkaIdle     string
	Cluster       string
	DatabaseURI   string
	Timeout       string

	// Computed
	BatchArgs []string
	batches   []scheduler.BatchID
	kafkaIdle time.Duration
	timeout   time.Duration
}

var _ = Command((*PullCommand)(nil))
var _ = SetRestArgumentsAPI((*PullCommand)(nil))

func (pc *PullCommand) Summary(out io.Writer) {
	fmt.Fprint(out, `Pull the timing records of all jobs in the given batches from the scheduler and
   write them to a CSV job table.  A batch is given as <id>[:<schedd>], the schedd can
   be abbreviated to any unique substring of a known schedd's name.`)
}

func (pc *PullCommand) Add(fs *CLI) {
	pc.DevArgs.Add(fs)
	pc.VerboseArgs.Add(fs)

	fs.Group("data-target")
	fs.StringVar(&pc.Output, "output", "", "Write the job table to `filename` (required)")
	fs.StringVar(&pc.Output, "o", "", "Short for -output `filename`")

	fs.Group("data-source")
	fs.StringVar(&pc.Source, "source", "",
		fmt.Sprintf("Pull from `source`, one of %v [default: %s]", sourceNames, defaultSource))
	fs.StringVar(&pc.Schedd, "schedd", "",
		"(condor) Query `schedd` for batches without an explicit schedd [default: local]")
	fs.StringVar(&pc.CondorHistory, "condor-history", "",
		"(condor) Path of the condor_history `program`")
	fs.StringVar(&pc.CondorStatus, "condor-status", "",
		"(condor) Path of the condor_status `program`")
	fs.StringVar(&pc.Sacct, "sacct", "", "(slurm) Path of the sacct `program`")
	fs.StringVar(&pc.SacctStart, "sacct-start", "",
		"(slurm) Look at jobs since `time`, passed to sacct -S")
	fs.Var(&pc.SonarFiles, "sonar-file", "(sonar) Read Sonar jobs data from `filename` (repeatable)")
	fs.StringVar(&pc.KafkaBroker, "kafka-broker", "", "(kafka) Consume from `host:port`")
	fs.StringVar(&pc.KafkaIdle, "kafka-idle", "",
		fmt.Sprintf("(kafka) Stop consuming after `duration` without data [default: %v]",
			kafka.DefaultIdle))
	fs.StringVar(&pc.Cluster, "cluster", "", "(kafka, tsdb) The `cluster` name")
	fs.StringVar(&pc.DatabaseURI, "database-uri", "", "(tsdb) Connect to the database at `uri`")
	fs.StringVar(&pc.Timeout, "timeout", "", "Give up on a query after `duration` [default: never]")
}

func (pc *PullCommand) SetRestArguments(args []string) {
	pc.BatchArgs = args
}

func (pc *PullCommand) RestArgumentsHelp() string {
	return "batch-id ..."
}

func (pc *PullCommand) Validate() error {
	var errs []error
	errs = append(errs, pc.DevArgs.Validate(), pc.VerboseArgs.Validate())

	if pc.Output == "" {
		errs = append(errs, errors.New("Required argument: -output"))
	} else {
		pc.Output = path.Clean(pc.Output)
	}

	StringDefault(&pc.Source, PullSource, defaultSource)
	ApplyDefault(&pc.Schedd, PullSchedd)
	ApplyDefault(&pc.CondorHistory, PullCondorHistory)
	ApplyDefault(&pc.CondorStatus, PullCondorStatus)
	ApplyDefault(&pc.Sacct, PullSacct)
	ApplyDefault(&pc.SacctStart, PullSacctStart)
	ApplyDefault(&pc.Cluster, PullCluster)
	ApplyDefault(&pc.KafkaBroker, PullKafkaBroker)
	ApplyDefault(&pc.KafkaIdle, PullKafkaIdle)
	ApplyDefault(&pc.DatabaseURI, PullDatabaseURI)
	ApplyDefault(&pc.Timeout, PullTimeout)

	pc.kafkaIdle, errs = ParseDuration(errs, pc.KafkaIdle, "-kafka-idle")
	pc.timeout, errs = ParseDuration(errs, pc.Timeout, "-timeout")

	switch pc.Source {
	case "sonar":
		if len(pc.SonarFiles) == 0 {
			errs = append(errs, errors.New("-source sonar requires at least one -sonar-file"))
		}
	case "kafka":
		if pc.KafkaBroker == "" || pc.Cluster == "" {
			errs = append(errs, errors.New("-source kafka requires -kafka-broker and -cluster"))
		}
	case "tsdb":
		if pc.DatabaseURI == "" || pc.Cluster == "" {
			errs = append(errs, errors.New("-source tsdb requires -database-uri and -cluster"))
		}
	default:
		if !slices.Contains(sourceNames, pc.Source) {
			errs = append(errs, fmt.Errorf("Unknown -source %s, use one of %v", pc.Source, sourceNames))
		}
	}

	if len(pc.BatchArgs) == 0 {
		errs = append(errs, errors.New("At least one batch-id is required"))
	} else {
		var err error
		pc.batches, err = collect.ParseBatches(pc.BatchArgs)
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (pc *PullCommand) makeSource() scheduler.Source {
	switch pc.Source {
	case "slurm":
		return slurm.New(slurm.Config{
			SacctPath: pc.Sacct,
			StartTime: pc.SacctStart,
			Verbose:   pc.Verbose,
		})
	case "sonar":
		return sonar.New(pc.SonarFiles, pc.Verbose)
	case "kafka":
		return kafka.New(kafka.Config{
			Broker:  pc.KafkaBroker,
			Cluster: pc.Cluster,
			Idle:    pc.kafkaIdle,
			Verbose: pc.Verbose,
		})
	case "tsdb":
		return tsdb.New(tsdb.Config{
			DatabaseURI: pc.DatabaseURI,
			Cluster:     pc.Cluster,
			Verbose:     pc.Verbose,
		})
	default:
		return condor.New(condor.Config{
			HistoryPath:   pc.CondorHistory,
			StatusPath:    pc.CondorStatus,
			DefaultSchedd: pc.Schedd,
			Verbose:       pc.Verbose,
		})
	}
}

func (pc *PullCommand) Perform(ctx context.Context, _ io.Reader, _, _ io.Writer) error {
	src := pc.makeSource()
	defer src.Close()
	return pc.pull(ctx, src)
}

func (pc *PullCommand) pull(ctx context.Context, src scheduler.Source) error {
	n, err := collect.Pull(ctx, src, pc.batches, pc.Output, collect.Options{
		Timeout: pc.timeout,
	})
	if err != nil {
		return err
	}
	if pc.Verbose {
		Log.Infof("Wrote %d jobs to %s", n, pc.Output)
	}
	return nil
}
