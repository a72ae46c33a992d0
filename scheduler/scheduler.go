// Interface to the batch schedulers that job records are pulled from.  Each source lives in its own
// package below this one.

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"hjta/jobtable"
)

// A batch identifier is not syntactically valid or can't be resolved.  This is a usage error.
var ErrBadBatch = errors.New("Bad batch identifier")

// A batch is named on the command line as <id>[:<schedd>].  The schedd is meaningful only to
// HTCondor.

type BatchID struct {
	ID     uint64
	Schedd string
}

func ParseBatchID(s string) (BatchID, error) {
	idstr, schedd, qualified := strings.Cut(s, ":")
	id, err := strconv.ParseUint(idstr, 10, 64)
	if err != nil || (qualified && schedd == "") {
		return BatchID{}, fmt.Errorf("%w: %q is not of the form <id>[:<schedd>]", ErrBadBatch, s)
	}
	return BatchID{ID: id, Schedd: schedd}, nil
}

func (b BatchID) String() string {
	if b.Schedd != "" {
		return fmt.Sprintf("%d:%s", b.ID, b.Schedd)
	}
	return strconv.FormatUint(b.ID, 10)
}

// The batch identifier as it goes into the job table.

func (b BatchID) Key() string {
	return strconv.FormatUint(b.ID, 10)
}

type Source interface {
	// Name for messages
	Name() string

	// Normalize the batch identifier, eg by resolving a partial schedd name.  Errors wrap
	// ErrBadBatch when the identifier is at fault, otherwise they are query errors.
	Resolve(ctx context.Context, batch BatchID) (BatchID, error)

	// Return all the jobs in the batch, in any order.  A batch without jobs is not an error.
	Query(ctx context.Context, batch BatchID) ([]*jobtable.JobRecord, error)

	Close() error
}

// Sources for schedulers without a schedd notion embed this to get a Resolve that rejects schedd
// qualifiers.

type Unqualified struct{}

func (Unqualified) Resolve(_ context.Context, batch BatchID) (BatchID, error) {
	if batch.Schedd != "" {
		return batch, fmt.Errorf("%w: %s: schedd qualifier not supported by this source", ErrBadBatch, batch)
	}
	return batch, nil
}
