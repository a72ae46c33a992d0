package condor

import (
	"context"
	"fmt"
	"slices"
	"strings"

	. "hjta/common"
	"hjta/scheduler"
)

// A schedd is known by its name and by the machine it runs on; usually these are the same.

type schedd struct {
	name    string
	machine string
}

// Resolve the schedd part of the batch ID, or the default schedd if there is none, to a full schedd
// name.  An exact match on name or machine wins; otherwise the given name must be a substring of
// exactly one schedd's name or machine, so that users can abbreviate.

func (s *Source) Resolve(ctx context.Context, batch scheduler.BatchID) (scheduler.BatchID, error) {
	name := batch.Schedd
	if name == "" {
		name = s.cfg.DefaultSchedd
	}
	if name == "" {
		return batch, nil
	}
	if s.schedds == nil {
		var err error
		s.schedds, err = s.locateSchedds(ctx)
		if err != nil {
			return batch, err
		}
	}

	for _, sd := range s.schedds {
		if sd.name == name || sd.machine == name {
			batch.Schedd = sd.name
			return batch, nil
		}
	}
	matches := make([]string, 0)
	for _, sd := range s.schedds {
		if strings.Contains(sd.name, name) || strings.Contains(sd.machine, name) {
			if !slices.Contains(matches, sd.name) {
				matches = append(matches, sd.name)
			}
		}
	}
	switch len(matches) {
	case 0:
		return batch, fmt.Errorf("%w: %s not recognized as having a scheduler", scheduler.ErrBadBatch, name)
	case 1:
		batch.Schedd = matches[0]
		return batch, nil
	default:
		return batch, fmt.Errorf(
			"%w: %s matches more than one scheduler %v, be more precise",
			scheduler.ErrBadBatch, name, matches)
	}
}

func (s *Source) locateSchedds(ctx context.Context) ([]schedd, error) {
	args := []string{"-schedd", "-af", "Name", "Machine"}
	if s.cfg.Verbose {
		Log.Infof("Running %s %s", s.cfg.StatusPath, strings.Join(args, " "))
	}
	stdout, _, err := s.cfg.Run(ctx, s.cfg.StatusPath, args)
	if err != nil {
		return nil, err
	}
	return parseSchedds(stdout), nil
}

func parseSchedds(output string) []schedd {
	schedds := make([]schedd, 0)
	for _, l := range strings.Split(output, "\n") {
		fields := strings.Fields(l)
		switch len(fields) {
		case 0:
			continue
		case 1:
			schedds = append(schedds, schedd{name: fields[0], machine: fields[0]})
		default:
			schedds = append(schedds, schedd{name: fields[0], machine: fields[1]})
		}
	}
	return schedds
}
