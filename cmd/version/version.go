package version

import (
	"context"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	. "hjta/cmd"
)

type VersionCommand struct {
	DevArgs
	VerboseArgs
}

var _ = Command((*VersionCommand)(nil))

func (vc *VersionCommand) Add(fs *CLI) {
	vc.DevArgs.Add(fs)
	vc.VerboseArgs.Add(fs)
}

func (vc *VersionCommand) Validate() error {
	return vc.VerboseArgs.Validate()
}

func (vc *VersionCommand) Summary(out io.Writer) {
	fmt.Fprintf(out, "Display the version number.")
}

// The version data are version,description
// They are newest-first; we always want the first line.
//
//go:embed version.csv
var versionData string

func Version() string {
	rdr := csv.NewReader(strings.NewReader(versionData))
	rdr.FieldsPerRecord = -1
	fields, err := rdr.Read()
	if err == nil && len(fields) >= 1 {
		return fields[0]
	}
	return "0.0.0"
}

func (_ *VersionCommand) Perform(_ context.Context, _ io.Reader, stdout, _ io.Writer) error {
	fmt.Fprintf(stdout, "hjta version %s\n", Version())
	return nil
}
