package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ini "github.com/lars-t-hansen/ini"

	. "hjta/common"
	"hjta/util/options"
	"hjta/util/status"
)

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// DevArgs are for development and their inclusion can be controlled with the devArgs setting,
// below.

type DevArgs struct {
	CpuProfile string
}

const devArgs = true

func (d *DevArgs) CpuProfileFile() string {
	return d.CpuProfile
}

func (d *DevArgs) Add(fs *CLI) {
	if devArgs {
		fs.Group("development")
		fs.StringVar(&d.CpuProfile, "cpuprofile", "",
			"(Development) write cpu profile to `filename`")
	}
}

func (d *DevArgs) Validate() error {
	return nil
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// -v lowers the log level to Info as a side effect of validation.

type VerboseArgs struct {
	Verbose bool
}

func (va *VerboseArgs) Add(fs *CLI) {
	fs.Group("development")
	fs.BoolVar(&va.Verbose, "v", false, "Print verbose diagnostics to stderr")
	fs.BoolVar(&va.Verbose, "verbose", false, "Print verbose diagnostics to stderr")
}

func (va *VerboseArgs) Validate() error {
	if va.Verbose {
		Log.LowerLevelTo(status.LogLevelInfo)
	}
	return nil
}

func (va *VerboseArgs) VerboseFlag() bool {
	return va.Verbose
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// Handle -input, the job table read by `plot` and `serve`.

type InputArgs struct {
	Input string
}

func (ia *InputArgs) Add(fs *CLI) {
	fs.Group("data-source")
	fs.StringVar(&ia.Input, "input", "", "Read the job table from `filename` (required)")
	fs.StringVar(&ia.Input, "i", "", "Short for -input `filename`")
}

func (ia *InputArgs) Validate() error {
	var err error
	ia.Input, err = options.RequireFile(ia.Input, "-input")
	return err
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// Option values that are not strings are accepted as strings so that the ini file can supply
// defaults for them; a value given on the command line always wins.  These parse the value after
// defaulting, and append to the error list.

func StringDefault(sp *string, f *ini.Field, def string) {
	if !ApplyDefault(sp, f) && *sp == "" {
		*sp = def
	}
}

func ParseDuration(errs []error, s, optname string) (time.Duration, []error) {
	if s == "" {
		return 0, errs
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, append(errs, fmt.Errorf("Bad %s duration %s", optname, s))
	}
	return d, errs
}

func ParsePositiveFloat(errs []error, s, optname string) (float64, []error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return 0, append(errs, fmt.Errorf("Bad %s value %s, must be positive", optname, s))
	}
	return f, errs
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// A repeatable string option.

type RepeatableString []string

func (rs *RepeatableString) String() string {
	return strings.Join(*rs, ",")
}

func (rs *RepeatableString) Set(s string) error {
	if s == "" {
		return errors.New("Empty value")
	}
	*rs = append(*rs, s)
	return nil
}
