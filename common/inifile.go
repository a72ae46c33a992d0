package common

import (
	"errors"
	"io"
	"os"
	"path"
	"strings"

	ini "github.com/lars-t-hansen/ini"
)

// Defaults for command line options come from an ini file, $HJTA_CONFIG or else $HOME/.hjta.  A
// value on the command line always takes precedence.

const (
	ConfigEnvVar   = "HJTA_CONFIG"
	ConfigFilename = ".hjta"
)

// MT: Constant after initialization
var (
	p     = ini.NewParser()
	store *ini.Store

	pullSection       = p.AddSection("pull")
	PullSource        = pullSection.AddString("source")
	PullSchedd        = pullSection.AddString("schedd")
	PullCondorHistory = pullSection.AddString("condor-history")
	PullCondorStatus  = pullSection.AddString("condor-status")
	PullSacct         = pullSection.AddString("sacct")
	PullSacctStart    = pullSection.AddString("sacct-start")
	PullCluster       = pullSection.AddString("cluster")
	PullKafkaBroker   = pullSection.AddString("kafka-broker")
	PullKafkaIdle     = pullSection.AddString("kafka-idle")
	PullDatabaseURI   = pullSection.AddString("database-uri")
	PullTimeout       = pullSection.AddString("timeout")

	plotSection = p.AddSection("plot")
	PlotOutDir  = plotSection.AddString("out-dir")
	PlotFormat  = plotSection.AddString("format")
	PlotWidth   = plotSection.AddString("width")
	PlotHeight  = plotSection.AddString("height")

	serveSection  = p.AddSection("serve")
	ServePort     = serveSection.AddString("port")
	ServeAuthFile = serveSection.AddString("auth-file")
)

// Locate and parse the defaults file.  A missing file is not an error.

func LoadDefaults() error {
	fn := os.Getenv(ConfigEnvVar)
	if fn == "" {
		home := os.Getenv("HOME")
		if home == "" {
			return nil
		}
		fn = path.Join(path.Clean(home), ConfigFilename)
	}
	input, err := os.Open(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer input.Close()
	return ParseDefaults(input)
}

func ParseDefaults(input io.Reader) error {
	s, err := p.Parse(input)
	if err != nil {
		return err
	}
	store = s
	return nil
}

// For testing.

func ClearDefaults() {
	store = nil
}

func HasDefault(f *ini.Field) bool {
	return store != nil && f.Present(store)
}

// Set *sp to the default value for f if *sp is "" and there is a default.  Returns true if the
// default was applied.

func ApplyDefault(sp *string, f *ini.Field) bool {
	if *sp != "" || store == nil || !f.Present(store) {
		return false
	}
	*sp = os.ExpandEnv(strings.TrimSpace(f.StringVal(store)))
	return true
}
