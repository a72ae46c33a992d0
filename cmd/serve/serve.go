// `hjta serve` loads a job table and serves it and plots rendered from it over HTTP.  The API is
// described by OpenAPI, see /docs on the running server.
//
// The server logs to the syslog as well as stderr, with the tag "hjta".  It stops on SIGHUP,
// SIGTERM or SIGINT.

package serve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"syscall"

	. "hjta/cmd"
	. "hjta/common"
	"hjta/jobtable"
	"hjta/util/auth"
	"hjta/util/httpsrv"
	"hjta/util/options"
	"hjta/util/process"
	"hjta/util/status"
)

const (
	defaultPort = 8088
	logTag      = "hjta"
	authRealm   = "hjta"
)

type ServeCommand struct {
	DevArgs
	VerboseArgs
	InputArgs

	Port     string
	AuthFile string
	NoSyslog bool

	// Computed
	port int
}

var _ = Command((*ServeCommand)(nil))

func (sc *ServeCommand) Summary(out io.Writer) {
	fmt.Fprint(out, `Serve a job table and plots of it over HTTP until stopped by a signal.`)
}

func (sc *ServeCommand) Add(fs *CLI) {
	sc.DevArgs.Add(fs)
	sc.VerboseArgs.Add(fs)
	sc.InputArgs.Add(fs)

	fs.Group("server")
	fs.StringVar(&sc.Port, "port", "", fmt.Sprintf("Listen on `port` [default: %d]", defaultPort))
	fs.StringVar(&sc.AuthFile, "auth-file", "",
		"Require HTTP basic authentication with user:password lines from `filename`")
	fs.BoolVar(&sc.NoSyslog, "no-syslog", false, "Log to stderr only")
}

func (sc *ServeCommand) Validate() error {
	var errs []error
	errs = append(errs, sc.DevArgs.Validate(), sc.VerboseArgs.Validate(), sc.InputArgs.Validate())

	StringDefault(&sc.Port, ServePort, strconv.Itoa(defaultPort))
	port, err := strconv.ParseUint(sc.Port, 10, 16)
	if err != nil || port == 0 {
		errs = append(errs, fmt.Errorf("Bad -port %s", sc.Port))
	}
	sc.port = int(port)

	if ApplyDefault(&sc.AuthFile, ServeAuthFile) || sc.AuthFile != "" {
		sc.AuthFile, err = options.RequireFile(sc.AuthFile, "-auth-file")
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (sc *ServeCommand) Perform(_ context.Context, _ io.Reader, _, _ io.Writer) error {
	if !sc.NoSyslog {
		if err := status.StartSyslog(logTag); err != nil {
			return fmt.Errorf("Failing to open logger: %w", err)
		}
	}

	records, err := jobtable.ReadFile(sc.Input)
	if err != nil {
		return err
	}
	var authenticator *auth.Authenticator
	if sc.AuthFile != "" {
		authenticator, err = auth.ReadPasswords(sc.AuthFile)
		if err != nil {
			return err
		}
	}
	Log.Infof("Serving %d jobs from %s", len(records), sc.Input)

	var programFailed bool
	s := httpsrv.New(Log, sc.Verbose, sc.port, NewHandler(records, authenticator, sc.Verbose),
		func(err error) {
			programFailed = true
		})
	go s.Start()

	// Wait here until we're stopped by SIGHUP (manual), SIGTERM (from OS during shutdown) or an
	// interrupt.
	process.WaitForSignal(syscall.SIGHUP, syscall.SIGTERM, os.Interrupt)
	s.Stop()

	if programFailed {
		return errors.New("HTTP server failed to start, or errored out")
	}
	return nil
}

// The API handler, behind basic authentication if there is an authenticator.

func NewHandler(records []*jobtable.JobRecord, a *auth.Authenticator, verbose bool) http.Handler {
	mux := http.NewServeMux()
	api := newAPI(mux)
	registerRoutes(api, records, verbose)
	return auth.RequireBasicAuth(a, authRealm, mux)
}
