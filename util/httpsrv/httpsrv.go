// A simple HTTP server (built on existing Go library code) that can be started on a goroutine and
// stopped from another.

package httpsrv

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"hjta/util/status"
)

const (
	serverShutdownTimeoutSec = 10
)

type Server struct {
	log     status.Logger
	verbose bool
	port    int
	failed  func(error)
	stop    chan bool
	server  *http.Server
}

// Create a server that will be listening on `port` and dispatching to `handler`.  It will call
// `failed` if the server returns a failure code.  The server is not started by this.

func New(log status.Logger, verbose bool, port int, handler http.Handler, failed func(error)) *Server {
	return &Server{
		log:     log,
		verbose: verbose,
		port:    port,
		failed:  failed,
		stop:    make(chan bool, 1),
		server:  &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: handler},
	}
}

// Start the server.  This blocks the current goroutine until the server exits, so typical usage
// would be `go s.Start()`.  To force the server to shut down, call s.Stop().  When the server
// exits, it will call s.failed if there was an error.

func (s *Server) Start() {
	if s.verbose {
		s.log.Infof("Listening on port %d", s.port)
	}
	err := s.server.ListenAndServe()
	if err != nil {
		if !errors.Is(err, http.ErrServerClosed) {
			s.log.Error(err.Error())
			s.log.Error("SERVER NOT RUNNING")
			if s.failed != nil {
				s.failed(err)
			}
		} else if s.verbose {
			s.log.Info(err.Error())
		}
	}
	s.stop <- true
}

// Cause the server to shut down and wait for Start to return.

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeoutSec*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.log.Warning(err.Error())
	}
	<-s.stop
}
