// Package regiond is an embedded local routing server: it loads a pre-built
// region road network, answers route computations on a local port and
// proxies map-tile requests to an external provider with the credential
// attached server-side.
package regiond

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/embarkmaps/regiond/graph"
	"github.com/embarkmaps/regiond/router"
	"github.com/embarkmaps/regiond/tileproxy"
)

// ErrAlreadyRunning is returned by Start when an instance is already
// serving; the running instance is left untouched.
var ErrAlreadyRunning = errors.New("server already running")

// Server owns the listening socket, the loaded region graph and the request
// workers. One Server serves one region.
type Server struct {
	cfg Config

	// mu serializes Start and Stop so lifecycle transitions are atomic
	// with respect to each other.
	mu       sync.Mutex
	stateVal atomic.Int32

	// Atomic pointers because the forced-close path of Stop releases them
	// while handlers of just-severed connections may still be running.
	g       atomic.Pointer[graph.Graph]
	router  atomic.Pointer[router.Router]
	tiles   atomic.Pointer[tileproxy.Client]
	httpSrv *http.Server

	// draining flips once Stop begins; new requests are answered with an
	// explicit error instead of being silently dropped.
	draining atomic.Bool
	active   *xsync.Counter
}

// New prepares a server; nothing is loaded or bound until Start.
func New(cfg Config) *Server {
	return &Server{cfg: cfg, active: xsync.NewCounter()}
}

// State returns the current lifecycle state.
func (s *Server) State() State { return State(s.stateVal.Load()) }

func (s *Server) setState(st State) { s.stateVal.Store(int32(st)) }

// ActiveRequests returns the number of requests currently in flight.
func (s *Server) ActiveRequests() int64 { return s.active.Value() }

// Start loads the region graph, binds the listen socket and launches the
// request workers. It returns the bound port. Load or bind failure leaves
// the server Stopped with nothing installed. Starting a server that is
// already serving fails with ErrAlreadyRunning.
func (s *Server) Start() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.State() {
	case StateLoading, StateServing, StateDraining:
		return 0, ErrAlreadyRunning
	}
	log.Infof("starting: %s", s.cfg)
	s.setState(StateLoading)

	g, err := graph.Load(s.cfg.RegionPath)
	if err != nil {
		s.setState(StateStopped)
		return 0, err
	}
	s.g.Store(g)
	s.router.Store(router.New(g, s.cfg.snapRadius()))
	if s.cfg.TileProxyURL != "" {
		s.tiles.Store(tileproxy.New(s.cfg.TileProxyURL, s.cfg.TileCredential))
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.cfg.Port))
	if err != nil {
		s.release()
		s.setState(StateStopped)
		return 0, fmt.Errorf("bind port %d: %w", s.cfg.Port, err)
	}
	port := ln.Addr().(*net.TCPAddr).Port

	s.draining.Store(false)
	// HTTP/2 without TLS so local clients can multiplex over one
	// connection.
	s.httpSrv = &http.Server{
		Handler: h2c.NewHandler(s.buildEngine(), &http2.Server{}),
	}
	go func(srv *http.Server, ln net.Listener) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("serve: %v", err)
		}
	}(s.httpSrv, ln)

	s.setState(StateServing)
	log.Infof("serving on 127.0.0.1:%d", port)
	return port, nil
}

// Stop drains in-flight requests, closes the socket and releases the graph.
// Requests still running after the grace timeout lose their connections.
// Stop is idempotent; calling it on an Idle or Stopped server is a no-op.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != StateServing {
		if s.State() == StateIdle {
			return
		}
		s.setState(StateStopped)
		return
	}
	s.setState(StateDraining)
	s.draining.Store(true)
	log.Infof("draining, %d requests in flight", s.active.Value())

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.graceTimeout())
	defer cancel()
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		log.Warnf("grace timeout elapsed, closing %d remaining connections", s.active.Value())
		s.httpSrv.Close()
	}
	s.release()
	s.setState(StateStopped)
	log.Info("stopped")
}

// release drops the graph and services so their memory can be reclaimed.
func (s *Server) release() {
	s.g.Store(nil)
	s.router.Store(nil)
	s.tiles.Store(nil)
	s.httpSrv = nil
}
