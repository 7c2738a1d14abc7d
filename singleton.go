package regiond

import "sync"

// The package-level instance mirrors the process-wide contract of the host
// boundary: at most one embedded server per process, started and stopped by
// free functions.
var (
	defaultMu     sync.Mutex
	defaultServer *Server
)

// Start launches the process-wide server and returns the bound port, or -1
// with an error. A second Start while an instance is running fails with
// ErrAlreadyRunning and leaves the running instance untouched.
func Start(cfg Config) (int, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultServer != nil {
		switch defaultServer.State() {
		case StateLoading, StateServing, StateDraining:
			return -1, ErrAlreadyRunning
		}
	}
	srv := New(cfg)
	port, err := srv.Start()
	if err != nil {
		return -1, err
	}
	defaultServer = srv
	return port, nil
}

// Stop shuts the process-wide server down. Always safe to call; a process
// with no running instance is a no-op.
func Stop() {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultServer == nil {
		return
	}
	defaultServer.Stop()
	defaultServer = nil
}
