package main

import (
	"net/http"
	"net/http/pprof"

	"github.com/embarkmaps/regiond"
)

// Visit /debug/pprof/ for live profiling and /metrics for Prometheus
// counters.
func startHTTPDebugger(addr string) {
	handler := http.NewServeMux()
	handler.Handle("/debug/pprof/", http.HandlerFunc(pprof.Index))
	handler.Handle("/debug/pprof/profile", http.HandlerFunc(pprof.Profile))
	handler.Handle("/metrics", regiond.MetricsHandler())
	server := &http.Server{Addr: addr, Handler: handler}
	go server.ListenAndServe()
}
