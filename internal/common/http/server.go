// internal/common/http/server.go
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"sort"
	"sync"
	"time"

	"advisor-match-workers/internal/common/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

const checkTimeout = 2 * time.Second

// Server exposes /health, /ready and /metrics for the worker process. pprof handlers
// are registered on http.DefaultServeMux and served under /debug/pprof/.
type Server struct {
	srv    *http.Server
	checks map[string]Check
	logger logger.Logger
	now    func() time.Time
}

func NewServer(addr string, checks map[string]Check, log logger.Logger) *Server {
	s := &Server{
		checks: checks,
		logger: log,
		now:    time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		s.logger.Info("health/metrics server listening", map[string]interface{}{"address": s.srv.Addr})
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("health/metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   s.now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	results := s.runChecks(r.Context())

	status, code := "ready", http.StatusOK
	for _, res := range results {
		if res != "ok" {
			status, code = "not_ready", http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": results,
		"time":   s.now().Format(time.RFC3339),
	})
}

// runChecks runs all checks concurrently, each bounded by checkTimeout.
func (s *Server) runChecks(ctx context.Context) map[string]string {
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]string, len(names))
	)
	for _, name := range names {
		wg.Add(1)
		go func(name string, check Check) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()

			res := "ok"
			if err := check(cctx); err != nil {
				res = err.Error()
				s.logger.Warn("readiness check failed", map[string]interface{}{"check": name, "error": res})
			}
			mu.Lock()
			results[name] = res
			mu.Unlock()
		}(name, s.checks[name])
	}
	wg.Wait()
	return results
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
