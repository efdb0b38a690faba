// Package health serves liveness and readiness probes. Checks run on demand
// when a probe endpoint is hit, each bounded by its own timeout, so the
// reported state is never stale.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// Service evaluates registered probes and answers the /livez and /readyz
// endpoints. Register all checks before serving; registration is not
// synchronized against the handlers.
type Service struct {
	ready     atomic.Bool
	liveness  []check
	readiness []check
}

// New returns a Service in the not-ready state. Call SetReady(true) once
// initialization is complete.
func New() *Service {
	return &Service{}
}

// AddLivenessCheck registers a probe for /livez. Liveness failures mean the
// process itself is broken (leaked goroutines, deadlock).
func (s *Service) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.liveness = append(s.liveness, check{name: name, timeout: timeout, fn: fn})
}

// AddReadinessCheck registers a probe for /readyz. Readiness failures mean the
// service cannot currently take traffic (database or cache unreachable).
func (s *Service) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.readiness = append(s.readiness, check{name: name, timeout: timeout, fn: fn})
}

// SetReady flips the manual readiness gate. Graceful shutdown sets it to false
// so load balancers drain before the listener closes.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

// IsReady reports whether the gate is open and every readiness probe passes.
func (s *Service) IsReady(ctx context.Context) bool {
	return s.ready.Load() && len(run(ctx, s.readiness)) == 0
}

// run evaluates checks and returns the failures by name.
func run(ctx context.Context, checks []check) map[string]string {
	failures := make(map[string]string)
	for _, c := range checks {
		probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := c.fn(probeCtx)
		cancel()
		if err != nil {
			failures[c.name] = err.Error()
		}
	}
	return failures
}

// LiveEndpoint answers /livez: 200 when every liveness probe passes, 503 with
// the failing checks otherwise.
func (s *Service) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	writeProbe(w, run(r.Context(), s.liveness))
}

// ReadyEndpoint answers /readyz: 200 when the gate is open and every readiness
// probe passes, 503 with the failing checks otherwise.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	failures := run(r.Context(), s.readiness)
	if !s.ready.Load() {
		failures["_gate"] = "service is not ready"
	}
	writeProbe(w, failures)
}

type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func writeProbe(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := probeResponse{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failures
		code = http.StatusServiceUnavailable
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
