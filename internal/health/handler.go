// AngelaMos | 2026
// handler.go

package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
)

type Checker interface {
	Ping(ctx context.Context) error
}

// CheckerFunc adapts a plain function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// Probe is one named dependency checked by /readyz.
type Probe struct {
	Name    string
	Checker Checker
}

type phase int32

const (
	phaseServing phase = iota
	phaseNotReady
	phaseDraining
)

func (p phase) String() string {
	switch p {
	case phaseNotReady:
		return "not_ready"
	case phaseDraining:
		return "shutting_down"
	default:
		return "ok"
	}
}

type Handler struct {
	probes  []Probe
	timeout time.Duration
	phase   atomic.Int32
}

func NewHandler(probes ...Probe) *Handler {
	return &Handler{
		probes:  probes,
		timeout: 5 * time.Second,
	}
}

func (h *Handler) current() phase {
	return phase(h.phase.Load())
}

// MediaRoot reports unhealthy when the artwork directory is missing or is
// not a directory.
func MediaRoot(root string) Checker {
	return CheckerFunc(func(context.Context) error {
		info, err := os.Stat(root)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", root)
		}
		return nil
	})
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Liveness)
	r.Get("/livez", h.Liveness)
	r.Get("/readyz", h.Readiness)
}

// Liveness fails only while draining; a not-ready instance is still alive.
func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	if p := h.current(); p == phaseDraining {
		writeStatus(w, http.StatusServiceUnavailable, StatusResponse{Status: p.String()})
		return
	}

	writeStatus(w, http.StatusOK, StatusResponse{Status: phaseServing.String()})
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	if p := h.current(); p != phaseServing {
		writeStatus(w, http.StatusServiceUnavailable, StatusResponse{Status: p.String()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	checks := h.runChecks(ctx)

	status, code := "ok", http.StatusOK
	for _, check := range checks {
		if !check.Healthy {
			status, code = "degraded", http.StatusServiceUnavailable
			break
		}
	}

	writeStatus(w, code, ReadinessResponse{
		Status: status,
		Checks: checks,
	})
}

func (h *Handler) runChecks(ctx context.Context) []HealthCheck {
	checks := make([]HealthCheck, len(h.probes))

	var wg sync.WaitGroup
	for i, p := range h.probes {
		wg.Go(func() { checks[i] = runProbe(ctx, p) })
	}
	wg.Wait()

	return checks
}

func runProbe(ctx context.Context, p Probe) HealthCheck {
	check := HealthCheck{Name: p.Name, Healthy: true}

	if p.Checker == nil {
		check.Healthy = false
		check.Message = p.Name + " checker not configured"
		return check
	}

	start := time.Now()
	err := p.Checker.Ping(ctx)
	check.Latency = time.Since(start).String()

	if err != nil {
		check.Healthy = false
		check.Message = "ping failed"
	}

	return check
}

// SetReady toggles readiness. It has no effect once draining has begun.
func (h *Handler) SetReady(ready bool) {
	from, to := phaseNotReady, phaseServing
	if !ready {
		from, to = phaseServing, phaseNotReady
	}
	h.phase.CompareAndSwap(int32(from), int32(to))
}

// SetShutdown starts draining: both probes fail from here on.
func (h *Handler) SetShutdown(shutdown bool) {
	if shutdown {
		h.phase.Store(int32(phaseDraining))
		return
	}
	h.phase.CompareAndSwap(int32(phaseDraining), int32(phaseServing))
}

func writeStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response
	_ = json.NewEncoder(w).Encode(data)
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ReadinessResponse struct {
	Status string        `json:"status"`
	Checks []HealthCheck `json:"checks"`
}

type HealthCheck struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}
