package healthprobe

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

// Check is a named readiness probe for one component.
type Check struct {
	Name  string
	Probe func() error
}

// HealthChecker provides liveness and readiness handlers. Liveness passes
// whenever the process runs; readiness requires SetReady plus every
// registered component check.
type HealthChecker struct {
	startTime time.Time
	ready     atomic.Bool

	mu     sync.RWMutex
	checks []Check
}

// New creates a HealthChecker.
func New() *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
	}
}

// SetReady marks the application as ready to serve traffic.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Register adds a component readiness check.
func (h *HealthChecker) Register(check Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, check)
}

// Response is the probe response body.
type Response struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Message string            `json:"message,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Health returns the liveness handler. It always reports 200 while the
// process is up.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Response{
			Status: "healthy",
			Uptime: time.Since(h.startTime).String(),
		})
	}
}

// Ready returns the readiness handler: 200 when ready and all component
// checks pass, 503 otherwise.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.ready.Load() {
			writeJSON(w, http.StatusServiceUnavailable, Response{
				Status:  "not_ready",
				Message: "application is starting",
			})
			return
		}

		h.mu.RLock()
		checks := make([]Check, len(h.checks))
		copy(checks, h.checks)
		h.mu.RUnlock()

		results := make(map[string]string, len(checks))
		healthy := true
		for _, c := range checks {
			if err := c.Probe(); err != nil {
				results[c.Name] = err.Error()
				healthy = false
			} else {
				results[c.Name] = "ok"
			}
		}

		if !healthy {
			writeJSON(w, http.StatusServiceUnavailable, Response{
				Status: "not_ready",
				Uptime: time.Since(h.startTime).String(),
				Checks: results,
			})
			return
		}

		writeJSON(w, http.StatusOK, Response{
			Status: "ready",
			Uptime: time.Since(h.startTime).String(),
			Checks: results,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
