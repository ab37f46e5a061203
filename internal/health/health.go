// Package health serves liveness and readiness probes. Liveness only checks
// that the process is running and not draining; readiness additionally runs
// the registered component checks, typically the exporter connections.
package health

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports nil when its component can serve traffic.
type CheckFunc func() error

// Component is one named check result in a probe response.
type Component struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Response is the JSON body of a probe.
type Response struct {
	Status     string      `json:"status"`
	Components []Component `json:"components,omitempty"`
	Timestamp  string      `json:"timestamp"`
}

// Checker aggregates component checks behind /live and /ready handlers.
type Checker struct {
	mu       sync.RWMutex
	checks   map[string]CheckFunc
	draining atomic.Bool
}

// New creates an empty Checker.
func New() *Checker {
	return &Checker{checks: make(map[string]CheckFunc)}
}

// Register adds a named readiness check. Checks run on every /ready request.
func (c *Checker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// SetDraining marks the process as shutting down; both probes then fail so
// load balancers stop routing here while in-flight calls finish.
func (c *Checker) SetDraining() {
	c.draining.Store(true)
}

// LiveHandler serves the liveness probe.
func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c.draining.Load() {
			writeResponse(w, http.StatusServiceUnavailable, Response{
				Status:    "draining",
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
		writeResponse(w, http.StatusOK, Response{
			Status:    "up",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// ReadyHandler serves the readiness probe.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c.draining.Load() {
			writeResponse(w, http.StatusServiceUnavailable, Response{
				Status:    "draining",
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			})
			return
		}

		components, up := c.runChecks()
		status, code := "up", http.StatusOK
		if !up {
			status, code = "down", http.StatusServiceUnavailable
		}
		writeResponse(w, code, Response{
			Status:     status,
			Components: components,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func (c *Checker) runChecks() ([]Component, bool) {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, fn := range c.checks {
		names = append(names, name)
		checks[name] = fn
	}
	c.mu.RUnlock()
	sort.Strings(names)

	up := true
	components := make([]Component, 0, len(names))
	for _, name := range names {
		comp := Component{Name: name, Status: "up"}
		if err := checks[name](); err != nil {
			comp.Status = "down"
			comp.Error = err.Error()
			up = false
		}
		components = append(components, comp)
	}
	return components, up
}

func writeResponse(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
