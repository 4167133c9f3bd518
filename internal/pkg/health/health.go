package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

type ComponentHealth struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

type Response struct {
	Status     Status                     `json:"status"`
	Version    string                     `json:"version"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
}

// Checker interface for health checks
type Checker interface {
	Check(ctx context.Context) ComponentHealth
	Name() string
}

// Handler serves /health, /health/live and /health/ready from the
// registered checkers.
type Handler struct {
	version  string
	timeout  time.Duration
	mu       sync.RWMutex
	checkers []Checker
}

func NewHandler(version string) *Handler {
	return &Handler{version: version, timeout: 5 * time.Second}
}

func (h *Handler) Register(c Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers = append(h.checkers, c)
}

func (h *Handler) snapshot() []Checker {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Checker(nil), h.checkers...)
}

// Health returns detailed component status. Degraded components still
// answer 200.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	components := make(map[string]ComponentHealth)
	overall := StatusHealthy
	for _, c := range h.snapshot() {
		res := c.Check(ctx)
		components[c.Name()] = res

		if res.Status == StatusUnhealthy {
			overall = StatusUnhealthy
		} else if res.Status == StatusDegraded && overall == StatusHealthy {
			overall = StatusDegraded
		}
	}

	code := http.StatusOK
	if overall == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, Response{
		Status:     overall,
		Version:    h.version,
		Timestamp:  time.Now(),
		Components: components,
	})
}

func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	for _, c := range h.snapshot() {
		if c.Check(ctx).Status == StatusUnhealthy {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// PingChecker reports a dependency by calling its ping function. A failing
// optional dependency degrades the service instead of failing readiness.
type PingChecker struct {
	name     string
	ping     func(ctx context.Context) error
	optional bool
}

func NewPingChecker(name string, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping}
}

// NewOptionalChecker is a PingChecker whose failure only degrades the service.
func NewOptionalChecker(name string, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping, optional: true}
}

func (p *PingChecker) Name() string { return p.name }

func (p *PingChecker) Check(ctx context.Context) ComponentHealth {
	start := time.Now()
	err := p.ping(ctx)
	latency := time.Since(start)

	if err == nil {
		return ComponentHealth{Status: StatusHealthy, Latency: latency.String()}
	}
	status := StatusUnhealthy
	if p.optional {
		status = StatusDegraded
	}
	return ComponentHealth{
		Status:  status,
		Message: fmt.Sprintf("%s ping failed: %v", p.name, err),
		Latency: latency.String(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
