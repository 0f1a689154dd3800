package handlers

import (
	"context"
	"net/http"
	"os"
	"sync"
	"time"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// StartupStatus tracks the initialization progress
type StartupStatus struct {
	mu      sync.RWMutex
	ready   bool
	current string
	steps   []StartupStep
}

type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// NewStartupStatus creates a tracker for the named steps
func NewStartupStatus(steps ...string) *StartupStatus {
	s := &StartupStatus{current: "Initializing..."}
	for _, name := range steps {
		s.steps = append(s.steps, StartupStep{Name: name})
	}
	return s
}

// SetCurrentStep updates the current initialization step
func (s *StartupStatus) SetCurrentStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = step
}

// CompleteStep marks a step as completed
func (s *StartupStatus) CompleteStep(stepName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.steps {
		if s.steps[i].Name == stepName {
			s.steps[i].Completed = true
			break
		}
	}
}

// MarkReady marks the server as fully initialized
func (s *StartupStatus) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	s.current = "Server ready"
}

// IsReady returns whether the server is fully initialized
func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *StartupStatus) snapshot() (bool, string, int, []StartupStep) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	completed := 0
	for _, step := range s.steps {
		if step.Completed {
			completed++
		}
	}
	progress := 100
	if len(s.steps) > 0 && !s.ready {
		progress = completed * 100 / len(s.steps)
	}
	return s.ready, s.current, progress, append([]StartupStep(nil), s.steps...)
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	startup   *StartupStatus
	checks    map[string]HealthCheck
	startTime time.Time
	version   string
}

// NewHealthHandler creates a health handler. Every check must pass for the
// service to report ready.
func NewHealthHandler(startup *StartupStatus, checks map[string]HealthCheck) *HealthHandler {
	version := os.Getenv("APP_VERSION")
	if version == "" {
		version = "unknown"
	}
	return &HealthHandler{
		startup:   startup,
		checks:    checks,
		startTime: time.Now(),
		version:   version,
	}
}

// HealthResponse follows Kubernetes health check conventions
type HealthResponse struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Uptime    string           `json:"uptime"`
	Version   string           `json:"version"`
	Checks    map[string]Check `json:"checks"`
}

type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type ReadyResponse struct {
	Status   string           `json:"status"`
	Current  string           `json:"current"`
	Progress int              `json:"progress"`
	Steps    []StartupStep    `json:"steps"`
	Checks   map[string]Check `json:"checks"`
}

// Health confirms the process is running
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, HealthResponse{
		Status:    "UP",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version,
		Checks:    map[string]Check{"process": {Status: "UP"}},
	})
}

// Live is an alias for Health
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	h.Health(w, r)
}

// Ready reports 503 until startup has finished and every dependency answers
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ready, current, progress, steps := h.startup.snapshot()
	resp := ReadyResponse{
		Status:   "UP",
		Current:  current,
		Progress: progress,
		Steps:    steps,
		Checks:   make(map[string]Check, len(h.checks)),
	}
	if !ready {
		resp.Status = "STARTING"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Checks[name] = Check{Status: "DOWN", Message: "Cannot connect to " + name}
			resp.Status = "DOWN"
			continue
		}
		resp.Checks[name] = Check{Status: "UP"}
	}

	status := http.StatusOK
	if resp.Status != "UP" {
		status = http.StatusServiceUnavailable
	}
	respondWithJSON(w, status, resp)
}
