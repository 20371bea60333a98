// Package handlers provides HTTP request handlers for the vector database API.
package handlers

import (
	"net/http"
	"runtime"
	"time"

	"vectorbase/internal/api/response"
	"vectorbase/internal/config"
)

// HealthHandler provides health check functionality
type HealthHandler struct {
	config    *config.Config
	startTime time.Time
}

// HealthStatus represents the health check response structure
type HealthStatus struct {
	Status      string           `json:"status"`
	Server      string           `json:"server"`
	Version     string           `json:"version"`
	Environment string           `json:"environment"`
	Uptime      string           `json:"uptime"`
	Timestamp   string           `json:"timestamp"`
	Checks      map[string]Check `json:"checks"`
	System      SystemInfo       `json:"system"`
}

// Check represents an individual health check result
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// SystemInfo represents system information
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	MemoryMB     uint64 `json:"memory_mb"`
}

// NewHealthHandler creates a new health check handler
func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{
		config:    cfg,
		startTime: time.Now(),
	}
}

// Handle processes health check requests
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	status := h.buildHealthStatus()

	statusCode := http.StatusOK
	if status.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response.WriteSuccess(w, status)
}

// HandleReadiness reports whether the service is ready to accept traffic.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	response.WriteSuccess(w, map[string]string{"status": "ready"})
}

// HandleLiveness reports that the process is alive.
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	response.WriteSuccess(w, map[string]string{"status": "alive"})
}

func (h *HealthHandler) buildHealthStatus() HealthStatus {
	checks := map[string]Check{
		"memory": h.checkMemory(),
		"config": h.checkConfiguration(),
	}
	return HealthStatus{
		Status:      h.determineOverallStatus(checks),
		Server:      "vectorbase",
		Version:     "1.0",
		Environment: h.getEnvironment(),
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Checks:      checks,
		System:      h.getSystemInfo(),
	}
}

func (h *HealthHandler) getEnvironment() string {
	if h.config.Server.Host == "localhost" || h.config.Server.Host == "127.0.0.1" {
		return "development"
	}
	return "production"
}

func (h *HealthHandler) checkMemory() Check {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	memoryMB := m.Alloc / 1024 / 1024
	if memoryMB > 500 {
		return Check{Status: "warning", Message: "high memory usage"}
	}
	return Check{Status: "healthy", Message: "memory usage normal"}
}

func (h *HealthHandler) checkConfiguration() Check {
	if err := h.config.Validate(); err != nil {
		return Check{Status: "warning", Message: "configuration validation warning: " + err.Error()}
	}
	return Check{Status: "healthy", Message: "configuration valid"}
}

func (h *HealthHandler) getSystemInfo() SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		MemoryMB:     m.Alloc / 1024 / 1024,
	}
}

func (h *HealthHandler) determineOverallStatus(checks map[string]Check) string {
	hasWarning := false
	for _, check := range checks {
		if check.Status == "unhealthy" {
			return "unhealthy"
		}
		if check.Status == "warning" {
			hasWarning = true
		}
	}
	if hasWarning {
		return "warning"
	}
	return "healthy"
}
