package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/saudievents/server/internal/store"
)

// HealthCheck is the payload served by the health endpoints.
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// CheckResult is the outcome of a single readiness check.
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	Store   *store.Store
	Version string
}

func NewHealthHandler(st *store.Store, version string) *HealthHandler {
	return &HealthHandler{Store: st, Version: version}
}

// Healthz is the liveness probe: the process is up and serving.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthCheck{
		Status:    "ok",
		Version:   h.Version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Readyz is the readiness probe: the document file must be reachable.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]CheckResult{}
	status := "ok"
	httpStatus := http.StatusOK

	if _, err := os.Stat(h.Store.Path()); err != nil {
		checks["store"] = CheckResult{Status: "fail", Message: err.Error()}
		status = "unavailable"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = CheckResult{Status: "pass"}
	}

	writeJSON(w, httpStatus, HealthCheck{
		Status:    status,
		Version:   h.Version,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
