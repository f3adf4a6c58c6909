package server

import (
	"context"
	"net/http"
	"time"
)

// HealthCheck probes one dependency of a service.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthStatus is the health endpoint response body.
type HealthStatus struct {
	Service   string        `json:"service"`
	Version   string        `json:"version"`
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []CheckResult `json:"checks"`
}

// CheckResult reports one dependency probe.
type CheckResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthHandler serves GET /health. The endpoint is unauthenticated: the
// gateway polls it to maintain the service registry. A failed dependency
// check degrades the status and the endpoint answers 503, which makes the
// gateway mark the service unhealthy.
func HealthHandler(service, version string, checks ...HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := HealthStatus{
			Service:   service,
			Version:   version,
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
			Checks:    make([]CheckResult, 0, len(checks)),
		}

		for _, check := range checks {
			result := CheckResult{Name: check.Name, Status: "up"}
			if err := check.Check(ctx); err != nil {
				result.Status = "down"
				result.Error = err.Error()
				status.Status = "degraded"
			}
			status.Checks = append(status.Checks, result)
		}

		code := http.StatusOK
		if status.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		WriteJSON(w, code, status)
	}
}
