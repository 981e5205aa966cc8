// Package health exposes the daemon's liveness/readiness/health HTTP
// endpoints.
package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// DongleStatus is the minimal surface the health checker needs from the
// dongle supervisor.
type DongleStatus interface {
	Scanning() bool
}

// Checker serves /health, /health/live, and /health/ready.
type Checker struct {
	dongle DongleStatus
	logger zerolog.Logger
}

func NewChecker(dongle DongleStatus, logger zerolog.Logger) *Checker {
	return &Checker{dongle: dongle, logger: logger.With().Str("component", "health-checker").Logger()}
}

type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Components map[string]string `json:"components"`
}

// HealthHandler reports overall status. The dongle manager has no
// "unhealthy" state of its own — the reconnect supervisor restarts ended
// sessions — so this endpoint only surfaces whether scanning is active,
// useful for dashboards rather than load-balancer routing decisions.
func (c *Checker) HealthHandler(w http.ResponseWriter, r *http.Request) {
	dongleState := "idle"
	if c.dongle.Scanning() {
		dongleState = "scanning"
	}

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Components: map[string]string{
			"dongle": dongleState,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		c.logger.Error().Err(err).Msg("failed to encode health response")
	}
}

// LiveHandler always reports 200 while the process can answer HTTP at all.
func (c *Checker) LiveHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadyHandler always reports ready: the reconnect supervisor keeps
// retrying on its own, so there is no dongle-absent state worth routing
// traffic away for.
func (c *Checker) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "ready",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
