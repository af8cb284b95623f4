// health.go - Liveness and readiness endpoints.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

type componentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]componentHealth `json:"components,omitempty"`
}

// handleHealth is the liveness probe: the process is up.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", Version: s.cfg.Build.Version})
}

// handleReady is the readiness probe: the database and the storage bucket
// must both answer. Any component down yields a 503.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]componentHealth)
	healthy := true

	if s.cfg.DB != nil {
		if err := s.cfg.DB.PingContext(ctx); err != nil {
			components["database"] = componentHealth{Status: "down", Message: err.Error()}
			healthy = false
		} else {
			components["database"] = componentHealth{Status: "up"}
		}
	} else {
		components["database"] = componentHealth{Status: "down", Message: "not configured"}
		healthy = false
	}

	if s.cfg.Storage != nil {
		exists, err := s.cfg.Storage.Client.BucketExists(ctx, s.cfg.Storage.Bucket)
		switch {
		case err != nil:
			components["storage"] = componentHealth{Status: "down", Message: err.Error()}
			healthy = false
		case !exists:
			components["storage"] = componentHealth{Status: "down", Message: "bucket missing"}
			healthy = false
		default:
			components["storage"] = componentHealth{Status: "up"}
		}
	} else {
		components["storage"] = componentHealth{Status: "down", Message: "not configured"}
		healthy = false
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(healthResponse{
		Status:     status,
		Version:    s.cfg.Build.Version,
		Components: components,
	})
}
