package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"blogchat/internal/contextutil"
)

// SessionCounter reports how many widget sessions are live.
type SessionCounter interface {
	Count() int
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	sessions SessionCounter
	now      func() time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(sessions SessionCounter) *HealthHandler {
	return &HealthHandler{sessions: sessions, now: time.Now}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status, always "healthy" while the process serves requests
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Number of live widget sessions
	Sessions int `json:"sessions"`
}

// ServeHTTP handles GET /api/health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Sessions:  h.sessions.Count(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}
