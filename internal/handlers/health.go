package handlers

import (
	"net/http"
)

// HealthHandler responds with service health information.
type HealthHandler struct{}

// Handle implements GET /healthz.
func (HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Index implements GET /, a short description of the API surface.
func (HealthHandler) Index(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, map[string]any{
		"message": "API-First Video App",
		"endpoints": map[string]string{
			"POST /auth/signup": "Register user",
			"POST /auth/login":  "Login user",
			"GET /auth/me":      "Current user (JWT required)",
			"POST /auth/logout": "Logout (JWT required)",
			"GET /dashboard":    "Get videos (JWT required)",
			"GET /video/<id>":   "Get video with hidden URL (JWT required)",
		},
	})
}
