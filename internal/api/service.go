package api

import (
	"database/sql"
	"net/http"
)

// Version is reported by the API index.
const Version = "1.0"

// ServiceHandler serves the API index and health check.
type ServiceHandler struct {
	DB *sql.DB
}

// Index handles GET /api.
func (h *ServiceHandler) Index(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{
		"message": "Music Shop API",
		"version": Version,
		"endpoints": map[string]string{
			"health":       "/api/health",
			"albums":       "/api/albums",
			"musicians":    "/api/musicians",
			"ensembles":    "/api/ensembles",
			"compositions": "/api/compositions",
			"recordings":   "/api/recordings",
			"inventories":  "/api/inventories",
			"sales":        "/api/sales",
			"topSelling":   "/api/top-selling",
		},
	})
}

// Health handles GET /api/health.
func (h *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.PingContext(r.Context()); err != nil {
		writeError(w, r, err, "database unavailable")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
