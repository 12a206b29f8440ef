package handlers

import (
	"net/http"
	"strconv"

	"github.com/fieldstone/gatekeeper/internal/services"
	"github.com/fieldstone/gatekeeper/pkg/httpx"
)

// AuditHandler exposes the admin audit trail view
type AuditHandler struct {
	audit *services.AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// ListRecent handles GET /api/admin/audit-logs (admin only)
func (h *AuditHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	entries, err := h.audit.ListRecent(r.Context(), limit)
	if err != nil {
		httpx.WriteInternalError(w, "internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}
