package common

import (
	"net/http"
	"strconv"

	"labdesk/internal/audit"
	"labdesk/internal/models"
	"labdesk/internal/response"
)

// AuditLog handles GET /api/v1/audit?module=&action=&limit=.
func (h *Handler) AuditLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := audit.Filter{Module: q.Get("module"), Action: q.Get("action")}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			response.Err(w, "limit must be a number", http.StatusBadRequest)
			return
		}
		f.Limit = n
	}
	entries, err := h.Audit.List(r.Context(), f)
	if err != nil {
		response.Err(w, err.Error(), http.StatusInternalServerError)
		return
	}
	response.JSONMeta(w, entries, &models.Meta{Total: len(entries)})
}
