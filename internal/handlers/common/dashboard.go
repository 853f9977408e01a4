package common

import (
	"net/http"

	"labdesk/internal/listing"
	"labdesk/internal/response"
)

// Dashboard handles GET /api/v1/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := h.LoadSnapshot(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, listing.Summarize(snap, h.now()))
}
