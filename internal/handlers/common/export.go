package common

import (
	"bytes"
	"fmt"
	"net/http"

	"labdesk/internal/audit"
	"labdesk/internal/export"
	"labdesk/internal/response"
)

// Export handles GET /api/v1/export/:entity. The list filters of the page
// (search, status, category) apply to the workbook too.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request, entity string) {
	sheet, ok, err := h.Sheet(r.Context(), entity, r.URL.Query())
	if !ok {
		response.Err(w, "cannot export "+entity, http.StatusNotFound)
		return
	}
	if err != nil {
		response.FromError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, sheet); err != nil {
		response.Err(w, "failed to generate Excel file", http.StatusInternalServerError)
		return
	}

	h.record(r, audit.ActionExport, entity, "", fmt.Sprintf("Exported %d %s rows to xlsx", len(sheet.Rows), entity))

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(entity)))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	buf.WriteTo(w)
}
