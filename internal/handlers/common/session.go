package common

import (
	"net/http"

	"labdesk/internal/audit"
	"labdesk/internal/response"
	"labdesk/internal/validation"
)

type tokenRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SetTokens handles PUT /api/v1/session/tokens. The login page hands over
// the pair it received from the backend.
func (h *Handler) SetTokens(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := response.DecodeBody(r, &req); err != nil {
		response.Err(w, "invalid body", http.StatusBadRequest)
		return
	}
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "accessToken", req.AccessToken)
	if err := ve.Err(); err != nil {
		response.FromError(w, err)
		return
	}
	if err := h.Tokens.SetTokens(r.Context(), req.AccessToken, req.RefreshToken); err != nil {
		response.Err(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if h.Invalidate != nil {
		h.Invalidate(r.Context())
	}
	h.record(r, audit.ActionSession, "session", "", "Signed in")
	response.JSON(w, map[string]bool{"authenticated": true})
}

// ClearTokens handles DELETE /api/v1/session/tokens (logout).
func (h *Handler) ClearTokens(w http.ResponseWriter, r *http.Request) {
	if err := h.Tokens.Clear(r.Context()); err != nil {
		response.Err(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if h.Invalidate != nil {
		h.Invalidate(r.Context())
	}
	h.record(r, audit.ActionSession, "session", "", "Signed out")
	response.JSON(w, map[string]bool{"authenticated": false})
}
