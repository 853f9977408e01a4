package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"labdesk/internal/apiclient"
	"labdesk/internal/models"
	"labdesk/internal/validation"
	"labdesk/internal/wizard"
)

// JSON writes a successful API response with the given data.
func JSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.APIResponse{Data: data})
}

// Created writes data with 201.
func Created(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.APIResponse{Data: data})
}

// JSONMeta writes a list response with its metadata.
func JSONMeta(w http.ResponseWriter, data interface{}, meta *models.Meta) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.APIResponse{Data: data, Meta: meta})
}

// Err writes a JSON error response with the given message and HTTP status code.
func Err(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// FromError maps service, validation and wizard errors to a response.
// Validation failures carry the field list next to the first message.
func FromError(w http.ResponseWriter, err error) {
	var (
		ve  *validation.ValidationErrors
		se  *wizard.StepError
		ae  *apiclient.APIError
		enc = func(code int, body any) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			json.NewEncoder(w).Encode(body)
		}
	)
	switch {
	case errors.Is(err, apiclient.ErrSessionExpired):
		enc(http.StatusUnauthorized, map[string]string{"error": "session expired", "redirect": "/"})
	case errors.As(err, &ve):
		enc(http.StatusBadRequest, map[string]any{"error": ve.First(), "fields": ve.Errors})
	case errors.As(err, &se):
		enc(http.StatusUnprocessableEntity, map[string]any{"error": se.Message, "step": se.Step, "field": se.Field})
	case errors.Is(err, wizard.ErrSessionNotFound), errors.Is(err, wizard.ErrItemNotFound):
		Err(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, wizard.ErrSubmitted):
		Err(w, err.Error(), http.StatusConflict)
	case errors.As(err, &ae):
		code := ae.Status
		if code < 400 || code > 599 {
			code = http.StatusBadGateway
		}
		Err(w, ae.Message, code)
	default:
		Err(w, err.Error(), http.StatusBadGateway)
	}
}

// DecodeBody decodes a JSON request body into the given value.
func DecodeBody(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
