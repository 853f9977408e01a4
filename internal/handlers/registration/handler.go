// Package registration serves the organization registration wizard.
package registration

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"labdesk/internal/audit"
	"labdesk/internal/response"
	"labdesk/internal/validation"
	"labdesk/internal/wizard"
)

// SessionIndex lists and removes stored registrations.
type SessionIndex interface {
	List(ctx context.Context) ([]wizard.Session, error)
	Delete(ctx context.Context, id string) error
}

// Handler holds dependencies for registration handlers.
type Handler struct {
	Wizard   *wizard.Manager
	Sessions SessionIndex
	Audit    *audit.Logger
}

// StepView is a session with what the current step needs to render.
type StepView struct {
	Session   *wizard.Session              `json:"session"`
	Title     string                       `json:"title"`
	Errors    []validation.ValidationError `json:"errors"`
	Checklist []wizard.ChecklistItem       `json:"checklist,omitempty"`
	Complete  bool                         `json:"complete"`
}

func viewOf(s *wizard.Session) StepView {
	v := StepView{
		Session: s,
		Title:   wizard.StepTitles[s.CurrentStep],
		Errors:  wizard.Fields(s.State, s.CurrentStep),
	}
	if v.Errors == nil {
		v.Errors = []validation.ValidationError{}
	}
	items := s.Checklist()
	v.Complete = wizard.Complete(items)
	if s.CurrentStep == wizard.StepChecklist {
		v.Checklist = items
	}
	return v
}

func (h *Handler) record(r *http.Request, action, id, summary string) {
	if h.Audit != nil {
		h.Audit.RecordRequest(r, action, "registration", id, summary)
	}
}

// decodeState reads an optional State body. ok is false when the body was
// empty.
func decodeState(r *http.Request) (state wizard.State, ok bool, err error) {
	err = json.NewDecoder(r.Body).Decode(&state)
	if errors.Is(err, io.EOF) {
		return state, false, nil
	}
	return state, err == nil, err
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request, id string) (*wizard.Session, bool) {
	s, err := h.Wizard.Load(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return nil, false
	}
	return s, true
}

// applyBody replaces the session's state with the request body, if any.
func (h *Handler) applyBody(w http.ResponseWriter, r *http.Request, s *wizard.Session) bool {
	state, ok, err := decodeState(r)
	if err != nil {
		response.Err(w, "invalid body", http.StatusBadRequest)
		return false
	}
	if !ok {
		return true
	}
	if err := h.Wizard.Edit(s, state); err != nil {
		response.FromError(w, err)
		return false
	}
	return true
}

// List handles GET /api/v1/registration.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Sessions.List(r.Context())
	if err != nil {
		response.Err(w, err.Error(), http.StatusInternalServerError)
		return
	}
	response.JSON(w, items)
}

// Start handles POST /api/v1/registration.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	s, err := h.Wizard.Start(r.Context())
	if err != nil {
		response.Err(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.record(r, audit.ActionCreate, s.ID, "Started registration")
	response.Created(w, viewOf(s))
}

// Get handles GET /api/v1/registration/:id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, id string) {
	s, ok := h.load(w, r, id)
	if !ok {
		return
	}
	response.JSON(w, viewOf(s))
}

// Save handles PUT /api/v1/registration/:id. The body is the whole form.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request, id string) {
	s, ok := h.load(w, r, id)
	if !ok || !h.applyBody(w, r, s) {
		return
	}
	if err := h.Wizard.Save(r.Context(), s); err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, viewOf(s))
}

// Delete handles DELETE /api/v1/registration/:id.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.Sessions.Delete(r.Context(), id); err != nil {
		response.Err(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.record(r, audit.ActionDelete, id, "Discarded registration")
	response.JSON(w, map[string]string{"status": "deleted"})
}

// Next handles POST /api/v1/registration/:id/next: validate the current
// step, advance and persist. An optional body replaces the form first.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request, id string) {
	s, ok := h.load(w, r, id)
	if !ok || !h.applyBody(w, r, s) {
		return
	}
	if err := h.Wizard.SaveAndNext(r.Context(), s); err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, viewOf(s))
}

// Back handles POST /api/v1/registration/:id/back.
func (h *Handler) Back(w http.ResponseWriter, r *http.Request, id string) {
	s, ok := h.load(w, r, id)
	if !ok {
		return
	}
	s.Back()
	if err := h.Wizard.Save(r.Context(), s); err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, viewOf(s))
}

// GoTo handles POST /api/v1/registration/:id/goto?step=N.
func (h *Handler) GoTo(w http.ResponseWriter, r *http.Request, id string) {
	step, err := strconv.Atoi(r.URL.Query().Get("step"))
	if err != nil {
		response.Err(w, "step must be a number", http.StatusBadRequest)
		return
	}
	s, ok := h.load(w, r, id)
	if !ok {
		return
	}
	if err := s.GoTo(step); err != nil {
		response.FromError(w, err)
		return
	}
	if err := h.Wizard.Save(r.Context(), s); err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, viewOf(s))
}

// Checklist handles GET /api/v1/registration/:id/checklist.
func (h *Handler) Checklist(w http.ResponseWriter, r *http.Request, id string) {
	s, ok := h.load(w, r, id)
	if !ok {
		return
	}
	items := s.Checklist()
	response.JSON(w, map[string]any{"items": items, "complete": wizard.Complete(items)})
}

// Submit handles POST /api/v1/registration/:id/submit.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request, id string) {
	s, ok := h.load(w, r, id)
	if !ok || !h.applyBody(w, r, s) {
		return
	}
	if err := h.Wizard.Submit(r.Context(), s); err != nil {
		response.FromError(w, err)
		return
	}
	h.record(r, audit.ActionSubmit, id, "Submitted registration for "+s.State.LabDetails.LabName)
	response.JSON(w, viewOf(s))
}

func validList(name string) bool {
	for _, l := range wizard.ListNames() {
		if l == name {
			return true
		}
	}
	return false
}

// EditList handles POST /registration/:id/lists/:list (add) and PUT or
// DELETE on /registration/:id/lists/:list/:itemId.
func (h *Handler) EditList(w http.ResponseWriter, r *http.Request, id, list, itemID string, op wizard.ListOp) {
	if !validList(list) {
		response.Err(w, "unknown list "+list, http.StatusNotFound)
		return
	}
	s, ok := h.load(w, r, id)
	if !ok {
		return
	}
	var raw json.RawMessage
	if op != wizard.OpRemove {
		if err := response.DecodeBody(r, &raw); err != nil {
			response.Err(w, "invalid body", http.StatusBadRequest)
			return
		}
	}
	itemID, err := h.Wizard.EditList(s, list, op, itemID, raw)
	if err != nil {
		var syntax *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntax) || errors.As(err, &typeErr) {
			response.Err(w, err.Error(), http.StatusBadRequest)
			return
		}
		response.FromError(w, err)
		return
	}
	if err := h.Wizard.Save(r.Context(), s); err != nil {
		response.FromError(w, err)
		return
	}
	body := map[string]any{"itemId": itemID, "view": viewOf(s)}
	if op == wizard.OpAdd {
		response.Created(w, body)
		return
	}
	response.JSON(w, body)
}
