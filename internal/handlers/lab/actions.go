package lab

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"labdesk/internal/listing"
	"labdesk/internal/response"
	"labdesk/internal/services"
	"labdesk/internal/validation"
)

// DeactivateInstrument handles POST /api/v1/instruments/:id/deactivate.
func (h *Handler) DeactivateInstrument(w http.ResponseWriter, r *http.Request, id string) {
	inst, err := h.Registry.Instruments.Deactivate(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	h.record(r, "deactivate", "instruments", id, "Instrument "+id+" taken out of service")
	response.JSON(w, inst)
}

// InstrumentCalibrations handles GET /api/v1/instruments/:id/calibrations.
func (h *Handler) InstrumentCalibrations(w http.ResponseWriter, r *http.Request, id string) {
	items, err := h.Registry.Calibrations.ForInstrument(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	now := h.now()
	rows := make([]listing.CalibrationRow, len(items))
	for i, c := range items {
		rows[i] = listing.CalibrationRowFor(c, now)
	}
	response.JSON(w, rows)
}

// ConsumableTransactions handles GET /api/v1/consumables/:id/transactions.
func (h *Handler) ConsumableTransactions(w http.ResponseWriter, r *http.Request, id string) {
	items, err := h.Registry.Transactions.ForItem(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, items)
}

// DocumentAction handles POST /api/v1/documents/:id/{lock,unlock,download}.
func (h *Handler) DocumentAction(w http.ResponseWriter, r *http.Request, id, action string) {
	docs := h.Registry.Documents
	var err error
	var summary string
	var out any
	switch action {
	case "lock":
		out, err = docs.Lock(r.Context(), id)
		summary = "Locked document " + id
	case "unlock":
		out, err = docs.Unlock(r.Context(), id)
		summary = "Unlocked document " + id
	case "download":
		out, err = docs.RecordDownload(r.Context(), id)
		summary = "Downloaded document " + id
	default:
		response.Err(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		response.FromError(w, err)
		return
	}
	h.record(r, action, "documents", id, summary)
	response.JSON(w, out)
}

type closeRequest struct {
	Note string `json:"note"`
}

// CloseNC handles POST /api/v1/ncs/:id/close.
func (h *Handler) CloseNC(w http.ResponseWriter, r *http.Request, id string) {
	var req closeRequest
	// the note is optional, so is the body
	if err := response.DecodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		decodeErr(w)
		return
	}
	nc, err := h.Registry.NonConformances.Close(r.Context(), id, req.Note)
	if err != nil {
		response.FromError(w, err)
		return
	}
	h.record(r, "close", "ncs", id, "Closed NC "+id)
	response.JSON(w, nc)
}

type resultRequest struct {
	Value   *float64 `json:"value"`
	Remarks string   `json:"remarks"`
}

// RecordQCResult handles POST /api/v1/qc-checks/:id/results.
func (h *Handler) RecordQCResult(w http.ResponseWriter, r *http.Request, id string) {
	var req resultRequest
	if err := response.DecodeBody(r, &req); err != nil {
		decodeErr(w)
		return
	}
	if req.Value == nil {
		ve := &validation.ValidationErrors{}
		ve.Add("value", "is required")
		response.FromError(w, ve)
		return
	}
	check, err := h.Registry.QCChecks.GetByID(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	updated, err := h.Registry.QCChecks.RecordResult(r.Context(), check, *req.Value, req.Remarks)
	if err != nil {
		response.FromError(w, err)
		return
	}
	status, _ := services.Evaluate(check.AcceptanceRange, *req.Value)
	h.record(r, "record", "qc-checks", id, fmt.Sprintf("QC result %g (%s)", *req.Value, status))
	response.JSON(w, updated)
}

// GenerateReport handles POST /api/v1/reports/generate.
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var req services.GenerateRequest
	if err := response.DecodeBody(r, &req); err != nil {
		decodeErr(w)
		return
	}
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "reportType", req.ReportType)
	validation.ValidateDate(ve, "from", req.From)
	validation.ValidateDate(ve, "to", req.To)
	validation.ValidateDateOrder(ve, "to", req.From, req.To)
	if err := ve.Err(); err != nil {
		response.FromError(w, err)
		return
	}
	rep, err := h.Registry.Reports.Generate(r.Context(), req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	h.record(r, "generate", "reports", firstOf(rep.ID, rep.ReportID), "Generated "+req.ReportType+" report")
	response.Created(w, rep)
}
