// Package lab serves the entity list pages and forms: instruments,
// calibrations, consumables, SOPs, QC checks, audits, NCs, documents,
// inventory transactions and reports.
package lab

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"labdesk/internal/audit"
	"labdesk/internal/export"
	"labdesk/internal/forms"
	"labdesk/internal/listing"
	"labdesk/internal/logging"
	"labdesk/internal/models"
	"labdesk/internal/response"
	"labdesk/internal/services"
)

// Handler holds dependencies for lab entity handlers.
type Handler struct {
	Registry *services.Registry
	Audit    *audit.Logger
	Log      *zap.Logger

	// Now is the clock used for derived fields; time.Now when nil.
	Now func() time.Time

	endpoints map[string]endpoint
}

// New builds a Handler over reg. auditLog and log may be nil.
func New(reg *services.Registry, auditLog *audit.Logger, log *zap.Logger, now func() time.Time) *Handler {
	h := &Handler{Registry: reg, Audit: auditLog, Log: logging.OrNop(log), Now: now}
	h.endpoints = h.buildEndpoints()
	return h
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *Handler) record(r *http.Request, action, module, id, summary string) {
	if h.Audit != nil {
		h.Audit.RecordRequest(r, action, module, id, summary)
	}
}

// Entities lists the path names served by Handler.
func (h *Handler) Entities() []string {
	return []string{
		"instruments", "calibrations", "consumables", "sops", "qc-checks",
		"audits", "ncs", "documents", "transactions", "reports",
	}
}

// Has reports whether entity is served by Handler.
func (h *Handler) Has(entity string) bool {
	_, ok := h.endpoints[entity]
	return ok
}

func (h *Handler) buildEndpoints() map[string]endpoint {
	reg := h.Registry
	return map[string]endpoint{
		"instruments": &entity[models.Instrument]{
			h: h, module: "instruments", res: reg.Instruments.Resource, match: listing.Instruments,
			form:   func(e *models.Instrument) forms.Form { return forms.NewInstrumentForm(e) },
			id:     func(i models.Instrument) string { return firstOf(i.ID, i.InstrumentID) },
			sheetF: plainSheet("Instruments", export.InstrumentColumns),
		},
		"calibrations": &entity[models.Calibration]{
			h: h, module: "calibrations", res: reg.Calibrations.Resource, match: listing.Calibrations,
			form: func(e *models.Calibration) forms.Form { return forms.NewCalibrationForm(e) },
			id:   func(c models.Calibration) string { return firstOf(c.ID, c.CalibrationID) },
			row:  func(c models.Calibration, now time.Time) any { return listing.CalibrationRowFor(c, now) },
			sheetF: func(items []models.Calibration, now time.Time) export.Sheet {
				return export.Build("Calibrations", export.CalibrationColumns, listing.CalibrationRows(items, now))
			},
		},
		"consumables": &entity[models.Consumable]{
			h: h, module: "consumables", res: reg.Consumables.Resource, match: listing.Consumables,
			form: func(e *models.Consumable) forms.Form { return forms.NewConsumableForm(e) },
			id:   func(c models.Consumable) string { return firstOf(c.ID, c.ItemID) },
			row: func(c models.Consumable, now time.Time) any {
				return listing.ConsumableRow{Consumable: c, ConsumableFlags: listing.FlagsFor(c, now)}
			},
			sheetF: func(items []models.Consumable, now time.Time) export.Sheet {
				return export.Build("Consumables", export.ConsumableColumns, listing.ConsumableRows(items, now))
			},
		},
		"sops": &entity[models.SOP]{
			h: h, module: "sops", res: reg.SOPs.Resource, match: listing.SOPs,
			form: func(e *models.SOP) forms.Form {
				f := forms.NewSOPForm(e)
				f.Clock = h.now
				return f
			},
			id:     func(s models.SOP) string { return firstOf(s.ID, s.SOPID) },
			sheetF: plainSheet("SOPs", export.SOPColumns),
		},
		"qc-checks": &entity[models.QCCheck]{
			h: h, module: "qc-checks", res: reg.QCChecks.Resource, match: listing.QCChecks,
			form:   func(e *models.QCCheck) forms.Form { return forms.NewQCCheckForm(e) },
			id:     func(q models.QCCheck) string { return firstOf(q.ID, q.QCID) },
			sheetF: plainSheet("QC Checks", export.QCCheckColumns),
		},
		"audits": &entity[models.Audit]{
			h: h, module: "audits", res: reg.Audits.Resource, match: listing.Audits,
			form:   func(e *models.Audit) forms.Form { return forms.NewAuditForm(e) },
			id:     func(a models.Audit) string { return firstOf(a.ID, a.AuditID) },
			sheetF: plainSheet("Audits", export.AuditColumns),
		},
		"ncs": &entity[models.NonConformance]{
			h: h, module: "ncs", res: reg.NonConformances.Resource, match: listing.NonConformances,
			form: func(e *models.NonConformance) forms.Form {
				f := forms.NewNCForm(e)
				f.Clock = h.now
				return f
			},
			id: func(n models.NonConformance) string { return firstOf(n.ID, n.NCID) },
			row: func(n models.NonConformance, now time.Time) any {
				return listing.NCRows([]models.NonConformance{n}, now)[0]
			},
			sheetF: func(items []models.NonConformance, now time.Time) export.Sheet {
				return export.Build("Non-Conformances", export.NCColumns, listing.NCRows(items, now))
			},
		},
		"documents": &entity[models.Document]{
			h: h, module: "documents", res: reg.Documents.Resource, match: listing.Documents,
			form:   func(e *models.Document) forms.Form { return forms.NewDocumentForm(e) },
			id:     func(d models.Document) string { return firstOf(d.ID, d.DocumentID) },
			sheetF: plainSheet("Documents", export.DocumentColumns),
		},
		"transactions": &entity[models.InventoryTransaction]{
			h: h, module: "transactions", res: reg.Transactions.Resource, match: listing.Transactions,
			form:   func(e *models.InventoryTransaction) forms.Form { return forms.NewTransactionForm(e) },
			id:     func(t models.InventoryTransaction) string { return firstOf(t.ID, t.TransactionID) },
			sheetF: plainSheet("Transactions", export.TransactionColumns),
		},
		"reports": &entity[models.Report]{
			h: h, module: "reports", res: reg.Reports.Resource, match: listing.Reports,
			id:     func(r models.Report) string { return firstOf(r.ID, r.ReportID) },
			sheetF: plainSheet("Reports", export.ReportColumns),
		},
	}
}

// List handles GET /api/v1/<entity>.
func (h *Handler) List(w http.ResponseWriter, r *http.Request, name string) {
	h.endpoints[name].list(w, r)
}

// Get handles GET /api/v1/<entity>/:id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, name, id string) {
	h.endpoints[name].get(w, r, id)
}

// Create handles POST /api/v1/<entity>.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request, name string) {
	h.endpoints[name].create(w, r)
}

// Update handles PUT /api/v1/<entity>/:id.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request, name, id string) {
	h.endpoints[name].update(w, r, id)
}

// Delete handles DELETE /api/v1/<entity>/:id.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, name, id string) {
	h.endpoints[name].remove(w, r, id)
}

// Sheet builds the export of one list page, filtered like the page.
func (h *Handler) Sheet(ctx context.Context, name string, v url.Values) (export.Sheet, error) {
	return h.endpoints[name].sheet(ctx, v)
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func plainSheet[T any](name string, cols []export.Column[T]) func([]T, time.Time) export.Sheet {
	return func(items []T, _ time.Time) export.Sheet { return export.Build(name, cols, items) }
}

func decodeErr(w http.ResponseWriter) {
	response.Err(w, "invalid body", http.StatusBadRequest)
}
