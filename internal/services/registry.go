package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"labdesk/internal/apiclient"
	"labdesk/internal/cache"
	"labdesk/internal/models"
)

// Registry holds every domain client, built over one API client and one cache.
type Registry struct {
	Instruments     *Instruments
	Calibrations    *Calibrations
	Consumables     *Consumables
	SOPs            *SOPs
	QCChecks        *QCChecks
	Audits          *Audits
	NonConformances *NonConformances
	Documents       *Documents
	Transactions    *Transactions
	Reports         *Reports

	// Calendar sources, read as untyped records.
	TestPlans      *Resource[models.Record]
	TestExecutions *Resource[models.Record]
	AuditRecords   *Resource[models.Record]
	Certifications *Resource[models.Record]
	Projects       *Resource[models.Record]
	Samples        *Resource[models.Record]
	RFQs           *Resource[models.Record]
}

// NewRegistry wires all clients. now defaults to time.Now.
func NewRegistry(client apiclient.Doer, c cache.Cache, log *zap.Logger, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		Instruments:     &Instruments{NewResource[models.Instrument]("instruments", "/api/instruments", client, c, log)},
		Calibrations:    &Calibrations{NewResource[models.Calibration]("calibrations", "/api/calibrations", client, c, log)},
		Consumables:     &Consumables{NewResource[models.Consumable]("consumables", "/api/consumables", client, c, log)},
		SOPs:            &SOPs{NewResource[models.SOP]("sops", "/api/sops", client, c, log)},
		QCChecks:        &QCChecks{NewResource[models.QCCheck]("qc-checks", "/api/qc-checks", client, c, log), now},
		Audits:          &Audits{NewResource[models.Audit]("audits", "/api/audits", client, c, log)},
		NonConformances: &NonConformances{NewResource[models.NonConformance]("ncs", "/api/ncs", client, c, log), now},
		Documents:       &Documents{NewResource[models.Document]("documents", "/api/documents", client, c, log)},
		Transactions:    &Transactions{NewResource[models.InventoryTransaction]("transactions", "/api/inventory-transactions", client, c, log)},
		Reports:         &Reports{NewResource[models.Report]("reports", "/api/reports", client, c, log)},

		TestPlans:      NewResource[models.Record]("test-plans", "/api/test-plans", client, c, log),
		TestExecutions: NewResource[models.Record]("test-executions", "/api/test-executions", client, c, log),
		AuditRecords:   NewResource[models.Record]("audits", "/api/audits", client, c, log),
		Certifications: NewResource[models.Record]("certifications", "/api/certifications", client, c, log),
		Projects:       NewResource[models.Record]("projects", "/api/projects", client, c, log),
		Samples:        NewResource[models.Record]("samples", "/api/samples", client, c, log),
		RFQs:           NewResource[models.Record]("rfqs", "/api/rfqs", client, c, log),
	}
}

// InvalidateAll drops every cached list, e.g. after a different user signs in.
func (r *Registry) InvalidateAll(ctx context.Context) {
	r.Instruments.Invalidate(ctx)
	r.Calibrations.Invalidate(ctx)
	r.Consumables.Invalidate(ctx)
	r.SOPs.Invalidate(ctx)
	r.QCChecks.Invalidate(ctx)
	r.Audits.Invalidate(ctx)
	r.NonConformances.Invalidate(ctx)
	r.Documents.Invalidate(ctx)
	r.Transactions.Invalidate(ctx)
	r.Reports.Invalidate(ctx)
	for _, res := range []*Resource[models.Record]{
		r.TestPlans, r.TestExecutions, r.AuditRecords, r.Certifications, r.Projects, r.Samples, r.RFQs,
	} {
		res.Invalidate(ctx)
	}
}
