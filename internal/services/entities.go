package services

import (
	"context"
	"net/url"
	"time"

	"labdesk/internal/models"
)

// Instruments is the instrument register client.
type Instruments struct {
	*Resource[models.Instrument]
}

// Deactivate moves an instrument out of service. It is the only status
// transition the client performs.
func (s *Instruments) Deactivate(ctx context.Context, id string) (models.Instrument, error) {
	return s.Action(ctx, id, "deactivate", nil)
}

type Calibrations struct {
	*Resource[models.Calibration]
}

// ForInstrument lists calibration records of one instrument.
func (s *Calibrations) ForInstrument(ctx context.Context, instrumentID string) ([]models.Calibration, error) {
	return s.GetAll(ctx, url.Values{"instrumentId": {instrumentID}})
}

type Consumables struct {
	*Resource[models.Consumable]
}

type SOPs struct {
	*Resource[models.SOP]
}

type Audits struct {
	*Resource[models.Audit]
}

// NonConformances is the NC/CAPA client.
type NonConformances struct {
	*Resource[models.NonConformance]
	now func() time.Time
}

// Close marks the NC closed and stamps today's closure date.
func (s *NonConformances) Close(ctx context.Context, id, note string) (models.NonConformance, error) {
	body := map[string]string{
		"status":      "Closed",
		"closureDate": s.now().Format("2006-01-02"),
	}
	if note != "" {
		body["closureNote"] = note
	}
	return s.Action(ctx, id, "close", body)
}

// Documents is the document control client.
type Documents struct {
	*Resource[models.Document]
}

func (s *Documents) Lock(ctx context.Context, id string) (models.Document, error) {
	return s.Action(ctx, id, "lock", nil)
}

func (s *Documents) Unlock(ctx context.Context, id string) (models.Document, error) {
	return s.Action(ctx, id, "unlock", nil)
}

// RecordDownload bumps the document's download counter.
func (s *Documents) RecordDownload(ctx context.Context, id string) (models.Document, error) {
	return s.Action(ctx, id, "download", nil)
}

// Transactions is the inventory transaction log. Stock levels are adjusted
// by the backend, never here.
type Transactions struct {
	*Resource[models.InventoryTransaction]
}

func (s *Transactions) ForItem(ctx context.Context, itemID string) ([]models.InventoryTransaction, error) {
	return s.GetAll(ctx, url.Values{"itemId": {itemID}})
}

type Reports struct {
	*Resource[models.Report]
}

// GenerateRequest asks the backend to build a report.
type GenerateRequest struct {
	ReportType string `json:"reportType"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	Format     string `json:"format,omitempty"`
}

func (s *Reports) Generate(ctx context.Context, req GenerateRequest) (models.Report, error) {
	defer s.invalidate(ctx)
	var out models.Report
	err := s.client.Post(ctx, s.path+"/generate", req, &out)
	return out, err
}
