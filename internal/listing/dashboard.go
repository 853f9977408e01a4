package listing

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"labdesk/internal/models"
	"labdesk/internal/services"
)

// Dashboard is the summary shown on the landing page.
type Dashboard struct {
	TotalInstruments      int            `json:"totalInstruments"`
	InstrumentsByStatus   map[string]int `json:"instrumentsByStatus"`
	CalibrationCompliance float64        `json:"calibrationCompliance"`
	CalibrationsOverdue   int            `json:"calibrationsOverdue"`
	CalibrationsDueSoon   int            `json:"calibrationsDueSoon"`
	LowStockItems         int            `json:"lowStockItems"`
	ExpiredItems          int            `json:"expiredItems"`
	ExpiringSoonItems     int            `json:"expiringSoonItems"`
	OpenNCs               int            `json:"openNCs"`
	OverdueNCs            int            `json:"overdueNCs"`
	UpcomingAudits        int            `json:"upcomingAudits"`
	QCFailures            int            `json:"qcFailures"`
	LockedDocuments       int            `json:"lockedDocuments"`
}

// Snapshot is the data a dashboard is computed from.
type Snapshot struct {
	Instruments     []models.Instrument
	Calibrations    []models.Calibration
	Consumables     []models.Consumable
	NonConformances []models.NonConformance
	Audits          []models.Audit
	QCChecks        []models.QCCheck
	Documents       []models.Document
}

// LoadSnapshot reads every list the dashboard needs concurrently. Any
// failure fails the whole load.
func LoadSnapshot(ctx context.Context, reg *services.Registry) (Snapshot, error) {
	var s Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { s.Instruments, err = reg.Instruments.GetAll(gctx, nil); return })
	g.Go(func() (err error) { s.Calibrations, err = reg.Calibrations.GetAll(gctx, nil); return })
	g.Go(func() (err error) { s.Consumables, err = reg.Consumables.GetAll(gctx, nil); return })
	g.Go(func() (err error) { s.NonConformances, err = reg.NonConformances.GetAll(gctx, nil); return })
	g.Go(func() (err error) { s.Audits, err = reg.Audits.GetAll(gctx, nil); return })
	g.Go(func() (err error) { s.QCChecks, err = reg.QCChecks.GetAll(gctx, nil); return })
	g.Go(func() (err error) { s.Documents, err = reg.Documents.GetAll(gctx, nil); return })
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Summarize computes the dashboard from s.
func Summarize(s Snapshot, now time.Time) Dashboard {
	d := Dashboard{
		TotalInstruments:      len(s.Instruments),
		InstrumentsByStatus:   map[string]int{},
		CalibrationCompliance: CalibrationCompliance(s.Instruments, s.Calibrations, now),
	}
	for _, i := range s.Instruments {
		d.InstrumentsByStatus[i.Status]++
	}
	for _, c := range s.Calibrations {
		row := CalibrationRowFor(c, now)
		if row.Overdue {
			d.CalibrationsOverdue++
		} else if row.DueSoon {
			d.CalibrationsDueSoon++
		}
	}
	for _, c := range s.Consumables {
		f := FlagsFor(c, now)
		if f.LowStock {
			d.LowStockItems++
		}
		if f.Expired {
			d.ExpiredItems++
		}
		if f.ExpiringSoon {
			d.ExpiringSoonItems++
		}
	}
	for _, row := range NCRows(s.NonConformances, now) {
		if row.Status != "Closed" {
			d.OpenNCs++
		}
		if row.Overdue {
			d.OverdueNCs++
		}
	}
	for _, a := range s.Audits {
		if a.Status == "Completed" {
			continue
		}
		if days, ok := DaysUntil(now, a.ScheduledDate); ok && days >= 0 && days <= ExpiryWarningDays {
			d.UpcomingAudits++
		}
	}
	for _, q := range s.QCChecks {
		if q.Status == "Fail" {
			d.QCFailures++
		}
	}
	for _, doc := range s.Documents {
		if doc.Locked {
			d.LockedDocuments++
		}
	}
	return d
}
