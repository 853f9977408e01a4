// Package listing computes the derived fields and filters shown on list
// pages: days until due, stock and expiry flags, search and status filters,
// and the dashboard summary.
package listing

import (
	"math"
	"time"

	"labdesk/internal/models"
	"labdesk/internal/validation"
)

// ExpiryWarningDays is how far ahead an expiry or due date is flagged.
const ExpiryWarningDays = 30

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysUntil returns the number of calendar days from now to date, negative
// when date has passed. ok is false when date is empty or unparseable.
func DaysUntil(now time.Time, date string) (days int, ok bool) {
	if date == "" {
		return 0, false
	}
	t, err := validation.ParseDate(date, now.Location())
	if err != nil {
		return 0, false
	}
	from := midnight(now)
	to := midnight(t.In(now.Location()))
	// Round to absorb DST hour shifts.
	return int(math.Round(to.Sub(from).Hours() / 24)), true
}

// ConsumableFlags are the stock and expiry markers of a consumable row.
type ConsumableFlags struct {
	LowStock     bool `json:"lowStock"`
	Expired      bool `json:"expired"`
	ExpiringSoon bool `json:"expiringSoon"`
	DaysToExpiry *int `json:"daysToExpiry,omitempty"`
}

// FlagsFor derives the flags of c. An expired item is never also expiring
// soon.
func FlagsFor(c models.Consumable, now time.Time) ConsumableFlags {
	f := ConsumableFlags{LowStock: c.QuantityAvailable <= c.LowStockThreshold}
	if days, ok := DaysUntil(now, c.ExpiryDate); ok {
		f.DaysToExpiry = &days
		f.Expired = days <= 0
		f.ExpiringSoon = days > 0 && days <= ExpiryWarningDays
	}
	return f
}

// ConsumableRow is a consumable with its flags.
type ConsumableRow struct {
	models.Consumable
	ConsumableFlags
}

func ConsumableRows(items []models.Consumable, now time.Time) []ConsumableRow {
	rows := make([]ConsumableRow, len(items))
	for i, c := range items {
		rows[i] = ConsumableRow{Consumable: c, ConsumableFlags: FlagsFor(c, now)}
	}
	return rows
}

// CalibrationRow is a calibration with its due-date markers.
type CalibrationRow struct {
	models.Calibration
	DaysUntilDue *int `json:"daysUntilDue,omitempty"`
	Overdue      bool `json:"overdue"`
	DueSoon      bool `json:"dueSoon"`
}

func CalibrationRowFor(c models.Calibration, now time.Time) CalibrationRow {
	row := CalibrationRow{Calibration: c, Overdue: c.Status == "Overdue"}
	if days, ok := DaysUntil(now, c.NextDueDate); ok {
		row.DaysUntilDue = &days
		row.Overdue = days < 0
		row.DueSoon = days >= 0 && days <= ExpiryWarningDays
	}
	return row
}

func CalibrationRows(items []models.Calibration, now time.Time) []CalibrationRow {
	rows := make([]CalibrationRow, len(items))
	for i, c := range items {
		rows[i] = CalibrationRowFor(c, now)
	}
	return rows
}

// NCRow is a non-conformance with its overdue marker. Closed NCs are never
// overdue.
type NCRow struct {
	models.NonConformance
	DaysUntilDue *int `json:"daysUntilDue,omitempty"`
	Overdue      bool `json:"overdue"`
}

func NCRows(items []models.NonConformance, now time.Time) []NCRow {
	rows := make([]NCRow, len(items))
	for i, nc := range items {
		row := NCRow{NonConformance: nc}
		if days, ok := DaysUntil(now, nc.DueDate); ok {
			row.DaysUntilDue = &days
			row.Overdue = days < 0 && nc.Status != "Closed"
		}
		rows[i] = row
	}
	return rows
}

// CalibrationCompliance is the fraction of in-service instruments whose
// latest calibration is not overdue. Instruments without any calibration
// record count as non-compliant. It is 1 when there are no instruments.
func CalibrationCompliance(instruments []models.Instrument, cals []models.Calibration, now time.Time) float64 {
	latest := map[string]models.Calibration{}
	for _, c := range cals {
		prev, seen := latest[c.InstrumentID]
		if !seen || laterDue(c, prev, now) {
			latest[c.InstrumentID] = c
		}
	}
	var total, compliant int
	for _, inst := range instruments {
		if inst.Status == "Out of Service" {
			continue
		}
		total++
		key := inst.ID
		c, ok := latest[key]
		if !ok && inst.InstrumentID != "" {
			c, ok = latest[inst.InstrumentID]
		}
		if ok && !CalibrationRowFor(c, now).Overdue {
			compliant++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(compliant) / float64(total)
}

func laterDue(a, b models.Calibration, now time.Time) bool {
	da, okA := DaysUntil(now, a.NextDueDate)
	db, okB := DaysUntil(now, b.NextDueDate)
	if !okB {
		return okA
	}
	return okA && da > db
}
