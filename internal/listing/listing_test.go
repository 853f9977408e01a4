package listing

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labdesk/internal/models"
)

var now = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

func TestDaysUntil(t *testing.T) {
	tests := []struct {
		date string
		want int
		ok   bool
	}{
		{"2024-03-15", 0, true},
		{"2024-03-16", 1, true},
		{"2024-03-25T08:00:00Z", 10, true},
		{"2024-03-14", -1, true},
		{"2025-03-15", 365, true},
		{"", 0, false},
		{"soon", 0, false},
	}
	for _, tt := range tests {
		got, ok := DaysUntil(now, tt.date)
		assert.Equal(t, tt.ok, ok, tt.date)
		assert.Equal(t, tt.want, got, tt.date)
	}
}

func TestFlagsFor(t *testing.T) {
	low := FlagsFor(models.Consumable{QuantityAvailable: 5, LowStockThreshold: 10}, now)
	assert.True(t, low.LowStock)
	assert.Nil(t, low.DaysToExpiry)

	atThreshold := FlagsFor(models.Consumable{QuantityAvailable: 10, LowStockThreshold: 10}, now)
	assert.True(t, atThreshold.LowStock)

	soon := FlagsFor(models.Consumable{QuantityAvailable: 50, LowStockThreshold: 10, ExpiryDate: "2024-03-25"}, now)
	assert.False(t, soon.LowStock)
	assert.True(t, soon.ExpiringSoon)
	assert.False(t, soon.Expired)
	require.NotNil(t, soon.DaysToExpiry)
	assert.Equal(t, 10, *soon.DaysToExpiry)

	past := FlagsFor(models.Consumable{ExpiryDate: "2024-03-01"}, now)
	assert.True(t, past.Expired)
	assert.False(t, past.ExpiringSoon, "expired takes precedence")

	later := FlagsFor(models.Consumable{ExpiryDate: "2024-05-30"}, now)
	assert.False(t, later.Expired)
	assert.False(t, later.ExpiringSoon)
}

func TestCalibrationRowFor(t *testing.T) {
	overdue := CalibrationRowFor(models.Calibration{NextDueDate: "2024-03-01", Status: "Valid"}, now)
	assert.True(t, overdue.Overdue)
	assert.Equal(t, -14, *overdue.DaysUntilDue)

	dueSoon := CalibrationRowFor(models.Calibration{NextDueDate: "2024-04-01"}, now)
	assert.True(t, dueSoon.DueSoon)
	assert.False(t, dueSoon.Overdue)

	noDate := CalibrationRowFor(models.Calibration{Status: "Overdue"}, now)
	assert.True(t, noDate.Overdue)
}

func TestNCRows_ClosedNeverOverdue(t *testing.T) {
	rows := NCRows([]models.NonConformance{
		{NCID: "NC-1", DueDate: "2024-03-01", Status: "Open"},
		{NCID: "NC-2", DueDate: "2024-03-01", Status: "Closed"},
	}, now)
	assert.True(t, rows[0].Overdue)
	assert.False(t, rows[1].Overdue)
}

func TestCalibrationCompliance(t *testing.T) {
	instruments := []models.Instrument{
		{ID: "i1", Status: "Active"},
		{ID: "i2", Status: "Active"},
		{ID: "i3", Status: "Under Maintenance"},
		{ID: "i4", Status: "Out of Service"},
	}
	cals := []models.Calibration{
		{InstrumentID: "i1", NextDueDate: "2024-01-01"},
		{InstrumentID: "i1", NextDueDate: "2025-01-01"},
		{InstrumentID: "i2", NextDueDate: "2024-02-01"},
		{InstrumentID: "i4", NextDueDate: "2020-01-01"},
	}
	// i1 current, i2 overdue, i3 uncalibrated, i4 excluded.
	assert.InDelta(t, 1.0/3.0, CalibrationCompliance(instruments, cals, now), 1e-9)
	assert.Equal(t, 1.0, CalibrationCompliance(nil, nil, now))
}

func TestApply(t *testing.T) {
	items := []models.Instrument{
		{InstrumentID: "INS-1", Name: "Analytical Balance", Status: "Active", AssignedDepartment: "Chemistry"},
		{InstrumentID: "INS-2", Name: "pH Meter", Status: "Under Maintenance", AssignedDepartment: "Chemistry"},
		{InstrumentID: "INS-3", Name: "UTM", Status: "Active", AssignedDepartment: "Mechanical"},
	}

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"everything", Query{Status: "all"}, []string{"INS-1", "INS-2", "INS-3"}},
		{"search is case-insensitive", Query{Search: "balance"}, []string{"INS-1"}},
		{"status", Query{Status: "Active"}, []string{"INS-1", "INS-3"}},
		{"status and category", Query{Status: "active", Category: "Chemistry"}, []string{"INS-1"}},
		{"no match", Query{Search: "centrifuge"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []string{}
			for _, i := range Apply(items, tt.q, Instruments) {
				got = append(got, i.InstrumentID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryFromValues(t *testing.T) {
	q := QueryFromValues(url.Values{"q": {" tips "}, "category": {"Accessory"}})
	assert.Equal(t, Query{Search: "tips", Category: "Accessory"}, q)
	assert.True(t, QueryFromValues(url.Values{"status": {"All"}}).IsZero())
}

func TestSummarize(t *testing.T) {
	s := Snapshot{
		Instruments:  []models.Instrument{{ID: "i1", Status: "Active"}, {ID: "i2", Status: "Out of Service"}},
		Calibrations: []models.Calibration{{InstrumentID: "i1", NextDueDate: "2024-04-01"}},
		Consumables: []models.Consumable{
			{QuantityAvailable: 1, LowStockThreshold: 5, ExpiryDate: "2024-03-10"},
			{QuantityAvailable: 9, LowStockThreshold: 5, ExpiryDate: "2024-03-20"},
		},
		NonConformances: []models.NonConformance{
			{Status: "Open", DueDate: "2024-03-01"},
			{Status: "Closed"},
		},
		Audits: []models.Audit{
			{Status: "Scheduled", ScheduledDate: "2024-03-20"},
			{Status: "Scheduled", ScheduledDate: "2024-06-20"},
			{Status: "Completed", ScheduledDate: "2024-03-18"},
		},
		QCChecks:  []models.QCCheck{{Status: "Fail"}, {Status: "Pass"}},
		Documents: []models.Document{{Locked: true}, {}},
	}
	d := Summarize(s, now)
	assert.Equal(t, 2, d.TotalInstruments)
	assert.Equal(t, map[string]int{"Active": 1, "Out of Service": 1}, d.InstrumentsByStatus)
	assert.Equal(t, 1.0, d.CalibrationCompliance)
	assert.Equal(t, 1, d.CalibrationsDueSoon)
	assert.Equal(t, 1, d.LowStockItems)
	assert.Equal(t, 1, d.ExpiredItems)
	assert.Equal(t, 1, d.ExpiringSoonItems)
	assert.Equal(t, 1, d.OpenNCs)
	assert.Equal(t, 1, d.OverdueNCs)
	assert.Equal(t, 1, d.UpcomingAudits)
	assert.Equal(t, 1, d.QCFailures)
	assert.Equal(t, 1, d.LockedDocuments)
}
