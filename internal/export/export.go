// Package export renders list pages as XLSX workbooks.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"labdesk/internal/listing"
	"labdesk/internal/models"
)

// ContentType is the MIME type of the workbooks Write produces.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet is one exported list: a header row and its string rows.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// Column is one exported field of T.
type Column[T any] struct {
	Header string
	Value  func(T) string
}

// Build lays items out under cols.
func Build[T any](name string, cols []Column[T], items []T) Sheet {
	s := Sheet{Name: name, Headers: make([]string, len(cols)), Rows: make([][]string, 0, len(items))}
	for i, c := range cols {
		s.Headers[i] = c.Header
	}
	for _, it := range items {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = c.Value(it)
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// Write encodes s as a single-sheet workbook with a bold grey header row.
func Write(w io.Writer, s Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	name := s.Name
	if name == "" {
		name = "Sheet1"
	}
	index, err := f.NewSheet(name)
	if err != nil {
		return fmt.Errorf("export: new sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}

	for i, header := range s.Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(name, cell, cell, headerStyle); err != nil {
			return err
		}
	}
	for r, row := range s.Rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(name, cell, value); err != nil {
				return err
			}
		}
	}
	for i := range s.Headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(name, col, col, 18); err != nil {
			return err
		}
	}
	if name != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return err
		}
	}
	_, err = f.WriteTo(w)
	return err
}

// Filename is the attachment name for entity.
func Filename(entity string) string {
	return strings.ReplaceAll(entity, "/", "-") + ".xlsx"
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func days(d *int) string {
	if d == nil {
		return ""
	}
	return strconv.Itoa(*d)
}

var (
	InstrumentColumns = []Column[models.Instrument]{
		{"Instrument ID", func(i models.Instrument) string { return i.InstrumentID }},
		{"Name", func(i models.Instrument) string { return i.Name }},
		{"Manufacturer", func(i models.Instrument) string { return i.Manufacturer }},
		{"Model", func(i models.Instrument) string { return i.Model }},
		{"Serial Number", func(i models.Instrument) string { return i.SerialNumber }},
		{"Status", func(i models.Instrument) string { return i.Status }},
		{"Department", func(i models.Instrument) string { return i.AssignedDepartment }},
		{"Location", func(i models.Instrument) string { return i.Location }},
	}
	CalibrationColumns = []Column[listing.CalibrationRow]{
		{"Calibration ID", func(c listing.CalibrationRow) string { return c.CalibrationID }},
		{"Instrument", func(c listing.CalibrationRow) string { return c.InstrumentID }},
		{"Last Calibration", func(c listing.CalibrationRow) string { return c.LastCalibrationDate }},
		{"Next Due", func(c listing.CalibrationRow) string { return c.NextDueDate }},
		{"Days Until Due", func(c listing.CalibrationRow) string { return days(c.DaysUntilDue) }},
		{"Frequency", func(c listing.CalibrationRow) string { return c.Frequency }},
		{"Status", func(c listing.CalibrationRow) string { return c.Status }},
		{"Certificate", func(c listing.CalibrationRow) string { return c.CertificateNumber }},
	}
	ConsumableColumns = []Column[listing.ConsumableRow]{
		{"Item ID", func(c listing.ConsumableRow) string { return c.ItemID }},
		{"Name", func(c listing.ConsumableRow) string { return c.Name }},
		{"Category", func(c listing.ConsumableRow) string { return c.Category }},
		{"Quantity", func(c listing.ConsumableRow) string { return num(c.QuantityAvailable) }},
		{"Unit", func(c listing.ConsumableRow) string { return c.Unit }},
		{"Low Stock", func(c listing.ConsumableRow) string { return yesNo(c.LowStock) }},
		{"Expiry Date", func(c listing.ConsumableRow) string { return c.ExpiryDate }},
		{"Expired", func(c listing.ConsumableRow) string { return yesNo(c.Expired) }},
		{"Supplier", func(c listing.ConsumableRow) string { return c.Supplier }},
	}
	SOPColumns = []Column[models.SOP]{
		{"SOP ID", func(s models.SOP) string { return s.SOPID }},
		{"Title", func(s models.SOP) string { return s.Title }},
		{"Version", func(s models.SOP) string { return s.Version }},
		{"Status", func(s models.SOP) string { return s.Status }},
		{"Effective Date", func(s models.SOP) string { return s.EffectiveDate }},
		{"Linked Tests", func(s models.SOP) string { return strings.Join(s.LinkedTests, ", ") }},
	}
	QCCheckColumns = []Column[models.QCCheck]{
		{"QC ID", func(q models.QCCheck) string { return q.QCID }},
		{"Parameter", func(q models.QCCheck) string { return q.Parameter }},
		{"Target", func(q models.QCCheck) string { return num(q.TargetValue) }},
		{"Min", func(q models.QCCheck) string { return num(q.AcceptanceRange.Min) }},
		{"Max", func(q models.QCCheck) string { return num(q.AcceptanceRange.Max) }},
		{"Last Result", func(q models.QCCheck) string {
			if q.LastResult == nil {
				return ""
			}
			return num(*q.LastResult)
		}},
		{"Status", func(q models.QCCheck) string { return q.Status }},
	}
	AuditColumns = []Column[models.Audit]{
		{"Audit ID", func(a models.Audit) string { return a.AuditID }},
		{"Title", func(a models.Audit) string { return a.Title }},
		{"Type", func(a models.Audit) string { return a.AuditType }},
		{"Auditor", func(a models.Audit) string { return a.Auditor }},
		{"Scheduled", func(a models.Audit) string { return a.ScheduledDate }},
		{"Status", func(a models.Audit) string { return a.Status }},
		{"Open Findings", func(a models.Audit) string { return strconv.Itoa(a.OpenFindings) }},
	}
	NCColumns = []Column[listing.NCRow]{
		{"NC ID", func(n listing.NCRow) string { return n.NCID }},
		{"Title", func(n listing.NCRow) string { return n.Title }},
		{"Severity", func(n listing.NCRow) string { return n.Severity }},
		{"Status", func(n listing.NCRow) string { return n.Status }},
		{"Assigned To", func(n listing.NCRow) string { return n.AssignedTo }},
		{"Due Date", func(n listing.NCRow) string { return n.DueDate }},
		{"Overdue", func(n listing.NCRow) string { return yesNo(n.Overdue) }},
	}
	DocumentColumns = []Column[models.Document]{
		{"Document ID", func(d models.Document) string { return d.DocumentID }},
		{"Title", func(d models.Document) string { return d.Title }},
		{"Category", func(d models.Document) string { return d.Category }},
		{"Version", func(d models.Document) string { return d.Version }},
		{"Status", func(d models.Document) string { return d.Status }},
		{"Locked", func(d models.Document) string { return yesNo(d.Locked) }},
		{"Downloads", func(d models.Document) string { return strconv.Itoa(d.DownloadCount) }},
	}
	TransactionColumns = []Column[models.InventoryTransaction]{
		{"Transaction ID", func(t models.InventoryTransaction) string { return t.TransactionID }},
		{"Type", func(t models.InventoryTransaction) string { return t.TransactionType }},
		{"Item", func(t models.InventoryTransaction) string { return t.ItemID }},
		{"Quantity", func(t models.InventoryTransaction) string { return num(t.Quantity) }},
		{"Date", func(t models.InventoryTransaction) string { return t.Date }},
		{"Performed By", func(t models.InventoryTransaction) string { return t.PerformedBy }},
	}
	ReportColumns = []Column[models.Report]{
		{"Report ID", func(r models.Report) string { return r.ReportID }},
		{"Title", func(r models.Report) string { return r.Title }},
		{"Type", func(r models.Report) string { return r.ReportType }},
		{"Period", func(r models.Report) string { return r.Period }},
		{"Generated At", func(r models.Report) string { return r.GeneratedAt }},
		{"Status", func(r models.Report) string { return r.Status }},
	}
)
