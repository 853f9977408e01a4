package listing

import (
	"net/url"
	"strings"

	"labdesk/internal/models"
)

// Query is the search box plus the status and category dropdowns of a list
// page. Empty or "all" selects everything.
type Query struct {
	Search   string `json:"search,omitempty"`
	Status   string `json:"status,omitempty"`
	Category string `json:"category,omitempty"`
}

// QueryFromValues reads search (or q), status and category.
func QueryFromValues(v url.Values) Query {
	search := v.Get("search")
	if search == "" {
		search = v.Get("q")
	}
	return Query{
		Search:   strings.TrimSpace(search),
		Status:   v.Get("status"),
		Category: v.Get("category"),
	}
}

// IsZero reports whether q selects everything.
func (q Query) IsZero() bool {
	return q.Search == "" && isAll(q.Status) && isAll(q.Category)
}

func isAll(s string) bool {
	return s == "" || strings.EqualFold(s, "all")
}

// Matcher tells Apply where an entity keeps its searchable text, status and
// category. Nil funcs never filter.
type Matcher[T any] struct {
	Text     func(T) []string
	Status   func(T) string
	Category func(T) string
}

// Match reports whether item passes q. Search is a case-insensitive
// substring match over Text.
func (m Matcher[T]) Match(item T, q Query) bool {
	if !isAll(q.Status) && m.Status != nil && !strings.EqualFold(m.Status(item), q.Status) {
		return false
	}
	if !isAll(q.Category) && m.Category != nil && !strings.EqualFold(m.Category(item), q.Category) {
		return false
	}
	if q.Search == "" || m.Text == nil {
		return true
	}
	needle := strings.ToLower(q.Search)
	for _, s := range m.Text(item) {
		if strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}

// Apply returns the items that pass q, in their original order.
func Apply[T any](items []T, q Query, m Matcher[T]) []T {
	if q.IsZero() {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if m.Match(it, q) {
			out = append(out, it)
		}
	}
	return out
}

var (
	Instruments = Matcher[models.Instrument]{
		Text: func(i models.Instrument) []string {
			return []string{i.InstrumentID, i.Name, i.Manufacturer, i.Model, i.SerialNumber}
		},
		Status:   func(i models.Instrument) string { return i.Status },
		Category: func(i models.Instrument) string { return i.AssignedDepartment },
	}
	Calibrations = Matcher[models.Calibration]{
		Text: func(c models.Calibration) []string {
			return []string{c.CalibrationID, c.InstrumentID, c.InstrumentName, c.CertificateNumber}
		},
		Status:   func(c models.Calibration) string { return c.Status },
		Category: func(c models.Calibration) string { return c.Frequency },
	}
	Consumables = Matcher[models.Consumable]{
		Text:     func(c models.Consumable) []string { return []string{c.ItemID, c.Name, c.Supplier} },
		Status:   func(c models.Consumable) string { return c.Status },
		Category: func(c models.Consumable) string { return c.Category },
	}
	SOPs = Matcher[models.SOP]{
		Text:     func(s models.SOP) []string { return append([]string{s.SOPID, s.Title}, s.LinkedTests...) },
		Status:   func(s models.SOP) string { return s.Status },
		Category: func(s models.SOP) string { return s.Department },
	}
	QCChecks = Matcher[models.QCCheck]{
		Text:   func(q models.QCCheck) []string { return []string{q.QCID, q.Parameter, q.TestName, q.InstrumentID} },
		Status: func(q models.QCCheck) string { return q.Status },
	}
	Audits = Matcher[models.Audit]{
		Text:     func(a models.Audit) []string { return []string{a.AuditID, a.Title, a.Auditor, a.Department} },
		Status:   func(a models.Audit) string { return a.Status },
		Category: func(a models.Audit) string { return a.AuditType },
	}
	NonConformances = Matcher[models.NonConformance]{
		Text: func(n models.NonConformance) []string {
			return []string{n.NCID, n.Title, n.Description, n.AssignedTo}
		},
		Status:   func(n models.NonConformance) string { return n.Status },
		Category: func(n models.NonConformance) string { return n.Severity },
	}
	Documents = Matcher[models.Document]{
		Text:     func(d models.Document) []string { return []string{d.DocumentID, d.Title, d.Owner, d.FileName} },
		Status:   func(d models.Document) string { return d.Status },
		Category: func(d models.Document) string { return d.Category },
	}
	Transactions = Matcher[models.InventoryTransaction]{
		Text: func(t models.InventoryTransaction) []string {
			return []string{t.TransactionID, t.ItemID, t.PerformedBy, t.Remarks}
		},
		Category: func(t models.InventoryTransaction) string { return t.TransactionType },
	}
	Reports = Matcher[models.Report]{
		Text:     func(r models.Report) []string { return []string{r.ReportID, r.Title, r.Period} },
		Status:   func(r models.Report) string { return r.Status },
		Category: func(r models.Report) string { return r.ReportType },
	}
)
