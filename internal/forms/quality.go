package forms

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"labdesk/internal/models"
	"labdesk/internal/validation"
)

// SOPForm edits an SOP. The linked arrays are typed as comma-separated text
// and parsed on submit. Edit forms seed the text from the record; a text
// field left as seeded defers to the array, so a body may send either.
type SOPForm struct {
	models.SOP
	LinkedTestsText       string `json:"linkedTestsText,omitempty"`
	LinkedInstrumentsText string `json:"linkedInstrumentsText,omitempty"`
	LinkedDepartmentsText string `json:"linkedDepartmentsText,omitempty"`
	ChangeSummary         string `json:"changeSummary,omitempty"`

	Clock func() time.Time `json:"-"`

	existingID      string
	existingVersion string
	seeded          [3]string
}

func NewSOPForm(existing *models.SOP) *SOPForm {
	if existing == nil {
		return &SOPForm{SOP: models.SOP{Version: "1.0", Status: "Active"}}
	}
	sop := *existing
	sop.LinkedTests = slices.Clone(existing.LinkedTests)
	sop.LinkedInstruments = slices.Clone(existing.LinkedInstruments)
	sop.LinkedDepartments = slices.Clone(existing.LinkedDepartments)
	sop.RevisionHistory = slices.Clone(existing.RevisionHistory)
	f := &SOPForm{
		SOP:                   sop,
		LinkedTestsText:       JoinList(existing.LinkedTests),
		LinkedInstrumentsText: JoinList(existing.LinkedInstruments),
		LinkedDepartmentsText: JoinList(existing.LinkedDepartments),
		existingID:            idOf(existing.ID, existing.SOPID),
		existingVersion:       existing.Version,
	}
	f.seeded = [3]string{f.LinkedTestsText, f.LinkedInstrumentsText, f.LinkedDepartmentsText}
	return f
}

func (f *SOPForm) Fields() []string {
	return []string{"sopId", "title", "version", "status", "linkedTests", "linkedInstruments", "linkedDepartments", "revisionHistory"}
}

func (f *SOPForm) Validate() error {
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "sopId", f.SOPID)
	validation.RequireField(ve, "title", f.Title)
	validation.ValidateMaxLength(ve, "title", f.Title, validation.MaxTitleLength)
	validation.ValidateMaxLength(ve, "changeSummary", f.ChangeSummary, validation.MaxTextLength)
	validation.RequireField(ve, "version", f.Version)
	validation.RequireField(ve, "status", f.Status)
	validation.ValidateEnum(ve, "status", f.Status, validation.ValidSOPStatuses)
	validation.ValidateDate(ve, "effectiveDate", f.EffectiveDate)
	validation.ValidateDate(ve, "reviewDate", f.ReviewDate)
	validation.ValidateDateOrder(ve, "reviewDate", f.EffectiveDate, f.ReviewDate)
	return ve.Err()
}

// Payload parses the linked lists and appends a revision entry when the SOP
// is new or its version changed.
func (f *SOPForm) Payload() any {
	sop := f.SOP
	sop.LinkedTests = linkedList(f.LinkedTestsText, f.seeded[0], sop.LinkedTests)
	sop.LinkedInstruments = linkedList(f.LinkedInstrumentsText, f.seeded[1], sop.LinkedInstruments)
	sop.LinkedDepartments = linkedList(f.LinkedDepartmentsText, f.seeded[2], sop.LinkedDepartments)

	history := append([]models.Revision{}, sop.RevisionHistory...)
	if f.existingID == "" || sop.Version != f.existingVersion {
		changes := f.ChangeSummary
		if changes == "" {
			changes = "Initial release"
			if f.existingID != "" {
				changes = fmt.Sprintf("Revised from %s", f.existingVersion)
			}
		}
		history = append(history, models.Revision{Version: sop.Version, Date: today(f.Clock), Changes: changes})
	}
	sop.RevisionHistory = history
	return sop
}

func (f *SOPForm) ExistingID() string { return f.existingID }

// linkedList parses text once it differs from what the form was seeded with,
// so clearing the text clears the list. Otherwise current stands.
func linkedList(text, seeded string, current []string) []string {
	if text != seeded {
		return ParseList(text)
	}
	if current == nil {
		return []string{}
	}
	return slices.Clone(current)
}

// QCCheckForm defines a QC parameter and its acceptance range.
type QCCheckForm struct {
	models.QCCheck
	existingID string
}

func NewQCCheckForm(existing *models.QCCheck) *QCCheckForm {
	if existing != nil {
		return &QCCheckForm{QCCheck: *existing, existingID: idOf(existing.ID, existing.QCID)}
	}
	return &QCCheckForm{QCCheck: models.QCCheck{Frequency: "Daily", Trend: []models.TrendPoint{}}}
}

func (f *QCCheckForm) Fields() []string {
	return []string{"qcId", "parameter", "targetValue", "acceptanceRange", "deviation", "trend"}
}

func (f *QCCheckForm) Validate() error {
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "qcId", f.QCID)
	validation.RequireField(ve, "parameter", f.Parameter)
	validation.ValidateRange(ve, "acceptanceRange", f.AcceptanceRange.Min, f.AcceptanceRange.Max)
	validation.ValidateEnum(ve, "status", f.Status, validation.ValidQCStatuses)
	return ve.Err()
}

func (f *QCCheckForm) Payload() any {
	qc := f.QCCheck
	if qc.Trend == nil {
		qc.Trend = []models.TrendPoint{}
	}
	return qc
}

func (f *QCCheckForm) ExistingID() string { return f.existingID }

// AuditForm schedules or edits an audit and its findings. Finding counts
// are derived from the list at submit time.
type AuditForm struct {
	models.Audit
	existingID string

	// NewID generates finding ids; uuid when nil.
	NewID func() string `json:"-"`
}

func NewAuditForm(existing *models.Audit) *AuditForm {
	if existing != nil {
		f := &AuditForm{Audit: *existing, existingID: idOf(existing.ID, existing.AuditID)}
		f.Findings = append([]models.Finding{}, existing.Findings...)
		return f
	}
	return &AuditForm{Audit: models.Audit{AuditType: "Internal", Status: "Scheduled", Findings: []models.Finding{}}}
}

func (f *AuditForm) newID() string {
	if f.NewID != nil {
		return f.NewID()
	}
	return uuid.NewString()
}

// AddFinding appends an open finding and returns its id.
func (f *AuditForm) AddFinding(description, severity string) string {
	id := f.newID()
	f.Findings = append(append([]models.Finding{}, f.Findings...), models.Finding{
		ID:          id,
		Description: description,
		Severity:    severity,
		Status:      "Open",
	})
	return id
}

// UpdateFinding replaces the finding with the same id.
func (f *AuditForm) UpdateFinding(updated models.Finding) {
	out := make([]models.Finding, len(f.Findings))
	for i, fd := range f.Findings {
		if fd.ID == updated.ID {
			fd = updated
		}
		out[i] = fd
	}
	f.Findings = out
}

// RemoveFinding drops the finding with id.
func (f *AuditForm) RemoveFinding(id string) {
	out := make([]models.Finding, 0, len(f.Findings))
	for _, fd := range f.Findings {
		if fd.ID != id {
			out = append(out, fd)
		}
	}
	f.Findings = out
}

func (f *AuditForm) Fields() []string {
	return []string{"auditId", "title", "auditType", "auditor", "scheduledDate", "status", "findings", "totalFindings", "openFindings", "closedFindings"}
}

func (f *AuditForm) Validate() error {
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "auditId", f.AuditID)
	validation.RequireField(ve, "title", f.Title)
	validation.RequireField(ve, "auditType", f.AuditType)
	validation.RequireField(ve, "auditor", f.Auditor)
	validation.RequireField(ve, "scheduledDate", f.ScheduledDate)
	validation.ValidateEnum(ve, "auditType", f.AuditType, validation.ValidAuditTypes)
	validation.ValidateEnum(ve, "status", f.Status, validation.ValidAuditStatuses)
	validation.ValidateDate(ve, "scheduledDate", f.ScheduledDate)
	validation.ValidateDateOrder(ve, "completedDate", f.ScheduledDate, f.CompletedDate)
	for i, fd := range f.Findings {
		field := fmt.Sprintf("findings[%d]", i)
		validation.RequireField(ve, field+".description", fd.Description)
		validation.ValidateEnum(ve, field+".severity", fd.Severity, validation.ValidFindingSeverities)
		validation.ValidateEnum(ve, field+".status", fd.Status, validation.ValidFindingStatuses)
	}
	return ve.Err()
}

func (f *AuditForm) Payload() any {
	a := f.Audit
	a.Findings = make([]models.Finding, len(f.Findings))
	for i, fd := range f.Findings {
		if fd.ID == "" {
			fd.ID = f.newID()
		}
		if fd.Status == "" {
			fd.Status = "Open"
		}
		a.Findings[i] = fd
	}
	a.TotalFindings, a.OpenFindings, a.ClosedFindings = CountFindings(a.Findings)
	return a
}

func (f *AuditForm) ExistingID() string { return f.existingID }

// CountFindings returns total, open and closed counts.
func CountFindings(findings []models.Finding) (total, open, closed int) {
	for _, fd := range findings {
		total++
		if fd.Status == "Closed" {
			closed++
		} else {
			open++
		}
	}
	return total, open, closed
}

// DocumentForm uploads or edits a controlled document. A PDF of up to 10 MB
// is required when creating.
type DocumentForm struct {
	models.Document
	File *validation.Upload `json:"file,omitempty"`

	existingID string
	wasLocked  bool
}

func NewDocumentForm(existing *models.Document) *DocumentForm {
	if existing != nil {
		return &DocumentForm{Document: *existing, existingID: idOf(existing.ID, existing.DocumentID), wasLocked: existing.Locked}
	}
	return &DocumentForm{Document: models.Document{Version: "1.0", Status: "Draft"}}
}

func (f *DocumentForm) Fields() []string {
	return []string{"documentId", "title", "category", "version", "status", "locked", "downloadCount"}
}

func (f *DocumentForm) Validate() error {
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "documentId", f.DocumentID)
	validation.RequireField(ve, "title", f.Title)
	validation.RequireField(ve, "category", f.Category)
	validation.RequireField(ve, "version", f.Version)
	validation.ValidateEnum(ve, "status", f.Status, validation.ValidDocumentStatuses)
	if f.existingID == "" {
		validation.RequireUpload(ve, "file", f.File)
	}
	if f.File != nil && f.File.Name != "" {
		validation.ValidateUpload(ve, "file", f.File, validation.LargePDFUpload)
	}
	if f.existingID != "" && (f.Locked || f.wasLocked) {
		ve.Add("locked", "document is locked; unlock it before editing")
	}
	return ve.Err()
}

func (f *DocumentForm) Payload() any {
	d := f.Document
	if f.File != nil && f.File.Name != "" {
		d.FileName = f.File.Name
		d.FileSize = f.File.Size
	}
	return d
}

func (f *DocumentForm) ExistingID() string { return f.existingID }
