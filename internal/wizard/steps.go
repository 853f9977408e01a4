package wizard

import (
	"fmt"
	"regexp"
	"strings"

	"labdesk/internal/validation"
)

// StepError is the first rule a step failed. Message is what the user sees.
type StepError struct {
	Step    int    `json:"step"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %s", e.Step, e.Message)
}

var (
	pincodeRe = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	phoneRe   = regexp.MustCompile(`^\+?[0-9][0-9 \-]{6,14}[0-9]$`)
	clockRe   = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

// Weekdays are the accepted working-day names.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ValidateStep checks step n against the whole state. It returns nil or a
// *StepError for the first failing rule. Step 11 passes only when steps 1
// to 10 all pass.
func ValidateStep(s State, n int) error {
	if n == StepChecklist {
		for step := FirstStep; step < StepChecklist; step++ {
			if err := ValidateStep(s, step); err != nil {
				return err
			}
		}
		return nil
	}
	check, ok := stepChecks[n]
	if !ok {
		return &StepError{Step: n, Message: fmt.Sprintf("unknown step %d", n)}
	}
	ve := &validation.ValidationErrors{}
	check(s, ve)
	if !ve.HasErrors() {
		return nil
	}
	first := ve.Errors[0]
	return &StepError{Step: n, Field: first.Field, Message: ve.First()}
}

// Fields returns every failing rule of step n, for inline field errors.
func Fields(s State, n int) []validation.ValidationError {
	check, ok := stepChecks[n]
	if !ok {
		return nil
	}
	ve := &validation.ValidationErrors{}
	check(s, ve)
	return ve.Errors
}

var stepChecks = map[int]func(State, *validation.ValidationErrors){
	StepLabDetails:        checkLabDetails,
	StepLegalIdentity:     checkLegal,
	StepTopManagement:     checkTopManagement,
	StepShifts:            checkShifts,
	StepInfrastructure:    checkInfrastructure,
	StepComplianceDocs:    checkCompliance,
	StepAccreditationDocs: checkAccreditation,
	StepSOPs:              checkSOPs,
	StepQualityFormats:    checkQualityFormats,
	StepDeclaration:       checkDeclaration,
}

func checkLabDetails(s State, ve *validation.ValidationErrors) {
	d := s.LabDetails
	validation.RequireField(ve, "labName", d.LabName)
	validation.RequireField(ve, "labAddress", d.LabAddress)
	validation.RequireField(ve, "labCity", d.City)
	validation.RequireField(ve, "labState", d.State)
	validation.RequireField(ve, "labPincode", d.Pincode)
	if d.Pincode != "" && !pincodeRe.MatchString(d.Pincode) {
		ve.Add("labPincode", "must be a 6-digit PIN code")
	}
	validation.RequireField(ve, "labPhone", d.Phone)
	if d.Phone != "" && !phoneRe.MatchString(d.Phone) {
		ve.Add("labPhone", "must be a valid phone number")
	}
	validation.RequireField(ve, "labEmail", d.Email)
	validation.ValidateEmail(ve, "labEmail", d.Email)
	validation.RequireSelection(ve, "labProofOfAddress", d.ProofOfAddress, ProofPlaceholder)
	if d.ProofOfAddress != ProofPlaceholder {
		validation.ValidateEnum(ve, "labProofOfAddress", d.ProofOfAddress, ProofOfAddressOptions)
	}
	validation.ValidateUpload(ve, "labProofDocument", d.ProofDocument, validation.PDFUpload)
	validation.ValidateUpload(ve, "labLogo", d.Logo, validation.ImageUpload)
}

func checkLegal(s State, ve *validation.ValidationErrors) {
	l := s.Legal
	validation.RequireField(ve, "organizationName", l.OrganizationName)
	if l.Category.Category == nil {
		ve.Add("organizationCategory", "must be selected")
	} else {
		l.Category.validate(ve)
	}
	validation.RequireField(ve, "registrationNumber", l.RegistrationNumber)
	if l.YearEstablished != 0 && (l.YearEstablished < 1800 || l.YearEstablished > 2100) {
		ve.Add("yearEstablished", "must be a valid year")
	}
}

func checkTopManagement(s State, ve *validation.ValidationErrors) {
	if len(s.TopManagement) == 0 {
		ve.Add("topManagement", "add at least one member of top management")
		return
	}
	for i, p := range s.TopManagement {
		f := fmt.Sprintf("topManagement[%d]", i)
		validation.RequireField(ve, f+".name", p.Name)
		validation.RequireField(ve, f+".designation", p.Designation)
		validation.ValidateEmail(ve, f+".email", p.Email)
	}
}

func checkShifts(s State, ve *validation.ValidationErrors) {
	if len(s.Shifts.WorkingDays) == 0 {
		ve.Add("workingDays", "select at least one working day")
	}
	for _, d := range s.Shifts.WorkingDays {
		validation.ValidateEnum(ve, "workingDays", d, Weekdays)
	}
	if len(s.Shifts.Shifts) == 0 {
		ve.Add("shifts", "add at least one shift")
		return
	}
	for i, sh := range s.Shifts.Shifts {
		f := fmt.Sprintf("shifts[%d]", i)
		validation.RequireField(ve, f+".name", sh.Name)
		if !clockRe.MatchString(sh.StartTime) {
			ve.Add(f+".startTime", "must be a time in HH:MM format")
		}
		if !clockRe.MatchString(sh.EndTime) {
			ve.Add(f+".endTime", "must be a time in HH:MM format")
		}
		if sh.StartTime != "" && sh.StartTime == sh.EndTime {
			ve.Add(f+".endTime", "must differ from the start time")
		}
	}
}

func checkInfrastructure(s State, ve *validation.ValidationErrors) {
	in := s.Infrastructure
	validation.ValidatePositiveFloat(ve, "totalArea", in.TotalArea)
	validation.ValidatePositiveFloat(ve, "testingArea", in.TestingArea)
	validation.ValidateNonNegativeFloat(ve, "storageArea", in.StorageArea)
	if in.TestingArea+in.StorageArea > in.TotalArea && in.TotalArea > 0 {
		ve.Add("testingArea", "testing and storage area cannot exceed the total area")
	}
}

func checkCompliance(s State, ve *validation.ValidationErrors) {
	if len(s.Compliance) == 0 {
		ve.Add("complianceDocuments", "add at least one compliance document")
		return
	}
	for i, d := range s.Compliance {
		f := fmt.Sprintf("complianceDocuments[%d]", i)
		validation.RequireField(ve, f+".name", d.Name)
		validation.RequireField(ve, f+".number", d.Number)
		validation.ValidateDate(ve, f+".validUntil", d.ValidUntil)
		validation.ValidateUpload(ve, f+".file", d.File, validation.PDFUpload)
	}
}

func checkAccreditation(s State, ve *validation.ValidationErrors) {
	a := s.Accreditation
	if a.Accredited && len(a.Documents) == 0 {
		ve.Add("accreditation", "add the accreditation certificate")
		return
	}
	for i, d := range a.Documents {
		f := fmt.Sprintf("accreditation.documents[%d]", i)
		validation.RequireField(ve, f+".body", d.Body)
		validation.RequireField(ve, f+".certificateNumber", d.CertificateNumber)
		validation.ValidateDate(ve, f+".validUntil", d.ValidUntil)
		validation.ValidateUpload(ve, f+".file", d.File, validation.PDFUpload)
	}
}

func checkSOPs(s State, ve *validation.ValidationErrors) {
	if len(s.SOPs) == 0 {
		ve.Add("sops", "add at least one SOP")
		return
	}
	for i, sop := range s.SOPs {
		f := fmt.Sprintf("sops[%d]", i)
		validation.RequireField(ve, f+".title", sop.Title)
		validation.RequireField(ve, f+".number", sop.Number)
		validation.ValidateUpload(ve, f+".file", sop.File, validation.LargePDFUpload)
	}
}

func checkQualityFormats(s State, ve *validation.ValidationErrors) {
	if len(s.QualityFormats) == 0 {
		ve.Add("qualityFormats", "add at least one quality format or procedure")
		return
	}
	for i, q := range s.QualityFormats {
		f := fmt.Sprintf("qualityFormats[%d]", i)
		validation.RequireField(ve, f+".name", q.Name)
		validation.RequireField(ve, f+".formatNumber", q.FormatNumber)
	}
}

func checkDeclaration(s State, ve *validation.ValidationErrors) {
	d := s.Declaration
	validation.RequireField(ve, "authorizedName", d.AuthorizedName)
	validation.RequireField(ve, "designation", d.Designation)
	validation.RequireField(ve, "place", d.Place)
	validation.RequireField(ve, "date", d.Date)
	validation.ValidateDate(ve, "date", d.Date)
	if !d.Accepted {
		ve.Add("accepted", "the declaration must be accepted")
	}
}

// Checklist statuses.
const (
	StatusCompleted = "Completed"
	StatusPending   = "Pending"
)

// ChecklistItem is one row of the final step's summary table.
type ChecklistItem struct {
	Step    int    `json:"step"`
	Title   string `json:"title"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Checklist reports steps 1 to 10 as Completed or Pending.
func Checklist(s State) []ChecklistItem {
	items := make([]ChecklistItem, 0, StepChecklist-1)
	for step := FirstStep; step < StepChecklist; step++ {
		item := ChecklistItem{Step: step, Title: StepTitles[step], Status: StatusCompleted}
		if err := ValidateStep(s, step); err != nil {
			item.Status = StatusPending
			item.Message = err.(*StepError).Message
		}
		items = append(items, item)
	}
	return items
}

// Complete reports whether every checklist row is completed.
func Complete(items []ChecklistItem) bool {
	for _, it := range items {
		if it.Status != StatusCompleted {
			return false
		}
	}
	return true
}

// normalizeDays title-cases working day names so "monday" matches.
func normalizeDays(days []string) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		out = append(out, strings.ToUpper(d[:1])+strings.ToLower(d[1:]))
	}
	return out
}
