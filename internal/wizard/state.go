// Package wizard is the 11-step organization registration wizard: the form
// state, per-step validation, the checklist, repeatable sub-lists, and the
// session object that moves between steps and persists.
package wizard

import "labdesk/internal/validation"

// Step numbers.
const (
	StepLabDetails = iota + 1
	StepLegalIdentity
	StepTopManagement
	StepShifts
	StepInfrastructure
	StepComplianceDocs
	StepAccreditationDocs
	StepSOPs
	StepQualityFormats
	StepDeclaration
	StepChecklist
)

// FirstStep and LastStep bound the step cursor.
const (
	FirstStep = StepLabDetails
	LastStep  = StepChecklist
)

// StepTitles are the headings of steps 1 to 11.
var StepTitles = map[int]string{
	StepLabDetails:        "Lab Details",
	StepLegalIdentity:     "Legal Identity",
	StepTopManagement:     "Top Management",
	StepShifts:            "Working Hours & Shifts",
	StepInfrastructure:    "Infrastructure",
	StepComplianceDocs:    "Statutory Compliance",
	StepAccreditationDocs: "Accreditation",
	StepSOPs:              "Standard Operating Procedures",
	StepQualityFormats:    "Quality Formats & Procedures",
	StepDeclaration:       "Declaration",
	StepChecklist:         "Checklist",
}

// ProofPlaceholder is the unselected value of the proof-of-address dropdown.
const ProofPlaceholder = "Select"

// ProofOfAddressOptions are the accepted proof-of-address documents.
var ProofOfAddressOptions = []string{
	"Electricity Bill",
	"Rent Agreement",
	"Property Tax Receipt",
	"Sale Deed",
	"Telephone Bill",
}

// State is the whole registration form.
type State struct {
	LabDetails     LabDetails      `json:"labDetails"`
	Legal          LegalIdentity   `json:"legalIdentity"`
	TopManagement  []Person        `json:"topManagement"`
	Shifts         ShiftSchedule   `json:"shifts"`
	Infrastructure Infrastructure  `json:"infrastructure"`
	Compliance     []ComplianceDoc `json:"complianceDocuments"`
	Accreditation  Accreditation   `json:"accreditation"`
	SOPs           []SOPEntry      `json:"sops"`
	QualityFormats []QualityFormat `json:"qualityFormats"`
	Declaration    Declaration     `json:"declaration"`
}

// NewState returns an empty form with every dropdown on its placeholder.
func NewState() State {
	return State{
		LabDetails:     LabDetails{ProofOfAddress: ProofPlaceholder},
		TopManagement:  []Person{},
		Shifts:         ShiftSchedule{WorkingDays: []string{}, Shifts: []Shift{}},
		Compliance:     []ComplianceDoc{},
		Accreditation:  Accreditation{Documents: []AccreditationDoc{}},
		SOPs:           []SOPEntry{},
		QualityFormats: []QualityFormat{},
	}
}

type LabDetails struct {
	LabName        string             `json:"labName"`
	LabAddress     string             `json:"labAddress"`
	City           string             `json:"labCity"`
	State          string             `json:"labState"`
	Pincode        string             `json:"labPincode"`
	Phone          string             `json:"labPhone"`
	Email          string             `json:"labEmail"`
	Website        string             `json:"labWebsite,omitempty"`
	ProofOfAddress string             `json:"labProofOfAddress"`
	ProofDocument  *validation.Upload `json:"labProofDocument,omitempty"`
	Logo           *validation.Upload `json:"labLogo,omitempty"`
}

type LegalIdentity struct {
	OrganizationName   string      `json:"organizationName"`
	Category           OrgCategory `json:"organizationCategory"`
	RegistrationNumber string      `json:"registrationNumber"`
	PAN                string      `json:"panNumber,omitempty"`
	GSTIN              string      `json:"gstNumber,omitempty"`
	YearEstablished    int         `json:"yearEstablished,omitempty"`
}

// Person is a member of top management.
type Person struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Designation   string `json:"designation"`
	Qualification string `json:"qualification,omitempty"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
}

type Shift struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type ShiftSchedule struct {
	WorkingDays []string `json:"workingDays"`
	Shifts      []Shift  `json:"shifts"`
}

type Infrastructure struct {
	TotalArea        float64 `json:"totalArea"`
	TestingArea      float64 `json:"testingArea"`
	StorageArea      float64 `json:"storageArea,omitempty"`
	PowerBackup      bool    `json:"powerBackup"`
	AirConditioned   bool    `json:"airConditioned"`
	EnvironmentNotes string  `json:"environmentNotes,omitempty"`
}

// ComplianceDoc is a statutory licence or registration.
type ComplianceDoc struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Number     string             `json:"number"`
	IssuedBy   string             `json:"issuedBy,omitempty"`
	ValidUntil string             `json:"validUntil,omitempty"`
	File       *validation.Upload `json:"file,omitempty"`
}

type AccreditationDoc struct {
	ID                string             `json:"id"`
	Body              string             `json:"body"`
	CertificateNumber string             `json:"certificateNumber"`
	Scope             string             `json:"scope,omitempty"`
	ValidUntil        string             `json:"validUntil,omitempty"`
	File              *validation.Upload `json:"file,omitempty"`
}

// Accreditation lists certificates. A lab that is not accredited may leave
// the list empty.
type Accreditation struct {
	Accredited bool               `json:"accredited"`
	Documents  []AccreditationDoc `json:"documents"`
}

type SOPEntry struct {
	ID      string             `json:"id"`
	Title   string             `json:"title"`
	Number  string             `json:"number"`
	Version string             `json:"version,omitempty"`
	File    *validation.Upload `json:"file,omitempty"`
}

// QualityFormat is a quality record format or procedure.
type QualityFormat struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	FormatNumber string `json:"formatNumber"`
	Procedure    string `json:"procedure,omitempty"`
}

type Declaration struct {
	AuthorizedName string `json:"authorizedName"`
	Designation    string `json:"designation"`
	Place          string `json:"place"`
	Date           string `json:"date"`
	Accepted       bool   `json:"accepted"`
}
