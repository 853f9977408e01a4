package models

import "strconv"

// APIResponse is the standard JSON envelope for all API responses.
type APIResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// Meta contains list metadata.
type Meta struct {
	Total       int      `json:"total,omitempty"`
	Page        int      `json:"page,omitempty"`
	Limit       int      `json:"limit,omitempty"`
	Unavailable []string `json:"unavailable,omitempty"`
}

// Record is an untyped upstream record. Calendar sources use it because each
// entity carries its dates under different field names.
type Record map[string]any

// String returns the first non-empty string value among keys.
func (r Record) String(keys ...string) string {
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

type Instrument struct {
	ID                 string `json:"id,omitempty"`
	InstrumentID       string `json:"instrumentId"`
	Name               string `json:"name"`
	Manufacturer       string `json:"manufacturer"`
	Model              string `json:"model"`
	SerialNumber       string `json:"serialNumber"`
	Status             string `json:"status"`
	AssignedDepartment string `json:"assignedDepartment"`
	Location           string `json:"location,omitempty"`
	PurchaseDate       string `json:"purchaseDate,omitempty"`
	CreatedAt          string `json:"createdAt,omitempty"`
	UpdatedAt          string `json:"updatedAt,omitempty"`
}

type Calibration struct {
	ID                  string `json:"id,omitempty"`
	CalibrationID       string `json:"calibrationId"`
	InstrumentID        string `json:"instrumentId"`
	InstrumentName      string `json:"instrumentName,omitempty"`
	LastCalibrationDate string `json:"lastCalibrationDate"`
	NextDueDate         string `json:"nextDueDate"`
	Frequency           string `json:"frequency"`
	Status              string `json:"status"`
	CalibratedBy        string `json:"calibratedBy,omitempty"`
	CertificateNumber   string `json:"certificateNumber,omitempty"`
	Remarks             string `json:"remarks,omitempty"`
}

type Consumable struct {
	ID                string  `json:"id,omitempty"`
	ItemID            string  `json:"itemId"`
	Name              string  `json:"name"`
	Category          string  `json:"category"`
	QuantityAvailable float64 `json:"quantityAvailable"`
	Unit              string  `json:"unit"`
	LowStockThreshold float64 `json:"lowStockThreshold"`
	ExpiryDate        string  `json:"expiryDate,omitempty"`
	Supplier          string  `json:"supplier,omitempty"`
	StorageLocation   string  `json:"storageLocation,omitempty"`
	Status            string  `json:"status,omitempty"`
}

// Revision is one entry of an SOP's revision history, oldest first.
type Revision struct {
	Version    string `json:"version"`
	Date       string `json:"date"`
	Changes    string `json:"changes"`
	ApprovedBy string `json:"approvedBy,omitempty"`
}

type SOP struct {
	ID                string     `json:"id,omitempty"`
	SOPID             string     `json:"sopId"`
	Title             string     `json:"title"`
	Version           string     `json:"version"`
	Status            string     `json:"status"`
	Department        string     `json:"department,omitempty"`
	EffectiveDate     string     `json:"effectiveDate,omitempty"`
	ReviewDate        string     `json:"reviewDate,omitempty"`
	LinkedTests       []string   `json:"linkedTests"`
	LinkedInstruments []string   `json:"linkedInstruments"`
	LinkedDepartments []string   `json:"linkedDepartments"`
	RevisionHistory   []Revision `json:"revisionHistory"`
}

// AcceptanceRange is the inclusive [Min, Max] band a QC result must fall into.
type AcceptanceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type TrendPoint struct {
	Date   string  `json:"date"`
	Value  float64 `json:"value"`
	Status string  `json:"status"`
}

type QCCheck struct {
	ID              string          `json:"id,omitempty"`
	QCID            string          `json:"qcId"`
	Parameter       string          `json:"parameter"`
	TestName        string          `json:"testName,omitempty"`
	InstrumentID    string          `json:"instrumentId,omitempty"`
	TargetValue     float64         `json:"targetValue"`
	AcceptanceRange AcceptanceRange `json:"acceptanceRange"`
	Unit            string          `json:"unit,omitempty"`
	Frequency       string          `json:"frequency,omitempty"`
	LastResult      *float64        `json:"lastResult,omitempty"`
	LastCheckedAt   string          `json:"lastCheckedAt,omitempty"`
	Status          string          `json:"status,omitempty"`
	Deviation       bool            `json:"deviation"`
	Trend           []TrendPoint    `json:"trend"`
}

type Finding struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Status      string `json:"status"`
}

type Audit struct {
	ID             string    `json:"id,omitempty"`
	AuditID        string    `json:"auditId"`
	Title          string    `json:"title"`
	AuditType      string    `json:"auditType"`
	Auditor        string    `json:"auditor"`
	Department     string    `json:"department,omitempty"`
	ScheduledDate  string    `json:"scheduledDate"`
	CompletedDate  string    `json:"completedDate,omitempty"`
	Status         string    `json:"status"`
	Findings       []Finding `json:"findings"`
	TotalFindings  int       `json:"totalFindings"`
	OpenFindings   int       `json:"openFindings"`
	ClosedFindings int       `json:"closedFindings"`
}

// NonConformance is an NC/CAPA record.
type NonConformance struct {
	ID               string `json:"id,omitempty"`
	NCID             string `json:"ncId"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Severity         string `json:"severity"`
	Status           string `json:"status"`
	Source           string `json:"source,omitempty"`
	ReportedBy       string `json:"reportedBy,omitempty"`
	AssignedTo       string `json:"assignedTo,omitempty"`
	ReportedDate     string `json:"reportedDate,omitempty"`
	DueDate          string `json:"dueDate,omitempty"`
	ClosureDate      string `json:"closureDate,omitempty"`
	RootCause        string `json:"rootCause,omitempty"`
	CorrectiveAction string `json:"correctiveAction,omitempty"`
	PreventiveAction string `json:"preventiveAction,omitempty"`
}

type Document struct {
	ID            string `json:"id,omitempty"`
	DocumentID    string `json:"documentId"`
	Title         string `json:"title"`
	Category      string `json:"category"`
	Version       string `json:"version"`
	Status        string `json:"status"`
	Locked        bool   `json:"locked"`
	DownloadCount int    `json:"downloadCount"`
	Owner         string `json:"owner,omitempty"`
	FileName      string `json:"fileName,omitempty"`
	FileSize      int64  `json:"fileSize,omitempty"`
	UploadedAt    string `json:"uploadedAt,omitempty"`
}

type InventoryTransaction struct {
	ID              string  `json:"id,omitempty"`
	TransactionID   string  `json:"transactionId"`
	TransactionType string  `json:"transactionType"`
	ItemID          string  `json:"itemId"`
	Quantity        float64 `json:"quantity"`
	Date            string  `json:"date,omitempty"`
	PerformedBy     string  `json:"performedBy,omitempty"`
	Remarks         string  `json:"remarks,omitempty"`
}

type Report struct {
	ID          string `json:"id,omitempty"`
	ReportID    string `json:"reportId"`
	Title       string `json:"title"`
	ReportType  string `json:"reportType"`
	Period      string `json:"period,omitempty"`
	GeneratedAt string `json:"generatedAt,omitempty"`
	GeneratedBy string `json:"generatedBy,omitempty"`
	Status      string `json:"status,omitempty"`
	URL         string `json:"url,omitempty"`
}

// AuditEntry represents a single audit log record.
type AuditEntry struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Module    string `json:"module"`
	RecordID  string `json:"record_id"`
	Summary   string `json:"summary"`
	IPAddress string `json:"ip_address,omitempty"`
	CreatedAt string `json:"created_at"`
}
