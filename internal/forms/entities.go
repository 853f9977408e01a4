package forms

import (
	"time"

	"labdesk/internal/models"
	"labdesk/internal/validation"
)

// InstrumentForm creates or edits an instrument.
type InstrumentForm struct {
	models.Instrument
	existingID string
}

// NewInstrumentForm seeds the form from existing, or defaults when nil.
func NewInstrumentForm(existing *models.Instrument) *InstrumentForm {
	if existing != nil {
		return &InstrumentForm{Instrument: *existing, existingID: idOf(existing.ID, existing.InstrumentID)}
	}
	return &InstrumentForm{Instrument: models.Instrument{Status: "Active"}}
}

func (f *InstrumentForm) Fields() []string {
	return []string{"instrumentId", "name", "manufacturer", "model", "serialNumber", "status", "assignedDepartment"}
}

func (f *InstrumentForm) Validate() error {
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "instrumentId", f.InstrumentID)
	validation.RequireField(ve, "name", f.Name)
	validation.ValidateMaxLength(ve, "name", f.Name, validation.MaxTitleLength)
	validation.RequireField(ve, "manufacturer", f.Manufacturer)
	validation.RequireField(ve, "model", f.Model)
	validation.RequireField(ve, "serialNumber", f.SerialNumber)
	validation.RequireField(ve, "assignedDepartment", f.AssignedDepartment)
	validation.ValidateEnum(ve, "status", f.Status, validation.ValidInstrumentStatuses)
	validation.ValidateDate(ve, "purchaseDate", f.PurchaseDate)
	return ve.Err()
}

func (f *InstrumentForm) Payload() any       { return f.Instrument }
func (f *InstrumentForm) ExistingID() string { return f.existingID }

// CalibrationForm records a calibration against an instrument.
type CalibrationForm struct {
	models.Calibration
	existingID string
}

func NewCalibrationForm(existing *models.Calibration) *CalibrationForm {
	if existing != nil {
		return &CalibrationForm{Calibration: *existing, existingID: idOf(existing.ID, existing.CalibrationID)}
	}
	return &CalibrationForm{Calibration: models.Calibration{Frequency: "Yearly", Status: "Valid"}}
}

func (f *CalibrationForm) Fields() []string {
	return []string{"calibrationId", "instrumentId", "lastCalibrationDate", "nextDueDate", "frequency", "status"}
}

func (f *CalibrationForm) Validate() error {
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "calibrationId", f.CalibrationID)
	validation.RequireSelection(ve, "instrumentId", f.InstrumentID, "Select")
	validation.RequireField(ve, "lastCalibrationDate", f.LastCalibrationDate)
	validation.RequireField(ve, "nextDueDate", f.NextDueDate)
	validation.RequireField(ve, "frequency", f.Frequency)
	validation.ValidateDate(ve, "lastCalibrationDate", f.LastCalibrationDate)
	validation.ValidateDate(ve, "nextDueDate", f.NextDueDate)
	validation.ValidateDateOrder(ve, "nextDueDate", f.LastCalibrationDate, f.NextDueDate)
	validation.ValidateEnum(ve, "frequency", f.Frequency, validation.ValidCalibrationFreqs)
	validation.ValidateEnum(ve, "status", f.Status, validation.ValidCalibrationStatuses)
	return ve.Err()
}

func (f *CalibrationForm) Payload() any       { return f.Calibration }
func (f *CalibrationForm) ExistingID() string { return f.existingID }

// ConsumableForm creates or edits a consumable or accessory.
type ConsumableForm struct {
	models.Consumable
	existingID string
}

func NewConsumableForm(existing *models.Consumable) *ConsumableForm {
	if existing != nil {
		return &ConsumableForm{Consumable: *existing, existingID: idOf(existing.ID, existing.ItemID)}
	}
	return &ConsumableForm{Consumable: models.Consumable{Category: "Consumable"}}
}

func (f *ConsumableForm) Fields() []string {
	return []string{"itemId", "name", "category", "quantityAvailable", "unit", "lowStockThreshold"}
}

func (f *ConsumableForm) Validate() error {
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "itemId", f.ItemID)
	validation.RequireField(ve, "name", f.Name)
	validation.RequireField(ve, "category", f.Category)
	validation.RequireField(ve, "unit", f.Unit)
	validation.ValidateEnum(ve, "category", f.Category, validation.ValidConsumableCategory)
	validation.ValidateNonNegativeFloat(ve, "quantityAvailable", f.QuantityAvailable)
	validation.ValidateNonNegativeFloat(ve, "lowStockThreshold", f.LowStockThreshold)
	validation.ValidateDate(ve, "expiryDate", f.ExpiryDate)
	return ve.Err()
}

func (f *ConsumableForm) Payload() any       { return f.Consumable }
func (f *ConsumableForm) ExistingID() string { return f.existingID }

// NCForm raises or edits a non-conformance.
type NCForm struct {
	models.NonConformance
	existingID string

	// Clock stamps the closure date; time.Now when nil.
	Clock func() time.Time `json:"-"`
}

func NewNCForm(existing *models.NonConformance) *NCForm {
	if existing != nil {
		return &NCForm{NonConformance: *existing, existingID: idOf(existing.ID, existing.NCID)}
	}
	return &NCForm{NonConformance: models.NonConformance{Severity: "Medium", Status: "Open"}}
}

func (f *NCForm) Fields() []string {
	return []string{"ncId", "title", "description", "severity", "status"}
}

func (f *NCForm) Validate() error {
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "ncId", f.NCID)
	validation.RequireField(ve, "title", f.Title)
	validation.RequireField(ve, "description", f.Description)
	validation.ValidateMaxLength(ve, "title", f.Title, validation.MaxTitleLength)
	validation.ValidateMaxLength(ve, "description", f.Description, validation.MaxTextLength)
	validation.RequireField(ve, "severity", f.Severity)
	validation.ValidateEnum(ve, "severity", f.Severity, validation.ValidNCSeverities)
	validation.ValidateEnum(ve, "status", f.Status, validation.ValidNCStatuses)
	validation.ValidateDate(ve, "dueDate", f.DueDate)
	validation.ValidateDate(ve, "reportedDate", f.ReportedDate)
	validation.ValidateDateOrder(ve, "dueDate", f.ReportedDate, f.DueDate)
	return ve.Err()
}

// Payload stamps today's closure date when the form closes the NC.
func (f *NCForm) Payload() any {
	nc := f.NonConformance
	if nc.Status == "Closed" && nc.ClosureDate == "" {
		nc.ClosureDate = today(f.Clock)
	}
	return nc
}

func (f *NCForm) ExistingID() string { return f.existingID }

// TransactionForm logs stock usage, addition or wastage.
type TransactionForm struct {
	models.InventoryTransaction
	existingID string
}

func NewTransactionForm(existing *models.InventoryTransaction) *TransactionForm {
	if existing != nil {
		return &TransactionForm{InventoryTransaction: *existing, existingID: idOf(existing.ID, existing.TransactionID)}
	}
	return &TransactionForm{InventoryTransaction: models.InventoryTransaction{TransactionType: "Usage"}}
}

func (f *TransactionForm) Fields() []string {
	return []string{"transactionId", "transactionType", "itemId", "quantity"}
}

func (f *TransactionForm) Validate() error {
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "transactionId", f.TransactionID)
	validation.RequireField(ve, "transactionType", f.TransactionType)
	validation.RequireSelection(ve, "itemId", f.ItemID, "Select")
	validation.ValidateEnum(ve, "transactionType", f.TransactionType, validation.ValidTransactionTypes)
	validation.ValidatePositiveFloat(ve, "quantity", f.Quantity)
	validation.ValidateDate(ve, "date", f.Date)
	return ve.Err()
}

func (f *TransactionForm) Payload() any       { return f.InventoryTransaction }
func (f *TransactionForm) ExistingID() string { return f.existingID }
