package validation

// Enum values accepted by the lab backend. Display strings are stored as-is.
var (
	ValidInstrumentStatuses  = []string{"Active", "Under Maintenance", "Out of Service"}
	ValidCalibrationStatuses = []string{"Valid", "Due Soon", "Overdue"}
	ValidCalibrationFreqs    = []string{"Monthly", "Quarterly", "Half-Yearly", "Yearly"}
	ValidConsumableCategory  = []string{"Consumable", "Accessory"}
	ValidSOPStatuses         = []string{"Active", "Under Review", "Obsolete"}
	ValidQCStatuses          = []string{"Pass", "Fail"}
	ValidAuditTypes          = []string{"Internal", "External"}
	ValidAuditStatuses       = []string{"Scheduled", "In Progress", "Completed"}
	ValidFindingSeverities   = []string{"Minor", "Major", "Critical"}
	ValidFindingStatuses     = []string{"Open", "Closed"}
	ValidNCSeverities        = []string{"Low", "Medium", "High"}
	ValidNCStatuses          = []string{"Open", "In Progress", "Closed"}
	ValidDocumentStatuses    = []string{"Active", "Draft", "Archived"}
	ValidTransactionTypes    = []string{"Usage", "Addition", "Wastage"}
)
