package services

import (
	"context"
	"time"

	"labdesk/internal/models"
)

const (
	QCPass = "Pass"
	QCFail = "Fail"
)

// Evaluate classifies a QC result against its acceptance range. Both bounds
// are inclusive.
func Evaluate(rng models.AcceptanceRange, value float64) (status string, deviation bool) {
	if value >= rng.Min && value <= rng.Max {
		return QCPass, false
	}
	return QCFail, true
}

// QCChecks is the QC parameter client.
type QCChecks struct {
	*Resource[models.QCCheck]
	now func() time.Time
}

// ResultRequest is the body posted when a QC result is recorded.
type ResultRequest struct {
	Value     float64 `json:"value"`
	Status    string  `json:"status"`
	Deviation bool    `json:"deviation"`
	Date      string  `json:"date"`
	Remarks   string  `json:"remarks,omitempty"`
}

// RecordResult evaluates value against the check's acceptance range and
// posts it. The backend appends it to the trend.
func (s *QCChecks) RecordResult(ctx context.Context, check models.QCCheck, value float64, remarks string) (models.QCCheck, error) {
	status, deviation := Evaluate(check.AcceptanceRange, value)
	req := ResultRequest{
		Value:     value,
		Status:    status,
		Deviation: deviation,
		Date:      s.now().Format(time.RFC3339),
		Remarks:   remarks,
	}
	return s.Action(ctx, check.ID, "results", req)
}
