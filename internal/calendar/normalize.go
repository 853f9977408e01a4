package calendar

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"labdesk/internal/models"
	"labdesk/internal/validation"
)

var errNoDate = errors.New("no date field present")

// rule describes how one event type is derived from a source record.
type rule struct {
	Type   EventType
	Start  []string
	End    []string
	Prefix string
	Name   []string
}

// rules are keyed by source. A source with two rules emits up to two events
// per record.
var rules = map[string][]rule{
	SourceTestPlans: {{
		Type:   TypeTestPlan,
		Start:  []string{"plannedStartDate", "actualStartDate", "createdAt"},
		End:    []string{"plannedEndDate", "actualEndDate"},
		Prefix: "Test Plan",
		Name:   []string{"name", "title", "planId"},
	}},
	SourceTestExecutions: {{
		Type:   TypeTestExecution,
		Start:  []string{"executionDate", "scheduledDate", "startedAt", "createdAt"},
		End:    []string{"completedAt"},
		Prefix: "Test",
		Name:   []string{"testName", "name", "executionId"},
	}},
	SourceAudits: {{
		Type:   TypeAudit,
		Start:  []string{"scheduledDate", "auditDate", "startDate", "createdAt"},
		End:    []string{"endDate"},
		Prefix: "Audit",
		Name:   []string{"title", "auditId"},
	}},
	SourceCertifications: {
		{
			Type:   TypeCertification,
			Start:  []string{"issueDate", "issuedDate"},
			Prefix: "Issued",
			Name:   []string{"name", "certificateNumber"},
		},
		{
			Type:   TypeCertificationExpiry,
			Start:  []string{"expiryDate", "validUntil"},
			Prefix: "Expires",
			Name:   []string{"name", "certificateNumber"},
		},
	},
	SourceProjects: {{
		Type:   TypeProject,
		Start:  []string{"startDate", "plannedStartDate", "createdAt"},
		End:    []string{"endDate", "deadline"},
		Prefix: "Project",
		Name:   []string{"name", "projectId"},
	}},
	SourceSamples: {{
		Type:   TypeSample,
		Start:  []string{"receivedDate", "collectionDate", "createdAt"},
		Prefix: "Sample",
		Name:   []string{"sampleId", "name"},
	}},
	SourceRFQs: {{
		Type:   TypeRFQ,
		Start:  []string{"dueDate", "submissionDeadline", "requestDate", "createdAt"},
		Prefix: "RFQ",
		Name:   []string{"title", "rfqNumber"},
	}},
}

// defaultDuration is the length given to timed events without an end date.
const defaultDuration = time.Hour

// parseValue converts a record field into a time. Strings use the shared
// date layouts; numbers are epoch milliseconds. allDay is set for date-only
// strings.
func parseValue(v any, loc *time.Location) (t time.Time, allDay bool, err error) {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		t, err = validation.ParseDate(s, loc)
		if err != nil {
			return time.Time{}, false, err
		}
		return t.In(loc), len(s) == len("2006-01-02"), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return time.Time{}, false, fmt.Errorf("invalid timestamp %v", val)
		}
		return time.UnixMilli(int64(val)).In(loc), false, nil
	case int64:
		return time.UnixMilli(val).In(loc), false, nil
	default:
		return time.Time{}, false, fmt.Errorf("unsupported date value %T", v)
	}
}

// pickDate returns the first candidate field that is present. A present but
// unparseable value is an error; it does not fall through to the next
// candidate.
func pickDate(rec models.Record, candidates []string, loc *time.Location) (time.Time, bool, error) {
	for _, field := range candidates {
		v, ok := rec[field]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		t, allDay, err := parseValue(v, loc)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("%s: %w", field, err)
		}
		return t, allDay, nil
	}
	return time.Time{}, false, errNoDate
}

func recordID(rec models.Record) string {
	return rec.String("id", "_id")
}

// toEvent builds the event for one rule. It returns errNoDate when the
// record carries none of the rule's start fields.
func (r rule) toEvent(rec models.Record, index int, loc *time.Location) (Event, error) {
	start, allDay, err := pickDate(rec, r.Start, loc)
	if err != nil {
		return Event{}, err
	}

	var end time.Time
	if len(r.End) > 0 {
		if e, _, endErr := pickDate(rec, r.End, loc); endErr == nil && !e.Before(start) {
			end = e
		}
	}
	if end.IsZero() {
		end = start
		if !allDay {
			end = start.Add(defaultDuration)
		}
	}

	id := recordID(rec)
	if id == "" {
		id = fmt.Sprintf("idx%d", index)
	}
	name := rec.String(r.Name...)
	if name == "" {
		name = "Untitled"
	}

	return Event{
		ID:     string(r.Type) + "-" + id,
		Title:  r.Prefix + ": " + name,
		Start:  start,
		End:    end,
		AllDay: allDay,
		Type:   r.Type,
		Color:  r.Type.Color(),
		Icon:   r.Type.Icon(),
		Resource: Resource{
			Type: string(r.Type),
			ID:   id,
			Data: rec,
		},
	}, nil
}
