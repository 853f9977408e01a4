// Package calendar merges date-bearing records from the lab services into
// typed calendar events and lays them out for month, week and day views.
package calendar

import (
	"time"

	"labdesk/internal/models"
)

// EventType identifies where an event came from.
type EventType string

const (
	TypeTestPlan            EventType = "test_plan"
	TypeTestExecution       EventType = "test_execution"
	TypeAudit               EventType = "audit"
	TypeCertification       EventType = "certification"
	TypeCertificationExpiry EventType = "certification_expiry"
	TypeProject             EventType = "project"
	TypeSample              EventType = "sample"
	TypeRFQ                 EventType = "rfq"
)

// AllTypes lists every event type in display order.
var AllTypes = []EventType{
	TypeTestPlan,
	TypeTestExecution,
	TypeAudit,
	TypeCertification,
	TypeCertificationExpiry,
	TypeProject,
	TypeSample,
	TypeRFQ,
}

type style struct {
	Color string
	Icon  string
	Label string
}

var styles = map[EventType]style{
	TypeTestPlan:            {"#3b82f6", "clipboard-list", "Test Plans"},
	TypeTestExecution:       {"#10b981", "flask", "Test Executions"},
	TypeAudit:               {"#f59e0b", "search", "Audits"},
	TypeCertification:       {"#8b5cf6", "award", "Certifications"},
	TypeCertificationExpiry: {"#ef4444", "alert-triangle", "Certification Expiry"},
	TypeProject:             {"#06b6d4", "folder", "Projects"},
	TypeSample:              {"#ec4899", "test-tube", "Samples"},
	TypeRFQ:                 {"#64748b", "file-text", "RFQs"},
}

// Color returns the hex color used for t.
func (t EventType) Color() string { return styles[t].Color }

// Icon returns the icon name used for t.
func (t EventType) Icon() string { return styles[t].Icon }

// Label returns the legend label for t.
func (t EventType) Label() string { return styles[t].Label }

// Valid reports whether t is one of AllTypes.
func (t EventType) Valid() bool {
	_, ok := styles[t]
	return ok
}

// Resource is the source record behind an event, kept for detail views.
type Resource struct {
	Type string        `json:"type"`
	ID   string        `json:"id"`
	Data models.Record `json:"data"`
}

// Event is a synthesized calendar entry. It is rebuilt on every fetch.
type Event struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	AllDay   bool      `json:"allDay"`
	Type     EventType `json:"type"`
	Color    string    `json:"color"`
	Icon     string    `json:"icon"`
	Resource Resource  `json:"resource"`
}

// TypeSet is the set of event types currently shown. The zero value shows
// everything.
type TypeSet map[EventType]bool

// NewTypeSet returns a set with only the given types enabled. With no
// arguments every type is enabled.
func NewTypeSet(types ...EventType) TypeSet {
	if len(types) == 0 {
		types = AllTypes
	}
	s := make(TypeSet, len(AllTypes))
	for _, t := range AllTypes {
		s[t] = false
	}
	for _, t := range types {
		s[t] = true
	}
	return s
}

// Has reports whether t is shown.
func (s TypeSet) Has(t EventType) bool {
	if len(s) == 0 {
		return true
	}
	return s[t]
}

// Toggle flips t and returns the resulting set. The receiver is not modified.
func (s TypeSet) Toggle(t EventType) TypeSet {
	out := make(TypeSet, len(AllTypes))
	for _, tt := range AllTypes {
		out[tt] = s.Has(tt)
	}
	out[t] = !out[t]
	return out
}

// Filter returns the events whose type is in s.
func (s TypeSet) Filter(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if s.Has(e.Type) {
			out = append(out, e)
		}
	}
	return out
}
