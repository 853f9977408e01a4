// Package forms holds one create/edit form per lab entity. A form is seeded
// from an existing record (edit) or defaults (create), checks its required
// fields, and submits through the matching service. Nothing is sent when
// validation fails.
package forms

import (
	"context"
	"errors"
	"strings"
	"time"

	"labdesk/internal/validation"
)

// Form is implemented by every entity form.
type Form interface {
	// Fields are the payload keys the form owns.
	Fields() []string
	// Validate returns *validation.ValidationErrors, or nil.
	Validate() error
	// Payload is the body sent to create or update.
	Payload() any
	// ExistingID is the id being edited, empty in create mode.
	ExistingID() string
}

// Submitter is the create/update half of a services.Resource.
type Submitter[T any] interface {
	Create(ctx context.Context, data any) (T, error)
	Update(ctx context.Context, id string, data any) (T, error)
}

// Submit validates f and then calls exactly one of Create or Update. onSuccess
// runs only after the service accepted the record; it may be nil.
func Submit[T any](ctx context.Context, svc Submitter[T], f Form, onSuccess func(T)) (T, error) {
	var zero T
	if err := f.Validate(); err != nil {
		return zero, err
	}
	var (
		out T
		err error
	)
	if id := f.ExistingID(); id != "" {
		out, err = svc.Update(ctx, id, f.Payload())
	} else {
		out, err = svc.Create(ctx, f.Payload())
	}
	if err != nil {
		return zero, err
	}
	if onSuccess != nil {
		onSuccess(out)
	}
	return out, nil
}

// Message is the notification shown for a failed submit.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ve *validation.ValidationErrors
	if errors.As(err, &ve) {
		return ve.First()
	}
	return err.Error()
}

// ParseList splits a comma-separated input into trimmed, non-empty items.
func ParseList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinList is the inverse of ParseList for seeding edit forms.
func JoinList(items []string) string {
	return strings.Join(items, ", ")
}

func today(now func() time.Time) string {
	if now == nil {
		now = time.Now
	}
	return now().Format("2006-01-02")
}

func idOf(id, fallback string) string {
	if id != "" {
		return id
	}
	return fallback
}
