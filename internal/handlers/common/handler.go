// Package common serves the cross-page endpoints: dashboard, audit trail,
// XLSX export and the stored API session.
package common

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"labdesk/internal/audit"
	"labdesk/internal/export"
	"labdesk/internal/listing"
)

// TokenStore holds the access and refresh tokens the API client sends.
type TokenStore interface {
	SetTokens(ctx context.Context, access, refresh string) error
	Clear(ctx context.Context) error
}

// Handler holds dependencies for common/shared handlers.
type Handler struct {
	Audit  *audit.Logger
	Tokens TokenStore

	// LoadSnapshot reads the lists the dashboard is computed from.
	LoadSnapshot func(ctx context.Context) (listing.Snapshot, error)

	// Sheet builds the export of one list page; ok is false for an entity
	// that cannot be exported.
	Sheet func(ctx context.Context, entity string, v url.Values) (sheet export.Sheet, ok bool, err error)

	// Invalidate drops every cached list after the session changes hands.
	Invalidate func(ctx context.Context)

	// Now is the clock used by the dashboard; time.Now when nil.
	Now func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *Handler) record(r *http.Request, action, module, id, summary string) {
	if h.Audit != nil {
		h.Audit.RecordRequest(r, action, module, id, summary)
	}
}
