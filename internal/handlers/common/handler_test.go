package common_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"labdesk/internal/audit"
	"labdesk/internal/export"
	"labdesk/internal/handlers/common"
	"labdesk/internal/listing"
	"labdesk/internal/models"
	"labdesk/internal/testutil"
)

type fakeTokens struct {
	access, refresh string
	cleared         bool
}

func (f *fakeTokens) SetTokens(_ context.Context, access, refresh string) error {
	f.access, f.refresh = access, refresh
	return nil
}

func (f *fakeTokens) Clear(context.Context) error {
	f.cleared = true
	return nil
}

func newTestHandler(t *testing.T) (*common.Handler, *fakeTokens, *int) {
	db := testutil.SetupTestDB(t)
	tokens := &fakeTokens{}
	invalidations := 0
	h := &common.Handler{
		Audit:  audit.New(db, nil, nil),
		Tokens: tokens,
		LoadSnapshot: func(ctx context.Context) (listing.Snapshot, error) {
			return listing.Snapshot{
				Instruments: []models.Instrument{
					{ID: "1", Status: "Active"},
					{ID: "2", Status: "Out of Service"},
				},
				Documents: []models.Document{{ID: "d1", Locked: true}},
			}, nil
		},
		Sheet: func(ctx context.Context, entity string, v url.Values) (export.Sheet, bool, error) {
			switch entity {
			case "sops":
				return export.Sheet{Name: "SOPs", Headers: []string{"SOP ID"}, Rows: [][]string{{"SOP-1"}}}, true, nil
			case "audits":
				return export.Sheet{}, true, errors.New("backend down")
			}
			return export.Sheet{}, false, nil
		},
		Invalidate: func(context.Context) { invalidations++ },
		Now:        testutil.FixedNow,
	}
	return h, tokens, &invalidations
}

func TestDashboard(t *testing.T) {
	h, _, _ := newTestHandler(t)
	w := httptest.NewRecorder()
	h.Dashboard(w, testutil.UserRequest("GET", "/api/v1/dashboard", nil, ""))
	testutil.AssertStatus(t, w, http.StatusOK)

	var d listing.Dashboard
	testutil.DecodeEnvelope(t, w, &d)
	if d.TotalInstruments != 2 {
		t.Errorf("Expected 2 instruments, got %d", d.TotalInstruments)
	}
	if d.InstrumentsByStatus["Out of Service"] != 1 {
		t.Errorf("Expected 1 out of service, got %d", d.InstrumentsByStatus["Out of Service"])
	}
	if d.LockedDocuments != 1 {
		t.Errorf("Expected 1 locked document, got %d", d.LockedDocuments)
	}
}

func TestDashboard_LoadFails(t *testing.T) {
	h, _, _ := newTestHandler(t)
	h.LoadSnapshot = func(context.Context) (listing.Snapshot, error) {
		return listing.Snapshot{}, errors.New("backend down")
	}
	w := httptest.NewRecorder()
	h.Dashboard(w, testutil.UserRequest("GET", "/api/v1/dashboard", nil, ""))
	testutil.AssertStatus(t, w, http.StatusBadGateway)
}

func TestExport(t *testing.T) {
	h, _, _ := newTestHandler(t)

	w := httptest.NewRecorder()
	h.Export(w, testutil.UserRequest("GET", "/api/v1/export/sops", nil, "carol"), "sops")
	testutil.AssertStatus(t, w, http.StatusOK)
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="sops.xlsx"` {
		t.Errorf("Unexpected Content-Disposition %q", got)
	}

	entries, err := h.Audit.List(t.Context(), audit.Filter{Action: audit.ActionExport})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(entries) != 1 || entries[0].Module != "sops" {
		t.Errorf("Expected one export entry for sops, got %+v", entries)
	}

	w = httptest.NewRecorder()
	h.Export(w, testutil.UserRequest("GET", "/api/v1/export/widgets", nil, ""), "widgets")
	testutil.AssertStatus(t, w, http.StatusNotFound)

	w = httptest.NewRecorder()
	h.Export(w, testutil.UserRequest("GET", "/api/v1/export/audits", nil, ""), "audits")
	testutil.AssertStatus(t, w, http.StatusBadGateway)
}

func TestSessionTokens(t *testing.T) {
	h, tokens, invalidations := newTestHandler(t)

	w := httptest.NewRecorder()
	h.SetTokens(w, testutil.JSONRequest("PUT", "/api/v1/session/tokens", map[string]string{"refreshToken": "r"}, ""))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	if *invalidations != 0 {
		t.Error("Expected no cache invalidation for a rejected request")
	}

	w = httptest.NewRecorder()
	h.SetTokens(w, testutil.JSONRequest("PUT", "/api/v1/session/tokens",
		map[string]string{"accessToken": "a", "refreshToken": "r"}, "dave"))
	testutil.AssertStatus(t, w, http.StatusOK)
	if tokens.access != "a" || tokens.refresh != "r" {
		t.Errorf("Expected tokens a/r, got %s/%s", tokens.access, tokens.refresh)
	}
	if *invalidations != 1 {
		t.Errorf("Expected 1 invalidation, got %d", *invalidations)
	}

	w = httptest.NewRecorder()
	h.ClearTokens(w, testutil.UserRequest("DELETE", "/api/v1/session/tokens", nil, "dave"))
	testutil.AssertStatus(t, w, http.StatusOK)
	if !tokens.cleared {
		t.Error("Expected tokens to be cleared")
	}
	if *invalidations != 2 {
		t.Errorf("Expected 2 invalidations, got %d", *invalidations)
	}
}

func TestAuditLog(t *testing.T) {
	h, _, _ := newTestHandler(t)
	for i := 0; i < 3; i++ {
		h.Audit.Record(t.Context(), audit.Entry{Action: audit.ActionUpdate, Module: "instruments", RecordID: "i1"})
	}
	h.Audit.Record(t.Context(), audit.Entry{Action: audit.ActionDelete, Module: "sops", RecordID: "s1"})

	w := httptest.NewRecorder()
	h.AuditLog(w, testutil.UserRequest("GET", "/api/v1/audit?module=instruments&limit=2", nil, ""))
	testutil.AssertStatus(t, w, http.StatusOK)
	resp := testutil.DecodeAPIResponse(t, w)
	if resp.Meta == nil || resp.Meta.Total != 2 {
		t.Errorf("Expected total 2, got %+v", resp.Meta)
	}

	w = httptest.NewRecorder()
	h.AuditLog(w, testutil.UserRequest("GET", "/api/v1/audit?limit=lots", nil, ""))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}
