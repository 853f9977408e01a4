package lab_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"labdesk/internal/audit"
	"labdesk/internal/cache"
	"labdesk/internal/handlers/lab"
	"labdesk/internal/services"
	"labdesk/internal/testutil"
)

func newTestHandler(responses map[string]string) (*lab.Handler, *testutil.Backend) {
	b := testutil.NewBackend(responses)
	reg := services.NewRegistry(b, cache.NewMemory("test", time.Minute), nil, testutil.FixedNow)
	return lab.New(reg, nil, nil, testutil.FixedNow), b
}

func TestUpdateLockedDocumentRefused(t *testing.T) {
	h, b := newTestHandler(map[string]string{
		"GET /api/documents/d1": `{"id":"d1","documentId":"DOC-1","title":"Manual","category":"SOP","version":"2.0","status":"Approved","locked":true}`,
	})

	body := `{"documentId":"DOC-1","title":"Manual v3","category":"SOP","version":"3.0","status":"Approved","locked":false}`
	req := httptest.NewRequest("PUT", "/api/v1/documents/d1", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.Update(w, req, "documents", "d1")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if _, ok := b.Find("PUT", "/api/documents/d1"); ok {
		t.Error("Expected no upstream update for a locked document")
	}
}

func TestCreateReadOnlyResource(t *testing.T) {
	h, _ := newTestHandler(nil)
	req := httptest.NewRequest("POST", "/api/v1/reports", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	h.Create(w, req, "reports")

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", w.Code)
	}
}

func TestRecordQCResult_MissingValue(t *testing.T) {
	h, b := newTestHandler(nil)
	req := httptest.NewRequest("POST", "/api/v1/qc-checks/q1/results", bytes.NewBufferString(`{"remarks":"late"}`))
	w := httptest.NewRecorder()
	h.RecordQCResult(w, req, "q1")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
	if len(b.Calls()) != 0 {
		t.Errorf("Expected no upstream calls, got %d", len(b.Calls()))
	}
}

func TestRecordQCResult_EvaluatesAgainstRange(t *testing.T) {
	h, b := newTestHandler(map[string]string{
		"GET /api/qc-checks/q1": `{"id":"q1","qcId":"QC-1","parameter":"pH","targetValue":7,"acceptanceRange":{"min":6.8,"max":7.2}}`,
	})
	req := httptest.NewRequest("POST", "/api/v1/qc-checks/q1/results", bytes.NewBufferString(`{"value":7.5}`))
	w := httptest.NewRecorder()
	h.RecordQCResult(w, req, "q1")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	c, ok := b.Find("POST", "/api/qc-checks/q1/results")
	if !ok {
		t.Fatal("Expected result to be posted upstream")
	}
	posted := c.Body.(services.ResultRequest)
	if posted.Status != services.QCFail || !posted.Deviation {
		t.Errorf("Expected Fail with deviation, got %s/%v", posted.Status, posted.Deviation)
	}
	if posted.Value != 7.5 {
		t.Errorf("Expected value 7.5, got %v", posted.Value)
	}
}

func TestCloseNC_WithoutBody(t *testing.T) {
	h, b := newTestHandler(nil)
	req := httptest.NewRequest("POST", "/api/v1/ncs/n1/close", nil)
	w := httptest.NewRecorder()
	h.CloseNC(w, req, "n1")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	c, ok := b.Find("POST", "/api/ncs/n1/close")
	if !ok {
		t.Fatal("Expected close to be posted upstream")
	}
	posted := c.Body.(map[string]string)
	if posted["closureDate"] != "2024-03-15" {
		t.Errorf("Expected closureDate 2024-03-15, got %q", posted["closureDate"])
	}
	if _, has := posted["closureNote"]; has {
		t.Error("Expected no closureNote without a note")
	}
}

func TestDocumentAction_Unknown(t *testing.T) {
	h, _ := newTestHandler(nil)
	w := httptest.NewRecorder()
	h.DocumentAction(w, httptest.NewRequest("POST", "/api/v1/documents/d1/shred", nil), "d1", "shred")

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestGenerateReport_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing type", `{"from":"2024-01-01","to":"2024-01-31"}`, http.StatusBadRequest},
		{"reversed range", `{"reportType":"calibration","from":"2024-02-01","to":"2024-01-01"}`, http.StatusBadRequest},
		{"bad date", `{"reportType":"calibration","from":"01/02/2024"}`, http.StatusBadRequest},
		{"ok", `{"reportType":"calibration","from":"2024-01-01","to":"2024-01-31"}`, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(map[string]string{
				"POST /api/reports/generate": `{"id":"r1","reportType":"calibration"}`,
			})
			w := httptest.NewRecorder()
			h.GenerateReport(w, httptest.NewRequest("POST", "/api/v1/reports/generate", bytes.NewBufferString(tt.body)))
			if w.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestInstrumentCalibrations_FiltersUpstream(t *testing.T) {
	h, b := newTestHandler(map[string]string{
		"GET /api/calibrations": `[{"id":"c1","calibrationId":"CAL-1","instrumentId":"i1","lastCalibrationDate":"2023-04-01","nextDueDate":"2024-04-01","frequency":"Yearly","status":"Valid"}]`,
	})
	w := httptest.NewRecorder()
	h.InstrumentCalibrations(w, httptest.NewRequest("GET", "/api/v1/instruments/i1/calibrations", nil), "i1")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	c, ok := b.Find("GET", "/api/calibrations")
	if !ok {
		t.Fatal("Expected calibrations to be fetched")
	}
	if got := c.Query.Get("instrumentId"); got != "i1" {
		t.Errorf("Expected instrumentId filter i1, got %q", got)
	}
	var resp struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(resp.Data))
	}
}

func TestList_UnknownEntity(t *testing.T) {
	h, _ := newTestHandler(nil)
	if h.Has("widgets") {
		t.Error("Expected widgets to be unknown")
	}
	for _, e := range h.Entities() {
		if !h.Has(e) {
			t.Errorf("Expected %s to be served", e)
		}
	}
}

func TestDelete_RecordsAudit(t *testing.T) {
	db := testutil.SetupTestDB(t)
	b := testutil.NewBackend(nil)
	reg := services.NewRegistry(b, cache.NewMemory("test", time.Minute), nil, testutil.FixedNow)
	auditLog := audit.New(db, nil, nil)
	h := lab.New(reg, auditLog, nil, testutil.FixedNow)

	w := httptest.NewRecorder()
	h.Delete(w, testutil.UserRequest("DELETE", "/api/v1/sops/s1", nil, "bob"), "sops", "s1")
	testutil.AssertStatus(t, w, http.StatusOK)

	var out map[string]string
	testutil.DecodeEnvelope(t, w, &out)
	if out["status"] != "deleted" {
		t.Errorf("Expected status deleted, got %q", out["status"])
	}
	if b.Count("DELETE", "/api/sops/s1") != 1 {
		t.Error("Expected one upstream delete")
	}

	entries, err := auditLog.List(t.Context(), audit.Filter{Module: "sops"})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(entries) != 1 || entries[0].Username != "bob" || entries[0].RecordID != "s1" {
		t.Errorf("Expected one delete entry by bob for s1, got %+v", entries)
	}
}

func TestList_DerivedConsumableFlags(t *testing.T) {
	h, _ := newTestHandler(map[string]string{
		"GET /api/consumables": `[
			{"id":"c1","itemId":"CON-1","name":"Buffer","category":"Reagent","quantityAvailable":2,"unit":"L","lowStockThreshold":5,"expiryDate":"2024-03-20"},
			{"id":"c2","itemId":"CON-2","name":"Tips","category":"Plastics","quantityAvailable":500,"unit":"pcs","lowStockThreshold":100,"expiryDate":"2025-01-01"}
		]`,
	})
	w := httptest.NewRecorder()
	h.List(w, testutil.UserRequest("GET", "/api/v1/consumables?search=buffer", nil, ""), "consumables")
	testutil.AssertStatus(t, w, http.StatusOK)

	var rows []map[string]any
	testutil.DecodeEnvelope(t, w, &rows)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0]["lowStock"] != true {
		t.Errorf("Expected lowStock, got %v", rows[0]["lowStock"])
	}
	if rows[0]["expiringSoon"] != true {
		t.Errorf("Expected expiringSoon, got %v", rows[0]["expiringSoon"])
	}
}
