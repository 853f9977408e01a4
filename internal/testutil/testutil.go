// Package testutil holds helpers shared by handler tests: an in-memory
// store, a fake lab backend and request/response shortcuts.
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"labdesk/internal/models"
	"labdesk/internal/store"
)

// SetupTestDB opens a migrated in-memory database, closed when t ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// FixedNow is the clock used across handler tests: Friday 15 March 2024.
func FixedNow() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }

// Call is one request seen by Backend.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Backend is a fake apiclient.Doer. Responses are keyed by "METHOD path";
// unknown keys answer {}.
type Backend struct {
	mu        sync.Mutex
	calls     []Call
	Responses map[string]string
	// Errors are returned instead of a response, keyed the same way.
	Errors map[string]error
}

// NewBackend returns a Backend serving responses.
func NewBackend(responses map[string]string) *Backend {
	if responses == nil {
		responses = map[string]string{}
	}
	return &Backend{Responses: responses, Errors: map[string]error{}}
}

func (b *Backend) do(method, path string, query url.Values, body, out any) error {
	key := method + " " + path
	b.mu.Lock()
	b.calls = append(b.calls, Call{Method: method, Path: path, Query: query, Body: body})
	resp, ok := b.Responses[key]
	err := b.Errors[key]
	b.mu.Unlock()
	if err != nil {
		return err
	}
	if !ok {
		resp = `{}`
	}
	if out == nil {
		return nil
	}
	if raw, isRaw := out.(*json.RawMessage); isRaw {
		*raw = json.RawMessage(resp)
		return nil
	}
	return json.Unmarshal([]byte(resp), out)
}

func (b *Backend) Get(_ context.Context, path string, query url.Values, out any) error {
	return b.do("GET", path, query, nil, out)
}
func (b *Backend) Post(_ context.Context, path string, body, out any) error {
	return b.do("POST", path, nil, body, out)
}
func (b *Backend) Put(_ context.Context, path string, body, out any) error {
	return b.do("PUT", path, nil, body, out)
}
func (b *Backend) Delete(_ context.Context, path string, out any) error {
	return b.do("DELETE", path, nil, nil, out)
}

// Calls returns a copy of every request so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// Find returns the first call to method and path.
func (b *Backend) Find(method, path string) (Call, bool) {
	for _, c := range b.Calls() {
		if c.Method == method && c.Path == path {
			return c, true
		}
	}
	return Call{}, false
}

// Count reports how many times method and path were requested.
func (b *Backend) Count(method, path string) int {
	n := 0
	for _, c := range b.Calls() {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

// UserRequest creates a request made by user. A nil body sends none.
func UserRequest(method, path string, body []byte, user string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != "" {
		req.Header.Set("X-Labdesk-User", user)
	}
	return req
}

// JSONRequest creates a request with body marshaled as JSON.
func JSONRequest(method, path string, body interface{}, user string) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := UserRequest(method, path, bodyBytes, user)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DecodeAPIResponse decodes an APIResponse from a ResponseRecorder.
func DecodeAPIResponse(t *testing.T, w *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var response models.APIResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode API response: %v", err)
	}
	return response
}

// AssertStatus checks that the HTTP status code matches expected.
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// DecodeEnvelope decodes an API response envelope and extracts the data.
func DecodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var resp models.APIResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode API envelope: %v", err)
	}
	dataBytes, _ := json.Marshal(resp.Data)
	if err := json.Unmarshal(dataBytes, v); err != nil {
		t.Fatalf("Failed to decode data from envelope: %v", err)
	}
}
