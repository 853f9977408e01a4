package schedule

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labdesk/internal/calendar"
)

type fakeCollector struct {
	events      []calendar.Event
	unavailable []string
	err         error

	start, end time.Time
}

func (f *fakeCollector) Collect(_ context.Context, start, end time.Time) (calendar.Result, error) {
	f.start, f.end = start, end
	return calendar.Result{Events: f.events, Unavailable: f.unavailable}, f.err
}

func (f *fakeCollector) Location() *time.Location { return time.UTC }

func newHandler(c *fakeCollector) *Handler {
	return &Handler{
		Calendar:   c,
		HourHeight: 60,
		Now:        func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) },
	}
}

func sampleEvents() []calendar.Event {
	day := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	return []calendar.Event{
		{ID: "test_plan-1", Title: "Test Plan: Stability", Start: day, End: day, AllDay: true, Type: calendar.TypeTestPlan},
		{ID: "sample-1", Title: "Sample: SMP-1", Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour), Type: calendar.TypeSample},
	}
}

func TestParseTypes(t *testing.T) {
	all, err := ParseTypes("")
	require.NoError(t, err)
	assert.True(t, all.Has(calendar.TypeRFQ))

	some, err := ParseTypes("sample, rfq")
	require.NoError(t, err)
	assert.True(t, some.Has(calendar.TypeSample))
	assert.False(t, some.Has(calendar.TypeAudit))

	_, err = ParseTypes("sample,party")
	assert.Error(t, err)
}

func TestEvents_DateOnlyEndCoversDay(t *testing.T) {
	c := &fakeCollector{events: sampleEvents()}
	w := httptest.NewRecorder()
	newHandler(c).Events(w, httptest.NewRequest("GET", "/api/v1/calendar/events?start=2024-03-01&end=2024-03-31", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), c.start)
	assert.Equal(t, time.Date(2024, 3, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC), c.end)
}

func TestEvents_FiltersTypes(t *testing.T) {
	c := &fakeCollector{events: sampleEvents(), unavailable: []string{"rfqs"}}
	w := httptest.NewRecorder()
	newHandler(c).Events(w, httptest.NewRequest("GET", "/api/v1/calendar/events?start=2024-03-01&end=2024-03-31&types=sample", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []calendar.Event `json:"data"`
		Meta struct {
			Total       int      `json:"total"`
			Unavailable []string `json:"unavailable"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, calendar.TypeSample, resp.Data[0].Type)
	assert.Equal(t, []string{"rfqs"}, resp.Meta.Unavailable)
}

func TestEvents_Validation(t *testing.T) {
	for _, q := range []string{
		"?end=2024-03-31",
		"?start=2024-03-31&end=2024-03-01",
		"?start=yesterday&end=2024-03-01",
	} {
		w := httptest.NewRecorder()
		newHandler(&fakeCollector{}).Events(w, httptest.NewRequest("GET", "/api/v1/calendar/events"+q, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestPage_WeekNavigation(t *testing.T) {
	c := &fakeCollector{events: sampleEvents()}
	w := httptest.NewRecorder()
	newHandler(c).Page(w, httptest.NewRequest("GET", "/api/v1/calendar?mode=week&date=2024-03-12&nav=next", nil))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Data Page `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, calendar.ModeWeek, resp.Data.Mode)
	assert.Equal(t, "2024-03-19", resp.Data.Current)
	assert.Equal(t, "2024-03-12", resp.Data.Previous)
	assert.Equal(t, "2024-03-15", resp.Data.Today)
	assert.Len(t, resp.Data.Days, 7)
	assert.Len(t, resp.Data.Legend, len(calendar.AllTypes))
}

func TestPage_CanceledContext(t *testing.T) {
	c := &fakeCollector{err: context.Canceled}
	w := httptest.NewRecorder()
	newHandler(c).Page(w, httptest.NewRequest("GET", "/api/v1/calendar", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTypes(t *testing.T) {
	w := httptest.NewRecorder()
	newHandler(&fakeCollector{}).Types(w, httptest.NewRequest("GET", "/api/v1/calendar/types", nil))

	var resp struct {
		Data []Legend `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, len(calendar.AllTypes))
	for _, l := range resp.Data {
		assert.True(t, l.Enabled)
		assert.NotEmpty(t, l.Color)
	}
}
