// Package schedule serves the calendar page: the merged event feed and the
// month, week and day layouts built from it.
package schedule

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"labdesk/internal/calendar"
	"labdesk/internal/models"
	"labdesk/internal/response"
	"labdesk/internal/validation"
)

// Collector is the part of calendar.Aggregator the handler needs.
type Collector interface {
	Collect(ctx context.Context, start, end time.Time) (calendar.Result, error)
	Location() *time.Location
}

// Handler holds dependencies for calendar handlers.
type Handler struct {
	Calendar   Collector
	HourHeight float64

	// Now is the clock used for "today"; time.Now when nil.
	Now func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now().In(h.Calendar.Location())
	}
	return h.Now().In(h.Calendar.Location())
}

// Legend is one entry of the type filter.
type Legend struct {
	Type    calendar.EventType `json:"type"`
	Label   string             `json:"label"`
	Color   string             `json:"color"`
	Icon    string             `json:"icon"`
	Enabled bool               `json:"enabled"`
}

// Page is the calendar page payload.
type Page struct {
	Mode     calendar.Mode        `json:"mode"`
	Current  string               `json:"current"`
	Title    string               `json:"title"`
	Start    time.Time            `json:"start"`
	End      time.Time            `json:"end"`
	Previous string               `json:"previous"`
	Next     string               `json:"next"`
	Today    string               `json:"today"`
	Legend   []Legend             `json:"legend"`
	Days     []calendar.DayBucket `json:"days"`
	Events   []calendar.Event     `json:"events"`
}

const dateLayout = "2006-01-02"

// ParseTypes reads a comma-separated type list. Empty means all types.
func ParseTypes(s string) (calendar.TypeSet, error) {
	if strings.TrimSpace(s) == "" {
		return calendar.NewTypeSet(), nil
	}
	var types []calendar.EventType
	for _, part := range strings.Split(s, ",") {
		t := calendar.EventType(strings.TrimSpace(part))
		if t == "" {
			continue
		}
		if !t.Valid() {
			return nil, fmt.Errorf("unknown event type %q", t)
		}
		types = append(types, t)
	}
	return calendar.NewTypeSet(types...), nil
}

// viewFromQuery builds the view named by mode, date, types and nav
// (previous, next or today).
func (h *Handler) viewFromQuery(q url.Values) (calendar.View, error) {
	ve := &validation.ValidationErrors{}
	now := h.now()
	v := calendar.NewView(now)

	mode, err := calendar.ParseMode(q.Get("mode"))
	if err != nil {
		ve.Add("mode", "must be one of: month, week, day")
	}
	v = v.SetMode(mode)

	if d := q.Get("date"); d != "" {
		t, err := validation.ParseDate(d, h.Calendar.Location())
		if err != nil {
			ve.Add("date", "must be a valid date (YYYY-MM-DD)")
		} else {
			v.Current = t
		}
	}
	types, err := ParseTypes(q.Get("types"))
	if err != nil {
		ve.Add("types", err.Error())
	}
	v.Types = types
	if err := ve.Err(); err != nil {
		return v, err
	}

	switch q.Get("nav") {
	case "":
	case "next":
		v = v.Next()
	case "previous", "prev":
		v = v.Previous()
	case "today":
		v = v.Today(now)
	default:
		ve.Add("nav", "must be one of: previous, next, today")
		return v, ve
	}
	return v, nil
}

func legend(types calendar.TypeSet) []Legend {
	out := make([]Legend, len(calendar.AllTypes))
	for i, t := range calendar.AllTypes {
		out[i] = Legend{Type: t, Label: t.Label(), Color: t.Color(), Icon: t.Icon(), Enabled: types.Has(t)}
	}
	return out
}

// Page handles GET /api/v1/calendar.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	v, err := h.viewFromQuery(r.URL.Query())
	if err != nil {
		response.FromError(w, err)
		return
	}
	hourHeight := h.HourHeight
	if s := r.URL.Query().Get("hourHeight"); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
			hourHeight = f
		}
	}

	start, end := v.Window()
	res, err := h.Calendar.Collect(r.Context(), start, end)
	if err != nil {
		response.Err(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	page := Page{
		Mode:     v.Mode,
		Current:  v.Current.Format(dateLayout),
		Title:    v.Title(),
		Start:    start,
		End:      end,
		Previous: v.Previous().Current.Format(dateLayout),
		Next:     v.Next().Current.Format(dateLayout),
		Today:    h.now().Format(dateLayout),
		Legend:   legend(v.Types),
		Days:     v.Layout(res.Events, hourHeight),
		Events:   v.Types.Filter(res.Events),
	}
	response.JSONMeta(w, page, &models.Meta{Total: len(page.Events), Unavailable: res.Unavailable})
}

// Events handles GET /api/v1/calendar/events?start=&end=[&types=].
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	loc := h.Calendar.Location()
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "start", q.Get("start"))
	validation.RequireField(ve, "end", q.Get("end"))
	var start, end time.Time
	if !ve.HasErrors() {
		var err error
		if start, err = validation.ParseDate(q.Get("start"), loc); err != nil {
			ve.Add("start", "must be a valid date")
		}
		if end, err = validation.ParseDate(q.Get("end"), loc); err != nil {
			ve.Add("end", "must be a valid date")
		}
		// a date-only end covers the whole day
		if len(q.Get("end")) == len(dateLayout) && !end.IsZero() {
			end = end.AddDate(0, 0, 1).Add(-time.Millisecond)
		}
		if !start.IsZero() && !end.IsZero() && end.Before(start) {
			ve.Add("end", "must not be before start")
		}
	}
	types, err := ParseTypes(q.Get("types"))
	if err != nil {
		ve.Add("types", err.Error())
	}
	if err := ve.Err(); err != nil {
		response.FromError(w, err)
		return
	}

	res, err := h.Calendar.Collect(r.Context(), start, end)
	if err != nil {
		response.Err(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	events := types.Filter(res.Events)
	response.JSONMeta(w, events, &models.Meta{Total: len(events), Unavailable: res.Unavailable})
}

// Types handles GET /api/v1/calendar/types.
func (h *Handler) Types(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, legend(calendar.NewTypeSet()))
}
