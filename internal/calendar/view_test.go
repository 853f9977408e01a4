package calendar

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestView_MonthWindowStartsMonday(t *testing.T) {
	// March 2024 starts on a Friday and ends on a Sunday.
	v := NewView(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))
	start, end := v.Window()

	assert.Equal(t, day(2024, 2, 26), start)
	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, day(2024, 3, 31).Add(24*time.Hour-time.Millisecond), end)
	assert.Len(t, v.Days(), 35)
}

func TestView_WeekAndDayWindows(t *testing.T) {
	sunday := time.Date(2024, 3, 17, 15, 0, 0, 0, time.UTC)

	week := NewView(sunday).SetMode(ModeWeek)
	start, end := week.Window()
	assert.Equal(t, day(2024, 3, 11), start)
	assert.Equal(t, day(2024, 3, 17).Add(24*time.Hour-time.Millisecond), end)
	assert.Len(t, week.Days(), 7)

	d := NewView(sunday).SetMode(ModeDay)
	start, end = d.Window()
	assert.Equal(t, day(2024, 3, 17), start)
	assert.Equal(t, time.Date(2024, 3, 17, 23, 59, 59, 999e6, time.UTC), end)
}

func TestView_Navigation(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		mode Mode
		step func(View) View
		want time.Time
	}{
		{"month next clamps", day(2024, 1, 31), ModeMonth, View.Next, day(2024, 2, 29)},
		{"month previous clamps", day(2024, 3, 31), ModeMonth, View.Previous, day(2024, 2, 29)},
		{"month next across year", day(2024, 12, 15), ModeMonth, View.Next, day(2025, 1, 15)},
		{"week next", day(2024, 3, 11), ModeWeek, View.Next, day(2024, 3, 18)},
		{"week previous", day(2024, 3, 11), ModeWeek, View.Previous, day(2024, 3, 4)},
		{"day next", day(2024, 2, 28), ModeDay, View.Next, day(2024, 2, 29)},
		{"day previous", day(2024, 3, 1), ModeDay, View.Previous, day(2024, 2, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := View{Mode: tt.mode, Current: tt.from}
			got := tt.step(v)
			assert.Equal(t, tt.want, got.Current)
			assert.Equal(t, tt.mode, got.Mode)
			assert.Equal(t, tt.from, v.Current, "receiver must not change")
		})
	}
}

func TestView_Today(t *testing.T) {
	now := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	v := View{Mode: ModeWeek, Current: day(2020, 1, 1)}.Today(now)
	assert.Equal(t, now, v.Current)
	assert.Equal(t, ModeWeek, v.Mode)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeMonth, m)

	m, err = ParseMode("week")
	require.NoError(t, err)
	assert.Equal(t, ModeWeek, m)

	_, err = ParseMode("year")
	assert.Error(t, err)
}

func TestLayout_PositionsTimedEvents(t *testing.T) {
	v := View{Mode: ModeDay, Current: day(2024, 3, 15), Types: NewTypeSet()}
	timed := Event{
		ID:    "test_execution-1",
		Type:  TypeTestExecution,
		Start: time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 15, 11, 0, 0, 0, time.UTC),
	}
	allDay := Event{
		ID:     "sample-1",
		Type:   TypeSample,
		Start:  day(2024, 3, 15),
		End:    day(2024, 3, 15),
		AllDay: true,
	}

	buckets := v.Layout([]Event{timed, allDay}, 60)
	require.Len(t, buckets, 1)

	want := []PositionedEvent{{Event: timed, Top: 570, Height: 90}}
	if diff := cmp.Diff(want, buckets[0].Timed); diff != "" {
		t.Errorf("timed layout mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, buckets[0].AllDay, 1)
	assert.Equal(t, "sample-1", buckets[0].AllDay[0].ID)
}

func TestLayout_AllDaySpansDays(t *testing.T) {
	v := View{Mode: ModeWeek, Current: day(2024, 3, 13)}
	ev := Event{ID: "project-1", Type: TypeProject, Start: day(2024, 3, 12), End: day(2024, 3, 14), AllDay: true}

	buckets := v.Layout([]Event{ev}, 0)
	require.Len(t, buckets, 7)
	var count int
	for _, b := range buckets {
		count += len(b.AllDay)
	}
	assert.Equal(t, 3, count)
	assert.Empty(t, buckets[0].AllDay)
	assert.Len(t, buckets[1].AllDay, 1)
}

func TestLayout_TypeFilter(t *testing.T) {
	v := View{Mode: ModeDay, Current: day(2024, 3, 15), Types: NewTypeSet(TypeAudit)}
	events := []Event{
		{ID: "audit-1", Type: TypeAudit, Start: day(2024, 3, 15), End: day(2024, 3, 15), AllDay: true},
		{ID: "rfq-1", Type: TypeRFQ, Start: day(2024, 3, 15), End: day(2024, 3, 15), AllDay: true},
	}
	buckets := v.Layout(events, 60)
	require.Len(t, buckets[0].AllDay, 1)
	assert.Equal(t, "audit-1", buckets[0].AllDay[0].ID)
}

func TestTypeSet(t *testing.T) {
	var zero TypeSet
	for _, typ := range AllTypes {
		assert.True(t, zero.Has(typ))
	}

	all := NewTypeSet()
	off := all.Toggle(TypeRFQ)
	assert.False(t, off.Has(TypeRFQ))
	assert.True(t, all.Has(TypeRFQ), "Toggle must not modify the receiver")
	assert.True(t, off.Toggle(TypeRFQ).Has(TypeRFQ))
}

func TestMonthLayoutMarksOutsideDays(t *testing.T) {
	v := NewView(day(2024, 3, 15))
	buckets := v.Layout(nil, 60)
	assert.False(t, buckets[0].InMonth)
	assert.True(t, buckets[4].InMonth)
}
