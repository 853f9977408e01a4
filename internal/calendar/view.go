package calendar

import (
	"fmt"
	"time"
)

// Mode is a calendar view mode.
type Mode string

const (
	ModeMonth Mode = "month"
	ModeWeek  Mode = "week"
	ModeDay   Mode = "day"
)

// ParseMode accepts "month", "week" or "day". An empty string is month.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeMonth:
		return ModeMonth, nil
	case ModeWeek:
		return ModeWeek, nil
	case ModeDay:
		return ModeDay, nil
	}
	return "", fmt.Errorf("unknown calendar view %q", s)
}

// DefaultHourHeight is the pixel height of one hour in week and day views.
const DefaultHourHeight = 60

// View is the navigation state of the calendar page. Each navigation call
// returns a new View.
type View struct {
	Mode    Mode      `json:"mode"`
	Current time.Time `json:"current"`
	Types   TypeSet   `json:"-"`
}

// NewView starts a month view on now with every type shown.
func NewView(now time.Time) View {
	return View{Mode: ModeMonth, Current: now, Types: NewTypeSet()}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// startOfWeek returns the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	d := startOfDay(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// addMonths moves t by n months keeping the day of month where possible;
// Jan 31 plus one month is the last day of February.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// Window returns the first and last instant visible in the current mode.
func (v View) Window() (start, end time.Time) {
	switch v.Mode {
	case ModeDay:
		return startOfDay(v.Current), endOfDay(v.Current)
	case ModeWeek:
		start = startOfWeek(v.Current)
		return start, endOfDay(start.AddDate(0, 0, 6))
	default:
		y, m, _ := v.Current.Date()
		first := time.Date(y, m, 1, 0, 0, 0, 0, v.Current.Location())
		last := first.AddDate(0, 1, -1)
		start = startOfWeek(first)
		end = startOfWeek(last).AddDate(0, 0, 6)
		return start, endOfDay(end)
	}
}

// Days returns midnight of every visible day.
func (v View) Days() []time.Time {
	start, end := v.Window()
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Next advances by one month, week or day.
func (v View) Next() View { return v.shift(1) }

// Previous goes back by one month, week or day.
func (v View) Previous() View { return v.shift(-1) }

func (v View) shift(n int) View {
	switch v.Mode {
	case ModeDay:
		v.Current = v.Current.AddDate(0, 0, n)
	case ModeWeek:
		v.Current = v.Current.AddDate(0, 0, 7*n)
	default:
		v.Current = addMonths(v.Current, n)
	}
	return v
}

// Today jumps to now without changing the mode.
func (v View) Today(now time.Time) View {
	v.Current = now
	return v
}

// SetMode switches the mode keeping the current date.
func (v View) SetMode(m Mode) View {
	v.Mode = m
	return v
}

// Title is the heading shown above the grid.
func (v View) Title() string {
	switch v.Mode {
	case ModeDay:
		return v.Current.Format("Monday, January 2, 2006")
	case ModeWeek:
		start, end := v.Window()
		return start.Format("Jan 2") + " - " + end.Format("Jan 2, 2006")
	default:
		return v.Current.Format("January 2006")
	}
}

// PositionedEvent is a timed event with its vertical offset in the day
// column. Overlapping events are not laid out side by side.
type PositionedEvent struct {
	Event  Event   `json:"event"`
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// DayBucket holds the events of one visible day.
type DayBucket struct {
	Date    time.Time         `json:"date"`
	InMonth bool              `json:"inMonth"`
	AllDay  []Event           `json:"allDay"`
	Timed   []PositionedEvent `json:"timed"`
}

// Offset is the pixel offset of t within its day for the given hour height.
func Offset(t time.Time, unit float64) float64 {
	return float64(t.Hour())*unit + float64(t.Minute())/60*unit
}

// Layout filters events by the view's type set and partitions them into the
// visible days. All-day events appear on every day they span; timed events
// appear on their start day.
func (v View) Layout(events []Event, hourHeight float64) []DayBucket {
	if hourHeight <= 0 {
		hourHeight = DefaultHourHeight
	}
	shown := v.Types.Filter(events)
	days := v.Days()
	buckets := make([]DayBucket, len(days))
	for i, day := range days {
		buckets[i] = DayBucket{
			Date:    day,
			InMonth: v.Mode != ModeMonth || day.Month() == v.Current.Month(),
			AllDay:  []Event{},
			Timed:   []PositionedEvent{},
		}
	}

	for _, ev := range shown {
		start := ev.Start.In(v.Current.Location())
		end := ev.End.In(v.Current.Location())
		for i, day := range days {
			dayEnd := endOfDay(day)
			if ev.AllDay {
				if !startOfDay(start).After(day) && !startOfDay(end).Before(day) {
					buckets[i].AllDay = append(buckets[i].AllDay, ev)
				}
				continue
			}
			if start.Before(day) || start.After(dayEnd) {
				continue
			}
			top := Offset(start, hourHeight)
			bottom := 24 * hourHeight
			if end.Before(dayEnd) {
				bottom = Offset(end, hourHeight)
			}
			height := bottom - top
			if height < hourHeight/4 {
				height = hourHeight / 4
			}
			buckets[i].Timed = append(buckets[i].Timed, PositionedEvent{Event: ev, Top: top, Height: height})
		}
	}
	return buckets
}
