package intent

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Intent is the structured booking request extracted from free text.
// It is built once per run and never modified afterwards.
type Intent struct {
	Restaurant string
	Party      int
	Date       Date
	Time       TimeOfDay

	// Location is the reference zone Date and Time are expressed in.
	Location *time.Location
}

// At returns the requested instant in the intent's reference zone.
func (i Intent) At() time.Time {
	loc := i.Location
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(i.Date.Year, i.Date.Month, i.Date.Day, i.Time.Hour, i.Time.Minute, 0, 0, loc)
}

func (i Intent) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("restaurant", i.Restaurant),
		slog.Int("party", i.Party),
		slog.String("date", i.Date.String()),
		slog.String("time", i.Time.String()),
	)
}

func (i Intent) MarshalJSON() ([]byte, error) {
	zone := "UTC"
	if i.Location != nil {
		zone = i.Location.String()
	}
	return json.Marshal(struct {
		Restaurant string    `json:"restaurant"`
		Party      int       `json:"party"`
		Date       string    `json:"date"`
		Time       string    `json:"time"`
		Timezone   string    `json:"timezone"`
		At         time.Time `json:"at"`
	}{i.Restaurant, i.Party, i.Date.String(), i.Time.String(), zone, i.At()})
}

// Date is a calendar day without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Human renders the date the way booking widgets label their calendars,
// e.g. "Monday, October 19, 2026".
func (d Date) Human() string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format("Monday, January 2, 2006")
}

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Human renders the time in 12-hour form, e.g. "7:00 PM".
func (t TimeOfDay) Human() string {
	return time.Date(2000, 1, 1, t.Hour, t.Minute, 0, 0, time.UTC).Format("3:04 PM")
}
