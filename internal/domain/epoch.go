package domain

import (
	"fmt"
	"time"
)

// SecondsPerHour converts a whole-hour timezone offset to seconds.
const SecondsPerHour = 3600

// EpochValue is a count of seconds since 1970-01-01T00:00:00Z.
// Zero is reserved and never applied to a clock.
type EpochValue uint32

// Valid reports whether the value may be used to update a clock.
func (e EpochValue) Valid() bool {
	return e > 0
}

// Time returns the instant in UTC.
func (e EpochValue) Time() time.Time {
	return time.Unix(int64(e), 0).UTC()
}

// LocalEpoch returns the epoch shifted by a whole-hour offset.
// The result is signed and 64-bit so offsets near the range limits do not wrap.
func (e EpochValue) LocalEpoch(offsetHours int) int64 {
	return int64(e) + int64(offsetHours)*SecondsPerHour
}

// weekdayAbbrev is indexed by Monday-based weekday.
var weekdayAbbrev = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// WeekdayName returns the three-letter name of a Monday-based weekday,
// or "?" when out of range.
func WeekdayName(weekday int) string {
	if weekday < 0 || weekday >= len(weekdayAbbrev) {
		return "?"
	}
	return weekdayAbbrev[weekday]
}

// LocalTime holds the calendar fields of one clock snapshot.
type LocalTime struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`

	// Weekday is 0 for Monday through 6 for Sunday.
	Weekday int `json:"weekday"`

	// YearDay is 1 for January 1st.
	YearDay int `json:"yearday"`
}

// LocalTimeFromEpoch converts seconds since the epoch (already offset) into
// proleptic Gregorian calendar fields.
func LocalTimeFromEpoch(localEpoch int64) LocalTime {
	return LocalTimeFromTime(time.Unix(localEpoch, 0).UTC())
}

// LocalTimeFromTime reads the wall-clock fields of t in its own location.
func LocalTimeFromTime(t time.Time) LocalTime {
	return LocalTime{
		Year:    t.Year(),
		Month:   int(t.Month()),
		Day:     t.Day(),
		Hour:    t.Hour(),
		Minute:  t.Minute(),
		Second:  t.Second(),
		Weekday: (int(t.Weekday()) + 6) % 7,
		YearDay: t.YearDay(),
	}
}

// Time returns the snapshot as a wall-clock time in UTC.
func (l LocalTime) Time() time.Time {
	return time.Date(l.Year, time.Month(l.Month), l.Day, l.Hour, l.Minute, l.Second, 0, time.UTC)
}

// IsZero reports whether the snapshot was never set.
func (l LocalTime) IsZero() bool {
	return l == LocalTime{}
}

// Date formats the date part as YYYY-MM-DD.
func (l LocalTime) Date() string {
	return fmt.Sprintf("%04d-%02d-%02d", l.Year, l.Month, l.Day)
}

// Clock formats the time part as HH:MM:SS.
func (l LocalTime) Clock() string {
	return fmt.Sprintf("%02d:%02d:%02d", l.Hour, l.Minute, l.Second)
}

// String formats the snapshot as "Mon 2025-05-05 19:41:38".
func (l LocalTime) String() string {
	return fmt.Sprintf("%s %s %s", WeekdayName(l.Weekday), l.Date(), l.Clock())
}
