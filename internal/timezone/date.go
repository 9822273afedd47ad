package timezone

import (
	"strconv"
	"strings"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

// DateLayout is the only date representation persisted or compared.
const DateLayout = "2006-01-02"

const MinutesPerDay = 24 * 60

// minEpochMillis is 2000-01-01T00:00:00Z. Smaller integers are compact dates
// or truncated values, not timestamps.
const minEpochMillis int64 = 946684800000

// NormalizeDate accepts a calendar date ("2025-03-10"), an RFC3339 timestamp or
// epoch milliseconds and returns the calendar date in loc.
func NormalizeDate(raw string, loc *time.Location) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", httperr.ErrInvalid("invalid_date")
	}
	if loc == nil {
		loc = time.UTC
	}

	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if ms < minEpochMillis {
			return "", httperr.ErrInvalid("invalid_date")
		}
		return FromEpochMillis(ms, loc), nil
	}

	if d, err := time.ParseInLocation(DateLayout, raw, loc); err == nil {
		return d.Format(DateLayout), nil
	}

	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.In(loc).Format(DateLayout), nil
	}

	return "", httperr.ErrInvalid("invalid_date")
}

func FromEpochMillis(ms int64, loc *time.Location) string {
	return time.UnixMilli(ms).In(loc).Format(DateLayout)
}

func ParseDate(date string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, httperr.ErrInvalid("invalid_date")
	}
	return d, nil
}

func Today(now time.Time, loc *time.Location) string {
	if loc != nil {
		now = now.In(loc)
	}
	return now.Format(DateLayout)
}

// AddDays shifts a canonical date; the input must already be valid.
func AddDays(date string, days int) string {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return d.AddDate(0, 0, days).Format(DateLayout)
}

func WeekdayOf(date string) (time.Weekday, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, httperr.ErrInvalid("invalid_date")
	}
	return d.Weekday(), nil
}

// StartOf returns the instant a slot begins.
func StartOf(date string, minutes int, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(time.Duration(minutes) * time.Minute), nil
}

// Clock formats minutes since midnight as HH:MM.
func Clock(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	return pad(h) + ":" + pad(m)
}

func pad(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}
