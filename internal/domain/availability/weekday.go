package availability

import (
	"strings"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts full English day names or their three letter prefix, any case.
func ParseWeekday(raw string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if wd, ok := weekdayNames[key]; ok {
		return wd, nil
	}
	if len(key) == 3 {
		for name, wd := range weekdayNames {
			if strings.HasPrefix(name, key) {
				return wd, nil
			}
		}
	}
	return 0, httperr.ErrInvalid("invalid_weekday")
}
