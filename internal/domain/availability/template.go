package availability

import (
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

// Fallback schedule used only when a caller seeds a date explicitly.
const (
	OpeningTime = 600
	ClosingTime = 1200
)

// ValidateStartTimes requires strictly ascending times whose slot fits inside the day.
func ValidateStartTimes(times []int, durationMin int) error {
	prev := -1
	for _, t := range times {
		if t < 0 || t+durationMin > timezone.MinutesPerDay {
			return httperr.ErrInvalid("invalid_start_times")
		}
		if t <= prev {
			return httperr.ErrInvalid("invalid_start_times")
		}
		prev = t
	}
	return nil
}

func DefaultStartTimes(durationMin int) []int {
	if durationMin <= 0 {
		return nil
	}
	var out []int
	for t := OpeningTime; t+durationMin <= ClosingTime; t += durationMin {
		out = append(out, t)
	}
	return out
}
