package timezone

import (
	"sync"
	"time"
	_ "time/tzdata"
)

const DefaultTimezone = "America/Sao_Paulo"

var locations sync.Map

func load(tz string) (*time.Location, error) {
	if v, ok := locations.Load(tz); ok {
		return v.(*time.Location), nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	locations.Store(tz, loc)
	return loc, nil
}

// IsValid reports whether tz names an IANA zone. "Local" and "" are rejected
// so a provider's schedule never depends on the host machine.
func IsValid(tz string) bool {
	if tz == "" || tz == "Local" {
		return false
	}
	_, err := load(tz)
	return err == nil
}

// Location falls back to DefaultTimezone, then UTC.
func Location(tz string) *time.Location {
	if IsValid(tz) {
		if loc, err := load(tz); err == nil {
			return loc
		}
	}
	if loc, err := load(DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}

func NowIn(tz string) time.Time {
	return time.Now().In(Location(tz))
}
