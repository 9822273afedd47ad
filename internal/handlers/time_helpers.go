package handlers

import (
	"strings"

	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

// providerDate resolves a date parameter ("2025-03-10" or epoch ms) to the
// provider's calendar date. An empty value means today.
func providerDate(p *models.Provider, raw string) (string, error) {
	loc := timezone.Location(p.Timezone)
	if strings.TrimSpace(raw) == "" {
		return timezone.Today(timezone.NowIn(p.Timezone), loc), nil
	}
	return timezone.NormalizeDate(raw, loc)
}
