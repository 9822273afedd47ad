package availability

import (
	"context"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/domain/access"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/availability"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

// SeedDefaultSlots fills a date with the fixed opening-hours schedule.
// It is only ever run on explicit request, never as a silent fallback.
type SeedDefaultSlots struct {
	gen   *GenerateSlots
	audit *audit.Dispatcher
}

func NewSeedDefaultSlots(gen *GenerateSlots, audit *audit.Dispatcher) *SeedDefaultSlots {
	return &SeedDefaultSlots{gen: gen, audit: audit}
}

func (uc *SeedDefaultSlots) Execute(
	ctx context.Context,
	actor access.Actor,
	providerID string,
	date string,
) (*GenerateResult, error) {

	weekday, err := timezone.WeekdayOf(date)
	if err != nil {
		return nil, err
	}

	provider, err := uc.gen.repo.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireProvider(provider.UserID); err != nil {
		return nil, err
	}

	existing, err := uc.gen.repo.ListSlotsForDate(ctx, providerID, date)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return &GenerateResult{Status: domain.GenerateExisting, Slots: existing}, nil
	}

	res, err := uc.gen.insert(ctx, provider, date, weekday, domain.DefaultStartTimes(provider.SlotDurationMin))
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ProviderID: providerID,
		ActorID:    actor.UserID,
		Action:     "slots_seeded",
		Entity:     "slot",
		Metadata:   map[string]any{"date": date, "count": len(res.Slots)},
	})

	return res, nil
}
