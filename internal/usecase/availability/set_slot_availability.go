package availability

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/domain/access"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/availability"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// SetSlotAvailability lets a provider withdraw or re-offer a single slot.
type SetSlotAvailability struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	now   func() time.Time
}

func NewSetSlotAvailability(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *SetSlotAvailability {
	return &SetSlotAvailability{
		repo:  repo,
		audit: audit,
		now:   time.Now,
	}
}

func (uc *SetSlotAvailability) Execute(
	ctx context.Context,
	actor access.Actor,
	slotID string,
	available bool,
) (*models.Slot, error) {

	slot, err := uc.repo.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}

	provider, err := uc.repo.GetProvider(ctx, slot.ProviderID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireProvider(provider.UserID); err != nil {
		return nil, err
	}

	changed, err := uc.repo.SetSlotsAvailable(ctx, []string{slotID}, available, uc.now())
	if err != nil {
		return nil, err
	}
	if !available && changed == 0 {
		return nil, httperr.ErrConflict("slot_booked")
	}

	action := "slot_withdrawn"
	if available {
		action = "slot_offered"
	}
	uc.audit.Dispatch(audit.Event{
		ProviderID: provider.ID,
		ActorID:    actor.UserID,
		Action:     action,
		Entity:     "slot",
		EntityID:   slotID,
	})

	return uc.repo.GetSlot(ctx, slotID)
}
