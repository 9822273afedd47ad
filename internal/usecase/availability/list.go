package availability

import (
	"context"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/availability"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// SlotView is the partition shown to customers and providers for one date.
type SlotView struct {
	ProviderID string                `json:"provider_id"`
	Date       string                `json:"date"`
	Status     domain.GenerateStatus `json:"status"`
	Available  []models.Slot         `json:"available"`
	Booked     []models.Slot         `json:"booked"`
	Withdrawn  []models.Slot         `json:"withdrawn"`
}

type ListSlots struct {
	gen *GenerateSlots
}

func NewListSlots(gen *GenerateSlots) *ListSlots {
	return &ListSlots{gen: gen}
}

// Execute generates the date on first access, then partitions it.
func (uc *ListSlots) Execute(
	ctx context.Context,
	providerID string,
	date string,
) (*SlotView, error) {

	res, err := uc.gen.Execute(ctx, providerID, date)
	if err != nil {
		return nil, err
	}

	view := &SlotView{
		ProviderID: providerID,
		Date:       date,
		Status:     res.Status,
		Available:  []models.Slot{},
		Booked:     []models.Slot{},
		Withdrawn:  []models.Slot{},
	}

	for _, s := range res.Slots {
		switch {
		case s.Booked:
			view.Booked = append(view.Booked, s)
		case !s.Available:
			view.Withdrawn = append(view.Withdrawn, s)
		default:
			view.Available = append(view.Available, s)
		}
	}

	return view, nil
}

type ListTemplates struct {
	repo domain.Repository
}

func NewListTemplates(repo domain.Repository) *ListTemplates {
	return &ListTemplates{repo: repo}
}

func (uc *ListTemplates) Execute(
	ctx context.Context,
	providerID string,
) ([]models.AvailabilityTemplate, error) {

	if _, err := uc.repo.GetProvider(ctx, providerID); err != nil {
		return nil, err
	}
	return uc.repo.ListTemplates(ctx, providerID)
}
