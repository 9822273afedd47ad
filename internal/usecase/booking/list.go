package booking

import (
	"context"

	"github.com/BruksfildServices01/barber-booking/internal/domain/access"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/booking"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

type SlotSummary struct {
	Date      string `json:"date"`
	StartTime int    `json:"start_time"`
	EndTime   int    `json:"end_time"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

type BookingView struct {
	models.Booking
	Slot *SlotSummary `json:"slot,omitempty"`
}

type ListCustomerBookings struct {
	repo domain.Repository
}

func NewListCustomerBookings(repo domain.Repository) *ListCustomerBookings {
	return &ListCustomerBookings{repo: repo}
}

func (uc *ListCustomerBookings) Execute(
	ctx context.Context,
	actor access.Actor,
) ([]BookingView, error) {

	if err := actor.Authenticated(); err != nil {
		return nil, err
	}

	bookings, err := uc.repo.ListCustomerBookings(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return []BookingView{}, nil
	}

	ids := make([]string, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.SlotID)
	}
	slots, err := uc.repo.ListSlotsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Slot, len(slots))
	for _, s := range slots {
		byID[s.ID] = s
	}

	out := make([]BookingView, 0, len(bookings))
	for _, b := range bookings {
		v := BookingView{Booking: b}
		// Cleaned-up slots leave the booking without a summary.
		if s, ok := byID[b.SlotID]; ok {
			v.Slot = &SlotSummary{
				Date:      s.Date,
				StartTime: s.StartTime,
				EndTime:   s.EndTime,
				Start:     timezone.Clock(s.StartTime),
				End:       timezone.Clock(s.EndTime),
			}
		}
		out = append(out, v)
	}
	return out, nil
}
