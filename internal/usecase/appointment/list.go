package appointment

import (
	"context"
	"strings"

	"github.com/BruksfildServices01/barber-booking/internal/domain/access"
	"github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/domain/booking"
	"github.com/BruksfildServices01/barber-booking/internal/dto"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

type ListProviderAppointments struct {
	repo booking.Repository
}

func NewListProviderAppointments(
	repo booking.Repository,
) *ListProviderAppointments {
	return &ListProviderAppointments{
		repo: repo,
	}
}

// Execute lists a provider's appointments, optionally narrowed by status and date.
func (uc *ListProviderAppointments) Execute(
	ctx context.Context,
	actor access.Actor,
	providerID string,
	status string,
	date string,
) ([]dto.AppointmentListDTO, error) {

	provider, err := uc.repo.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireProvider(provider.UserID); err != nil {
		return nil, err
	}

	var filter booking.AppointmentFilter

	if s := strings.TrimSpace(status); s != "" {
		parsed, err := appointment.ParseStatus(strings.ToLower(s))
		if err != nil {
			return nil, err
		}
		filter.Status = string(parsed)
	}

	if d := strings.TrimSpace(date); d != "" {
		normalized, err := timezone.NormalizeDate(d, timezone.Location(provider.Timezone))
		if err != nil {
			return nil, err
		}
		filter.Date = normalized
	}

	appointments, err := uc.repo.ListProviderAppointments(ctx, providerID, filter)
	if err != nil {
		return nil, err
	}

	out := make([]dto.AppointmentListDTO, 0, len(appointments))
	for _, ap := range appointments {
		services := ap.Services
		if services == nil {
			services = []string{}
		}
		out = append(out, dto.AppointmentListDTO{
			ID:            ap.ID,
			BookingID:     ap.BookingID,
			CustomerID:    ap.CustomerID,
			Date:          ap.Date,
			StartTime:     ap.StartTime,
			EndTime:       ap.EndTime,
			Start:         timezone.Clock(ap.StartTime),
			End:           timezone.Clock(ap.EndTime),
			Services:      services,
			Status:        ap.Status,
			PaymentStatus: ap.PaymentStatus,
		})
	}

	return out, nil
}
