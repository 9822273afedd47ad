package booking

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/booking"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

var tracer = otel.Tracer("github.com/BruksfildServices01/barber-booking/internal/usecase/booking")

// maxUpdateAttempts bounds the reload-and-retry loop around conditional booking writes.
const maxUpdateAttempts = 3

const placeholderName = "Guest User"

func placeholderEmail(userID string) string {
	id := userID
	if len(id) > 8 {
		id = id[:8]
	}
	return "user-" + id + "@example.com"
}

func currencyFor(provider *models.Provider) string {
	if provider != nil && provider.Currency != "" {
		return strings.ToLower(provider.Currency)
	}
	return "usd"
}

// updateWithRetry re-reads the booking whenever a concurrent writer moved it first.
// mutate returns false when there is nothing left to write.
func updateWithRetry(
	ctx context.Context,
	repo domain.Repository,
	b *models.Booking,
	mutate func(b *models.Booking) (bool, error),
) (*models.Booking, error) {

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		from := domain.Status(b.Status)

		changed, err := mutate(b)
		if err != nil {
			return nil, err
		}
		if !changed {
			return b, nil
		}

		err = repo.UpdateBooking(ctx, b, from)
		if err == nil {
			return b, nil
		}
		if !httperr.IsBusiness(err, "booking_changed") {
			return nil, httperr.WrapUpstream(err)
		}

		fresh, err := repo.GetBooking(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		*b = *fresh
	}
	return nil, httperr.ErrConflict("booking_changed")
}

func logDegraded(log *zap.Logger, op, part, bookingID string, err error) {
	log.Warn("secondary write failed",
		zap.String("op", op),
		zap.String("part", part),
		zap.String("booking_id", bookingID),
		zap.Error(err),
	)
}
