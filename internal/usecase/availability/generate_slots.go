package availability

import (
	"context"
	"time"

	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/availability"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/logger"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

type GenerateResult struct {
	Status domain.GenerateStatus `json:"status"`
	Slots  []models.Slot         `json:"slots"`
}

// GenerateSlots expands the weekday template of a provider into slots for one date.
// Existing slots are returned untouched, so calling it twice never duplicates.
type GenerateSlots struct {
	repo    domain.Repository
	metrics *metrics.BookingMetrics
	log     *zap.Logger
	now     func() time.Time
}

func NewGenerateSlots(
	repo domain.Repository,
	m *metrics.BookingMetrics,
	log *zap.Logger,
) *GenerateSlots {
	return &GenerateSlots{
		repo:    repo,
		metrics: m,
		log:     logger.OrNop(log),
		now:     time.Now,
	}
}

func (uc *GenerateSlots) Execute(
	ctx context.Context,
	providerID string,
	date string,
) (*GenerateResult, error) {

	weekday, err := timezone.WeekdayOf(date)
	if err != nil {
		return nil, err
	}

	provider, err := uc.repo.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	existing, err := uc.repo.ListSlotsForDate(ctx, providerID, date)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return &GenerateResult{Status: domain.GenerateExisting, Slots: existing}, nil
	}

	tpl, err := uc.repo.GetTemplate(ctx, providerID, weekday)
	if err != nil {
		if httperr.IsKind(err, httperr.KindNotFound) {
			return &GenerateResult{Status: domain.GenerateNoTemplate, Slots: []models.Slot{}}, nil
		}
		return nil, err
	}
	if len(tpl.StartTimes) == 0 {
		return &GenerateResult{Status: domain.GenerateNoTemplate, Slots: []models.Slot{}}, nil
	}

	return uc.insert(ctx, provider, date, weekday, tpl.StartTimes)
}

func (uc *GenerateSlots) insert(
	ctx context.Context,
	provider *models.Provider,
	date string,
	weekday time.Weekday,
	startTimes []int,
) (*GenerateResult, error) {

	slots := domain.BuildSlots(provider, date, weekday, startTimes, uc.now())

	inserted, err := uc.repo.InsertSlots(ctx, slots)
	if err != nil {
		return nil, err
	}
	uc.metrics.ObserveSlotsGenerated(inserted)

	// a concurrent generator may have won some rows; read back the canonical set
	stored, err := uc.repo.ListSlotsForDate(ctx, provider.ID, date)
	if err != nil {
		return nil, err
	}

	uc.log.Debug("slots generated",
		zap.String("provider_id", provider.ID),
		zap.String("date", date),
		zap.Int("inserted", inserted),
	)

	return &GenerateResult{Status: domain.GenerateGenerated, Slots: stored}, nil
}
