package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/domain/access"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/availability"
	"github.com/BruksfildServices01/barber-booking/internal/logger"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

type SaveTemplateInput struct {
	ProviderID string
	Weekday    string
	StartTimes []int
}

type SaveTemplateResult struct {
	Template      *models.AvailabilityTemplate `json:"template"`
	Created       int                          `json:"created"`
	MadeAvailable int                          `json:"made_available"`
	Withdrawn     int                          `json:"withdrawn"`
	// Booked slots the provider asked to remove; they stay offered to their customer.
	Overridden []models.Slot `json:"overridden"`
}

type SaveTemplate struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	log   *zap.Logger
	now   func() time.Time
}

func NewSaveTemplate(
	repo domain.Repository,
	audit *audit.Dispatcher,
	log *zap.Logger,
) *SaveTemplate {
	return &SaveTemplate{
		repo:  repo,
		audit: audit,
		log:   logger.OrNop(log),
		now:   time.Now,
	}
}

func (uc *SaveTemplate) Execute(
	ctx context.Context,
	actor access.Actor,
	in SaveTemplateInput,
) (*SaveTemplateResult, error) {

	weekday, err := domain.ParseWeekday(in.Weekday)
	if err != nil {
		return nil, err
	}

	provider, err := uc.repo.GetProvider(ctx, in.ProviderID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireProvider(provider.UserID); err != nil {
		return nil, err
	}

	if err := domain.ValidateStartTimes(in.StartTimes, provider.SlotDurationMin); err != nil {
		return nil, err
	}

	tpl := &models.AvailabilityTemplate{
		ID:         uuid.NewString(),
		ProviderID: provider.ID,
		Weekday:    int(weekday),
		StartTimes: append([]int{}, in.StartTimes...),
	}
	if err := uc.repo.SaveTemplate(ctx, tpl); err != nil {
		return nil, err
	}

	res, err := uc.resync(ctx, provider, weekday, tpl.StartTimes)
	if err != nil {
		return nil, err
	}
	res.Template = tpl

	if len(res.Overridden) > 0 {
		uc.log.Info("template edit kept booked slots available",
			zap.String("provider_id", provider.ID),
			zap.Int("weekday", int(weekday)),
			zap.Int("overridden", len(res.Overridden)),
		)
	}

	uc.audit.Dispatch(audit.Event{
		ProviderID: provider.ID,
		ActorID:    actor.UserID,
		Action:     "template_saved",
		Entity:     "availability_template",
		EntityID:   tpl.ID,
		Metadata: map[string]any{
			"weekday":     weekday.String(),
			"start_times": tpl.StartTimes,
			"overridden":  len(res.Overridden),
		},
	})

	return res, nil
}

type DayInput struct {
	Weekday    string `json:"weekday"`
	StartTimes []int  `json:"start_times"`
}

// ExecuteWeek saves several weekdays; it stops at the first invalid day.
func (uc *SaveTemplate) ExecuteWeek(
	ctx context.Context,
	actor access.Actor,
	providerID string,
	days []DayInput,
) ([]SaveTemplateResult, error) {

	for _, d := range days {
		if _, err := domain.ParseWeekday(d.Weekday); err != nil {
			return nil, err
		}
	}

	out := make([]SaveTemplateResult, 0, len(days))
	for _, d := range days {
		res, err := uc.Execute(ctx, actor, SaveTemplateInput{
			ProviderID: providerID,
			Weekday:    d.Weekday,
			StartTimes: d.StartTimes,
		})
		if err != nil {
			return out, err
		}
		out = append(out, *res)
	}
	return out, nil
}

func (uc *SaveTemplate) resync(
	ctx context.Context,
	provider *models.Provider,
	weekday time.Weekday,
	startTimes []int,
) (*SaveTemplateResult, error) {

	now := uc.now()
	today := timezone.Today(now, timezone.Location(provider.Timezone))

	existing, err := uc.repo.ListSlotsFrom(ctx, provider.ID, today, weekday)
	if err != nil {
		return nil, err
	}

	plan := domain.PlanResync(existing, startTimes)
	res := &SaveTemplateResult{Overridden: plan.Overridden}

	if res.MadeAvailable, err = uc.repo.SetSlotsAvailable(ctx, plan.MakeAvailable, true, now); err != nil {
		return nil, err
	}
	if res.Withdrawn, err = uc.repo.SetSlotsAvailable(ctx, plan.Withdraw, false, now); err != nil {
		return nil, err
	}

	// slots claimed between the read and the withdraw were skipped by the write
	if res.Withdrawn < len(plan.Withdraw) {
		raced, err := uc.claimedSince(ctx, plan.Withdraw)
		if err != nil {
			return nil, err
		}
		res.Overridden = append(res.Overridden, raced...)
	}

	for date, times := range plan.Missing {
		n, err := uc.repo.InsertSlots(ctx, domain.BuildSlots(provider, date, weekday, times, now))
		if err != nil {
			return nil, err
		}
		res.Created += n
	}

	if res.Overridden == nil {
		res.Overridden = []models.Slot{}
	}
	return res, nil
}

func (uc *SaveTemplate) claimedSince(ctx context.Context, ids []string) ([]models.Slot, error) {
	var out []models.Slot
	for _, id := range ids {
		s, err := uc.repo.GetSlot(ctx, id)
		if err != nil {
			return nil, err
		}
		if s.Booked {
			out = append(out, *s)
		}
	}
	return out, nil
}
