package provider

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/domain/access"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/provider"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/payments"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

// Defaults fill the settings an admin leaves out when creating a provider.
type Defaults struct {
	Timezone        string
	SlotDurationMin int
	DefaultPrice    int64
	Currency        string
}

const (
	AccountNone    = "none"
	AccountPending = "pending"
)

var currencyPattern = regexp.MustCompile(`^[a-zA-Z]{3}$`)

// ======================================================
// CREATE
// ======================================================

type CreateProviderInput struct {
	UserID           string `json:"user_id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	Timezone         string `json:"timezone"`
	SlotDurationMin  int    `json:"slot_duration_min"`
	DefaultPrice     *int64 `json:"default_price"`
	Currency         string `json:"currency"`
	PaymentAccountID string `json:"payment_account_id"`
}

type CreateProvider struct {
	repo     domain.Repository
	audit    *audit.Dispatcher
	defaults Defaults
}

func NewCreateProvider(
	repo domain.Repository,
	audit *audit.Dispatcher,
	defaults Defaults,
) *CreateProvider {
	return &CreateProvider{
		repo:     repo,
		audit:    audit,
		defaults: defaults,
	}
}

func (uc *CreateProvider) Execute(
	ctx context.Context,
	actor access.Actor,
	in CreateProviderInput,
) (*models.Provider, error) {

	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}

	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, httperr.ErrInvalid("user_required")
	}

	p := &models.Provider{
		ID:              uuid.NewString(),
		UserID:          userID,
		Name:            strings.TrimSpace(in.Name),
		Description:     strings.TrimSpace(in.Description),
		Active:          true,
		Timezone:        firstNonEmpty(in.Timezone, uc.defaults.Timezone, "UTC"),
		SlotDurationMin: uc.defaults.SlotDurationMin,
		DefaultPrice:    uc.defaults.DefaultPrice,
		Currency:        strings.ToUpper(firstNonEmpty(in.Currency, uc.defaults.Currency, "USD")),

		PaymentAccountID:     strings.TrimSpace(in.PaymentAccountID),
		PaymentAccountStatus: AccountNone,
	}
	if in.SlotDurationMin != 0 {
		p.SlotDurationMin = in.SlotDurationMin
	}
	if in.DefaultPrice != nil {
		p.DefaultPrice = *in.DefaultPrice
	}
	if p.PaymentAccountID != "" {
		p.PaymentAccountStatus = AccountPending
	}

	if err := validate(p); err != nil {
		return nil, err
	}

	if _, err := uc.repo.GetProviderByUser(ctx, userID); err == nil {
		return nil, httperr.ErrConflict("provider_exists")
	} else if !httperr.IsKind(err, httperr.KindNotFound) {
		return nil, err
	}

	if err := uc.repo.CreateProvider(ctx, p); err != nil {
		if httperr.IsUniqueViolation(err) {
			return nil, httperr.ErrConflict("provider_exists")
		}
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ProviderID: p.ID,
		ActorID:    actor.UserID,
		Action:     "provider_created",
		Entity:     "provider",
		EntityID:   p.ID,
		Metadata:   map[string]any{"user_id": p.UserID},
	})

	return p, nil
}

// ======================================================
// UPDATE
// ======================================================

type UpdateProviderInput struct {
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	Timezone         *string `json:"timezone"`
	SlotDurationMin  *int    `json:"slot_duration_min"`
	DefaultPrice     *int64  `json:"default_price"`
	Currency         *string `json:"currency"`
	Active           *bool   `json:"active"`
	PaymentAccountID *string `json:"payment_account_id"`

	// PaymentAccountStatus is an admin override for processors that send no
	// account update events.
	PaymentAccountStatus *string `json:"payment_account_status"`
}

type UpdateProvider struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewUpdateProvider(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *UpdateProvider {
	return &UpdateProvider{
		repo:  repo,
		audit: audit,
	}
}

// Execute changes only the fields present in the input. A new slot duration
// applies to slots generated afterwards.
func (uc *UpdateProvider) Execute(
	ctx context.Context,
	actor access.Actor,
	providerID string,
	in UpdateProviderInput,
) (*models.Provider, error) {

	p, err := uc.repo.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireProvider(p.UserID); err != nil {
		return nil, err
	}

	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Timezone != nil {
		p.Timezone = strings.TrimSpace(*in.Timezone)
	}
	if in.SlotDurationMin != nil {
		p.SlotDurationMin = *in.SlotDurationMin
	}
	if in.DefaultPrice != nil {
		p.DefaultPrice = *in.DefaultPrice
	}
	if in.Currency != nil {
		p.Currency = strings.ToUpper(strings.TrimSpace(*in.Currency))
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	if in.PaymentAccountID != nil {
		id := strings.TrimSpace(*in.PaymentAccountID)
		if id != p.PaymentAccountID {
			p.PaymentAccountID = id
			p.PaymentAccountStatus = AccountPending
			if id == "" {
				p.PaymentAccountStatus = AccountNone
			}
		}
	}
	if in.PaymentAccountStatus != nil {
		if err := actor.RequireAdmin(); err != nil {
			return nil, err
		}
		status := strings.TrimSpace(*in.PaymentAccountStatus)
		switch {
		case status != AccountPending && status != payments.AccountActive && status != payments.AccountRestricted:
			return nil, httperr.ErrInvalid("invalid_account_status")
		case p.PaymentAccountID == "":
			return nil, httperr.ErrConflict("payment_account_missing")
		}
		p.PaymentAccountStatus = status
	}

	if err := validate(p); err != nil {
		return nil, err
	}
	if err := uc.repo.UpdateProvider(ctx, p); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ProviderID: p.ID,
		ActorID:    actor.UserID,
		Action:     "provider_updated",
		Entity:     "provider",
		EntityID:   p.ID,
	})

	return p, nil
}

// ======================================================
// READ
// ======================================================

type ListProviders struct {
	repo domain.Repository
}

func NewListProviders(repo domain.Repository) *ListProviders {
	return &ListProviders{repo: repo}
}

func (uc *ListProviders) Execute(ctx context.Context) ([]models.Provider, error) {
	out, err := uc.repo.ListActiveProviders(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Provider{}
	}
	return out, nil
}

type GetProvider struct {
	repo domain.Repository
}

func NewGetProvider(repo domain.Repository) *GetProvider {
	return &GetProvider{repo: repo}
}

// Execute hides inactive providers from everyone but their managers.
func (uc *GetProvider) Execute(ctx context.Context, actor access.Actor, providerID string) (*models.Provider, error) {
	p, err := uc.repo.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !p.Active && !actor.CanManageProvider(p.UserID) {
		return nil, httperr.ErrNotFound("provider_not_found")
	}
	return p, nil
}

// ======================================================
// VALIDATION
// ======================================================

func validate(p *models.Provider) error {
	switch {
	case p.Name == "" || len(p.Name) > 100:
		return httperr.ErrInvalid("invalid_name")
	case len(p.Description) > 500:
		return httperr.ErrInvalid("invalid_description")
	case !timezone.IsValid(p.Timezone):
		return httperr.ErrInvalid("invalid_timezone")
	case p.SlotDurationMin < 5 || p.SlotDurationMin > 240:
		return httperr.ErrInvalid("invalid_slot_duration")
	case p.DefaultPrice < 0:
		return httperr.ErrInvalid("invalid_price")
	case !currencyPattern.MatchString(p.Currency):
		return httperr.ErrInvalid("invalid_currency")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
