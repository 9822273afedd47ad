package provider

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/domain/access"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/provider"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/logger"
	"github.com/BruksfildServices01/barber-booking/internal/payments"
	"github.com/BruksfildServices01/barber-booking/internal/validators"
)

// ======================================================
// INPUT / OUTPUT
// ======================================================

type ConnectAccountInput struct {
	Email string `json:"email"`
}

type ConnectAccountResult struct {
	AccountID      string `json:"account_id"`
	AccountStatus  string `json:"account_status"`
	OnboardingURL  string `json:"onboarding_url"`
	AlreadyExisted bool   `json:"already_existed"`
}

// ======================================================
// USE CASE
// ======================================================

// ConnectPaymentAccount opens the provider's destination account on first call
// and returns a fresh onboarding link on every call.
type ConnectPaymentAccount struct {
	repo      domain.Repository
	onboarder payments.AccountOnboarder
	audit     *audit.Dispatcher
	log       *zap.Logger
	appURL    string
	country   string
}

func NewConnectPaymentAccount(
	repo domain.Repository,
	onboarder payments.AccountOnboarder,
	audit *audit.Dispatcher,
	log *zap.Logger,
	appURL string,
	country string,
) *ConnectPaymentAccount {
	return &ConnectPaymentAccount{
		repo:      repo,
		onboarder: onboarder,
		audit:     audit,
		log:       logger.OrNop(log),
		appURL:    strings.TrimRight(appURL, "/"),
		country:   country,
	}
}

func (uc *ConnectPaymentAccount) Execute(
	ctx context.Context,
	actor access.Actor,
	providerID string,
	in ConnectAccountInput,
) (*ConnectAccountResult, error) {

	p, err := uc.repo.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireProvider(p.UserID); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email != "" && !validators.IsEmailFormatValid(email) {
		return nil, httperr.ErrInvalid("invalid_email")
	}

	if uc.onboarder == nil {
		return nil, httperr.ErrUpstream("payment_unavailable", payments.ErrNotConfigured)
	}

	res := &ConnectAccountResult{AlreadyExisted: p.PaymentAccountID != ""}

	if !res.AlreadyExisted {
		accountID, err := uc.onboarder.CreateAccount(ctx, payments.AccountRequest{
			ProviderID: p.ID,
			Name:       p.Name,
			Email:      email,
			Country:    uc.country,
		})
		if err != nil {
			uc.log.Error("payment account creation failed",
				zap.String("provider_id", p.ID),
				zap.Error(err),
			)
			return nil, httperr.ErrUpstream("payment_unavailable", err)
		}

		p.PaymentAccountID = accountID
		p.PaymentAccountStatus = AccountPending
		if err := uc.repo.UpdateProvider(ctx, p); err != nil {
			return nil, err
		}

		uc.audit.Dispatch(audit.Event{
			ProviderID: p.ID,
			ActorID:    actor.UserID,
			Action:     "payment_account_created",
			Entity:     "provider",
			EntityID:   p.ID,
		})
	}

	dashboard := uc.appURL + "/providers/" + p.ID + "/payments"
	url, err := uc.onboarder.CreateOnboardingLink(ctx, p.PaymentAccountID, dashboard+"?refresh=true", dashboard+"?success=true")
	if err != nil {
		uc.log.Error("onboarding link failed",
			zap.String("provider_id", p.ID),
			zap.Error(err),
		)
		return nil, httperr.ErrUpstream("payment_unavailable", err)
	}

	res.AccountID = p.PaymentAccountID
	res.AccountStatus = p.PaymentAccountStatus
	res.OnboardingURL = url
	return res, nil
}
