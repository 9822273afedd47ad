package provider

import (
	"context"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/provider"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// SyncPaymentAccount records the processor's view of a provider's payout account.
type SyncPaymentAccount struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewSyncPaymentAccount(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *SyncPaymentAccount {
	return &SyncPaymentAccount{
		repo:  repo,
		audit: audit,
	}
}

func (uc *SyncPaymentAccount) Execute(
	ctx context.Context,
	accountID string,
	status string,
) (*models.Provider, error) {

	p, err := uc.repo.GetProviderByPaymentAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if p.PaymentAccountStatus == status {
		return p, nil
	}

	previous := p.PaymentAccountStatus
	p.PaymentAccountStatus = status
	if err := uc.repo.UpdateProvider(ctx, p); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ProviderID: p.ID,
		Action:     "payment_account_updated",
		Entity:     "provider",
		EntityID:   p.ID,
		Metadata:   map[string]any{"from": previous, "to": status},
	})

	return p, nil
}
