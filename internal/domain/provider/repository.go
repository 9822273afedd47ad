package provider

import (
	"context"

	"github.com/BruksfildServices01/barber-booking/internal/models"
)

type Repository interface {
	CreateProvider(ctx context.Context, p *models.Provider) error
	GetProvider(ctx context.Context, providerID string) (*models.Provider, error)
	GetProviderByUser(ctx context.Context, userID string) (*models.Provider, error)
	GetProviderByPaymentAccount(ctx context.Context, accountID string) (*models.Provider, error)
	ListActiveProviders(ctx context.Context) ([]models.Provider, error)
	UpdateProvider(ctx context.Context, p *models.Provider) error
}
