package repository

import (
	"context"

	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// --------------------------------------------------
// Provider
// --------------------------------------------------

func (r *GormRepository) CreateProvider(
	ctx context.Context,
	p *models.Provider,
) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if httperr.IsUniqueViolation(err) {
			return httperr.ErrConflict("provider_exists")
		}
		return err
	}
	return nil
}

func (r *GormRepository) GetProvider(
	ctx context.Context,
	providerID string,
) (*models.Provider, error) {

	var p models.Provider
	if err := r.db.WithContext(ctx).
		Where("id = ?", providerID).
		First(&p).Error; err != nil {
		return nil, notFound(err, "provider_not_found")
	}
	return &p, nil
}

func (r *GormRepository) GetProviderByUser(
	ctx context.Context,
	userID string,
) (*models.Provider, error) {

	var p models.Provider
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&p).Error; err != nil {
		return nil, notFound(err, "provider_not_found")
	}
	return &p, nil
}

func (r *GormRepository) GetProviderByPaymentAccount(
	ctx context.Context,
	accountID string,
) (*models.Provider, error) {

	var p models.Provider
	if err := r.db.WithContext(ctx).
		Where("payment_account_id = ?", accountID).
		First(&p).Error; err != nil {
		return nil, notFound(err, "provider_not_found")
	}
	return &p, nil
}

func (r *GormRepository) ListActiveProviders(
	ctx context.Context,
) ([]models.Provider, error) {

	var out []models.Provider
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepository) UpdateProvider(
	ctx context.Context,
	p *models.Provider,
) error {
	return r.db.WithContext(ctx).Save(p).Error
}
