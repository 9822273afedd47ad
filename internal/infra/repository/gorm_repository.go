package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking/internal/domain/availability"
	"github.com/BruksfildServices01/barber-booking/internal/domain/booking"
	"github.com/BruksfildServices01/barber-booking/internal/domain/provider"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

// Store is everything the service needs from persistence.
type Store interface {
	availability.Repository
	booking.Repository
	booking.SweepRepository
	provider.Repository
}

var _ Store = (*GormRepository)(nil)

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func notFound(err error, code string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return httperr.ErrNotFound(code)
	}
	return err
}
