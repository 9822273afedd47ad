package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking/internal/config"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// indexes are created outside AutoMigrate because gorm tags cannot express
// partial indexes.
var indexes = []string{
	// At most one active booking per slot.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_active_slot
        ON bookings (slot_id)
        WHERE status IN ('pending', 'confirmed', 'completed')`,

	`CREATE INDEX IF NOT EXISTS idx_bookings_stale_pending
        ON bookings (created_at)
        WHERE status = 'pending' AND payment_status IN ('pending', 'processing')`,
}

func NewDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.AutoMigrate(
		&models.Provider{},
		&models.AvailabilityTemplate{},
		&models.Slot{},
		&models.CustomerProfile{},
		&models.Booking{},
		&models.Appointment{},
		&models.AuditLog{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if err := EnsureIndexes(db); err != nil {
		return nil, err
	}

	// Legacy rows created before providers carried a timezone.
	res := db.Exec(`
        UPDATE providers
        SET timezone = ?
        WHERE timezone IS NULL OR timezone = ''
    `, cfg.DefaultTimezone)
	if res.Error != nil {
		log.Warn("timezone backfill failed", zap.Error(res.Error))
	} else if res.RowsAffected > 0 {
		log.Info("timezone backfilled", zap.Int64("providers", res.RowsAffected))
	}

	return db, nil
}

func EnsureIndexes(db *gorm.DB) error {
	for _, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// Ping is used by the health endpoint.
func Ping(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
