package repository

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// --------------------------------------------------
// Template
// --------------------------------------------------

func (r *GormRepository) GetTemplate(
	ctx context.Context,
	providerID string,
	weekday time.Weekday,
) (*models.AvailabilityTemplate, error) {

	var tpl models.AvailabilityTemplate
	if err := r.db.WithContext(ctx).
		Where("provider_id = ? AND weekday = ?", providerID, int(weekday)).
		First(&tpl).Error; err != nil {
		return nil, notFound(err, "template_not_found")
	}
	return &tpl, nil
}

func (r *GormRepository) ListTemplates(
	ctx context.Context,
	providerID string,
) ([]models.AvailabilityTemplate, error) {

	var out []models.AvailabilityTemplate
	if err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("weekday ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepository) SaveTemplate(
	ctx context.Context,
	tpl *models.AvailabilityTemplate,
) error {

	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_id"}, {Name: "weekday"}},
		DoUpdates: clause.AssignmentColumns([]string{"start_times", "updated_at"}),
	}).Create(tpl).Error; err != nil {
		return err
	}

	// the row may predate this call; reload its id
	return db.Where("provider_id = ? AND weekday = ?", tpl.ProviderID, tpl.Weekday).
		First(tpl).Error
}

// --------------------------------------------------
// Slot
// --------------------------------------------------

func (r *GormRepository) GetSlot(
	ctx context.Context,
	slotID string,
) (*models.Slot, error) {

	var s models.Slot
	if err := r.db.WithContext(ctx).
		Where("id = ?", slotID).
		First(&s).Error; err != nil {
		return nil, notFound(err, "slot_not_found")
	}
	return &s, nil
}

func (r *GormRepository) ListSlotsForDate(
	ctx context.Context,
	providerID string,
	date string,
) ([]models.Slot, error) {

	var out []models.Slot
	if err := r.db.WithContext(ctx).
		Where("provider_id = ? AND date = ?", providerID, date).
		Order("start_time ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepository) ListSlotsFrom(
	ctx context.Context,
	providerID string,
	fromDate string,
	weekday time.Weekday,
) ([]models.Slot, error) {

	var out []models.Slot
	if err := r.db.WithContext(ctx).
		Where("provider_id = ? AND date >= ? AND weekday = ?", providerID, fromDate, int(weekday)).
		Order("date ASC, start_time ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepository) ListSlotsByIDs(
	ctx context.Context,
	slotIDs []string,
) ([]models.Slot, error) {

	if len(slotIDs) == 0 {
		return nil, nil
	}

	var out []models.Slot
	if err := r.db.WithContext(ctx).
		Where("id IN ?", slotIDs).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepository) InsertSlots(
	ctx context.Context,
	slots []models.Slot,
) (int, error) {

	if len(slots) == 0 {
		return 0, nil
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&slots)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (r *GormRepository) SetSlotsAvailable(
	ctx context.Context,
	slotIDs []string,
	available bool,
	now time.Time,
) (int, error) {

	if len(slotIDs) == 0 {
		return 0, nil
	}

	q := r.db.WithContext(ctx).
		Model(&models.Slot{}).
		Where("id IN ?", slotIDs)
	if !available {
		q = q.Where("booked = ?", false)
	}

	res := q.Updates(map[string]any{
		"available":    available,
		"last_updated": now,
	})
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}
