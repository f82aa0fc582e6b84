package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/agp/models"
)

type achievementRepository struct {
	db *gorm.DB
}

// Get returns nil, nil when the user has no such achievement.
func (r *achievementRepository) Get(ctx context.Context, userID, id string) (*models.Achievement, error) {
	var a models.Achievement
	err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *achievementRepository) ListByUser(ctx context.Context, userID string) ([]models.Achievement, error) {
	var items []models.Achievement
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&items).Error
	return items, err
}

// SeedMissing inserts catalog rows, leaving rows that already exist untouched.
func (r *achievementRepository) SeedMissing(ctx context.Context, items []models.Achievement) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&items).Error
}

func (r *achievementRepository) UpdateProgress(ctx context.Context, userID, id string, progress int) error {
	res := r.db.WithContext(ctx).Model(&models.Achievement{}).
		Where("user_id = ? AND id = ?", userID, id).
		Update("progress", progress)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoRows
	}
	return nil
}

// MarkUnlocked sets unlocked_at only if it is still NULL and reports whether
// this call was the one that set it.
func (r *achievementRepository) MarkUnlocked(ctx context.Context, userID, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Achievement{}).
		Where("user_id = ? AND id = ? AND unlocked_at IS NULL", userID, id).
		Update("unlocked_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
