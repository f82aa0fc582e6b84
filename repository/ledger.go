package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/agp/models"
)

type ledgerRepository struct {
	db *gorm.DB
}

func (r *ledgerRepository) Insert(ctx context.Context, tx *models.PointsTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// ListByUser returns a page of the user's ledger, most recent first.
func (r *ledgerRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.PointsTransaction, error) {
	items := make([]models.PointsTransaction, 0, limit)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Order("seq DESC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (r *ledgerRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.PointsTransaction{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *ledgerRepository) SumByUser(ctx context.Context, userID string) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&models.PointsTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount),0)").
		Scan(&sum).Error
	return sum, err
}

func (r *ledgerRepository) SumSince(ctx context.Context, since time.Time) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).Model(&models.PointsTransaction{}).
		Where("timestamp >= ?", since).
		Select("COALESCE(SUM(amount),0)").
		Scan(&sum).Error
	return sum, err
}

func (r *ledgerRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.PointsTransaction{}).Count(&n).Error
	return n, err
}
