package repository

import (
	"context"

	"golang-dividend-forecaster/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EarningsRepository is the distribution ledger.
type EarningsRepository interface {
	Upsert(ctx context.Context, earnings []entity.Earning) error
	FindRecent(ctx context.Context, userID uuid.UUID, ticker string, limit int) ([]entity.Earning, error)
}

type earningsRepository struct {
	db *gorm.DB
}

func NewEarningsRepository(db *gorm.DB) EarningsRepository {
	return &earningsRepository{db: db}
}

// Upsert inserts earnings, updating in place rows that share (user_id, ticker, date, total_value).
func (r *earningsRepository) Upsert(ctx context.Context, earnings []entity.Earning) error {
	if len(earnings) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "ticker"},
			{Name: "date"},
			{Name: "total_value"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"type", "unit_value", "updated_at"}),
	}).Create(&earnings).Error
}

// FindRecent returns the latest limit earnings of a user for ticker, newest first.
func (r *earningsRepository) FindRecent(ctx context.Context, userID uuid.UUID, ticker string, limit int) ([]entity.Earning, error) {
	var earnings []entity.Earning
	err := r.db.WithContext(ctx).
		Select("date", "unit_value", "total_value", "ticker").
		Where("user_id = ? AND ticker = ?", userID, ticker).
		Order("date DESC").
		Limit(limit).
		Find(&earnings).Error
	if err != nil {
		return nil, err
	}
	return earnings, nil
}
