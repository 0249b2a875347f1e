package repository

import (
	"context"

	"golang-dividend-forecaster/internal/entity"

	"gorm.io/gorm"
)

// HoldingsRepository reads portfolio holdings. It never writes.
type HoldingsRepository interface {
	DistinctTickers(ctx context.Context) ([]string, error)
	FindOwners(ctx context.Context, ticker string) ([]entity.Holding, error)
	FindAll(ctx context.Context) ([]entity.Holding, error)
}

type holdingsRepository struct {
	db *gorm.DB
}

func NewHoldingsRepository(db *gorm.DB) HoldingsRepository {
	return &holdingsRepository{db: db}
}

// DistinctTickers returns every ticker held by at least one user.
func (r *holdingsRepository) DistinctTickers(ctx context.Context) ([]string, error) {
	var tickers []string
	err := r.db.WithContext(ctx).
		Model(&entity.Holding{}).
		Where("ticker IS NOT NULL AND ticker <> ''").
		Distinct("ticker").
		Order("ticker").
		Pluck("ticker", &tickers).Error
	if err != nil {
		return nil, err
	}
	return tickers, nil
}

// FindOwners returns all holdings of ticker with their quantities.
func (r *holdingsRepository) FindOwners(ctx context.Context, ticker string) ([]entity.Holding, error) {
	var holdings []entity.Holding
	if err := r.db.WithContext(ctx).Select("id", "user_id", "ticker", "quantity").Where("ticker = ?", ticker).Find(&holdings).Error; err != nil {
		return nil, err
	}
	return holdings, nil
}

// FindAll returns every holding with a ticker, ordered by user then ticker.
func (r *holdingsRepository) FindAll(ctx context.Context) ([]entity.Holding, error) {
	var holdings []entity.Holding
	err := r.db.WithContext(ctx).
		Where("ticker IS NOT NULL AND ticker <> ''").
		Order("user_id, ticker").
		Find(&holdings).Error
	if err != nil {
		return nil, err
	}
	return holdings, nil
}
