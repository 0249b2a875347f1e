package repository

import (
	"context"

	"golang-dividend-forecaster/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PredictionRepository stores forecast distributions.
type PredictionRepository interface {
	Upsert(ctx context.Context, predictions []entity.Prediction) error
}

type predictionRepository struct {
	db *gorm.DB
}

func NewPredictionRepository(db *gorm.DB) PredictionRepository {
	return &predictionRepository{db: db}
}

// Upsert writes predictions, replacing the forecast already stored for the same user, ticker and date.
func (r *predictionRepository) Upsert(ctx context.Context, predictions []entity.Prediction) error {
	if len(predictions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "ticker"}, {Name: "predicted_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"predicted_amount",
			"confidence_score",
			"algorithm_version",
			"updated_at",
		}),
	}).Create(&predictions).Error
}
