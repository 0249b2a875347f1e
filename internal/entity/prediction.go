package entity

import (
	"time"

	"golang-dividend-forecaster/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AlgorithmMonthlyAverage = "monthly_avg_v1"
	AlgorithmSeasonalMirror = "seasonal_mirror_v1"
)

// Prediction is a forecast distribution for a user and ticker on a date.
// (user_id, ticker, predicted_date) is unique; reruns overwrite.
type Prediction struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uidx_predictions_user_ticker_date" json:"user_id"`
	Ticker           string          `gorm:"type:varchar(20);not null;uniqueIndex:uidx_predictions_user_ticker_date" json:"ticker"`
	PredictedDate    time.Time       `gorm:"type:date;not null;uniqueIndex:uidx_predictions_user_ticker_date" json:"predicted_date"`
	PredictedAmount  decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"predicted_amount"`
	ConfidenceScore  float64         `gorm:"not null" json:"confidence_score"`
	AlgorithmVersion string          `gorm:"type:varchar(50);not null" json:"algorithm_version"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Prediction) TableName() string {
	return "ai_predictions"
}

// PredictionKey identifies a prediction row.
type PredictionKey struct {
	UserID        uuid.UUID
	Ticker        string
	PredictedDate string
}

// Key returns the uniqueness key of the prediction.
func (p Prediction) Key() PredictionKey {
	return PredictionKey{UserID: p.UserID, Ticker: p.Ticker, PredictedDate: p.PredictedDate.Format(utils.DateLayout)}
}
