package entity

import (
	"time"

	"golang-dividend-forecaster/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EarningTypeDistribution marks a cash distribution (dividend, interest on capital) row.
const EarningTypeDistribution = "distribution"

// Earning is one ledger row: a distribution paid to a user for a ticker on a date.
// (user_id, ticker, date, total_value) is the natural key used as the upsert target.
type Earning struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uidx_earnings_natural_key" json:"user_id"`
	Ticker     string          `gorm:"type:varchar(20);not null;uniqueIndex:uidx_earnings_natural_key" json:"ticker"`
	Type       string          `gorm:"type:varchar(30);not null" json:"type"`
	Date       time.Time       `gorm:"type:date;not null;uniqueIndex:uidx_earnings_natural_key" json:"date"`
	UnitValue  decimal.Decimal `gorm:"type:numeric(18,8);not null" json:"unit_value"`
	TotalValue decimal.Decimal `gorm:"type:numeric(18,2);not null;uniqueIndex:uidx_earnings_natural_key" json:"total_value"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Earning) TableName() string {
	return "earnings"
}

// NaturalKey renders the (user_id, ticker, date, total_value) upsert key.
func (e Earning) NaturalKey() string {
	return e.UserID.String() + "|" + e.Ticker + "|" + e.Date.Format(utils.DateLayout) + "|" + e.TotalValue.StringFixed(2)
}
