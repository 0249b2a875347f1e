package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Holding is a portfolio position of one user in one instrument. Owned by the portfolio store;
// this service only reads it.
type Holding struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	Ticker    string          `gorm:"type:varchar(20);index" json:"ticker"`
	Quantity  decimal.Decimal `gorm:"type:numeric" json:"quantity"`
	Type      string          `gorm:"type:varchar(50)" json:"type"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Holding) TableName() string {
	return "assets"
}
