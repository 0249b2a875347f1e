package entity

import (
	"time"

	"github.com/lib/pq"
)

// TickerMigration maps a renamed or migrated instrument to its new ticker.
type TickerMigration struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OldTicker string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"old_ticker"`
	NewTicker string    `gorm:"type:varchar(20);not null" json:"new_ticker"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (TickerMigration) TableName() string {
	return "ticker_migrations"
}

// MissingTickerLog records a ticker the provider does not know and no migration covers.
// Rows are kept for manual triage and never read back by the sync job.
type MissingTickerLog struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Ticker           string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"ticker"`
	AttemptedSymbols pq.StringArray `gorm:"type:text[]" json:"attempted_symbols"`
	Occurrences      int            `gorm:"not null;default:1" json:"occurrences"`
	FirstSeenAt      time.Time      `gorm:"not null" json:"first_seen_at"`
	LastSeenAt       time.Time      `gorm:"not null" json:"last_seen_at"`
}

func (MissingTickerLog) TableName() string {
	return "missing_ticker_logs"
}
