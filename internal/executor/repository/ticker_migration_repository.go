package repository

import (
	"context"
	"errors"
	"time"

	"golang-dividend-forecaster/internal/entity"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TickerMigrationRepository reads the old -> new ticker table.
type TickerMigrationRepository interface {
	// FindByOldTicker returns nil without error when no migration is registered.
	FindByOldTicker(ctx context.Context, oldTicker string) (*entity.TickerMigration, error)
}

type tickerMigrationRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewTickerMigrationRepository creates the repository. Lookups, misses included, are cached for ttl.
func NewTickerMigrationRepository(db *gorm.DB, ttl time.Duration) TickerMigrationRepository {
	return &tickerMigrationRepository{
		db:    db,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (r *tickerMigrationRepository) FindByOldTicker(ctx context.Context, oldTicker string) (*entity.TickerMigration, error) {
	if cached, ok := r.cache.Get(oldTicker); ok {
		return cached.(*entity.TickerMigration), nil
	}

	var migration entity.TickerMigration
	err := r.db.WithContext(ctx).Where("old_ticker = ?", oldTicker).First(&migration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		r.cache.SetDefault(oldTicker, (*entity.TickerMigration)(nil))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.cache.SetDefault(oldTicker, &migration)
	return &migration, nil
}

// MissingTickerRepository is the write-only triage log of unresolved tickers.
type MissingTickerRepository interface {
	Log(ctx context.Context, ticker string, attemptedSymbols []string, seenAt time.Time) error
}

type missingTickerRepository struct {
	db *gorm.DB
}

func NewMissingTickerRepository(db *gorm.DB) MissingTickerRepository {
	return &missingTickerRepository{db: db}
}

// Log records ticker, bumping the occurrence counter when it was logged by an earlier run.
func (r *missingTickerRepository) Log(ctx context.Context, ticker string, attemptedSymbols []string, seenAt time.Time) error {
	row := entity.MissingTickerLog{
		Ticker:           ticker,
		AttemptedSymbols: attemptedSymbols,
		Occurrences:      1,
		FirstSeenAt:      seenAt,
		LastSeenAt:       seenAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "ticker"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"occurrences":       gorm.Expr("missing_ticker_logs.occurrences + 1"),
			"last_seen_at":      seenAt,
			"attempted_symbols": row.AttemptedSymbols,
		}),
	}).Create(&row).Error
}
