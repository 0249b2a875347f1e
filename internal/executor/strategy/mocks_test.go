package strategy

import (
	"context"
	"sync"
	"time"

	"golang-dividend-forecaster/internal/entity"
	"golang-dividend-forecaster/internal/executor/config"
	"golang-dividend-forecaster/internal/executor/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockHoldingsRepository is a mock implementation of HoldingsRepository for testing
type MockHoldingsRepository struct {
	mock.Mock
}

func (m *MockHoldingsRepository) DistinctTickers(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockHoldingsRepository) FindOwners(ctx context.Context, ticker string) ([]entity.Holding, error) {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Holding), args.Error(1)
}

func (m *MockHoldingsRepository) FindAll(ctx context.Context) ([]entity.Holding, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Holding), args.Error(1)
}

// MockEarningsRepository is a mock implementation of EarningsRepository for testing
type MockEarningsRepository struct {
	mock.Mock
}

func (m *MockEarningsRepository) Upsert(ctx context.Context, earnings []entity.Earning) error {
	args := m.Called(ctx, earnings)
	return args.Error(0)
}

func (m *MockEarningsRepository) FindRecent(ctx context.Context, userID uuid.UUID, ticker string, limit int) ([]entity.Earning, error) {
	args := m.Called(ctx, userID, ticker, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Earning), args.Error(1)
}

// MockPredictionRepository is a mock implementation of PredictionRepository for testing
type MockPredictionRepository struct {
	mock.Mock
}

func (m *MockPredictionRepository) Upsert(ctx context.Context, predictions []entity.Prediction) error {
	args := m.Called(ctx, predictions)
	return args.Error(0)
}

// MockYahooFinanceRepository is a mock implementation of YahooFinanceRepository for testing
type MockYahooFinanceRepository struct {
	mock.Mock
}

func (m *MockYahooFinanceRepository) GetDividends(ctx context.Context, param dto.GetDividendsParam) ([]dto.DividendEvent, error) {
	args := m.Called(ctx, param)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.DividendEvent), args.Error(1)
}

// MockTickerMigrationRepository is a mock implementation of TickerMigrationRepository for testing
type MockTickerMigrationRepository struct {
	mock.Mock
}

func (m *MockTickerMigrationRepository) FindByOldTicker(ctx context.Context, oldTicker string) (*entity.TickerMigration, error) {
	args := m.Called(ctx, oldTicker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TickerMigration), args.Error(1)
}

// MockMissingTickerRepository is a mock implementation of MissingTickerRepository for testing
type MockMissingTickerRepository struct {
	mock.Mock
}

func (m *MockMissingTickerRepository) Log(ctx context.Context, ticker string, attemptedSymbols []string, seenAt time.Time) error {
	args := m.Called(ctx, ticker, attemptedSymbols, seenAt)
	return args.Error(0)
}

// MockRunLocker is a mock implementation of RunLocker for testing
type MockRunLocker struct {
	mock.Mock
}

func (m *MockRunLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockRunLocker) ReleaseLock(ctx context.Context, key, token string) error {
	args := m.Called(ctx, key, token)
	return args.Error(0)
}

// recordingNotifier keeps every message it was asked to send.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) SendMessage(text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

func newLockerFree() *MockRunLocker {
	locker := new(MockRunLocker)
	locker.On("AcquireLock", mock.Anything, mock.Anything, time.Minute).Return("run-token", true, nil)
	locker.On("ReleaseLock", mock.Anything, mock.Anything, "run-token").Return(nil)
	return locker
}

func testConfig() *config.Config {
	return &config.Config{
		YahooFinance: config.YahooFinance{MarketSuffix: ".SA"},
		Dividend: config.Dividend{
			HistoryYears:       5,
			FutureYears:        1,
			HistoryLimit:       24,
			ChunkSize:          100,
			MaxConcurrentPairs: 2,
			RunLockTTL:         time.Minute,
		},
	}
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}
