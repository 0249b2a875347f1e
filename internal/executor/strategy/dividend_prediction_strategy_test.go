package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"golang-dividend-forecaster/internal/entity"
	"golang-dividend-forecaster/internal/executor/dto"
	"golang-dividend-forecaster/pkg/logger"
	"golang-dividend-forecaster/pkg/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type predictionFixture struct {
	holdings    *MockHoldingsRepository
	earnings    *MockEarningsRepository
	predictions *MockPredictionRepository
	locker      *MockRunLocker
	notifier    *recordingNotifier
	now         time.Time
	strategy    *DividendPredictionStrategy
}

func newPredictionFixture() *predictionFixture {
	f := &predictionFixture{
		holdings:    new(MockHoldingsRepository),
		earnings:    new(MockEarningsRepository),
		predictions: new(MockPredictionRepository),
		locker:      newLockerFree(),
		notifier:    &recordingNotifier{},
		now:         time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
	}
	f.strategy = NewDividendPredictionStrategy(
		testConfig(),
		logger.NewNop(),
		f.holdings,
		f.earnings,
		f.predictions,
		f.locker,
		f.notifier,
		metrics.New(prometheus.NewRegistry()),
		WithPredictionClock(fixedClock(f.now)),
	)
	return f
}

func earning(d time.Time, total string) entity.Earning {
	return entity.Earning{Date: d, TotalValue: decimal.RequireFromString(total)}
}

func decodePredictionSummary(t *testing.T, out string) dto.DividendPredictionSummary {
	t.Helper()
	var summary dto.DividendPredictionSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	return summary
}

func TestDividendPrediction_Execute(t *testing.T) {
	f := newPredictionFixture()
	userA, userB := uuid.New(), uuid.New()

	f.holdings.On("FindAll", mock.Anything).Return([]entity.Holding{
		{UserID: userA, Ticker: "TICK11"},
		{UserID: userA, Ticker: "TICK11"},
		{UserID: userA, Ticker: "MXRF11"},
		{UserID: userB, Ticker: "SHRT3"},
	}, nil)

	f.earnings.On("FindRecent", mock.Anything, userA, "TICK11", 24).Return([]entity.Earning{
		earning(f.now.AddDate(0, 0, -60), "100"),
		earning(f.now.AddDate(0, 0, -95), "100"),
	}, nil).Once()
	f.earnings.On("FindRecent", mock.Anything, userA, "MXRF11", 24).Return([]entity.Earning{
		earning(time.Date(2024, 12, 13, 0, 0, 0, 0, time.UTC), "10.00"),
		earning(time.Date(2024, 11, 14, 0, 0, 0, 0, time.UTC), "10.20"),
		earning(time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC), "9.80"),
	}, nil).Once()
	f.earnings.On("FindRecent", mock.Anything, userB, "SHRT3", 24).Return([]entity.Earning{
		earning(time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), "5"),
	}, nil).Once()

	var (
		mu     sync.Mutex
		stored []entity.Prediction
	)
	f.predictions.On("Upsert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		mu.Lock()
		defer mu.Unlock()
		stored = append(stored, args.Get(1).([]entity.Prediction)...)
	}).Return(nil)

	payload := []byte(`{"chunk_size": 5}`)
	out, err := f.strategy.Execute(context.Background(), &entity.Job{Type: entity.JobTypeDividendPrediction, Payload: payload})
	require.NoError(t, err)
	summary := decodePredictionSummary(t, out)

	assert.Equal(t, 14, summary.GeneratedPredictions)
	assert.Equal(t, 2, summary.PairsProcessed)
	assert.Equal(t, 1, summary.PairsSkipped)
	assert.Equal(t, 1, summary.RecurringPairs)
	assert.Equal(t, 1, summary.SeasonalPairs)
	assert.Zero(t, summary.FailedChunks)

	f.predictions.AssertNumberOfCalls(t, "Upsert", 3)
	f.earnings.AssertExpectations(t)
	require.Len(t, stored, 14)

	byTicker := map[string][]entity.Prediction{}
	for _, p := range stored {
		byTicker[p.Ticker] = append(byTicker[p.Ticker], p)
	}
	require.Len(t, byTicker["MXRF11"], 12)
	for _, p := range byTicker["MXRF11"] {
		assert.Equal(t, entity.AlgorithmMonthlyAverage, p.AlgorithmVersion)
		assert.Equal(t, "10.00", p.PredictedAmount.StringFixed(2))
	}
	require.Len(t, byTicker["TICK11"], 2)
	for _, p := range byTicker["TICK11"] {
		assert.Equal(t, entity.AlgorithmSeasonalMirror, p.AlgorithmVersion)
		assert.Equal(t, 0.60, p.ConfidenceScore)
		assert.True(t, p.PredictedAmount.Equal(decimal.NewFromInt(100)))
		assert.True(t, p.PredictedDate.After(f.now))
	}
	assert.Empty(t, byTicker["SHRT3"])
	require.Len(t, f.notifier.messages, 1)
}

func TestDividendPrediction_PairFailuresAreIsolated(t *testing.T) {
	f := newPredictionFixture()
	userA, userB := uuid.New(), uuid.New()

	f.holdings.On("FindAll", mock.Anything).Return([]entity.Holding{
		{UserID: userA, Ticker: "BROKEN3"},
		{UserID: userB, Ticker: "TAEE11"},
	}, nil)
	f.earnings.On("FindRecent", mock.Anything, userA, "BROKEN3", 24).Return(nil, errors.New("timeout"))
	f.earnings.On("FindRecent", mock.Anything, userB, "TAEE11", 24).Return([]entity.Earning{
		earning(time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC), "40"),
		earning(time.Date(2024, 8, 20, 0, 0, 0, 0, time.UTC), "35"),
	}, nil)
	f.predictions.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("conflict")).Once()

	out, err := f.strategy.Execute(context.Background(), &entity.Job{Type: entity.JobTypeDividendPrediction})
	require.NoError(t, err)
	summary := decodePredictionSummary(t, out)

	assert.Equal(t, 2, summary.GeneratedPredictions)
	assert.Equal(t, 1, summary.PairsProcessed)
	assert.Equal(t, 1, summary.PairsSkipped)
	assert.Equal(t, 1, summary.FailedChunks)
	assert.Len(t, summary.Logs, 2)
}

func TestDividendPrediction_SetupError(t *testing.T) {
	f := newPredictionFixture()
	f.holdings.On("FindAll", mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := f.strategy.Execute(context.Background(), &entity.Job{})
	assert.ErrorIs(t, err, ErrSetup)
	f.earnings.AssertNotCalled(t, "FindRecent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGroupPairs(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	pairs := groupPairs([]entity.Holding{
		{UserID: a, Ticker: "ITSA4"},
		{UserID: a, Ticker: ""},
		{UserID: b, Ticker: "ITSA4"},
		{UserID: a, Ticker: "ITSA4"},
	})
	assert.Equal(t, []holdingPair{{UserID: a, Ticker: "ITSA4"}, {UserID: b, Ticker: "ITSA4"}}, pairs)
}

func TestDividendPrediction_LockHeld(t *testing.T) {
	f := newPredictionFixture()
	locker := new(MockRunLocker)
	locker.On("AcquireLock", mock.Anything, "dividend:run_lock:DIVIDEND_PREDICTION", time.Minute).Return("", false, nil)
	f.strategy.locker = locker

	out, err := f.strategy.Execute(context.Background(), &entity.Job{Type: entity.JobTypeDividendPrediction})
	require.NoError(t, err)

	assert.Equal(t, "dividend prediction already running", decodePredictionSummary(t, out).Message)
	f.holdings.AssertNotCalled(t, "FindAll", mock.Anything)
	f.predictions.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestDividendPrediction_PanickingPairIsReported(t *testing.T) {
	f := newPredictionFixture()
	userA, userB := uuid.New(), uuid.New()

	f.holdings.On("FindAll", mock.Anything).Return([]entity.Holding{
		{UserID: userA, Ticker: "BOOM3"},
		{UserID: userB, Ticker: "TAEE11"},
	}, nil)
	f.earnings.On("FindRecent", mock.Anything, userA, "BOOM3", 24).Panic("index out of range")
	f.earnings.On("FindRecent", mock.Anything, userB, "TAEE11", 24).Return([]entity.Earning{
		earning(time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC), "40"),
		earning(time.Date(2024, 8, 20, 0, 0, 0, 0, time.UTC), "35"),
	}, nil)
	f.predictions.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	out, err := f.strategy.Execute(context.Background(), &entity.Job{Type: entity.JobTypeDividendPrediction})
	require.NoError(t, err)
	summary := decodePredictionSummary(t, out)

	assert.Equal(t, 1, summary.PairsProcessed)
	assert.Equal(t, 1, summary.PairsSkipped)
	require.Len(t, summary.Logs, 1)
	assert.Contains(t, summary.Logs[0], "BOOM3")
	assert.Contains(t, summary.Logs[0], "forecast panicked: index out of range")
}
