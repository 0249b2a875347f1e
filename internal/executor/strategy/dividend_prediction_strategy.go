package strategy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang-dividend-forecaster/internal/entity"
	"golang-dividend-forecaster/internal/executor/config"
	"golang-dividend-forecaster/internal/executor/dto"
	"golang-dividend-forecaster/internal/executor/forecast"
	"golang-dividend-forecaster/internal/executor/repository"
	"golang-dividend-forecaster/pkg/common"
	"golang-dividend-forecaster/pkg/logger"
	"golang-dividend-forecaster/pkg/metrics"
	"golang-dividend-forecaster/pkg/telegram"
	"golang-dividend-forecaster/pkg/utils"

	"github.com/google/uuid"
)

// DividendPredictionStrategy forecasts future distributions for every (user, ticker) pair from
// the earnings ledger.
type DividendPredictionStrategy struct {
	cfg            config.Dividend
	logger         *logger.Logger
	holdingsRepo   repository.HoldingsRepository
	earningsRepo   repository.EarningsRepository
	predictionRepo repository.PredictionRepository
	locker         RunLocker
	notifier       telegram.Notifier
	metrics        *metrics.Recorder
	now            Clock
}

// PredictionOption customizes a DividendPredictionStrategy.
type PredictionOption func(*DividendPredictionStrategy)

// WithPredictionClock overrides the clock forecasts are anchored on.
func WithPredictionClock(clock Clock) PredictionOption {
	return func(s *DividendPredictionStrategy) { s.now = clock }
}

// NewDividendPredictionStrategy creates a new instance of DividendPredictionStrategy.
func NewDividendPredictionStrategy(
	cfg *config.Config,
	log *logger.Logger,
	holdingsRepo repository.HoldingsRepository,
	earningsRepo repository.EarningsRepository,
	predictionRepo repository.PredictionRepository,
	locker RunLocker,
	notifier telegram.Notifier,
	recorder *metrics.Recorder,
	opts ...PredictionOption,
) *DividendPredictionStrategy {
	s := &DividendPredictionStrategy{
		cfg:            cfg.Dividend,
		logger:         log,
		holdingsRepo:   holdingsRepo,
		earningsRepo:   earningsRepo,
		predictionRepo: predictionRepo,
		locker:         locker,
		notifier:       notifier,
		metrics:        recorder,
		now:            utils.TimeNowUTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetType returns the job type this strategy handles.
func (s *DividendPredictionStrategy) GetType() entity.JobType {
	return entity.JobTypeDividendPrediction
}

type holdingPair struct {
	UserID uuid.UUID
	Ticker string
}

type pairResult struct {
	pattern forecast.Pattern
	ok      bool
	batch   *forecast.Batch
	err     error
}

// Execute runs the dividend prediction job.
func (s *DividendPredictionStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	start := time.Now()
	s.logger.InfoContext(ctx, "Executing dividend prediction job")

	var (
		payload dto.DividendPredictionPayload
		summary dto.DividendPredictionSummary
	)
	if err := decodePayload(job, &payload); err != nil {
		return FAILED, fmt.Errorf("%w: invalid job payload: %v", ErrSetup, err)
	}
	s.applyDefaults(&payload)

	lockKey := fmt.Sprintf(common.RedisKeyRunLock, s.GetType())
	lockToken, acquired, err := s.locker.AcquireLock(ctx, lockKey, lockTTL(s.cfg.RunLockTTL, job))
	if err != nil {
		return FAILED, fmt.Errorf("%w: acquire run lock: %v", ErrSetup, err)
	}
	if !acquired {
		s.logger.WarnContext(ctx, "Dividend prediction already running, skipping")
		summary.Message = "dividend prediction already running"
		summary.Logs = append(summary.Logs, "Skipped: another dividend prediction holds the run lock")
		return toJSON(summary), nil
	}
	defer func() {
		if err := s.locker.ReleaseLock(context.Background(), lockKey, lockToken); err != nil {
			s.logger.Error("Failed to release run lock", logger.ErrorField(err), logger.StringField("key", lockKey))
		}
	}()

	holdings, err := s.holdingsRepo.FindAll(ctx)
	if err != nil {
		return FAILED, fmt.Errorf("%w: load holdings: %v", ErrSetup, err)
	}
	pairs := groupPairs(holdings)
	if len(pairs) == 0 {
		summary.Message = "no holdings to forecast"
		return toJSON(summary), nil
	}

	now := s.now()
	results := s.forecastPairs(ctx, pairs, payload, now)

	all := forecast.NewBatch()
	for i, res := range results {
		pair := pairs[i]
		switch {
		case res.err != nil:
			summary.PairsSkipped++
			summary.Logs = append(summary.Logs, fmt.Sprintf("Forecast failed for %s/%s: %v", pair.UserID, pair.Ticker, res.err))
		case !res.ok:
			summary.PairsSkipped++
		default:
			summary.PairsProcessed++
			if res.pattern == forecast.PatternRecurring {
				summary.RecurringPairs++
			} else {
				summary.SeasonalPairs++
			}
			all.Merge(res.batch)
		}
	}

	predictions := all.Predictions()
	for _, p := range predictions {
		s.metrics.RecordPrediction(p.AlgorithmVersion)
	}
	summary.GeneratedPredictions = len(predictions)

	for i, chunk := range utils.Chunk(predictions, payload.ChunkSize) {
		if err := s.predictionRepo.Upsert(ctx, chunk); err != nil {
			summary.FailedChunks++
			s.metrics.RecordChunkFailure(entity.Prediction{}.TableName())
			s.logger.ErrorContext(ctx, "Failed to upsert predictions chunk", logger.ErrorField(err), logger.IntField("chunk", i))
			summary.Logs = append(summary.Logs, fmt.Sprintf("Failed to save prediction chunk %d: %v", i, err))
		}
	}

	summary.Message = "Dividend forecasting finished"
	s.metrics.RecordRunDuration(string(s.GetType()), time.Since(start).Seconds())
	s.logger.InfoContext(ctx, "Dividend prediction finished",
		logger.IntField("generated_predictions", summary.GeneratedPredictions),
		logger.IntField("pairs_processed", summary.PairsProcessed),
		logger.IntField("pairs_skipped", summary.PairsSkipped),
		logger.IntField("failed_chunks", summary.FailedChunks))

	if err := s.notifier.SendMessage(telegram.FormatPredictionSummary(summary)); err != nil {
		s.logger.Error("Failed to send telegram notification", logger.ErrorField(err))
	}
	return toJSON(summary), nil
}

func (s *DividendPredictionStrategy) applyDefaults(p *dto.DividendPredictionPayload) {
	if p.HistoryLimit <= 0 {
		p.HistoryLimit = s.cfg.HistoryLimit
	}
	if p.ChunkSize <= 0 {
		p.ChunkSize = s.cfg.ChunkSize
	}
	if p.MaxConcurrentPairs <= 0 {
		p.MaxConcurrentPairs = s.cfg.MaxConcurrentPairs
	}
	if p.MaxConcurrentPairs <= 0 {
		p.MaxConcurrentPairs = 1
	}
}

// forecastPairs runs the classifier and forecaster for each pair on a bounded pool.
// results[i] belongs to pairs[i].
func (s *DividendPredictionStrategy) forecastPairs(ctx context.Context, pairs []holdingPair, payload dto.DividendPredictionPayload, now time.Time) []pairResult {
	results := make([]pairResult, len(pairs))
	semaphore := make(chan struct{}, payload.MaxConcurrentPairs)
	var wg sync.WaitGroup

	for i, pair := range pairs {
		if !utils.ShouldContinue(ctx, s.logger) {
			results[i].err = ctx.Err()
			continue
		}
		wg.Add(1)
		i, pair := i, pair
		utils.GoSafe(func() {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()
			defer func() {
				if r := recover(); r != nil {
					s.logger.ErrorContext(ctx, "Forecast panicked",
						logger.StringField("user_id", pair.UserID.String()), logger.StringField("ticker", pair.Ticker),
						logger.StringField("panic", fmt.Sprint(r)))
					results[i] = pairResult{err: fmt.Errorf("forecast panicked: %v", r)}
				}
			}()

			rows, err := s.earningsRepo.FindRecent(ctx, pair.UserID, pair.Ticker, payload.HistoryLimit)
			if err != nil {
				s.logger.ErrorContext(ctx, "Failed to load earnings history", logger.ErrorField(err),
					logger.StringField("user_id", pair.UserID.String()), logger.StringField("ticker", pair.Ticker))
				results[i].err = err
				return
			}

			batch := forecast.NewBatch()
			pattern, ok := forecast.Forecast(pair.UserID, pair.Ticker, toEntries(rows), now, batch)
			results[i] = pairResult{pattern: pattern, ok: ok, batch: batch}
		})
	}
	wg.Wait()
	return results
}

// groupPairs returns the distinct (user, ticker) pairs in holdings order.
func groupPairs(holdings []entity.Holding) []holdingPair {
	seen := make(map[holdingPair]struct{}, len(holdings))
	var pairs []holdingPair
	for _, h := range holdings {
		if h.Ticker == "" {
			continue
		}
		pair := holdingPair{UserID: h.UserID, Ticker: h.Ticker}
		if _, ok := seen[pair]; ok {
			continue
		}
		seen[pair] = struct{}{}
		pairs = append(pairs, pair)
	}
	return pairs
}

func toEntries(rows []entity.Earning) []forecast.Entry {
	entries := make([]forecast.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, forecast.Entry{
			Date:       row.Date,
			UnitValue:  row.UnitValue,
			TotalValue: row.TotalValue,
		})
	}
	return entries
}

var _ JobExecutionStrategy = (*DividendPredictionStrategy)(nil)
