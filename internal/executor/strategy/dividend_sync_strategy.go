package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang-dividend-forecaster/internal/entity"
	"golang-dividend-forecaster/internal/executor/config"
	"golang-dividend-forecaster/internal/executor/dto"
	"golang-dividend-forecaster/internal/executor/repository"
	"golang-dividend-forecaster/internal/executor/ticker"
	"golang-dividend-forecaster/pkg/common"
	"golang-dividend-forecaster/pkg/logger"
	"golang-dividend-forecaster/pkg/metrics"
	"golang-dividend-forecaster/pkg/telegram"
	"golang-dividend-forecaster/pkg/utils"

	"github.com/google/uuid"
)

// DividendSyncStrategy pulls the distribution history of every held ticker and writes it to the
// earnings ledger, expanded across holders.
type DividendSyncStrategy struct {
	cfg                 config.Dividend
	logger              *logger.Logger
	normalizer          *ticker.Normalizer
	holdingsRepo        repository.HoldingsRepository
	earningsRepo        repository.EarningsRepository
	yahooFinanceRepo    repository.YahooFinanceRepository
	tickerMigrationRepo repository.TickerMigrationRepository
	missingTickerRepo   repository.MissingTickerRepository
	locker              RunLocker
	notifier            telegram.Notifier
	metrics             *metrics.Recorder
	now                 Clock
}

// SyncOption customizes a DividendSyncStrategy.
type SyncOption func(*DividendSyncStrategy)

// WithSyncClock overrides the clock used for the fetch window and missing-ticker timestamps.
func WithSyncClock(clock Clock) SyncOption {
	return func(s *DividendSyncStrategy) { s.now = clock }
}

// NewDividendSyncStrategy creates a new instance of DividendSyncStrategy.
func NewDividendSyncStrategy(
	cfg *config.Config,
	log *logger.Logger,
	holdingsRepo repository.HoldingsRepository,
	earningsRepo repository.EarningsRepository,
	yahooFinanceRepo repository.YahooFinanceRepository,
	tickerMigrationRepo repository.TickerMigrationRepository,
	missingTickerRepo repository.MissingTickerRepository,
	locker RunLocker,
	notifier telegram.Notifier,
	recorder *metrics.Recorder,
	opts ...SyncOption,
) *DividendSyncStrategy {
	s := &DividendSyncStrategy{
		cfg:                 cfg.Dividend,
		logger:              log,
		normalizer:          ticker.NewNormalizer(cfg.YahooFinance.MarketSuffix),
		holdingsRepo:        holdingsRepo,
		earningsRepo:        earningsRepo,
		yahooFinanceRepo:    yahooFinanceRepo,
		tickerMigrationRepo: tickerMigrationRepo,
		missingTickerRepo:   missingTickerRepo,
		locker:              locker,
		notifier:            notifier,
		metrics:             recorder,
		now:                 utils.TimeNowUTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetType returns the job type this strategy handles.
func (s *DividendSyncStrategy) GetType() entity.JobType {
	return entity.JobTypeDividendSync
}

// syncRun carries the state of one Execute call.
type syncRun struct {
	payload  dto.DividendSyncPayload
	from, to time.Time
	summary  dto.DividendSyncSummary
	missing  map[string]struct{}
}

func (r *syncRun) logf(format string, args ...interface{}) {
	r.summary.Logs = append(r.summary.Logs, fmt.Sprintf(format, args...))
}

// Execute runs the dividend sync job.
func (s *DividendSyncStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	start := time.Now()
	s.logger.InfoContext(ctx, "Executing dividend sync job")

	run := &syncRun{missing: make(map[string]struct{})}
	if err := decodePayload(job, &run.payload); err != nil {
		return FAILED, fmt.Errorf("%w: invalid job payload: %v", ErrSetup, err)
	}
	s.applyDefaults(&run.payload)

	lockKey := fmt.Sprintf(common.RedisKeyRunLock, s.GetType())
	lockToken, acquired, err := s.locker.AcquireLock(ctx, lockKey, lockTTL(s.cfg.RunLockTTL, job))
	if err != nil {
		return FAILED, fmt.Errorf("%w: acquire run lock: %v", ErrSetup, err)
	}
	if !acquired {
		s.logger.WarnContext(ctx, "Dividend sync already running, skipping")
		run.summary.Message = "dividend sync already running"
		run.logf("Skipped: another dividend sync holds the run lock")
		return toJSON(run.summary), nil
	}
	defer func() {
		if err := s.locker.ReleaseLock(context.Background(), lockKey, lockToken); err != nil {
			s.logger.Error("Failed to release run lock", logger.ErrorField(err), logger.StringField("key", lockKey))
		}
	}()

	tickers, err := s.resolveTickers(ctx, run.payload)
	if err != nil {
		return FAILED, fmt.Errorf("%w: load holdings tickers: %v", ErrSetup, err)
	}
	if len(tickers) == 0 {
		run.summary.Message = "no holdings"
		return toJSON(run.summary), nil
	}

	now := s.now()
	run.from = now.AddDate(-run.payload.HistoryYears, 0, 0)
	run.to = now.AddDate(run.payload.FutureYears, 0, 0)
	run.logf("Starting dividend sync for %d tickers", len(tickers))

	for _, raw := range tickers {
		if ctx.Err() != nil {
			run.logf("Stopped before %s: %v", raw, ctx.Err())
			break
		}
		result := s.syncTicker(ctx, run, raw)
		run.summary.Tickers = append(run.summary.Tickers, result)
		s.metrics.RecordTicker(result.Status)
	}

	run.summary.Message = fmt.Sprintf("Success! %d distributions processed.", run.summary.ProcessedCount)
	s.metrics.RecordRunDuration(string(s.GetType()), time.Since(start).Seconds())
	s.logger.InfoContext(ctx, "Dividend sync finished",
		logger.IntField("processed_count", run.summary.ProcessedCount),
		logger.IntField("tickers", len(run.summary.Tickers)),
		logger.IntField("failed_chunks", run.summary.FailedChunks))

	if err := s.notifier.SendMessage(telegram.FormatSyncSummary(run.summary)); err != nil {
		s.logger.Error("Failed to send telegram notification", logger.ErrorField(err))
	}
	return toJSON(run.summary), nil
}

func (s *DividendSyncStrategy) applyDefaults(p *dto.DividendSyncPayload) {
	if p.HistoryYears <= 0 {
		p.HistoryYears = s.cfg.HistoryYears
	}
	if p.FutureYears <= 0 {
		p.FutureYears = s.cfg.FutureYears
	}
	if p.ChunkSize <= 0 {
		p.ChunkSize = s.cfg.ChunkSize
	}
}

func (s *DividendSyncStrategy) resolveTickers(ctx context.Context, p dto.DividendSyncPayload) ([]string, error) {
	if len(p.Tickers) > 0 {
		seen := make(map[string]struct{}, len(p.Tickers))
		var tickers []string
		for _, t := range p.Tickers {
			if _, ok := seen[t]; ok || t == "" {
				continue
			}
			seen[t] = struct{}{}
			tickers = append(tickers, t)
		}
		return tickers, nil
	}
	return s.holdingsRepo.DistinctTickers(ctx)
}

// syncTicker handles one raw ticker. Every failure is contained to the returned result.
func (s *DividendSyncStrategy) syncTicker(ctx context.Context, run *syncRun, raw string) dto.TickerSyncResult {
	normalized := s.normalizer.Normalize(raw)
	result := dto.TickerSyncResult{Ticker: raw, Symbol: normalized.Symbol}
	for _, note := range normalized.Notes() {
		run.logf("ℹ️ %s", note)
		s.logger.InfoContext(ctx, note)
	}

	events, err := s.yahooFinanceRepo.GetDividends(ctx, dto.GetDividendsParam{
		Symbol: normalized.Symbol,
		From:   run.from,
		To:     run.to,
	})
	switch {
	case errors.Is(err, repository.ErrSymbolNotFound):
		return s.resolveMissing(ctx, run, normalized, result)
	case err != nil:
		s.logger.WarnContext(ctx, "Failed to fetch dividends", logger.ErrorField(err), logger.StringField("symbol", normalized.Symbol))
		run.logf("Yahoo error for %s: %v", normalized.Symbol, err)
		result.Status = dto.StatusFailed
		result.Error = err.Error()
		return result
	}

	result.Events = len(events)
	if len(events) == 0 {
		result.Status = dto.StatusSkipped
		return result
	}

	owners, err := s.holdingsRepo.FindOwners(ctx, raw)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load holders", logger.ErrorField(err), logger.StringField("ticker", raw))
		run.logf("Could not load holders of %s: %v", raw, err)
		result.Status = dto.StatusFailed
		result.Error = err.Error()
		return result
	}

	earnings := expandEarnings(raw, events, owners)
	if len(earnings) == 0 {
		result.Status = dto.StatusSkipped
		return result
	}

	written, failed := s.writeEarnings(ctx, run, raw, earnings, run.payload.ChunkSize)
	result.Rows = written
	run.summary.ProcessedCount += written
	run.summary.FailedChunks += failed
	if failed > 0 {
		result.Status = dto.StatusFailed
		result.Error = fmt.Sprintf("%d chunk(s) failed", failed)
		return result
	}
	result.Status = dto.StatusSuccess
	return result
}

func (s *DividendSyncStrategy) resolveMissing(ctx context.Context, run *syncRun, normalized ticker.Result, result dto.TickerSyncResult) dto.TickerSyncResult {
	raw := normalized.Raw
	migration, err := s.tickerMigrationRepo.FindByOldTicker(ctx, raw)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to look up ticker migration", logger.ErrorField(err), logger.StringField("ticker", raw))
		run.logf("Migration lookup failed for %s: %v", raw, err)
		result.Status = dto.StatusFailed
		result.Error = err.Error()
		return result
	}
	if migration != nil {
		s.logger.InfoContext(ctx, "Ticker migration already registered",
			logger.StringField("old_ticker", raw), logger.StringField("new_ticker", migration.NewTicker))
		run.logf("⚠️ Migration already registered: %s -> %s", raw, migration.NewTicker)
		result.Status = dto.StatusMigrated
		return result
	}

	result.Status = dto.StatusNotFound
	if _, logged := run.missing[raw]; logged {
		return result
	}
	run.missing[raw] = struct{}{}

	if err := s.missingTickerRepo.Log(ctx, raw, []string{normalized.Symbol}, s.now()); err != nil {
		s.logger.ErrorContext(ctx, "Failed to log missing ticker", logger.ErrorField(err), logger.StringField("ticker", raw))
		run.logf("Could not record missing ticker %s: %v", raw, err)
		result.Error = err.Error()
		return result
	}
	s.logger.WarnContext(ctx, "Ticker not found and no migration registered", logger.StringField("ticker", raw))
	run.logf("❌ NEW ERROR: %s (Yahoo 404). Saved to the management log.", raw)
	run.summary.MissingTickers = append(run.summary.MissingTickers, raw)
	return result
}

// expandEarnings builds one ledger row per event and holder. A holder's positive rows are summed first,
// and rows repeating a natural key are dropped, since one upsert statement cannot touch a key twice.
func expandEarnings(raw string, events []dto.DividendEvent, owners []entity.Holding) []entity.Earning {
	holders := sumQuantities(owners)

	seen := make(map[string]struct{}, len(events)*len(holders))
	var earnings []entity.Earning
	for _, event := range events {
		for _, h := range holders {
			row := entity.Earning{
				UserID:     h.UserID,
				Ticker:     raw,
				Type:       entity.EarningTypeDistribution,
				Date:       event.Date,
				UnitValue:  event.Amount,
				TotalValue: h.Quantity.Mul(event.Amount).Round(2),
			}
			key := row.NaturalKey()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			earnings = append(earnings, row)
		}
	}
	return earnings
}

// sumQuantities collapses the positive holding rows of each user into one, in first-seen order.
func sumQuantities(owners []entity.Holding) []entity.Holding {
	index := make(map[uuid.UUID]int, len(owners))
	var holders []entity.Holding
	for _, owner := range owners {
		if !owner.Quantity.IsPositive() {
			continue
		}
		if i, ok := index[owner.UserID]; ok {
			holders[i].Quantity = holders[i].Quantity.Add(owner.Quantity)
			continue
		}
		index[owner.UserID] = len(holders)
		holders = append(holders, entity.Holding{UserID: owner.UserID, Ticker: owner.Ticker, Quantity: owner.Quantity})
	}
	return holders
}

func (s *DividendSyncStrategy) writeEarnings(ctx context.Context, run *syncRun, raw string, earnings []entity.Earning, chunkSize int) (written, failed int) {
	for i, chunk := range utils.Chunk(earnings, chunkSize) {
		if err := s.earningsRepo.Upsert(ctx, chunk); err != nil {
			failed++
			s.metrics.RecordChunkFailure(entity.Earning{}.TableName())
			s.logger.ErrorContext(ctx, "Failed to upsert earnings chunk",
				logger.ErrorField(err), logger.StringField("ticker", raw), logger.IntField("chunk", i))
			run.logf("Failed to save chunk %d of %s: %v", i, raw, err)
			continue
		}
		written += len(chunk)
	}
	s.metrics.RecordLedgerRows(written)
	return written, failed
}

var _ JobExecutionStrategy = (*DividendSyncStrategy)(nil)
