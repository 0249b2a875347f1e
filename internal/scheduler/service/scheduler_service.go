package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"golang-dividend-forecaster/internal/entity"
	"golang-dividend-forecaster/internal/scheduler/repository"
	"golang-dividend-forecaster/pkg/common"
	"golang-dividend-forecaster/pkg/logger"
	"golang-dividend-forecaster/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// StreamPublisher is the subset of the Redis client used to enqueue tasks.
type StreamPublisher interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// SchedulerService defines the interface for the job scheduling service.
type SchedulerService interface {
	Start(ctx context.Context)
	ProcessJobs(ctx context.Context)
	Enqueue(ctx context.Context, jobID uint, scheduleID *uint) (*entity.TaskExecutionHistory, error)
}

// NewSchedulerService creates a new scheduler service.
func NewSchedulerService(
	scheduleRepo repository.TaskScheduleRepository,
	historyRepo repository.TaskExecutionHistoryRepository,
	publisher StreamPublisher,
	log *logger.Logger,
	pollingInterval time.Duration,
	streamMaxLen int64,
) SchedulerService {
	return &schedulerService{
		scheduleRepo:    scheduleRepo,
		historyRepo:     historyRepo,
		publisher:       publisher,
		logger:          log,
		pollingInterval: pollingInterval,
		streamMaxLen:    streamMaxLen,
		now:             utils.TimeNowUTC,
	}
}

type schedulerService struct {
	scheduleRepo    repository.TaskScheduleRepository
	historyRepo     repository.TaskExecutionHistoryRepository
	publisher       StreamPublisher
	logger          *logger.Logger
	pollingInterval time.Duration
	streamMaxLen    int64
	now             func() time.Time
}

// Start begins the periodic job processing loop.
func (s *schedulerService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler service stopping")
			return
		case <-ticker.C:
			s.ProcessJobs(ctx)
		}
	}
}

// ProcessJobs enqueues every due schedule and advances it to its next activation.
func (s *schedulerService) ProcessJobs(ctx context.Context) {
	now := s.now()
	schedules, err := s.scheduleRepo.FindDue(ctx, now)
	if err != nil {
		s.logger.Error("Failed to find due schedules", logger.ErrorField(err))
		return
	}

	for _, schedule := range schedules {
		// An unparsable expression would fire on every tick; deactivate it instead.
		next, err := nextRun(schedule.CronExpression, now)
		if err != nil {
			s.logger.Error("Invalid cron expression, deactivating schedule", logger.ErrorField(err), logger.Field("schedule_id", schedule.ID))
			schedule.IsActive = false
			if err := s.scheduleRepo.Update(ctx, &schedule); err != nil {
				s.logger.Error("Failed to deactivate schedule", logger.ErrorField(err), logger.Field("schedule_id", schedule.ID))
			}
			continue
		}

		scheduleID := schedule.ID
		if _, err := s.Enqueue(ctx, schedule.JobID, &scheduleID); err != nil {
			continue
		}

		schedule.LastExecution = sql.NullTime{Time: now, Valid: true}
		schedule.NextExecution = sql.NullTime{Time: next, Valid: true}
		if err := s.scheduleRepo.Update(ctx, &schedule); err != nil {
			s.logger.Error("Failed to update next execution time", logger.ErrorField(err), logger.Field("schedule_id", schedule.ID))
		}
	}
}

// Enqueue records a RUNNING execution for the job and publishes it to the task stream.
func (s *schedulerService) Enqueue(ctx context.Context, jobID uint, scheduleID *uint) (*entity.TaskExecutionHistory, error) {
	history := &entity.TaskExecutionHistory{
		JobID:      jobID,
		ScheduleID: scheduleID,
		Status:     entity.StatusRunning,
		StartedAt:  s.now(),
	}
	if err := s.historyRepo.Create(ctx, history); err != nil {
		s.logger.Error("Failed to create task history", logger.ErrorField(err), logger.Field("job_id", jobID))
		return nil, fmt.Errorf("create task history: %w", err)
	}

	taskPayload, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("marshal task payload: %w", err)
	}

	if err := s.publisher.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamSchedulerTaskExecution,
		Values: map[string]interface{}{"payload": string(taskPayload)},
		MaxLen: s.streamMaxLen,
		Approx: true,
	}).Err(); err != nil {
		s.logger.Error("Failed to enqueue task", logger.ErrorField(err), logger.Field("history_id", history.ID))
		history.Status = entity.StatusFailed
		history.CompletedAt = sql.NullTime{Time: s.now(), Valid: true}
		history.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		if errInner := s.historyRepo.Update(ctx, history); errInner != nil {
			s.logger.Error("Failed to update task history", logger.ErrorField(errInner), logger.Field("history_id", history.ID))
		}
		return nil, fmt.Errorf("enqueue task: %w", err)
	}

	s.logger.Info("Task published successfully", logger.Field("history_id", history.ID), logger.Field("job_id", jobID))
	return history, nil
}
