package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang-dividend-forecaster/internal/entity"
	"golang-dividend-forecaster/internal/executor/repository"
	"golang-dividend-forecaster/internal/executor/strategy"
	"golang-dividend-forecaster/pkg/common"
	"golang-dividend-forecaster/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// StreamReader is the subset of the Redis client the executor consumes tasks with.
type StreamReader interface {
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// ExecutorService manages the execution of tasks.
type ExecutorService interface {
	ProcessTask(ctx context.Context)
	RunOnce(ctx context.Context, jobType entity.JobType) (*entity.TaskExecutionHistory, error)
}

// NewExecutorService creates a new ExecutorService.
func NewExecutorService(
	redisClient StreamReader,
	jobRepo repository.JobRepository,
	historyRepo repository.TaskExecutionHistoryRepository,
	log *logger.Logger,
	strategies []strategy.JobExecutionStrategy,
) ExecutorService {
	strategyMap := make(map[entity.JobType]strategy.JobExecutionStrategy)
	for _, s := range strategies {
		strategyMap[s.GetType()] = s
	}

	return &executorService{
		redisClient:        redisClient,
		jobRepo:            jobRepo,
		historyRepo:        historyRepo,
		logger:             log,
		executorStrategies: strategyMap,
	}
}

type executorService struct {
	redisClient        StreamReader
	jobRepo            repository.JobRepository
	historyRepo        repository.TaskExecutionHistoryRepository
	logger             *logger.Logger
	executorStrategies map[entity.JobType]strategy.JobExecutionStrategy
}

// ProcessTask dequeues and executes a single task.
func (s *executorService) ProcessTask(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamSchedulerTaskExecution, ">"},
		Count:    1,
		Block:    2 * time.Second,
	}).Result()

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return
		}
		s.logger.Error("Failed to read from stream", logger.ErrorField(err))
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}

	message := streams[0].Messages[0]
	defer s.ack(ctx, message.ID)

	taskData, ok := message.Values["payload"].(string)
	if !ok {
		s.logger.Error("field 'payload' not found or not a string in stream message", logger.Field("message_id", message.ID))
		return
	}

	var taskHistory entity.TaskExecutionHistory
	if err := json.Unmarshal([]byte(taskData), &taskHistory); err != nil {
		s.logger.Error("Failed to unmarshal task data", logger.ErrorField(err), logger.Field("message_id", message.ID))
		return
	}

	s.logger.Info("Processing job", logger.Field("job_id", taskHistory.JobID), logger.Field("history_id", taskHistory.ID))

	job, err := s.jobRepo.FindByID(ctx, taskHistory.JobID)
	if err != nil {
		s.logger.Error("Failed to find job", logger.ErrorField(err), logger.Field("job_id", taskHistory.JobID))
		return
	}

	s.executeAndUpdate(ctx, job, &taskHistory)
}

// RunOnce executes the job of the given type outside the stream and records its history.
func (s *executorService) RunOnce(ctx context.Context, jobType entity.JobType) (*entity.TaskExecutionHistory, error) {
	job, err := s.jobRepo.FindByType(ctx, jobType)
	if err != nil {
		return nil, fmt.Errorf("failed to find job of type %s: %w", jobType, err)
	}

	history := &entity.TaskExecutionHistory{
		JobID:     job.ID,
		Status:    entity.StatusRunning,
		StartedAt: time.Now(),
	}
	if err := s.historyRepo.Create(ctx, history); err != nil {
		return nil, fmt.Errorf("failed to create task history: %w", err)
	}

	s.executeAndUpdate(ctx, job, history)
	return history, nil
}

func (s *executorService) executeAndUpdate(ctx context.Context, job *entity.Job, history *entity.TaskExecutionHistory) {
	ctx = logger.WithExecutionID(ctx, history.ID)
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(job.Timeout)*time.Second)
		defer cancel()
	}

	strategy, ok := s.executorStrategies[job.Type]
	if !ok {
		err := fmt.Errorf("no executor strategy found for task type: %s", job.Type)
		s.logger.ErrorContext(ctx, "Job execution failed", logger.ErrorField(err), logger.Field("job_id", job.ID))
		history.Status = entity.StatusFailed
		history.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
	} else {
		output, err := strategy.Execute(ctx, job)
		if err != nil {
			s.logger.ErrorContext(ctx, "Job execution failed", logger.ErrorField(err), logger.Field("job_id", job.ID))
			history.Status = entity.StatusFailed
			history.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
		} else {
			s.logger.InfoContext(ctx, "Job executed successfully", logger.Field("job_id", job.ID))
			history.Status = entity.StatusCompleted
		}
		history.Output = sql.NullString{String: output, Valid: true}
	}

	history.CompletedAt = sql.NullTime{Time: time.Now(), Valid: true}

	// The run context may already be past its deadline.
	if err := s.historyRepo.Update(context.WithoutCancel(ctx), history); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update task history", logger.ErrorField(err))
	}
	s.logger.InfoContext(ctx, "Job execution completed", logger.Field("job_id", job.ID), logger.Field("status", history.Status))
}

func (s *executorService) ack(ctx context.Context, id string) {
	if err := s.redisClient.XAck(context.WithoutCancel(ctx), common.RedisStreamSchedulerTaskExecution, common.RedisStreamGroup, id).Err(); err != nil {
		s.logger.Error("Failed to acknowledge message", logger.ErrorField(err), logger.Field("message_id", id))
	}
}
