package service

import (
	"context"
	"encoding/json"

	"golang-dividend-forecaster/internal/entity"
	"golang-dividend-forecaster/internal/scheduler/dto"
	"golang-dividend-forecaster/internal/scheduler/repository"
	"golang-dividend-forecaster/pkg/logger"
)

const defaultHistoryLimit = 100

// ExecutionHistoryService defines the interface for reading execution history.
type ExecutionHistoryService interface {
	GetExecutionHistoryByID(ctx context.Context, id uint) (*dto.ExecutionHistoryResponse, error)
	GetRecentExecutionHistories(ctx context.Context, limit int) ([]*dto.ExecutionHistoryResponse, error)
	GetExecutionHistoriesByJobID(ctx context.Context, jobID uint, limit int) ([]*dto.ExecutionHistoryResponse, error)
}

// NewExecutionHistoryService creates a new execution history service.
func NewExecutionHistoryService(historyRepo repository.TaskExecutionHistoryRepository, logger *logger.Logger) ExecutionHistoryService {
	return &executionHistoryService{
		historyRepo: historyRepo,
		logger:      logger,
	}
}

type executionHistoryService struct {
	historyRepo repository.TaskExecutionHistoryRepository
	logger      *logger.Logger
}

func (s *executionHistoryService) GetExecutionHistoryByID(ctx context.Context, id uint) (*dto.ExecutionHistoryResponse, error) {
	history, err := s.historyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapToExecutionHistoryResponse(history), nil
}

func (s *executionHistoryService) GetRecentExecutionHistories(ctx context.Context, limit int) ([]*dto.ExecutionHistoryResponse, error) {
	histories, err := s.historyRepo.FindRecent(ctx, normalizeLimit(limit))
	if err != nil {
		s.logger.Error("Failed to get execution histories", logger.ErrorField(err))
		return nil, err
	}
	return mapHistories(histories), nil
}

func (s *executionHistoryService) GetExecutionHistoriesByJobID(ctx context.Context, jobID uint, limit int) ([]*dto.ExecutionHistoryResponse, error) {
	histories, err := s.historyRepo.FindAllByJobID(ctx, jobID, normalizeLimit(limit))
	if err != nil {
		s.logger.Error("Failed to get execution histories by job ID", logger.ErrorField(err), logger.Field("job_id", jobID))
		return nil, err
	}
	return mapHistories(histories), nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > defaultHistoryLimit {
		return defaultHistoryLimit
	}
	return limit
}

func mapHistories(histories []entity.TaskExecutionHistory) []*dto.ExecutionHistoryResponse {
	responses := make([]*dto.ExecutionHistoryResponse, 0, len(histories))
	for i := range histories {
		responses = append(responses, mapToExecutionHistoryResponse(&histories[i]))
	}
	return responses
}

func mapToExecutionHistoryResponse(history *entity.TaskExecutionHistory) *dto.ExecutionHistoryResponse {
	var duration int64
	if history.CompletedAt.Valid {
		duration = history.CompletedAt.Time.Sub(history.StartedAt).Milliseconds()
	}

	resp := &dto.ExecutionHistoryResponse{
		ID:           history.ID,
		JobID:        history.JobID,
		ScheduleID:   history.ScheduleID,
		Status:       string(history.Status),
		ExecutedAt:   history.StartedAt,
		Duration:     duration,
		ErrorMessage: history.ErrorMessage.String,
	}
	// Summaries are JSON; anything else (e.g. "FAILED") is wrapped as a string.
	if history.Output.Valid && history.Output.String != "" {
		if json.Valid([]byte(history.Output.String)) {
			resp.Output = json.RawMessage(history.Output.String)
		} else {
			resp.Output, _ = json.Marshal(history.Output.String)
		}
	}
	return resp
}
