package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"golang-dividend-forecaster/internal/entity"
	"golang-dividend-forecaster/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestExecutionHistoryService_GetRecent_NormalizesLimit(t *testing.T) {
	repo := new(MockHistoryRepository)
	svc := NewExecutionHistoryService(repo, logger.NewNop())

	repo.On("FindRecent", mock.Anything, 100).Return([]entity.TaskExecutionHistory{}, nil).Twice()
	repo.On("FindRecent", mock.Anything, 5).Return([]entity.TaskExecutionHistory{}, nil).Once()

	for _, limit := range []int{0, 500, 5} {
		_, err := svc.GetRecentExecutionHistories(context.Background(), limit)
		require.NoError(t, err)
	}
	repo.AssertExpectations(t)
}

func TestExecutionHistoryService_Mapping(t *testing.T) {
	repo := new(MockHistoryRepository)
	svc := NewExecutionHistoryService(repo, logger.NewNop())

	started := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)
	scheduleID := uint(3)
	repo.On("FindAllByJobID", mock.Anything, uint(1), 10).Return([]entity.TaskExecutionHistory{
		{
			ID: 1, JobID: 1, ScheduleID: &scheduleID, Status: entity.StatusCompleted, StartedAt: started,
			CompletedAt: sql.NullTime{Time: started.Add(1500 * time.Millisecond), Valid: true},
			Output:      sql.NullString{String: `{"processed":2}`, Valid: true},
		},
		{
			ID: 2, JobID: 1, Status: entity.StatusFailed, StartedAt: started,
			CompletedAt:  sql.NullTime{Time: started, Valid: true},
			Output:       sql.NullString{String: "FAILED", Valid: true},
			ErrorMessage: sql.NullString{String: "boom", Valid: true},
		},
		{ID: 3, JobID: 1, Status: entity.StatusRunning, StartedAt: started},
	}, nil)

	got, err := svc.GetExecutionHistoriesByJobID(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, int64(1500), got[0].Duration)
	assert.Equal(t, &scheduleID, got[0].ScheduleID)
	assert.JSONEq(t, `{"processed":2}`, string(got[0].Output))

	assert.JSONEq(t, `"FAILED"`, string(got[1].Output))
	assert.Equal(t, "boom", got[1].ErrorMessage)
	assert.Nil(t, got[1].ScheduleID)

	assert.Zero(t, got[2].Duration)
	assert.Nil(t, got[2].Output)
}
