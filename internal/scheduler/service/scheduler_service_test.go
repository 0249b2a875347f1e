package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang-dividend-forecaster/internal/entity"
	"golang-dividend-forecaster/pkg/common"
	"golang-dividend-forecaster/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(schedules *MockScheduleRepository, histories *MockHistoryRepository, pub *fakePublisher) *schedulerService {
	svc := NewSchedulerService(schedules, histories, pub, logger.NewNop(), time.Second, 1000).(*schedulerService)
	svc.now = fixedNow
	return svc
}

func TestSchedulerService_Enqueue(t *testing.T) {
	histories := new(MockHistoryRepository)
	pub := &fakePublisher{}
	svc := newTestScheduler(new(MockScheduleRepository), histories, pub)

	histories.On("Create", mock.Anything, mock.AnythingOfType("*entity.TaskExecutionHistory")).
		Run(func(args mock.Arguments) { args.Get(1).(*entity.TaskExecutionHistory).ID = 11 }).
		Return(nil)

	scheduleID := uint(4)
	history, err := svc.Enqueue(context.Background(), 2, &scheduleID)
	require.NoError(t, err)

	assert.Equal(t, uint(11), history.ID)
	assert.Equal(t, entity.StatusRunning, history.Status)
	assert.Equal(t, fixedNow(), history.StartedAt)
	require.Len(t, pub.added, 1)
	assert.Equal(t, common.RedisStreamSchedulerTaskExecution, pub.added[0].Stream)
	assert.Equal(t, int64(1000), pub.added[0].MaxLen)
	assert.True(t, pub.added[0].Approx)
	assert.Contains(t, pub.added[0].Values.(map[string]interface{})["payload"], `"schedule_id":4`)
	histories.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestSchedulerService_Enqueue_PublishFailureMarksHistoryFailed(t *testing.T) {
	histories := new(MockHistoryRepository)
	pub := &fakePublisher{err: errors.New("connection refused")}
	svc := newTestScheduler(new(MockScheduleRepository), histories, pub)

	histories.On("Create", mock.Anything, mock.Anything).Return(nil)
	histories.On("Update", mock.Anything, mock.MatchedBy(func(h *entity.TaskExecutionHistory) bool {
		return h.Status == entity.StatusFailed && h.ErrorMessage.String == "connection refused" && h.CompletedAt.Valid
	})).Return(nil)

	_, err := svc.Enqueue(context.Background(), 2, nil)
	assert.ErrorContains(t, err, "connection refused")
	histories.AssertExpectations(t)
}

func TestSchedulerService_ProcessJobs(t *testing.T) {
	schedules := new(MockScheduleRepository)
	histories := new(MockHistoryRepository)
	pub := &fakePublisher{}
	svc := newTestScheduler(schedules, histories, pub)

	due := []entity.TaskSchedule{
		{ID: 1, JobID: 10, CronExpression: "0 6 * * *", IsActive: true},
		{ID: 2, JobID: 20, CronExpression: "not a cron", IsActive: true},
	}
	schedules.On("FindDue", mock.Anything, fixedNow()).Return(due, nil)
	histories.On("Create", mock.Anything, mock.Anything).Return(nil)

	var updated []entity.TaskSchedule
	schedules.On("Update", mock.Anything, mock.AnythingOfType("*entity.TaskSchedule")).
		Run(func(args mock.Arguments) { updated = append(updated, *args.Get(1).(*entity.TaskSchedule)) }).
		Return(nil)

	svc.ProcessJobs(context.Background())

	require.Len(t, pub.added, 1)
	require.Len(t, updated, 2)

	assert.Equal(t, uint(1), updated[0].ID)
	assert.Equal(t, fixedNow(), updated[0].LastExecution.Time)
	assert.Equal(t, time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC), updated[0].NextExecution.Time)

	assert.Equal(t, uint(2), updated[1].ID)
	assert.False(t, updated[1].IsActive)
}

func TestSchedulerService_ProcessJobs_KeepsScheduleWhenPublishFails(t *testing.T) {
	schedules := new(MockScheduleRepository)
	histories := new(MockHistoryRepository)
	svc := newTestScheduler(schedules, histories, &fakePublisher{err: errors.New("down")})

	schedules.On("FindDue", mock.Anything, fixedNow()).
		Return([]entity.TaskSchedule{{ID: 1, JobID: 10, CronExpression: "@daily", IsActive: true}}, nil)
	histories.On("Create", mock.Anything, mock.Anything).Return(nil)
	histories.On("Update", mock.Anything, mock.Anything).Return(nil)

	svc.ProcessJobs(context.Background())

	schedules.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestNextRun(t *testing.T) {
	next, err := nextRun("@monthly", fixedNow())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), next)

	_, err = nextRun("* * *", fixedNow())
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
