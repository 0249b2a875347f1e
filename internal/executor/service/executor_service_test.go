package service

import (
	"context"
	"errors"
	"testing"

	"golang-dividend-forecaster/internal/entity"
	"golang-dividend-forecaster/internal/executor/strategy"
	"golang-dividend-forecaster/pkg/common"
	"golang-dividend-forecaster/pkg/logger"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) FindByID(ctx context.Context, id uint) (*entity.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Job), args.Error(1)
}

func (m *MockJobRepository) FindByType(ctx context.Context, jobType entity.JobType) (*entity.Job, error) {
	args := m.Called(ctx, jobType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Job), args.Error(1)
}

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Create(ctx context.Context, history *entity.TaskExecutionHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockHistoryRepository) Update(ctx context.Context, history *entity.TaskExecutionHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

type MockStrategy struct {
	mock.Mock
	jobType entity.JobType
}

func (m *MockStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	args := m.Called(ctx, job)
	return args.String(0), args.Error(1)
}

func (m *MockStrategy) GetType() entity.JobType {
	return m.jobType
}

type fakeStream struct {
	messages []redis.XMessage
	acked    []string
}

func (f *fakeStream) XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd {
	if len(f.messages) == 0 {
		return redis.NewXStreamSliceCmdResult(nil, redis.Nil)
	}
	msgs := f.messages
	f.messages = nil
	return redis.NewXStreamSliceCmdResult([]redis.XStream{{Stream: common.RedisStreamSchedulerTaskExecution, Messages: msgs}}, nil)
}

func (f *fakeStream) XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd {
	f.acked = append(f.acked, ids...)
	return redis.NewIntResult(int64(len(ids)), nil)
}

func TestRunOnce(t *testing.T) {
	tests := []struct {
		name       string
		output     string
		execErr    error
		wantStatus entity.TaskStatus
		wantError  bool
	}{
		{name: "completed", output: `{"message":"ok"}`, wantStatus: entity.StatusCompleted},
		{name: "setup failure", output: strategy.FAILED, execErr: strategy.ErrSetup, wantStatus: entity.StatusFailed, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &entity.Job{ID: 7, Type: entity.JobTypeDividendSync, Timeout: 60}
			jobRepo := new(MockJobRepository)
			jobRepo.On("FindByType", mock.Anything, entity.JobTypeDividendSync).Return(job, nil)
			historyRepo := new(MockHistoryRepository)
			historyRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
			historyRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
			sync := &MockStrategy{jobType: entity.JobTypeDividendSync}
			sync.On("Execute", mock.Anything, job).Return(tt.output, tt.execErr)

			svc := NewExecutorService(&fakeStream{}, jobRepo, historyRepo, logger.NewNop(), []strategy.JobExecutionStrategy{sync})
			history, err := svc.RunOnce(context.Background(), entity.JobTypeDividendSync)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, history.Status)
			assert.Equal(t, uint(7), history.JobID)
			assert.Equal(t, tt.output, history.Output.String)
			assert.Equal(t, tt.wantError, history.ErrorMessage.Valid)
			assert.True(t, history.CompletedAt.Valid)
			historyRepo.AssertExpectations(t)
		})
	}
}

func TestRunOnceUnknownJob(t *testing.T) {
	jobRepo := new(MockJobRepository)
	jobRepo.On("FindByType", mock.Anything, entity.JobTypeDividendPrediction).Return(nil, errors.New("record not found"))

	svc := NewExecutorService(&fakeStream{}, jobRepo, new(MockHistoryRepository), logger.NewNop(), nil)
	_, err := svc.RunOnce(context.Background(), entity.JobTypeDividendPrediction)
	assert.Error(t, err)
}

func TestProcessTask(t *testing.T) {
	job := &entity.Job{ID: 3, Type: entity.JobTypeDividendPrediction}
	jobRepo := new(MockJobRepository)
	jobRepo.On("FindByID", mock.Anything, uint(3)).Return(job, nil)
	historyRepo := new(MockHistoryRepository)
	var updated *entity.TaskExecutionHistory
	historyRepo.On("Update", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		updated = args.Get(1).(*entity.TaskExecutionHistory)
	}).Return(nil)

	stream := &fakeStream{messages: []redis.XMessage{{
		ID:     "1-0",
		Values: map[string]interface{}{"payload": `{"id": 11, "job_id": 3, "status": "RUNNING"}`},
	}}}

	svc := NewExecutorService(stream, jobRepo, historyRepo, logger.NewNop(), nil)
	svc.ProcessTask(context.Background())

	require.NotNil(t, updated)
	assert.Equal(t, uint(11), updated.ID)
	assert.Equal(t, entity.StatusFailed, updated.Status)
	assert.Contains(t, updated.ErrorMessage.String, "no executor strategy found")
	assert.Equal(t, []string{"1-0"}, stream.acked)
}

func TestProcessTaskMalformedPayloadIsAcked(t *testing.T) {
	stream := &fakeStream{messages: []redis.XMessage{{ID: "2-0", Values: map[string]interface{}{"payload": "{not json"}}}}
	jobRepo := new(MockJobRepository)

	svc := NewExecutorService(stream, jobRepo, new(MockHistoryRepository), logger.NewNop(), nil)
	svc.ProcessTask(context.Background())

	assert.Equal(t, []string{"2-0"}, stream.acked)
	jobRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)

	// Idle stream is a no-op.
	svc.ProcessTask(context.Background())
	assert.Len(t, stream.acked, 1)
}
