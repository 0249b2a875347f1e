package service

import (
	"context"
	"time"

	"golang-dividend-forecaster/internal/entity"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) Create(ctx context.Context, job *entity.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobRepository) FindByID(ctx context.Context, id uint) (*entity.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Job), args.Error(1)
}

func (m *MockJobRepository) FindAll(ctx context.Context) ([]entity.Job, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Job), args.Error(1)
}

func (m *MockJobRepository) Update(ctx context.Context, job *entity.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) Create(ctx context.Context, schedule *entity.TaskSchedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockScheduleRepository) FindByID(ctx context.Context, id uint) (*entity.TaskSchedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TaskSchedule), args.Error(1)
}

func (m *MockScheduleRepository) FindAll(ctx context.Context) ([]entity.TaskSchedule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.TaskSchedule), args.Error(1)
}

func (m *MockScheduleRepository) Update(ctx context.Context, schedule *entity.TaskSchedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockScheduleRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockScheduleRepository) FindDue(ctx context.Context, now time.Time) ([]entity.TaskSchedule, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.TaskSchedule), args.Error(1)
}

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Create(ctx context.Context, history *entity.TaskExecutionHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockHistoryRepository) FindByID(ctx context.Context, id uint) (*entity.TaskExecutionHistory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TaskExecutionHistory), args.Error(1)
}

func (m *MockHistoryRepository) FindRecent(ctx context.Context, limit int) ([]entity.TaskExecutionHistory, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.TaskExecutionHistory), args.Error(1)
}

func (m *MockHistoryRepository) FindAllByJobID(ctx context.Context, jobID uint, limit int) ([]entity.TaskExecutionHistory, error) {
	args := m.Called(ctx, jobID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.TaskExecutionHistory), args.Error(1)
}

func (m *MockHistoryRepository) Update(ctx context.Context, history *entity.TaskExecutionHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

type MockSchedulerService struct {
	mock.Mock
}

func (m *MockSchedulerService) Start(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockSchedulerService) ProcessJobs(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockSchedulerService) Enqueue(ctx context.Context, jobID uint, scheduleID *uint) (*entity.TaskExecutionHistory, error) {
	args := m.Called(ctx, jobID, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TaskExecutionHistory), args.Error(1)
}

// fakePublisher records every XAdd call and fails when err is set.
type fakePublisher struct {
	added []*redis.XAddArgs
	err   error
}

func (f *fakePublisher) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.added = append(f.added, a)
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	return redis.NewStringResult("1-0", nil)
}

func fixedNow() time.Time {
	return time.Date(2024, 3, 4, 5, 30, 0, 0, time.UTC)
}
