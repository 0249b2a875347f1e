package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang-dividend-forecaster/internal/scheduler/dto"
	"golang-dividend-forecaster/internal/scheduler/repository"
	"golang-dividend-forecaster/internal/scheduler/service"
	"golang-dividend-forecaster/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockJobService struct {
	mock.Mock
}

func (m *MockJobService) CreateJob(ctx context.Context, req *dto.JobRequest) (*dto.JobResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.JobResponse), args.Error(1)
}

func (m *MockJobService) GetJobByID(ctx context.Context, id uint) (*dto.JobResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.JobResponse), args.Error(1)
}

func (m *MockJobService) GetAllJobs(ctx context.Context) ([]*dto.JobResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dto.JobResponse), args.Error(1)
}

func (m *MockJobService) UpdateJob(ctx context.Context, id uint, req *dto.JobRequest) (*dto.JobResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.JobResponse), args.Error(1)
}

func (m *MockJobService) DeleteJob(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockJobService) TriggerJob(ctx context.Context, id uint) (*dto.TriggerResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TriggerResponse), args.Error(1)
}

type MockExecutionHistoryService struct {
	mock.Mock
}

func (m *MockExecutionHistoryService) GetExecutionHistoryByID(ctx context.Context, id uint) (*dto.ExecutionHistoryResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ExecutionHistoryResponse), args.Error(1)
}

func (m *MockExecutionHistoryService) GetRecentExecutionHistories(ctx context.Context, limit int) ([]*dto.ExecutionHistoryResponse, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dto.ExecutionHistoryResponse), args.Error(1)
}

func (m *MockExecutionHistoryService) GetExecutionHistoriesByJobID(ctx context.Context, jobID uint, limit int) ([]*dto.ExecutionHistoryResponse, error) {
	args := m.Called(ctx, jobID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dto.ExecutionHistoryResponse), args.Error(1)
}

func newTestServer(jobs service.JobService, histories service.ExecutionHistoryService) *echo.Echo {
	e := echo.New()
	api := e.Group("/api/v1")
	jobsGroup := api.Group("/jobs")
	NewJobHandler(jobs, logger.NewNop()).RegisterRoutes(jobsGroup)
	historyHandler := NewExecutionHistoryHandler(histories, logger.NewNop())
	historyHandler.RegisterRoutes(api.Group("/executions"))
	historyHandler.RegisterJobRoutes(jobsGroup)
	return e
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJobHandler_CreateJob(t *testing.T) {
	jobs := new(MockJobService)
	e := newTestServer(jobs, new(MockExecutionHistoryService))

	jobs.On("CreateJob", mock.Anything, mock.MatchedBy(func(req *dto.JobRequest) bool {
		return req.Name == "sync" && req.Type == "DIVIDEND_SYNC" && len(req.Schedules) == 1
	})).Return(&dto.JobResponse{ID: 1, Name: "sync", Type: "DIVIDEND_SYNC"}, nil)

	rec := doRequest(e, http.MethodPost, "/api/v1/jobs",
		`{"name":"sync","type":"DIVIDEND_SYNC","schedules":[{"cron_expression":"0 6 * * *","is_active":true}]}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var got dto.JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, uint(1), got.ID)
}

func TestJobHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", fmt.Errorf("%w: name is required", service.ErrInvalidRequest), http.StatusBadRequest},
		{"not found", repository.ErrNotFound, http.StatusNotFound},
		{"other", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs := new(MockJobService)
			e := newTestServer(jobs, new(MockExecutionHistoryService))
			jobs.On("UpdateJob", mock.Anything, uint(5), mock.Anything).Return(nil, tt.err)

			rec := doRequest(e, http.MethodPut, "/api/v1/jobs/5", `{"name":""}`)

			assert.Equal(t, tt.code, rec.Code)
			var body dto.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.err.Error(), body.Error)
		})
	}
}

func TestJobHandler_InvalidID(t *testing.T) {
	jobs := new(MockJobService)
	e := newTestServer(jobs, new(MockExecutionHistoryService))

	rec := doRequest(e, http.MethodGet, "/api/v1/jobs/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	jobs.AssertNotCalled(t, "GetJobByID", mock.Anything, mock.Anything)
}

func TestJobHandler_TriggerJob(t *testing.T) {
	jobs := new(MockJobService)
	e := newTestServer(jobs, new(MockExecutionHistoryService))
	jobs.On("TriggerJob", mock.Anything, uint(2)).Return(&dto.TriggerResponse{JobID: 2, ExecutionID: 9, Status: "RUNNING"}, nil)

	rec := doRequest(e, http.MethodPost, "/api/v1/jobs/2/trigger", "")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"job_id":2,"execution_id":9,"status":"RUNNING"}`, rec.Body.String())
}

func TestJobHandler_DeleteJob(t *testing.T) {
	jobs := new(MockJobService)
	e := newTestServer(jobs, new(MockExecutionHistoryService))
	jobs.On("DeleteJob", mock.Anything, uint(3)).Return(nil)

	rec := doRequest(e, http.MethodDelete, "/api/v1/jobs/3", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestExecutionHistoryHandler_Limit(t *testing.T) {
	histories := new(MockExecutionHistoryService)
	e := newTestServer(new(MockJobService), histories)

	histories.On("GetRecentExecutionHistories", mock.Anything, 0).Return([]*dto.ExecutionHistoryResponse{}, nil)
	histories.On("GetExecutionHistoriesByJobID", mock.Anything, uint(4), 20).
		Return([]*dto.ExecutionHistoryResponse{{ID: 1, JobID: 4, Status: "COMPLETED", Output: json.RawMessage(`{"processed":3}`)}}, nil)

	rec := doRequest(e, http.MethodGet, "/api/v1/executions", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(e, http.MethodGet, "/api/v1/jobs/4/executions?limit=20", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"output":{"processed":3}`)

	rec = doRequest(e, http.MethodGet, "/api/v1/executions?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	histories.AssertExpectations(t)
}
