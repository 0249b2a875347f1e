package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"golang-dividend-forecaster/internal/entity"
	"golang-dividend-forecaster/internal/scheduler/dto"
	"golang-dividend-forecaster/internal/scheduler/repository"
	"golang-dividend-forecaster/pkg/logger"
	"golang-dividend-forecaster/pkg/utils"

	"gorm.io/datatypes"
)

// JobService defines the interface for managing jobs.
type JobService interface {
	CreateJob(ctx context.Context, req *dto.JobRequest) (*dto.JobResponse, error)
	GetJobByID(ctx context.Context, id uint) (*dto.JobResponse, error)
	GetAllJobs(ctx context.Context) ([]*dto.JobResponse, error)
	UpdateJob(ctx context.Context, id uint, req *dto.JobRequest) (*dto.JobResponse, error)
	DeleteJob(ctx context.Context, id uint) error
	TriggerJob(ctx context.Context, id uint) (*dto.TriggerResponse, error)
}

// NewJobService creates a new job service.
func NewJobService(jobRepo repository.JobRepository, scheduler SchedulerService, defaultTimeout int, logger *logger.Logger) JobService {
	return &jobService{
		jobRepo:        jobRepo,
		scheduler:      scheduler,
		defaultTimeout: defaultTimeout,
		logger:         logger,
		now:            utils.TimeNowUTC,
	}
}

type jobService struct {
	jobRepo        repository.JobRepository
	scheduler      SchedulerService
	defaultTimeout int
	logger         *logger.Logger
	now            func() time.Time
}

// CreateJob validates the request and stores the job with its schedules.
func (s *jobService) CreateJob(ctx context.Context, req *dto.JobRequest) (*dto.JobResponse, error) {
	job := &entity.Job{}
	if err := s.apply(job, req); err != nil {
		return nil, err
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		s.logger.Error("Failed to create job", logger.ErrorField(err))
		return nil, err
	}

	s.logger.Info("Job created successfully", logger.Field("job_id", job.ID), logger.StringField("type", string(job.Type)))
	return mapToJobResponse(job), nil
}

// GetJobByID retrieves a job by its ID.
func (s *jobService) GetJobByID(ctx context.Context, id uint) (*dto.JobResponse, error) {
	job, err := s.jobRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapToJobResponse(job), nil
}

// GetAllJobs retrieves all jobs.
func (s *jobService) GetAllJobs(ctx context.Context) ([]*dto.JobResponse, error) {
	jobs, err := s.jobRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	jobResponses := make([]*dto.JobResponse, 0, len(jobs))
	for i := range jobs {
		jobResponses = append(jobResponses, mapToJobResponse(&jobs[i]))
	}
	return jobResponses, nil
}

// DeleteJob deletes a job by its ID.
func (s *jobService) DeleteJob(ctx context.Context, id uint) error {
	if err := s.jobRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete job", logger.ErrorField(err), logger.Field("job_id", id))
		return err
	}
	s.logger.Info("Job deleted successfully", logger.Field("job_id", id))
	return nil
}

// UpdateJob replaces an existing job and its schedules.
func (s *jobService) UpdateJob(ctx context.Context, id uint, req *dto.JobRequest) (*dto.JobResponse, error) {
	job, err := s.jobRepo.FindByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to find job for update", logger.ErrorField(err), logger.Field("job_id", id))
		return nil, err
	}

	if err := s.apply(job, req); err != nil {
		return nil, err
	}

	if err := s.jobRepo.Update(ctx, job); err != nil {
		s.logger.Error("Failed to update job", logger.ErrorField(err), logger.Field("job_id", id))
		return nil, err
	}

	s.logger.Info("Job updated successfully", logger.Field("job_id", id))
	return mapToJobResponse(job), nil
}

// TriggerJob queues the job immediately, independent of its schedules.
func (s *jobService) TriggerJob(ctx context.Context, id uint) (*dto.TriggerResponse, error) {
	job, err := s.jobRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	history, err := s.scheduler.Enqueue(ctx, job.ID, nil)
	if err != nil {
		return nil, err
	}
	return &dto.TriggerResponse{JobID: job.ID, ExecutionID: history.ID, Status: string(history.Status)}, nil
}

// apply validates req and copies it onto job, replacing its schedules.
func (s *jobService) apply(job *entity.Job, req *dto.JobRequest) error {
	if err := validateJobRequest(req); err != nil {
		return err
	}

	retryPolicyBytes, err := json.Marshal(req.RetryPolicy)
	if err != nil {
		return err
	}

	payload := req.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	job.Name = req.Name
	job.Description = req.Description
	job.Type = entity.JobType(req.Type)
	job.Payload = datatypes.JSON(payload)
	job.RetryPolicy = datatypes.JSON(retryPolicyBytes)
	job.Timeout = req.Timeout
	if job.Timeout == 0 {
		job.Timeout = s.defaultTimeout
	}

	now := s.now()
	job.Schedules = make([]entity.TaskSchedule, 0, len(req.Schedules))
	for _, sDto := range req.Schedules {
		next, err := nextRun(sDto.CronExpression, now)
		if err != nil {
			return err
		}
		job.Schedules = append(job.Schedules, entity.TaskSchedule{
			JobID:          job.ID,
			CronExpression: sDto.CronExpression,
			IsActive:       sDto.IsActive,
			NextExecution:  sql.NullTime{Time: next, Valid: true},
		})
	}
	return nil
}

func mapToJobResponse(job *entity.Job) *dto.JobResponse {
	var retryPolicy dto.RetryPolicyDTO
	_ = json.Unmarshal(job.RetryPolicy, &retryPolicy)

	schedules := make([]dto.ScheduleResponseDTO, 0, len(job.Schedules))
	for _, schedule := range job.Schedules {
		schedules = append(schedules, dto.ScheduleResponseDTO{
			ID:             schedule.ID,
			CronExpression: schedule.CronExpression,
			IsActive:       schedule.IsActive,
			NextExecution:  schedule.NextExecution,
			LastExecution:  schedule.LastExecution,
		})
	}

	return &dto.JobResponse{
		ID:          job.ID,
		Name:        job.Name,
		Description: job.Description,
		Type:        string(job.Type),
		Payload:     json.RawMessage(job.Payload),
		RetryPolicy: retryPolicy,
		Timeout:     job.Timeout,
		Schedules:   schedules,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
	}
}
