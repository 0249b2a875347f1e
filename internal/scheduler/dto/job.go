package dto

import (
	"database/sql"
	"encoding/json"
	"time"
)

// RetryPolicyDTO represents the retry policy for a job in API requests/responses.
type RetryPolicyDTO struct {
	MaxRetries      int    `json:"max_retries"`
	BackoffStrategy string `json:"backoff_strategy"` // "exponential" or "fixed"
	InitialInterval string `json:"initial_interval"` // e.g. "5s", "1m"
}

// ScheduleDTO represents a task schedule in API requests.
type ScheduleDTO struct {
	CronExpression string `json:"cron_expression" example:"0 6 * * 1-5"`
	IsActive       bool   `json:"is_active"`
}

// JobRequest is the body for creating or replacing a job.
// Payload overrides the dividend defaults, e.g. {"history_years": 5, "chunk_size": 100}.
type JobRequest struct {
	Name        string          `json:"name" example:"Nightly dividend sync"`
	Description string          `json:"description"`
	Type        string          `json:"type" enums:"DIVIDEND_SYNC,DIVIDEND_PREDICTION"`
	Payload     json.RawMessage `json:"payload" swaggertype:"object"`
	RetryPolicy RetryPolicyDTO  `json:"retry_policy"`
	Timeout     int             `json:"timeout"` // in seconds
	Schedules   []ScheduleDTO   `json:"schedules"`
}

// ScheduleResponseDTO represents a task schedule in API responses.
type ScheduleResponseDTO struct {
	ID             uint         `json:"id"`
	CronExpression string       `json:"cron_expression"`
	IsActive       bool         `json:"is_active"`
	NextExecution  sql.NullTime `json:"next_execution" swaggertype:"string" format:"date-time"`
	LastExecution  sql.NullTime `json:"last_execution" swaggertype:"string" format:"date-time"`
}

// JobResponse is the DTO for API responses containing job details.
type JobResponse struct {
	ID          uint                  `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Type        string                `json:"type"`
	Payload     json.RawMessage       `json:"payload" swaggertype:"object"`
	RetryPolicy RetryPolicyDTO        `json:"retry_policy"`
	Timeout     int                   `json:"timeout"`
	Schedules   []ScheduleResponseDTO `json:"schedules"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// TriggerResponse is returned when a job is queued outside its schedule.
type TriggerResponse struct {
	JobID       uint   `json:"job_id"`
	ExecutionID uint   `json:"execution_id"`
	Status      string `json:"status"`
}
