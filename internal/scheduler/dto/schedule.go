package dto

import (
	"database/sql"
	"time"
)

// CreateScheduleRequest attaches a cron trigger to an existing dividend job.
// The cron expression uses the five standard fields and is evaluated in UTC.
type CreateScheduleRequest struct {
	JobID          uint   `json:"job_id" example:"1"`
	CronExpression string `json:"cron_expression" example:"0 6 * * *"`
	IsActive       bool   `json:"is_active" example:"true"`
}

// UpdateScheduleRequest replaces the cron expression and active flag of a schedule.
// The next run is recomputed from the new expression.
type UpdateScheduleRequest struct {
	CronExpression string `json:"cron_expression" example:"30 7 * * 1-5"`
	IsActive       bool   `json:"is_active" example:"false"`
}

// ScheduleResponse describes when a dividend job next fires and when it last did.
// Both timestamps are null until the scheduler has computed or fired them.
type ScheduleResponse struct {
	ID             uint         `json:"id" example:"3"`
	JobID          uint         `json:"job_id" example:"1"`
	CronExpression string       `json:"cron_expression" example:"0 6 * * *"`
	IsActive       bool         `json:"is_active" example:"true"`
	NextExecution  sql.NullTime `json:"next_execution" swaggertype:"string" format:"date-time" example:"2024-03-05T06:00:00Z" extensions:"x-nullable"`
	LastExecution  sql.NullTime `json:"last_execution" swaggertype:"string" format:"date-time" example:"2024-03-04T06:00:00Z" extensions:"x-nullable"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
