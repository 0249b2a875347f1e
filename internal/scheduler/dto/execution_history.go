package dto

import (
	"encoding/json"
	"time"
)

// ExecutionHistoryResponse is one job execution. Output holds the run summary JSON when the
// executor produced one.
type ExecutionHistoryResponse struct {
	ID           uint            `json:"id"`
	JobID        uint            `json:"job_id"`
	ScheduleID   *uint           `json:"schedule_id,omitempty"`
	Status       string          `json:"status"`
	ExecutedAt   time.Time       `json:"executed_at"`
	Duration     int64           `json:"duration_ms"`
	Output       json.RawMessage `json:"output,omitempty" swaggertype:"object"`
	ErrorMessage string          `json:"error_message,omitempty"`
}
