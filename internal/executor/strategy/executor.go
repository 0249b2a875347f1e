package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang-dividend-forecaster/internal/entity"
)

const (
	SUCCESS = "SUCCESS"
	FAILED  = "FAILED"
	SKIPPED = "SKIPPED"
)

// ErrSetup marks a run-fatal failure that happens before any per-ticker or per-pair work.
var ErrSetup = errors.New("dividend job setup failed")

// JobExecutionStrategy defines the interface for different job execution strategies.
type JobExecutionStrategy interface {
	Execute(ctx context.Context, job *entity.Job) (string, error)
	GetType() entity.JobType
}

// RunLocker prevents overlapping runs of the same job type. ReleaseLock only
// removes the lock while it still carries the token AcquireLock returned.
type RunLocker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (token string, acquired bool, err error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// lockTTL keeps the run lock alive for at least the job's own timeout.
func lockTTL(configured time.Duration, job *entity.Job) time.Duration {
	if job == nil || job.Timeout <= 0 {
		return configured
	}
	if timeout := time.Duration(job.Timeout) * time.Second; timeout > configured {
		return timeout
	}
	return configured
}

// Clock returns the current time. Strategies default to UTC wall time.
type Clock func() time.Time

func decodePayload(job *entity.Job, v interface{}) error {
	if job == nil || len(job.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(job.Payload, v)
}

func toJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return FAILED
	}
	return string(b)
}
