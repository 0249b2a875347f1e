package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang-dividend-forecaster/internal/entity"
	"golang-dividend-forecaster/internal/scheduler/dto"

	"github.com/robfig/cron/v3"
)

// ErrInvalidRequest wraps every request validation failure.
var ErrInvalidRequest = errors.New("invalid request")

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

var supportedJobTypes = map[entity.JobType]struct{}{
	entity.JobTypeDividendSync:       {},
	entity.JobTypeDividendPrediction: {},
}

// nextRun returns the first activation of expr strictly after now.
func nextRun(expr string, now time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cron expression %q: %v", ErrInvalidRequest, expr, err)
	}
	return schedule.Next(now), nil
}

func validateJobRequest(req *dto.JobRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if _, ok := supportedJobTypes[entity.JobType(req.Type)]; !ok {
		return fmt.Errorf("%w: unsupported job type %q", ErrInvalidRequest, req.Type)
	}
	if req.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidRequest)
	}
	for _, s := range req.Schedules {
		if _, err := cronParser.Parse(s.CronExpression); err != nil {
			return fmt.Errorf("%w: cron expression %q: %v", ErrInvalidRequest, s.CronExpression, err)
		}
	}
	return nil
}
