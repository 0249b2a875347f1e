package common

const (
	RedisStreamSchedulerTaskExecution = "schedule.task.execution"

	RedisStreamGroup    = "executor-group"
	RedisStreamConsumer = "executor-consumer"

	// RedisKeyRunLock guards a job type against overlapping runs; formatted with the job type.
	RedisKeyRunLock = "dividend:run_lock:%s"
)
