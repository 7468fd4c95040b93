package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// NewServer creates a new Asynq server for processing tasks
func NewServer(redisURL string, concurrency int) (*asynq.Server, error) {
	opt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = 2
	}

	return asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: concurrency,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				slog.ErrorContext(ctx, "Task failed",
					"task_type", task.Type(),
					"retry", retried,
					"max_retry", maxRetry,
					"error", err,
				)
			}),
		},
	), nil
}

// NewMux registers every task handler behind the Sentry and tracing
// middleware.
func NewMux(usage *UsageProcessor) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(SentryMiddleware)
	mux.Use(OTelMiddleware)
	mux.HandleFunc(TypeResetMonthlyUsage, usage.HandleResetMonthlyUsage)
	return mux
}

// NewScheduler creates a scheduler with the periodic tasks registered.
// Schedules are evaluated in UTC.
func NewScheduler(redisURL string) (*asynq.Scheduler, error) {
	opt, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Location: time.UTC,
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				slog.Error("Failed to enqueue scheduled task", "error", err)
				return
			}
			slog.Info("Enqueued scheduled task", "task_type", info.Type, "task_id", info.ID)
		},
	})

	task, err := NewResetMonthlyUsageTask(ResetMonthlyUsagePayload{})
	if err != nil {
		return nil, err
	}
	if _, err := scheduler.Register(ResetMonthlyUsageCron, task); err != nil {
		return nil, err
	}
	return scheduler, nil
}
