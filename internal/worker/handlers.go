package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// UsageResetter zeroes the monthly analysis counters of every user.
type UsageResetter interface {
	ResetMonthlyUsage(ctx context.Context, at time.Time) (int64, error)
}

type UsageProcessor struct {
	users   UsageResetter
	metrics *WorkerMetrics
	now     func() time.Time
}

func NewUsageProcessor(users UsageResetter, metrics *WorkerMetrics) *UsageProcessor {
	return &UsageProcessor{
		users:   users,
		metrics: metrics,
		now:     time.Now,
	}
}

func (p *UsageProcessor) HandleResetMonthlyUsage(ctx context.Context, t *asynq.Task) error {
	start := time.Now()

	var payload ResetMonthlyUsagePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			p.metrics.RecordJob(ctx, t.Type(), "failed", time.Since(start).Seconds())
			return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	resetAt := payload.ResetAt
	if resetAt.IsZero() {
		resetAt = p.now()
	}
	resetAt = resetAt.UTC()

	slog.InfoContext(ctx, "Resetting monthly usage", "reset_at", resetAt)

	count, err := p.users.ResetMonthlyUsage(ctx, resetAt)
	if err != nil {
		p.metrics.RecordJob(ctx, t.Type(), "failed", time.Since(start).Seconds())
		return fmt.Errorf("reset monthly usage: %w", err)
	}

	p.metrics.RecordJob(ctx, t.Type(), "success", time.Since(start).Seconds())
	slog.InfoContext(ctx, "Monthly usage reset", "users", count, "duration", time.Since(start))
	return nil
}
