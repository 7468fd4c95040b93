package worker

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TypeResetMonthlyUsage = "usage:reset_monthly"
)

// ResetMonthlyUsageCron runs the reset at midnight UTC on the first of each month.
const ResetMonthlyUsageCron = "0 0 1 * *"

// ResetMonthlyUsagePayload is the payload for usage reset tasks. A zero
// ResetAt means the time the task runs.
type ResetMonthlyUsagePayload struct {
	ResetAt time.Time `json:"reset_at,omitzero"`
}

// NewResetMonthlyUsageTask creates a usage reset task. The task is unique
// for a day so a scheduler restart cannot enqueue it twice.
func NewResetMonthlyUsageTask(payload ResetMonthlyUsagePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeResetMonthlyUsage, data,
		asynq.MaxRetry(5),
		asynq.Unique(24*time.Hour),
	), nil
}
