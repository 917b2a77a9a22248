package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup recomputes and caches dashboard snapshots.
	TaskDashboardWarmup = "dashboard:warmup"
)

// DashboardWarmupPayload selects what the warmup job rebuilds. An empty Date
// means today; AllCompanies adds one snapshot per registered company to the
// unscoped one.
type DashboardWarmupPayload struct {
	Date         string `json:"date,omitempty"`
	AllCompanies bool   `json:"all_companies"`
}

// NewDashboardWarmupTask constructs an Asynq task. Duplicate warmups for the
// same payload collapse while one is queued.
func NewDashboardWarmupTask(payload DashboardWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
		asynq.Unique(time.Minute),
	), nil
}
