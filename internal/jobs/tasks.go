package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskIntegrityScan fans out one integrity check per company.
	TaskIntegrityScan = "journal:integrity:scan"
	// TaskIntegrityCheck recomputes one company's trial balance.
	TaskIntegrityCheck = "journal:integrity"
)

// IntegrityPayload names the company to check.
type IntegrityPayload struct {
	CompanyID uuid.UUID `json:"companyId"`
}

// NewIntegrityScanTask constructs the periodic fan-out task.
func NewIntegrityScanTask() *asynq.Task {
	return asynq.NewTask(TaskIntegrityScan, nil)
}

// NewIntegrityCheckTask constructs a check for one company.
func NewIntegrityCheckTask(payload IntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIntegrityCheck, data), nil
}
