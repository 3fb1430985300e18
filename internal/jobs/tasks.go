package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeCustomerCreated   = "notification:customer_created"
	TaskTypeNotificationCheck = "notification:check"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

type CustomerCreatedPayload struct {
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
}

func NewCustomerCreatedTask(customerID int64, name string) (*asynq.Task, error) {
	payload, err := json.Marshal(CustomerCreatedPayload{CustomerID: customerID, Name: name})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeCustomerCreated, payload, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// NewNotificationCheckTask scans for overdue orders, critical stock and
// orders ready for pickup. Overlapping runs are collapsed.
func NewNotificationCheckTask() *asynq.Task {
	return asynq.NewTask(TaskTypeNotificationCheck, nil,
		asynq.Queue(QueueLow),
		asynq.MaxRetry(1),
		asynq.Unique(10*time.Minute),
	)
}
