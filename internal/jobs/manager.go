package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/oficina-bot/internal/domain"
)

// Manager describes the minimal queue operations needed by the application.
type Manager interface {
	Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type manager struct {
	client *asynq.Client
	log    *slog.Logger
}

// NewManager builds a Manager backed by an asynq client.
func NewManager(redisOpt asynq.RedisConnOpt, log *slog.Logger) Manager {
	client := asynq.NewClient(redisOpt)

	return &manager{
		client: client,
		log:    log,
	}
}

func (m *manager) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	info, err := m.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return nil, err
	}

	if m.log != nil {
		m.log.DebugContext(ctx, "jobs: task enqueued",
			slog.String("task_type", task.Type()),
			slog.String("task_id", info.ID),
			slog.String("queue", info.Queue),
		)
	}

	return info, nil
}

func (m *manager) Close() error {
	return m.client.Close()
}

// CustomerNotifier schedules the staff notification for a new customer.
type CustomerNotifier struct {
	manager Manager
}

func NewCustomerNotifier(manager Manager) *CustomerNotifier {
	return &CustomerNotifier{manager: manager}
}

func (n *CustomerNotifier) NotifyCustomerCreated(ctx context.Context, customer *domain.Customer) error {
	task, err := NewCustomerCreatedTask(customer.ID, customer.Name)
	if err != nil {
		return fmt.Errorf("build customer created task: %w", err)
	}

	if _, err := n.manager.Enqueue(ctx, task); err != nil {
		return fmt.Errorf("enqueue customer created task: %w", err)
	}

	return nil
}
