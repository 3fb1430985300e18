package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/oficina-bot/internal/domain"
	"github.com/Proton-105/oficina-bot/internal/i18n"
	"github.com/Proton-105/oficina-bot/internal/jobs"
)

// StaffLister returns the users that receive shop notifications.
type StaffLister interface {
	ListActiveIDs(ctx context.Context) ([]int64, error)
}

// NotificationWriter persists notifications.
type NotificationWriter interface {
	CreateForUsers(ctx context.Context, n domain.Notification, userIDs []int64) error
	CreateMany(ctx context.Context, notifications []domain.Notification) error
}

// CustomerCreatedHandler tells every active employee about a new customer.
type CustomerCreatedHandler struct {
	staff         StaffLister
	notifications NotificationWriter
	tr            i18n.Translator
	log           *slog.Logger
}

func NewCustomerCreatedHandler(staff StaffLister, notifications NotificationWriter, tr i18n.Translator, log *slog.Logger) *CustomerCreatedHandler {
	if log == nil {
		log = slog.Default()
	}

	return &CustomerCreatedHandler{
		staff:         staff,
		notifications: notifications,
		tr:            tr,
		log:           log,
	}
}

func (h *CustomerCreatedHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.CustomerCreatedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.ErrorContext(ctx, "customer created: failed to decode payload", slog.String("task_type", t.Type()), slog.String("error", err.Error()))
		return fmt.Errorf("decode payload: %w: %w", err, asynq.SkipRetry)
	}

	userIDs, err := h.staff.ListActiveIDs(ctx)
	if err != nil {
		return fmt.Errorf("list active staff: %w", err)
	}

	if len(userIDs) == 0 {
		h.log.WarnContext(ctx, "customer created: no active staff to notify", slog.Int64("customer_id", payload.CustomerID))
		return nil
	}

	n := domain.Notification{
		Type:      domain.NotificationCustomerCreated,
		Title:     h.tr.T("notification.customer_created.title"),
		Message:   h.tr.Tf("notification.customer_created.message", payload.Name),
		Reference: map[string]any{"cliente_id": payload.CustomerID},
		Priority:  domain.PriorityLow,
	}

	if err := h.notifications.CreateForUsers(ctx, n, userIDs); err != nil {
		return fmt.Errorf("store notifications: %w", err)
	}

	h.log.InfoContext(ctx, "customer created: staff notified",
		slog.Int64("customer_id", payload.CustomerID),
		slog.Int("recipients", len(userIDs)),
	)

	return nil
}
