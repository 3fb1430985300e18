package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/oficina-bot/internal/domain"
	"github.com/Proton-105/oficina-bot/internal/i18n"
	"github.com/Proton-105/oficina-bot/internal/repository"
)

// SnapshotSource loads current shop data.
type SnapshotSource interface {
	Load(ctx context.Context) (*domain.Snapshot, error)
}

// NotificationStore is NotificationWriter plus the dedup lookup.
type NotificationStore interface {
	NotificationWriter
	Existing(ctx context.Context, kind, refKey string) (map[repository.NotificationKey]struct{}, error)
}

// NotificationCheckHandler notifies staff about overdue work orders, critical
// stock and orders ready for pickup. Each user hears about a record once.
type NotificationCheckHandler struct {
	staff         StaffLister
	snapshots     SnapshotSource
	notifications NotificationStore
	tr            i18n.Translator
	now           func() time.Time
	log           *slog.Logger
}

func NewNotificationCheckHandler(
	staff StaffLister,
	snapshots SnapshotSource,
	notifications NotificationStore,
	tr i18n.Translator,
	log *slog.Logger,
) *NotificationCheckHandler {
	if log == nil {
		log = slog.Default()
	}

	return &NotificationCheckHandler{
		staff:         staff,
		snapshots:     snapshots,
		notifications: notifications,
		tr:            tr,
		now:           time.Now,
		log:           log,
	}
}

// candidate is a notification not yet bound to a user.
type candidate struct {
	refID        int64
	notification domain.Notification
}

func (h *NotificationCheckHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	userIDs, err := h.staff.ListActiveIDs(ctx)
	if err != nil {
		return fmt.Errorf("list active staff: %w", err)
	}
	if len(userIDs) == 0 {
		h.log.InfoContext(ctx, "notification check: no active staff")
		return nil
	}

	snap, err := h.snapshots.Load(ctx)
	if err != nil {
		return err
	}

	groups := []struct {
		kind       string
		refKey     string
		candidates []candidate
	}{
		{domain.NotificationOverdue, "os_id", h.overdue(snap)},
		{domain.NotificationCriticalStock, "produto_id", h.criticalStock(snap)},
		{domain.NotificationReady, "os_id", h.ready(snap)},
	}

	var pending []domain.Notification
	for _, g := range groups {
		if len(g.candidates) == 0 {
			continue
		}

		existing, err := h.notifications.Existing(ctx, g.kind, g.refKey)
		if err != nil {
			return err
		}

		for _, userID := range userIDs {
			for _, c := range g.candidates {
				if _, seen := existing[repository.NotificationKey{UserID: userID, RefID: c.refID}]; seen {
					continue
				}
				n := c.notification
				n.UserID = userID
				pending = append(pending, n)
			}
		}
	}

	if err := h.notifications.CreateMany(ctx, pending); err != nil {
		return fmt.Errorf("store notifications: %w", err)
	}

	h.log.InfoContext(ctx, "notification check finished", slog.Int("created", len(pending)))
	return nil
}

func (h *NotificationCheckHandler) overdue(snap *domain.Snapshot) []candidate {
	now := h.now()

	var out []candidate
	for _, wo := range snap.WorkOrders {
		if !wo.Overdue(now) {
			continue
		}
		out = append(out, candidate{
			refID: wo.ID,
			notification: domain.Notification{
				Type:      domain.NotificationOverdue,
				Title:     h.tr.Tf("notification.overdue.title", wo.Number),
				Message:   h.tr.Tf("notification.overdue.message", wo.CustomerName),
				Reference: map[string]any{"os_id": wo.ID, "cliente_id": wo.CustomerID},
				Priority:  domain.PriorityHigh,
			},
		})
	}
	return out
}

func (h *NotificationCheckHandler) criticalStock(snap *domain.Snapshot) []candidate {
	var out []candidate
	for _, p := range snap.Products {
		if !p.CriticalStock() {
			continue
		}
		out = append(out, candidate{
			refID: p.ID,
			notification: domain.Notification{
				Type:      domain.NotificationCriticalStock,
				Title:     h.tr.Tf("notification.critical_stock.title", p.Name),
				Message:   h.tr.Tf("notification.critical_stock.message", p.Quantity, p.MinStock),
				Reference: map[string]any{"produto_id": p.ID},
				Priority:  domain.PriorityHigh,
			},
		})
	}
	return out
}

func (h *NotificationCheckHandler) ready(snap *domain.Snapshot) []candidate {
	var out []candidate
	for _, wo := range snap.WorkOrders {
		if wo.Status != domain.WorkOrderReady {
			continue
		}
		out = append(out, candidate{
			refID: wo.ID,
			notification: domain.Notification{
				Type:      domain.NotificationReady,
				Title:     h.tr.Tf("notification.ready.title", wo.Number),
				Message:   h.tr.Tf("notification.ready.message", wo.CustomerName),
				Reference: map[string]any{"os_id": wo.ID, "cliente_id": wo.CustomerID},
				Priority:  domain.PriorityNormal,
			},
		})
	}
	return out
}
