package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Proton-105/oficina-bot/internal/domain"
)

// NotificationKey identifies a notification about one record for one user.
type NotificationKey struct {
	UserID int64
	RefID  int64
}

type NotificationRepository interface {
	// CreateForUsers stores one copy of n per user in a single transaction.
	CreateForUsers(ctx context.Context, n domain.Notification, userIDs []int64) error
	CreateMany(ctx context.Context, notifications []domain.Notification) error
	// Existing lists who was already notified about which record, reading
	// the record id from dados_referencia[refKey].
	Existing(ctx context.Context, kind, refKey string) (map[NotificationKey]struct{}, error)
}

type notificationRepository struct {
	db  *sql.DB
	log *slog.Logger
}

func NewNotificationRepository(db *sql.DB, log *slog.Logger) NotificationRepository {
	if log == nil {
		log = slog.Default()
	}

	return &notificationRepository{db: db, log: log}
}

func (r *notificationRepository) CreateForUsers(ctx context.Context, n domain.Notification, userIDs []int64) error {
	batch := make([]domain.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		copied := n
		copied.UserID = userID
		batch = append(batch, copied)
	}

	return r.CreateMany(ctx, batch)
}

func (r *notificationRepository) CreateMany(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	const query = `
		INSERT INTO notificacoes (tipo, titulo, mensagem, dados_referencia, prioridade, usuario_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin notification transaction: %w", err)
	}

	for _, n := range notifications {
		execErr := r.insert(ctx, tx, query, n)
		if execErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				r.log.Error("rollback error", slog.Any("error", rbErr))
			}
			return execErr
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit notifications: %w", err)
	}

	return nil
}

func (r *notificationRepository) insert(ctx context.Context, tx *sql.Tx, query string, n domain.Notification) error {
	var reference any
	if n.Reference != nil {
		encoded, err := json.Marshal(n.Reference)
		if err != nil {
			return fmt.Errorf("encode notification reference: %w", err)
		}
		reference = string(encoded)
	}

	priority := n.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}

	if _, err := tx.ExecContext(ctx, query, n.Type, n.Title, n.Message, reference, priority, n.UserID); err != nil {
		return fmt.Errorf("insert notification for user %d: %w", n.UserID, err)
	}

	return nil
}

func (r *notificationRepository) Existing(ctx context.Context, kind, refKey string) (map[NotificationKey]struct{}, error) {
	const query = `
		SELECT usuario_id, (dados_referencia ->> $2)::bigint
		FROM notificacoes
		WHERE tipo = $1 AND dados_referencia ? $2
	`

	rows, err := r.db.QueryContext(ctx, query, kind, refKey)
	if err != nil {
		r.log.Error("failed to list notifications", slog.String("kind", kind), slog.Any("error", err))
		return nil, fmt.Errorf("select notifications: %w", err)
	}
	defer rows.Close()

	existing := make(map[NotificationKey]struct{})
	for rows.Next() {
		var key NotificationKey
		if err := rows.Scan(&key.UserID, &key.RefID); err != nil {
			return nil, fmt.Errorf("scan notification key: %w", err)
		}
		existing[key] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}

	return existing, nil
}
