package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Proton-105/oficina-bot/internal/domain"
)

// StaffRepository reads shop employees from usuarios.
type StaffRepository interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (*domain.StaffUser, error)
	ListActiveIDs(ctx context.Context) ([]int64, error)
}

type staffRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewStaffRepository creates a new SQL-backed staff repository.
func NewStaffRepository(db *sql.DB, log *slog.Logger) StaffRepository {
	return &staffRepository{
		db:  db,
		log: log,
	}
}

// FindByTelegramID retrieves an employee by their Telegram identifier.
func (r *staffRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*domain.StaffUser, error) {
	const query = `
		SELECT id, usuario, nome, email, telegram_id, ativo, criado_em
		FROM usuarios
		WHERE telegram_id = $1
	`

	row := r.db.QueryRowContext(ctx, query, telegramID)

	var (
		user  domain.StaffUser
		email sql.NullString
		tgID  sql.NullInt64
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Name,
		&email,
		&tgID,
		&user.Active,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}

		if r.log != nil {
			r.log.Error("failed to fetch staff user by telegram id", slog.Int64("telegram_id", telegramID), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select staff user by telegram id: %w", err)
	}

	user.Email = email.String
	if tgID.Valid {
		id := tgID.Int64
		user.TelegramID = &id
	}

	return &user, nil
}

// ListActiveIDs returns the ids of every active employee.
func (r *staffRepository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM usuarios WHERE ativo = TRUE ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select active staff: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan staff id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
