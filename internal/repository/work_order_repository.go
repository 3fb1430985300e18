package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Proton-105/oficina-bot/internal/domain"
)

type WorkOrderRepository interface {
	List(ctx context.Context) ([]domain.WorkOrder, error)
}

type workOrderRepository struct {
	db  *sql.DB
	log *slog.Logger
}

func NewWorkOrderRepository(db *sql.DB, log *slog.Logger) WorkOrderRepository {
	if log == nil {
		log = slog.Default()
	}

	return &workOrderRepository{db: db, log: log}
}

// List returns every work order with its customer's name, oldest first.
func (r *workOrderRepository) List(ctx context.Context) ([]domain.WorkOrder, error) {
	const query = `
		SELECT o.id, o.numero_os, o.cliente_id, c.nome, o.tipo_aparelho, o.marca_modelo,
		       o.problema_relatado, o.status, o.prioridade, o.valor_orcamento, o.prazo_estimado, o.criado_em
		FROM ordens_servico o
		JOIN clientes c ON c.id = o.cliente_id
		ORDER BY o.id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.log.Error("failed to list work orders", slog.Any("error", err))
		return nil, fmt.Errorf("select work orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.WorkOrder
	for rows.Next() {
		var (
			wo    domain.WorkOrder
			quote sql.NullFloat64
		)
		if err := rows.Scan(
			&wo.ID,
			&wo.Number,
			&wo.CustomerID,
			&wo.CustomerName,
			&wo.DeviceType,
			&wo.DeviceModel,
			&wo.Problem,
			&wo.Status,
			&wo.Priority,
			&quote,
			&wo.EstimatedDays,
			&wo.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan work order: %w", err)
		}
		if quote.Valid {
			v := quote.Float64
			wo.QuotedValue = &v
		}
		orders = append(orders, wo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate work orders: %w", err)
	}

	return orders, nil
}
