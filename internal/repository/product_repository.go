package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Proton-105/oficina-bot/internal/domain"
)

type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
}

type productRepository struct {
	db  *sql.DB
	log *slog.Logger
}

func NewProductRepository(db *sql.DB, log *slog.Logger) ProductRepository {
	if log == nil {
		log = slog.Default()
	}

	return &productRepository{db: db, log: log}
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	const query = `
		SELECT id, codigo, nome, categoria, quantidade, estoque_minimo, preco_custo, preco_venda,
		       fornecedor, localizacao
		FROM produtos_estoque
		ORDER BY nome
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.log.Error("failed to list products", slog.Any("error", err))
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var (
			p                  domain.Product
			supplier, location sql.NullString
		)
		if err := rows.Scan(
			&p.ID,
			&p.Code,
			&p.Name,
			&p.Category,
			&p.Quantity,
			&p.MinStock,
			&p.CostPrice,
			&p.SalePrice,
			&supplier,
			&location,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		p.Supplier = supplier.String
		p.Location = location.String
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}
