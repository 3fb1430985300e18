package repository

import (
	"context"
	"fmt"

	"github.com/Proton-105/oficina-bot/internal/domain"
)

// SnapshotLoader reads the shop data the assistant consults on every turn.
type SnapshotLoader struct {
	customers  CustomerRepository
	workOrders WorkOrderRepository
	products   ProductRepository
}

func NewSnapshotLoader(customers CustomerRepository, workOrders WorkOrderRepository, products ProductRepository) *SnapshotLoader {
	return &SnapshotLoader{
		customers:  customers,
		workOrders: workOrders,
		products:   products,
	}
}

func (l *SnapshotLoader) Load(ctx context.Context) (*domain.Snapshot, error) {
	customers, err := l.customers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	workOrders, err := l.workOrders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	products, err := l.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	return &domain.Snapshot{
		Customers:  customers,
		WorkOrders: workOrders,
		Products:   products,
	}, nil
}
