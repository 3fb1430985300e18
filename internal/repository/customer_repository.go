package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Proton-105/oficina-bot/internal/domain"
)

// CustomerRepository persists rows of clientes.
type CustomerRepository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	FindByTaxID(ctx context.Context, taxID string) (*domain.Customer, error)
	List(ctx context.Context) ([]domain.Customer, error)
}

type customerRepository struct {
	db  *sql.DB
	log *slog.Logger
}

func NewCustomerRepository(db *sql.DB, log *slog.Logger) CustomerRepository {
	if log == nil {
		log = slog.Default()
	}

	return &customerRepository{
		db:  db,
		log: log,
	}
}

const customerColumns = `id, nome, cpf_cnpj, tipo_pessoa, telefone, email, endereco, observacoes, status, criado_em`

// Create inserts customer and fills its ID and CreatedAt. A taken tax id
// yields an error matching ErrDuplicate.
func (r *customerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	const query = `
		INSERT INTO clientes (nome, cpf_cnpj, tipo_pessoa, telefone, email, endereco, observacoes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, criado_em
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		customer.Name,
		customer.TaxID,
		customer.PersonType,
		customer.Phone,
		nullString(&customer.Email),
		nullString(&customer.Address),
		nullString(&customer.Notes),
		customer.Status,
	).Scan(&customer.ID, &customer.CreatedAt)
	if err != nil {
		err = asDuplicate(err)
		if !errors.Is(err, ErrDuplicate) {
			r.log.Error("failed to create customer", slog.Any("error", err))
		}
		return fmt.Errorf("insert customer: %w", err)
	}

	return nil
}

// FindByTaxID returns sql.ErrNoRows when no customer has taxID.
func (r *customerRepository) FindByTaxID(ctx context.Context, taxID string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM clientes WHERE cpf_cnpj = $1`

	customer, err := scanCustomer(r.db.QueryRowContext(ctx, query, taxID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}

		r.log.Error("failed to fetch customer by tax id", slog.Any("error", err))
		return nil, fmt.Errorf("select customer by tax id: %w", err)
	}

	return customer, nil
}

func (r *customerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM clientes ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select customers: %w", err)
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, *customer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}

	return customers, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row scanner) (*domain.Customer, error) {
	var (
		c                     domain.Customer
		email, address, notes sql.NullString
	)

	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.TaxID,
		&c.PersonType,
		&c.Phone,
		&email,
		&address,
		&notes,
		&c.Status,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}

	c.Email = email.String
	c.Address = address.String
	c.Notes = notes.String
	return &c, nil
}
