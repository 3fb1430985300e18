// Package customer persists customers produced by the assistant's creation flow.
package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/Proton-105/oficina-bot/internal/assistant"
	"github.com/Proton-105/oficina-bot/internal/domain"
	"github.com/Proton-105/oficina-bot/internal/repository"
)

const (
	PersonIndividual = "pessoa_fisica"
	PersonCompany    = "pessoa_juridica"

	cnpjDigits = 14
)

// ErrDuplicateTaxID means a customer with the same CPF/CNPJ already exists.
var ErrDuplicateTaxID = errors.New("customer tax id already registered")

// Notifier is told about every customer that was stored.
type Notifier interface {
	NotifyCustomerCreated(ctx context.Context, customer *domain.Customer) error
}

// input mirrors the columns of clientes and their limits.
type input struct {
	Name    string `validate:"required,max=150"`
	TaxID   string `validate:"required,numeric,min=11,max=14"`
	Phone   string `validate:"required,max=20"`
	Email   string `validate:"omitempty,max=120"`
	Address string `validate:"omitempty,max=200"`
}

type Service struct {
	repo     repository.CustomerRepository
	notifier Notifier
	validate *validator.Validate
	log      *slog.Logger
}

// NewService constructs a Service. notifier may be nil.
func NewService(repo repository.CustomerRepository, notifier Notifier, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		repo:     repo,
		notifier: notifier,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// Create stores record as an active customer. A CPF/CNPJ that is already
// taken yields ErrDuplicateTaxID, whether caught by the lookup or by the
// unique constraint.
func (s *Service) Create(ctx context.Context, record assistant.CustomerRecord) (*domain.Customer, error) {
	customer := &domain.Customer{
		Name:       record.Name,
		TaxID:      assistant.NormalizeTaxID(record.TaxID),
		Phone:      record.Phone,
		Email:      deref(record.Email),
		Address:    deref(record.Address),
		Notes:      deref(record.Notes),
		Status:     domain.CustomerStatusActive,
		PersonType: PersonIndividual,
	}
	if len(customer.TaxID) == cnpjDigits {
		customer.PersonType = PersonCompany
	}

	if err := s.validate.StructCtx(ctx, input{
		Name:    customer.Name,
		TaxID:   customer.TaxID,
		Phone:   customer.Phone,
		Email:   customer.Email,
		Address: customer.Address,
	}); err != nil {
		return nil, fmt.Errorf("invalid customer: %w", err)
	}

	existing, err := s.repo.FindByTaxID(ctx, customer.TaxID)
	switch {
	case err == nil && existing != nil:
		return nil, ErrDuplicateTaxID
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		s.logError(ctx, "find_by_tax_id", err)
		return nil, fmt.Errorf("check existing customer: %w", err)
	}

	if err := s.repo.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %w", ErrDuplicateTaxID, err)
		}
		s.logError(ctx, "create", err)
		return nil, fmt.Errorf("create customer: %w", err)
	}

	s.log.InfoContext(ctx, "customer created",
		slog.Int64("customer_id", customer.ID),
		slog.String("person_type", customer.PersonType),
	)

	if s.notifier != nil {
		if err := s.notifier.NotifyCustomerCreated(ctx, customer); err != nil {
			s.logError(ctx, "notify", err)
		}
	}

	return customer, nil
}

func (s *Service) logError(ctx context.Context, operation string, err error) {
	s.log.ErrorContext(ctx, "customer service operation failed",
		slog.String("operation", operation),
		slog.Any("error", err),
	)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
