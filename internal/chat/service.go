// Package chat runs one assistant turn for any transport: it loads the shop
// snapshot, routes the utterance and performs the commit the flow asks for.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Proton-105/oficina-bot/internal/assistant"
	"github.com/Proton-105/oficina-bot/internal/customer"
	"github.com/Proton-105/oficina-bot/internal/domain"
	apperrors "github.com/Proton-105/oficina-bot/internal/errors"
	"github.com/Proton-105/oficina-bot/internal/i18n"
	"github.com/Proton-105/oficina-bot/pkg/metrics"
)

const defaultSnapshotTimeout = 5 * time.Second

// Commit outcomes, as recorded in metrics and reported in Payload.Reason.
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "commit_failed"
)

type SnapshotLoader interface {
	Load(ctx context.Context) (*domain.Snapshot, error)
}

type CustomerCreator interface {
	Create(ctx context.Context, record assistant.CustomerRecord) (*domain.Customer, error)
}

// TurnRouter is satisfied by *assistant.Router.
type TurnRouter interface {
	Route(ctx context.Context, utterance string, prior *assistant.ConversationState, snap *domain.Snapshot) *assistant.TurnResult
}

type Service struct {
	router          TurnRouter
	snapshots       SnapshotLoader
	customers       CustomerCreator
	errHandler      *apperrors.Handler
	tr              i18n.Translator
	snapshotTimeout time.Duration
	log             *slog.Logger
}

func NewService(
	router TurnRouter,
	snapshots SnapshotLoader,
	customers CustomerCreator,
	errHandler *apperrors.Handler,
	tr i18n.Translator,
	snapshotTimeout time.Duration,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	if errHandler == nil {
		errHandler = apperrors.NewHandler(log, false)
	}
	if snapshotTimeout <= 0 {
		snapshotTimeout = defaultSnapshotTimeout
	}

	return &Service{
		router:          router,
		snapshots:       snapshots,
		customers:       customers,
		errHandler:      errHandler,
		tr:              tr,
		snapshotTimeout: snapshotTimeout,
		log:             log,
	}
}

// Handle runs one turn. An error means the shop data could not be read; the
// caller should keep prior and show the error's user message.
func (s *Service) Handle(ctx context.Context, utterance string, prior *assistant.ConversationState) (*assistant.TurnResult, error) {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	result := s.router.Route(ctx, utterance, prior, snap)

	if result.Data.Kind == assistant.KindReadyToCommit && result.Action != nil {
		s.commit(ctx, result)
	}

	metrics.RecordTurn(string(result.Data.Kind), ChannelFromContext(ctx))

	return result, nil
}

func (s *Service) loadSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.snapshotTimeout)
	defer cancel()

	var snap *domain.Snapshot
	err := apperrors.WithRetry(ctx, func() error {
		loaded, err := s.snapshots.Load(ctx)
		if err != nil {
			return apperrors.NewDatabaseError(err)
		}
		snap = loaded
		return nil
	})
	if err != nil {
		s.log.ErrorContext(ctx, "failed to load snapshot", slog.Any("error", err))
		return nil, err
	}

	return snap, nil
}

// commit persists the customer. A failed commit ends the flow: the action is
// dropped and the reply explains how to start over.
func (s *Service) commit(ctx context.Context, result *assistant.TurnResult) {
	record := result.Action.Customer
	if record == nil || result.Action.Type != assistant.ActionCreateCustomer {
		s.log.WarnContext(ctx, "unsupported commit action", slog.String("type", result.Action.Type))
		return
	}

	created, err := s.customers.Create(ctx, *record)
	switch {
	case err == nil:
		metrics.RecordCommit(OutcomeCreated)
		result.Reply += "\n" + s.tr.Tf("commit.success", created.Name)
		return

	case errors.Is(err, customer.ErrDuplicateTaxID):
		metrics.RecordCommit(OutcomeDuplicate)
		s.log.InfoContext(ctx, "commit rejected: duplicate tax id")
		result.Reply = s.tr.Tf("commit.duplicate", record.TaxID)
		s.failCommit(result, OutcomeDuplicate)

	default:
		metrics.RecordCommit(OutcomeFailed)
		s.errHandler.Handle(ctx, apperrors.NewDatabaseError(err))
		result.Reply = s.tr.T("commit.failed")
		s.failCommit(result, OutcomeFailed)
	}
}

func (s *Service) failCommit(result *assistant.TurnResult, reason string) {
	result.Action = nil
	result.State = nil
	result.Data.Kind = assistant.KindFlowFailed
	result.Data.Reason = reason
}
