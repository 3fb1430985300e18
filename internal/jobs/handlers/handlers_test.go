package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/oficina-bot/internal/domain"
	"github.com/Proton-105/oficina-bot/internal/i18n"
	"github.com/Proton-105/oficina-bot/internal/jobs"
	"github.com/Proton-105/oficina-bot/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type staticStaff struct {
	ids []int64
	err error
}

func (s staticStaff) ListActiveIDs(context.Context) ([]int64, error) { return s.ids, s.err }

type mockNotifications struct {
	mock.Mock
}

func (m *mockNotifications) CreateForUsers(ctx context.Context, n domain.Notification, userIDs []int64) error {
	return m.Called(ctx, n, userIDs).Error(0)
}

func (m *mockNotifications) CreateMany(ctx context.Context, notifications []domain.Notification) error {
	return m.Called(ctx, notifications).Error(0)
}

func (m *mockNotifications) Existing(ctx context.Context, kind, refKey string) (map[repository.NotificationKey]struct{}, error) {
	args := m.Called(ctx, kind, refKey)
	existing, _ := args.Get(0).(map[repository.NotificationKey]struct{})
	return existing, args.Error(1)
}

type staticSnapshot struct {
	snap *domain.Snapshot
}

func (s staticSnapshot) Load(context.Context) (*domain.Snapshot, error) { return s.snap, nil }

func translator() i18n.Translator {
	return i18n.MustLoad("pt").Translator("pt")
}

func TestCustomerCreatedHandler(t *testing.T) {
	store := new(mockNotifications)
	store.On("CreateForUsers", mock.Anything, mock.MatchedBy(func(n domain.Notification) bool {
		return n.Type == domain.NotificationCustomerCreated &&
			n.Title == "Novo Cliente Cadastrado" &&
			n.Message == "Maria Silva foi adicionado à base de dados." &&
			n.Priority == domain.PriorityLow &&
			n.Reference["cliente_id"] == int64(7)
	}), []int64{1, 2}).Return(nil).Once()

	h := NewCustomerCreatedHandler(staticStaff{ids: []int64{1, 2}}, store, translator(), testLogger())

	task, err := jobs.NewCustomerCreatedTask(7, "Maria Silva")
	require.NoError(t, err)
	require.NoError(t, h.ProcessTask(context.Background(), task))
	store.AssertExpectations(t)
}

func TestCustomerCreatedHandler_Errors(t *testing.T) {
	store := new(mockNotifications)
	h := NewCustomerCreatedHandler(staticStaff{}, store, translator(), testLogger())

	err := h.ProcessTask(context.Background(), asynq.NewTask(jobs.TaskTypeCustomerCreated, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	task, err := jobs.NewCustomerCreatedTask(7, "Maria")
	require.NoError(t, err)
	assert.NoError(t, h.ProcessTask(context.Background(), task), "no staff means nothing to do")
	store.AssertNotCalled(t, "CreateForUsers", mock.Anything, mock.Anything, mock.Anything)

	failing := NewCustomerCreatedHandler(staticStaff{err: errors.New("db down")}, store, translator(), testLogger())
	assert.ErrorContains(t, failing.ProcessTask(context.Background(), task), "db down")
}

func TestNotificationCheckHandler(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	snap := &domain.Snapshot{
		WorkOrders: []domain.WorkOrder{
			{ID: 1, Number: "#OS0001", CustomerID: 3, CustomerName: "Maria", Status: domain.WorkOrderWaiting, EstimatedDays: 2, CreatedAt: now.AddDate(0, 0, -5)},
			{ID: 2, Number: "#OS0002", CustomerID: 4, CustomerName: "João", Status: domain.WorkOrderReady, CreatedAt: now},
			{ID: 3, Number: "#OS0003", CustomerID: 4, CustomerName: "João", Status: domain.WorkOrderRepairing, EstimatedDays: 10, CreatedAt: now},
		},
		Products: []domain.Product{
			{ID: 10, Name: "Tela Moto G", Quantity: 2, MinStock: 2},
			{ID: 11, Name: "Bateria", Quantity: 9, MinStock: 2},
		},
	}

	store := new(mockNotifications)
	store.On("Existing", mock.Anything, domain.NotificationOverdue, "os_id").
		Return(map[repository.NotificationKey]struct{}{{UserID: 1, RefID: 1}: {}}, nil)
	store.On("Existing", mock.Anything, domain.NotificationCriticalStock, "produto_id").
		Return(map[repository.NotificationKey]struct{}{}, nil)
	store.On("Existing", mock.Anything, domain.NotificationReady, "os_id").
		Return(map[repository.NotificationKey]struct{}{}, nil)

	var created []domain.Notification
	store.On("CreateMany", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).([]domain.Notification)
	}).Return(nil)

	h := NewNotificationCheckHandler(staticStaff{ids: []int64{1, 2}}, staticSnapshot{snap}, store, translator(), testLogger())
	h.now = func() time.Time { return now }

	require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(jobs.TaskTypeNotificationCheck, nil)))

	// overdue: user 2 only; critical stock and ready: both users
	require.Len(t, created, 5)

	byKind := map[string][]domain.Notification{}
	for _, n := range created {
		byKind[n.Type] = append(byKind[n.Type], n)
	}

	require.Len(t, byKind[domain.NotificationOverdue], 1)
	assert.Equal(t, int64(2), byKind[domain.NotificationOverdue][0].UserID)
	assert.Equal(t, "OS #OS0001 - Prazo Vencido", byKind[domain.NotificationOverdue][0].Title)
	assert.Equal(t, domain.PriorityHigh, byKind[domain.NotificationOverdue][0].Priority)

	require.Len(t, byKind[domain.NotificationCriticalStock], 2)
	assert.Equal(t, "Apenas 2 unidades disponíveis (mínimo: 2).", byKind[domain.NotificationCriticalStock][0].Message)

	require.Len(t, byKind[domain.NotificationReady], 2)
	assert.Equal(t, "Aparelho de João está pronto. Cliente deve ser contactado.", byKind[domain.NotificationReady][0].Message)
}

func TestNotificationCheckHandler_NoStaff(t *testing.T) {
	store := new(mockNotifications)
	h := NewNotificationCheckHandler(staticStaff{}, staticSnapshot{&domain.Snapshot{}}, store, translator(), testLogger())

	require.NoError(t, h.ProcessTask(context.Background(), nil))
	store.AssertNotCalled(t, "CreateMany", mock.Anything, mock.Anything)
}
