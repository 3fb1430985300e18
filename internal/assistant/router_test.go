package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/oficina-bot/internal/domain"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type completerFunc func(ctx context.Context, prompt string) (string, error)

func (f completerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type failingLookup struct{}

func (failingLookup) Find(context.Context, string, *domain.Snapshot) (*LookupResult, error) {
	return nil, errors.New("lookup exploded")
}

func TestRouter_StartsFlowByIntent(t *testing.T) {
	r := newTestRouter(nil)
	tr := testTranslator()

	testCases := []struct {
		utterance string
		mode      Mode
		reply     string
		hint      string
	}{
		{utterance: "Quero cadastrar cliente novo", mode: ModeCustomer, reply: tr.T("customer.ask_name"), hint: FieldName},
		{utterance: "NOVA OS para o João", mode: ModeWorkOrder, reply: tr.T("work_order.ask_start"), hint: "cliente"},
		{utterance: "add product please", mode: ModeProduct, reply: tr.T("product.ask_start"), hint: "nome"},
		{utterance: "novo cliente e nova os", mode: ModeCustomer, reply: tr.T("customer.ask_name"), hint: FieldName},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.utterance, func(t *testing.T) {
			res := r.Route(context.Background(), tc.utterance, nil, nil)
			require.NotNil(t, res.State)
			assert.Equal(t, tc.mode, res.State.Mode)
			assert.Equal(t, 1, res.State.Step)
			assert.Equal(t, tc.hint, res.State.NextFieldHint)
			assert.Empty(t, res.State.CollectedFields)
			assert.Equal(t, tc.reply, res.Reply)
			assert.Equal(t, KindFlowStarted, res.Data.Kind)
			assert.Nil(t, res.Action)
		})
	}
}

func TestRouter_InFlightFlowTakesPrecedence(t *testing.T) {
	completer := new(mockCompleter)
	r := newTestRouter(completer)

	_, st := drive(t, r, nil, "novo cliente", "Maria Silva")
	require.Equal(t, 2, st.Step)

	res := r.Route(context.Background(), "nova os", st, nil)
	require.NotNil(t, res.State)
	assert.Equal(t, ModeCustomer, res.State.Mode)
	assert.Equal(t, 2, res.State.Step)
	assert.Equal(t, string(ReasonNonNumeric), res.Data.Reason)

	_, st = drive(t, r, nil, "novo cliente")
	res = r.Route(context.Background(), "quanto faturamos?", st, nil)
	assert.Equal(t, ModeCustomer, res.State.Mode)
	assert.Equal(t, "quanto faturamos?", res.State.CollectedFields[FieldName])

	completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestRouter_DoesNotMutatePriorState(t *testing.T) {
	r := newTestRouter(nil)

	_, st := drive(t, r, nil, "novo cliente", "Maria Silva")
	before := st.Clone()

	res := r.Route(context.Background(), "111.222.333-44", st, nil)
	assert.Equal(t, 3, res.State.Step)
	assert.Equal(t, before, st)
}

func TestRouter_StubFlowsEndAfterOneTurn(t *testing.T) {
	r := newTestRouter(nil)
	tr := testTranslator()

	testCases := []struct {
		start string
		key   string
	}{
		{start: "nova os", key: "work_order.unavailable"},
		{start: "novo produto", key: "product.unavailable"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.start, func(t *testing.T) {
			res, st := drive(t, r, nil, tc.start, "Maria Silva")
			assert.Nil(t, st)
			assert.Nil(t, res.Action)
			assert.Equal(t, KindFlowCancelled, res.Data.Kind)
			assert.Equal(t, "unavailable", res.Data.Reason)
			assert.Equal(t, tr.T(tc.key), res.Reply)
		})
	}

	res, st := drive(t, r, nil, "nova os", "cancelar")
	assert.Nil(t, st)
	assert.Equal(t, tr.T("assistant.cancelled"), res.Reply)
}

func TestRouter_FreeFormAnswer(t *testing.T) {
	completer := new(mockCompleter)
	completer.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, `CONSULTA DO USUÁRIO: "Qual o faturamento?"`)
	})).Return("  O faturamento total é R$ 350,00.  ", nil).Once()

	r := newTestRouter(completer)
	delivered := 350.0
	snap := &domain.Snapshot{
		Customers:  []domain.Customer{{ID: 1, Name: "João"}},
		WorkOrders: []domain.WorkOrder{{ID: 1, Number: "#OS0001", CustomerID: 1, Status: domain.WorkOrderDelivered, QuotedValue: &delivered}},
	}

	res := r.Route(context.Background(), "Qual o faturamento?", nil, snap)
	assert.Nil(t, res.State)
	assert.Nil(t, res.Action)
	assert.Equal(t, "O faturamento total é R$ 350,00.", res.Reply)
	assert.Equal(t, KindInformational, res.Data.Kind)
	require.NotNil(t, res.Data.Lookup)
	assert.Equal(t, LookupFinance, res.Data.Lookup.Kind)
	assert.Equal(t, FinanceSummary{Revenue: 350, DeliveredOrders: 1, TotalOrders: 1, TotalCustomers: 1}, res.Data.Lookup.Data)

	completer.AssertExpectations(t)
}

func TestRouter_FreeFormFallback(t *testing.T) {
	tr := testTranslator()

	testCases := []struct {
		name      string
		completer Completer
		lookup    Lookup
	}{
		{
			name:      "no completer",
			completer: nil,
		},
		{
			name: "completion error",
			completer: completerFunc(func(context.Context, string) (string, error) {
				return "", errors.New("503 service unavailable")
			}),
		},
		{
			name: "empty completion",
			completer: completerFunc(func(context.Context, string) (string, error) {
				return "   ", nil
			}),
		},
		{
			name: "completion panics",
			completer: completerFunc(func(context.Context, string) (string, error) {
				panic("boom")
			}),
		},
		{
			name: "lookup error",
			completer: completerFunc(func(context.Context, string) (string, error) {
				return "resposta", nil
			}),
			lookup: failingLookup{},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			r := NewRouter(tr, Options{Completer: tc.completer, Lookup: tc.lookup, Logger: testLogger()})

			res := r.Route(context.Background(), "quantos clientes temos?", nil, nil)
			assert.Nil(t, res.State)
			assert.Nil(t, res.Action)
			assert.Equal(t, KindInformational, res.Data.Kind)
			assert.Equal(t, tr.T("assistant.fallback"), res.Reply)
		})
	}
}

func TestRouter_CompletionTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	completer := completerFunc(func(ctx context.Context, _ string) (string, error) {
		<-release
		return "late", nil
	})

	r := NewRouter(testTranslator(), Options{
		Completer:         completer,
		CompletionTimeout: 20 * time.Millisecond,
		Logger:            testLogger(),
	})

	started := time.Now()
	res := r.Route(context.Background(), "quantos clientes temos?", nil, nil)

	assert.Less(t, time.Since(started), 2*time.Second)
	assert.Nil(t, res.State)
	assert.Equal(t, testTranslator().T("assistant.fallback"), res.Reply)
}

func TestRouter_EmptyUtterance(t *testing.T) {
	completer := new(mockCompleter)
	r := newTestRouter(completer)

	res := r.Route(context.Background(), "   ", nil, nil)
	assert.Nil(t, res.State)
	assert.Equal(t, testTranslator().T("assistant.empty"), res.Reply)
	completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestRouter_RecordsTransitions(t *testing.T) {
	type transition struct {
		mode     Mode
		from, to string
	}
	var got []transition
	RegisterTransitionRecorder(func(mode Mode, from, to string) {
		got = append(got, transition{mode, from, to})
	})
	t.Cleanup(func() { RegisterTransitionRecorder(nil) })

	r := newTestRouter(nil)
	drive(t, r, nil, "novo cliente", "Maria Silva", "abc", "cancelar")

	assert.Equal(t, []transition{
		{ModeCustomer, "idle", FieldName},
		{ModeCustomer, FieldName, FieldTaxID},
		{ModeCustomer, FieldTaxID, FieldTaxID},
		{ModeCustomer, FieldTaxID, string(KindFlowCancelled)},
	}, got)
}

func TestTurnResult_JSON(t *testing.T) {
	r := newTestRouter(nil)

	res, _ := drive(t, r, nil, "novo cliente", "Maria Silva", "111.222.333-44", "11 98888-7777", "sim")
	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Contains(t, decoded, "resposta")
	assert.Nil(t, decoded["estado_conversacional"])
	acao, ok := decoded["acao"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "criar_cliente", acao["tipo"])
	assert.Equal(t, "Maria Silva", acao["dados"].(map[string]any)["nome"])

	start := r.Route(context.Background(), "novo cliente", nil, nil)
	raw, err = json.Marshal(start)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"acao"`)

	var withState struct {
		State ConversationState `json:"estado_conversacional"`
	}
	require.NoError(t, json.Unmarshal(raw, &withState))
	assert.Equal(t, ModeCustomer, withState.State.Mode)
	assert.Equal(t, 1, withState.State.Step)
	assert.Equal(t, []string{FieldName, FieldTaxID, FieldPhone}, withState.State.RequiredFields)

	informational, err := json.Marshal(Payload{Kind: KindInformational})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(informational))

	informational, err = json.Marshal(Payload{Kind: KindInformational, Lookup: &LookupResult{Kind: LookupNotFound, Data: map[string]any{}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tipo":"nao_encontrado","dados":{}}`, string(informational))
}
