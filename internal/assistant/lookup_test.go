package assistant

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/oficina-bot/internal/domain"
)

func lookupSnapshot() *domain.Snapshot {
	value := 120.0
	products := make([]domain.Product, 0, 25)
	for i := 1; i <= 25; i++ {
		products = append(products, domain.Product{ID: int64(i), Name: fmt.Sprintf("Peça %d", i), Quantity: 5, MinStock: 2})
	}
	products[3].Quantity = 1

	return &domain.Snapshot{
		Customers: []domain.Customer{
			{ID: 1, Name: "Ana Souza"},
			{ID: 2, Name: "Bruno Lima"},
		},
		WorkOrders: []domain.WorkOrder{
			{ID: 5, Number: "#OS0005", CustomerID: 2, CustomerName: "Bruno Lima", Status: domain.WorkOrderDelivered, QuotedValue: &value},
			{ID: 6, Number: "#OS0006", CustomerID: 2, CustomerName: "Bruno Lima", Status: domain.WorkOrderRepairing},
		},
		Products: products,
	}
}

func TestRuleLookup(t *testing.T) {
	snap := lookupSnapshot()

	testCases := []struct {
		name     string
		query    string
		expected LookupKind
	}{
		{name: "work order with space", query: "qual o status da OS 5?", expected: LookupWorkOrder},
		{name: "work order hash", query: "e a #OS6", expected: LookupWorkOrder},
		{name: "missing work order falls through", query: "os 99 tem receita?", expected: LookupFinance},
		{name: "customer by name", query: "o que temos da bruno lima", expected: LookupCustomer},
		{name: "finance", query: "Qual o faturamento do mês?", expected: LookupFinance},
		{name: "inventory", query: "como está o estoque?", expected: LookupProducts},
		{name: "nothing", query: "bom dia", expected: LookupNotFound},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			res, err := RuleLookup{}.Find(context.Background(), tc.query, snap)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, res.Kind)
		})
	}
}

func TestRuleLookup_Details(t *testing.T) {
	snap := lookupSnapshot()
	ctx := context.Background()

	res, err := RuleLookup{}.Find(ctx, "os 5", snap)
	require.NoError(t, err)
	assert.Equal(t, "#OS0005", res.Data.(domain.WorkOrder).Number)

	res, err = RuleLookup{}.Find(ctx, "cliente Bruno Lima", snap)
	require.NoError(t, err)
	assert.Len(t, res.RelatedWorkOrders, 2)

	res, err = RuleLookup{}.Find(ctx, "produtos", snap)
	require.NoError(t, err)
	inv := res.Data.(InventorySummary)
	assert.Equal(t, 25, inv.TotalProducts)
	assert.Len(t, inv.Products, maxListedProducts)
	require.Len(t, inv.LowStock, 1)
	assert.Equal(t, "Peça 4", inv.LowStock[0].Name)

	res, err = RuleLookup{}.Find(ctx, "financeiro", nil)
	require.NoError(t, err)
	assert.Equal(t, FinanceSummary{}, res.Data)
}

func TestBuildQueryPrompt(t *testing.T) {
	prompt := BuildQueryPrompt("quantas OS abertas?", lookupSnapshot())

	assert.Contains(t, prompt, "Total: 2 clientes")
	assert.Contains(t, prompt, "Ana Souza (ID: 1)")
	assert.Contains(t, prompt, "#OS0006 - Bruno Lima - em_reparo")
	assert.Contains(t, prompt, "Total: 25 produtos")
	assert.Contains(t, prompt, "Produtos com estoque baixo: 1 itens")
	assert.Contains(t, prompt, "Receitas totais: R$ 120.00")
	assert.Contains(t, prompt, `CONSULTA DO USUÁRIO: "quantas OS abertas?"`)

	empty := BuildQueryPrompt("oi", nil)
	assert.True(t, strings.Contains(empty, "Total: 0 clientes"))
}
