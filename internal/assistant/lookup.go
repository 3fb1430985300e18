package assistant

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/Proton-105/oficina-bot/internal/domain"
)

// LookupKind names the kind of record a lookup matched.
type LookupKind string

const (
	LookupWorkOrder LookupKind = "os"
	LookupCustomer  LookupKind = "cliente"
	LookupFinance   LookupKind = "financeiro"
	LookupProducts  LookupKind = "produtos"
	LookupNotFound  LookupKind = "nao_encontrado"
)

// LookupResult is the structured data shown next to a free-form answer.
type LookupResult struct {
	Kind              LookupKind         `json:"tipo"`
	Data              any                `json:"dados"`
	RelatedWorkOrders []domain.WorkOrder `json:"os_relacionadas,omitempty"`
}

type FinanceSummary struct {
	Revenue         float64 `json:"receitas_totais"`
	DeliveredOrders int     `json:"os_entregues"`
	TotalOrders     int     `json:"total_os"`
	TotalCustomers  int     `json:"total_clientes"`
}

type InventorySummary struct {
	TotalProducts int              `json:"total_produtos"`
	LowStock      []domain.Product `json:"baixo_estoque"`
	Products      []domain.Product `json:"todos_produtos"`
}

// Lookup finds the record an utterance refers to.
type Lookup interface {
	Find(ctx context.Context, utterance string, snap *domain.Snapshot) (*LookupResult, error)
}

const maxListedProducts = 20

var (
	workOrderNumberPattern = regexp.MustCompile(`os\s*(\d+)|#os(\d+)`)
	financeKeywords        = []string{"receita", "faturamento", "venda", "financeiro"}
	productKeywords        = []string{"produto", "estoque", "inventario", "inventário"}
)

// RuleLookup matches, in order: a work order number, a customer name,
// finance keywords, inventory keywords.
type RuleLookup struct{}

func (RuleLookup) Find(_ context.Context, utterance string, snap *domain.Snapshot) (*LookupResult, error) {
	lowered := strings.ToLower(utterance)

	if snap != nil {
		if wo, ok := findWorkOrder(lowered, snap.WorkOrders); ok {
			return &LookupResult{Kind: LookupWorkOrder, Data: wo}, nil
		}

		for _, c := range snap.Customers {
			if c.Name != "" && strings.Contains(lowered, strings.ToLower(c.Name)) {
				return &LookupResult{
					Kind:              LookupCustomer,
					Data:              c,
					RelatedWorkOrders: snap.WorkOrdersFor(c.ID),
				}, nil
			}
		}
	}

	if containsAny(lowered, financeKeywords...) {
		return &LookupResult{
			Kind: LookupFinance,
			Data: FinanceSummary{
				Revenue:         snap.Revenue(),
				DeliveredOrders: snap.DeliveredWorkOrders(),
				TotalOrders:     snap.TotalWorkOrders(),
				TotalCustomers:  snap.TotalCustomers(),
			},
		}, nil
	}

	if containsAny(lowered, productKeywords...) {
		summary := InventorySummary{
			TotalProducts: snap.TotalProducts(),
			LowStock:      snap.LowStockProducts(),
		}
		if snap != nil {
			summary.Products = snap.Products
			if len(summary.Products) > maxListedProducts {
				summary.Products = summary.Products[:maxListedProducts]
			}
		}
		return &LookupResult{Kind: LookupProducts, Data: summary}, nil
	}

	return &LookupResult{Kind: LookupNotFound, Data: map[string]any{}}, nil
}

func findWorkOrder(lowered string, orders []domain.WorkOrder) (domain.WorkOrder, bool) {
	m := workOrderNumberPattern.FindStringSubmatch(lowered)
	if m == nil {
		return domain.WorkOrder{}, false
	}

	digits := m[1]
	if digits == "" {
		digits = m[2]
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return domain.WorkOrder{}, false
	}

	number := domain.FormatWorkOrderNumber(n)
	for _, wo := range orders {
		if wo.Number == number {
			return wo, true
		}
	}
	return domain.WorkOrder{}, false
}
