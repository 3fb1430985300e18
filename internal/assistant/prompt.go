package assistant

import (
	"fmt"
	"strings"

	"github.com/Proton-105/oficina-bot/internal/domain"
)

const promptSampleSize = 10

// BuildQueryPrompt describes the shop data and asks for a short answer to query.
func BuildQueryPrompt(query string, snap *domain.Snapshot) string {
	var customers, orders []string
	if snap != nil {
		for i, c := range snap.Customers {
			if i == promptSampleSize {
				break
			}
			customers = append(customers, fmt.Sprintf("%s (ID: %d)", c.Name, c.ID))
		}
		for i, wo := range snap.WorkOrders {
			if i == promptSampleSize {
				break
			}
			orders = append(orders, fmt.Sprintf("%s - %s - %s", wo.Number, wo.CustomerName, wo.Status))
		}
	}

	var b strings.Builder
	b.WriteString("Sistema de Assistência Técnica - Dados Disponíveis:\n\n")
	fmt.Fprintf(&b, "CLIENTES:\nTotal: %d clientes\nLista: %s\n\n", snap.TotalCustomers(), strings.Join(customers, ", "))
	fmt.Fprintf(&b, "ORDENS DE SERVIÇO:\nTotal: %d OS\nStatus disponíveis: aguardando, em_reparo, pronto, entregue, cancelado\nExemplos: %s\n\n",
		snap.TotalWorkOrders(), strings.Join(orders, ", "))
	fmt.Fprintf(&b, "PRODUTOS/ESTOQUE:\nTotal: %d produtos\nProdutos com estoque baixo: %d itens\n\n",
		snap.TotalProducts(), len(snap.LowStockProducts()))
	fmt.Fprintf(&b, "FINANCEIRO:\nReceitas totais: R$ %.2f\nOS entregues: %d\n\n", snap.Revenue(), snap.DeliveredWorkOrders())
	fmt.Fprintf(&b, "CONSULTA DO USUÁRIO: %q\n\n", query)
	b.WriteString("Responda apenas com a informação solicitada, baseada somente nos dados acima, em português brasileiro, " +
		"de forma direta e sem formatação markdown. Se a informação não estiver disponível, diga " +
		"\"Não encontrei essa informação nos dados disponíveis.\"")

	return b.String()
}
