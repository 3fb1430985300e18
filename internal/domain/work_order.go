package domain

import (
	"fmt"
	"time"
)

type WorkOrderStatus string

const (
	WorkOrderWaiting   WorkOrderStatus = "aguardando"
	WorkOrderRepairing WorkOrderStatus = "em_reparo"
	WorkOrderReady     WorkOrderStatus = "pronto"
	WorkOrderDelivered WorkOrderStatus = "entregue"
	WorkOrderCancelled WorkOrderStatus = "cancelado"
)

// WorkOrder is a repair job (ordens_servico) joined with its customer's name.
type WorkOrder struct {
	ID            int64           `json:"id"`
	Number        string          `json:"numeroOS"`
	CustomerID    int64           `json:"clienteId"`
	CustomerName  string          `json:"clienteNome"`
	DeviceType    string          `json:"tipoAparelho"`
	DeviceModel   string          `json:"marcaModelo"`
	Problem       string          `json:"problemaRelatado"`
	Status        WorkOrderStatus `json:"status"`
	Priority      string          `json:"prioridade"`
	QuotedValue   *float64        `json:"valorOrcamento,omitempty"`
	EstimatedDays int             `json:"prazoEstimado"`
	CreatedAt     time.Time       `json:"dataAbertura"`
}

// Open reports whether the device is still waiting for or under repair.
func (wo WorkOrder) Open() bool {
	return wo.Status == WorkOrderWaiting || wo.Status == WorkOrderRepairing
}

// Overdue reports whether an open order has passed its estimated deadline at now.
func (wo WorkOrder) Overdue(now time.Time) bool {
	return wo.Open() && wo.CreatedAt.AddDate(0, 0, wo.EstimatedDays).Before(now)
}

// FormatWorkOrderNumber renders n the way work order numbers are stored, e.g. #OS0005.
func FormatWorkOrderNumber(n int) string {
	return fmt.Sprintf("#OS%04d", n)
}
