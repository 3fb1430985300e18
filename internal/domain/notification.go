package domain

import "time"

const (
	NotificationCustomerCreated = "cliente_novo"
	NotificationOverdue         = "os_atrasada"
	NotificationCriticalStock   = "estoque_critico"
	NotificationReady           = "os_pronta"

	PriorityLow    = "baixa"
	PriorityNormal = "normal"
	PriorityHigh   = "alta"
)

// Notification is a row of notificacoes addressed to one staff user.
type Notification struct {
	ID        int64
	UserID    int64
	Type      string
	Title     string
	Message   string
	Reference map[string]any
	Priority  string
	Read      bool
	CreatedAt time.Time
}
