package domain

import "time"

// StaffUser is a shop employee allowed to talk to the assistant.
type StaffUser struct {
	ID         int64
	Username   string
	Name       string
	Email      string
	TelegramID *int64
	Active     bool
	CreatedAt  time.Time
}
