package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address,omitempty"`
}

// Payment is a single bill tracked by the ledger. Its lifecycle state is
// derived from IsPaid and IsArchived, never stored.
type Payment struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	DueDate     Date            `json:"dueDate"`
	Amount      decimal.Decimal `json:"amount"`
	IsPaid      bool            `json:"isPaid"`
	IsArchived  bool            `json:"isArchived"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type PaymentState string

const (
	StateActive   PaymentState = "active"
	StatePaid     PaymentState = "paid"
	StateArchived PaymentState = "archived"
)

// State reports the lifecycle state. Archived wins over paid.
func (p Payment) State() PaymentState {
	switch {
	case p.IsArchived:
		return StateArchived
	case p.IsPaid:
		return StatePaid
	default:
		return StateActive
	}
}

// DaysUntilDue counts whole calendar days from today to the due date.
// Negative values mean the payment is overdue.
func (p Payment) DaysUntilDue(today Date) int {
	return p.DueDate.DaysSince(today)
}

type NotificationType string

const (
	NotificationOverdue      NotificationType = "overdue"
	NotificationDueSoon      NotificationType = "dueSoon"
	NotificationReminder     NotificationType = "reminder"
	NotificationPaymentAdded NotificationType = "paymentAdded"
)

// Notification is an in-app feed entry. Never persisted.
type Notification struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Type       NotificationType `json:"type"`
	PaymentID  string           `json:"paymentId,omitempty"`
	Read       bool             `json:"read"`
	Timestamp  time.Time        `json:"timestamp"`
	Persistent bool             `json:"persistent,omitempty"`
}
