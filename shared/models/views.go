package models

import "github.com/shopspring/decimal"

// PaymentView is the API projection of a payment. Status is the
// human-readable due label and is empty for paid payments.
type PaymentView struct {
	Payment
	State        PaymentState `json:"state"`
	DaysUntilDue int          `json:"daysUntilDue"`
	Overdue      bool         `json:"overdue"`
	Status       string       `json:"status,omitempty"`
}

// PaymentSummary backs the dashboard totals and analytics panels.
type PaymentSummary struct {
	TotalDue       decimal.Decimal `json:"totalDue"`
	TotalPaid      decimal.Decimal `json:"totalPaid"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	TotalCount     int             `json:"totalCount"`
	ActiveCount    int             `json:"activeCount"`
	PaidCount      int             `json:"paidCount"`
	ArchivedCount  int             `json:"archivedCount"`
	OverdueCount   int             `json:"overdueCount"`
	UpcomingCount  int             `json:"upcomingCount"`
	CompletionRate int             `json:"completionRate"`
}

type NotificationFeed struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
}
