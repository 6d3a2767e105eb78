package events

import "time"

// Event types
const (
	SessionLogin  = "session.login"
	SessionLogout = "session.logout"

	PaymentCreated  = "payment.created"
	PaymentUpdated  = "payment.updated"
	PaymentPaid     = "payment.paid"
	PaymentArchived = "payment.archived"
	PaymentDeleted  = "payment.deleted"

	NotificationShown  = "notification.shown"
	NotificationClosed = "notification.closed"
)

// Stream names
const (
	SessionEventsStream      = "session.events"
	PaymentEventsStream      = "payment.events"
	NotificationEventsStream = "notification.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Session events
type SessionEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
}

// Payment events
type PaymentEvent struct {
	PaymentID string `json:"paymentId"`
	Title     string `json:"title,omitempty"`
	Amount    string `json:"amount,omitempty"`
	DueDate   string `json:"dueDate,omitempty"`
}

// Native notification events. Tag groups notifications the way a browser
// replaces notifications with the same tag.
type NativeNotificationEvent struct {
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
	Tag   string `json:"tag"`
}
