package notify

import (
	"fmt"
	"time"

	"github.com/billbuzz/billbuzz/internal/query"
	"github.com/billbuzz/billbuzz/shared/models"
	"github.com/billbuzz/billbuzz/shared/utils"
)

// DueSoonDays is the inclusive upper bound of the dueSoon window.
const DueSoonDays = 3

// Classify maps days-until-due to a notification type.
func Classify(daysUntilDue int) models.NotificationType {
	switch {
	case daysUntilDue < 0:
		return models.NotificationOverdue
	case daysUntilDue <= DueSoonDays:
		return models.NotificationDueSoon
	default:
		return models.NotificationReminder
	}
}

// PaymentReminder builds the persistent per-payment notification for one tick.
func PaymentReminder(p models.Payment, today models.Date, now time.Time) models.Notification {
	days := p.DaysUntilDue(today)
	kind := Classify(days)

	n := models.Notification{
		ID:         fmt.Sprintf("%s-%s-%d", kind, p.ID, now.UnixMilli()),
		Type:       kind,
		PaymentID:  p.ID,
		Timestamp:  now,
		Persistent: true,
	}
	switch kind {
	case models.NotificationOverdue:
		n.Title = "Payment Overdue!"
		n.Message = fmt.Sprintf("%s is overdue by %d days", p.Title, -days)
	case models.NotificationDueSoon:
		n.Title = "Payment Due Soon!"
		if days == 0 {
			n.Message = fmt.Sprintf("%s is due today", p.Title)
		} else {
			n.Message = fmt.Sprintf("%s is due in %d days", p.Title, days)
		}
	default:
		n.Title = "Payment Reminder"
		n.Message = fmt.Sprintf("%s is due in %d days", p.Title, days)
	}
	return n
}

// SummaryReminder describes the whole active set. Only built when more than
// one payment is active.
func SummaryReminder(activeCount, overdueCount int, now time.Time) models.Notification {
	n := models.Notification{
		ID:        fmt.Sprintf("summary-%d", now.UnixMilli()),
		Timestamp: now,
	}
	if overdueCount > 0 {
		n.Title = "Overdue Payments!"
		n.Message = fmt.Sprintf("You have %d overdue payment(s) and %d total unpaid payments!", overdueCount, activeCount)
		n.Type = models.NotificationOverdue
	} else {
		n.Title = "Payment Reminder"
		n.Message = fmt.Sprintf("You have %d unpaid payment(s) pending.", activeCount)
		n.Type = models.NotificationReminder
	}
	return n
}

// Reminders returns everything one tick produces, in push order: one entry
// per active payment, then the summary when more than one is active.
func Reminders(views query.Views, today models.Date, now time.Time) []models.Notification {
	out := make([]models.Notification, 0, len(views.Active)+1)
	for _, p := range views.Active {
		out = append(out, PaymentReminder(p, today, now))
	}
	if len(views.Active) > 1 {
		out = append(out, SummaryReminder(len(views.Active), len(views.Overdue), now))
	}
	return out
}

// OverdueSeed builds the stable-id overdue entries shown when a session starts.
func OverdueSeed(overdue []models.Payment, today models.Date, now time.Time) []models.Notification {
	out := make([]models.Notification, 0, len(overdue))
	for _, p := range overdue {
		out = append(out, models.Notification{
			ID:         "overdue-" + p.ID,
			Title:      "Payment Overdue!",
			Message:    fmt.Sprintf("%s is overdue by %d days", p.Title, -p.DaysUntilDue(today)),
			Type:       models.NotificationOverdue,
			PaymentID:  p.ID,
			Timestamp:  now,
			Persistent: true,
		})
	}
	return out
}

// PaymentAdded is the one-off in-app entry for a freshly created payment.
func PaymentAdded(p models.Payment, today models.Date, now time.Time) models.Notification {
	return models.Notification{
		ID:        "new-" + p.ID,
		Title:     "New Payment Added",
		Message:   fmt.Sprintf("%s for %s due in %d days", p.Title, utils.FormatMoney(p.Amount), p.DaysUntilDue(today)),
		Type:      models.NotificationPaymentAdded,
		PaymentID: p.ID,
		Timestamp: now,
	}
}
