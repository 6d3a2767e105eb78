package notify

import (
	"context"
	"log/slog"

	"github.com/billbuzz/billbuzz/shared/events"
)

// GeneralTag is the tag for notifications not tied to a payment.
const GeneralTag = "general-reminder"

// PaymentTag groups native notifications for one payment.
func PaymentTag(paymentID string) string {
	return "payment-" + paymentID
}

type NativeNotification struct {
	Title string
	Body  string
	Tag   string
}

// Native is the host's notification capability. Implementations must not
// block for long; failures are logged by the caller and never retried.
type Native interface {
	Show(ctx context.Context, n NativeNotification) error
	Close(ctx context.Context, tag string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// StreamNative forwards native notifications to the notification stream,
// where a relay process renders them.
type StreamNative struct {
	publisher EventPublisher
}

func NewStreamNative(publisher EventPublisher) *StreamNative {
	return &StreamNative{publisher: publisher}
}

func (s *StreamNative) Show(ctx context.Context, n NativeNotification) error {
	return s.publisher.Publish(ctx, events.NotificationEventsStream, events.NotificationShown, events.NativeNotificationEvent{
		Title: n.Title,
		Body:  n.Body,
		Tag:   n.Tag,
	})
}

func (s *StreamNative) Close(ctx context.Context, tag string) error {
	return s.publisher.Publish(ctx, events.NotificationEventsStream, events.NotificationClosed, events.NativeNotificationEvent{Tag: tag})
}

// LogNative writes native notifications to the process log.
type LogNative struct {
	Logger *slog.Logger
}

func (l LogNative) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

func (l LogNative) Show(ctx context.Context, n NativeNotification) error {
	l.logger().InfoContext(ctx, "notification", "title", n.Title, "body", n.Body, "tag", n.Tag)
	return nil
}

func (l LogNative) Close(ctx context.Context, tag string) error {
	l.logger().DebugContext(ctx, "notification closed", "tag", tag)
	return nil
}
