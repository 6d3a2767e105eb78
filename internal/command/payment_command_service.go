package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/billbuzz/billbuzz/internal/repository"
	"github.com/billbuzz/billbuzz/shared/cqrs"
	"github.com/billbuzz/billbuzz/shared/events"
	"github.com/billbuzz/billbuzz/shared/models"
	"github.com/billbuzz/billbuzz/shared/utils"
	"github.com/billbuzz/billbuzz/shared/validation"
)

// EventPublisher appends domain events to a stream. events.Publisher and
// events.NopPublisher both satisfy it.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// PaymentObserver is told about ledger changes after they are committed and
// persisted. Calls happen synchronously on the mutating goroutine.
type PaymentObserver interface {
	PaymentsChanged(ctx context.Context, payments []models.Payment)
	PaymentAdded(ctx context.Context, payment models.Payment)
}

// PaymentCommandService owns every ledger mutation. Mutations addressed to
// an unknown payment id are silent no-ops.
type PaymentCommandService struct {
	repo      *repository.PaymentRepository
	publisher EventPublisher
	observers []PaymentObserver
	now       func() time.Time
}

func NewPaymentCommandService(repo *repository.PaymentRepository, publisher EventPublisher) *PaymentCommandService {
	return &PaymentCommandService{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// Observe registers o for change notifications. Not safe to call once
// requests are being served.
func (s *PaymentCommandService) Observe(o PaymentObserver) {
	s.observers = append(s.observers, o)
}

func (s *PaymentCommandService) AddPayment(ctx context.Context, cmd cqrs.AddPaymentCommand) (*models.Payment, error) {
	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}

	payment := models.Payment{
		ID:          utils.GenerateID("pay"),
		Title:       cmd.Title,
		Description: cmd.Description,
		DueDate:     cmd.DueDate,
		Amount:      cmd.Amount,
		CreatedAt:   s.now().UTC(),
	}
	payments := s.repo.Append(ctx, payment)

	s.publish(ctx, events.PaymentCreated, payment)
	s.changed(ctx, payments)
	for _, o := range s.observers {
		o.PaymentAdded(ctx, payment)
	}
	return &payment, nil
}

// UpdatePayment merges the non-nil fields of cmd into the payment.
func (s *PaymentCommandService) UpdatePayment(ctx context.Context, cmd cqrs.UpdatePaymentCommand) error {
	if err := validateUpdate(cmd); err != nil {
		return err
	}

	updated, payments, ok := s.repo.Modify(ctx, cmd.PaymentID, func(p *models.Payment) {
		if cmd.Title != nil {
			p.Title = *cmd.Title
		}
		if cmd.Description != nil {
			p.Description = *cmd.Description
		}
		if cmd.DueDate != nil {
			p.DueDate = *cmd.DueDate
		}
		if cmd.Amount != nil {
			p.Amount = *cmd.Amount
		}
		if cmd.IsPaid != nil {
			p.IsPaid = *cmd.IsPaid
		}
		if cmd.IsArchived != nil {
			p.IsArchived = *cmd.IsArchived
		}
	})
	if !ok {
		slog.Debug("update for unknown payment ignored", "paymentId", cmd.PaymentID)
		return nil
	}

	s.publish(ctx, events.PaymentUpdated, updated)
	s.changed(ctx, payments)
	return nil
}

func validateUpdate(cmd cqrs.UpdatePaymentCommand) error {
	switch {
	case cmd.Title != nil && *cmd.Title == "":
		return validation.NewError("Title", "required", "This field is required")
	case cmd.DueDate != nil && cmd.DueDate.IsZero():
		return validation.NewError("DueDate", "required", "This field is required")
	case cmd.Amount != nil && cmd.Amount.IsNegative():
		return validation.NewError("Amount", "gte", "Value must be greater than or equal to 0")
	}
	return nil
}

// MarkAsPaid is idempotent.
func (s *PaymentCommandService) MarkAsPaid(ctx context.Context, cmd cqrs.MarkAsPaidCommand) error {
	updated, payments, ok := s.repo.Modify(ctx, cmd.PaymentID, func(p *models.Payment) {
		p.IsPaid = true
	})
	if !ok {
		slog.Debug("mark-paid for unknown payment ignored", "paymentId", cmd.PaymentID)
		return nil
	}

	s.publish(ctx, events.PaymentPaid, updated)
	s.changed(ctx, payments)
	return nil
}

// ArchivePayment archives from any state.
func (s *PaymentCommandService) ArchivePayment(ctx context.Context, cmd cqrs.ArchivePaymentCommand) error {
	updated, payments, ok := s.repo.Modify(ctx, cmd.PaymentID, func(p *models.Payment) {
		p.IsArchived = true
	})
	if !ok {
		slog.Debug("archive for unknown payment ignored", "paymentId", cmd.PaymentID)
		return nil
	}

	s.publish(ctx, events.PaymentArchived, updated)
	s.changed(ctx, payments)
	return nil
}

// DeletePayment removes the payment outright. Callers gate this on the
// archived state; the ledger does not.
func (s *PaymentCommandService) DeletePayment(ctx context.Context, cmd cqrs.DeletePaymentCommand) error {
	removed, payments, ok := s.repo.Delete(ctx, cmd.PaymentID)
	if !ok {
		return nil
	}

	s.publish(ctx, events.PaymentDeleted, removed)
	s.changed(ctx, payments)
	return nil
}

func (s *PaymentCommandService) changed(ctx context.Context, payments []models.Payment) {
	for _, o := range s.observers {
		o.PaymentsChanged(ctx, payments)
	}
}

func (s *PaymentCommandService) publish(ctx context.Context, eventType string, p models.Payment) {
	if err := s.publisher.Publish(ctx, events.PaymentEventsStream, eventType, events.PaymentEvent{
		PaymentID: p.ID,
		Title:     p.Title,
		Amount:    p.Amount.String(),
		DueDate:   p.DueDate.String(),
	}); err != nil {
		slog.Warn("failed to publish payment event", "type", eventType, "err", err)
	}
}
