package cqrs

import (
	"github.com/shopspring/decimal"

	"github.com/billbuzz/billbuzz/shared/models"
)

type LoginCommand struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

type SignupCommand struct {
	Name     string `validate:"required"`
	Email    string `validate:"required"`
	Address  string
	Password string `validate:"required"`
}

type AddPaymentCommand struct {
	Title       string `validate:"required"`
	Description string
	DueDate     models.Date     `validate:"required"`
	Amount      decimal.Decimal `validate:"gte=0"`
}

// UpdatePaymentCommand carries a partial update. Nil fields are left
// unchanged; the field set is bounded to the creation fields plus the
// status flags.
type UpdatePaymentCommand struct {
	PaymentID   string
	Title       *string
	Description *string
	DueDate     *models.Date
	Amount      *decimal.Decimal
	IsPaid      *bool
	IsArchived  *bool
}

type MarkAsPaidCommand struct {
	PaymentID string
}

type ArchivePaymentCommand struct {
	PaymentID string
}

type DeletePaymentCommand struct {
	PaymentID string
}
