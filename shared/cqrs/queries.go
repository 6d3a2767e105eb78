package cqrs

// ---------- Payment queries ----------

// ListPaymentsQuery selects the full ledger or one derived view
// ("active", "paid", "archived", "overdue", "upcoming"). An empty View
// means every payment.
type ListPaymentsQuery struct {
	View string
}

type GetPaymentQuery struct {
	PaymentID string
}

type PaymentSummaryQuery struct{}

// ---------- Session queries ----------

type CurrentUserQuery struct{}
