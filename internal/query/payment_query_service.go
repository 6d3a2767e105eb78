package query

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billbuzz/billbuzz/internal/repository"
	"github.com/billbuzz/billbuzz/shared/cqrs"
	"github.com/billbuzz/billbuzz/shared/models"
)

var ErrPaymentNotFound = errors.New("payment not found")

// View names accepted by ListPayments.
const (
	ViewAll      = ""
	ViewActive   = "active"
	ViewPaid     = "paid"
	ViewArchived = "archived"
	ViewOverdue  = "overdue"
	ViewUpcoming = "upcoming"
)

// Views partitions a ledger. Active, Paid and Archived cover every payment
// exactly once; Overdue and Upcoming split Active.
type Views struct {
	All      []models.Payment
	Active   []models.Payment
	Paid     []models.Payment
	Archived []models.Payment
	Overdue  []models.Payment
	Upcoming []models.Payment
}

// DeriveViews classifies payments against today. Nothing is cached, so a
// view can never lag a mutation.
func DeriveViews(payments []models.Payment, today models.Date) Views {
	v := Views{All: payments}
	for _, p := range payments {
		switch p.State() {
		case models.StateArchived:
			v.Archived = append(v.Archived, p)
		case models.StatePaid:
			v.Paid = append(v.Paid, p)
		default:
			v.Active = append(v.Active, p)
			if p.DueDate.Before(today) {
				v.Overdue = append(v.Overdue, p)
			} else {
				v.Upcoming = append(v.Upcoming, p)
			}
		}
	}
	return v
}

func (v Views) byName(name string) ([]models.Payment, error) {
	switch name {
	case ViewAll:
		return v.All, nil
	case ViewActive:
		return v.Active, nil
	case ViewPaid:
		return v.Paid, nil
	case ViewArchived:
		return v.Archived, nil
	case ViewOverdue:
		return v.Overdue, nil
	case ViewUpcoming:
		return v.Upcoming, nil
	default:
		return nil, fmt.Errorf("unknown view %q", name)
	}
}

// PaymentQueryService serves derived ledger views.
type PaymentQueryService struct {
	repo *repository.PaymentRepository
	loc  *time.Location
	now  func() time.Time
}

func NewPaymentQueryService(repo *repository.PaymentRepository, loc *time.Location) *PaymentQueryService {
	return &PaymentQueryService{repo: repo, loc: loc, now: time.Now}
}

// WithClock replaces the wall clock. Intended for tests and one-shot runs.
func (s *PaymentQueryService) WithClock(now func() time.Time) *PaymentQueryService {
	s.now = now
	return s
}

// Today is the current calendar date in the configured location.
func (s *PaymentQueryService) Today() models.Date {
	return models.Today(s.now(), s.loc)
}

func (s *PaymentQueryService) Payments() []models.Payment {
	return s.repo.All()
}

func (s *PaymentQueryService) Views() Views {
	return DeriveViews(s.repo.All(), s.Today())
}

func (s *PaymentQueryService) ListPayments(q cqrs.ListPaymentsQuery) ([]models.PaymentView, error) {
	today := s.Today()
	payments, err := DeriveViews(s.repo.All(), today).byName(q.View)
	if err != nil {
		return nil, err
	}
	out := make([]models.PaymentView, 0, len(payments))
	for _, p := range payments {
		out = append(out, ToView(p, today))
	}
	return out, nil
}

func (s *PaymentQueryService) GetPayment(q cqrs.GetPaymentQuery) (*models.PaymentView, error) {
	p, ok := s.repo.GetByID(q.PaymentID)
	if !ok {
		return nil, ErrPaymentNotFound
	}
	view := ToView(p, s.Today())
	return &view, nil
}

func (s *PaymentQueryService) Summary(cqrs.PaymentSummaryQuery) models.PaymentSummary {
	return Summarize(s.Views())
}

// Summarize computes dashboard totals from a set of views.
func Summarize(v Views) models.PaymentSummary {
	totalDue := sum(v.Active)
	totalPaid := sum(v.Paid)
	summary := models.PaymentSummary{
		TotalDue:      totalDue,
		TotalPaid:     totalPaid,
		TotalAmount:   totalDue.Add(totalPaid),
		TotalCount:    len(v.All),
		ActiveCount:   len(v.Active),
		PaidCount:     len(v.Paid),
		ArchivedCount: len(v.Archived),
		OverdueCount:  len(v.Overdue),
		UpcomingCount: len(v.Upcoming),
	}
	if len(v.All) > 0 {
		summary.CompletionRate = int(math.Round(float64(len(v.Paid)) / float64(len(v.All)) * 100))
	}
	return summary
}

func sum(payments []models.Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}

// ToView projects p for the API. Only active payments can be overdue or
// carry a due-status label, matching the overdue view.
func ToView(p models.Payment, today models.Date) models.PaymentView {
	days := p.DaysUntilDue(today)
	active := p.State() == models.StateActive
	view := models.PaymentView{
		Payment:      p,
		State:        p.State(),
		DaysUntilDue: days,
		Overdue:      active && days < 0,
	}
	if active {
		view.Status = StatusLabel(days)
	}
	return view
}

// StatusLabel renders the due label shown on a payment card.
func StatusLabel(daysUntilDue int) string {
	switch {
	case daysUntilDue < 0:
		return fmt.Sprintf("%d days overdue", -daysUntilDue)
	case daysUntilDue == 0:
		return "Due today"
	default:
		return fmt.Sprintf("%d days left", daysUntilDue)
	}
}
