package repository

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billbuzz/billbuzz/internal/storage"
	"github.com/billbuzz/billbuzz/shared/models"
)

const paymentsKey = "payments"

// PaymentRepository is the in-memory payment list, written through to the
// store under the "payments" key after every mutation. Writes are
// last-writer-wins across processes.
type PaymentRepository struct {
	mu       sync.RWMutex
	payments []models.Payment
	blob     *storage.Blob[[]models.Payment]
}

func NewPaymentRepository(store storage.Store) *PaymentRepository {
	return &PaymentRepository{blob: storage.NewBlob[[]models.Payment](store, paymentsKey)}
}

// Load reads the persisted list. An absent or undecodable blob is replaced
// by the example payments, which are then persisted. When the store cannot
// be read the example payments are used in memory only and nothing is
// written until the next mutation.
func (r *PaymentRepository) Load(ctx context.Context, now time.Time) {
	payments, ok, err := r.blob.Load(ctx)
	if err != nil {
		slog.Warn("payments unreadable, using example payments without saving", "err", err)
	}
	if ok && *payments != nil {
		r.mu.Lock()
		r.payments = *payments
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = SeedPayments(now)
	if err == nil {
		r.persistLocked(ctx, r.snapshotLocked())
	}
}

// SeedPayments returns the example ledger used on first start.
func SeedPayments(now time.Time) []models.Payment {
	created := now.UTC()
	return []models.Payment{
		{
			ID:          "1",
			Title:       "Electricity Bill",
			Description: "Monthly electricity payment",
			DueDate:     models.NewDate(2024, time.December, 25),
			Amount:      decimal.NewFromInt(150),
			CreatedAt:   created,
		},
		{
			ID:          "2",
			Title:       "Internet Bill",
			Description: "Monthly internet subscription",
			DueDate:     models.NewDate(2024, time.December, 20),
			Amount:      decimal.NewFromInt(50),
			CreatedAt:   created,
		},
		{
			ID:          "3",
			Title:       "Credit Card Payment",
			Description: "Monthly credit card payment",
			DueDate:     models.NewDate(2024, time.December, 15),
			Amount:      decimal.NewFromInt(200),
			IsPaid:      true,
			CreatedAt:   created,
		},
	}
}

// All returns a copy of every payment in insertion order.
func (r *PaymentRepository) All() []models.Payment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *PaymentRepository) GetByID(id string) (models.Payment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.payments {
		if p.ID == id {
			return p, true
		}
	}
	return models.Payment{}, false
}

// Append adds p and returns the resulting list.
func (r *PaymentRepository) Append(ctx context.Context, p models.Payment) []models.Payment {
	r.mu.Lock()
	r.payments = append(r.payments, p)
	snapshot := r.snapshotLocked()
	r.persistLocked(ctx, snapshot)
	r.mu.Unlock()
	return snapshot
}

// Modify applies fn to the payment with the given id. It reports false and
// writes nothing when the id is unknown.
func (r *PaymentRepository) Modify(ctx context.Context, id string, fn func(*models.Payment)) (models.Payment, []models.Payment, bool) {
	r.mu.Lock()
	idx := r.indexLocked(id)
	if idx < 0 {
		r.mu.Unlock()
		return models.Payment{}, nil, false
	}
	fn(&r.payments[idx])
	updated := r.payments[idx]
	snapshot := r.snapshotLocked()
	r.persistLocked(ctx, snapshot)
	r.mu.Unlock()
	return updated, snapshot, true
}

// Delete removes the payment with the given id. It reports false and writes
// nothing when the id is unknown.
func (r *PaymentRepository) Delete(ctx context.Context, id string) (models.Payment, []models.Payment, bool) {
	r.mu.Lock()
	idx := r.indexLocked(id)
	if idx < 0 {
		r.mu.Unlock()
		return models.Payment{}, nil, false
	}
	removed := r.payments[idx]
	r.payments = append(r.payments[:idx], r.payments[idx+1:]...)
	snapshot := r.snapshotLocked()
	r.persistLocked(ctx, snapshot)
	r.mu.Unlock()
	return removed, snapshot, true
}

func (r *PaymentRepository) indexLocked(id string) int {
	for i := range r.payments {
		if r.payments[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *PaymentRepository) snapshotLocked() []models.Payment {
	out := make([]models.Payment, len(r.payments))
	copy(out, r.payments)
	return out
}

// persistLocked writes under r.mu so the store never sees writes out of order.
func (r *PaymentRepository) persistLocked(ctx context.Context, payments []models.Payment) {
	if err := r.blob.Save(ctx, &payments); err != nil {
		slog.Warn("failed to persist payments", "err", err)
	}
}
