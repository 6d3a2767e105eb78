package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/shopspring/decimal"

	"github.com/billbuzz/billbuzz/shared/models"
)

var testNow = time.Date(2024, 12, 20, 9, 0, 0, 0, time.UTC)

type paymentList []models.Payment

func (l paymentList) Payments() []models.Payment { return l }

type recordingNative struct {
	mu     sync.Mutex
	shown  []NativeNotification
	closed []string
	err    error
}

func (r *recordingNative) Show(_ context.Context, n NativeNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.shown = append(r.shown, n)
	return nil
}

func (r *recordingNative) Close(_ context.Context, tag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = append(r.closed, tag)
	return nil
}

func (r *recordingNative) Shown() []NativeNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]NativeNotification(nil), r.shown...)
}

func payment(id, title string, due models.Date, paid bool) models.Payment {
	return models.Payment{
		ID:      id,
		Title:   title,
		DueDate: due,
		Amount:  decimal.NewFromInt(50),
		IsPaid:  paid,
	}
}

func newTestScheduler(payments PaymentSource, perm Permission, native Native) *Scheduler {
	return NewScheduler(payments, NewPermissionStore(perm), native, Options{
		Interval: time.Hour,
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
	})
}

func TestClassify(t *testing.T) {
	c := qt.New(t)
	c.Assert(Classify(-1), qt.Equals, models.NotificationOverdue)
	c.Assert(Classify(0), qt.Equals, models.NotificationDueSoon)
	c.Assert(Classify(3), qt.Equals, models.NotificationDueSoon)
	c.Assert(Classify(4), qt.Equals, models.NotificationReminder)
}

func TestPaymentReminder(t *testing.T) {
	c := qt.New(t)
	today := models.NewDate(2024, time.December, 20)

	c.Run("due today", func(c *qt.C) {
		n := PaymentReminder(payment("1", "Internet Bill", today, false), today, testNow)
		c.Assert(n.Type, qt.Equals, models.NotificationDueSoon)
		c.Assert(n.Title, qt.Equals, "Payment Due Soon!")
		c.Assert(n.Message, qt.Equals, "Internet Bill is due today")
		c.Assert(n.Persistent, qt.IsTrue)
		c.Assert(n.PaymentID, qt.Equals, "1")
	})

	c.Run("overdue", func(c *qt.C) {
		due := models.NewDate(2024, time.December, 15)
		p := payment("3", "Credit Card Payment", due, false)
		c.Assert(p.DaysUntilDue(today), qt.Equals, -5)

		n := PaymentReminder(p, today, testNow)
		c.Assert(n.Type, qt.Equals, models.NotificationOverdue)
		c.Assert(n.Title, qt.Equals, "Payment Overdue!")
		c.Assert(n.Message, qt.Equals, "Credit Card Payment is overdue by 5 days")
		c.Assert(n.ID, qt.Equals, "overdue-3-1734685200000")
	})

	c.Run("reminder", func(c *qt.C) {
		n := PaymentReminder(payment("1", "Electricity Bill", models.NewDate(2024, time.December, 25), false), today, testNow)
		c.Assert(n.Type, qt.Equals, models.NotificationReminder)
		c.Assert(n.Title, qt.Equals, "Payment Reminder")
		c.Assert(n.Message, qt.Equals, "Electricity Bill is due in 5 days")
	})
}

func TestSummaryReminder(t *testing.T) {
	c := qt.New(t)

	n := SummaryReminder(2, 1, testNow)
	c.Assert(n.Title, qt.Equals, "Overdue Payments!")
	c.Assert(n.Message, qt.Equals, "You have 1 overdue payment(s) and 2 total unpaid payments!")
	c.Assert(n.Type, qt.Equals, models.NotificationOverdue)
	c.Assert(n.Persistent, qt.IsFalse)

	n = SummaryReminder(3, 0, testNow)
	c.Assert(n.Title, qt.Equals, "Payment Reminder")
	c.Assert(n.Message, qt.Equals, "You have 3 unpaid payment(s) pending.")
	c.Assert(n.Type, qt.Equals, models.NotificationReminder)
}

func TestPaymentAdded(t *testing.T) {
	c := qt.New(t)
	p := payment("pay-1", "Water", models.NewDate(2024, time.December, 30), false)
	p.Amount = decimal.RequireFromString("42.5")

	n := PaymentAdded(p, models.NewDate(2024, time.December, 20), testNow)
	c.Assert(n.ID, qt.Equals, "new-pay-1")
	c.Assert(n.Title, qt.Equals, "New Payment Added")
	c.Assert(n.Message, qt.Equals, "Water for $42.50 due in 10 days")
	c.Assert(n.Type, qt.Equals, models.NotificationPaymentAdded)
	c.Assert(n.Persistent, qt.IsFalse)
}

func TestFeed(t *testing.T) {
	c := qt.New(t)

	c.Run("newest first and bounded", func(c *qt.C) {
		f := NewFeed(2)
		f.Push(models.Notification{ID: "a"}, models.Notification{ID: "b"})
		f.Push(models.Notification{ID: "c"})
		c.Assert(ids(f.Items()), qt.DeepEquals, []string{"c", "b"})
	})

	c.Run("seed skips known ids", func(c *qt.C) {
		f := NewFeed(10)
		f.Seed(models.Notification{ID: "overdue-1"})
		f.Seed(models.Notification{ID: "overdue-1"}, models.Notification{ID: "overdue-2"})
		c.Assert(ids(f.Items()), qt.DeepEquals, []string{"overdue-2", "overdue-1"})
	})

	c.Run("mark all read", func(c *qt.C) {
		f := NewFeed(10)
		f.Push(models.Notification{ID: "a"}, models.Notification{ID: "b"})
		c.Assert(f.Snapshot().UnreadCount, qt.Equals, 2)
		f.MarkAllRead()
		c.Assert(f.Snapshot().UnreadCount, qt.Equals, 0)
		f.Clear()
		c.Assert(f.Items(), qt.HasLen, 0)
	})

	c.Run("expired non-persistent entries", func(c *qt.C) {
		f := NewFeed(10)
		f.Push(
			models.Notification{ID: "old", Timestamp: testNow.Add(-24 * time.Hour)},
			models.Notification{ID: "old-persistent", Timestamp: testNow.Add(-48 * time.Hour), Persistent: true},
			models.Notification{ID: "fresh", Timestamp: testNow.Add(-23 * time.Hour)},
		)
		c.Assert(f.PruneExpired(testNow, 24*time.Hour), qt.Equals, 1)
		c.Assert(ids(f.Items()), qt.DeepEquals, []string{"fresh", "old-persistent"})
	})

	c.Run("paid payments", func(c *qt.C) {
		f := NewFeed(10)
		f.Push(
			models.Notification{ID: "n1", PaymentID: "1"},
			models.Notification{ID: "n2", PaymentID: "2"},
			models.Notification{ID: "gone", PaymentID: "99"},
			models.Notification{ID: "summary"},
		)
		payments := []models.Payment{{ID: "1", IsPaid: true}, {ID: "2"}}
		c.Assert(f.PruneByPaid(payments), qt.Equals, 1)
		c.Assert(ids(f.Items()), qt.DeepEquals, []string{"summary", "gone", "n2"})
	})
}

func TestSchedulerTick(t *testing.T) {
	c := qt.New(t)
	payments := paymentList{
		payment("1", "Electricity Bill", models.NewDate(2024, time.December, 25), false),
		payment("2", "Credit Card Payment", models.NewDate(2024, time.December, 15), false),
		payment("3", "Old", models.NewDate(2024, time.December, 1), true),
	}

	c.Run("granted", func(c *qt.C) {
		native := &recordingNative{}
		s := newTestScheduler(payments, PermissionGranted, native)

		produced := s.Tick(context.Background())
		c.Assert(produced, qt.HasLen, 3)

		items := s.Feed().Items()
		c.Assert(items, qt.HasLen, 3)
		c.Assert(items[0].Title, qt.Equals, "Overdue Payments!")
		c.Assert(items[1].Type, qt.Equals, models.NotificationOverdue)
		c.Assert(items[2].Type, qt.Equals, models.NotificationReminder)

		tags := []string{}
		for _, n := range native.Shown() {
			tags = append(tags, n.Tag)
		}
		c.Assert(tags, qt.DeepEquals, []string{"payment-1", "payment-2", GeneralTag})
	})

	c.Run("denied keeps the feed only", func(c *qt.C) {
		native := &recordingNative{}
		s := newTestScheduler(payments, PermissionDenied, native)
		s.Tick(context.Background())
		c.Assert(s.Feed().Items(), qt.HasLen, 3)
		c.Assert(native.Shown(), qt.HasLen, 0)
	})

	c.Run("native failures are swallowed", func(c *qt.C) {
		native := &recordingNative{err: errors.New("blocked")}
		s := newTestScheduler(payments, PermissionGranted, native)
		c.Assert(s.Tick(context.Background()), qt.HasLen, 3)
	})

	c.Run("single active payment has no summary", func(c *qt.C) {
		s := newTestScheduler(payments[:1], PermissionGranted, nil)
		c.Assert(s.Tick(context.Background()), qt.HasLen, 1)
	})

	c.Run("expired entries are pruned", func(c *qt.C) {
		s := newTestScheduler(paymentList{}, PermissionGranted, nil)
		s.Feed().Push(models.Notification{ID: "stale", Timestamp: testNow.Add(-25 * time.Hour)})
		s.Tick(context.Background())
		c.Assert(s.Feed().Items(), qt.HasLen, 0)
	})
}

func TestSchedulerPaymentsChanged(t *testing.T) {
	c := qt.New(t)
	overdue := payment("2", "Internet Bill", models.NewDate(2024, time.December, 15), false)
	s := newTestScheduler(paymentList{overdue}, PermissionGranted, nil)
	s.Tick(context.Background())
	c.Assert(s.Feed().Items(), qt.HasLen, 1)

	overdue.IsPaid = true
	s.PaymentsChanged(context.Background(), []models.Payment{overdue})
	c.Assert(s.Feed().Items(), qt.HasLen, 0)
}

func TestSchedulerPaymentAdded(t *testing.T) {
	c := qt.New(t)
	native := &recordingNative{}
	s := newTestScheduler(paymentList{}, PermissionGranted, native)

	p := payment("pay-9", "Gym", models.NewDate(2024, time.December, 27), false)
	s.PaymentAdded(context.Background(), p)

	c.Assert(s.Feed().Items()[0].ID, qt.Equals, "new-pay-9")
	c.Assert(native.Shown(), qt.DeepEquals, []NativeNotification{{
		Title: "Payment Added",
		Body:  "Added: Gym ($50.00)",
		Tag:   "payment-pay-9",
	}})
}

func TestSchedulerLifecycle(t *testing.T) {
	c := qt.New(t)
	payments := paymentList{
		payment("1", "Electricity Bill", models.NewDate(2024, time.December, 25), false),
		payment("2", "Internet Bill", models.NewDate(2024, time.December, 15), false),
	}

	c.Run("seeds overdue and ticks on activation", func(c *qt.C) {
		native := &recordingNative{}
		s := newTestScheduler(payments, PermissionGranted, native)
		s.Start(context.Background())
		defer s.Stop()

		waitFor(c, func() bool { return len(native.Shown()) == 3 })
		c.Assert(s.Running(), qt.IsTrue)
		c.Assert(ids(s.Feed().Items()), qt.Contains, "overdue-2")
	})

	c.Run("stays idle without active payments", func(c *qt.C) {
		s := newTestScheduler(paymentList{}, PermissionGranted, nil)
		s.Start(context.Background())
		s.Stop()
		c.Assert(s.Running(), qt.IsFalse)
		c.Assert(s.Feed().Items(), qt.HasLen, 0)
	})

	c.Run("activates after the permission is granted", func(c *qt.C) {
		perm := NewPermissionStore(PermissionDefault)
		native := &recordingNative{}
		s := NewScheduler(payments, perm, native, Options{
			Interval: time.Hour,
			Location: time.UTC,
			Now:      func() time.Time { return testNow },
		})
		s.Start(context.Background())
		defer s.Stop()

		c.Assert(perm.Set(PermissionGranted), qt.IsNil)
		waitFor(c, func() bool { return len(native.Shown()) == 4 })
		c.Assert(native.Shown()[0].Title, qt.Equals, "Notifications Enabled")
	})

	c.Run("session end clears the feed", func(c *qt.C) {
		s := newTestScheduler(payments, PermissionDenied, nil)
		s.SessionStarted(context.Background(), models.User{ID: "usr-1"})
		c.Assert(s.Feed().Items(), qt.HasLen, 1)
		s.SessionEnded(context.Background())
		c.Assert(s.Feed().Items(), qt.HasLen, 0)
		c.Assert(s.Running(), qt.IsFalse)
	})
}

// countingPayments records how often the ledger is read.
type countingPayments struct {
	mu    sync.Mutex
	reads int
	list  paymentList
}

func (p *countingPayments) Payments() []models.Payment {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reads++
	return p.list
}

func (p *countingPayments) Reads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reads
}

func TestSchedulerConcurrentStart(t *testing.T) {
	c := qt.New(t)
	payments := &countingPayments{list: paymentList{
		payment("1", "Electricity Bill", models.NewDate(2024, time.December, 25), false),
	}}
	s := newTestScheduler(payments, PermissionGranted, nil)

	var wg sync.WaitGroup
	gate := make(chan struct{})
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-gate
			s.Start(context.Background())
		}()
	}
	close(gate)
	wg.Wait()
	s.Stop()
	c.Assert(s.Running(), qt.IsFalse)

	// A loop left behind by a lost restart would still answer wake-ups.
	before := payments.Reads()
	for i := 0; i < 5; i++ {
		s.Wake()
		time.Sleep(10 * time.Millisecond)
	}
	c.Assert(payments.Reads(), qt.Equals, before)
}

func TestPermissionStore(t *testing.T) {
	c := qt.New(t)

	c.Run("request waits for an answer", func(c *qt.C) {
		p := NewPermissionStore(PermissionDefault)
		got := make(chan Permission, 1)
		go func() {
			state, _ := p.Request(context.Background())
			got <- state
		}()
		c.Assert(p.Set(PermissionDenied), qt.IsNil)
		c.Assert(<-got, qt.Equals, PermissionDenied)
	})

	c.Run("request honours cancellation", func(c *qt.C) {
		p := NewPermissionStore(PermissionDefault)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := p.Request(ctx)
		c.Assert(err, qt.ErrorIs, context.Canceled)
	})

	c.Run("rejects unknown states", func(c *qt.C) {
		p := NewPermissionStore(PermissionGranted)
		c.Assert(p.Set("maybe"), qt.ErrorMatches, `unknown notification permission "maybe"`)
		c.Assert(p.State(), qt.Equals, PermissionGranted)
	})

	c.Run("listeners see changes", func(c *qt.C) {
		p := NewPermissionStore(PermissionGranted)
		var seen []Permission
		p.OnChange(func(state Permission) { seen = append(seen, state) })
		c.Assert(p.Set(PermissionGranted), qt.IsNil)
		c.Assert(p.Set(PermissionDenied), qt.IsNil)
		c.Assert(seen, qt.DeepEquals, []Permission{PermissionDenied})
	})
}

func ids(ns []models.Notification) []string {
	out := []string{}
	for _, n := range ns {
		out = append(out, n.ID)
	}
	return out
}

func waitFor(c *qt.C, cond func() bool) {
	c.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			c.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
