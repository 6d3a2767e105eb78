package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/billbuzz/billbuzz/internal/query"
	"github.com/billbuzz/billbuzz/shared/models"
	"github.com/billbuzz/billbuzz/shared/utils"
)

// PaymentSource supplies the current ledger contents.
type PaymentSource interface {
	Payments() []models.Payment
}

type Options struct {
	Interval     time.Duration
	DismissAfter time.Duration
	MaxAge       time.Duration
	FeedSize     int
	Location     *time.Location
	Now          func() time.Time
}

func (o *Options) withDefaults() {
	if o.Interval <= 0 {
		o.Interval = 5 * time.Minute
	}
	if o.MaxAge <= 0 {
		o.MaxAge = 24 * time.Hour
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Scheduler keeps the notification feed current while a session is open.
// It ticks on a fixed interval only while permission is granted and at least
// one payment is active. Every tick prunes paid entries, then expired
// entries, then classifies the active payments.
type Scheduler struct {
	payments PaymentSource
	perm     PermissionSource
	native   Native
	feed     *Feed
	opts     Options

	// lifecycle serializes Start and Stop so concurrent restarts never
	// orphan a run loop.
	lifecycle sync.Mutex

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	wake    chan struct{}
	timers  map[*time.Timer]struct{}
	running bool
}

// NewScheduler wires the scheduler. perm and native may be nil when the
// host has no notification capability.
func NewScheduler(payments PaymentSource, perm PermissionSource, native Native, opts Options) *Scheduler {
	opts.withDefaults()
	return &Scheduler{
		payments: payments,
		perm:     perm,
		native:   native,
		feed:     NewFeed(opts.FeedSize),
		opts:     opts,
		wake:     make(chan struct{}, 1),
		timers:   make(map[*time.Timer]struct{}),
	}
}

func (s *Scheduler) Feed() *Feed {
	return s.feed
}

func (s *Scheduler) today(now time.Time) models.Date {
	return models.Today(now, s.opts.Location)
}

func (s *Scheduler) granted() bool {
	return s.perm != nil && s.perm.State() == PermissionGranted
}

// Start begins the session loop. Calling Start on a started scheduler
// restarts it.
func (s *Scheduler) Start(ctx context.Context) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.stop()

	now := s.opts.Now()
	today := s.today(now)
	views := query.DeriveViews(s.payments.Payments(), today)
	s.feed.Seed(OverdueSeed(views.Overdue, today, now)...)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go s.run(runCtx, done)
	if s.perm != nil && s.perm.State() == PermissionDefault {
		go s.requestPermission(runCtx)
	}
}

// Stop ends the loop and cancels pending auto-dismiss timers.
func (s *Scheduler) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.stop()
}

func (s *Scheduler) stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	s.mu.Lock()
	for t := range s.timers {
		t.Stop()
		delete(s.timers, t)
	}
	s.mu.Unlock()
}

// Running reports whether the periodic ticker is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Wake asks the loop to re-check its activation condition.
func (s *Scheduler) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) shouldRun() bool {
	if !s.granted() {
		return false
	}
	views := query.DeriveViews(s.payments.Payments(), s.today(s.opts.Now()))
	return len(views.Active) > 0
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	var ticker *time.Ticker
	var tick <-chan time.Time
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
		s.setRunning(false)
	}
	defer stopTicker()

	evaluate := func() {
		if !s.shouldRun() {
			stopTicker()
			return
		}
		if ticker == nil {
			s.setRunning(true)
			s.Tick(ctx)
			ticker = time.NewTicker(s.opts.Interval)
			tick = ticker.C
		}
	}

	evaluate()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			evaluate()
		case <-tick:
			s.Tick(ctx)
		}
	}
}

func (s *Scheduler) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

func (s *Scheduler) requestPermission(ctx context.Context) {
	state, err := s.perm.Request(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("Notification permission request failed", "error", err)
		}
		return
	}
	if state == PermissionGranted {
		s.dispatch(ctx, NativeNotification{
			Title: "Notifications Enabled",
			Body:  "You will now receive payment reminders",
			Tag:   GeneralTag,
		})
	}
	s.Wake()
}

// Tick runs one reminder pass and returns the notifications it produced.
func (s *Scheduler) Tick(ctx context.Context) []models.Notification {
	now := s.opts.Now()
	today := s.today(now)
	payments := s.payments.Payments()

	s.feed.PruneByPaid(payments)
	s.feed.PruneExpired(now, s.opts.MaxAge)

	views := query.DeriveViews(payments, today)
	produced := Reminders(views, today, now)
	for _, n := range produced {
		s.feed.Push(n)
		tag := GeneralTag
		if n.PaymentID != "" {
			tag = PaymentTag(n.PaymentID)
		}
		s.dispatch(ctx, NativeNotification{Title: n.Title, Body: n.Message, Tag: tag})
	}
	return produced
}

// dispatch shows a native notification when permission is granted at the
// moment of the call. Failures are logged and dropped.
func (s *Scheduler) dispatch(ctx context.Context, n NativeNotification) {
	if s.native == nil || ctx.Err() != nil || !s.granted() {
		return
	}
	if err := s.native.Show(ctx, n); err != nil {
		slog.Warn("Failed to show notification", "tag", n.Tag, "error", err)
		return
	}
	if s.opts.DismissAfter > 0 {
		s.scheduleDismiss(n.Tag)
	}
}

func (s *Scheduler) scheduleDismiss(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var t *time.Timer
	t = time.AfterFunc(s.opts.DismissAfter, func() {
		s.mu.Lock()
		_, live := s.timers[t]
		delete(s.timers, t)
		s.mu.Unlock()
		if !live {
			return
		}
		if err := s.native.Close(context.Background(), tag); err != nil {
			slog.Warn("Failed to close notification", "tag", tag, "error", err)
		}
	})
	s.timers[t] = struct{}{}
}

// PaymentsChanged prunes entries for payments that just became paid, before
// any tick can run, and re-checks activation.
func (s *Scheduler) PaymentsChanged(_ context.Context, payments []models.Payment) {
	s.feed.PruneByPaid(payments)
	s.Wake()
}

// PaymentAdded announces a new payment in the feed and natively.
func (s *Scheduler) PaymentAdded(ctx context.Context, p models.Payment) {
	now := s.opts.Now()
	s.feed.Push(PaymentAdded(p, s.today(now), now))
	s.dispatch(ctx, NativeNotification{
		Title: "Payment Added",
		Body:  "Added: " + p.Title + " (" + utils.FormatMoney(p.Amount) + ")",
		Tag:   PaymentTag(p.ID),
	})
}

// SessionStarted starts the loop detached from the request that opened the
// session.
func (s *Scheduler) SessionStarted(ctx context.Context, _ models.User) {
	s.Start(context.WithoutCancel(ctx))
}

// SessionEnded stops the loop and drops the session's feed.
func (s *Scheduler) SessionEnded(context.Context) {
	s.Stop()
	s.feed.Clear()
}
