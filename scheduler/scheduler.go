package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/sig-0/iq"

	"github.com/jonah3272/boliviablue/metrics"
	"github.com/jonah3272/boliviablue/storage/types"
)

var (
	ErrInvalidSubscription = errors.New("invalid subscription")
	ErrInvalidInterval     = errors.New("invalid interval")
)

// Refresher refreshes the snapshot of a quote currency
type Refresher interface {
	Refresh(ctx context.Context, currency types.Currency) (*types.RateSnapshot, error)
}

// Scheduler is the polling service for rate subscriptions
type Scheduler struct {
	refresher Refresher
	logger    *slog.Logger
	metrics   *metrics.Metrics

	subscriptions sync.Map // xid.ID -> *subscription

	q             iq.Queue[scheduledTick]
	queryInterval time.Duration
	qMux          sync.Mutex

	wakeCh chan struct{}
}

// New creates a new Scheduler instance
func New(refresher Refresher, opts ...Option) *Scheduler {
	s := &Scheduler{
		refresher:     refresher,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		q:             iq.NewQueue[scheduledTick](),
		queryInterval: time.Second, // every second
		wakeCh:        make(chan struct{}, 1),
	}

	// Apply the options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Subscribe starts polling the currency every interval.
// The first refresh is due immediately.
// onUpdate receives every refreshed snapshot, fresh or stale
func (s *Scheduler) Subscribe(
	currency types.Currency,
	interval time.Duration,
	onUpdate UpdateFn,
) (Handle, error) {
	if onUpdate == nil || !currency.IsQuote() {
		return Handle{}, ErrInvalidSubscription
	}

	if interval <= 0 {
		return Handle{}, ErrInvalidInterval
	}

	sub := &subscription{
		id:       xid.New(),
		currency: currency,
		interval: interval,
		onUpdate: onUpdate,
		sem:      make(chan struct{}, 1),
	}

	s.subscriptions.Store(sub.id, sub)
	s.metrics.SubscriptionAdded()

	s.logger.Info(
		"registered new subscription",
		"id", sub.id.String(),
		"currency", currency,
		"interval", interval,
	)

	s.scheduleTick(time.Now().UTC(), sub.id)
	s.wake()

	return Handle{id: sub.id}, nil
}

// Stop cancels the subscription.
// Once Stop returns without error, the subscription's onUpdate is never invoked again,
// even for a refresh that was in flight. Stop waits for a running onUpdate,
// unless ctx is the one handed to that onUpdate. If ctx is done first,
// the running onUpdate is the last one, and ctx's error is returned
func (s *Scheduler) Stop(ctx context.Context, h Handle) error {
	raw, ok := s.subscriptions.LoadAndDelete(h.id)
	if !ok {
		return nil // already stopped
	}

	sub, _ := raw.(*subscription)

	s.metrics.SubscriptionRemoved()

	s.logger.Info(
		"stopped subscription",
		"id", h.id.String(),
		"currency", sub.currency,
	)

	return sub.stop(ctx)
}

// Start starts the scheduler service loop [BLOCKING].
// In-flight refreshes are awaited before returning
func (s *Scheduler) Start(ctx context.Context) error {
	var wg sync.WaitGroup

	ticker := time.NewTicker(s.queryInterval)
	defer ticker.Stop()

	// dispatch fires all ticks that are due
	dispatch := func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				next := s.nextTick()
				if next == nil {
					return // nothing is due
				}

				rawSub, ok := s.subscriptions.Load(next.id)
				if !ok {
					continue // stopped, drop the tick
				}

				sub, _ := rawSub.(*subscription)

				// Fixed cadence, the next tick does not wait on this one
				s.scheduleTick(nextDue(next.at, sub.interval, time.Now().UTC()), sub.id)

				wg.Add(1)

				go func() {
					defer wg.Done()

					s.handleTick(ctx, sub)
				}()
			}
		}
	}

	// Fire the ticks that are due on boot
	dispatch()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()

			s.logger.Info("scheduler service shut down")

			return nil
		case <-ticker.C:
			dispatch()
		case <-s.wakeCh:
			dispatch()
		}
	}
}

// handleTick refreshes the subscription currency, and delivers the result
func (s *Scheduler) handleTick(ctx context.Context, sub *subscription) {
	s.metrics.Tick(sub.currency.String())

	snapshot, err := s.refresher.Refresh(ctx, sub.currency)
	if err != nil {
		if ctx.Err() != nil {
			return // shutting down
		}

		// Nothing well-formed to deliver, wait for the next tick
		s.logger.Error(
			"unable to refresh rate",
			"id", sub.id.String(),
			"currency", sub.currency,
			"err", err,
		)

		return
	}

	if !sub.deliver(ctx, snapshot) {
		s.logger.Debug(
			"dropped update for stopped subscription",
			"id", sub.id.String(),
		)
	}
}

// scheduleTick schedules a new subscription tick
func (s *Scheduler) scheduleTick(at time.Time, id xid.ID) {
	s.qMux.Lock()
	defer s.qMux.Unlock()

	s.q.Push(scheduledTick{
		at: at,
		id: id,
	})
}

// nextTick fetches the next due tick, as of the moment of calling
func (s *Scheduler) nextTick() *scheduledTick {
	s.qMux.Lock()
	defer s.qMux.Unlock()

	now := time.Now().UTC()

	if s.q.Len() == 0 {
		return nil
	}

	// Check if the top element is due
	if s.q.Index(0).at.After(now) {
		return nil
	}

	return s.q.PopFront()
}

// wake signals the service loop that a new tick is queued
func (s *Scheduler) wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// nextDue returns the first tick time after now on the due + k*interval grid.
// Missed ticks are skipped, not bunched up
func nextDue(due time.Time, interval time.Duration, now time.Time) time.Time {
	next := due.Add(interval)

	if next.After(now) {
		return next
	}

	missed := now.Sub(next)/interval + 1

	return next.Add(missed * interval)
}
