package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/xid"

	"github.com/jonah3272/boliviablue/storage/types"
)

// UpdateFn receives the refreshed snapshot of a subscription.
// The context identifies the delivery, pass it to Stop
// when stopping the subscription from within the callback
type UpdateFn func(ctx context.Context, snapshot *types.RateSnapshot)

// Handle identifies an active subscription
type Handle struct {
	id xid.ID
}

// String returns the subscription id
func (h Handle) String() string {
	return h.id.String()
}

// subscription is a single polling consumer
type subscription struct {
	onUpdate UpdateFn
	currency types.Currency
	interval time.Duration
	id       xid.ID

	// sem is held for the duration of a delivery
	sem     chan struct{}
	stopped atomic.Bool
}

// deliveryKey marks the context handed to a running callback
type deliveryKey struct{}

// deliver invokes the callback, unless the subscription is stopped.
// Delivery and stop are serialized, so a stop waits for a running callback
func (s *subscription) deliver(ctx context.Context, snapshot *types.RateSnapshot) bool {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return false
	}

	defer func() {
		<-s.sem
	}()

	if s.stopped.Load() {
		return false
	}

	s.onUpdate(context.WithValue(ctx, deliveryKey{}, s.id), snapshot)

	return true
}

// stop marks the subscription as stopped, and waits for a running delivery.
// A stop issued from the subscription's own callback does not wait,
// the running callback is the last one
func (s *subscription) stop(ctx context.Context) error {
	s.stopped.Store(true)

	if id, ok := ctx.Value(deliveryKey{}).(xid.ID); ok && id == s.id {
		return nil
	}

	select {
	case s.sem <- struct{}{}:
		<-s.sem

		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// scheduledTick is a single scheduled subscription refresh
type scheduledTick struct {
	at time.Time
	id xid.ID
}

// Less is utilized to sort scheduled ticks by their due-time (earliest == first)
func (a scheduledTick) Less(b scheduledTick) bool {
	return a.at.Before(b.at)
}
