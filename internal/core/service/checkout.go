package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
)

const DefaultCheckoutDelay = 1500 * time.Millisecond

const (
	msgCartEmpty  = "Your cart is empty!"
	msgProceeding = "Proceeding to checkout..."
	msgThankYou   = "Thank you for your purchase!"
)

// A Checkout is the UI-only checkout transition of one session:
// Idle → Processing → Completed. It creates no order.
//
// The pending completion can be cancelled, which returns it to Idle.
type Checkout struct {
	mu    sync.Mutex
	state domain.CheckoutState
	timer port.Timer
	gen   uint64

	delay      time.Duration
	sched      port.Scheduler
	store      *CartStore
	notifier   plainNotifier
	onComplete func()
}

// NewCheckout creates a Checkout. onComplete runs after the cart is
// cleared and may be nil.
func NewCheckout(
	delay time.Duration,
	sched port.Scheduler,
	store *CartStore,
	notifier plainNotifier,
	onComplete func(),
) *Checkout {
	if delay <= 0 {
		delay = DefaultCheckoutDelay
	}
	return &Checkout{
		delay:      delay,
		sched:      sched,
		store:      store,
		notifier:   notifier,
		onComplete: onComplete,
	}
}

// Start begins checkout and returns the resulting state.
//
// An empty cart only produces a notification. Starting while
// processing is a no-op.
func (c *Checkout) Start(ctx context.Context) domain.CheckoutState {
	const op = "Checkout.Start"

	if c.store.IsEmpty() {
		c.notifier.NotifyPlain(msgCartEmpty)
		return c.State()
	}

	c.mu.Lock()
	if c.state == domain.CheckoutProcessing {
		c.mu.Unlock()
		return domain.CheckoutProcessing
	}
	c.gen++
	gen := c.gen
	c.state = domain.CheckoutProcessing
	bg := context.WithoutCancel(ctx)
	c.timer = c.sched.AfterFunc(c.delay, func() { c.complete(bg, gen) })
	c.mu.Unlock()

	slog.Debug("checkout is processing", "op", op)
	c.notifier.NotifyPlain(msgProceeding)
	return domain.CheckoutProcessing
}

// Cancel stops a pending completion. It reports whether one was pending.
func (c *Checkout) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.CheckoutProcessing {
		return false
	}
	c.timer.Stop()
	c.timer = nil
	c.gen++
	c.state = domain.CheckoutIdle
	return true
}

func (c *Checkout) State() domain.CheckoutState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Checkout) complete(ctx context.Context, gen uint64) {
	const op = "Checkout.complete"

	c.mu.Lock()
	if c.gen != gen || c.state != domain.CheckoutProcessing {
		c.mu.Unlock()
		return
	}
	c.state = domain.CheckoutCompleted
	c.timer = nil
	c.mu.Unlock()

	c.store.completeCheckout(ctx)
	if c.onComplete != nil {
		c.onComplete()
	}
	c.notifier.NotifyPlain(msgThankYou)
	slog.Debug("checkout is completed", "op", op)
}
