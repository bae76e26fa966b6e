package service_test

import (
	"testing"
	"time"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutEnv struct {
	cartStoreEnv
	checkout  *service.Checkout
	completed int
}

func newCheckoutEnv(t *testing.T) *checkoutEnv {
	t.Helper()
	env := &checkoutEnv{cartStoreEnv: newCartStoreEnv(t)}
	env.checkout = service.NewCheckout(
		0, env.sched, env.store, env.notifier, func() { env.completed++ },
	)
	return env
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := newCheckoutEnv(t)

	state := env.checkout.Start(t.Context())
	assert.Equal(t, domain.CheckoutIdle, state)
	assert.Equal(t, "Your cart is empty!", lastMessage(t, env.notifier))
	assert.Equal(t, 1, env.sched.Pending(), "only the notification timer is pending")
}

func TestCheckoutCompletes(t *testing.T) {
	env := newCheckoutEnv(t)
	ctx := t.Context()
	_, err := env.store.Add(ctx, "A", price(t, "500"), "")
	require.NoError(t, err)

	state := env.checkout.Start(ctx)
	assert.Equal(t, domain.CheckoutProcessing, state)
	assert.Equal(t, "Proceeding to checkout...", lastMessage(t, env.notifier))

	env.sched.Advance(service.DefaultCheckoutDelay - time.Millisecond)
	assert.Equal(t, domain.CheckoutProcessing, env.checkout.State())
	assert.False(t, env.store.IsEmpty())

	env.sched.Advance(time.Millisecond)
	assert.Equal(t, domain.CheckoutCompleted, env.checkout.State())
	assert.True(t, env.store.IsEmpty())
	assert.Equal(t, 1, env.completed)
	assert.Equal(t, "Thank you for your purchase!", lastMessage(t, env.notifier))
	assert.Equal(t, domain.CartCheckoutCompleted, env.events.Last().Type)

	loaded, err := env.repo.LoadCart(ctx, testKey)
	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())
}

func TestCheckoutStartWhileProcessing(t *testing.T) {
	env := newCheckoutEnv(t)
	ctx := t.Context()
	_, err := env.store.Add(ctx, "A", price(t, "500"), "")
	require.NoError(t, err)

	env.checkout.Start(ctx)
	env.sched.Advance(time.Second)
	assert.Equal(t, domain.CheckoutProcessing, env.checkout.Start(ctx))

	// the first start still completes on its own schedule
	env.sched.Advance(500 * time.Millisecond)
	assert.Equal(t, domain.CheckoutCompleted, env.checkout.State())
	assert.Equal(t, 1, env.completed)
}

func TestCheckoutCancel(t *testing.T) {
	env := newCheckoutEnv(t)
	ctx := t.Context()
	_, err := env.store.Add(ctx, "A", price(t, "500"), "")
	require.NoError(t, err)

	assert.False(t, env.checkout.Cancel())

	env.checkout.Start(ctx)
	assert.True(t, env.checkout.Cancel())
	assert.Equal(t, domain.CheckoutIdle, env.checkout.State())

	env.sched.Advance(2 * time.Second)
	assert.Equal(t, domain.CheckoutIdle, env.checkout.State())
	assert.False(t, env.store.IsEmpty())
	assert.Zero(t, env.completed)
}

func TestCheckoutRestartAfterCompletion(t *testing.T) {
	env := newCheckoutEnv(t)
	ctx := t.Context()

	_, err := env.store.Add(ctx, "A", price(t, "500"), "")
	require.NoError(t, err)
	env.checkout.Start(ctx)
	env.sched.Advance(service.DefaultCheckoutDelay)
	require.Equal(t, domain.CheckoutCompleted, env.checkout.State())

	_, err = env.store.Add(ctx, "B", price(t, "100"), "")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutProcessing, env.checkout.Start(ctx))
	env.sched.Advance(service.DefaultCheckoutDelay)
	assert.Equal(t, 2, env.completed)
}
