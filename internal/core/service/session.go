package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
)

const msgContact = "Thank you for your message, %s!"

type WelcomeConfig struct {
	Enabled bool
	Delay   time.Duration
	Title   string
	Message string
	Icon    string
}

// A Session is what the page glue talks to: one cart, its panel,
// notifications and checkout.
type Session struct {
	ID       string
	Store    *CartStore
	Notifier *Notifier
	Checkout *Checkout

	currency domain.Currency

	mu        sync.Mutex
	panelOpen bool
	welcome   port.Timer
}

// AddToCart parses the storefront price once and adds the product.
func (s *Session) AddToCart(
	ctx context.Context, title, price, imageSrc string,
) (domain.LineItem, error) {
	const op = "Session.AddToCart"

	unitPrice, err := domain.ParseMoney(price, s.currency)
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("%s: %w", op, err)
	}
	li, err := s.Store.Add(ctx, title, unitPrice, imageSrc)
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("%s: %w", op, err)
	}
	return li, nil
}

// TogglePanel flips the cart panel and returns whether it is now open.
// The caller re-renders the panel when it opens.
func (s *Session) TogglePanel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panelOpen = !s.panelOpen
	return s.panelOpen
}

func (s *Session) ClosePanel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panelOpen = false
}

func (s *Session) PanelOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panelOpen
}

// ClearCart cancels a pending checkout before clearing.
func (s *Session) ClearCart(ctx context.Context) {
	s.Checkout.Cancel()
	s.Store.Clear(ctx)
}

func (s *Session) StartCheckout(ctx context.Context) domain.CheckoutState {
	return s.Checkout.Start(ctx)
}

func (s *Session) ChangeQuantity(
	ctx context.Context, title string, delta int,
) (domain.LineItem, bool, error) {
	return s.Store.ChangeQuantity(ctx, title, delta)
}

func (s *Session) ChangeQuantityAt(
	ctx context.Context, index, delta int,
) (domain.LineItem, bool, error) {
	return s.Store.ChangeQuantityAt(ctx, index, delta)
}

func (s *Session) Remove(ctx context.Context, title string) (domain.LineItem, error) {
	return s.Store.Remove(ctx, title)
}

func (s *Session) RemoveAt(ctx context.Context, index int) (domain.LineItem, error) {
	return s.Store.RemoveAt(ctx, index)
}

func (s *Session) ItemCount() int {
	return s.Store.ItemCount()
}

// SubmitContact acknowledges the contact form. Nothing is sent anywhere.
func (s *Session) SubmitContact(name string) string {
	return s.Notifier.NotifyPlain(fmt.Sprintf(msgContact, name))
}

func (s *Session) scheduleWelcome(cfg WelcomeConfig, sched port.Scheduler) {
	if !cfg.Enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.welcome = sched.AfterFunc(cfg.Delay, func() {
		s.Notifier.NotifyRich(cfg.Message, cfg.Title, cfg.Icon)
	})
}

// Close stops the session timers. A pending checkout is cancelled.
func (s *Session) Close() {
	s.mu.Lock()
	if s.welcome != nil {
		s.welcome.Stop()
	}
	s.mu.Unlock()

	s.Checkout.Cancel()
	s.Notifier.Close()
}
