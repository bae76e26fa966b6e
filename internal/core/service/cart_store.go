package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
)

const (
	msgAdded   = "%s added to cart!"
	msgRemoved = "%s removed from cart!"
	msgCleared = "Cart has been cleared!"
)

type plainNotifier interface {
	NotifyPlain(message string) string
}

// A CartSnapshot is a consistent read of the cart for rendering.
type CartSnapshot struct {
	Items     []domain.LineItem
	Total     domain.Money
	ItemCount int
}

// CartStoreParams wires a [CartStore]. Events may be nil.
type CartStoreParams struct {
	SessionID  string
	StorageKey string
	Currency   domain.Currency
	Cart       domain.Cart
	Storage    port.CartStorage
	Events     port.CartEventsProducer
	Notifier   plainNotifier
	Clock      port.Clock
}

// A CartStore is the only mutator of one session's cart.
//
// Every mutation is saved before the call returns. Storage and event
// failures are logged and never undo the in-memory change.
type CartStore struct {
	mu       sync.Mutex
	cart     domain.Cart
	p        CartStoreParams
	opPrefix string
}

func NewCartStore(p CartStoreParams) *CartStore {
	return &CartStore{
		cart:     p.Cart,
		p:        p,
		opPrefix: "CartStore",
	}
}

// Add increments the quantity of title or appends it with quantity 1.
func (s *CartStore) Add(
	ctx context.Context, title string, unitPrice domain.Money, imageRef string,
) (domain.LineItem, error) {
	const op = "CartStore.Add"

	if title == "" {
		return domain.LineItem{}, fmt.Errorf("%s: %w", op, domain.ErrInvalidTitle)
	}

	s.mu.Lock()
	li, err := s.cart.Add(title, unitPrice, imageRef)
	if err != nil {
		s.mu.Unlock()
		return domain.LineItem{}, fmt.Errorf("%s: %w", op, err)
	}
	evt := s.eventLocked(domain.CartItemAdded, li)
	s.saveLocked(ctx)
	s.mu.Unlock()

	s.emit(ctx, evt)
	s.p.Notifier.NotifyPlain(fmt.Sprintf(msgAdded, title))
	return li, nil
}

// ChangeQuantity adds delta to the quantity of title.
// A result of zero or less removes the item and reports removed.
func (s *CartStore) ChangeQuantity(
	ctx context.Context, title string, delta int,
) (li domain.LineItem, removed bool, err error) {
	const op = "CartStore.ChangeQuantity"

	s.mu.Lock()
	idx := s.cart.IndexOf(title)
	if idx < 0 {
		s.mu.Unlock()
		return domain.LineItem{}, false, fmt.Errorf("%s: %q: %w", op, title, domain.ErrItemNotFound)
	}
	return s.changeQuantityLocked(ctx, op, idx, delta)
}

// ChangeQuantityAt is ChangeQuantity addressed by position in the last render.
func (s *CartStore) ChangeQuantityAt(
	ctx context.Context, index, delta int,
) (li domain.LineItem, removed bool, err error) {
	const op = "CartStore.ChangeQuantityAt"

	s.mu.Lock()
	return s.changeQuantityLocked(ctx, op, index, delta)
}

// changeQuantityLocked expects s.mu held and releases it.
func (s *CartStore) changeQuantityLocked(
	ctx context.Context, op string, index, delta int,
) (domain.LineItem, bool, error) {
	li, removed, err := s.cart.ChangeQuantityAt(index, delta)
	if err != nil {
		s.mu.Unlock()
		return domain.LineItem{}, false, fmt.Errorf("%s: %w", op, err)
	}

	evtType := domain.CartQuantityChanged
	if removed {
		evtType = domain.CartItemRemoved
		li.Quantity = 0
	}
	evt := s.eventLocked(evtType, li)
	s.saveLocked(ctx)
	s.mu.Unlock()

	s.emit(ctx, evt)
	if removed {
		s.p.Notifier.NotifyPlain(fmt.Sprintf(msgRemoved, li.Title))
	}
	return li, removed, nil
}

// Remove deletes title from the cart.
func (s *CartStore) Remove(ctx context.Context, title string) (domain.LineItem, error) {
	const op = "CartStore.Remove"

	s.mu.Lock()
	idx := s.cart.IndexOf(title)
	if idx < 0 {
		s.mu.Unlock()
		return domain.LineItem{}, fmt.Errorf("%s: %q: %w", op, title, domain.ErrItemNotFound)
	}
	return s.removeLocked(ctx, op, idx)
}

// RemoveAt deletes the item at index, shifting the following items down.
func (s *CartStore) RemoveAt(ctx context.Context, index int) (domain.LineItem, error) {
	const op = "CartStore.RemoveAt"

	s.mu.Lock()
	return s.removeLocked(ctx, op, index)
}

// removeLocked expects s.mu held and releases it.
func (s *CartStore) removeLocked(
	ctx context.Context, op string, index int,
) (domain.LineItem, error) {
	li, err := s.cart.RemoveAt(index)
	if err != nil {
		s.mu.Unlock()
		return domain.LineItem{}, fmt.Errorf("%s: %w", op, err)
	}

	removed := li
	removed.Quantity = 0
	evt := s.eventLocked(domain.CartItemRemoved, removed)
	s.saveLocked(ctx)
	s.mu.Unlock()

	s.emit(ctx, evt)
	s.p.Notifier.NotifyPlain(fmt.Sprintf(msgRemoved, li.Title))
	return li, nil
}

// Clear empties the cart and announces it.
func (s *CartStore) Clear(ctx context.Context) {
	s.clear(ctx, domain.CartCleared)
	s.p.Notifier.NotifyPlain(msgCleared)
}

// completeCheckout empties the cart without the "cleared" notification.
func (s *CartStore) completeCheckout(ctx context.Context) {
	s.clear(ctx, domain.CartCheckoutCompleted)
}

func (s *CartStore) clear(ctx context.Context, evtType domain.CartEventType) {
	s.mu.Lock()
	s.cart.Clear()
	evt := s.eventLocked(evtType, domain.LineItem{})
	s.saveLocked(ctx)
	s.mu.Unlock()

	s.emit(ctx, evt)
}

func (s *CartStore) Total() domain.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total(s.p.Currency)
}

// ItemCount is the badge value: the sum of quantities.
func (s *CartStore) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.ItemCount()
}

func (s *CartStore) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.IsEmpty()
}

func (s *CartStore) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Items()
}

func (s *CartStore) Snapshot() CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CartSnapshot{
		Items:     s.cart.Items(),
		Total:     s.cart.Total(s.p.Currency),
		ItemCount: s.cart.ItemCount(),
	}
}

// saveLocked outlives the caller's context: an applied mutation is
// saved even when the request is gone.
func (s *CartStore) saveLocked(ctx context.Context) {
	const op = "saveCart"

	ctx = context.WithoutCancel(ctx)
	err := s.p.Storage.SaveCart(ctx, s.p.StorageKey, s.cart)
	if err != nil {
		slog.Error(
			"failed to save cart",
			"op", makeOp(s.opPrefix, op),
			"session", s.p.SessionID,
			"err", err,
		)
	}
}

func (s *CartStore) eventLocked(
	t domain.CartEventType, li domain.LineItem,
) domain.CartEvent {
	return domain.CartEvent{
		Type:       t,
		SessionID:  s.p.SessionID,
		Title:      li.Title,
		Quantity:   li.Quantity,
		UnitPrice:  li.UnitPrice,
		CartTotal:  s.cart.Total(s.p.Currency),
		ItemCount:  s.cart.ItemCount(),
		OccurredAt: s.p.Clock.Now(),
	}
}

func (s *CartStore) emit(ctx context.Context, evt domain.CartEvent) {
	const op = "emit"

	if s.p.Events == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := s.p.Events.ProduceCartEvents(ctx, evt); err != nil {
		slog.Warn(
			"failed to produce cart event",
			"op", makeOp(s.opPrefix, op),
			"type", evt.Type,
			"err", err,
		)
	}
}
