package domain

import "time"

type CartEventType string

const (
	CartItemAdded         CartEventType = "added"
	CartQuantityChanged   CartEventType = "quantity_changed"
	CartItemRemoved       CartEventType = "removed"
	CartCleared           CartEventType = "cleared"
	CartCheckoutCompleted CartEventType = "checkout_completed"
)

// A CartEvent describes one applied cart mutation.
//
// Title, Quantity and UnitPrice are empty for cart-wide events
// (cleared, checkout_completed).
type CartEvent struct {
	Type       CartEventType
	SessionID  string
	Title      string
	Quantity   int
	UnitPrice  Money
	CartTotal  Money
	ItemCount  int
	OccurredAt time.Time
}
