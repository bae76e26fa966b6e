package domain

import (
	"fmt"
	"unicode/utf8"
)

// Cart limits. With [MaxPriceMinor] they keep every total within int64.
const (
	MaxQuantity    = 10_000
	MaxLineItems   = 1_000
	MaxTitleLen    = 200
	MaxImageRefLen = 2048
)

type LineItem struct {
	Title     string
	UnitPrice Money
	ImageRef  string
	Quantity  int
}

// Subtotal is UnitPrice × Quantity.
func (li LineItem) Subtotal() Money {
	return li.UnitPrice.Mul(li.Quantity)
}

// A Cart is an ordered sequence of line items keyed by title.
//
// New items are appended, existing items are updated in place and
// an item whose quantity drops to zero is removed.
// The zero value is an empty cart.
type Cart struct {
	items []LineItem
}

// NewCart builds a cart from items, rejecting sequences
// that break the title or quantity invariants.
func NewCart(items []LineItem) (Cart, error) {
	const op = "domain.NewCart"

	if len(items) > MaxLineItems {
		return Cart{}, fmt.Errorf("%s: %d items: %w", op, len(items), ErrCartFull)
	}

	seen := make(map[string]struct{}, len(items))
	c := Cart{items: make([]LineItem, 0, len(items))}
	for i, it := range items {
		if err := validateItem(it.Title, it.UnitPrice, it.ImageRef); err != nil {
			return Cart{}, fmt.Errorf("%s: item %d: %w", op, i, err)
		}
		if _, ok := seen[it.Title]; ok {
			return Cart{}, fmt.Errorf("%s: duplicate title %q: %w", op, it.Title, ErrInvalidTitle)
		}
		if it.Quantity < 1 {
			return Cart{}, fmt.Errorf("%s: item %q has quantity %d", op, it.Title, it.Quantity)
		}
		if it.Quantity > MaxQuantity {
			return Cart{}, fmt.Errorf("%s: item %q: %w", op, it.Title, ErrQuantityLimit)
		}
		seen[it.Title] = struct{}{}
		c.items = append(c.items, it)
	}
	return c, nil
}

func validateItem(title string, unitPrice Money, imageRef string) error {
	if title == "" || utf8.RuneCountInString(title) > MaxTitleLen {
		return ErrInvalidTitle
	}
	if !unitPrice.Valid() {
		return ErrInvalidPrice
	}
	if len(imageRef) > MaxImageRefLen {
		return ErrInvalidImageRef
	}
	return nil
}

// Add increments the quantity of an existing title or appends a new item.
// It returns the resulting line item. A failed Add leaves the cart as is.
func (c *Cart) Add(title string, unitPrice Money, imageRef string) (LineItem, error) {
	if i := c.IndexOf(title); i >= 0 {
		if c.items[i].Quantity >= MaxQuantity {
			return LineItem{}, fmt.Errorf("%q: %w", title, ErrQuantityLimit)
		}
		c.items[i].Quantity++
		return c.items[i], nil
	}
	if err := validateItem(title, unitPrice, imageRef); err != nil {
		return LineItem{}, fmt.Errorf("%q: %w", title, err)
	}
	if len(c.items) >= MaxLineItems {
		return LineItem{}, ErrCartFull
	}
	li := LineItem{
		Title:     title,
		UnitPrice: unitPrice,
		ImageRef:  imageRef,
		Quantity:  1,
	}
	c.items = append(c.items, li)
	return li, nil
}

// ChangeQuantityAt adds delta to the item at index.
// When the result is not positive the item is removed and removed is true.
func (c *Cart) ChangeQuantityAt(index, delta int) (li LineItem, removed bool, err error) {
	if !c.inRange(index) {
		return LineItem{}, false, fmt.Errorf("index %d of %d: %w", index, len(c.items), ErrIndexOutOfRange)
	}
	if delta <= -c.items[index].Quantity {
		li, err = c.RemoveAt(index)
		return li, true, err
	}
	if delta > MaxQuantity-c.items[index].Quantity {
		return LineItem{}, false, fmt.Errorf("%q: %w", c.items[index].Title, ErrQuantityLimit)
	}
	c.items[index].Quantity += delta
	return c.items[index], false, nil
}

// RemoveAt deletes the item at index, shifting the following items down.
func (c *Cart) RemoveAt(index int) (LineItem, error) {
	if !c.inRange(index) {
		return LineItem{}, fmt.Errorf("index %d of %d: %w", index, len(c.items), ErrIndexOutOfRange)
	}
	li := c.items[index]
	c.items = append(c.items[:index], c.items[index+1:]...)
	return li, nil
}

func (c *Cart) Clear() {
	c.items = nil
}

// IndexOf returns the position of title or -1.
func (c Cart) IndexOf(title string) int {
	for i := range c.items {
		if c.items[i].Title == title {
			return i
		}
	}
	return -1
}

// Items returns a copy of the sequence.
func (c Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c Cart) Len() int {
	return len(c.items)
}

func (c Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// ItemCount is the sum of quantities, not the number of distinct items.
func (c Cart) ItemCount() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c Cart) Total(cur Currency) Money {
	total := Zero(cur)
	for _, it := range c.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (c Cart) inRange(index int) bool {
	return index >= 0 && index < len(c.items)
}
