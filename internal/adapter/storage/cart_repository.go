package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
)

var _ port.CartStorage = (*CartRepository)(nil)

// lineItem is the persisted element layout shared with the storefront page.
type lineItem struct {
	Title    string `json:"title"`
	Price    string `json:"price"`
	ImageSrc string `json:"imageSrc"`
	Quantity int    `json:"quantity"`
}

// A CartRepository stores a cart as a JSON array under one key.
type CartRepository struct {
	kv       KV
	currency domain.Currency
}

func NewCartRepository(kv KV, currency domain.Currency) CartRepository {
	return CartRepository{kv: kv, currency: currency}
}

// LoadCart returns the cart at key.
//
// A missing or malformed value yields an empty cart and no error;
// only backend failures are returned.
func (r CartRepository) LoadCart(ctx context.Context, key string) (domain.Cart, error) {
	const op = "CartRepository.LoadCart"
	log := slog.With("op", op, "key", key)

	raw, err := r.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.Cart{}, nil
		}
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}

	cart, err := r.decode(raw)
	if err != nil {
		log.Warn("discarding malformed cart", "err", err)
		return domain.Cart{}, nil
	}
	return cart, nil
}

// SaveCart overwrites the value at key with the whole sequence.
func (r CartRepository) SaveCart(ctx context.Context, key string, cart domain.Cart) error {
	const op = "CartRepository.SaveCart"

	raw, err := r.encode(cart)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := r.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r CartRepository) encode(cart domain.Cart) (string, error) {
	items := cart.Items()
	vs := make([]lineItem, len(items))
	for i, it := range items {
		vs[i] = lineItem{
			Title:    it.Title,
			Price:    it.UnitPrice.String(),
			ImageSrc: it.ImageRef,
			Quantity: it.Quantity,
		}
	}
	b, err := json.Marshal(vs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r CartRepository) decode(raw string) (domain.Cart, error) {
	var vs []lineItem
	if err := json.Unmarshal([]byte(raw), &vs); err != nil {
		return domain.Cart{}, err
	}

	items := make([]domain.LineItem, len(vs))
	for i, v := range vs {
		price, err := domain.ParseMoney(v.Price, r.currency)
		if err != nil {
			return domain.Cart{}, err
		}
		items[i] = domain.LineItem{
			Title:     v.Title,
			UnitPrice: price,
			ImageRef:  v.ImageSrc,
			Quantity:  v.Quantity,
		}
	}
	return domain.NewCart(items)
}
