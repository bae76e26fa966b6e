package httphandler

import (
	"time"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/service"
)

type (
	AddItemRequest struct {
		Title    string `json:"title"`
		Price    string `json:"price"`
		ImageSrc string `json:"imageSrc"`
	}

	ChangeQuantityRequest struct {
		Delta int `json:"delta"`
	}

	ContactRequest struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
)

type (
	CartItem struct {
		Index    int    `json:"index"`
		ID       string `json:"id"`
		Title    string `json:"title"`
		Price    string `json:"price"`
		ImageSrc string `json:"imageSrc"`
		Quantity int    `json:"quantity"`
		Subtotal string `json:"subtotal"`
	}

	Cart struct {
		Items      []CartItem `json:"items"`
		Total      string     `json:"total"`
		TotalMinor int64      `json:"totalMinor"`
		ItemCount  int        `json:"itemCount"`
		PanelOpen  bool       `json:"panelOpen"`
		Checkout   string     `json:"checkout"`
	}

	ItemResponse struct {
		Item    CartItem `json:"item"`
		Removed bool     `json:"removed"`
		Cart    Cart     `json:"cart"`
	}

	ErrorResponse struct {
		Error string `json:"error"`
		Cart  *Cart  `json:"cart,omitempty"`
	}

	Notification struct {
		ID        string    `json:"id"`
		Kind      string    `json:"kind"`
		Message   string    `json:"message"`
		Title     string    `json:"title,omitempty"`
		Icon      string    `json:"icon,omitempty"`
		CreatedAt time.Time `json:"createdAt"`
		Leaving   bool      `json:"leaving"`
	}

	ContactResponse struct {
		NotificationID string `json:"notificationId"`
	}

	ProductStats struct {
		Title      string `json:"title"`
		AddedCount int64  `json:"addedCount"`
	}
)

func toCart(s *service.Session) Cart {
	snap := s.Store.Snapshot()
	c := Cart{
		Items:      make([]CartItem, len(snap.Items)),
		Total:      snap.Total.String(),
		TotalMinor: snap.Total.Minor,
		ItemCount:  snap.ItemCount,
		PanelOpen:  s.PanelOpen(),
		Checkout:   s.Checkout.State().String(),
	}
	for i, li := range snap.Items {
		c.Items[i] = toCartItem(i, li)
	}
	return c
}

func toCartItem(index int, li domain.LineItem) CartItem {
	return CartItem{
		Index:    index,
		ID:       li.Title,
		Title:    li.Title,
		Price:    li.UnitPrice.String(),
		ImageSrc: li.ImageRef,
		Quantity: li.Quantity,
		Subtotal: li.Subtotal().String(),
	}
}

func toNotifications(ns []domain.Notification) []Notification {
	out := make([]Notification, len(ns))
	for i, n := range ns {
		out[i] = Notification{
			ID:        n.ID,
			Kind:      string(n.Kind),
			Message:   n.Message,
			Title:     n.Title,
			Icon:      n.Icon,
			CreatedAt: n.CreatedAt,
			Leaving:   n.Leaving,
		}
	}
	return out
}

func indexOf(items []domain.LineItem, title string) int {
	for i, li := range items {
		if li.Title == title {
			return i
		}
	}
	return -1
}
