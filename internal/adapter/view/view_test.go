package view_test

import (
	"strings"
	"testing"

	"github.com/niksmo/shopcart/internal/adapter/view"
	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineItem(t *testing.T, title, price, img string, qty int) domain.LineItem {
	t.Helper()
	p, err := domain.ParseMoney(price, domain.PHP)
	require.NoError(t, err)
	return domain.LineItem{Title: title, UnitPrice: p, ImageRef: img, Quantity: qty}
}

func TestNewPanelView(t *testing.T) {
	items := []domain.LineItem{
		lineItem(t, "A", "₱500.00", "a.jpg", 2),
		lineItem(t, "B", "₱450.50", "b.jpg", 1),
	}
	c, err := domain.NewCart(items)
	require.NoError(t, err)

	pv := view.NewPanelView(c.Items(), c.Total(domain.PHP), c.ItemCount())
	assert.False(t, pv.Empty)
	assert.Equal(t, "₱1,450.50", pv.Total)
	assert.Equal(t, 3, pv.ItemCount)
	require.Len(t, pv.Items, 2)
	assert.Equal(t, view.PanelItem{
		Index:    0,
		ID:       "A",
		Title:    "A",
		ImageSrc: "a.jpg",
		Price:    "₱500.00",
		Quantity: 2,
		Subtotal: "₱1,000.00",
	}, pv.Items[0])
	assert.Equal(t, 1, pv.Items[1].Index)
}

func TestRenderPanel(t *testing.T) {
	r := view.MustRenderer()

	t.Run("Empty", func(t *testing.T) {
		var sb strings.Builder
		err := r.RenderPanel(&sb, view.NewPanelView(nil, domain.Zero(domain.PHP), 0))
		require.NoError(t, err)

		out := sb.String()
		assert.Contains(t, out, "Your Shopping Cart")
		assert.Contains(t, out, "Your cart is empty")
		assert.Contains(t, out, "Total: ₱0.00")
		assert.NotContains(t, out, `class="cart-item"`)
	})

	t.Run("Items", func(t *testing.T) {
		items := []domain.LineItem{
			lineItem(t, "Rose Bouquet", "₱1,250.00", "rose.jpg", 2),
			lineItem(t, "Tulip", "₱300.00", "tulip.jpg", 1),
		}
		var sb strings.Builder
		err := r.RenderPanel(&sb, view.NewPanelView(items, domain.Money{Minor: 280000, Currency: domain.PHP}, 3))
		require.NoError(t, err)

		out := sb.String()
		assert.NotContains(t, out, "Your cart is empty")
		assert.Equal(t, 2, strings.Count(out, `class="cart-item"`))
		assert.Contains(t, out, "₱1,250.00 × 2")
		assert.Contains(t, out, `data-index="1"`)
		assert.Contains(t, out, "Total: ₱2,800.00")
		assert.Less(t, strings.Index(out, "Rose Bouquet"), strings.Index(out, "Tulip"))
	})

	t.Run("EscapesTitle", func(t *testing.T) {
		items := []domain.LineItem{
			lineItem(t, `<script>alert(1)</script>`, "1", "x.jpg", 1),
		}
		var sb strings.Builder
		err := r.RenderPanel(&sb, view.NewPanelView(items, items[0].Subtotal(), 1))
		require.NoError(t, err)
		assert.NotContains(t, sb.String(), "<script>")
	})
}

func TestRenderBadge(t *testing.T) {
	r := view.MustRenderer()

	var sb strings.Builder
	require.NoError(t, r.RenderBadge(&sb, 0))
	assert.Contains(t, sb.String(), "display: none")

	sb.Reset()
	require.NoError(t, r.RenderBadge(&sb, 5))
	assert.NotContains(t, sb.String(), "display: none")
	assert.Contains(t, sb.String(), ">5</span>")
}
