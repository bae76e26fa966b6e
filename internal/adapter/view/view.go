// Package view renders the cart panel and badge fragments.
//
// Rendering is pull-based: callers build a [PanelView] from the current
// cart after every mutation and render it again.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/niksmo/shopcart/internal/core/domain"
)

//go:embed templates/*.html
var templatesFS embed.FS

type PanelItem struct {
	Index    int
	ID       string
	Title    string
	ImageSrc string
	Price    string
	Quantity int
	Subtotal string
}

// A PanelView is the projection of a cart into the panel fragment.
type PanelView struct {
	Items     []PanelItem
	Total     string
	ItemCount int
	Empty     bool
}

func NewPanelView(items []domain.LineItem, total domain.Money, count int) PanelView {
	pv := PanelView{
		Items:     make([]PanelItem, len(items)),
		Total:     total.String(),
		ItemCount: count,
		Empty:     len(items) == 0,
	}
	for i, li := range items {
		pv.Items[i] = PanelItem{
			Index:    i,
			ID:       li.Title,
			Title:    li.Title,
			ImageSrc: li.ImageRef,
			Price:    li.UnitPrice.String(),
			Quantity: li.Quantity,
			Subtotal: li.Subtotal().String(),
		}
	}
	return pv
}

type badgeView struct {
	Count   int
	Visible bool
}

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (Renderer, error) {
	const op = "view.NewRenderer"

	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return Renderer{}, fmt.Errorf("%s: %w", op, err)
	}
	return Renderer{tmpl}, nil
}

// MustRenderer is like [NewRenderer] but panics on error.
func MustRenderer() Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

func (r Renderer) RenderPanel(w io.Writer, pv PanelView) error {
	const op = "Renderer.RenderPanel"

	if err := r.tmpl.ExecuteTemplate(w, "panel", pv); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RenderBadge renders the item count badge. It is hidden at zero.
func (r Renderer) RenderBadge(w io.Writer, count int) error {
	const op = "Renderer.RenderBadge"

	bv := badgeView{Count: count, Visible: count > 0}
	if err := r.tmpl.ExecuteTemplate(w, "badge", bv); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
