package httphandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/niksmo/shopcart/internal/adapter/view"
	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/service"
)

// GET    v1/cart                  (200 OK)
// POST   v1/cart/items            JSON {title, price, imageSrc} (200 OK, 400 Bad request, 413, 422)
// PATCH  v1/cart/items/{title}    JSON {delta} (200 OK, 400 Bad request, 409 Conflict, 422)
// DELETE v1/cart/items/{title}    (200 OK, 409 Conflict)
// PATCH  v1/cart/lines/{index}    JSON {delta} (200 OK, 400 Bad request, 409 Conflict)
// DELETE v1/cart/lines/{index}    (200 OK, 409 Conflict)
// DELETE v1/cart                  (200 OK)
// POST   v1/cart/checkout         (200 OK)
// POST   v1/cart/panel/toggle     (200 OK text/html, 204 No content)
// GET    v1/cart/panel            (200 OK text/html)
// GET    v1/cart/badge            (200 OK text/html)

type SessionProvider interface {
	Session(ctx context.Context, id string) *service.Session
}

type Renderer interface {
	RenderPanel(w io.Writer, pv view.PanelView) error
	RenderBadge(w io.Writer, count int) error
}

type CartHandler struct {
	sessions SessionProvider
	render   Renderer
}

func RegisterCart(mux *http.ServeMux, sessions SessionProvider, render Renderer) {
	h := CartHandler{sessions, render}
	mux.HandleFunc("GET /v1/cart", h.GetCart)
	mux.HandleFunc("POST /v1/cart/items", h.PostItem)
	mux.HandleFunc("PATCH /v1/cart/items/{title}", h.PatchItem)
	mux.HandleFunc("DELETE /v1/cart/items/{title}", h.DeleteItem)
	mux.HandleFunc("PATCH /v1/cart/lines/{index}", h.PatchLine)
	mux.HandleFunc("DELETE /v1/cart/lines/{index}", h.DeleteLine)
	mux.HandleFunc("DELETE /v1/cart", h.DeleteCart)
	mux.HandleFunc("POST /v1/cart/checkout", h.PostCheckout)
	mux.HandleFunc("POST /v1/cart/panel/toggle", h.TogglePanel)
	mux.HandleFunc("GET /v1/cart/panel", h.GetPanel)
	mux.HandleFunc("GET /v1/cart/badge", h.GetBadge)
}

func (h CartHandler) session(r *http.Request) *service.Session {
	return h.sessions.Session(r.Context(), sessionID(r.Context()))
}

func (h CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.GetCart"
	writeJSON(w, http.StatusOK, toCart(h.session(r)), op)
}

func (h CartHandler) PostItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PostItem"
	log := slog.With("op", op)

	var req AddItemRequest
	if !decodeJSON(w, r, &req, op) {
		return
	}

	s := h.session(r)
	li, err := s.AddToCart(r.Context(), req.Title, req.Price, req.ImageSrc)
	if err != nil {
		h.writeCartError(w, s, err, op)
		return
	}

	resp := ItemResponse{
		Item: toCartItem(indexOf(s.Store.Items(), li.Title), li),
		Cart: toCart(s),
	}
	writeJSON(w, http.StatusOK, resp, op)
	log.Debug("item added", "title", li.Title, "quantity", li.Quantity)
}

func (h CartHandler) PatchItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PatchItem"

	delta, ok := decodeDelta(w, r, op)
	if !ok {
		return
	}
	s := h.session(r)
	li, removed, err := s.ChangeQuantity(r.Context(), r.PathValue("title"), delta)
	h.writeItemResult(w, s, li, removed, err, op)
}

func (h CartHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.DeleteItem"

	s := h.session(r)
	li, err := s.Remove(r.Context(), r.PathValue("title"))
	h.writeItemResult(w, s, li, true, err, op)
}

func (h CartHandler) PatchLine(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PatchLine"

	index, ok := pathIndex(w, r, op)
	if !ok {
		return
	}
	delta, ok := decodeDelta(w, r, op)
	if !ok {
		return
	}
	s := h.session(r)
	li, removed, err := s.ChangeQuantityAt(r.Context(), index, delta)
	h.writeItemResult(w, s, li, removed, err, op)
}

func (h CartHandler) DeleteLine(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.DeleteLine"

	index, ok := pathIndex(w, r, op)
	if !ok {
		return
	}
	s := h.session(r)
	li, err := s.RemoveAt(r.Context(), index)
	h.writeItemResult(w, s, li, true, err, op)
}

func (h CartHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.DeleteCart"

	s := h.session(r)
	s.ClearCart(r.Context())
	writeJSON(w, http.StatusOK, toCart(s), op)
}

// PostCheckout answers 200 for an empty cart too; the session
// notifies the user instead.
func (h CartHandler) PostCheckout(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.PostCheckout"

	s := h.session(r)
	s.StartCheckout(r.Context())
	writeJSON(w, http.StatusOK, toCart(s), op)
}

func (h CartHandler) TogglePanel(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.TogglePanel"

	s := h.session(r)
	if !s.TogglePanel() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writePanel(w, s, op)
}

func (h CartHandler) GetPanel(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.GetPanel"
	h.writePanel(w, h.session(r), op)
}

func (h CartHandler) GetBadge(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.GetBadge"

	var buf bytes.Buffer
	if err := h.render.RenderBadge(&buf, h.session(r).ItemCount()); err != nil {
		http.Error(w, "failed to render badge", http.StatusInternalServerError)
		slog.Error("failed to render", "op", op, "err", err)
		return
	}
	writeHTML(w, buf.Bytes(), op)
}

func (h CartHandler) writePanel(w http.ResponseWriter, s *service.Session, op string) {
	snap := s.Store.Snapshot()
	pv := view.NewPanelView(snap.Items, snap.Total, snap.ItemCount)

	var buf bytes.Buffer
	if err := h.render.RenderPanel(&buf, pv); err != nil {
		http.Error(w, "failed to render panel", http.StatusInternalServerError)
		slog.Error("failed to render", "op", op, "err", err)
		return
	}
	writeHTML(w, buf.Bytes(), op)
}

func (h CartHandler) writeItemResult(
	w http.ResponseWriter,
	s *service.Session,
	li domain.LineItem,
	removed bool,
	err error,
	op string,
) {
	if err != nil {
		h.writeCartError(w, s, err, op)
		return
	}
	item := toCartItem(indexOf(s.Store.Items(), li.Title), li)
	if removed {
		item.Index = -1
		item.Quantity = 0
	}
	resp := ItemResponse{Item: item, Removed: removed, Cart: toCart(s)}
	writeJSON(w, http.StatusOK, resp, op)
}

// writeCartError maps domain errors to statuses. Stale positions and
// unknown items answer 409 with the current cart for a full re-render.
func (h CartHandler) writeCartError(
	w http.ResponseWriter, s *service.Session, err error, op string,
) {
	log := slog.With("op", op)

	switch {
	case errors.Is(err, domain.ErrIndexOutOfRange),
		errors.Is(err, domain.ErrItemNotFound):
		c := toCart(s)
		writeError(w, http.StatusConflict, err.Error(), &c, op)
		log.Info("stale cart action", "err", err)
	case errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidImageRef):
		writeError(w, http.StatusBadRequest, err.Error(), nil, op)
		log.Warn("invalid item", "err", err)
	case errors.Is(err, domain.ErrQuantityLimit),
		errors.Is(err, domain.ErrCartFull):
		c := toCart(s)
		writeError(w, http.StatusUnprocessableEntity, err.Error(), &c, op)
		log.Info("cart limit reached", "err", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", nil, op)
		log.Error("unexpected cart error", "err", err)
	}
}

func decodeDelta(w http.ResponseWriter, r *http.Request, op string) (int, bool) {
	var req ChangeQuantityRequest
	if !decodeJSON(w, r, &req, op) {
		return 0, false
	}
	if req.Delta == 0 {
		writeError(w, http.StatusBadRequest, "delta must not be zero", nil, op)
		return 0, false
	}
	return req.Delta, true
}

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 16 << 10

// decodeJSON reads at most maxBodyBytes of r.Body into v and answers
// 413 or 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large", nil, op)
		slog.Warn("request body too large", "op", op, "limit", tooLarge.Limit)
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid JSON data", nil, op)
	slog.Warn("failed to parse JSON", "op", op, "err", err)
	return false
}

func pathIndex(w http.ResponseWriter, r *http.Request, op string) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid line index", nil, op)
		return 0, false
	}
	return index, true
}

func writeJSON(w http.ResponseWriter, status int, v any, op string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response body", "op", op, "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, c *Cart, op string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Cart: c}, op)
}

func writeHTML(w http.ResponseWriter, body []byte, op string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(body); err != nil {
		slog.Error("failed to write response body", "op", op, "err", err)
	}
}
