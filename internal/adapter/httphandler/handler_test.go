package httphandler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/niksmo/shopcart/internal/adapter/httphandler"
	"github.com/niksmo/shopcart/internal/adapter/storage"
	"github.com/niksmo/shopcart/internal/adapter/view"
	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClient struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func newTestClient(t *testing.T) *testClient {
	t.Helper()

	repo := storage.NewCartRepository(storage.NewMemoryKV(), domain.PHP)
	sessions := service.NewSessions(
		service.SessionsConfig{}, service.SessionsDeps{Storage: repo},
	)
	t.Cleanup(sessions.Close)
	svc := service.New(sessions, nil)

	mux := http.NewServeMux()
	httphandler.RegisterCart(mux, svc, view.MustRenderer())
	httphandler.RegisterNotifications(mux, svc)
	httphandler.RegisterStats(mux, svc)

	return &testClient{
		t:       t,
		handler: httphandler.WithSession(httphandler.AllowJSON(mux)),
		cookie: &http.Cookie{
			Name:  httphandler.SessionCookieName,
			Value: uuid.NewString(),
		},
	}
}

func (c *testClient) do(method, target, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.AddCookie(c.cookie)
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func (c *testClient) add(title, price string) {
	c.t.Helper()
	body := `{"title":"` + title + `","price":"` + price + `","imageSrc":"img/` + title + `.jpg"}`
	rec := c.do(http.MethodPost, "/v1/cart/items", body)
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestCartEndpoints(t *testing.T) {
	t.Run("AddAndGet", func(t *testing.T) {
		c := newTestClient(t)
		c.add("A", "₱500.00")
		c.add("B", "₱450.50")

		rec := c.do(http.MethodPost, "/v1/cart/items",
			`{"title":"A","price":"₱500.00","imageSrc":"img/A.jpg"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[httphandler.ItemResponse](t, rec)
		assert.Equal(t, 2, resp.Item.Quantity)
		assert.Equal(t, 0, resp.Item.Index)

		cart := decode[httphandler.Cart](t, c.do(http.MethodGet, "/v1/cart", ""))
		require.Len(t, cart.Items, 2)
		assert.Equal(t, "₱1,450.50", cart.Total)
		assert.Equal(t, int64(145050), cart.TotalMinor)
		assert.Equal(t, 3, cart.ItemCount)
		assert.Equal(t, "idle", cart.Checkout)
		assert.Equal(t, "₱1,000.00", cart.Items[0].Subtotal)
	})

	t.Run("InvalidPrice", func(t *testing.T) {
		c := newTestClient(t)
		rec := c.do(http.MethodPost, "/v1/cart/items", `{"title":"A","price":"abc"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		c := newTestClient(t)
		rec := c.do(http.MethodPost, "/v1/cart/items", `{"title":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("BodyTooLarge", func(t *testing.T) {
		c := newTestClient(t)
		body := `{"title":"A","price":"1","imageSrc":"` + strings.Repeat("x", 20<<10) + `"}`
		rec := c.do(http.MethodPost, "/v1/cart/items", body)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

		cart := decode[httphandler.Cart](t, c.do(http.MethodGet, "/v1/cart", ""))
		assert.Empty(t, cart.Items)
	})

	t.Run("FieldTooLong", func(t *testing.T) {
		c := newTestClient(t)
		title := strings.Repeat("a", domain.MaxTitleLen+1)
		rec := c.do(http.MethodPost, "/v1/cart/items", `{"title":"`+title+`","price":"1"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		img := strings.Repeat("x", domain.MaxImageRefLen+1)
		rec = c.do(http.MethodPost, "/v1/cart/items", `{"title":"A","price":"1","imageSrc":"`+img+`"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("PriceAboveLimit", func(t *testing.T) {
		c := newTestClient(t)
		rec := c.do(http.MethodPost, "/v1/cart/items",
			`{"title":"A","price":"₱100,000,000,000,000,000.00"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		cart := decode[httphandler.Cart](t, c.do(http.MethodGet, "/v1/cart", ""))
		assert.Empty(t, cart.Items)
	})

	t.Run("QuantityLimit", func(t *testing.T) {
		c := newTestClient(t)
		c.add("A", "1")
		rec := c.do(http.MethodPatch, "/v1/cart/lines/0",
			`{"delta":`+strconv.Itoa(domain.MaxQuantity)+`}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		resp := decode[httphandler.ErrorResponse](t, rec)
		require.NotNil(t, resp.Cart)
		assert.Equal(t, 1, resp.Cart.ItemCount)
	})

	t.Run("UnsupportedMediaType", func(t *testing.T) {
		c := newTestClient(t)
		req := httptest.NewRequest(http.MethodPost, "/v1/cart/items", strings.NewReader("title=A"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		c.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("ChangeQuantityByTitle", func(t *testing.T) {
		c := newTestClient(t)
		c.add("Rose Bouquet", "₱1,250.00")

		rec := c.do(http.MethodPatch, "/v1/cart/items/Rose%20Bouquet", `{"delta":1}`)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[httphandler.ItemResponse](t, rec)
		assert.Equal(t, 2, resp.Item.Quantity)
		assert.False(t, resp.Removed)

		rec = c.do(http.MethodPatch, "/v1/cart/items/Rose%20Bouquet", `{"delta":-2}`)
		require.Equal(t, http.StatusOK, rec.Code)
		resp = decode[httphandler.ItemResponse](t, rec)
		assert.True(t, resp.Removed)
		assert.Empty(t, resp.Cart.Items)
	})

	t.Run("ZeroDelta", func(t *testing.T) {
		c := newTestClient(t)
		c.add("A", "1")
		rec := c.do(http.MethodPatch, "/v1/cart/lines/0", `{"delta":0}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("StaleIndexConflict", func(t *testing.T) {
		c := newTestClient(t)
		c.add("A", "1")
		c.add("B", "2")

		rec := c.do(http.MethodDelete, "/v1/cart/lines/5", "")
		require.Equal(t, http.StatusConflict, rec.Code)
		resp := decode[httphandler.ErrorResponse](t, rec)
		require.NotNil(t, resp.Cart)
		assert.Len(t, resp.Cart.Items, 2)

		rec = c.do(http.MethodPatch, "/v1/cart/lines/-1", `{"delta":1}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("BadIndex", func(t *testing.T) {
		c := newTestClient(t)
		rec := c.do(http.MethodDelete, "/v1/cart/lines/first", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("RemoveUnknownTitle", func(t *testing.T) {
		c := newTestClient(t)
		rec := c.do(http.MethodDelete, "/v1/cart/items/Z", "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("RemoveByIndexAndClear", func(t *testing.T) {
		c := newTestClient(t)
		c.add("A", "1")
		c.add("B", "2")
		c.add("C", "3")

		rec := c.do(http.MethodDelete, "/v1/cart/lines/1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[httphandler.ItemResponse](t, rec)
		assert.Equal(t, "B", resp.Item.Title)
		require.Len(t, resp.Cart.Items, 2)
		assert.Equal(t, "C", resp.Cart.Items[1].Title)
		assert.Equal(t, 1, resp.Cart.Items[1].Index)

		rec = c.do(http.MethodDelete, "/v1/cart", "")
		require.Equal(t, http.StatusOK, rec.Code)
		cart := decode[httphandler.Cart](t, rec)
		assert.Empty(t, cart.Items)
		assert.Equal(t, "₱0.00", cart.Total)
	})

	t.Run("Checkout", func(t *testing.T) {
		c := newTestClient(t)

		rec := c.do(http.MethodPost, "/v1/cart/checkout", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "idle", decode[httphandler.Cart](t, rec).Checkout)

		ns := decode[[]httphandler.Notification](t, c.do(http.MethodGet, "/v1/notifications", ""))
		require.NotEmpty(t, ns)
		assert.Equal(t, "Your cart is empty!", ns[0].Message)

		c.add("A", "1")
		rec = c.do(http.MethodPost, "/v1/cart/checkout", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "processing", decode[httphandler.Cart](t, rec).Checkout)
	})
}

func TestPanelEndpoints(t *testing.T) {
	c := newTestClient(t)
	c.add("A", "₱500.00")

	rec := c.do(http.MethodPost, "/v1/cart/panel/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Total: ₱500.00")

	cart := decode[httphandler.Cart](t, c.do(http.MethodGet, "/v1/cart", ""))
	assert.True(t, cart.PanelOpen)

	rec = c.do(http.MethodPost, "/v1/cart/panel/toggle", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = c.do(http.MethodGet, "/v1/cart/panel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Your Shopping Cart")

	rec = c.do(http.MethodGet, "/v1/cart/badge", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ">1</span>")
}

func TestNotificationEndpoints(t *testing.T) {
	c := newTestClient(t)

	rec := c.do(http.MethodPost, "/v1/contact", `{"name":"Maria","email":"m@example.com","message":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	id := decode[httphandler.ContactResponse](t, rec).NotificationID
	require.NotEmpty(t, id)

	ns := decode[[]httphandler.Notification](t, c.do(http.MethodGet, "/v1/notifications", ""))
	require.Len(t, ns, 1)
	assert.Equal(t, "Thank you for your message, Maria!", ns[0].Message)
	assert.Equal(t, "plain", ns[0].Kind)

	rec = c.do(http.MethodDelete, "/v1/notifications/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = c.do(http.MethodDelete, "/v1/notifications/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do(http.MethodPost, "/v1/contact", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/v1/contact", `{"name":"`+strings.Repeat("M", 101)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do(http.MethodPost, "/v1/contact", `{"message":"`+strings.Repeat("m", 20<<10)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestStatsDisabled(t *testing.T) {
	c := newTestClient(t)
	rec := c.do(http.MethodGet, "/v1/stats/products/A", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWithSession(t *testing.T) {
	h := httphandler.WithSession(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	t.Run("IssuesCookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, httphandler.SessionCookieName, cookies[0].Name)
		_, err := uuid.Parse(cookies[0].Value)
		assert.NoError(t, err)
	})

	t.Run("KeepsValidCookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: httphandler.SessionCookieName, Value: uuid.NewString()})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("ReplacesMalformedCookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: httphandler.SessionCookieName, Value: "../../etc"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Len(t, rec.Result().Cookies(), 1)
	})
}
