package httphandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/service"
)

// GET    v1/notifications      (200 OK)
// DELETE v1/notifications/{id} (204 No content, 404 Not found)
// POST   v1/contact            JSON {name, email, message} (200 OK, 400 Bad request, 413)

type NotificationsHandler struct {
	sessions SessionProvider
}

func RegisterNotifications(mux *http.ServeMux, sessions SessionProvider) {
	h := NotificationsHandler{sessions}
	mux.HandleFunc("GET /v1/notifications", h.GetNotifications)
	mux.HandleFunc("DELETE /v1/notifications/{id}", h.DeleteNotification)
	mux.HandleFunc("POST /v1/contact", h.PostContact)
}

func (h NotificationsHandler) session(r *http.Request) *service.Session {
	return h.sessions.Session(r.Context(), sessionID(r.Context()))
}

func (h NotificationsHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	const op = "NotificationsHandler.GetNotifications"
	active := h.session(r).Notifier.Active()
	writeJSON(w, http.StatusOK, toNotifications(active), op)
}

func (h NotificationsHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	const op = "NotificationsHandler.DeleteNotification"

	err := h.session(r).Notifier.Dismiss(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotificationNotFound) {
			writeError(w, http.StatusNotFound, "notification not found", nil, op)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error", nil, op)
		slog.Error("failed to dismiss notification", "op", op, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

const maxContactNameLen = 100

// PostContact only acknowledges the form with a notification.
func (h NotificationsHandler) PostContact(w http.ResponseWriter, r *http.Request) {
	const op = "NotificationsHandler.PostContact"

	var req ContactRequest
	if !decodeJSON(w, r, &req, op) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil, op)
		return
	}
	if utf8.RuneCountInString(name) > maxContactNameLen {
		writeError(w, http.StatusBadRequest, "name is too long", nil, op)
		return
	}

	id := h.session(r).SubmitContact(name)
	writeJSON(w, http.StatusOK, ContactResponse{NotificationID: id}, op)
}

// GET v1/stats/products/{title} (200 OK, 503 Service unavailable)

type StatsProvider interface {
	ProductAddedCount(title string) (int64, error)
}

type StatsHandler struct {
	stats StatsProvider
}

func RegisterStats(mux *http.ServeMux, stats StatsProvider) {
	h := StatsHandler{stats}
	mux.HandleFunc("GET /v1/stats/products/{title}", h.GetProductStats)
}

func (h StatsHandler) GetProductStats(w http.ResponseWriter, r *http.Request) {
	const op = "StatsHandler.GetProductStats"

	title := r.PathValue("title")
	n, err := h.stats.ProductAddedCount(title)
	if err != nil {
		if errors.Is(err, service.ErrStatsUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "stats are disabled", nil, op)
			return
		}
		writeError(w, http.StatusServiceUnavailable, "stats are unavailable", nil, op)
		slog.Error("failed to read product stats", "op", op, "err", err)
		return
	}
	writeJSON(w, http.StatusOK, ProductStats{Title: title, AddedCount: n}, op)
}

// RegisterStatic serves the storefront files from dir at the root path.
func RegisterStatic(mux *http.ServeMux, dir string) {
	mux.Handle("/", http.FileServer(http.Dir(dir)))
}
