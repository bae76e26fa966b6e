package metrics

import (
	"context"
	"net/http"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shopcart"

var (
	_ port.CartEventsProducer    = (*Recorder)(nil)
	_ port.NotificationsRecorder = (*Recorder)(nil)
	_ port.SessionsGauge         = (*Recorder)(nil)
)

// A Recorder counts cart activity in its own registry.
type Recorder struct {
	reg           *prometheus.Registry
	cartEvents    *prometheus.CounterVec
	notifications *prometheus.CounterVec
	sessions      prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		cartEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_events_total",
			Help:      "Applied cart mutations by event type.",
		}, []string{"type"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Shown notifications by kind.",
		}, []string{"kind"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Browser sessions held in memory.",
		}),
	}
	r.reg.MustRegister(
		r.cartEvents,
		r.notifications,
		r.sessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ProduceCartEvents never fails.
func (r *Recorder) ProduceCartEvents(_ context.Context, evts ...domain.CartEvent) error {
	for _, e := range evts {
		r.cartEvents.WithLabelValues(string(e.Type)).Inc()
	}
	return nil
}

func (r *Recorder) RecordNotification(kind domain.NotificationKind) {
	r.notifications.WithLabelValues(string(kind)).Inc()
}

func (r *Recorder) SetActiveSessions(n int) {
	r.sessions.Set(float64(n))
}

func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
