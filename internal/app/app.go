package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/niksmo/shopcart/config"
	"github.com/niksmo/shopcart/internal/adapter"
	"github.com/niksmo/shopcart/internal/adapter/httphandler"
	"github.com/niksmo/shopcart/internal/adapter/kafka"
	"github.com/niksmo/shopcart/internal/adapter/metrics"
	"github.com/niksmo/shopcart/internal/adapter/storage"
	"github.com/niksmo/shopcart/internal/adapter/view"
	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
	"github.com/niksmo/shopcart/internal/core/service"
	"github.com/niksmo/shopcart/pkg/retry"
	"github.com/niksmo/shopcart/pkg/schema"
	"github.com/twmb/franz-go/pkg/sr"
)

type stream struct {
	enabled   bool
	producer  kafka.CartEventsProducer
	processor *kafka.CartStatsProcessor
	view      *kafka.CartStatsView
}

type App struct {
	ctx          context.Context
	cfg          config.Config
	storage      port.CartStorage
	closeStorage func()
	metrics      *metrics.Recorder
	stream       stream
	service      service.Service
	httpServer   httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initStorage()
	app.initMetrics()
	app.initStream()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	var handler slog.Handler
	switch app.cfg.LogFormat {
	case config.LogFormatText:
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      app.cfg.LogLevel,
			TimeFormat: time.TimeOnly,
		})
	default:
		opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	kv, closeFn, err := storage.OpenKV(app.ctx, storage.OpenConfig{
		Driver:     app.cfg.Storage.Driver,
		Dir:        app.cfg.Storage.Dir,
		SQLitePath: app.cfg.Storage.SQLitePath,
		DSN:        app.cfg.Storage.DSN,
	})
	if err != nil {
		app.fallDown(op, err)
	}
	app.closeStorage = closeFn
	app.storage = storage.NewCartRepository(kv, domain.PHP)
	slog.Info("cart storage is ready", "driver", app.cfg.Storage.Driver)
}

func (app *App) initMetrics() {
	app.metrics = metrics.NewRecorder()
}

func (app *App) initStream() {
	const op = "App.initStream"

	if !app.cfg.StreamEnabled() {
		slog.Info("cart events stream is disabled")
		return
	}

	ctx := app.ctx
	brokerCfg := app.cfg.Broker
	topic := brokerCfg.Topics.CartEvents
	group := brokerCfg.Consumers.CartStatsGroup

	tlsCfg, err := adapter.MakeTLSConfig(
		brokerCfg.TLS.CAFile, brokerCfg.TLS.CertFile, brokerCfg.TLS.KeyFile,
	)
	if err != nil {
		app.fallDown(op, err)
	}
	kafka.UseGokaTLS(tlsCfg)

	srOpts := []sr.ClientOpt{sr.URLs(brokerCfg.SchemaRegistryURLs...)}
	if tlsCfg != nil {
		srOpts = append(srOpts, sr.DialTLSConfig(tlsCfg))
	}
	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		app.fallDown(op, err)
	}

	retryCfg := retry.RetryConfig{
		MaxAttempts: 5,
		Backoff:     retry.ExponentialBackoff(200 * time.Millisecond),
	}

	serde, err := retry.DoWithResult(ctx, retryCfg, func() (schema.Serde, error) {
		return schema.NewSerdeCartEventV1(
			ctx,
			schema.SubjectOpt(topic+"-value"),
			schema.SchemaIdentifierOpt(schema.NewSchemaCreater(srClient)),
		)
	})
	if err != nil {
		app.fallDown(op, err)
	}

	producer, err := retry.DoWithResult(ctx, retryCfg, func() (kafka.CartEventsProducer, error) {
		return kafka.NewCartEventsProducer(
			kafka.ProducerClientOpt(ctx, brokerCfg.SeedBrokers, topic, tlsCfg),
			kafka.ProducerEncoderOpt(serde),
		)
	})
	if err != nil {
		app.fallDown(op, err)
	}

	processor, err := kafka.NewCartStatsProc(
		brokerCfg.SeedBrokers, topic, group, serde,
	)
	if err != nil {
		app.fallDown(op, err)
	}

	statsView, err := kafka.NewCartStatsView(brokerCfg.SeedBrokers, group)
	if err != nil {
		app.fallDown(op, err)
	}

	app.stream = stream{
		enabled:   true,
		producer:  producer,
		processor: processor,
		view:      statsView,
	}
}

func (app *App) initCoreService() {
	events := service.FanOut{app.metrics}
	if app.stream.enabled {
		events = append(events, app.stream.producer)
	}

	sessions := service.NewSessions(
		service.SessionsConfig{
			StorageKey: app.cfg.Storage.Key,
			Currency:   domain.PHP,
			Notifications: service.NotifierConfig{
				PlainTTL: app.cfg.Notifications.PlainTTL,
				RichTTL:  app.cfg.Notifications.RichTTL,
				Exit:     app.cfg.Notifications.Exit,
			},
			CheckoutDelay: app.cfg.Checkout.Delay,
			IdleTTL:       app.cfg.Sessions.IdleTTL,
			Welcome: service.WelcomeConfig{
				Enabled: app.cfg.Welcome.Enabled,
				Delay:   app.cfg.Welcome.Delay,
				Title:   app.cfg.Welcome.Title,
				Message: app.cfg.Welcome.Message,
				Icon:    app.cfg.Welcome.Icon,
			},
		},
		service.SessionsDeps{
			Storage:  app.storage,
			Events:   events,
			Recorder: app.metrics,
			Gauge:    app.metrics,
		},
	)

	if !app.stream.enabled {
		app.service = service.New(sessions, nil)
		return
	}
	app.service = service.New(
		sessions,
		app.stream.view,
		app.stream.processor,
		app.stream.view,
	)
}

func (app *App) initInboundAdapters() {
	const op = "App.initInboundAdapters"

	render, err := view.NewRenderer()
	if err != nil {
		app.fallDown(op, err)
	}

	api := http.NewServeMux()
	httphandler.RegisterCart(api, app.service, render)
	httphandler.RegisterNotifications(api, app.service)
	httphandler.RegisterStats(api, app.service)

	mux := http.NewServeMux()
	mux.Handle("/v1/", httphandler.WithSession(httphandler.AllowJSON(api)))
	mux.Handle("GET /metrics", app.metrics.Handler())
	if app.cfg.StaticDir != "" {
		httphandler.RegisterStatic(mux, app.cfg.StaticDir)
	}

	app.httpServer = httphandler.NewHTTPServer(app.cfg.HTTPServerAddr, mux)
}

// Run blocks while the stream components recover, then starts
// serving HTTP.
func (app *App) Run(stopFn context.CancelFunc) {
	app.service.Run(app.ctx, stopFn)
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.service.Close()
	if app.stream.enabled {
		app.stream.producer.Close()
	}
	app.closeStorage()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
