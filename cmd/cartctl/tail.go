package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/niksmo/shopcart/config"
	"github.com/niksmo/shopcart/internal/adapter"
	"github.com/niksmo/shopcart/internal/adapter/kafka"
	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/pkg/schema"
	"github.com/twmb/franz-go/pkg/sr"
)

// An eventPrinter writes one line per cart event.
type eventPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *eventPrinter) HandleCartEvents(_ context.Context, evts []domain.CartEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range evts {
		line := fmt.Sprintf("%s %-18s session=%s",
			e.OccurredAt.Format(time.DateTime), e.Type, e.SessionID,
		)
		if e.Title != "" {
			line += fmt.Sprintf(" title=%q qty=%d price=%s", e.Title, e.Quantity, e.UnitPrice)
		}
		line += fmt.Sprintf(" total=%s items=%d", e.CartTotal, e.ItemCount)
		if _, err := fmt.Fprintln(p.w, line); err != nil {
			return err
		}
	}
	return nil
}

// tail reads the events topic from the start without a consumer group.
func tail(ctx context.Context, cfg config.Config, w io.Writer) error {
	const op = "tail"

	tlsCfg, err := adapter.MakeTLSConfig(
		cfg.Broker.TLS.CAFile, cfg.Broker.TLS.CertFile, cfg.Broker.TLS.KeyFile,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	srOpts := []sr.ClientOpt{sr.URLs(cfg.Broker.SchemaRegistryURLs...)}
	if tlsCfg != nil {
		srOpts = append(srOpts, sr.DialTLSConfig(tlsCfg))
	}
	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	topic := cfg.Broker.Topics.CartEvents
	serde, err := schema.NewSerdeCartEventV1(
		ctx,
		schema.SubjectOpt(topic+"-value"),
		schema.SchemaIdentifierOpt(schema.NewSchemaCreater(srClient)),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	consumer, err := kafka.NewCartEventsConsumer(
		kafka.ConsumerClientOpt(cfg.Broker.SeedBrokers, topic, "", tlsCfg),
		kafka.ConsumerDecoderOpt(serde),
		kafka.ConsumerHandlerOpt(&eventPrinter{w: w}),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer consumer.Close()

	consumer.Run(ctx)
	return nil
}
