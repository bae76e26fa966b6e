package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
	"github.com/niksmo/shopcart/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

////////////////////////////////////////////////////////
///////////////           OPTS            //////////////
////////////////////////////////////////////////////////

type ConsumerOpt func(*consumerOpts) error

// ConsumerClientOpt consumes topic in group. An empty group reads
// the topic from the start without committing offsets.
func ConsumerClientOpt(
	seedBrokers []string, topic, group string, tlsCfg *tls.Config,
) ConsumerOpt {
	return func(co *consumerOpts) error {
		kopts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.ConsumeTopics(topic),
		}
		if group != "" {
			kopts = append(kopts,
				kgo.ConsumerGroup(group),
				kgo.DisableAutoCommit(),
			)
		} else {
			kopts = append(kopts,
				kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
			)
			co.noCommit = true
		}
		kopts = append(kopts, TLSOpts(tlsCfg)...)

		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}
		co.cl = cl
		return nil
	}
}

// ConsumerWithClientOpt uses an already built client.
func ConsumerWithClientOpt(cl ConsumerClient, commit bool) ConsumerOpt {
	return func(co *consumerOpts) error {
		if cl == nil {
			return errors.New("consumer client is nil")
		}
		co.cl = cl
		co.noCommit = !commit
		return nil
	}
}

func ConsumerDecoderOpt(decoder Decoder) ConsumerOpt {
	return func(co *consumerOpts) error {
		if decoder == nil {
			return errors.New("decoder is nil")
		}
		co.decoder = decoder
		return nil
	}
}

func ConsumerHandlerOpt(h port.CartEventsHandler) ConsumerOpt {
	return func(co *consumerOpts) error {
		if h == nil {
			return errors.New("cart events handler is nil")
		}
		co.handler = h
		return nil
	}
}

type consumerOpts struct {
	cl       ConsumerClient
	noCommit bool
	decoder  Decoder
	handler  port.CartEventsHandler
}

func (co *consumerOpts) apply(opts ...ConsumerOpt) error {
	for _, opt := range opts {
		if err := opt(co); err != nil {
			return err
		}
	}
	if co.cl == nil || co.decoder == nil || co.handler == nil {
		return ErrTooFewOpts
	}
	return nil
}

////////////////////////////////////////////////////////
////////////           CONSUMERS            ////////////
////////////////////////////////////////////////////////

// A consumer is used for composition.
//
// Fetching records from kafka broker and closing underlying [kgo.Client].

type consumerParent interface {
	processFetches(context.Context, kgo.Fetches) error
}

type consumer struct {
	opPrefix string
	parent   consumerParent
	cl       ConsumerClient
	noCommit bool
	slowDown time.Duration
}

func (c consumer) run(ctx context.Context) {
	const op = "run"
	log := slog.With("op", makeOp(c.opPrefix, op))

	log.Info("running")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			err := c.consume(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				log.Error("failed to consume", "err", err)
				c.wait(ctx)
			}
		}
	}
}

func (c consumer) consume(ctx context.Context) error {
	const op = "consume"

	fetches, err := c.pollFetches(ctx)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}

	if fetches.Empty() {
		return nil
	}

	err = c.parent.processFetches(ctx, fetches)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}

	if c.noCommit {
		return nil
	}

	err = c.commit(ctx)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

func (c consumer) pollFetches(ctx context.Context) (kgo.Fetches, error) {
	const op = "pollFetches"

	fetches := c.cl.PollFetches(ctx)
	if err := fetches.Err0(); err != nil {
		return nil, opErr(err, c.opPrefix, op)
	}

	err := c.handleFetchesErrs(fetches)
	if err != nil {
		return nil, opErr(err, c.opPrefix, op)
	}

	return fetches, nil
}

func (c consumer) handleFetchesErrs(fetches kgo.Fetches) error {
	var errsMessages []string
	fetches.EachError(func(t string, p int32, err error) {
		if err != nil {
			errMsg := fmt.Sprintf(
				"topic %q partition %d: %q", t, p, err,
			)
			errsMessages = append(errsMessages, errMsg)
		}
	})

	if len(errsMessages) != 0 {
		return errors.New(strings.Join(errsMessages, "; "))
	}
	return nil
}

func (c consumer) wait(ctx context.Context) {
	t := time.NewTimer(c.slowDown)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (c consumer) commit(ctx context.Context) error {
	const op = "commit"

	err := ctx.Err()
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}

	err = c.cl.CommitUncommittedOffsets(ctx)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

func (c consumer) close() {
	const op = "close"
	log := slog.With("op", makeOp(c.opPrefix, op))

	log.Info("closing consumer...")
	c.cl.Close()
	log.Info("consumer is closed")
}

// A CartEventsConsumer reads cart events back from the stream
// and passes every decoded batch to a handler.
type CartEventsConsumer struct {
	opPrefix string
	consumer consumer
	handler  port.CartEventsHandler
	decoder  Decoder
}

func NewCartEventsConsumer(opts ...ConsumerOpt) (c CartEventsConsumer, err error) {
	const op = "NewCartEventsConsumer"

	var options consumerOpts
	if err := options.apply(opts...); err != nil {
		return c, opErr(err, op)
	}

	opPrefix := "CartEventsConsumer"

	c.opPrefix = opPrefix
	c.handler = options.handler
	c.decoder = options.decoder

	c.consumer = consumer{
		opPrefix: opPrefix,
		parent:   c,
		cl:       options.cl,
		noCommit: options.noCommit,
		slowDown: consumerSlowDown,
	}

	return c, nil
}

// Run consumes until ctx is done.
func (c CartEventsConsumer) Run(ctx context.Context) {
	c.consumer.run(ctx)
}

func (c CartEventsConsumer) Close() {
	c.consumer.close()
}

func (c CartEventsConsumer) processFetches(
	ctx context.Context, fetches kgo.Fetches,
) error {
	const op = "processFetches"

	values := c.toDomain(fetches)
	if len(values) == 0 {
		return nil
	}

	err := c.handler.HandleCartEvents(ctx, values)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

func (c CartEventsConsumer) toDomain(
	fetches kgo.Fetches,
) (vs []domain.CartEvent) {
	const op = "toDomain"
	log := slog.With("op", makeOp(c.opPrefix, op))

	fetches.EachRecord(func(r *kgo.Record) {
		v, err := c.decodeRecValue(r)
		if err != nil {
			log.Error(
				"failed to decode value",
				"err", opErr(err, c.opPrefix, op),
			)
			return
		}
		vs = append(vs, v)
	})
	return vs
}

func (c CartEventsConsumer) decodeRecValue(
	r *kgo.Record,
) (domain.CartEvent, error) {
	var s schema.CartEventV1
	err := c.decoder.Decode(r.Value, &s)
	if err != nil {
		return domain.CartEvent{}, err
	}
	return schemaV1ToCartEvent(s), nil
}
