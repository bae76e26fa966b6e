package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/lovoo/goka"
	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrTooFewOpts       = errors.New("too few options")
	ErrInvalidValueType = errors.New("invalid value type")
)

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

// ProducerClientOpt connects to seedBrokers. A nil tlsCfg dials
// plaintext.
func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, tlsCfg *tls.Config,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kopts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
			kgo.AllowAutoTopicCreation(),
		}
		cl, err := kgo.NewClient(append(kopts, TLSOpts(tlsCfg)...)...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

// ProducerWithClientOpt uses an already built client.
func ProducerWithClientOpt(cl ProducerClient) ProducerOpt {
	return func(opts *producerOpts) error {
		if cl == nil {
			return errors.New("producer client is nil")
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type ConsumerClient interface {
	PollFetches(context.Context) kgo.Fetches
	CommitUncommittedOffsets(context.Context) error
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Decoder interface {
	Decode(b []byte, v any) error
}

type Serde interface {
	Encoder
	Decoder
}

// TLSOpts returns the client options for tlsCfg, none when it is nil.
func TLSOpts(tlsCfg *tls.Config) []kgo.Opt {
	if tlsCfg == nil {
		return nil
	}
	return []kgo.Opt{kgo.DialTLSConfig(tlsCfg)}
}

// UseGokaTLS makes processors and views created afterwards dial
// brokers with tlsCfg.
func UseGokaTLS(tlsCfg *tls.Config) {
	if tlsCfg == nil {
		return
	}
	cfg := goka.DefaultConfig()
	cfg.Net.TLS.Enable = true
	cfg.Net.TLS.Config = tlsCfg
	goka.ReplaceGlobalConfig(cfg)
}

func withNonlogProcOpt() goka.ProcessorOption {
	return goka.WithLogger(log.New(io.Discard, "", 0))
}

func withNonlogViewOpt() goka.ViewOption {
	return goka.WithViewLogger(log.New(io.Discard, "", 0))
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func cartEventToSchemaV1(v domain.CartEvent) (s schema.CartEventV1) {
	s.Type = string(v.Type)
	s.SessionID = v.SessionID
	s.Title = v.Title
	s.Quantity = v.Quantity
	s.UnitPriceMinor = v.UnitPrice.Minor
	s.CartTotalMinor = v.CartTotal.Minor
	s.Currency = v.CartTotal.Currency.Code
	s.ItemCount = v.ItemCount
	s.OccurredAt = v.OccurredAt
	return
}

// schemaV1ToCartEvent restores a cart event. Only the currency code
// travels on the wire, so the symbol is taken from known currencies.
func schemaV1ToCartEvent(s schema.CartEventV1) (v domain.CartEvent) {
	cur := domain.Currency{Code: s.Currency}
	if cur.Code == domain.PHP.Code {
		cur = domain.PHP
	}
	v.Type = domain.CartEventType(s.Type)
	v.SessionID = s.SessionID
	v.Title = s.Title
	v.Quantity = s.Quantity
	v.UnitPrice = domain.Money{Minor: s.UnitPriceMinor, Currency: cur}
	v.CartTotal = domain.Money{Minor: s.CartTotalMinor, Currency: cur}
	v.ItemCount = s.ItemCount
	v.OccurredAt = s.OccurredAt
	return
}

// recordKey keys item events by title so that one product's events
// share a partition. Cart-wide events are keyed by session.
func recordKey(v domain.CartEvent) []byte {
	if v.Title != "" {
		return []byte(v.Title)
	}
	return []byte(v.SessionID)
}

const consumerSlowDown = time.Second
