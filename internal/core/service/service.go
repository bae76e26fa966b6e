package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
)

var ErrStatsUnavailable = errors.New("cart stats are unavailable")

var _ port.CartEventsProducer = FanOut(nil)

type Service struct {
	sessions *Sessions
	stats    port.CartStatsReader
	runners  []port.Runner
}

// New creates the core service. stats is nil and there are no
// runners when the event stream is disabled.
func New(
	sessions *Sessions,
	stats port.CartStatsReader,
	runners ...port.Runner,
) Service {
	return Service{
		sessions: sessions,
		stats:    stats,
		runners:  runners,
	}
}

// Run runs the services components in separate goroutines.
//
// Blocks current goroutine while components is preparing to ready state.
func (s Service) Run(ctx context.Context, stopFn context.CancelFunc) {
	var wg sync.WaitGroup
	wg.Add(len(s.runners))
	for _, r := range s.runners {
		go r.Run(ctx, stopFn, &wg)
	}
	wg.Wait()
}

func (s Service) Close() {
	s.sessions.Close()
	for _, r := range s.runners {
		r.Close()
	}
}

func (s Service) Session(ctx context.Context, id string) *Session {
	return s.sessions.Get(ctx, id)
}

// ProductAddedCount reports how many times title was added to any cart.
func (s Service) ProductAddedCount(title string) (int64, error) {
	const op = "Service.ProductAddedCount"

	if s.stats == nil {
		return 0, fmt.Errorf("%s: %w", op, ErrStatsUnavailable)
	}
	n, err := s.stats.AddedCount(title)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// A FanOut delivers every event to all producers and joins their errors.
type FanOut []port.CartEventsProducer

func (f FanOut) ProduceCartEvents(ctx context.Context, evts ...domain.CartEvent) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.ProduceCartEvents(ctx, evts...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}
