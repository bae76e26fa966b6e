package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lovoo/goka"
	"github.com/lovoo/goka/codec"
	"github.com/niksmo/shopcart/internal/core/port"
)

var (
	_ port.CartStatsReader = (*CartStatsView)(nil)
	_ port.Runner          = (*CartStatsView)(nil)
)

const viewReadyPoll = 100 * time.Millisecond

var ErrViewNotReady = errors.New("view is not recovered yet")

// A CartStatsView reads the [CartStatsProcessor] group table.
type CartStatsView struct {
	opPrefix string
	gv       *goka.View
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewCartStatsView(seedBrokers []string, group string) (*CartStatsView, error) {
	const op = "NewCartStatsView"

	gv, err := goka.NewView(
		seedBrokers,
		goka.GroupTable(goka.Group(group)),
		new(codec.Int64),
		withNonlogViewOpt(),
	)
	if err != nil {
		return nil, opErr(err, op)
	}

	return &CartStatsView{
		opPrefix: "CartStatsView",
		gv:       gv,
		done:     make(chan struct{}),
	}, nil
}

// Run starts the view and returns once it is recovered or ctx is done.
func (v *CartStatsView) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "Run"
	log := slog.With("op", makeOp(v.opPrefix, op))

	defer wg.Done()

	runCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	go v.runView(runCtx, stopFn)

	log.Info("preparing...")
	v.waitForReady(ctx)
	log.Info("running")
}

func (v *CartStatsView) runView(ctx context.Context, stopFn context.CancelFunc) {
	const op = "runView"
	log := slog.With("op", makeOp(v.opPrefix, op))

	defer close(v.done)
	defer stopFn()

	if err := v.gv.Run(ctx); err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (v *CartStatsView) waitForReady(ctx context.Context) {
	t := time.NewTicker(viewReadyPoll)
	defer t.Stop()
	for !v.gv.Recovered() {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func (v *CartStatsView) Close() {
	const op = "Close"
	log := slog.With("op", makeOp(v.opPrefix, op))

	log.Info("closing view...")
	if v.cancel != nil {
		v.cancel()
		<-v.done
	}
	log.Info("view is closed")
}

// AddedCount reports how many times title was added to any cart.
// An unknown title counts zero.
func (v *CartStatsView) AddedCount(title string) (int64, error) {
	const op = "AddedCount"

	if !v.gv.Recovered() {
		return 0, opErr(ErrViewNotReady, v.opPrefix, op)
	}

	val, err := v.gv.Get(title)
	if err != nil {
		return 0, opErr(err, v.opPrefix, op)
	}
	if val == nil {
		return 0, nil
	}

	n, ok := val.(int64)
	if !ok {
		err := fmt.Errorf("%w: %T", ErrInvalidValueType, val)
		return 0, opErr(err, v.opPrefix, op)
	}
	return n, nil
}
