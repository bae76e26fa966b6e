package port

import (
	"context"
	"sync"
	"time"

	"github.com/niksmo/shopcart/internal/core/domain"
)

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

// A CartStorage loads and saves the whole cart under one key.
//
// Load never reports malformed stored state: it yields an empty cart.
// Errors are backend failures only.
type CartStorage interface {
	LoadCart(ctx context.Context, key string) (domain.Cart, error)
	SaveCart(ctx context.Context, key string, cart domain.Cart) error
}

type CartEventsProducer interface {
	ProduceCartEvents(context.Context, ...domain.CartEvent) error
}

// A CartEventsHandler receives cart events read back from the stream.
type CartEventsHandler interface {
	HandleCartEvents(context.Context, []domain.CartEvent) error
}

type NotificationsRecorder interface {
	RecordNotification(domain.NotificationKind)
}

type SessionsGauge interface {
	SetActiveSessions(int)
}

type CartStatsReader interface {
	AddedCount(title string) (int64, error)
}

// A Runner is a background component started with the application.
// Run returns once the component is ready.
type Runner interface {
	runnerContextWg
	closer
}

// A Timer is a pending scheduled call.
type Timer interface {
	// Stop prevents the call. It reports false if the call already ran or was stopped.
	Stop() bool
}

type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type Clock interface {
	Now() time.Time
}
