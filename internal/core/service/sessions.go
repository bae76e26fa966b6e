package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
)

const DefaultStorageKey = "dcreativecraftsCart"

type SessionsConfig struct {
	StorageKey    string
	Currency      domain.Currency
	Notifications NotifierConfig
	CheckoutDelay time.Duration
	Welcome       WelcomeConfig
	// IdleTTL releases sessions not seen for that long. Zero keeps them
	// until Close.
	IdleTTL time.Duration
}

// SessionsDeps are the adapters shared by all sessions.
// Events, Recorder and Gauge may be nil.
type SessionsDeps struct {
	Storage   port.CartStorage
	Events    port.CartEventsProducer
	Scheduler port.Scheduler
	Clock     port.Clock
	Recorder  port.NotificationsRecorder
	Gauge     port.SessionsGauge
}

// Sessions owns one [Session] per browser session id.
type Sessions struct {
	mu       sync.Mutex
	byID     map[string]*Session
	lastSeen map[string]time.Time
	sweeper  port.Timer
	cfg      SessionsConfig
	deps     SessionsDeps
	closed   bool
}

func NewSessions(cfg SessionsConfig, deps SessionsDeps) *Sessions {
	if cfg.StorageKey == "" {
		cfg.StorageKey = DefaultStorageKey
	}
	if cfg.Currency == (domain.Currency{}) {
		cfg.Currency = domain.PHP
	}
	if deps.Scheduler == nil {
		deps.Scheduler = SystemScheduler{}
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	ss := &Sessions{
		byID:     make(map[string]*Session),
		lastSeen: make(map[string]time.Time),
		cfg:      cfg,
		deps:     deps,
	}
	if cfg.IdleTTL > 0 {
		ss.sweeper = deps.Scheduler.AfterFunc(ss.sweepInterval(), ss.sweepTick)
	}
	return ss
}

// Get returns the session for id, restoring its cart from storage
// the first time the id is seen.
//
// The cart is loaded without holding the registry lock. When two
// requests race on a new id the first one registered wins.
func (ss *Sessions) Get(ctx context.Context, id string) *Session {
	ss.mu.Lock()
	if s, ok := ss.byID[id]; ok {
		ss.lastSeen[id] = ss.deps.Clock.Now()
		ss.mu.Unlock()
		return s
	}
	ss.mu.Unlock()

	s := ss.newSession(ctx, id)

	ss.mu.Lock()
	defer ss.mu.Unlock()

	if cur, ok := ss.byID[id]; ok {
		s.Close()
		ss.lastSeen[id] = ss.deps.Clock.Now()
		return cur
	}
	if !ss.closed {
		ss.byID[id] = s
		ss.lastSeen[id] = ss.deps.Clock.Now()
		s.scheduleWelcome(ss.cfg.Welcome, ss.deps.Scheduler)
	}
	ss.setGauge()
	return s
}

// Sweep releases sessions idle for at least IdleTTL and returns how
// many were released. Their carts stay persisted.
func (ss *Sessions) Sweep() int {
	const op = "Sessions.Sweep"

	if ss.cfg.IdleTTL <= 0 {
		return 0
	}

	ss.mu.Lock()
	cutoff := ss.deps.Clock.Now().Add(-ss.cfg.IdleTTL)
	var idle []*Session
	for id, seen := range ss.lastSeen {
		if seen.After(cutoff) {
			continue
		}
		if s, ok := ss.byID[id]; ok {
			idle = append(idle, s)
		}
		delete(ss.byID, id)
		delete(ss.lastSeen, id)
	}
	if len(idle) > 0 {
		ss.setGauge()
	}
	ss.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	if len(idle) > 0 {
		slog.Debug("idle sessions released", "op", op, "count", len(idle))
	}
	return len(idle)
}

func (ss *Sessions) sweepInterval() time.Duration {
	return max(ss.cfg.IdleTTL/2, time.Second)
}

func (ss *Sessions) sweepTick() {
	ss.Sweep()

	ss.mu.Lock()
	defer ss.mu.Unlock()
	if !ss.closed {
		ss.sweeper = ss.deps.Scheduler.AfterFunc(ss.sweepInterval(), ss.sweepTick)
	}
}

func (ss *Sessions) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.byID)
}

// Close stops every session's timers. Carts stay persisted.
func (ss *Sessions) Close() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	ss.closed = true
	if ss.sweeper != nil {
		ss.sweeper.Stop()
	}
	for id, s := range ss.byID {
		s.Close()
		delete(ss.byID, id)
		delete(ss.lastSeen, id)
	}
	ss.setGauge()
}

func (ss *Sessions) StorageKey(id string) string {
	return ss.cfg.StorageKey + ":" + id
}

func (ss *Sessions) newSession(ctx context.Context, id string) *Session {
	key := ss.StorageKey(id)
	cart := ss.loadCart(ctx, id, key)

	notifier := NewNotifier(
		ss.cfg.Notifications, ss.deps.Scheduler, ss.deps.Clock, ss.deps.Recorder,
	)

	store := NewCartStore(CartStoreParams{
		SessionID:  id,
		StorageKey: key,
		Currency:   ss.cfg.Currency,
		Cart:       cart,
		Storage:    ss.deps.Storage,
		Events:     ss.deps.Events,
		Notifier:   notifier,
		Clock:      ss.deps.Clock,
	})

	s := &Session{
		ID:       id,
		Store:    store,
		Notifier: notifier,
		currency: ss.cfg.Currency,
	}
	s.Checkout = NewCheckout(
		ss.cfg.CheckoutDelay, ss.deps.Scheduler, store, notifier, s.ClosePanel,
	)
	return s
}

func (ss *Sessions) loadCart(ctx context.Context, id, key string) domain.Cart {
	const op = "Sessions.loadCart"
	log := slog.With("op", op, "session", id)

	cart, err := ss.deps.Storage.LoadCart(ctx, key)
	if err != nil {
		log.Error("failed to load cart, starting empty", "err", err)
		return domain.Cart{}
	}
	log.Debug("cart restored", "items", cart.Len())
	return cart
}

func (ss *Sessions) setGauge() {
	if ss.deps.Gauge != nil {
		ss.deps.Gauge.SetActiveSessions(len(ss.byID))
	}
}
