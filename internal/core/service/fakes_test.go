package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/niksmo/shopcart/internal/adapter/storage"
	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
	"github.com/stretchr/testify/mock"
)

// fakeScheduler is a manual clock; timers fire only from Advance.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	s       *fakeScheduler
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{now: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) port.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, at: s.now.Add(d), fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Advance moves the clock and runs every due timer in deadline order.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	s.mu.Unlock()

	for {
		t := s.nextDue()
		if t == nil {
			return
		}
		t.fn()
	}
}

func (s *fakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (s *fakeScheduler) nextDue() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && !t.at.After(s.now) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	due[0].fired = true
	return due[0]
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type MockEventsProducer struct {
	mock.Mock
}

func (m *MockEventsProducer) ProduceCartEvents(ctx context.Context, evts ...domain.CartEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

// eventsSink records produced events.
type eventsSink struct {
	mu   sync.Mutex
	evts []domain.CartEvent
}

func (s *eventsSink) ProduceCartEvents(_ context.Context, evts ...domain.CartEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evts = append(s.evts, evts...)
	return nil
}

func (s *eventsSink) Types() []domain.CartEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CartEventType, len(s.evts))
	for i, e := range s.evts {
		out[i] = e.Type
	}
	return out
}

func (s *eventsSink) Last() domain.CartEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evts[len(s.evts)-1]
}

func newRepository() (storage.CartRepository, *storage.MemoryKV) {
	kv := storage.NewMemoryKV()
	return storage.NewCartRepository(kv, domain.PHP), kv
}
