package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/shopcart/internal/core/domain"
	"github.com/niksmo/shopcart/internal/core/port"
)

const (
	DefaultPlainTTL = 3 * time.Second
	DefaultRichTTL  = 4 * time.Second
	DefaultExit     = 300 * time.Millisecond
)

type NotifierConfig struct {
	PlainTTL time.Duration
	RichTTL  time.Duration
	Exit     time.Duration
}

func (c *NotifierConfig) normalize() {
	if c.PlainTTL <= 0 {
		c.PlainTTL = DefaultPlainTTL
	}
	if c.RichTTL <= 0 {
		c.RichTTL = DefaultRichTTL
	}
	if c.Exit <= 0 {
		c.Exit = DefaultExit
	}
}

type notificationEntry struct {
	n     domain.Notification
	timer port.Timer
}

// A Notifier keeps the transient notifications of one session.
//
// At most one plain notification is visible; a new one replaces it.
// Rich notifications stack and expire independently.
type Notifier struct {
	mu       sync.Mutex
	cfg      NotifierConfig
	sched    port.Scheduler
	clock    port.Clock
	recorder port.NotificationsRecorder

	plain  *notificationEntry
	rich   []*notificationEntry
	closed bool
}

// NewNotifier creates a Notifier. A nil recorder is allowed.
func NewNotifier(
	cfg NotifierConfig,
	sched port.Scheduler,
	clock port.Clock,
	recorder port.NotificationsRecorder,
) *Notifier {
	cfg.normalize()
	return &Notifier{
		cfg:      cfg,
		sched:    sched,
		clock:    clock,
		recorder: recorder,
	}
}

// NotifyPlain shows message in the single plain slot and returns its id.
func (n *Notifier) NotifyPlain(message string) string {
	id := uuid.NewString()

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return id
	}
	if n.plain != nil {
		n.plain.timer.Stop()
	}
	n.plain = &notificationEntry{
		n: domain.Notification{
			ID:        id,
			Kind:      domain.NotificationPlain,
			Message:   message,
			CreatedAt: n.clock.Now(),
		},
		timer: n.sched.AfterFunc(n.cfg.PlainTTL, func() { n.expire(id) }),
	}
	n.mu.Unlock()

	n.record(domain.NotificationPlain)
	return id
}

// NotifyRich appends a titled notification to the stack and returns its id.
func (n *Notifier) NotifyRich(message, title, icon string) string {
	id := uuid.NewString()
	if title == "" {
		title = domain.DefaultRichTitle
	}
	if icon == "" {
		icon = domain.DefaultRichIcon
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return id
	}
	n.rich = append(n.rich, &notificationEntry{
		n: domain.Notification{
			ID:        id,
			Kind:      domain.NotificationRich,
			Message:   message,
			Title:     title,
			Icon:      icon,
			CreatedAt: n.clock.Now(),
		},
		timer: n.sched.AfterFunc(n.cfg.RichTTL, func() { n.expire(id) }),
	})
	n.mu.Unlock()

	n.record(domain.NotificationRich)
	return id
}

// Dismiss closes a notification on user request.
//
// A rich notification is marked as leaving and removed after the exit
// transition; a plain one is removed at once.
func (n *Notifier) Dismiss(id string) error {
	const op = "Notifier.Dismiss"

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.plain != nil && n.plain.n.ID == id {
		n.plain.timer.Stop()
		n.plain = nil
		return nil
	}

	for _, e := range n.rich {
		if e.n.ID != id {
			continue
		}
		if e.n.Leaving {
			return nil
		}
		e.timer.Stop()
		e.n.Leaving = true
		e.timer = n.sched.AfterFunc(n.cfg.Exit, func() { n.expire(id) })
		return nil
	}

	return fmt.Errorf("%s: %q: %w", op, id, domain.ErrNotificationNotFound)
}

// Active returns the visible notifications: the plain one first,
// then the rich stack, newest last.
func (n *Notifier) Active() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]domain.Notification, 0, len(n.rich)+1)
	if n.plain != nil {
		out = append(out, n.plain.n)
	}
	for _, e := range n.rich {
		out = append(out, e.n)
	}
	return out
}

// Close stops all pending timers and drops every notification.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.closed = true
	if n.plain != nil {
		n.plain.timer.Stop()
		n.plain = nil
	}
	for _, e := range n.rich {
		e.timer.Stop()
	}
	n.rich = nil
}

func (n *Notifier) expire(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.plain != nil && n.plain.n.ID == id {
		n.plain = nil
		return
	}
	for i, e := range n.rich {
		if e.n.ID == id {
			n.rich = append(n.rich[:i], n.rich[i+1:]...)
			return
		}
	}
}

func (n *Notifier) record(kind domain.NotificationKind) {
	if n.recorder != nil {
		n.recorder.RecordNotification(kind)
	}
}
