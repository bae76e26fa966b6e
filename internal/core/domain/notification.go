package domain

import "time"

type NotificationKind string

const (
	NotificationPlain NotificationKind = "plain"
	NotificationRich  NotificationKind = "rich"
)

const (
	DefaultRichTitle = "Notification"
	DefaultRichIcon  = "fa-check-circle"
)

type Notification struct {
	ID        string
	Kind      NotificationKind
	Message   string
	Title     string
	Icon      string
	CreatedAt time.Time

	// Leaving is set while a dismissed rich notification plays its exit transition.
	Leaving bool
}
