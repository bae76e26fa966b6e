package service

import (
	"time"

	"github.com/niksmo/shopcart/internal/core/port"
)

var (
	_ port.Scheduler = SystemScheduler{}
	_ port.Clock     = SystemClock{}
)

// SystemScheduler runs calls on [time.AfterFunc] goroutines.
type SystemScheduler struct{}

func (SystemScheduler) AfterFunc(d time.Duration, fn func()) port.Timer {
	return time.AfterFunc(d, fn)
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
