// Package clock abstracts wall-clock time so date-sensitive logic (overdue
// detection, reminder windows, revenue bucketing) stays testable.
package clock

import (
	"time"

	"go.uber.org/fx"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

func NewSystemClock() Clock {
	return SystemClock{}
}

// Module wires the system clock for production apps.
var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)
