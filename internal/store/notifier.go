package store

import (
	"context"
	"time"

	"kharcha/internal/core"
)

// Notifier receives the one-shot reminder notification side effect. The
// store computes the fire instant (one day before the reminder's date at
// its stored wall-clock time) and only dispatches when that instant is
// still in the future.
type Notifier interface {
	ReminderDue(ctx context.Context, rem core.Reminder, fireAt time.Time) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, rem core.Reminder, fireAt time.Time) error

func (f NotifierFunc) ReminderDue(ctx context.Context, rem core.Reminder, fireAt time.Time) error {
	return f(ctx, rem, fireAt)
}
