package internal

import (
	"context"
	"time"
)

// detached keeps the values of a parent context but none of its
// cancellation or deadline
type detached struct {
	parent context.Context
}

func (detached) Deadline() (time.Time, bool) { return time.Time{}, false }

func (detached) Done() <-chan struct{} { return nil }

func (detached) Err() error { return nil }

func (d detached) Value(key interface{}) interface{} { return d.parent.Value(key) }

// ContextWithoutCancel returns a context that outlives ctx; migrations run
// under it so a signal never interrupts a statement batch
func ContextWithoutCancel(ctx context.Context) context.Context {
	return detached{parent: ctx}
}
