package interfaces

import (
	"context"

	domaintypes "statebox/internal/domain/types"
)

// LifecycleHandler reacts to one lifecycle event. Returned errors go back to
// whoever published the event.
type LifecycleHandler func(ctx context.Context, ev domaintypes.LifecycleEvent) error

// LifecycleBus republishes platform lifecycle notifications to subscribers.
type LifecycleBus interface {
	Subscribe(ev domaintypes.LifecycleEvent, h LifecycleHandler) (unsubscribe func())
	Publish(ctx context.Context, ev domaintypes.LifecycleEvent) error
	State() domaintypes.LifecycleState
}

// LifecycleSource is the platform notification center. Observe calls deliver
// on the source's own goroutine for every notification until stop is called.
type LifecycleSource interface {
	Observe(deliver func(domaintypes.LifecycleEvent)) (stop func())
}
