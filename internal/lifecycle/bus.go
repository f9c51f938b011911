package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"statebox/internal/domain"
	"statebox/internal/metrics"
)

type subscription struct {
	id uint64
	h  domain.LifecycleHandler
}

// Bus fans lifecycle events out to subscribed handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[domain.LifecycleEvent][]subscription
	nextID   uint64
	state    domain.LifecycleState

	log     *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used for source delivery failures.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.log = l
		}
	}
}

// WithMetrics counts published events on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bus) { b.metrics = m }
}

// NewBus returns a Bus in the Active state.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		handlers: make(map[domain.LifecycleEvent][]subscription),
		state:    domain.Active,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers h for ev. The returned function removes it and may be
// called more than once.
func (b *Bus) Subscribe(ev domain.LifecycleEvent, h domain.LifecycleHandler) (unsubscribe func()) {
	if h == nil {
		return func() {}
	}
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[ev] = append(b.handlers[ev], subscription{id: id, h: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			subs := b.handlers[ev]
			for i, s := range subs {
				if s.id == id {
					b.handlers[ev] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish moves the bus to the state ev implies and runs the handlers for ev
// in subscription order on the calling goroutine. Handler errors are joined
// and returned. Events published after Terminated are dropped.
func (b *Bus) Publish(ctx context.Context, ev domain.LifecycleEvent) error {
	if !Known(ev) {
		return fmt.Errorf("%w: unknown lifecycle event %q", domain.ErrInvalidState, ev)
	}

	b.mu.Lock()
	if b.state == domain.Terminated {
		b.mu.Unlock()
		b.log.Debug("lifecycle event after termination dropped", zap.Stringer("event", ev))
		return nil
	}
	from, to := b.state, next(b.state, ev)
	b.state = to
	subs := append([]subscription(nil), b.handlers[ev]...)
	b.mu.Unlock()

	b.metrics.ObserveLifecycle(ev.String())
	b.log.Debug("lifecycle transition",
		zap.Stringer("event", ev),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)

	var errs []error
	for _, s := range subs {
		if err := s.h(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// State returns the current lifecycle state.
func (b *Bus) State() domain.LifecycleState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Listen publishes every event src delivers until the returned stop is
// called. Handler errors have no caller to return to here, so they are logged.
func (b *Bus) Listen(src domain.LifecycleSource) (stop func()) {
	return src.Observe(func(ev domain.LifecycleEvent) {
		if err := b.Publish(context.Background(), ev); err != nil {
			b.log.Error("lifecycle handler failed", zap.Stringer("event", ev), zap.Error(err))
		}
	})
}

// Known reports whether ev is one of the four lifecycle events.
func Known(ev domain.LifecycleEvent) bool {
	switch ev {
	case domain.WillTerminate, domain.DidBecomeActive, domain.WillResignActive, domain.DidEnterBackground:
		return true
	}
	return false
}

// next returns the state after ev is observed in state s.
func next(s domain.LifecycleState, ev domain.LifecycleEvent) domain.LifecycleState {
	switch ev {
	case domain.WillTerminate:
		return domain.Terminated
	case domain.DidBecomeActive:
		return domain.Active
	case domain.DidEnterBackground:
		return domain.Background
	case domain.WillResignActive:
		if s == domain.Active {
			return domain.Inactive
		}
	}
	return s
}

// Compile-time assertion that Bus implements domain.LifecycleBus.
var _ domain.LifecycleBus = (*Bus)(nil)
