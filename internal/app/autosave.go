package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"statebox/internal/domain"
)

// FlushFunc persists one piece of in-memory state.
type FlushFunc func(ctx context.Context) error

type flush struct {
	name string
	fn   FlushFunc
}

// Autosaver flushes registered state whenever the process is about to lose
// focus or exit, and closes the store on willTerminate.
type Autosaver struct {
	mu      sync.Mutex
	flushes []flush

	closer io.Closer
	log    *zap.Logger
	unsub  []func()
}

// NewAutosaver subscribes to bus. closer, usually the store, is closed after
// the final flush on willTerminate; it may be nil.
func NewAutosaver(bus domain.LifecycleBus, closer io.Closer, log *zap.Logger) *Autosaver {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Autosaver{closer: closer, log: log}
	for _, ev := range []domain.LifecycleEvent{domain.WillResignActive, domain.DidEnterBackground, domain.WillTerminate} {
		a.unsub = append(a.unsub, bus.Subscribe(ev, a.handle))
	}
	return a
}

// Register adds fn to the flush list under name.
func (a *Autosaver) Register(name string, fn FlushFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.flushes = append(a.flushes, flush{name: name, fn: fn})
}

// Flush runs every registered flush in order and joins their errors.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	fs := append([]flush(nil), a.flushes...)
	a.mu.Unlock()

	var errs []error
	for _, f := range fs {
		if err := f.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush %s: %w", f.name, err))
		}
	}
	return errors.Join(errs...)
}

// Stop unsubscribes from the bus.
func (a *Autosaver) Stop() {
	for _, u := range a.unsub {
		u()
	}
}

func (a *Autosaver) handle(ctx context.Context, ev domain.LifecycleEvent) error {
	err := a.Flush(ctx)
	if err != nil {
		a.log.Warn("autosave failed", zap.Stringer("event", ev), zap.Error(err))
	} else {
		a.log.Debug("autosaved", zap.Stringer("event", ev))
	}
	if ev != domain.WillTerminate || a.closer == nil {
		return err
	}
	if cerr := a.closer.Close(); cerr != nil {
		err = errors.Join(err, fmt.Errorf("close store: %w", cerr))
	}
	return err
}
