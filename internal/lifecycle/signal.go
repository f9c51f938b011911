package lifecycle

import (
	"os"
	"os/signal"
	"sync"

	"statebox/internal/domain"
)

// SignalSource delivers lifecycle events for OS signals. Signals it handles
// no longer have their default effect (a SIGINT does not kill the process)
// while an observer is active, except a terminal stop: the process is still
// suspended, after the event has been delivered.
type SignalSource struct {
	mapping map[os.Signal]domain.LifecycleEvent
}

// NewSignalSource returns a source using DefaultSignals.
func NewSignalSource() *SignalSource {
	return NewSignalSourceFor(DefaultSignals())
}

// NewSignalSourceFor returns a source for a custom signal mapping.
func NewSignalSourceFor(mapping map[os.Signal]domain.LifecycleEvent) *SignalSource {
	m := make(map[os.Signal]domain.LifecycleEvent, len(mapping))
	for sig, ev := range mapping {
		m[sig] = ev
	}
	return &SignalSource{mapping: m}
}

// Observe starts relaying signals to deliver on a dedicated goroutine.
func (s *SignalSource) Observe(deliver func(domain.LifecycleEvent)) (stop func()) {
	sigs := make([]os.Signal, 0, len(s.mapping))
	for sig := range s.mapping {
		sigs = append(sigs, sig)
	}
	ch := make(chan os.Signal, len(sigs)+1)
	signal.Notify(ch, sigs...)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-ch:
				if ev, ok := s.mapping[sig]; ok {
					deliver(ev)
				}
				if suspendsProcess(sig) {
					stopProcess()
				}
			case <-done:
				return
			}
		}
	}()

	// stop does not wait for the relay goroutine: a handler may call it
	// from inside deliver.
	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}

// Compile-time assertion that SignalSource implements domain.LifecycleSource.
var _ domain.LifecycleSource = (*SignalSource)(nil)
