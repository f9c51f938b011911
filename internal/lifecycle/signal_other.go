//go:build !unix

package lifecycle

import (
	"os"

	"statebox/internal/domain"
)

// DefaultSignals maps the only portable signal, os.Interrupt, to termination.
func DefaultSignals() map[os.Signal]domain.LifecycleEvent {
	return map[os.Signal]domain.LifecycleEvent{
		os.Interrupt: domain.WillTerminate,
	}
}

func suspendsProcess(os.Signal) bool { return false }

var stopProcess = func() {}
