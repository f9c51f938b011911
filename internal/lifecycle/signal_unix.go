//go:build unix

package lifecycle

import (
	"os"
	"syscall"

	"statebox/internal/domain"
)

// DefaultSignals maps desktop unix signals to lifecycle events. Desktop
// processes have no background state, so DidEnterBackground is never sent.
func DefaultSignals() map[os.Signal]domain.LifecycleEvent {
	return map[os.Signal]domain.LifecycleEvent{
		syscall.SIGINT:  domain.WillTerminate,
		syscall.SIGTERM: domain.WillTerminate,
		syscall.SIGHUP:  domain.WillTerminate,
		syscall.SIGTSTP: domain.WillResignActive,
		syscall.SIGCONT: domain.DidBecomeActive,
	}
}

// suspendsProcess reports whether sig stops the process when left untrapped.
func suspendsProcess(sig os.Signal) bool { return sig == syscall.SIGTSTP }

// stopProcess suspends the process as an untrapped SIGTSTP would. SIGSTOP
// cannot be caught; the SIGCONT that resumes the process arrives as
// DidBecomeActive.
var stopProcess = func() { _ = syscall.Kill(syscall.Getpid(), syscall.SIGSTOP) }
