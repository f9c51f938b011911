package types

// LifecycleEvent is a platform-agnostic process lifecycle transition.
type LifecycleEvent string

// The four transitions republished by the lifecycle bus.
// DidEnterBackground is only delivered by mobile hosts.
const (
	WillTerminate      LifecycleEvent = "willTerminate"
	DidBecomeActive    LifecycleEvent = "didBecomeActive"
	WillResignActive   LifecycleEvent = "willResignActive"
	DidEnterBackground LifecycleEvent = "didEnterBackground"
)

// String returns the event name.
func (e LifecycleEvent) String() string { return string(e) }

// LifecycleState is the process state tracked by the lifecycle bus.
type LifecycleState int

// Active ⇄ Inactive → Background → Terminated; Terminated is absorbing.
const (
	Active LifecycleState = iota
	Inactive
	Background
	Terminated
)

// String returns a human readable state name.
func (s LifecycleState) String() string {
	switch s {
	case Active:
		return "active"
	case Inactive:
		return "inactive"
	case Background:
		return "background"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}
