// Package lifecycle republishes process lifecycle notifications as
// platform-agnostic events.
//
// A Bus tracks the process state (Active ⇄ Inactive → Background →
// Terminated) and fans each event out to the handlers subscribed to it.
// Handlers run synchronously on the goroutine that delivered the event, so
// anything slow (disk I/O in particular) belongs on the state store's
// background path rather than inline. Once Terminated, further events are
// dropped.
//
// A Source stands in for the platform notification center. SignalSource
// binds the bus to OS signals; tests inject their own Source.
package lifecycle
