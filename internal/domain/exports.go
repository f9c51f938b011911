package domain

import (
	interfaces "statebox/internal/domain/interfaces"
	types "statebox/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Key            = types.Key
	SessionID      = types.SessionID
	ChatSession    = types.ChatSession
	ChatMessage    = types.ChatMessage
	WindowFrame    = types.WindowFrame
	LifecycleEvent = types.LifecycleEvent
	LifecycleState = types.LifecycleState
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	Cipher           = interfaces.Cipher
	StateStore       = interfaces.StateStore
	SessionCatalog   = interfaces.SessionCatalog
	WindowService    = interfaces.WindowService
	LifecycleBus     = interfaces.LifecycleBus
	LifecycleSource  = interfaces.LifecycleSource
	LifecycleHandler = interfaces.LifecycleHandler
)

// Lifecycle events and states re-exported for callers that only import domain.
const (
	WillTerminate      = types.WillTerminate
	DidBecomeActive    = types.DidBecomeActive
	WillResignActive   = types.WillResignActive
	DidEnterBackground = types.DidEnterBackground

	Active     = types.Active
	Inactive   = types.Inactive
	Background = types.Background
	Terminated = types.Terminated
)

// SessionKeyPrefix is the namespace prefix for persisted chat sessions.
const SessionKeyPrefix = types.SessionKeyPrefix
