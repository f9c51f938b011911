package interfaces

import (
	"context"

	domaintypes "statebox/internal/domain/types"
)

// SessionCatalog is the recency-ordered view over persisted chat sessions.
type SessionCatalog interface {
	List(ctx context.Context) ([]domaintypes.ChatSession, error)
	Get(ctx context.Context, id domaintypes.SessionID) (domaintypes.ChatSession, bool, error)
	Put(ctx context.Context, session domaintypes.ChatSession) error
	Remove(ctx context.Context, id domaintypes.SessionID) error
}

// WindowService saves and restores the main window geometry.
type WindowService interface {
	Save(ctx context.Context, frame domaintypes.WindowFrame) error
	Load(ctx context.Context) domaintypes.WindowFrame
}
