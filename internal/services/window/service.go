// Package window persists the main window geometry.
//
// Window geometry is optional state: Load never fails, it falls back to
// DefaultFrame and logs why.
package window

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"statebox/internal/domain"
)

// FrameKey is the store key holding the window frame.
const FrameKey domain.Key = "window_frame"

// DefaultFrame is used when no valid frame has been saved.
var DefaultFrame = domain.WindowFrame{X: 100, Y: 100, Width: 1024, Height: 768}

// Service saves and restores the window frame.
type Service struct {
	store domain.StateStore
	log   *zap.Logger
}

// New constructs a Service backed by store.
func New(store domain.StateStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log}
}

// Save persists frame. Frames with non-positive size are rejected.
func (s *Service) Save(ctx context.Context, frame domain.WindowFrame) error {
	if frame.Width <= 0 || frame.Height <= 0 {
		return fmt.Errorf("%w: %w: window size %vx%v", domain.ErrStateSavingFailed, domain.ErrInvalidState, frame.Width, frame.Height)
	}
	return s.store.Save(ctx, FrameKey, frame)
}

// Load returns the saved frame, or DefaultFrame if none is saved or it
// cannot be read.
func (s *Service) Load(ctx context.Context) domain.WindowFrame {
	var frame domain.WindowFrame
	found, err := s.store.Restore(ctx, FrameKey, &frame)
	switch {
	case err != nil:
		s.log.Warn("window frame unreadable, using default", zap.Error(err))
		return DefaultFrame
	case !found:
		return DefaultFrame
	case frame.Width <= 0 || frame.Height <= 0:
		s.log.Warn("saved window frame has no area, using default",
			zap.Float64("width", frame.Width), zap.Float64("height", frame.Height))
		return DefaultFrame
	}
	return frame
}

// Compile-time assertion that Service implements domain.WindowService.
var _ domain.WindowService = (*Service)(nil)
