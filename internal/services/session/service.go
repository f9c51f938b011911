package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"statebox/internal/domain"
	"statebox/internal/domain/types"
	"statebox/internal/metrics"
)

// defaultConcurrency bounds parallel restores during List.
const defaultConcurrency = 4

// ErrNotFound is returned by Append when the session does not exist.
var ErrNotFound = errors.New("session not found")

// Service lists, loads and persists chat sessions through a StateStore.
type Service struct {
	store       domain.StateStore
	log         *zap.Logger
	metrics     *metrics.Metrics
	concurrency int
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used to report skipped sessions.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics records listings on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithConcurrency bounds how many sessions List restores at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithClock overrides the time source used by Create and Append.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New constructs a Service backed by store.
func New(store domain.StateStore, opts ...Option) *Service {
	s := &Service{
		store:       store,
		log:         zap.NewNop(),
		concurrency: defaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every readable session, most recently modified first. Ties
// are broken by ascending ID.
func (s *Service) List(ctx context.Context) ([]domain.ChatSession, error) {
	keys, err := s.store.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var (
		mu       sync.Mutex
		sessions = make([]domain.ChatSession, 0, len(keys))
		skipped  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, key := range keys {
		if !strings.HasPrefix(key.String(), domain.SessionKeyPrefix) {
			continue
		}
		key := key
		g.Go(func() error {
			var sess domain.ChatSession
			found, err := s.store.Restore(gctx, key, &sess)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				// A context error means the whole listing was abandoned.
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				skipped++
				s.log.Warn("skipping unreadable session", zap.String("key", key.String()), zap.Error(err))
			case found && sess.ID == "":
				skipped++
				s.log.Warn("skipping session without id", zap.String("key", key.String()))
			case found:
				sessions = append(sessions, sess)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	SortByRecency(sessions)
	s.metrics.ObserveListing(len(sessions), skipped)
	return sessions, nil
}

// Recent returns at most n sessions from List.
func (s *Service) Recent(ctx context.Context, n int) ([]domain.ChatSession, error) {
	sessions, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if n >= 0 && len(sessions) > n {
		sessions = sessions[:n]
	}
	return sessions, nil
}

// Get loads one session. A missing session returns found=false.
func (s *Service) Get(ctx context.Context, id domain.SessionID) (domain.ChatSession, bool, error) {
	var sess domain.ChatSession
	found, err := s.store.Restore(ctx, types.SessionKey(id), &sess)
	if err != nil || !found {
		return domain.ChatSession{}, false, err
	}
	return sess, true, nil
}

// Put persists session under its ID.
func (s *Service) Put(ctx context.Context, session domain.ChatSession) error {
	if session.ID == "" {
		return fmt.Errorf("%w: %w: session has empty ID", domain.ErrStateSavingFailed, domain.ErrInvalidState)
	}
	return s.store.Save(ctx, types.SessionKey(session.ID), session)
}

// Remove deletes a session. Removing a missing session is a no-op.
func (s *Service) Remove(ctx context.Context, id domain.SessionID) error {
	return s.store.Delete(ctx, types.SessionKey(id))
}

// Create starts and persists an empty session with a fresh ID.
func (s *Service) Create(ctx context.Context, title string) (domain.ChatSession, error) {
	now := s.now().UTC()
	sess := domain.ChatSession{
		ID:           domain.SessionID(uuid.NewString()),
		Title:        title,
		Messages:     []domain.ChatMessage{},
		Created:      now,
		LastModified: now,
	}
	if err := s.Put(ctx, sess); err != nil {
		return domain.ChatSession{}, err
	}
	return sess, nil
}

// Append adds a message to an existing session and bumps LastModified.
func (s *Service) Append(ctx context.Context, id domain.SessionID, sender, content string) (domain.ChatSession, error) {
	sess, found, err := s.Get(ctx, id)
	if err != nil {
		return domain.ChatSession{}, err
	}
	if !found {
		return domain.ChatSession{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	now := s.now().UTC()
	sess.Messages = append(sess.Messages, domain.ChatMessage{
		ID:        uuid.NewString(),
		Sender:    sender,
		Content:   content,
		Timestamp: now,
	})
	sess.LastModified = now
	if err := s.Put(ctx, sess); err != nil {
		return domain.ChatSession{}, err
	}
	return sess, nil
}

// SortByRecency orders sessions by LastModified descending, then ID ascending.
func SortByRecency(sessions []domain.ChatSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if !a.LastModified.Equal(b.LastModified) {
			return a.LastModified.After(b.LastModified)
		}
		return a.ID < b.ID
	})
}

// Compile-time assertion that Service implements domain.SessionCatalog.
var _ domain.SessionCatalog = (*Service)(nil)
