package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"quizbot/core/logger"
)

// Store owns all sessions. Lookups take the store lock briefly; the
// callback passed to WithLock runs under the per-user lock only, so
// slow handlers for one user never block other users.
type Store struct {
	mu      sync.Mutex
	entries map[int64]*entry

	ttl time.Duration
	now func() time.Time
}

type entry struct {
	mu      sync.Mutex
	sess    Session
	touched time.Time
}

// NewStore creates a store evicting sessions idle longer than ttl.
// A ttl of zero disables eviction.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[int64]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *Store) entryFor(userID int64) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok {
		e = &entry{touched: s.now()}
		s.entries[userID] = e
		logger.LogEvent(context.Background(), logger.Session, slog.LevelDebug, "session.created",
			slog.String("status", "ok"), slog.Int64("user_id", userID))
	}
	return e
}

// WithLock runs fn with exclusive access to the user's session. The
// session is created on first use and its idle clock is reset after fn
// returns.
func (s *Store) WithLock(userID int64, fn func(*Session) error) error {
	e := s.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	err := fn(&e.sess)
	e.touched = s.now()
	return err
}

// Peek returns a copy of the user's session without creating one.
func (s *Store) Peek(userID int64) (Session, bool) {
	s.mu.Lock()
	e, ok := s.entries[userID]
	s.mu.Unlock()
	if !ok {
		return Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess, true
}

// InProgress reports whether the user has an active dialogue stage.
func (s *Store) InProgress(userID int64) bool {
	sess, ok := s.Peek(userID)
	return ok && sess.Stage.InProgress()
}

// Reset drops the user's session entirely. Calling it for an unknown
// user is a no-op.
func (s *Store) Reset(userID int64) {
	s.mu.Lock()
	_, ok := s.entries[userID]
	delete(s.entries, userID)
	s.mu.Unlock()
	if ok {
		logger.LogEvent(context.Background(), logger.Session, slog.LevelDebug, "session.reset",
			slog.String("status", "ok"), slog.Int64("user_id", userID))
	}
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Janitor evicts idle sessions every interval until ctx is done.
func (s *Store) Janitor(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.evictIdle(); n > 0 {
				logger.LogEvent(ctx, logger.Session, slog.LevelInfo, "session.evicted",
					slog.String("status", "ok"), slog.Int("count", n))
			}
		}
	}
}

// evictIdle removes sessions idle past the ttl. Entries currently held
// by a handler are skipped and picked up on a later sweep.
func (s *Store) evictIdle() int {
	deadline := s.now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for id, e := range s.entries {
		if !e.mu.TryLock() {
			continue
		}
		idle := e.touched.Before(deadline)
		e.mu.Unlock()
		if idle {
			delete(s.entries, id)
			n++
		}
	}
	return n
}
