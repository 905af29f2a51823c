// Package session keeps each user's uploaded record set in memory for the
// duration of one analysis session. Nothing here persists: a cleared or
// expired session simply discards its records.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"betmetrics/internal/cache"
	"betmetrics/internal/core"
)

// ErrUnknownSession is returned for IDs that never existed or whose
// session already expired.
var ErrUnknownSession = errors.New("unknown session")

// FileSummary describes one uploaded file's outcome within a session.
type FileSummary struct {
	Name     string
	Brand    core.Source
	Rows     int
	Dropped  int
	Warnings []string
}

// Session is the explicit per-user analysis state: the unified record set
// plus per-file load summaries. Computations receive it as an argument;
// there is no shared mutable global.
type Session struct {
	ID        string
	Records   []core.BetRecord
	Files     []FileSummary
	CreatedAt time.Time
}

// Store holds sessions keyed by cookie ID, bounded by count and TTL.
type Store struct {
	mu      sync.Mutex
	cache   *cache.LRUCache[*Session]
	manager *cache.Manager
}

// NewStore creates a store for at most maxSessions sessions. A session's
// TTL restarts on every upload or clear, so active sessions stay alive.
func NewStore(maxSessions int, ttl time.Duration) *Store {
	c := cache.NewLRUCache[*Session](maxSessions, ttl)
	m := cache.NewManager()
	m.Register(c)
	return &Store{cache: c, manager: m}
}

// StartCleanup begins periodic expiry sweeps.
func (s *Store) StartCleanup(interval time.Duration) {
	s.manager.StartCleanup(interval)
}

// Stop terminates the cleanup loop.
func (s *Store) Stop() {
	s.manager.Stop()
}

// Create registers a fresh session and returns it.
func (s *Store) Create() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &Session{ID: newSessionID(), CreatedAt: time.Now()}
	s.cache.Set(sess.ID, sess)
	return sess
}

// Lookup returns whether a session with this ID is still alive.
func (s *Store) Lookup(id string) bool {
	_, ok := s.cache.Get(id)
	return ok
}

// Append adds one file's records to the session and refreshes its TTL.
func (s *Store) Append(id string, file FileSummary, records []core.BetRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.cache.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	sess.Files = append(sess.Files, file)
	sess.Records = append(sess.Records, records...)
	s.cache.Set(id, sess)
	return nil
}

// Clear discards the session's records and file summaries but keeps the
// session itself alive, so the next upload starts a fresh analysis set.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.cache.Get(id)
	if !ok {
		return
	}
	sess.Files = nil
	sess.Records = nil
	s.cache.Set(id, sess)
}

// Records returns a copy of the session's record set, in upload order.
func (s *Store) Records(id string) []core.BetRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.cache.Get(id)
	if !ok {
		return nil
	}
	out := make([]core.BetRecord, len(sess.Records))
	copy(out, sess.Records)
	return out
}

// Files returns a copy of the session's per-file summaries.
func (s *Store) Files(id string) []FileSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.cache.Get(id)
	if !ok {
		return nil
	}
	out := make([]FileSummary, len(sess.Files))
	copy(out, sess.Files)
	return out
}

func newSessionID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to a timestamp if random fails
		return fmt.Sprintf("sess_%d", time.Now().UnixNano())
	}
	return "sess_" + hex.EncodeToString(bytes)
}
