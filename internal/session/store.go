// internal/session/store.go
package session

import (
	"context"
	"sync"
	"time"

	"autoease/internal/catalog"
	apperrors "autoease/internal/common/errors"
	"autoease/internal/common/logger"
	"autoease/internal/common/metrics"
)

// Store keeps live sessions in memory and expires idle ones.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session

	catalogs *catalog.Holder
	ranker   Ranker
	slots    SlotSource
	opts     Options
	ttl      time.Duration
	logger   logger.Logger
}

func NewStore(catalogs *catalog.Holder, ranker Ranker, slots SlotSource, opts Options, ttl time.Duration, log logger.Logger) *Store {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Store{
		sessions: make(map[string]*Session),
		catalogs: catalogs,
		ranker:   ranker,
		slots:    slots,
		opts:     opts,
		ttl:      ttl,
		logger:   log.WithFields(map[string]interface{}{"component": "session-store"}),
	}
}

// Create starts a session on the current catalog snapshot.
func (st *Store) Create() *Session {
	s := New(st.catalogs.Current(), st.ranker, st.slots, st.opts, st.logger)

	st.mu.Lock()
	st.sessions[s.ID()] = s
	n := len(st.sessions)
	st.mu.Unlock()

	metrics.SessionsActive.Set(float64(n))
	return s
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok || st.expired(s) {
		return nil, apperrors.NewSessionNotFoundError(id)
	}
	return s, nil
}

func (st *Store) Delete(id string) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	n := len(st.sessions)
	st.mu.Unlock()

	if ok {
		s.Close()
	}
	metrics.SessionsActive.Set(float64(n))
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (st *Store) Sweep() int {
	st.mu.Lock()
	var expired []*Session
	for id, s := range st.sessions {
		if st.expired(s) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	n := len(st.sessions)
	st.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	metrics.SessionsActive.Set(float64(n))
	if len(expired) > 0 {
		st.logger.Info("expired idle sessions", map[string]interface{}{"count": len(expired)})
	}
	return len(expired)
}

// RunJanitor sweeps every interval until ctx is done.
func (st *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}

func (st *Store) expired(s *Session) bool {
	if st.ttl <= 0 {
		return false
	}
	return st.opts.Clock().Sub(s.lastActivity()) > st.ttl
}
