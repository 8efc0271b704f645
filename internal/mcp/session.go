// ABOUTME: In-memory session store for the streamable HTTP transport.
// ABOUTME: Owns session lifecycle: create, lookup, idle sweep, terminate, shutdown.

package mcp

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// session tracks one MCP client across requests.
type session struct {
	id        string
	client    string // client name from auth, empty when unauthenticated
	createdAt time.Time

	mu         sync.Mutex
	lastActive time.Time
	stream     Stream // attached GET stream, nil when none
}

func (s *session) touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// attachStream binds a server-to-client stream to the session, closing
// any previously attached one. A client that reconnects replaces its
// old stream rather than stacking a second.
func (s *session) attachStream(st Stream) {
	s.mu.Lock()
	old := s.stream
	s.stream = st
	s.lastActive = time.Now()
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
}

// releaseStream detaches st if it is still the current stream. The
// session itself stays alive so the client can reconnect; only DELETE
// or shutdown destroys it.
func (s *session) releaseStream(st Stream) {
	s.mu.Lock()
	if s.stream == st {
		s.stream = nil
		s.lastActive = time.Now()
	}
	s.mu.Unlock()
}

// notify sends a message event on the attached stream, if any.
func (s *session) notify(data []byte) {
	s.mu.Lock()
	st := s.stream
	s.mu.Unlock()

	if st != nil {
		_ = st.Send("message", data)
	}
}

func (s *session) hasStream() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream != nil
}

func (s *session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// sessionStore manages active MCP sessions (in-memory).
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session

	ttl    time.Duration
	logger *slog.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// newSessionStore creates a store that sweeps sessions idle longer than
// ttl. A zero ttl disables the sweeper; sessions then live until DELETE
// or shutdown.
func newSessionStore(ttl time.Duration, logger *slog.Logger) *sessionStore {
	s := &sessionStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		logger:   logger,
		done:     make(chan struct{}),
	}
	if ttl > 0 {
		go s.sweep()
	}
	return s
}

// create issues a new session with a unique id.
func (s *sessionStore) create(client string) *session {
	now := time.Now()
	sess := &session{
		id:         uuid.New().String(),
		client:     client,
		createdAt:  now,
		lastActive: now,
	}
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	return sess
}

// get looks up a session and marks it active.
func (s *sessionStore) get(id string) (*session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		sess.touch()
	}
	return sess, ok
}

// terminate destroys a session and closes its stream.
// Returns false if the id is unknown; terminating twice is harmless.
func (s *sessionStore) terminate(id string) bool {
	s.mu.Lock()
	sess, existed := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !existed {
		return false
	}

	sess.mu.Lock()
	st := sess.stream
	sess.stream = nil
	sess.mu.Unlock()
	if st != nil {
		st.Close()
	}
	return true
}

// count returns the number of live sessions.
func (s *sessionStore) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// all returns a snapshot of the live sessions.
func (s *sessionStore) all() []*session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// shutdown terminates every session and stops the sweeper.
func (s *sessionStore) shutdown() {
	s.closeOnce.Do(func() {
		close(s.done)
	})

	for _, sess := range s.all() {
		s.terminate(sess.id)
	}
}

// sweep periodically terminates sessions idle longer than the TTL.
// Sessions with an attached stream are considered active.
func (s *sessionStore) sweep() {
	interval := s.ttl / 4
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-s.ttl)
			for _, sess := range s.all() {
				if sess.hasStream() {
					continue
				}
				if sess.idleSince().Before(cutoff) {
					if s.terminate(sess.id) {
						s.logger.Info("session expired", "session_id", sess.id)
					}
				}
			}
		}
	}
}
