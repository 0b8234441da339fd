package main

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

type SessionState string

const (
	SessionWaiting SessionState = "waiting"
	SessionMatched SessionState = "matched"
)

type Session struct {
	ID        string
	State     SessionState
	RoomURL   string
	CreatedAt time.Time
	LastSeen  time.Time
}

// SessionTracker keeps the pairing attempts of anonymous visitors. Waiting
// sessions are queued in arrival order.
type SessionTracker struct {
	sessions map[string]*Session
	queue    []string
	ttl      time.Duration
	now      func() time.Time
	lock     sync.Mutex
}

func NewSessionTracker(ttl time.Duration) *SessionTracker {
	return &SessionTracker{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (t *SessionTracker) Begin() string {
	t.lock.Lock()
	defer t.lock.Unlock()
	now := t.now()
	id := GenerateSessionID()
	t.sessions[id] = &Session{ID: id, State: SessionWaiting, CreatedAt: now, LastSeen: now}
	t.queue = append(t.queue, id)
	return id
}

// Lookup reports the session and marks it as seen. A matched session is
// handed out exactly once: it is removed before Lookup returns.
func (t *SessionTracker) Lookup(id string) (Session, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	session, exists := t.sessions[id]
	if !exists {
		return Session{}, ErrUnknownSession
	}
	session.LastSeen = t.now()
	if session.State == SessionMatched {
		delete(t.sessions, id)
	}
	return *session, nil
}

func (t *SessionTracker) Resolve(id string, roomURL string) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	session, exists := t.sessions[id]
	if !exists {
		return ErrUnknownSession
	}
	if session.State != SessionWaiting {
		return fmt.Errorf("resolve %s: session already matched to %s: %w", id, session.RoomURL, ErrInvalidArgument)
	}
	session.State = SessionMatched
	session.RoomURL = roomURL
	t.dequeue(id)
	return nil
}

func (t *SessionTracker) NextWaiting() (string, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if len(t.queue) == 0 {
		return "", false
	}
	return t.queue[0], true
}

// Revoke puts every session matched to roomURL back in the queue, ahead of
// sessions that started waiting later.
func (t *SessionTracker) Revoke(roomURL string) []string {
	t.lock.Lock()
	defer t.lock.Unlock()
	var revoked []*Session
	for _, session := range t.sessions {
		if session.State == SessionMatched && session.RoomURL == roomURL {
			session.State = SessionWaiting
			session.RoomURL = ""
			revoked = append(revoked, session)
		}
	}
	if len(revoked) == 0 {
		return nil
	}
	slices.SortFunc(revoked, func(a, b *Session) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	ids := make([]string, len(revoked))
	for i, session := range revoked {
		ids[i] = session.ID
	}
	t.queue = append(slices.Clone(ids), t.queue...)
	return ids
}

// Expire evicts sessions not seen for longer than the ttl and returns them.
func (t *SessionTracker) Expire(now time.Time) []Session {
	t.lock.Lock()
	defer t.lock.Unlock()
	var expired []Session
	for id, session := range t.sessions {
		if now.Sub(session.LastSeen) > t.ttl {
			expired = append(expired, *session)
			delete(t.sessions, id)
		}
	}
	if len(expired) > 0 {
		t.queue = slices.DeleteFunc(t.queue, func(id string) bool {
			_, exists := t.sessions[id]
			return !exists
		})
	}
	return expired
}

func (t *SessionTracker) Len() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.sessions)
}

func (t *SessionTracker) Waiting() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.queue)
}

func (t *SessionTracker) dequeue(id string) {
	if i := slices.Index(t.queue, id); i >= 0 {
		t.queue = slices.Delete(t.queue, i, i+1)
	}
}
