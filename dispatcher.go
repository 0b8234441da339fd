package main

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	ReplyWait      = "wait"
	ReplyNoSession = "nouuid"
)

// SessionCorrelator ties repeated polls of one visitor together. The HTTP
// layer backs it with a cookie or a form value.
type SessionCorrelator interface {
	// SessionID returns the token the visitor presented, if any.
	SessionID() (string, bool)
	// Bind hands a freshly started session to the visitor.
	Bind(sessionID string) error
	// Forget tells the visitor to drop its token.
	Forget()
}

// Dispatcher pairs polling visitors with free room slots. Polls never block
// on capacity: they either get a room or are told to wait.
type Dispatcher struct {
	rooms    *RoomStore
	sessions *SessionTracker
	lock     sync.Mutex
}

func NewDispatcher(rooms *RoomStore, sessions *SessionTracker) *Dispatcher {
	return &Dispatcher{rooms: rooms, sessions: sessions}
}

func (d *Dispatcher) Begin() string {
	d.lock.Lock()
	defer d.lock.Unlock()
	id := d.sessions.Begin()
	GetSessionLogger(id).Started()
	RecordSessionStarted()
	d.observeSessions()
	return id
}

// Poll answers one poll cycle with a room url, ReplyWait or ReplyNoSession.
func (d *Dispatcher) Poll(c SessionCorrelator) (string, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	defer d.observeSessions()

	id, ok := c.SessionID()
	if !ok {
		id = d.sessions.Begin()
		if err := c.Bind(id); err != nil {
			return "", fmt.Errorf("bind session %s: %w", id, err)
		}
		GetSessionLogger(id).Started()
		RecordSessionStarted()
	}
	logger := GetSessionLogger(id)

	session, err := d.sessions.Lookup(id)
	if errors.Is(err, ErrUnknownSession) {
		logger.Unknown()
		c.Forget()
		RecordPoll(ReplyNoSession)
		return ReplyNoSession, nil
	}
	if err != nil {
		return "", err
	}
	if session.State == SessionMatched {
		logger.Delivered(session.RoomURL)
		RecordPoll("room")
		return session.RoomURL, nil
	}

	url, err := d.rooms.ClaimSlot()
	if errors.Is(err, ErrNoCapacity) {
		logger.Waiting()
		RecordPoll(ReplyWait)
		return ReplyWait, nil
	}
	if err != nil {
		return "", err
	}
	if err := d.sessions.Resolve(id, url); err != nil {
		d.refund(url)
		return "", fmt.Errorf("resolve session %s: %w", id, err)
	}
	if _, err := d.sessions.Lookup(id); err != nil {
		return "", fmt.Errorf("deliver session %s: %w", id, err)
	}
	logger.Delivered(url)
	RecordPairing()
	RecordPoll("room")
	return url, nil
}

// AddRoom registers a room and reserves its slots for waiting sessions, oldest
// first, before any new poll can claim them.
func (d *Dispatcher) AddRoom(url string, count int) (map[string]int, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if _, err := d.rooms.Register(url, count); err != nil {
		return nil, err
	}
	d.offer()
	d.observeSessions()
	return d.rooms.Snapshot(), nil
}

// AddSlots frees count more slots in an existing room and hands them to
// waiting sessions first. Each reserved room is delivered on that session's
// next poll.
func (d *Dispatcher) AddSlots(url string, count int) (map[string]int, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if _, err := d.rooms.AdjustFree(url, count); err != nil {
		return nil, err
	}
	d.offer()
	d.observeSessions()
	return d.rooms.Snapshot(), nil
}

// Withdraw deletes a room and reports whether it existed. Sessions holding an
// undelivered reservation for it go back to waiting, so the url is never
// handed out after the deletion.
func (d *Dispatcher) Withdraw(url string) (map[string]int, bool) {
	d.lock.Lock()
	defer d.lock.Unlock()
	snapshot, existed := d.rooms.Delete(url)
	revoked := d.sessions.Revoke(url)
	for _, id := range revoked {
		GetSessionLogger(id).Revoked(url)
	}
	if len(revoked) > 0 {
		d.offer()
		snapshot = d.rooms.Snapshot()
	}
	d.observeSessions()
	return snapshot, existed
}

// ExpireSessions evicts idle sessions. A reservation that was never delivered
// goes back to its room if the room still exists.
func (d *Dispatcher) ExpireSessions(now time.Time) int {
	d.lock.Lock()
	defer d.lock.Unlock()
	expired := d.sessions.Expire(now)
	refunded := false
	for _, session := range expired {
		GetSessionLogger(session.ID).Expired(session.RoomURL)
		if session.State == SessionMatched && d.refund(session.RoomURL) {
			refunded = true
		}
	}
	RecordSessionsExpired(len(expired))
	if refunded {
		d.offer()
	}
	d.observeSessions()
	return len(expired)
}

func (d *Dispatcher) offer() {
	for {
		id, ok := d.sessions.NextWaiting()
		if !ok {
			return
		}
		url, err := d.rooms.ClaimSlot()
		if err != nil {
			return
		}
		if err := d.sessions.Resolve(id, url); err != nil {
			d.refund(url)
			return
		}
		GetSessionLogger(id).Matched(url)
		RecordPairing()
	}
}

func (d *Dispatcher) refund(url string) bool {
	_, err := d.rooms.AdjustFree(url, 1)
	return err == nil
}

func (d *Dispatcher) observeSessions() {
	ObserveSessions(d.sessions.Len(), d.sessions.Waiting())
}
