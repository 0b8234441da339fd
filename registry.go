package main

import (
	"crypto/subtle"
	"errors"
	"fmt"
)

type Authorizer interface {
	Authorize(key string) bool
}

// StaticKeyAuthorizer accepts exactly one shared operator key.
type StaticKeyAuthorizer struct {
	key []byte
}

func NewStaticKeyAuthorizer(key string) StaticKeyAuthorizer {
	return StaticKeyAuthorizer{[]byte(key)}
}

func (a StaticKeyAuthorizer) Authorize(key string) bool {
	if len(a.key) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(a.key, []byte(key)) == 1
}

// SlotHandoff applies capacity changes together with their handoff to waiting
// visitors, so a new poll never overtakes an older waiter.
type SlotHandoff interface {
	AddRoom(url string, count int) (map[string]int, error)
	AddSlots(url string, count int) (map[string]int, error)
	Withdraw(url string) (map[string]int, bool)
}

// Registry is the operator-facing side: rooms are registered, resized and
// deleted here. Every successful call returns the full room snapshot.
type Registry struct {
	rooms   *RoomStore
	handoff SlotHandoff
	auth    Authorizer
}

func NewRegistry(rooms *RoomStore, handoff SlotHandoff, auth Authorizer) *Registry {
	return &Registry{rooms: rooms, handoff: handoff, auth: auth}
}

func (r *Registry) Register(key string, url string, count int) (snapshot map[string]int, err error) {
	defer func() { RecordRegistryCall("register", err) }()
	if !r.auth.Authorize(key) {
		return nil, ErrUnauthorized
	}
	snapshot, err = r.handoff.AddRoom(url, count)
	if err != nil {
		return nil, err
	}
	LogRoomRegistered(url, count)
	return snapshot, nil
}

func (r *Registry) Free(key string, url string, count int) (snapshot map[string]int, err error) {
	defer func() { RecordRegistryCall("free", err) }()
	if !r.auth.Authorize(key) {
		return nil, ErrUnauthorized
	}
	if url == "" {
		return nil, fmt.Errorf("free: empty url: %w", ErrInvalidArgument)
	}
	if count < 0 {
		return nil, fmt.Errorf("free %s: negative count %d: %w", url, count, ErrInvalidArgument)
	}
	snapshot, err = r.handoff.AddSlots(url, count)
	if err != nil {
		return nil, err
	}
	LogRoomFreed(url, count)
	return snapshot, nil
}

func (r *Registry) Delete(key string, url string) (snapshot map[string]int, err error) {
	defer func() { RecordRegistryCall("delete", err) }()
	if !r.auth.Authorize(key) {
		return nil, ErrUnauthorized
	}
	if url == "" {
		return nil, fmt.Errorf("delete: empty url: %w", ErrInvalidArgument)
	}
	snapshot, existed := r.handoff.Withdraw(url)
	if existed {
		LogRoomDeleted(url)
	}
	return snapshot, nil
}

func (r *Registry) State(key string) (map[string]int, error) {
	if !r.auth.Authorize(key) {
		return nil, ErrUnauthorized
	}
	return r.rooms.Snapshot(), nil
}

func errorOutcome(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid"
	default:
		return "error"
	}
}
