package main

import (
	"fmt"
	"math"
	"sync"
)

// RoomStore maps room urls to their remaining free slots. It is the only
// place capacity is mutated; every method is safe for concurrent use.
type RoomStore struct {
	rooms   map[string]int
	lock    sync.RWMutex
	changes chan struct{}
}

func NewRoomStore(initial map[string]int) *RoomStore {
	rooms := make(map[string]int, len(initial))
	for url, count := range initial {
		if url == "" {
			continue
		}
		rooms[url] = max(count, 0)
	}
	return &RoomStore{rooms: rooms, changes: make(chan struct{}, 1)}
}

// Changes signals after mutations. Signals are coalesced, so a receiver should
// read a fresh Snapshot rather than count notifications.
func (s *RoomStore) Changes() <-chan struct{} {
	return s.changes
}

func (s *RoomStore) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *RoomStore) Register(url string, count int) (map[string]int, error) {
	if url == "" {
		return nil, fmt.Errorf("register: empty url: %w", ErrInvalidArgument)
	}
	if count < 0 {
		return nil, fmt.Errorf("register %s: negative count %d: %w", url, count, ErrInvalidArgument)
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, exists := s.rooms[url]; exists {
		return nil, fmt.Errorf("register %s: %w", url, ErrConflict)
	}
	s.rooms[url] = count
	s.notify()
	return s.copyRooms(), nil
}

// AdjustFree adds delta to the room's free slots. The result never drops
// below zero; a delta that would overflow the count is rejected.
func (s *RoomStore) AdjustFree(url string, delta int) (map[string]int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	count, exists := s.rooms[url]
	if !exists {
		return nil, fmt.Errorf("adjust %s: %w", url, ErrNotFound)
	}
	if delta > 0 && count > math.MaxInt-delta {
		return nil, fmt.Errorf("adjust %s: %d more slots overflows %d: %w", url, delta, count, ErrInvalidArgument)
	}
	s.rooms[url] = max(count+delta, 0)
	s.notify()
	return s.copyRooms(), nil
}

// Delete removes the room and reports whether it was present.
func (s *RoomStore) Delete(url string) (map[string]int, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	_, exists := s.rooms[url]
	if exists {
		delete(s.rooms, url)
		s.notify()
	}
	return s.copyRooms(), exists
}

func (s *RoomStore) Snapshot() map[string]int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.copyRooms()
}

func (s *RoomStore) Exists(url string) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	_, exists := s.rooms[url]
	return exists
}

// ClaimSlot takes one slot from the room with the most free slots. Ties go to
// the lexicographically smallest url.
func (s *RoomStore) ClaimSlot() (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	best, bestCount := "", 0
	for url, count := range s.rooms {
		if count > bestCount || (count == bestCount && count > 0 && url < best) {
			best, bestCount = url, count
		}
	}
	if bestCount == 0 {
		return "", ErrNoCapacity
	}
	s.rooms[best]--
	s.notify()
	return best, nil
}

func (s *RoomStore) copyRooms() map[string]int {
	rooms := make(map[string]int, len(s.rooms))
	for url, count := range s.rooms {
		rooms[url] = count
	}
	return rooms
}
