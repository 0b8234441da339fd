package main

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomStoreRegister(t *testing.T) {
	s := NewRoomStore(nil)

	snapshot, err := s.Register("https://meet.example/a", 5)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"https://meet.example/a": 5}, snapshot)

	_, err = s.Register("https://meet.example/a", 100)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 5, s.Snapshot()["https://meet.example/a"], "conflict must not touch capacity")

	_, err = s.Register("", 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = s.Register("https://meet.example/b", -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRoomStoreAdjustFree(t *testing.T) {
	s := NewRoomStore(map[string]int{"a": 2})

	snapshot, err := s.AdjustFree("a", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, snapshot["a"])

	snapshot, err = s.AdjustFree("a", -10)
	require.NoError(t, err)
	assert.Equal(t, 0, snapshot["a"], "capacity is clamped at zero")

	_, err = s.AdjustFree("missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotContains(t, s.Snapshot(), "missing")
}

func TestRoomStoreAdjustFreeRejectsOverflow(t *testing.T) {
	s := NewRoomStore(map[string]int{"a": 100000, "full": math.MaxInt})

	_, err := s.AdjustFree("a", math.MaxInt)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = s.AdjustFree("full", 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, map[string]int{"a": 100000, "full": math.MaxInt}, s.Snapshot(), "a rejected adjustment leaves capacity alone")

	snapshot, err := s.AdjustFree("a", math.MaxInt-100000)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, snapshot["a"])
}

func TestRoomStoreDeleteIsIdempotent(t *testing.T) {
	s := NewRoomStore(map[string]int{"a": 1, "b": 2})

	once, existed := s.Delete("missing")
	assert.False(t, existed)
	twice, existed := s.Delete("missing")
	assert.False(t, existed)
	assert.Equal(t, once, twice)
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, twice)

	snapshot, existed := s.Delete("a")
	assert.True(t, existed)
	assert.Equal(t, map[string]int{"b": 2}, snapshot)
	assert.False(t, s.Exists("a"))

	_, existed = s.Delete("a")
	assert.False(t, existed, "only the first delete removes the room")
}

func TestRoomStoreSnapshotIsACopy(t *testing.T) {
	s := NewRoomStore(map[string]int{"a": 1})
	snapshot := s.Snapshot()
	snapshot["a"] = 42
	snapshot["b"] = 1
	assert.Equal(t, map[string]int{"a": 1}, s.Snapshot())
}

func TestNewRoomStoreDropsInvalidEntries(t *testing.T) {
	s := NewRoomStore(map[string]int{"": 3, "a": -2, "b": 1})
	assert.Equal(t, map[string]int{"a": 0, "b": 1}, s.Snapshot())
}

func TestRoomStoreClaimSlotOrder(t *testing.T) {
	s := NewRoomStore(map[string]int{"c": 1, "b": 2, "a": 2, "z": 0})

	var claimed []string
	for {
		url, err := s.ClaimSlot()
		if err != nil {
			assert.ErrorIs(t, err, ErrNoCapacity)
			break
		}
		claimed = append(claimed, url)
	}
	// most free first, ties by smallest url
	assert.Equal(t, []string{"a", "b", "a", "b", "c"}, claimed)
	assert.Equal(t, map[string]int{"a": 0, "b": 0, "c": 0, "z": 0}, s.Snapshot())
}

func TestRoomStoreClaimSlotEmpty(t *testing.T) {
	_, err := NewRoomStore(nil).ClaimSlot()
	assert.ErrorIs(t, err, ErrNoCapacity)
}

func TestRoomStoreConcurrentClaims(t *testing.T) {
	tests := []struct {
		name     string
		claims   int
		capacity int
	}{
		{"more claims than slots", 200, 37},
		{"fewer claims than slots", 20, 50},
		{"exact", 64, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewRoomStore(map[string]int{"a": tt.capacity})
			var wg sync.WaitGroup
			var mu sync.Mutex
			succeeded := 0
			for i := 0; i < tt.claims; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := s.ClaimSlot(); err == nil {
						mu.Lock()
						succeeded++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, min(tt.claims, tt.capacity), succeeded)
			assert.Equal(t, tt.capacity-succeeded, s.Snapshot()["a"])
		})
	}
}

func TestRoomStoreClaimNeverReturnsDeletedRoom(t *testing.T) {
	s := NewRoomStore(map[string]int{"a": 1000, "b": 2})
	s.Delete("a")
	for i := 0; i < 2; i++ {
		url, err := s.ClaimSlot()
		require.NoError(t, err)
		assert.Equal(t, "b", url)
	}
	_, err := s.ClaimSlot()
	assert.ErrorIs(t, err, ErrNoCapacity)
}

func TestRoomStoreChangesAreCoalesced(t *testing.T) {
	s := NewRoomStore(nil)
	s.Register("a", 1)
	s.AdjustFree("a", 1)
	s.Delete("a")

	select {
	case <-s.Changes():
	default:
		t.Fatal("expected a change notification")
	}
	select {
	case <-s.Changes():
		t.Fatal("notifications should be coalesced")
	default:
	}

	s.Delete("a")
	select {
	case <-s.Changes():
		t.Fatal("deleting an absent room is not a change")
	default:
	}
}
