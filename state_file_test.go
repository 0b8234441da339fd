package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStateMissingFile(t *testing.T) {
	rooms, err := LoadState(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	assert.Empty(t, rooms)
}

func TestLoadStateInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := LoadState(path)
	assert.Error(t, err)
}

func TestStatePersisterSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	rooms := NewRoomStore(map[string]int{"https://meet.example/a": 3, "https://meet.example/b": 0})

	require.NoError(t, NewStatePersister(path, rooms).Save())

	loaded, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, rooms.Snapshot(), loaded)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestStatePersisterRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	rooms := NewRoomStore(nil)
	persister := NewStatePersister(path, rooms)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- persister.Run(ctx) }()

	_, err := rooms.Register("a", 7)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		loaded, err := LoadState(path)
		return err == nil && loaded["a"] == 7
	}, time.Second, 10*time.Millisecond)

	_, err = rooms.AdjustFree("a", 1)
	require.NoError(t, err)
	cancel()
	require.NoError(t, <-done)

	loaded, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 8}, loaded)
}
