package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// LoadState reads a snapshot written by StatePersister. A missing file is an
// empty state.
func LoadState(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state %s: %w", path, err)
	}
	rooms := map[string]int{}
	if len(data) == 0 {
		return rooms, nil
	}
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", path, err)
	}
	return rooms, nil
}

// StatePersister rewrites the state file whenever the room store changes.
type StatePersister struct {
	path  string
	rooms *RoomStore
}

func NewStatePersister(path string, rooms *RoomStore) *StatePersister {
	return &StatePersister{path: path, rooms: rooms}
}

// Run blocks until ctx is cancelled, then writes the state one last time.
func (p *StatePersister) Run(ctx context.Context) error {
	for {
		select {
		case <-p.rooms.Changes():
			if err := p.Save(); err != nil {
				LogErrorWritingState(err)
			}
		case <-ctx.Done():
			return p.Save()
		}
	}
}

func (p *StatePersister) Save() error {
	data, err := json.Marshal(p.rooms.Snapshot())
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p.path), filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write state %s: %w", p.path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state %s: %w", p.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write state %s: %w", p.path, err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("write state %s: %w", p.path, err)
	}
	return nil
}
