package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/astromechza/roomlist/pkg/list"
)

// Memory keeps room documents as marshalled JSON in a map. Load and save copy through the
// encoding so callers never share memory with the store, same as the real backends.
type Memory struct {
	lock  sync.RWMutex
	rooms map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{rooms: make(map[string][]byte)}
}

func (m *Memory) LoadRoom(_ context.Context, id string) (*list.Room, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	raw, ok := m.rooms[id]
	if !ok {
		return nil, fmt.Errorf("load %q: %w", id, ErrNotFound)
	}
	room := new(list.Room)
	if err := json.Unmarshal(raw, room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room %q: %w", id, err)
	}
	return room, nil
}

func (m *Memory) SaveRoom(_ context.Context, room *list.Room) error {
	raw, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room %q: %w", room.ID, err)
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	m.rooms[room.ID] = raw
	return nil
}

func (m *Memory) CreateRoom(_ context.Context, id string) (*list.Room, error) {
	room := &list.Room{ID: id, Items: []list.Item{}, Users: []list.User{}}
	raw, err := json.Marshal(room)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal room %q: %w", id, err)
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	if _, ok := m.rooms[id]; ok {
		return nil, fmt.Errorf("create %q: %w", id, ErrExists)
	}
	m.rooms[id] = raw
	return room, nil
}

func (m *Memory) Close() error {
	return nil
}
