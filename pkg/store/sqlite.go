package store

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/astromechza/roomlist/pkg/list"
)

// Sqlite persists each room as a base64-encoded JSON document in a single table.
type Sqlite struct {
	database *sql.DB
}

func OpenSqlite(path string) (*Sqlite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	s := &Sqlite{database: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sqlite) init() error {
	if _, err := s.database.Exec(
		`CREATE TABLE IF NOT EXISTS rooms (
    	id text not null primary key,
        content text not null
		)`,
	); err != nil {
		return fmt.Errorf("failed to create initial tables: %w", err)
	}
	return nil
}

func (s *Sqlite) LoadRoom(ctx context.Context, id string) (*list.Room, error) {
	var rawContent string
	if err := s.database.QueryRowContext(
		ctx, `SELECT content FROM rooms WHERE id = ?`, id,
	).Scan(&rawContent); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query room %q: %w", id, err)
	}
	raw, err := base64.StdEncoding.DecodeString(rawContent)
	if err != nil {
		return nil, fmt.Errorf("failed to decode room %q: %w", id, err)
	}
	room := new(list.Room)
	if err := json.Unmarshal(raw, room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room %q: %w", id, err)
	}
	return room, nil
}

func (s *Sqlite) SaveRoom(ctx context.Context, room *list.Room) error {
	content, err := encodeRoom(room)
	if err != nil {
		return err
	}
	if _, err := s.database.ExecContext(
		ctx, `INSERT OR REPLACE INTO rooms (id, content) VALUES (?, ?)`, room.ID, content,
	); err != nil {
		return fmt.Errorf("failed to persist room %q: %w", room.ID, err)
	}
	return nil
}

func (s *Sqlite) CreateRoom(ctx context.Context, id string) (*list.Room, error) {
	room := &list.Room{ID: id, Items: []list.Item{}, Users: []list.User{}}
	content, err := encodeRoom(room)
	if err != nil {
		return nil, err
	}
	res, err := s.database.ExecContext(
		ctx, `INSERT OR IGNORE INTO rooms (id, content) VALUES (?, ?)`, id, content,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert room %q: %w", id, err)
	}
	if r, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("failed to count rows affected by room insert: %w", err)
	} else if r == 0 {
		return nil, fmt.Errorf("create %q: %w", id, ErrExists)
	}
	return room, nil
}

func (s *Sqlite) Close() error {
	return s.database.Close()
}

func encodeRoom(room *list.Room) (string, error) {
	raw, err := json.Marshal(room)
	if err != nil {
		return "", fmt.Errorf("failed to marshal room %q: %w", room.ID, err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
