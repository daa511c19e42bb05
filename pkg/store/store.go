package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/astromechza/roomlist/pkg/list"
)

var (
	ErrNotFound = errors.New("room not found")
	ErrExists   = errors.New("room already exists")
)

// Store is the document store surface consumed by the session layer: load a full room
// document by id and save it back whole. Saves are last-write-wins with no versioning;
// the session layer keeps the authoritative copy in process.
//
// CreateRoom is not part of the session contract. Rooms are created out of band, it exists
// for the roomctl binary and tests.
type Store interface {
	LoadRoom(ctx context.Context, id string) (*list.Room, error)
	SaveRoom(ctx context.Context, room *list.Room) error
	CreateRoom(ctx context.Context, id string) (*list.Room, error)
	Close() error
}

// Open builds a store from a connection string: "memory:", "sqlite:<path>", or a
// "mongodb://" / "mongodb+srv://" URI.
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == "memory:" || dsn == "memory":
		return NewMemory(), nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return OpenSqlite(strings.TrimPrefix(dsn, "sqlite:"))
	case strings.HasPrefix(dsn, "mongodb://"), strings.HasPrefix(dsn, "mongodb+srv://"):
		return OpenMongo(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported store dsn %q", dsn)
	}
}
