package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/astromechza/roomlist/pkg/store"
)

// Rooms are created out of band, never by the session layer, so the creator lives in its
// own small binary.
func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	storeVar := flag.String("store", "sqlite:rooms.sqlite3", "the store to connect to (memory:, sqlite:<path>, mongodb://...)")
	flag.Parse()
	if flag.NArg() != 2 {
		return fmt.Errorf("expected two positional arguments: create|show <room-id>")
	}

	ctx := context.Background()
	st, err := store.Open(ctx, *storeVar)
	if err != nil {
		return err
	}
	defer st.Close()

	verb, roomID := flag.Arg(0), flag.Arg(1)
	switch verb {
	case "create":
		room, err := st.CreateRoom(ctx, roomID)
		if err != nil {
			return err
		}
		slog.Info("created room", "room", room.ID)
	case "show":
		room, err := st.LoadRoom(ctx, roomID)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(room); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown verb %q: expected create or show", verb)
	}
	return nil
}
