package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/astromechza/roomlist/pkg/list"
	"github.com/astromechza/roomlist/pkg/store"
)

// Hub tracks the owner goroutine for each active room. The first session to join a room
// id loads the document from the store and starts the owner, the last one to leave stops
// it. While an owner is running, its in-memory document is the authoritative copy and the
// store only sees full-document saves from it.
type Hub struct {
	store store.Store

	lock  sync.Mutex
	rooms map[string]*Room
}

func NewHub(st store.Store) *Hub {
	return &Hub{store: st, rooms: make(map[string]*Room)}
}

// Join attaches a new session for the given user to the room. The room must already
// exist in the store: joining an unknown id fails with store.ErrNotFound rather than
// leaving a silently inert connection.
func (h *Hub) Join(ctx context.Context, roomID, username string) (*Session, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	h.lock.Lock()
	owner, ok := h.rooms[roomID]
	if !ok {
		state, err := h.store.LoadRoom(ctx, roomID)
		if err != nil {
			h.lock.Unlock()
			return nil, fmt.Errorf("failed to load room %q: %w", roomID, err)
		}
		owner = newRoom(h.store, state)
		h.rooms[roomID] = owner
		go owner.run()
		activeRooms.Inc()
	}
	owner.refs++
	h.lock.Unlock()
	activeSessions.Inc()

	sub := &subscriber{username: username, events: make(chan Event, subscriberBuffer)}
	owner.commands <- command{op: opJoin, sub: sub}
	return &Session{hub: h, roomID: roomID, owner: owner, sub: sub}, nil
}

// release detaches a session, stopping the owner once nothing references it. The owner is
// drained before it leaves the map: its queued disconnect persist must land before a
// rejoin for the same id loads the store, otherwise the fresh owner could resurrect the
// departed user's connected flag or have its first save overwritten by the draining leave.
// The owner goroutine never takes the hub lock, so waiting for it here cannot deadlock.
func (h *Hub) release(roomID string, owner *Room) {
	h.lock.Lock()
	owner.refs--
	if owner.refs == 0 {
		close(owner.commands)
		<-owner.done
		delete(h.rooms, roomID)
		activeRooms.Dec()
	}
	h.lock.Unlock()
	activeSessions.Dec()
}

// Session binds one connection to one room and user for the connection's lifetime.
// Mutations are fired into the room owner's mailbox and applied in arrival order;
// results, including rejections of this session's own commands, arrive on Events.
type Session struct {
	hub    *Hub
	roomID string
	owner  *Room
	sub    *subscriber
}

// Events is the stream of broadcasts for this session, plus error events for commands
// this session issued that were rejected.
func (s *Session) Events() <-chan Event {
	return s.sub.events
}

func (s *Session) AddItem(draft list.ItemDraft) {
	s.owner.commands <- command{op: opAddItem, sub: s.sub, draft: draft}
}

func (s *Session) ToggleItem(itemID string) {
	s.owner.commands <- command{op: opToggleItem, sub: s.sub, itemID: itemID}
}

func (s *Session) DeleteItem(itemID string) {
	s.owner.commands <- command{op: opDeleteItem, sub: s.sub, itemID: itemID}
}

// Dispatch routes a decoded wire command to the matching operation.
func (s *Session) Dispatch(cmd Command) {
	switch cmd.Type {
	case EventAddItem:
		var draft list.ItemDraft
		if cmd.Item != nil {
			draft = *cmd.Item
		}
		s.AddItem(draft)
	case EventToggleItem:
		s.ToggleItem(cmd.ItemID)
	case EventDeleteItem:
		s.DeleteItem(cmd.ItemID)
	default:
		select {
		case s.sub.events <- Event{Type: EventError, Error: fmt.Sprintf("unknown event type %q", cmd.Type)}:
		default:
		}
	}
}

// Leave marks the user disconnected and persists that, then detaches from the hub. The
// session must not be used afterwards.
func (s *Session) Leave() {
	s.owner.commands <- command{op: opLeave, sub: s.sub}
	s.hub.release(s.roomID, s.owner)
}
