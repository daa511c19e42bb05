package session

import (
	"context"
	"log/slog"

	"github.com/astromechza/roomlist/pkg/list"
	"github.com/astromechza/roomlist/pkg/store"
)

const subscriberBuffer = 16
const mailboxBuffer = 16

type subscriber struct {
	username string
	events   chan Event
}

type opKind int

const (
	opJoin opKind = iota
	opLeave
	opAddItem
	opToggleItem
	opDeleteItem
)

type command struct {
	op     opKind
	sub    *subscriber
	draft  list.ItemDraft
	itemID string
}

// Room owns the authoritative in-memory document for one active room id. Every join,
// mutation, and disconnect from every connection goes through the mailbox and is applied
// by a single goroutine in arrival order, so sessions never hold diverging copies.
type Room struct {
	store    store.Store
	state    *list.Room
	commands chan command
	done     chan struct{}
	subs     map[*subscriber]struct{}

	// refs counts attached sessions and is guarded by the hub lock, not by this goroutine.
	refs int
}

func newRoom(st store.Store, state *list.Room) *Room {
	return &Room{
		store:    st,
		state:    state,
		commands: make(chan command, mailboxBuffer),
		done:     make(chan struct{}),
		subs:     make(map[*subscriber]struct{}),
	}
}

func (r *Room) run() {
	defer close(r.done)
	for cmd := range r.commands {
		switch cmd.op {
		case opJoin:
			r.join(cmd.sub)
		case opLeave:
			r.leave(cmd.sub)
		case opAddItem:
			r.addItem(cmd.sub, cmd.draft)
		case opToggleItem:
			r.toggleItem(cmd.sub, cmd.itemID)
		case opDeleteItem:
			r.deleteItem(cmd.sub, cmd.itemID)
		}
	}
	slog.Info("room owner stopped", "room", r.state.ID)
}

func (r *Room) join(sub *subscriber) {
	user := r.state.ResolveUser(sub.username)
	user.Connected = true
	r.persist()
	r.subs[sub] = struct{}{}
	slog.Info("user joined", "room", r.state.ID, "user", sub.username)
	r.broadcast(Event{Type: EventJoinRoom, Room: r.snapshot()})
}

func (r *Room) leave(sub *subscriber) {
	delete(r.subs, sub)
	// a leave always follows a join, so the user exists, but never append one here
	if user := r.state.FindUser(sub.username); user != nil {
		user.Connected = false
	}
	r.persist()
	slog.Info("user disconnected", "room", r.state.ID, "user", sub.username)
	r.broadcast(Event{Type: EventJoinRoom, Room: r.snapshot()})
}

func (r *Room) addItem(sub *subscriber, draft list.ItemDraft) {
	item, err := r.state.AddItem(draft)
	if err != nil {
		mutationsTotal.WithLabelValues(EventAddItem, "error").Inc()
		r.reportError(sub, err)
		return
	}
	mutationsTotal.WithLabelValues(EventAddItem, "ok").Inc()
	r.persist()
	slog.Info("item added", "room", r.state.ID, "user", sub.username, "item", item.ID)
	r.broadcast(Event{Type: EventAddItem, Items: r.snapshotItems()})
}

func (r *Room) toggleItem(sub *subscriber, itemID string) {
	item, err := r.state.ToggleItem(itemID)
	if err != nil {
		mutationsTotal.WithLabelValues(EventToggleItem, "error").Inc()
		r.reportError(sub, err)
		return
	}
	mutationsTotal.WithLabelValues(EventToggleItem, "ok").Inc()
	r.persist()
	slog.Info("item toggled", "room", r.state.ID, "user", sub.username, "item", item.ID, "done", item.Done)
	r.broadcast(Event{Type: EventToggleItem, Items: r.snapshotItems()})
}

func (r *Room) deleteItem(sub *subscriber, itemID string) {
	if err := r.state.DeleteItem(itemID); err != nil {
		mutationsTotal.WithLabelValues(EventDeleteItem, "error").Inc()
		r.reportError(sub, err)
		return
	}
	mutationsTotal.WithLabelValues(EventDeleteItem, "ok").Inc()
	r.persist()
	slog.Info("item deleted", "room", r.state.ID, "user", sub.username, "item", itemID)
	r.broadcast(Event{Type: EventDeleteItem, Items: r.snapshotItems()})
}

// persist writes the document back whole. Failures are logged and the in-memory state
// stays authoritative; there is no rollback and no retry, the next successful save
// re-converges the stored copy. A closing connection must not cancel an in-flight save,
// hence the background context.
func (r *Room) persist() {
	if err := r.store.SaveRoom(context.Background(), r.state); err != nil {
		persistFailuresTotal.Inc()
		slog.Error("failed to persist room", "room", r.state.ID, "err", err)
	}
}

// broadcast delivers the event to every subscriber, dropping it for subscribers whose
// buffer is full so that one slow connection cannot stall the room.
func (r *Room) broadcast(ev Event) {
	broadcastsTotal.Inc()
	for sub := range r.subs {
		select {
		case sub.events <- ev:
		default:
			droppedEventsTotal.Inc()
			slog.Info("dropped event for slow subscriber", "room", r.state.ID, "user", sub.username, "event", ev.Type)
		}
	}
}

func (r *Room) reportError(sub *subscriber, err error) {
	slog.Info("rejected command", "room", r.state.ID, "user", sub.username, "err", err)
	select {
	case sub.events <- Event{Type: EventError, Error: err.Error()}:
	default:
		droppedEventsTotal.Inc()
	}
}

// snapshot copies the document so subscribers can marshal it after the owner goroutine
// has moved on to the next command.
func (r *Room) snapshot() *list.Room {
	return &list.Room{
		ID:    r.state.ID,
		Items: r.snapshotItems(),
		Users: append([]list.User{}, r.state.Users...),
	}
}

func (r *Room) snapshotItems() []list.Item {
	return append([]list.Item{}, r.state.Items...)
}
