package list

import (
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ErrItemNotFound = errors.New("item not found")
)

const (
	MinPriority = 1
	MaxPriority = 3
)

// User is a participant of a Room. The name is the identity, unique within the room's
// user set, and the connected flag is presence state maintained by the session layer.
type User struct {
	Name      string `json:"name" bson:"name"`
	Connected bool   `json:"isConnected" bson:"isConnected"`
}

// Item is a single entry on the shared list. The ID is assigned at creation and stable
// for the item's lifetime; toggle and delete address items by it.
type Item struct {
	ID          string    `json:"id" bson:"id"`
	Name        string    `json:"name" bson:"name"`
	Priority    int       `json:"priority" bson:"priority"`
	Quantity    int       `json:"quantity" bson:"quantity"`
	Done        bool      `json:"done" bson:"done"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Created     time.Time `json:"created" bson:"created"`
	Updated     time.Time `json:"updated" bson:"updated"`
}

// Room is the unit of collaboration: a named shared list plus its membership. Items keep
// insertion order. Rooms are created out of band, the operations here only mutate one.
type Room struct {
	ID    string `json:"id" bson:"_id"`
	Items []Item `json:"items" bson:"items"`
	Users []User `json:"users" bson:"users"`
}

// ItemDraft carries the caller-supplied fields for a new item before defaults are applied.
type ItemDraft struct {
	Name        string `json:"name"`
	Priority    int    `json:"priority,omitempty"`
	Quantity    int    `json:"quantity,omitempty"`
	Done        bool   `json:"done,omitempty"`
	Description string `json:"description,omitempty"`
}

// FindUser returns the user with the given name, or nil. The returned pointer is into the
// room's user slice and is only valid until the next append.
func (r *Room) FindUser(name string) *User {
	for i := range r.Users {
		if r.Users[i].Name == name {
			return &r.Users[i]
		}
	}
	return nil
}

// ResolveUser finds the user with the given name, appending a new disconnected entry if
// no such user exists yet.
func (r *Room) ResolveUser(name string) *User {
	if user := r.FindUser(name); user != nil {
		return user
	}
	r.Users = append(r.Users, User{Name: name})
	return &r.Users[len(r.Users)-1]
}

// AddItem validates the draft, fills defaults, assigns a fresh identifier, and appends the
// item to the room.
func (r *Room) AddItem(draft ItemDraft) (Item, error) {
	if draft.Name == "" {
		return Item{}, fmt.Errorf("item name is required")
	}
	if draft.Priority == 0 {
		draft.Priority = MinPriority
	}
	if draft.Priority < MinPriority || draft.Priority > MaxPriority {
		return Item{}, fmt.Errorf("priority %d out of range [%d,%d]", draft.Priority, MinPriority, MaxPriority)
	}
	if draft.Quantity == 0 {
		draft.Quantity = 1
	}
	if draft.Quantity < 0 {
		return Item{}, fmt.Errorf("quantity %d may not be negative", draft.Quantity)
	}
	now := time.Now().UTC()
	item := Item{
		ID:          ulid.Make().String(),
		Name:        draft.Name,
		Priority:    draft.Priority,
		Quantity:    draft.Quantity,
		Done:        draft.Done,
		Description: draft.Description,
		Created:     now,
		Updated:     now,
	}
	r.Items = append(r.Items, item)
	return item, nil
}

// ToggleItem flips the done flag of the item with the given identifier and bumps its
// updated timestamp.
func (r *Room) ToggleItem(id string) (Item, error) {
	for i := range r.Items {
		if r.Items[i].ID == id {
			r.Items[i].Done = !r.Items[i].Done
			r.Items[i].Updated = time.Now().UTC()
			return r.Items[i], nil
		}
	}
	return Item{}, fmt.Errorf("cannot toggle %q: %w", id, ErrItemNotFound)
}

// DeleteItem removes the item with the given identifier, preserving the order of the rest.
func (r *Room) DeleteItem(id string) error {
	for i := range r.Items {
		if r.Items[i].ID == id {
			r.Items = append(r.Items[:i], r.Items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("cannot delete %q: %w", id, ErrItemNotFound)
}
