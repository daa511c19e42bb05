package session

import (
	"github.com/astromechza/roomlist/pkg/list"
)

const (
	EventJoinRoom   = "joinRoom"
	EventAddItem    = "addItem"
	EventToggleItem = "toggleItem"
	EventDeleteItem = "deleteItem"
	EventError      = "error"
)

// Event is the outbound envelope. Joins carry the full room document, mutations carry the
// full item collection rather than a diff, and errors go only to the originating client.
type Event struct {
	Type  string      `json:"type"`
	Room  *list.Room  `json:"room,omitempty"`
	Items []list.Item `json:"items"`
	Error string      `json:"error,omitempty"`
}

// Command is the inbound envelope decoded from a client connection.
type Command struct {
	Type   string          `json:"type"`
	Item   *list.ItemDraft `json:"item,omitempty"`
	ItemID string          `json:"itemId,omitempty"`
}
