package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/astromechza/roomlist/pkg/list"
	"github.com/astromechza/roomlist/pkg/store"
)

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	st := store.NewMemory()
	r := mux.NewRouter()
	r.Methods(http.MethodGet).Path("/rooms/{room}/ws").HandlerFunc(Handler(NewHub(st)))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, st
}

func dial(t *testing.T, srv *httptest.Server, room, username string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/rooms/" + room + "/ws?username=" + username
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("failed to dial %s: %v", u, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(time.Second * 2))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}
	return ev
}

func TestWebsocketRoundtrip(t *testing.T) {
	srv, st := newTestServer(t)
	_, err := st.CreateRoom(context.Background(), "r1")
	assert.Equal(t, err, nil)

	conn := dial(t, srv, "r1", "alice")
	ev := readEvent(t, conn)
	assert.Equal(t, ev.Type, EventJoinRoom)
	assert.Equal(t, ev.Room.ID, "r1")

	err = conn.WriteJSON(Command{Type: EventAddItem, Item: &list.ItemDraft{Name: "milk", Quantity: 2}})
	assert.Equal(t, err, nil)
	ev = readEvent(t, conn)
	assert.Equal(t, ev.Type, EventAddItem)
	assert.Equal(t, len(ev.Items), 1)
	assert.Equal(t, ev.Items[0].Name, "milk")

	itemID := ev.Items[0].ID
	err = conn.WriteJSON(Command{Type: EventToggleItem, ItemID: itemID})
	assert.Equal(t, err, nil)
	ev = readEvent(t, conn)
	assert.Equal(t, ev.Type, EventToggleItem)
	assert.Equal(t, ev.Items[0].Done, true)

	// deleting the last item must still put an empty collection on the wire, decoding
	// into Event cannot tell nil from empty so check the raw payload
	err = conn.WriteJSON(Command{Type: EventDeleteItem, ItemID: itemID})
	assert.Equal(t, err, nil)
	_ = conn.SetReadDeadline(time.Now().Add(time.Second * 2))
	_, raw, err := conn.ReadMessage()
	assert.Equal(t, err, nil)
	if !strings.Contains(string(raw), `"items":[]`) {
		t.Fatalf("expected empty items collection in payload: %s", raw)
	}
	ev = Event{}
	assert.Equal(t, json.Unmarshal(raw, &ev), nil)
	assert.Equal(t, ev.Type, EventDeleteItem)

	err = conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	assert.Equal(t, err, nil)

	// the disconnect marks the user as away once the server has processed the close
	deadline := time.Now().Add(time.Second * 2)
	for {
		room, err := st.LoadRoom(context.Background(), "r1")
		assert.Equal(t, err, nil)
		if len(room.Users) == 1 && !room.Users[0].Connected {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("user never marked disconnected: %+v", room.Users)
		}
		time.Sleep(time.Millisecond * 10)
	}
}

func TestWebsocketUnknownRoom(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv, "missing", "alice")
	ev := readEvent(t, conn)
	assert.Equal(t, ev.Type, EventError)
	assert.Equal(t, ev.Error, "room not found")
}

func TestWebsocketRequiresUsername(t *testing.T) {
	srv, st := newTestServer(t)
	_, err := st.CreateRoom(context.Background(), "r1")
	assert.Equal(t, err, nil)

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/rooms/r1/ws"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatal("expected handshake to fail without username")
	}
	assert.Equal(t, resp.StatusCode, http.StatusBadRequest)
}
