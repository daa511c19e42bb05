package session

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/astromechza/roomlist/pkg/store"
)

// Handler returns the websocket endpoint for a hub. The room id comes from the route and
// the username from the query string, the two connection-time handshake parameters. All
// traffic after the upgrade is JSON envelopes: Command in, Event out.
func Handler(hub *Hub) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
	return func(writer http.ResponseWriter, request *http.Request) {
		roomID := mux.Vars(request)["room"]
		username := request.URL.Query().Get("username")
		if username == "" {
			http.Error(writer, "username query parameter is required", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(writer, request, nil)
		if err != nil {
			slog.Error("failed to upgrade", "err", err)
			return
		}
		defer conn.Close()

		sess, err := hub.Join(request.Context(), roomID, username)
		if err != nil {
			slog.Error("failed to join room", "room", roomID, "user", username, "err", err)
			msg := "failed to join room"
			if errors.Is(err, store.ErrNotFound) {
				msg = "room not found"
			}
			_ = conn.WriteJSON(Event{Type: EventError, Error: msg})
			return
		}

		done := make(chan struct{})
		go func() {
			for {
				select {
				case ev := <-sess.Events():
					if err := conn.WriteJSON(ev); err != nil {
						slog.Info("failed to write event", "room", roomID, "user", username, "err", err)
						_ = conn.Close()
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			var cmd Command
			if err := conn.ReadJSON(&cmd); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					slog.Info("connection closed", "room", roomID, "user", username, "err", err)
				}
				break
			}
			sess.Dispatch(cmd)
		}
		close(done)
		sess.Leave()
	}
}
