package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/astromechza/roomlist/pkg/list"
	"github.com/astromechza/roomlist/pkg/session"
)

// A terminal client for poking at a room: it joins over the websocket, prints every
// broadcast, and turns stdin lines into mutation commands.
func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	addrVar := flag.String("addr", "127.0.0.1:8000", "the address to connect to")
	roomVar := flag.String("room", "default", "the room to join")
	userVar := flag.String("username", "", "the display name to join as")
	flag.Parse()
	if *userVar == "" {
		return fmt.Errorf("a -username is required")
	}

	u := url.URL{
		Scheme:   "ws",
		Host:     *addrVar,
		Path:     "/rooms/" + *roomVar + "/ws",
		RawQuery: url.Values{"username": {*userVar}}.Encode(),
	}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", u.String(), err)
	}
	defer conn.Close()

	wg := new(sync.WaitGroup)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			var ev session.Event
			if err := conn.ReadJSON(&ev); err != nil {
				slog.Info("connection closed", "err", err)
				return
			}
			printEvent(ev)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println(`commands: add <name> [quantity], toggle <id>, del <id>, quit`)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		var cmd session.Command
		switch fields[0] {
		case "add":
			if len(fields) < 2 {
				fmt.Println("usage: add <name> [quantity]")
				continue
			}
			draft := &list.ItemDraft{Name: fields[1]}
			if len(fields) > 2 {
				if q, err := strconv.Atoi(fields[2]); err == nil {
					draft.Quantity = q
				}
			}
			cmd = session.Command{Type: session.EventAddItem, Item: draft}
		case "toggle":
			if len(fields) < 2 {
				fmt.Println("usage: toggle <id>")
				continue
			}
			cmd = session.Command{Type: session.EventToggleItem, ItemID: fields[1]}
		case "del":
			if len(fields) < 2 {
				fmt.Println("usage: del <id>")
				continue
			}
			cmd = session.Command{Type: session.EventDeleteItem, ItemID: fields[1]}
		case "quit":
			_ = conn.WriteMessage(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			)
			wg.Wait()
			return nil
		default:
			fmt.Printf("unknown command %q\n", fields[0])
			continue
		}
		if err := conn.WriteJSON(cmd); err != nil {
			return fmt.Errorf("failed to send: %w", err)
		}
	}
	return scanner.Err()
}

func printEvent(ev session.Event) {
	switch ev.Type {
	case session.EventError:
		fmt.Printf("!! %s\n", ev.Error)
	case session.EventJoinRoom:
		names := make([]string, 0, len(ev.Room.Users))
		for _, u := range ev.Room.Users {
			if u.Connected {
				names = append(names, u.Name)
			} else {
				names = append(names, u.Name+" (away)")
			}
		}
		fmt.Printf("== room %s: %s\n", ev.Room.ID, strings.Join(names, ", "))
		printItems(ev.Room.Items)
	default:
		fmt.Printf("== %s\n", ev.Type)
		printItems(ev.Items)
	}
}

func printItems(items []list.Item) {
	for _, item := range items {
		mark := " "
		if item.Done {
			mark = "x"
		}
		fmt.Printf("  [%s] %s x%d (p%d) %s\n", mark, item.Name, item.Quantity, item.Priority, item.ID)
	}
}
