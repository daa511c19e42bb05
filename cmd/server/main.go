package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/astromechza/roomlist/pkg/session"
	"github.com/astromechza/roomlist/pkg/store"
)

func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	addrVar := flag.String("addr", "localhost:8000", "the address to listen on")
	storeVar := flag.String("store", "sqlite:rooms.sqlite3", "the store to connect to (memory:, sqlite:<path>, mongodb://...)")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slog.Info("Opening store", "dsn", *storeVar)
	st, err := store.Open(ctx, *storeVar)
	if err != nil {
		return err
	}
	defer st.Close()

	hub := session.NewHub(st)

	r := mux.NewRouter()
	r.Use(func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			m := httpsnoop.CaptureMetrics(handler, writer, request)
			slog.Info("handled", "method", request.Method, "url", request.URL, "duration", m.Duration, "status", m.Code)
		})
	})
	r.Methods(http.MethodGet).Path("/rooms/{room}/ws").HandlerFunc(session.Handler(hub))
	r.Methods(http.MethodGet).Path("/rooms/{room}").HandlerFunc(getRoom(st))
	r.Methods(http.MethodGet).Path("/metrics").Handler(promhttp.Handler())

	httpServer := &http.Server{Addr: *addrVar, Handler: r}

	wg := new(sync.WaitGroup)
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("Listening", "addr", *addrVar)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server listen failed", "err", err)
		}
	}()

	exit := make(chan os.Signal, 1) // we need to reserve to buffer size 1, so the notifier are not blocked
	signal.Notify(exit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-exit
	slog.Info("Signal caught", "sig", sig)
	cancel()
	_ = httpServer.Close()

	wg.Wait()
	return nil
}

// getRoom serves the last persisted room document. Reads go straight to the store, the
// live copy belongs to the room's owner goroutine and is only observable over the socket.
func getRoom(st store.Store) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		room, err := st.LoadRoom(request.Context(), mux.Vars(request)["room"])
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writer.WriteHeader(http.StatusNotFound)
				return
			}
			slog.Error("failed to load room", "err", err)
			writer.WriteHeader(http.StatusInternalServerError)
			return
		}
		writer.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(writer).Encode(room); err != nil {
			slog.Error("failed to write out", "err", err)
		}
	}
}
