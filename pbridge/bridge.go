// Package pbridge serves applied telemetry frames to browser viewers
// over websockets, as a JSON feed mirroring what the local renderer sees.
package pbridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/pitwall-engine/pitwall/pwire"
)

// Config is the configuration for [New].
type Config struct {
	// Address to listen on. Defaults to 127.0.0.1:8090.
	// Use port 0 for an ephemeral port
	// (the bound address is available from [*Bridge.Addr]).
	Addr string
}

const defaultAddr = "127.0.0.1:8090"

// Bridge is an HTTP server with two routes:
// GET /frames upgrades to a websocket and streams every frame
// given to [*Bridge.Publish] from that point on, as JSON;
// GET /status reports the current client count.
//
// Clients that connect late do not see earlier frames:
// the feed is incremental state, not a recording.
type Bridge struct {
	log *slog.Logger

	ln  net.Listener
	srv *http.Server

	upgrader websocket.Upgrader

	mu      sync.Mutex
	head    *node
	clients int

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// New binds the listening socket and starts serving.
func New(log *slog.Logger, cfg Config) (*Bridge, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = defaultAddr
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	b := &Bridge{
		log: log,

		ln: ln,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},

		head: newNode(),

		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	r := mux.NewRouter()
	r.Methods(http.MethodGet).Path("/frames").HandlerFunc(b.handleFrames)
	r.Methods(http.MethodGet).Path("/status").HandlerFunc(b.handleStatus)

	b.srv = &http.Server{Handler: r}

	go func() {
		defer close(b.done)
		if err := b.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.log.Error("Serve failed", "err", err)
		}
	}()

	b.log.Info("Browser bridge listening", "addr", ln.Addr().String())
	return b, nil
}

// Addr returns the bound listening address.
func (b *Bridge) Addr() net.Addr {
	return b.ln.Addr()
}

// Publish fans out one frame to every connected client.
// It never blocks on slow clients. Publish must not be called
// concurrently with itself.
func (b *Bridge) Publish(f pwire.Frame) {
	b.mu.Lock()
	n := b.head
	n.frame = f
	n.next = newNode()
	b.head = n.next
	b.mu.Unlock()

	close(n.ready)
}

// Clients returns the number of currently connected websocket clients.
func (b *Bridge) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clients
}

// Stop shuts the server down and disconnects all clients.
// Safe to call more than once.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
		_ = b.srv.Close()
		<-b.done
	})
}

func (b *Bridge) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"clients": b.Clients(),
	})
}

func (b *Bridge) handleFrames(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Error("Failed to upgrade connection", "err", err)
		return
	}
	defer conn.Close()

	// Attach to the feed and only then count the client,
	// so anything published after Clients() reports us is delivered.
	b.mu.Lock()
	n := b.head
	b.clients++
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.clients--
		b.mu.Unlock()
	}()

	b.log.Info("Client connected", "remote", conn.RemoteAddr().String())

	// We never expect client data, but the read loop is required
	// to process control frames and to notice a disconnect.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-b.stop:
			_ = conn.WriteMessage(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			)
			return

		case <-gone:
			b.log.Info("Client disconnected", "remote", conn.RemoteAddr().String())
			return

		case <-n.ready:
			if err := conn.WriteJSON(n.frame); err != nil {
				b.log.Info("Dropping client", "remote", conn.RemoteAddr().String(), "err", err)
				return
			}
			n = n.next
		}
	}
}
