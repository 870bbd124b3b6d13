// Package viewer runs the local viewer bridge: an HTTP server for the
// static viewer page and a WebSocket server that pushes load-model and
// highlight commands to the single connected browser tab.
package viewer

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// LoadModelMessage instructs the page to load a model by its derivative
// URN. The token rides along so the page can stream viewables.
type LoadModelMessage struct {
	Type        string `json:"type"`
	URN         string `json:"urn"`
	AccessToken string `json:"accessToken"`
}

// HighlightMessage instructs the page to select and isolate elements by
// their external ids. The page resolves ids through the model's mapping and
// ignores any id with no match.
type HighlightMessage struct {
	Type        string   `json:"type"`
	ExternalIDs []string `json:"externalIds"`
}

// NewLoadModelMessage builds a load-model command from a raw file version
// URN and the current access token.
func NewLoadModelMessage(fileVersionURN, accessToken string) LoadModelMessage {
	return LoadModelMessage{
		Type:        "load-model",
		URN:         EncodeModelURN(fileVersionURN),
		AccessToken: accessToken,
	}
}

// NewHighlightMessage builds a highlight command.
func NewHighlightMessage(externalIDs []string) HighlightMessage {
	return HighlightMessage{Type: "highlight", ExternalIDs: externalIDs}
}

// EncodeModelURN encodes a file version URN the way the viewer expects:
// base64url without padding.
func EncodeModelURN(fileVersionURN string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(fileVersionURN))
}

// socket is the write side of one browser connection. The concrete
// implementation wraps a websocket connection; tests substitute a fake.
type socket interface {
	WriteJSON(ctx context.Context, v any) error
}

// wsSocket adapts a websocket connection to the socket interface.
type wsSocket struct {
	conn *websocket.Conn
}

func (s *wsSocket) WriteJSON(ctx context.Context, v any) error {
	return wsjson.Write(ctx, s.conn, v)
}

// Bridge owns the viewer's two local listeners and the single-slot state
// that synchronizes the browser tab: at most one active socket, at most one
// pending message. A second tab connecting replaces the active reference
// without closing the old socket; a second Send before any tab connects
// overwrites the pending message (last write wins).
type Bridge struct {
	log *slog.Logger

	mu         sync.Mutex
	pagePort   int
	socketPort int
	httpServer *http.Server
	wsServer   *http.Server
	active     socket
	pending    any
	running    bool
}

// New creates a stopped bridge. Port 0 picks a random free port (tests).
func New(pagePort, socketPort int, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{
		log:        log,
		pagePort:   pagePort,
		socketPort: socketPort,
	}
}

// Start binds the page and socket listeners and begins serving. It is
// idempotent: when already running it returns immediately. A bind failure
// on either port is fatal and not retried.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return nil
	}

	pageLn, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", b.pagePort))
	if err != nil {
		return fmt.Errorf("binding viewer page listener on port %d: %w", b.pagePort, err)
	}
	wsLn, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", b.socketPort))
	if err != nil {
		_ = pageLn.Close()
		return fmt.Errorf("binding viewer socket listener on port %d: %w", b.socketPort, err)
	}

	b.pagePort = pageLn.Addr().(*net.TCPAddr).Port
	b.socketPort = wsLn.Addr().(*net.TCPAddr).Port

	pageMux := http.NewServeMux()
	pageMux.HandleFunc("/", b.handlePage)
	pageMux.HandleFunc("/status", b.handleStatus)
	b.httpServer = &http.Server{Handler: pageMux}

	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/ws", b.handleSocket)
	b.wsServer = &http.Server{Handler: wsMux}

	go func() { _ = b.httpServer.Serve(pageLn) }()
	go func() { _ = b.wsServer.Serve(wsLn) }()

	b.running = true
	b.log.Info("viewer bridge started", "page_port", b.pagePort, "socket_port", b.socketPort)
	return nil
}

// Running reports whether the listeners are up.
func (b *Bridge) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.running
}

// Connected reports whether a browser tab is currently attached.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.active != nil
}

// PageURL returns the local URL of the viewer page.
func (b *Bridge) PageURL() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return fmt.Sprintf("http://localhost:%d/", b.pagePort)
}

// Send transmits a command to the attached tab, or stores it as the single
// pending message when no tab is attached. An older undelivered command is
// silently dropped in favor of the newest.
func (b *Bridge) Send(ctx context.Context, msg any) error {
	b.mu.Lock()
	active := b.active
	if active == nil {
		b.pending = msg
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	if err := b.writeTo(ctx, active, msg); err != nil {
		// Tab went away mid-send. Queue the message for the reconnect the
		// page's client performs after 2 seconds.
		b.mu.Lock()
		if b.active == active {
			b.active = nil
		}
		b.pending = msg
		b.mu.Unlock()
		return fmt.Errorf("writing to viewer socket: %w", err)
	}
	return nil
}

// writeTo writes one message to a socket.
func (b *Bridge) writeTo(ctx context.Context, s socket, msg any) error {
	return s.WriteJSON(ctx, msg)
}

// attach records s as the sole active socket and flushes the pending
// message, if any, exactly once.
func (b *Bridge) attach(ctx context.Context, s socket) {
	b.mu.Lock()
	b.active = s
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	if pending == nil {
		return
	}
	if err := b.writeTo(ctx, s, pending); err != nil {
		b.log.Error("viewer bridge: delivering pending message", "error", err)
	}
}

// detach clears the active slot if s is still the active socket. A socket
// that was already replaced by a newer tab is ignored.
func (b *Bridge) detach(s socket) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.active == s {
		b.active = nil
	}
}

// handleSocket upgrades the connection and parks it as the active socket
// until the read loop observes a close.
func (b *Bridge) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The page is served from a different local port than the socket,
		// so these connections are cross-origin by definition.
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		b.log.Error("viewer bridge: websocket accept", "error", err)
		return
	}

	s := &wsSocket{conn: conn}
	b.attach(r.Context(), s)
	b.log.Info("viewer bridge: tab connected")

	// Server-to-client only: the read loop exists to notice the close.
	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			break
		}
	}

	b.detach(s)
	b.log.Info("viewer bridge: tab disconnected")
	_ = conn.Close(websocket.StatusNormalClosure, "")
}
