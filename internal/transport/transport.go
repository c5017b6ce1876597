// Package transport implements the Connection Manager half of spec.md
// §6.2: accepting client connections and framing messages as
// plain-text lines over a websocket, one goroutine per connection.
// Grounded on broyeztony-karl/spreadsheet/server.go's upgrader +
// connection-registry + per-connection read-loop shape, with its JSON
// UpdateRequest/UpdateResponse framing replaced by the plain-text
// command grammar internal/session speaks.
package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rlayton/cellflow/internal/engine"
	"github.com/rlayton/cellflow/internal/logging"
	"github.com/rlayton/cellflow/internal/session"
)

// wsConn adapts a gorilla/websocket.Conn to session.Conn, treating
// every inbound frame (text or binary) as one command line and every
// outbound reply as a text frame.
type wsConn struct {
	ws *websocket.Conn
}

func (c *wsConn) ReadMessage() (string, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err,
			websocket.CloseNormalClosure,
			websocket.CloseGoingAway,
			websocket.CloseNoStatusReceived,
		) {
			return "", io.EOF
		}
		return "", err
	}
	return string(data), nil
}

func (c *wsConn) WriteMessage(msg string) error {
	return c.ws.WriteMessage(websocket.TextMessage, []byte(msg))
}

// Registry upgrades incoming HTTP requests to websockets and runs one
// session.Handle loop per connection, tracking live connections under
// a mutex the way karl/spreadsheet/server.go tracks its clients map.
// Each connection is assigned a uuid.UUID purely for log correlation
// (the Celler/session-identity idiom in
// other_examples/webitel-im-delivery-service's registry/cell.go).
type Registry struct {
	upgrader websocket.Upgrader
	engine   *engine.Engine
	log      *slog.Logger

	mu      sync.Mutex
	clients map[uuid.UUID]*wsConn
	wg      sync.WaitGroup
}

// NewRegistry builds a Registry serving eng over upgraded websocket
// connections, logging through log.
func NewRegistry(eng *engine.Engine, log *slog.Logger) *Registry {
	return &Registry{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		engine:  eng,
		log:     log,
		clients: make(map[uuid.UUID]*wsConn),
	}
}

// ServeHTTP upgrades the request and blocks for the lifetime of the
// connection, running the session loop. It never returns an error to
// the caller: transport-level failures are logged and simply end the
// connection, matching karl/server.go's HandleWebSocket.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ws, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.log.Error("websocket upgrade failed", "err", err)
		return
	}

	id := uuid.New()
	conn := &wsConn{ws: ws}
	r.register(id, conn)
	r.wg.Add(1)

	defer func() {
		r.unregister(id)
		r.wg.Done()
		_ = ws.Close()
	}()

	ctx := logging.WithContext(req.Context(), logging.NewLogContext(id.String()))
	logging.InfoCtx(ctx, r.log, "session started")
	if err := session.Handle(ctx, conn, r.engine, r.log); err != nil && !errors.Is(err, io.EOF) {
		logging.WarnCtx(ctx, r.log, "session ended with error", "err", err)
		return
	}
	logging.InfoCtx(ctx, r.log, "session closed")
}

func (r *Registry) register(id uuid.UUID, c *wsConn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[id] = c
}

func (r *Registry) unregister(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
}

// ConnectionCount reports the number of currently live sessions.
func (r *Registry) ConnectionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Wait blocks until every in-flight session has returned, for use
// during graceful shutdown once the HTTP listener has stopped
// accepting new connections.
func (r *Registry) Wait() {
	r.wg.Wait()
}
