package transport

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/rlayton/cellflow/internal/engine"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistryServesASessionOverWebsocket(t *testing.T) {
	eng := engine.New(nil)
	defer eng.Shutdown()

	reg := NewRegistry(eng, testLogger())
	srv := httptest.NewServer(reg)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("set A1 40 + 2")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("get A1")))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, "A1 42", string(msg))

	require.Equal(t, 1, reg.ConnectionCount())
}

func TestRegistryTracksConnectionLifecycle(t *testing.T) {
	eng := engine.New(nil)
	defer eng.Shutdown()

	reg := NewRegistry(eng, testLogger())
	srv := httptest.NewServer(reg)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return reg.ConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return reg.ConnectionCount() == 0 }, time.Second, 5*time.Millisecond)
}
