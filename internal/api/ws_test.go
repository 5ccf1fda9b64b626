package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sim"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketDefaultSubscriptions(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.mux)
	defer srv.Close()

	conn := dialWS(t, srv)
	require.Eventually(t, func() bool { return env.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	status := decodeMap(t, env.do(http.MethodGet, "/api/sim/status", ""))
	assert.Equal(t, float64(1), status["clientCount"])

	// New clients start subscribed to the data and state topics.
	delivered := env.hub.Publish(map[string]string{"type": "data", "payload": "hello"}, "data")
	assert.Equal(t, 1, delivered)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var got map[string]string
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "hello", got["payload"])

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return env.hub.Count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestWebSocketSubscribeReplacesTopics(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.mux)
	defer srv.Close()

	conn := dialWS(t, srv)
	require.Eventually(t, func() bool { return env.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":   "subscribe",
		"topics": []string{"debug"},
	}))

	// The subscribe frame is handled by the server's read loop, so poll on a
	// topic outside the defaults until the replacement takes effect.
	require.Eventually(t, func() bool {
		return env.hub.Publish(map[string]string{"type": "debug"}, "debug") == 1
	}, time.Second, 20*time.Millisecond)

	// The default data subscription is gone.
	assert.Equal(t, 0, env.hub.Publish(map[string]string{"type": "data"}, "data"))
}

func TestWebSocketIgnoresUnknownMessages(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.mux)
	defer srv.Close()

	conn := dialWS(t, srv)
	require.Eventually(t, func() bool { return env.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))

	// The client stays connected with its default subscriptions.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, env.hub.Count())
	assert.Equal(t, 1, env.hub.Publish(map[string]string{"type": "data"}, "data"))
}
