package wsgateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mohamedkhairy/ict-dashboard/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServerConfig(maxConnections int) config.ServerConfig {
	return config.ServerConfig{
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   time.Second,
		PingInterval:   time.Second,
		MaxConnections: maxConnections,
	}
}

func startHub(t *testing.T, maxConnections int) (*Hub, string) {
	t.Helper()
	hub := NewHub(testServerConfig(maxConnections))
	require.NoError(t, hub.Start())

	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Stop()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readText(t *testing.T, ws *websocket.Conn) []byte {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	return data
}

func TestHub_PushesLatestOnConnect(t *testing.T) {
	hub, url := startHub(t, 10)
	snapshot := []byte(`{"time":"09:30:00 AM","tickers":{}}`)
	assert.Equal(t, 0, hub.BroadcastSnapshot(snapshot))

	ws := dial(t, url)
	assert.Equal(t, snapshot, readText(t, ws))
}

func TestHub_BroadcastReachesEveryClient(t *testing.T) {
	hub, url := startHub(t, 10)
	a := dial(t, url)
	b := dial(t, url)

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	snapshot := []byte(`{"time":"10:00:00 AM"}`)
	assert.Equal(t, 2, hub.BroadcastSnapshot(snapshot))
	assert.Equal(t, snapshot, readText(t, a))
	assert.Equal(t, snapshot, readText(t, b))

	stats := hub.GetStats()
	assert.Equal(t, int64(2), stats.ConnectionsActive)
	assert.Equal(t, int64(1), stats.SnapshotsBroadcast)
	assert.Equal(t, int64(2), stats.MessagesSent)
}

func TestHub_ClientProtocol(t *testing.T) {
	hub, url := startHub(t, 10)
	ws := dial(t, url)

	require.NoError(t, ws.WriteJSON(ClientMessage{Type: "ping"}))
	var msg ServerMessage
	require.NoError(t, json.Unmarshal(readText(t, ws), &msg))
	assert.Equal(t, MessageTypePong, msg.Type)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, json.Unmarshal(readText(t, ws), &msg))
	assert.Equal(t, "invalid_message", msg.Code)

	hub.BroadcastSnapshot([]byte(`{"time":"11:00:00 AM"}`))
	assert.JSONEq(t, `{"time":"11:00:00 AM"}`, string(readText(t, ws)))

	require.NoError(t, ws.WriteJSON(ClientMessage{Type: "refresh"}))
	assert.JSONEq(t, `{"time":"11:00:00 AM"}`, string(readText(t, ws)))
}

func TestHub_MaxConnections(t *testing.T) {
	hub, url := startHub(t, 1)
	dial(t, url)
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHub_UnregisterOnClientClose(t *testing.T) {
	hub, url := startHub(t, 10)
	ws := dial(t, url)
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	ws.Close()
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_ReapStale(t *testing.T) {
	hub := NewHub(testServerConfig(10))
	fresh := NewConnection("fresh", "", nil)
	stale := NewConnection("stale", "", nil)
	stale.lastPong = time.Now().Add(-time.Minute)
	hub.registry.Add(fresh)
	hub.registry.Add(stale)

	assert.Equal(t, 1, hub.reapStale(time.Now()))
	_, ok := hub.registry.Get("fresh")
	assert.True(t, ok)
	_, ok = hub.registry.Get("stale")
	assert.False(t, ok)
}

func TestHub_DropsFramesForSlowClients(t *testing.T) {
	hub := NewHub(testServerConfig(10))
	slow := NewConnection("slow", "", nil)
	hub.registry.Add(slow)

	for i := 0; i < sendBufferSize; i++ {
		hub.BroadcastSnapshot([]byte("{}"))
	}
	assert.Equal(t, 0, hub.BroadcastSnapshot([]byte("{}")))
	assert.Equal(t, int64(1), hub.GetStats().MessagesDropped)
}
