package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ybarkan/wagate/internal/config"
	"github.com/ybarkan/wagate/internal/events"
	"github.com/ybarkan/wagate/internal/host"
	"github.com/ybarkan/wagate/internal/logging"
)

// startTestServer starts a feed on an ephemeral port and returns it with
// its ws:// URL.
func startTestServer(t *testing.T, handle func(host.Command)) (*Server, string) {
	t.Helper()

	srv := New(config.GatewayConfig{Enabled: true, Port: 0}, handle, logging.New(nil, "silent"))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not shut down")
		}
	})

	require.Eventually(t, func() bool {
		addr := srv.Addr()
		return addr != "" && !strings.HasSuffix(addr, ":0")
	}, 2*time.Second, 10*time.Millisecond)

	return srv, "ws://" + srv.Addr() + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	var conn *websocket.Conn
	require.Eventually(t, func() bool {
		c, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			return false
		}
		conn = c
		return true
	}, 2*time.Second, 20*time.Millisecond)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestEmitBroadcastsToClients(t *testing.T) {
	srv, url := startTestServer(t, nil)
	conn := dial(t, url)

	require.Eventually(t, func() bool { return srv.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	srv.Emit(events.NewStatus(true))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got events.Status
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "status", got.Type)
	assert.True(t, got.Connected)
}

func TestClientCommandsReachHandler(t *testing.T) {
	var mu sync.Mutex
	var received []host.Command
	handle := func(cmd host.Command) {
		mu.Lock()
		received = append(received, cmd)
		mu.Unlock()
	}

	srv, url := startTestServer(t, handle)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return srv.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"monitor_group","groupId":"123@g.us"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"stop_monitoring"}`)))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, host.CmdMonitorGroup, received[0].Type)
	assert.Equal(t, "123@g.us", received[0].GroupID)
	assert.Equal(t, host.CmdStopMonitoring, received[1].Type)
}

func TestDisconnectRemovesClient(t *testing.T) {
	srv, url := startTestServer(t, nil)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return srv.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return srv.ClientCount() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestHealthz(t *testing.T) {
	srv, _ := startTestServer(t, nil)

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSlowClientDropsEvents(t *testing.T) {
	c := newClient(nil, logging.New(nil, "silent"))

	// No write loop draining, so the queue fills and overflow is dropped.
	for i := 0; i < sendQueueDepth+10; i++ {
		c.enqueue([]byte(`{"type":"status","connected":true}`))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, 10, c.dropped)
}

func TestEnqueueAfterCloseIsNoop(t *testing.T) {
	c := newClient(nil, logging.New(nil, "silent"))
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.enqueue([]byte(`{}`)) // must not panic on a closed channel
	assert.Empty(t, c.send)
}
