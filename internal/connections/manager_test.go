package connections

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	t.Run("add and remove connection", func(t *testing.T) {
		manager := NewManager(DefaultTimeouts)
		conn := &websocket.Conn{}

		manager.AddConnection(conn, "session-a")
		assert.Equal(t, 1, manager.GetConnectionCount())
		assert.Equal(t, 1, manager.SessionConnectionCount("session-a"))

		manager.RemoveConnection(conn)
		assert.Equal(t, 0, manager.SessionConnectionCount("session-a"))
		assert.Equal(t, 0, manager.GetConnectionCount())
	})

	t.Run("concurrent connection operations", func(t *testing.T) {
		manager := NewManager(DefaultTimeouts)
		const concurrentOps = 100

		conns := make([]*websocket.Conn, concurrentOps)
		for i := range conns {
			conns[i] = &websocket.Conn{}
		}

		var wg sync.WaitGroup
		for i, conn := range conns {
			wg.Add(1)
			go func(conn *websocket.Conn, even bool) {
				defer wg.Done()
				sessionID := "odd"
				if even {
					sessionID = "even"
				}
				manager.AddConnection(conn, sessionID)
			}(conn, i%2 == 0)
		}
		wg.Wait()

		assert.Equal(t, concurrentOps, manager.GetConnectionCount())
		assert.Equal(t, concurrentOps/2, manager.SessionConnectionCount("even"))

		for _, conn := range conns {
			wg.Add(1)
			go func(conn *websocket.Conn) {
				defer wg.Done()
				manager.RemoveConnection(conn)
			}(conn)
		}
		wg.Wait()

		assert.Equal(t, 0, manager.GetConnectionCount())
	})

	t.Run("timeouts", func(t *testing.T) {
		custom := TimeoutConfig{PongWait: time.Second, PingPeriod: 900 * time.Millisecond, WriteWait: time.Second}
		manager := NewManager(custom)
		assert.Equal(t, custom, manager.GetTimeouts())
	})
}

func TestManagerCloseAll(t *testing.T) {
	manager := NewManager(DefaultTimeouts)
	upgrader := websocket.Upgrader{}
	registered := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		manager.AddConnection(conn, "session-a")
		close(registered)
	}))
	defer server.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer client.Close()

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("connection was never registered")
	}

	manager.CloseAll()
	assert.Equal(t, 0, manager.GetConnectionCount())

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = client.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
}
