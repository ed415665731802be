package connections

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// TimeoutConfig holds the keep-alive settings for chat sockets
type TimeoutConfig struct {
	PongWait   time.Duration
	PingPeriod time.Duration
	WriteWait  time.Duration
}

var DefaultTimeouts = TimeoutConfig{
	PongWait:   60 * time.Second,
	PingPeriod: 54 * time.Second, // (PongWait * 9) / 10
	WriteWait:  10 * time.Second,
}

// Manager tracks open chat sockets and the session each belongs to
type Manager struct {
	mu          sync.RWMutex
	connections map[*websocket.Conn]string
	timeouts    TimeoutConfig
}

func NewManager(timeouts TimeoutConfig) *Manager {
	return &Manager{
		connections: make(map[*websocket.Conn]string),
		timeouts:    timeouts,
	}
}

func (m *Manager) AddConnection(conn *websocket.Conn, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[conn] = sessionID
}

func (m *Manager) RemoveConnection(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.connections, conn)
}

func (m *Manager) GetConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// SessionConnectionCount returns how many sockets are open for one session
func (m *Manager) SessionConnectionCount(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, id := range m.connections {
		if id == sessionID {
			count++
		}
	}
	return count
}

func (m *Manager) GetTimeouts() TimeoutConfig {
	return m.timeouts
}

// CloseAll sends a going-away close frame to every socket and forgets them
func (m *Manager) CloseAll() {
	m.mu.Lock()
	conns := m.connections
	m.connections = make(map[*websocket.Conn]string)
	m.mu.Unlock()

	deadline := time.Now().Add(m.timeouts.WriteWait)
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for conn, sessionID := range conns {
		if err := conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
			log.Debug().Err(err).Str("session_id", sessionID).Msg("Failed to send close frame")
		}
		conn.Close()
	}

	if len(conns) > 0 {
		log.Info().Int("connections", len(conns)).Msg("Closed chat connections")
	}
}
