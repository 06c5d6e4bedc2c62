package devserver

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// TimeoutConfig holds the keepalive timing for conversation sockets.
type TimeoutConfig struct {
	PongWait   time.Duration
	PingPeriod time.Duration
	WriteWait  time.Duration
}

// DefaultTimeouts provides sensible default timeout values
var DefaultTimeouts = TimeoutConfig{
	PongWait:   30 * time.Second,
	PingPeriod: 27 * time.Second, // (PongWait * 9) / 10
	WriteWait:  10 * time.Second,
}

// connectionManager tracks which session each live conversation socket
// belongs to.
type connectionManager struct {
	connections sync.Map // *websocket.Conn -> session id
	timeouts    TimeoutConfig
}

func newConnectionManager(timeouts TimeoutConfig) *connectionManager {
	return &connectionManager{
		timeouts: timeouts,
	}
}

func (m *connectionManager) add(conn *websocket.Conn, sessionID string) {
	m.connections.Store(conn, sessionID)
}

func (m *connectionManager) remove(conn *websocket.Conn) {
	m.connections.Delete(conn)
}

func (m *connectionManager) count() int {
	count := 0
	m.connections.Range(func(key, value interface{}) bool {
		count++
		return true
	})
	return count
}
