// Package ws holds the in-app presentation channel: one WebSocket registry
// mapping users to their open connections. New notification events are
// pushed to every connection a user holds.
package ws

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const maxConnectionsPerUser = 10

// Manager tracks WebSocket connections per user.
type Manager struct {
	connections map[string]map[*websocket.Conn]bool
	mutex       sync.Mutex
	logger      *logrus.Logger
}

func NewManager(logger *logrus.Logger) *Manager {
	return &Manager{
		connections: make(map[string]map[*websocket.Conn]bool),
		logger:      logger,
	}
}

// Add registers a connection for a user. Connections beyond the per-user cap
// are closed immediately.
func (m *Manager) Add(userID string, conn *websocket.Conn) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if _, exists := m.connections[userID]; !exists {
		m.connections[userID] = make(map[*websocket.Conn]bool)
	}
	if len(m.connections[userID]) >= maxConnectionsPerUser {
		m.logger.Warnf("Max connections reached for user %s, rejecting", userID)
		conn.Close()
		return
	}
	m.connections[userID][conn] = true
	m.logger.Infof("Added WebSocket connection for user %s (total: %d)", userID, len(m.connections[userID]))
}

// Remove drops a connection for a user.
func (m *Manager) Remove(userID string, conn *websocket.Conn) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if conns, exists := m.connections[userID]; exists {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(m.connections, userID)
		}
		m.logger.Infof("Removed WebSocket connection for user %s (remaining: %d)", userID, len(conns))
	}
}

// SendToUser writes v as a JSON frame to every connection the user holds.
// Dead connections are dropped on write failure.
func (m *Manager) SendToUser(userID string, v interface{}) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	conns, exists := m.connections[userID]
	if !exists {
		return
	}
	for conn := range conns {
		if err := conn.WriteJSON(v); err != nil {
			m.logger.Errorf("WebSocket write to user %s failed, dropping connection: %v", userID, err)
			conn.Close()
			delete(conns, conn)
		}
	}
	if len(conns) == 0 {
		delete(m.connections, userID)
	}
}
