// Package ws carries the duplex chat channel: one read loop per client, one
// writer goroutine per client, and a manager that fans task-change
// notifications out to everyone else.
package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"
)

// Envelope is the wire format for every server-to-client message.
type Envelope struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEnvelope(msgType string, data any) *Envelope {
	return &Envelope{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

const outgoingBufferSize = 32

// Connection pairs a websocket with its single-writer goroutine. All writes
// go through the outgoing channel so a broadcast and a direct reply can never
// interleave on the wire.
type Connection struct {
	ID string

	conn     *websocket.Conn
	outgoing chan []byte
	done     chan struct{}
	once     sync.Once
}

func (c *Connection) writeLoop(onFailure func(*Connection)) {
	for {
		select {
		case msg, ok := <-c.outgoing:
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Error("websocket write failed", "connection_id", c.ID, "error", err)
				onFailure(c)
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Connection) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// Manager tracks open connections. Send failures of any kind count as
// disconnects; the failing connection is dropped and never retried.
type Manager struct {
	mu          sync.RWMutex
	connections map[string]*Connection
}

func NewManager() *Manager {
	return &Manager{
		connections: make(map[string]*Connection),
	}
}

func (m *Manager) Register(conn *websocket.Conn) *Connection {
	c := &Connection{
		ID:       ulid.Make().String(),
		conn:     conn,
		outgoing: make(chan []byte, outgoingBufferSize),
		done:     make(chan struct{}),
	}
	m.mu.Lock()
	m.connections[c.ID] = c
	count := len(m.connections)
	m.mu.Unlock()

	go c.writeLoop(m.Unregister)

	slog.Info("websocket connected", "connection_id", c.ID, "total_connections", count)
	return c
}

func (m *Manager) Unregister(c *Connection) {
	m.mu.Lock()
	_, present := m.connections[c.ID]
	delete(m.connections, c.ID)
	count := len(m.connections)
	m.mu.Unlock()

	c.close()
	if present {
		slog.Info("websocket disconnected", "connection_id", c.ID, "total_connections", count)
	}
}

// Send queues an envelope for one connection. A full outgoing buffer means
// the client is not draining its socket, which is treated as a dead
// connection.
func (m *Manager) Send(c *Connection, env *Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		slog.Error("failed to encode envelope", "type", env.Type, "error", err)
		return
	}
	select {
	case c.outgoing <- payload:
	case <-c.done:
	default:
		slog.Warn("websocket send buffer full, dropping connection", "connection_id", c.ID)
		m.Unregister(c)
	}
}

// Broadcast queues an envelope for every connection except the one named by
// exceptID. Pass an empty exceptID to reach everyone.
func (m *Manager) Broadcast(env *Envelope, exceptID string) {
	m.mu.RLock()
	targets := make([]*Connection, 0, len(m.connections))
	for id, c := range m.connections {
		if id == exceptID {
			continue
		}
		targets = append(targets, c)
	}
	m.mu.RUnlock()

	for _, c := range targets {
		m.Send(c, env)
	}
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}
