package services

import (
	"sync"

	"waggle/models"

	"github.com/gorilla/websocket"
)

// wsSession is one open socket. Writes are serialized per session so a
// conversation tail is appended in arrival order and never reordered, and
// seen message ids are remembered so an optimistic echo arriving again via
// the live channel is dropped.
type wsSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
	seen map[int64]struct{}
}

type wsEnvelope struct {
	Event   string          `json:"event"`
	Message *models.Message `json:"message,omitempty"`
}

type WSConnManager struct {
	mu    sync.RWMutex
	users map[int64][]*wsSession
}

func NewWSConnManager() *WSConnManager {
	return &WSConnManager{
		users: make(map[int64][]*wsSession),
	}
}

func (m *WSConnManager) Add(userID int64, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = append(m.users[userID], &wsSession{
		conn: conn,
		seen: make(map[int64]struct{}),
	})
}

func (m *WSConnManager) Remove(userID int64, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sessions := m.users[userID]
	for i, s := range sessions {
		if s.conn == conn {
			m.users[userID] = append(sessions[:i], sessions[i+1:]...)
			break
		}
	}
	if len(m.users[userID]) == 0 {
		delete(m.users, userID)
	}
}

// SendMessage appends a message row to every open session of the user,
// skipping ids the session already rendered.
func (m *WSConnManager) SendMessage(userID int64, message *models.Message) {
	m.mu.RLock()
	sessions := append([]*wsSession(nil), m.users[userID]...)
	m.mu.RUnlock()

	for _, s := range sessions {
		s.mu.Lock()
		if _, delivered := s.seen[message.ID]; delivered {
			s.mu.Unlock()
			continue
		}
		s.seen[message.ID] = struct{}{}
		_ = s.conn.WriteJSON(wsEnvelope{Event: "message", Message: message})
		s.mu.Unlock()
	}
}

var GlobalWSConnManager = NewWSConnManager()
