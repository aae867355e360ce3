package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"waggle/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newWSPair dials a real websocket against an in-process server and hands
// back both ends: the server side goes into the manager, the client side
// reads what the manager wrote.
func newWSPair(t *testing.T) (server *websocket.Conn, client *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	connCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connCh <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	server = <-connCh
	t.Cleanup(func() { server.Close() })
	return server, client
}

func tailMessage(id, conversationID, senderID int64, content string) *models.Message {
	return &models.Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now(),
	}
}

func readEnvelope(t *testing.T, client *websocket.Conn) wsEnvelope {
	t.Helper()
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	var envelope wsEnvelope
	require.NoError(t, client.ReadJSON(&envelope))
	return envelope
}

func assertNoEnvelope(t *testing.T, client *websocket.Conn) {
	t.Helper()
	require.NoError(t, client.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	var envelope wsEnvelope
	assert.Error(t, client.ReadJSON(&envelope))
}

// A message id pushed twice, as happens when the sender's optimistic echo
// also arrives over the live channel, is delivered once and arrival order
// is preserved.
func TestWSManagerDedupeAndOrder(t *testing.T) {
	manager := NewWSConnManager()
	server, client := newWSPair(t)
	userID := int64(42)
	manager.Add(userID, server)

	first := tailMessage(1, 7, 9, "first")
	second := tailMessage(2, 7, 9, "second")
	manager.SendMessage(userID, first)
	manager.SendMessage(userID, first)
	manager.SendMessage(userID, second)

	got := readEnvelope(t, client)
	assert.Equal(t, "message", got.Event)
	assert.Equal(t, int64(1), got.Message.ID)

	got = readEnvelope(t, client)
	assert.Equal(t, int64(2), got.Message.ID)

	assertNoEnvelope(t, client)
}

// Seen ids are per session: a socket opened after the duplicate still gets
// the message once.
func TestWSManagerSeenIsPerSession(t *testing.T) {
	manager := NewWSConnManager()
	server1, client1 := newWSPair(t)
	server2, client2 := newWSPair(t)
	userID := int64(42)
	manager.Add(userID, server1)

	msg := tailMessage(1, 7, 9, "hello")
	manager.SendMessage(userID, msg)
	assert.Equal(t, int64(1), readEnvelope(t, client1).Message.ID)

	manager.Add(userID, server2)
	manager.SendMessage(userID, msg)
	assert.Equal(t, int64(1), readEnvelope(t, client2).Message.ID)
	assertNoEnvelope(t, client1)
}

func TestWSManagerRemove(t *testing.T) {
	manager := NewWSConnManager()
	server, client := newWSPair(t)
	userID := int64(42)
	manager.Add(userID, server)
	manager.Remove(userID, server)

	manager.SendMessage(userID, tailMessage(1, 7, 9, "gone"))
	assertNoEnvelope(t, client)

	manager.mu.RLock()
	_, stillTracked := manager.users[userID]
	manager.mu.RUnlock()
	assert.False(t, stillTracked)
}
