package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fleet-coordinator/internal/chat"
	"fleet-coordinator/internal/websocket"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gows "github.com/gorilla/websocket"
)

// recordingManager captures broadcast events instead of fanning them out.
type recordingManager struct {
	events []websocket.ChangeEvent
}

func (m *recordingManager) RegisterClient(string, *gows.Conn, websocket.SubscriptionFilters) error {
	return nil
}

func (m *recordingManager) UnregisterClient(string) error {
	return nil
}

func (m *recordingManager) BroadcastChange(event websocket.ChangeEvent) error {
	m.events = append(m.events, event)
	return nil
}

func (m *recordingManager) BroadcastBatch(events []websocket.ChangeEvent) error {
	m.events = append(m.events, events...)
	return nil
}

func (m *recordingManager) GetConnectedClients() int {
	return 0
}

func (m *recordingManager) Start() error { return nil }
func (m *recordingManager) Stop() error  { return nil }

func (m *recordingManager) GetClientStats() websocket.ClientStats {
	return websocket.ClientStats{}
}

func setupChatTest(t *testing.T) (*gin.Engine, *recordingManager) {
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	manager := &recordingManager{}
	handler := NewChatHandler(chat.NewStore(client))
	handler.SetWebSocketManager(manager)

	router := gin.New()
	router.Use(authAs("alice", "EMPLOYEE", "Transports Nord"))
	router.POST("/chat/messages", handler.SendMessage)
	return router, manager
}

func TestSendMessagePublishesToParticipantsOnly(t *testing.T) {
	router, manager := setupChatTest(t)

	req := httptest.NewRequest(http.MethodPost, "/chat/messages", strings.NewReader(`{"recipientId":"bob","text":"On arrive"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, manager.events, 1)

	event := manager.events[0]
	assert.Equal(t, websocket.CollectionChat, event.Collection)
	assert.ElementsMatch(t, []string{"alice", "bob"}, event.Participants)
	assert.Equal(t, chat.ConversationID("alice", "bob"), event.DocumentID)
}

func TestSendMessageRejectsSelf(t *testing.T) {
	router, manager := setupChatTest(t)

	req := httptest.NewRequest(http.MethodPost, "/chat/messages", strings.NewReader(`{"recipientId":"alice","text":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, manager.events)
}
