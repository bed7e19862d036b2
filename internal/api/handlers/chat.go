package handlers

import (
	"fmt"
	"net/http"
	"time"

	"fleet-coordinator/internal/chat"
	"fleet-coordinator/internal/models"
	"fleet-coordinator/internal/websocket"
	"fleet-coordinator/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ChatHandler struct {
	store     *chat.Store
	wsManager websocket.WebSocketManager
	validator *validator.Validate
}

func NewChatHandler(store *chat.Store) *ChatHandler {
	return &ChatHandler{
		store:     store,
		validator: validator.New(),
	}
}

// SetWebSocketManager allows setting the WebSocket manager for live updates
func (h *ChatHandler) SetWebSocketManager(wsManager websocket.WebSocketManager) {
	h.wsManager = wsManager
}

// SendMessage appends a message to the conversation between the caller and
// the recipient and bumps the recipient's unread counter
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req struct {
		RecipientID string `json:"recipientId" validate:"required"`
		Text        string `json:"text" validate:"required,min=1,max=2000"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	viewer := viewerFromContext(c)
	if req.RecipientID == viewer.UserID {
		utils.ErrorResponse(c, http.StatusBadRequest, "Cannot send a message to yourself", nil)
		return
	}

	message, err := h.store.SendMessage(viewer.UserID, req.RecipientID, req.Text)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to send message", err)
		return
	}

	h.publishMessage(viewer.UserID, req.RecipientID, message)

	utils.SuccessResponse(c, http.StatusCreated, "Message sent successfully", message)
}

// GetHistory returns the full message history with one peer, oldest first
func (h *ChatHandler) GetHistory(c *gin.Context) {
	viewer := viewerFromContext(c)
	peerID := c.Param("peerId")

	messages, err := h.store.History(viewer.UserID, peerID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve messages", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Messages retrieved successfully", messages)
}

// GetConversations lists the caller's conversations, most recent first
func (h *ChatHandler) GetConversations(c *gin.Context) {
	viewer := viewerFromContext(c)

	conversations, err := h.store.Conversations(viewer.UserID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve conversations", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Conversations retrieved successfully", conversations)
}

// MarkRead clears the caller's unread counter for one peer
func (h *ChatHandler) MarkRead(c *gin.Context) {
	viewer := viewerFromContext(c)
	peerID := c.Param("peerId")

	if err := h.store.MarkConversationRead(viewer.UserID, peerID); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to mark conversation read", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Conversation marked read", nil)
}

// GetUnreadCounts returns per-peer unread message counts for the caller
func (h *ChatHandler) GetUnreadCounts(c *gin.Context) {
	viewer := viewerFromContext(c)

	counts, err := h.store.UnreadCounts(viewer.UserID)
	if err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve unread counts", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Unread counts retrieved successfully", counts)
}

func (h *ChatHandler) publishMessage(senderID, recipientID string, message *models.ChatMessage) {
	if h.wsManager == nil || message == nil {
		return
	}

	// Private messages go only to the two participants, never to the
	// company-wide stream.
	event := websocket.ChangeEvent{
		Collection:   websocket.CollectionChat,
		Action:       websocket.ActionCreate,
		DocumentID:   chat.ConversationID(senderID, recipientID),
		Participants: []string{senderID, recipientID},
		Data: map[string]interface{}{
			"senderId":    senderID,
			"recipientId": recipientID,
			"text":        message.Text,
			"createdAt":   message.CreatedAt,
		},
		Timestamp: time.Now(),
		Priority:  websocket.PriorityHigh,
	}

	if err := h.wsManager.BroadcastChange(event); err != nil {
		fmt.Printf("Failed to broadcast chat message: %v\n", err)
	}
}
